// Package storage holds the DynamoDB-backed address directory and AWS
// client construction.
//
// The directory table is keyed by (domain, local): every address of a
// domain lives in one partition, sorted by local part, so a same-domain
// listing is a single Query. The full address is also stored in its binary
// encoding and verified on every read.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/ignite/emailtype/internal/emailaddr"
)

// ErrNotFound is returned by Get when the address has no directory entry.
var ErrNotFound = errors.New("address not in directory")

// DynamoAPI is the subset of the DynamoDB client the directory uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Entry is one directory record.
type Entry struct {
	Address   emailaddr.Address
	Source    string
	UpdatedAt time.Time
}

// binaryAddress stores an address as a DynamoDB binary attribute holding
// its emailaddr encoding.
type binaryAddress struct{ emailaddr.Address }

func (b binaryAddress) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	enc, err := b.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return &types.AttributeValueMemberB{Value: enc}, nil
}

func (b *binaryAddress) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	m, ok := av.(*types.AttributeValueMemberB)
	if !ok {
		return &emailaddr.CorruptEncodingError{Details: fmt.Sprintf("address attribute has type %T, want binary", av)}
	}
	return b.UnmarshalBinary(m.Value)
}

type directoryItem struct {
	Domain    string        `dynamodbav:"domain"`
	Local     string        `dynamodbav:"local"`
	Address   binaryAddress `dynamodbav:"address"`
	Hash      uint32        `dynamodbav:"hash"`
	Source    string        `dynamodbav:"source,omitempty"`
	UpdatedAt string        `dynamodbav:"updated_at"`
}

// Directory is a DynamoDB address directory.
type Directory struct {
	client DynamoAPI
	table  string
	now    func() time.Time
}

// NewDirectory creates a directory over table.
func NewDirectory(client DynamoAPI, table string) *Directory {
	return &Directory{client: client, table: table, now: time.Now}
}

// NewDynamoClient creates a DynamoDB client from cfg.
func NewDynamoClient(cfg aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg)
}

func keyOf(a emailaddr.Address) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"domain": &types.AttributeValueMemberS{Value: a.Domain()},
		"local":  &types.AttributeValueMemberS{Value: a.Local()},
	}
}

// Put writes or replaces the entry for e.Address.
func (d *Directory) Put(ctx context.Context, e Entry) error {
	if e.Address.IsZero() {
		return emailaddr.ErrZeroAddress
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = d.now()
	}
	av, err := attributevalue.MarshalMap(directoryItem{
		Domain:    e.Address.Domain(),
		Local:     e.Address.Local(),
		Address:   binaryAddress{e.Address},
		Hash:      e.Address.Hash(),
		Source:    e.Source,
		UpdatedAt: e.UpdatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshaling directory item: %w", err)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("putting item to DynamoDB: %w", err)
	}
	return nil
}

// Get returns the entry for a.
func (d *Directory) Get(ctx context.Context, a emailaddr.Address) (*Entry, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            keyOf(a),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting item from DynamoDB: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	return decodeItem(out.Item)
}

// Delete removes the entry for a. Deleting a missing entry is not an error.
func (d *Directory) Delete(ctx context.Context, a emailaddr.Address) error {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.table),
		Key:       keyOf(a),
	})
	if err != nil {
		return fmt.Errorf("deleting item from DynamoDB: %w", err)
	}
	return nil
}

// ListDomain returns every entry whose domain equals domain
// (case-insensitive), in local-part order.
func (d *Directory) ListDomain(ctx context.Context, domain string) ([]Entry, error) {
	p := dynamodb.NewQueryPaginator(d.client, &dynamodb.QueryInput{
		TableName:              aws.String(d.table),
		KeyConditionExpression: aws.String("#d = :d"),
		ExpressionAttributeNames: map[string]string{
			"#d": "domain",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":d": &types.AttributeValueMemberS{Value: emailaddr.Canonicalize(domain)},
		},
	})

	var entries []Entry
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("querying DynamoDB: %w", err)
		}
		for _, item := range page.Items {
			e, err := decodeItem(item)
			if err != nil {
				return nil, err
			}
			entries = append(entries, *e)
		}
	}
	return entries, nil
}

// decodeItem unmarshals an item and checks that its key attributes and
// hash agree with the encoded address.
func decodeItem(item map[string]types.AttributeValue) (*Entry, error) {
	var it directoryItem
	if err := attributevalue.UnmarshalMap(item, &it); err != nil {
		return nil, fmt.Errorf("unmarshaling directory item: %w", err)
	}
	a := it.Address.Address
	if a.IsZero() {
		return nil, &emailaddr.CorruptEncodingError{Details: "directory item has no address"}
	}
	if a.Domain() != it.Domain || a.Local() != it.Local || a.Hash() != it.Hash {
		return nil, &emailaddr.CorruptEncodingError{
			Details: fmt.Sprintf("directory key %s@%s does not match stored address", it.Local, it.Domain),
		}
	}

	e := &Entry{Address: a, Source: it.Source}
	if it.UpdatedAt != "" {
		t, err := time.Parse(time.RFC3339, it.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}
		e.UpdatedAt = t
	}
	return e, nil
}
