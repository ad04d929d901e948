// Package export writes suppression lists to S3 as binary address streams
// and loads them back into the in-memory matching engine.
//
// Object layout: s3://<bucket>/<prefix>/<org>/addresses.bin holds the
// org's suppressed addresses in domain-major order, each framed with the
// emailaddr binary encoding.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/ignite/emailtype/internal/emailaddr"
	"github.com/ignite/emailtype/internal/pkg/distlock"
	"github.com/ignite/emailtype/internal/pkg/logger"
	"github.com/ignite/emailtype/internal/suppression"
)

const (
	objectName  = "addresses.bin"
	contentType = "application/octet-stream"

	// countMetadataKey is set on each object to the number of frames.
	countMetadataKey = "address-count"
)

var (
	// ErrExportInProgress is returned when another instance holds the
	// export lock for the org.
	ErrExportInProgress = errors.New("export already in progress")

	// ErrNoExport is returned by Import when the org has no exported object.
	ErrNoExport = errors.New("no export found")
)

// ObjectStore is the subset of the S3 API the exporter needs. *s3.Client
// satisfies it.
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// AddressSource lists an org's suppressed addresses in domain-major order.
type AddressSource interface {
	AllAddresses(ctx context.Context, orgID string) ([]emailaddr.Address, error)
}

// LockFactory returns the lock guarding key.
type LockFactory func(key string) distlock.DistLock

// Config holds exporter settings.
type Config struct {
	Bucket string
	Prefix string
}

// Result describes a finished export.
type Result struct {
	OrganizationID string        `json:"organization_id"`
	Bucket         string        `json:"bucket"`
	Key            string        `json:"key"`
	Count          int           `json:"count"`
	Bytes          int           `json:"bytes"`
	Duration       time.Duration `json:"duration_ns"`
}

// Exporter moves suppression lists between the database, S3 and the
// matching engine.
type Exporter struct {
	store  ObjectStore
	source AddressSource
	lock   LockFactory
	cfg    Config
}

// NewExporter creates an Exporter.
func NewExporter(store ObjectStore, source AddressSource, lock LockFactory, cfg Config) *Exporter {
	return &Exporter{store: store, source: source, lock: lock, cfg: cfg}
}

// ObjectKey returns the S3 key for an org's export.
func (e *Exporter) ObjectKey(orgID string) string {
	return path.Join(e.cfg.Prefix, orgID, objectName)
}

// ListID names the engine list an org's export is loaded under.
func ListID(orgID string) string { return "org:" + orgID }

// Export writes the org's suppression list to S3. Only one export per org
// runs at a time across instances.
func (e *Exporter) Export(ctx context.Context, orgID string) (*Result, error) {
	var res *Result
	err := distlock.WithLock(ctx, e.lock("export:"+orgID), func(ctx context.Context) error {
		var err error
		res, err = e.export(ctx, orgID)
		return err
	})
	if errors.Is(err, distlock.ErrLockHeld) {
		return nil, ErrExportInProgress
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Exporter) export(ctx context.Context, orgID string) (*Result, error) {
	start := time.Now()

	addrs, err := e.source.AllAddresses(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load addresses: %w", err)
	}

	var buf bytes.Buffer
	w := emailaddr.NewWriter(&buf)
	for _, a := range addrs {
		if err := w.Write(a); err != nil {
			return nil, fmt.Errorf("encode %s: %w", logger.RedactEmail(a.String()), err)
		}
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("flush export: %w", err)
	}

	key := e.ObjectKey(orgID)
	_, err = e.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(e.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(int64(buf.Len())),
		ContentType:   aws.String(contentType),
		Metadata:      map[string]string{countMetadataKey: strconv.Itoa(w.Count())},
	})
	if err != nil {
		return nil, fmt.Errorf("S3 PutObject %s/%s: %w", e.cfg.Bucket, key, err)
	}

	res := &Result{
		OrganizationID: orgID,
		Bucket:         e.cfg.Bucket,
		Key:            key,
		Count:          w.Count(),
		Bytes:          buf.Len(),
		Duration:       time.Since(start),
	}
	logger.Info("suppression export written",
		"org_id", orgID, "key", key, "count", res.Count, "bytes", res.Bytes)
	return res, nil
}

// Import downloads the org's export and installs it in m, replacing any
// list previously loaded for the org.
func (e *Exporter) Import(ctx context.Context, orgID string, m *suppression.Manager) (*suppression.List, error) {
	key := e.ObjectKey(orgID)
	out, err := e.store.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(e.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrNoExport, e.cfg.Bucket, key)
		}
		return nil, fmt.Errorf("S3 GetObject %s/%s: %w", e.cfg.Bucket, key, err)
	}
	defer out.Body.Close()

	addrs, err := emailaddr.NewReader(out.Body).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode s3://%s/%s: %w", e.cfg.Bucket, key, err)
	}
	if want, ok := out.Metadata[countMetadataKey]; ok && want != strconv.Itoa(len(addrs)) {
		return nil, fmt.Errorf("decode s3://%s/%s: %w", e.cfg.Bucket, key,
			&emailaddr.CorruptEncodingError{Details: fmt.Sprintf("object declares %s addresses, read %d", want, len(addrs))})
	}

	list, err := suppression.NewList(ListID(orgID), "org "+orgID, "export", addrs)
	if err != nil {
		return nil, err
	}
	m.ReplaceList(list)

	logger.Info("suppression export imported", "org_id", orgID, "key", key, "count", list.Count())
	return list, nil
}
