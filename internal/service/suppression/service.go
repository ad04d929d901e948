package suppression

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ignite/emailtype/internal/domain"
	"github.com/ignite/emailtype/internal/emailaddr"
)

// Service implements suppression business logic. It is safe for concurrent use.
type Service struct {
	repo Repository
}

// NewService creates a suppression service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Entry carries the metadata recorded with a new suppression.
type Entry struct {
	Reason     domain.SuppressionReason
	Source     domain.SuppressionSource
	ISP        string
	DSNCode    string
	DSNDiag    string
	SourceIP   string
	CampaignID string
}

// ParseEmail trims surrounding whitespace and parses raw into an address.
// Empty input yields ErrEmailRequired; anything else invalid yields the
// *emailaddr.ValidationError from Parse.
func ParseEmail(raw string) (emailaddr.Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return emailaddr.Address{}, ErrEmailRequired
	}
	return emailaddr.Parse(raw)
}

// IsSuppressed checks whether an email address should be blocked from sending.
func (s *Service) IsSuppressed(ctx context.Context, orgID, email string) (bool, error) {
	addr, err := ParseEmail(email)
	if err != nil {
		return false, err
	}
	return s.repo.IsSuppressed(ctx, orgID, addr)
}

// Suppress adds an email to the org's suppression list. Idempotent: a repeated
// call reactivates the existing entry.
func (s *Service) Suppress(ctx context.Context, orgID, email string, e Entry) (*domain.Suppression, error) {
	if orgID == "" {
		return nil, ErrOrgIDRequired
	}
	addr, err := ParseEmail(email)
	if err != nil {
		return nil, err
	}
	if !e.Reason.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReason, e.Reason)
	}
	if e.Source == "" {
		e.Source = domain.SourceManual
	}

	entry := &domain.Suppression{
		OrganizationID: orgID,
		Email:          addr,
		Hash:           addr.Hash(),
		Reason:         e.Reason,
		Source:         e.Source,
		ISP:            e.ISP,
		DSNCode:        e.DSNCode,
		DSNDiag:        e.DSNDiag,
		SourceIP:       e.SourceIP,
		CampaignID:     e.CampaignID,
	}
	if err := s.repo.Suppress(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Remove deletes a suppression entry. Returns ErrNotFound if the email is not suppressed.
func (s *Service) Remove(ctx context.Context, orgID, email string) error {
	addr, err := ParseEmail(email)
	if err != nil {
		return err
	}
	return s.repo.Remove(ctx, orgID, addr)
}

// List returns suppression entries matching the given filter.
func (s *Service) List(ctx context.Context, orgID string, filter ListFilter) ([]domain.Suppression, int, error) {
	filter.Domain = emailaddr.Canonicalize(strings.TrimSpace(filter.Domain))
	return s.repo.List(ctx, orgID, filter)
}

// Count returns the total number of suppressed emails for an organization.
func (s *Service) Count(ctx context.Context, orgID string) (int, error) {
	return s.repo.Count(ctx, orgID)
}

// DomainCount is one row of the per-domain breakdown in Stats.
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// Stats returns aggregate counts grouped by reason, source and domain.
type Stats struct {
	Total      int            `json:"total"`
	ByReason   map[string]int `json:"by_reason"`
	BySource   map[string]int `json:"by_source"`
	TopDomains []DomainCount  `json:"top_domains"`
}

const topDomainLimit = 10

// GetStats computes suppression statistics for the dashboard.
func (s *Service) GetStats(ctx context.Context, orgID string) (*Stats, error) {
	entries, total, err := s.repo.List(ctx, orgID, ListFilter{Limit: 0})
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Total:    total,
		ByReason: make(map[string]int),
		BySource: make(map[string]int),
	}
	byDomain := make(map[string]int)
	for _, e := range entries {
		stats.ByReason[string(e.Reason)]++
		stats.BySource[string(e.Source)]++
		byDomain[e.Domain()]++
	}

	for d, n := range byDomain {
		stats.TopDomains = append(stats.TopDomains, DomainCount{Domain: d, Count: n})
	}
	sort.Slice(stats.TopDomains, func(i, j int) bool {
		a, b := stats.TopDomains[i], stats.TopDomains[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Domain < b.Domain
	})
	if len(stats.TopDomains) > topDomainLimit {
		stats.TopDomains = stats.TopDomains[:topDomainLimit]
	}
	return stats, nil
}

// AllAddresses returns every suppressed address for the org in domain-major
// order. Used by the export job.
func (s *Service) AllAddresses(ctx context.Context, orgID string) ([]emailaddr.Address, error) {
	return s.repo.AllAddresses(ctx, orgID)
}

// InvalidEmail records one rejected input line of a scrub request.
type InvalidEmail struct {
	Input  string `json:"input"`
	Reason string `json:"reason"`
}

// ScrubResult partitions a batch of raw emails.
type ScrubResult struct {
	Deliverable []emailaddr.Address `json:"deliverable"`
	Suppressed  []emailaddr.Address `json:"suppressed"`
	Invalid     []InvalidEmail      `json:"invalid"`
}

// Scrub parses every raw email, drops duplicates (case-insensitively) and
// splits the valid ones into deliverable and suppressed using one batch
// repository lookup. Output slices are in domain-major order.
func (s *Service) Scrub(ctx context.Context, orgID string, emails []string) (*ScrubResult, error) {
	res := &ScrubResult{}
	addrs := make([]emailaddr.Address, 0, len(emails))
	for _, raw := range emails {
		addr, err := ParseEmail(raw)
		if err != nil {
			res.Invalid = append(res.Invalid, InvalidEmail{Input: raw, Reason: err.Error()})
			continue
		}
		addrs = append(addrs, addr)
	}
	addrs = emailaddr.SortedUnique(addrs)
	if len(addrs) == 0 {
		return res, nil
	}

	suppressed, err := s.repo.FilterSuppressed(ctx, orgID, addrs)
	if err != nil {
		return nil, fmt.Errorf("filter suppressed: %w", err)
	}
	suppressed = emailaddr.SortedUnique(suppressed)

	for _, a := range addrs {
		if _, hit := emailaddr.Search(suppressed, a); hit {
			res.Suppressed = append(res.Suppressed, a)
		} else {
			res.Deliverable = append(res.Deliverable, a)
		}
	}
	return res, nil
}
