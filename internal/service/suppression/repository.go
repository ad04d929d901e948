package suppression

import (
	"context"

	"github.com/ignite/emailtype/internal/domain"
	"github.com/ignite/emailtype/internal/emailaddr"
)

// Repository defines the data access contract for the suppression list.
type Repository interface {
	// IsSuppressed returns true if the address is on the org's suppression list.
	IsSuppressed(ctx context.Context, orgID string, addr emailaddr.Address) (bool, error)

	// FilterSuppressed returns the subset of addrs that are suppressed.
	FilterSuppressed(ctx context.Context, orgID string, addrs []emailaddr.Address) ([]emailaddr.Address, error)

	// Suppress adds an address to the suppression list. If it already exists,
	// the entry is reactivated with the new reason.
	Suppress(ctx context.Context, s *domain.Suppression) error

	// Remove deactivates a suppression entry. Returns ErrNotFound if it doesn't exist.
	Remove(ctx context.Context, orgID string, addr emailaddr.Address) error

	// List returns suppression entries matching the filter in domain-major
	// address order, together with the total matching count.
	List(ctx context.Context, orgID string, filter ListFilter) ([]domain.Suppression, int, error)

	// Count returns the total number of suppressed addresses for an org.
	Count(ctx context.Context, orgID string) (int, error)

	// AllAddresses returns every suppressed address for an org, sorted
	// domain-major (for export).
	AllAddresses(ctx context.Context, orgID string) ([]emailaddr.Address, error)
}

// ListFilter controls pagination and filtering for suppression lists.
// Domain restricts results to a single domain (same-domain scan).
type ListFilter struct {
	Reason string
	Source string
	Domain string
	Limit  int
	Offset int
}
