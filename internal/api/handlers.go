package api

import (
	"context"

	"github.com/ignite/emailtype/internal/export"
	"github.com/ignite/emailtype/internal/service/suppression"
	"github.com/ignite/emailtype/internal/storage"
	matching "github.com/ignite/emailtype/internal/suppression"
)

// DefaultMaxScrubBatch is used when no scrub limit is configured.
const DefaultMaxScrubBatch = 10000

// Exporter writes an org's list to object storage and reads it back into
// the matching engine. *export.Exporter satisfies it.
type Exporter interface {
	Export(ctx context.Context, orgID string) (*export.Result, error)
	Import(ctx context.Context, orgID string, m *matching.Manager) (*matching.List, error)
}

// Directory records addresses by domain. *storage.Directory satisfies it.
type Directory interface {
	Put(ctx context.Context, e storage.Entry) error
	ListDomain(ctx context.Context, domain string) ([]storage.Entry, error)
}

// Handlers contains the HTTP handlers. The exporter and directory are
// optional; routes that need them answer 503 when they are nil.
type Handlers struct {
	svc       *suppression.Service
	lists     *matching.Manager
	exporter  Exporter
	directory Directory
	maxScrub  int
}

// NewHandlers creates handlers over the suppression service and the
// in-memory list manager.
func NewHandlers(svc *suppression.Service, lists *matching.Manager) *Handlers {
	if lists == nil {
		lists = matching.NewManager()
	}
	return &Handlers{svc: svc, lists: lists, maxScrub: DefaultMaxScrubBatch}
}

// SetExporter enables POST /api/suppressions/export.
func (h *Handlers) SetExporter(e Exporter) { h.exporter = e }

// SetDirectory enables the address directory.
func (h *Handlers) SetDirectory(d Directory) { h.directory = d }

// SetMaxScrubBatch caps the size of a scrub request. n <= 0 restores the default.
func (h *Handlers) SetMaxScrubBatch(n int) {
	if n <= 0 {
		n = DefaultMaxScrubBatch
	}
	h.maxScrub = n
}
