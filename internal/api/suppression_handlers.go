package api

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/emailtype/internal/domain"
	"github.com/ignite/emailtype/internal/emailaddr"
	"github.com/ignite/emailtype/internal/export"
	"github.com/ignite/emailtype/internal/pkg/httputil"
	"github.com/ignite/emailtype/internal/pkg/logger"
	"github.com/ignite/emailtype/internal/service/suppression"
	"github.com/ignite/emailtype/internal/storage"
	matching "github.com/ignite/emailtype/internal/suppression"
)

// HandleListSuppressions returns the org's suppressions in domain-major order.
//
//	GET /api/suppressions?reason=&source=&domain=&page=&limit=
func (h *Handlers) HandleListSuppressions(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r, 50, 500)
	q := r.URL.Query()
	entries, total, err := h.svc.List(r.Context(), orgFrom(r), suppression.ListFilter{
		Reason: q.Get("reason"),
		Source: q.Get("source"),
		Domain: q.Get("domain"),
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.Suppression{}
	}
	httputil.OK(w, NewPaginatedResponse(entries, p, total))
}

// StatsResponse combines stored counts with the state of the org's
// in-memory list, when one is loaded.
type StatsResponse struct {
	*suppression.Stats
	Loaded *matching.ListStats `json:"loaded_list,omitempty"`
}

// HandleSuppressionStats returns aggregate counts.
//
//	GET /api/suppressions/stats
func (h *Handlers) HandleSuppressionStats(w http.ResponseWriter, r *http.Request) {
	org := orgFrom(r)
	stats, err := h.svc.GetStats(r.Context(), org)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := StatsResponse{Stats: stats}
	if list, err := h.lists.GetList(export.ListID(org)); err == nil {
		ls := list.Stats()
		resp.Loaded = &ls
	}
	httputil.OK(w, resp)
}

// CheckResponse is returned by the check endpoint. InMemory is set only
// when the org's list is loaded in the matching engine.
type CheckResponse struct {
	Email      string `json:"email"`
	Suppressed bool   `json:"suppressed"`
	InMemory   *bool  `json:"in_memory,omitempty"`
}

// HandleCheck reports whether one address is suppressed.
//
//	GET /api/suppressions/check/{email}
func (h *Handlers) HandleCheck(w http.ResponseWriter, r *http.Request) {
	raw, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil {
		httputil.ErrorWithCode(w, http.StatusBadRequest, codeBadRequest, "malformed path", nil)
		return
	}
	addr, err := suppression.ParseEmail(raw)
	if err != nil {
		writeError(w, err)
		return
	}
	org := orgFrom(r)
	suppressed, err := h.svc.IsSuppressed(r.Context(), org, addr.String())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := CheckResponse{Email: addr.String(), Suppressed: suppressed}
	if list, err := h.lists.GetList(export.ListID(org)); err == nil {
		hit := list.Contains(addr)
		resp.InMemory = &hit
	}
	httputil.OK(w, resp)
}

type suppressRequest struct {
	Email      string                   `json:"email"`
	Reason     domain.SuppressionReason `json:"reason"`
	Source     domain.SuppressionSource `json:"source"`
	ISP        string                   `json:"isp"`
	DSNCode    string                   `json:"dsn_code"`
	DSNDiag    string                   `json:"dsn_diag"`
	SourceIP   string                   `json:"source_ip"`
	CampaignID string                   `json:"campaign_id"`
}

// HandleSuppress adds an address to the org's list. The address is also
// recorded in the directory when one is configured; a directory failure is
// logged and does not fail the request.
//
//	POST /api/suppressions
func (h *Handlers) HandleSuppress(w http.ResponseWriter, r *http.Request) {
	var req suppressRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	entry, err := h.svc.Suppress(r.Context(), orgFrom(r), req.Email, suppression.Entry{
		Reason:     req.Reason,
		Source:     req.Source,
		ISP:        req.ISP,
		DSNCode:    req.DSNCode,
		DSNDiag:    req.DSNDiag,
		SourceIP:   req.SourceIP,
		CampaignID: req.CampaignID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if h.directory != nil {
		err := h.directory.Put(r.Context(), storage.Entry{Address: entry.Email, Source: string(entry.Source)})
		if err != nil {
			logger.Warn("directory put failed", "email", entry.Email.String(), "error", err)
		}
	}
	httputil.Created(w, entry)
}

// HandleRemove deletes an address from the org's list.
//
//	DELETE /api/suppressions/{email}
func (h *Handlers) HandleRemove(w http.ResponseWriter, r *http.Request) {
	raw, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil {
		httputil.ErrorWithCode(w, http.StatusBadRequest, codeBadRequest, "malformed path", nil)
		return
	}
	if err := h.svc.Remove(r.Context(), orgFrom(r), raw); err != nil {
		writeError(w, err)
		return
	}
	httputil.NoContent(w)
}

// HandleScrub partitions a batch into deliverable, suppressed and invalid.
//
//	POST /api/suppressions/scrub {"emails": [...]}
func (h *Handlers) HandleScrub(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Emails []string `json:"emails"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if len(req.Emails) > h.maxScrub {
		httputil.ErrorWithCode(w, http.StatusBadRequest, codeBadRequest, "too many emails", map[string]int{"max": h.maxScrub})
		return
	}
	res, err := h.svc.Scrub(r.Context(), orgFrom(r), req.Emails)
	if err != nil {
		writeError(w, err)
		return
	}
	if res.Deliverable == nil {
		res.Deliverable = []emailaddr.Address{}
	}
	if res.Suppressed == nil {
		res.Suppressed = []emailaddr.Address{}
	}
	if res.Invalid == nil {
		res.Invalid = []suppression.InvalidEmail{}
	}
	httputil.OK(w, res)
}

// ExportResponse reports a finished export and, when reload was requested,
// the list now loaded in the matching engine.
type ExportResponse struct {
	*export.Result
	Loaded *matching.ListStats `json:"loaded_list,omitempty"`
}

// HandleExport writes the org's list to S3. With ?reload=true the object
// is read back and installed in the matching engine.
//
//	POST /api/suppressions/export
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "export is not configured")
		return
	}
	org := orgFrom(r)
	res, err := h.exporter.Export(r.Context(), org)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := ExportResponse{Result: res}
	if reload, _ := strconv.ParseBool(r.URL.Query().Get("reload")); reload && res.Count > 0 {
		list, err := h.exporter.Import(r.Context(), org, h.lists)
		if err != nil {
			writeError(w, err)
			return
		}
		ls := list.Stats()
		resp.Loaded = &ls
	}
	httputil.OK(w, resp)
}

// HandleEngineStats returns the state of every loaded list.
//
//	GET /api/engine/stats
func (h *Handlers) HandleEngineStats(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, h.lists.Stats())
}

// HandleDomainDirectory lists the directory entries of one domain.
//
//	GET /api/addresses/domains/{domain}
func (h *Handlers) HandleDomainDirectory(w http.ResponseWriter, r *http.Request) {
	if h.directory == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "address directory is not configured")
		return
	}
	entries, err := h.directory.ListDomain(r.Context(), chi.URLParam(r, "domain"))
	if err != nil {
		writeError(w, err)
		return
	}
	type row struct {
		Address   emailaddr.Address `json:"address"`
		Source    string            `json:"source,omitempty"`
		UpdatedAt time.Time         `json:"updated_at"`
	}
	out := make([]row, 0, len(entries))
	for _, e := range entries {
		out = append(out, row{Address: e.Address, Source: e.Source, UpdatedAt: e.UpdatedAt})
	}
	httputil.OK(w, map[string]any{"domain": emailaddr.Canonicalize(chi.URLParam(r, "domain")), "addresses": out})
}
