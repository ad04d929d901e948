package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/ignite/emailtype/internal/domain"
	"github.com/ignite/emailtype/internal/emailaddr"
	"github.com/ignite/emailtype/internal/export"
	"github.com/ignite/emailtype/internal/service/suppression"
	"github.com/ignite/emailtype/internal/storage"
	matching "github.com/ignite/emailtype/internal/suppression"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrg = "org-1"

// memRepo is an in-memory suppression.Repository.
type memRepo struct {
	mu    sync.Mutex
	store map[string]*domain.Suppression
	fail  error
}

func newMemRepo() *memRepo { return &memRepo{store: map[string]*domain.Suppression{}} }

func (m *memRepo) key(org string, a emailaddr.Address) string { return org + ":" + a.String() }

func (m *memRepo) IsSuppressed(_ context.Context, org string, a emailaddr.Address) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return false, m.fail
	}
	_, ok := m.store[m.key(org, a)]
	return ok, nil
}

func (m *memRepo) FilterSuppressed(ctx context.Context, org string, addrs []emailaddr.Address) ([]emailaddr.Address, error) {
	var out []emailaddr.Address
	for _, a := range addrs {
		ok, err := m.IsSuppressed(ctx, org, a)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memRepo) Suppress(_ context.Context, s *domain.Suppression) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = "id-" + s.Email.String()
	s.CreatedAt = time.Now()
	m.store[m.key(s.OrganizationID, s.Email)] = s
	return nil
}

func (m *memRepo) Remove(_ context.Context, org string, a emailaddr.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[m.key(org, a)]; !ok {
		return suppression.ErrNotFound
	}
	delete(m.store, m.key(org, a))
	return nil
}

func (m *memRepo) List(_ context.Context, org string, f suppression.ListFilter) ([]domain.Suppression, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Suppression
	for _, s := range m.store {
		if s.OrganizationID != org || (f.Domain != "" && s.Domain() != f.Domain) || (f.Reason != "" && string(s.Reason) != f.Reason) {
			continue
		}
		out = append(out, *s)
	}
	total := len(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (m *memRepo) Count(ctx context.Context, org string) (int, error) {
	_, n, err := m.List(ctx, org, suppression.ListFilter{})
	return n, err
}

func (m *memRepo) AllAddresses(ctx context.Context, org string) ([]emailaddr.Address, error) {
	entries, _, _ := m.List(ctx, org, suppression.ListFilter{})
	out := make([]emailaddr.Address, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Email)
	}
	emailaddr.Sort(out)
	return out, nil
}

// fakeExporter exports straight from the repo into memory.
type fakeExporter struct {
	repo    *memRepo
	err     error
	stored  map[string][]emailaddr.Address
	imports int
}

func (f *fakeExporter) Export(ctx context.Context, org string) (*export.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	addrs, _ := f.repo.AllAddresses(ctx, org)
	f.stored[org] = addrs
	return &export.Result{OrganizationID: org, Bucket: "b", Key: org + "/addresses.bin", Count: len(addrs)}, nil
}

func (f *fakeExporter) Import(_ context.Context, org string, m *matching.Manager) (*matching.List, error) {
	f.imports++
	list, err := matching.NewList(export.ListID(org), "org "+org, "export", f.stored[org])
	if err != nil {
		return nil, err
	}
	m.ReplaceList(list)
	return list, nil
}

type fakeDirectory struct {
	mu      sync.Mutex
	entries []storage.Entry
	err     error
}

func (f *fakeDirectory) Put(_ context.Context, e storage.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeDirectory) ListDomain(_ context.Context, d string) ([]storage.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.Entry
	for _, e := range f.entries {
		if e.Address.Domain() == emailaddr.Canonicalize(d) {
			out = append(out, e)
		}
	}
	return out, nil
}

type testEnv struct {
	repo  *memRepo
	lists *matching.Manager
	h     *Handlers
	srv   http.Handler
}

func newEnv(t *testing.T, defaultOrg string) *testEnv {
	t.Helper()
	repo := newMemRepo()
	lists := matching.NewManager()
	h := NewHandlers(suppression.NewService(repo), lists)
	return &testEnv{
		repo:  repo,
		lists: lists,
		h:     h,
		srv:   NewServer(h, nil, RouteOptions{DefaultOrg: defaultOrg}).Handler(),
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, org string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if org != "" {
		req.Header.Set(OrgHeader, org)
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ---------------------------------------------------------------------------
// Address endpoints
// ---------------------------------------------------------------------------

func TestParse_Canonicalizes(t *testing.T) {
	env := newEnv(t, "")
	rec := env.do(t, http.MethodPost, "/api/addresses/parse", map[string]string{"text": "John.Doe@Example.COM"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	v := decodeBody[AddressView](t, rec)
	assert.Equal(t, "john.doe@example.com", v.Canonical)
	assert.Equal(t, "john.doe", v.Local)
	assert.Equal(t, "example.com", v.Domain)
	assert.Equal(t, 20, v.Length)
	assert.Equal(t, emailaddr.MustParse("john.doe@example.com").Hash(), v.Hash)

	raw, err := base64.StdEncoding.DecodeString(v.Encoded)
	require.NoError(t, err)
	assert.Equal(t, uint32(20), binary.BigEndian.Uint32(raw[:4]))
	assert.Equal(t, "john.doe@example.com", string(raw[4:]))
}

func TestParse_Rejects(t *testing.T) {
	env := newEnv(t, "")

	rec := env.do(t, http.MethodPost, "/api/addresses/parse", map[string]string{"text": "no-at-sign"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[errBody](t, rec)
	assert.Equal(t, codeInvalidSyntax, body.Code)
	assert.Contains(t, body.Error, `invalid input syntax for email address: "no-at-sign"`)

	long := strings.Repeat("a", 600) + "@example.com"
	rec = env.do(t, http.MethodPost, "/api/addresses/parse", map[string]string{"text": long}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeTooLong, decodeBody[errBody](t, rec).Code)
}

func TestParse_EmptyBody(t *testing.T) {
	env := newEnv(t, "")
	rec := env.do(t, http.MethodPost, "/api/addresses/parse", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecode(t *testing.T) {
	env := newEnv(t, "")
	enc := base64.StdEncoding.EncodeToString(emailaddr.Encode(emailaddr.MustParse("x@y.org")))

	rec := env.do(t, http.MethodPost, "/api/addresses/decode", map[string]string{"encoded": enc}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "x@y.org", decodeBody[AddressView](t, rec).Canonical)

	rec = env.do(t, http.MethodPost, "/api/addresses/decode", map[string]string{"encoded": "%%%"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	bad := append([]byte{0, 0, 0, 99}, "x@y.org"...)
	rec = env.do(t, http.MethodPost, "/api/addresses/decode",
		map[string]string{"encoded": base64.StdEncoding.EncodeToString(bad)}, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, codeCorruptEncoding, decodeBody[errBody](t, rec).Code)
}

func TestCompare_DomainMajor(t *testing.T) {
	env := newEnv(t, "")
	rec := env.do(t, http.MethodPost, "/api/addresses/compare", map[string]string{"a": "a@z.com", "b": "B@A.com"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	v := decodeBody[ComparisonView](t, rec)
	assert.Equal(t, 1, v.Compare)
	assert.True(t, v.Greater)
	assert.True(t, v.GreaterOrEqual)
	assert.True(t, v.NotEqual)
	assert.False(t, v.Less)
	assert.False(t, v.LessOrEqual)
	assert.False(t, v.Equal)
	assert.False(t, v.SameDomain)
	assert.True(t, v.NotSameDomain)
	assert.Equal(t, "b@a.com", v.B.Canonical)
}

func TestCompare_EqualIgnoresCase(t *testing.T) {
	env := newEnv(t, "")
	rec := env.do(t, http.MethodPost, "/api/addresses/compare", map[string]string{"a": "Ann@Mail.com", "b": "ann@mail.COM"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	v := decodeBody[ComparisonView](t, rec)
	assert.Equal(t, 0, v.Compare)
	assert.True(t, v.Equal)
	assert.True(t, v.SameDomain)
	assert.Equal(t, v.A.Hash, v.B.Hash)
}

func TestCompare_InvalidOperand(t *testing.T) {
	env := newEnv(t, "")
	rec := env.do(t, http.MethodPost, "/api/addresses/compare", map[string]string{"a": "a@b.com", "b": "a+tag@b.com"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSort(t *testing.T) {
	env := newEnv(t, "")
	rec := env.do(t, http.MethodPost, "/api/addresses/sort", map[string][]string{
		"addresses": {"b@y.com", "A@y.com", "z@x.com", "a@y.com", "nope"},
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Sorted  []string                   `json:"sorted"`
		Invalid []suppression.InvalidEmail `json:"invalid"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"z@x.com", "a@y.com", "b@y.com"}, resp.Sorted)
	require.Len(t, resp.Invalid, 1)
	assert.Equal(t, "nope", resp.Invalid[0].Input)
}

// ---------------------------------------------------------------------------
// Suppression endpoints
// ---------------------------------------------------------------------------

func TestSuppressions_RequireOrg(t *testing.T) {
	env := newEnv(t, "")
	rec := env.do(t, http.MethodGet, "/api/suppressions", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuppressions_DefaultOrg(t *testing.T) {
	env := newEnv(t, testOrg)
	rec := env.do(t, http.MethodPost, "/api/suppressions", map[string]string{"email": "a@b.com", "reason": "hard_bounce"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	ok, err := env.repo.IsSuppressed(context.Background(), testOrg, emailaddr.MustParse("a@b.com"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSuppressions_Lifecycle(t *testing.T) {
	env := newEnv(t, "")

	rec := env.do(t, http.MethodPost, "/api/suppressions", map[string]string{"email": " Bob@Example.com ", "reason": "spam_complaint"}, testOrg)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[domain.Suppression](t, rec)
	assert.Equal(t, "bob@example.com", created.Email.String())
	assert.Equal(t, domain.SourceManual, created.Source)

	rec = env.do(t, http.MethodGet, "/api/suppressions/check/BOB@example.com", nil, testOrg)
	require.Equal(t, http.StatusOK, rec.Code)
	check := decodeBody[CheckResponse](t, rec)
	assert.True(t, check.Suppressed)
	assert.Equal(t, "bob@example.com", check.Email)
	assert.Nil(t, check.InMemory)

	// Other orgs are unaffected.
	rec = env.do(t, http.MethodGet, "/api/suppressions/check/bob@example.com", nil, "org-2")
	assert.False(t, decodeBody[CheckResponse](t, rec).Suppressed)

	rec = env.do(t, http.MethodGet, "/api/suppressions?domain=EXAMPLE.com", nil, testOrg)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Data       []domain.Suppression `json:"data"`
		Pagination PaginationMeta       `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, 1, page.Pagination.Total)

	rec = env.do(t, http.MethodDelete, "/api/suppressions/bob@example.com", nil, testOrg)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/suppressions/bob@example.com", nil, testOrg)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSuppress_Rejects(t *testing.T) {
	env := newEnv(t, "")

	rec := env.do(t, http.MethodPost, "/api/suppressions", map[string]string{"email": "a@b.com", "reason": "bored"}, testOrg)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/suppressions", map[string]string{"email": "", "reason": "manual"}, testOrg)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/suppressions", map[string]string{"email": "a@localhost", "reason": "manual"}, testOrg)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeInvalidSyntax, decodeBody[errBody](t, rec).Code)
}

func TestCheck_ReportsInMemoryList(t *testing.T) {
	env := newEnv(t, "")
	_, err := env.lists.LoadList(export.ListID(testOrg), "org", "test",
		[]emailaddr.Address{emailaddr.MustParse("mem@example.com")})
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/api/suppressions/check/mem@example.com", nil, testOrg)
	require.Equal(t, http.StatusOK, rec.Code)
	check := decodeBody[CheckResponse](t, rec)
	assert.False(t, check.Suppressed)
	require.NotNil(t, check.InMemory)
	assert.True(t, *check.InMemory)
}

func TestCheck_BackendError(t *testing.T) {
	env := newEnv(t, "")
	env.repo.fail = errors.New("connection reset")

	rec := env.do(t, http.MethodGet, "/api/suppressions/check/a@b.com", nil, testOrg)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestScrub(t *testing.T) {
	env := newEnv(t, "")
	env.do(t, http.MethodPost, "/api/suppressions", map[string]string{"email": "gone@x.com", "reason": "hard_bounce"}, testOrg)

	rec := env.do(t, http.MethodPost, "/api/suppressions/scrub", map[string][]string{
		"emails": {"ok@x.com", "GONE@x.com", "bad", "ok@X.com"},
	}, testOrg)
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Deliverable []string                   `json:"deliverable"`
		Suppressed  []string                   `json:"suppressed"`
		Invalid     []suppression.InvalidEmail `json:"invalid"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, []string{"ok@x.com"}, res.Deliverable)
	assert.Equal(t, []string{"gone@x.com"}, res.Suppressed)
	require.Len(t, res.Invalid, 1)
}

func TestScrub_BatchLimit(t *testing.T) {
	env := newEnv(t, "")
	env.h.SetMaxScrubBatch(2)

	rec := env.do(t, http.MethodPost, "/api/suppressions/scrub", map[string][]string{
		"emails": {"a@x.com", "b@x.com", "c@x.com"},
	}, testOrg)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStats_IncludesLoadedList(t *testing.T) {
	env := newEnv(t, "")
	env.do(t, http.MethodPost, "/api/suppressions", map[string]string{"email": "a@x.com", "reason": "hard_bounce"}, testOrg)
	env.do(t, http.MethodPost, "/api/suppressions", map[string]string{"email": "b@x.com", "reason": "unsubscribe"}, testOrg)

	rec := env.do(t, http.MethodGet, "/api/suppressions/stats", nil, testOrg)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		Total    int                 `json:"total"`
		ByReason map[string]int      `json:"by_reason"`
		Loaded   *matching.ListStats `json:"loaded_list"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByReason["unsubscribe"])
	assert.Nil(t, stats.Loaded)
}

// ---------------------------------------------------------------------------
// Export, engine and directory
// ---------------------------------------------------------------------------

func TestExport_NotConfigured(t *testing.T) {
	env := newEnv(t, "")
	rec := env.do(t, http.MethodPost, "/api/suppressions/export", nil, testOrg)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestExport_ReloadsEngine(t *testing.T) {
	env := newEnv(t, "")
	exp := &fakeExporter{repo: env.repo, stored: map[string][]emailaddr.Address{}}
	env.h.SetExporter(exp)
	env.do(t, http.MethodPost, "/api/suppressions", map[string]string{"email": "a@x.com", "reason": "hard_bounce"}, testOrg)
	env.do(t, http.MethodPost, "/api/suppressions", map[string]string{"email": "b@w.com", "reason": "hard_bounce"}, testOrg)

	rec := env.do(t, http.MethodPost, "/api/suppressions/export", nil, testOrg)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 0, exp.imports)

	rec = env.do(t, http.MethodPost, "/api/suppressions/export?reload=true", nil, testOrg)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Count  int                 `json:"count"`
		Loaded *matching.ListStats `json:"loaded_list"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	require.NotNil(t, resp.Loaded)
	assert.Equal(t, uint64(2), resp.Loaded.RecordCount)
	assert.Equal(t, 2, resp.Loaded.Domains)

	rec = env.do(t, http.MethodGet, "/api/suppressions/check/b@w.com", nil, testOrg)
	check := decodeBody[CheckResponse](t, rec)
	require.NotNil(t, check.InMemory)
	assert.True(t, *check.InMemory)

	rec = env.do(t, http.MethodGet, "/api/engine/stats", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[matching.ManagerStats](t, rec).Lists, 1)
}

func TestExport_InProgress(t *testing.T) {
	env := newEnv(t, "")
	env.h.SetExporter(&fakeExporter{repo: env.repo, err: export.ErrExportInProgress})

	rec := env.do(t, http.MethodPost, "/api/suppressions/export", nil, testOrg)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, codeConflict, decodeBody[errBody](t, rec).Code)
}

func TestDirectory_RecordsSuppressedAddresses(t *testing.T) {
	env := newEnv(t, "")
	dir := &fakeDirectory{}
	env.h.SetDirectory(dir)

	env.do(t, http.MethodPost, "/api/suppressions", map[string]string{"email": "a@x.com", "reason": "hard_bounce", "source": "bounce"}, testOrg)
	env.do(t, http.MethodPost, "/api/suppressions", map[string]string{"email": "b@y.com", "reason": "hard_bounce"}, testOrg)

	rec := env.do(t, http.MethodGet, "/api/addresses/domains/X.COM", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Domain    string `json:"domain"`
		Addresses []struct {
			Address string `json:"address"`
			Source  string `json:"source"`
		} `json:"addresses"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "x.com", resp.Domain)
	require.Len(t, resp.Addresses, 1)
	assert.Equal(t, "a@x.com", resp.Addresses[0].Address)
	assert.Equal(t, "bounce", resp.Addresses[0].Source)
}

func TestDirectory_FailureDoesNotFailSuppress(t *testing.T) {
	env := newEnv(t, "")
	env.h.SetDirectory(&fakeDirectory{err: errors.New("throttled")})

	rec := env.do(t, http.MethodPost, "/api/suppressions", map[string]string{"email": "a@x.com", "reason": "hard_bounce"}, testOrg)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestDirectory_NotConfigured(t *testing.T) {
	env := newEnv(t, "")
	rec := env.do(t, http.MethodGet, "/api/addresses/domains/x.com", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func healthServer(hc *HealthChecker) http.Handler {
	h := NewHandlers(suppression.NewService(newMemRepo()), nil)
	return SetupRoutes(h, hc, RouteOptions{})
}

func get(t *testing.T, srv http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth_RedisUp(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	srv := healthServer(NewHealthChecker(nil, rdb, nil, "", matching.NewManager()))

	rec := get(t, srv, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	status := decodeBody[HealthStatus](t, rec)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "up", status.Checks["redis"].Status)
	assert.Equal(t, "up", status.Checks["engine"].Status)
	assert.Equal(t, notConfigured, status.Checks["database"].Message)

	assert.Equal(t, http.StatusOK, get(t, srv, "/health/live").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/health/ready").Code)
}

func TestHealth_RedisDownIsDegraded(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })
	mr.Close()

	srv := healthServer(NewHealthChecker(nil, rdb, nil, "", nil))
	rec := get(t, srv, "/health")
	status := decodeBody[HealthStatus](t, rec)
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "down", status.Checks["redis"].Status)
	assert.Equal(t, http.StatusOK, get(t, srv, "/health/ready").Code)
}

func TestHealth_DatabaseDownIsNotReady(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	srv := healthServer(NewHealthChecker(db, nil, nil, "", nil))
	rec := get(t, srv, "/health/ready")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unhealthy")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDetermineOverallStatus(t *testing.T) {
	assert.Equal(t, "healthy", determineOverallStatus(map[string]ComponentCheck{
		"database": {Status: "up"},
		"s3":       {Status: "down", Message: notConfigured},
	}))
	assert.Equal(t, "degraded", determineOverallStatus(map[string]ComponentCheck{
		"database": {Status: "degraded"},
	}))
	assert.Equal(t, "unhealthy", determineOverallStatus(map[string]ComponentCheck{
		"database": {Status: "down", Message: "ping failed"},
	}))
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "5s", formatUptime(5*time.Second))
	assert.Equal(t, "2m 3s", formatUptime(2*time.Minute+3*time.Second))
	assert.Equal(t, "1d 1h 0m 0s", formatUptime(25*time.Hour))
}
