package suppression

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ignite/emailtype/internal/domain"
	"github.com/ignite/emailtype/internal/emailaddr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepo is an in-memory repository for testing.
type mockRepo struct {
	mu    sync.RWMutex
	store map[string]*domain.Suppression // keyed by "orgID:canonical email"
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[string]*domain.Suppression)}
}

func (m *mockRepo) key(orgID string, addr emailaddr.Address) string {
	return orgID + ":" + addr.String()
}

func (m *mockRepo) IsSuppressed(_ context.Context, orgID string, addr emailaddr.Address) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.store[m.key(orgID, addr)]
	return ok, nil
}

func (m *mockRepo) FilterSuppressed(_ context.Context, orgID string, addrs []emailaddr.Address) ([]emailaddr.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []emailaddr.Address
	for _, a := range addrs {
		if _, ok := m.store[m.key(orgID, a)]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockRepo) Suppress(_ context.Context, s *domain.Suppression) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.key(s.OrganizationID, s.Email)
	if _, exists := m.store[k]; exists {
		return nil
	}
	m.store[k] = s
	return nil
}

func (m *mockRepo) Remove(_ context.Context, orgID string, addr emailaddr.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.key(orgID, addr)
	if _, ok := m.store[k]; !ok {
		return ErrNotFound
	}
	delete(m.store, k)
	return nil
}

func (m *mockRepo) List(_ context.Context, orgID string, f ListFilter) ([]domain.Suppression, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []domain.Suppression
	for _, s := range m.store {
		if s.OrganizationID != orgID {
			continue
		}
		if f.Reason != "" && string(s.Reason) != f.Reason {
			continue
		}
		if f.Domain != "" && s.Domain() != f.Domain {
			continue
		}
		result = append(result, *s)
	}
	return result, len(result), nil
}

func (m *mockRepo) Count(_ context.Context, orgID string) (int, error) {
	_, n, err := m.List(context.Background(), orgID, ListFilter{})
	return n, err
}

func (m *mockRepo) AllAddresses(_ context.Context, orgID string) ([]emailaddr.Address, error) {
	entries, _, _ := m.List(context.Background(), orgID, ListFilter{})
	out := make([]emailaddr.Address, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Email)
	}
	emailaddr.Sort(out)
	return out, nil
}

const testOrgID = "org-001"

func bounce() Entry {
	return Entry{Reason: domain.ReasonHardBounce, Source: domain.SourceBounce}
}

func TestSuppress_AddsEmailToList(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	entry, err := svc.Suppress(ctx, testOrgID, "  BOUNCE@Example.com ", Entry{
		Reason: domain.ReasonHardBounce, Source: domain.SourceBounce,
		ISP: "gmail", DSNCode: "550", DSNDiag: "user unknown", SourceIP: "1.2.3.4", CampaignID: "camp-001",
	})
	require.NoError(t, err)
	assert.Equal(t, "bounce@example.com", entry.Email.String())
	assert.Equal(t, entry.Email.Hash(), entry.Hash)

	ok, err := svc.IsSuppressed(ctx, testOrgID, "bounce@EXAMPLE.COM")
	require.NoError(t, err)
	assert.True(t, ok, "expected email to be suppressed after Suppress()")
}

func TestSuppress_Idempotent(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Suppress(ctx, testOrgID, "Dup@example.com",
			Entry{Reason: domain.ReasonComplaint, Source: domain.SourceFBLReport})
		require.NoError(t, err, "Suppress #%d", i)
	}

	count, err := svc.Count(ctx, testOrgID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSuppress_EmptyEmail_Fails(t *testing.T) {
	svc := NewService(newMockRepo())
	_, err := svc.Suppress(context.Background(), testOrgID, "   ", bounce())
	assert.ErrorIs(t, err, ErrEmailRequired)
}

func TestSuppress_InvalidEmail_ReturnsValidationError(t *testing.T) {
	svc := NewService(newMockRepo())
	_, err := svc.Suppress(context.Background(), testOrgID, "john@example", bounce())

	var verr *emailaddr.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "john@example", verr.Input)
}

func TestSuppress_UnknownReason_Fails(t *testing.T) {
	svc := NewService(newMockRepo())
	_, err := svc.Suppress(context.Background(), testOrgID, "a@b.com", Entry{Reason: "because"})
	assert.ErrorIs(t, err, ErrInvalidReason)
}

func TestSuppress_DefaultsSourceToManual(t *testing.T) {
	svc := NewService(newMockRepo())
	entry, err := svc.Suppress(context.Background(), testOrgID, "a@b.com", Entry{Reason: domain.ReasonManual})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceManual, entry.Source)
}

func TestSuppress_RequiresOrg(t *testing.T) {
	svc := NewService(newMockRepo())
	_, err := svc.Suppress(context.Background(), "", "a@b.com", bounce())
	assert.ErrorIs(t, err, ErrOrgIDRequired)
}

func TestRemove_DeletesSuppression(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	_, err := svc.Suppress(ctx, testOrgID, "remove@example.com", Entry{Reason: domain.ReasonManual})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, testOrgID, "REMOVE@example.com"))

	ok, err := svc.IsSuppressed(ctx, testOrgID, "remove@example.com")
	require.NoError(t, err)
	assert.False(t, ok, "expected email to no longer be suppressed after Remove()")
}

func TestRemove_NotFound_ReturnsError(t *testing.T) {
	svc := NewService(newMockRepo())
	err := svc.Remove(context.Background(), testOrgID, "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_FiltersByReasonAndDomain(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	for _, e := range []struct {
		email  string
		reason domain.SuppressionReason
	}{
		{"bounce1@example.com", domain.ReasonHardBounce},
		{"complaint1@example.com", domain.ReasonComplaint},
		{"bounce2@other.org", domain.ReasonHardBounce},
	} {
		_, err := svc.Suppress(ctx, testOrgID, e.email, Entry{Reason: e.reason})
		require.NoError(t, err)
	}

	results, total, err := svc.List(ctx, testOrgID, ListFilter{Reason: "hard_bounce"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, r := range results {
		assert.Equal(t, domain.ReasonHardBounce, r.Reason)
	}

	results, total, err = svc.List(ctx, testOrgID, ListFilter{Domain: " Example.COM "})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, r := range results {
		assert.Equal(t, "example.com", r.Domain())
	}
}

func TestGetStats_AggregatesByReasonSourceAndDomain(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	_, _ = svc.Suppress(ctx, testOrgID, "a@example.com", Entry{Reason: domain.ReasonHardBounce, Source: domain.SourceBounce})
	_, _ = svc.Suppress(ctx, testOrgID, "b@example.com", Entry{Reason: domain.ReasonComplaint, Source: domain.SourceFBLReport})
	_, _ = svc.Suppress(ctx, testOrgID, "c@other.org", Entry{Reason: domain.ReasonHardBounce, Source: domain.SourceESPWebhook})

	stats, err := svc.GetStats(ctx, testOrgID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByReason["hard_bounce"])
	assert.Equal(t, 1, stats.BySource["fbl_report"])
	require.Len(t, stats.TopDomains, 2)
	assert.Equal(t, DomainCount{Domain: "example.com", Count: 2}, stats.TopDomains[0])
	assert.Equal(t, DomainCount{Domain: "other.org", Count: 1}, stats.TopDomains[1])
}

func TestScrub_PartitionsBatch(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	_, err := svc.Suppress(ctx, testOrgID, "blocked@example.com", bounce())
	require.NoError(t, err)

	res, err := svc.Scrub(ctx, testOrgID, []string{
		"ok@zeta.com",
		"BLOCKED@example.com",
		"ok@alpha.com",
		"not-an-email",
		"ok@ALPHA.com",
		"",
	})
	require.NoError(t, err)

	var deliverable []string
	for _, a := range res.Deliverable {
		deliverable = append(deliverable, a.String())
	}
	assert.Equal(t, []string{"ok@alpha.com", "ok@zeta.com"}, deliverable)
	require.Len(t, res.Suppressed, 1)
	assert.Equal(t, "blocked@example.com", res.Suppressed[0].String())
	require.Len(t, res.Invalid, 2)
	assert.Equal(t, "not-an-email", res.Invalid[0].Input)
	assert.Equal(t, ErrEmailRequired.Error(), res.Invalid[1].Reason)
}

func TestScrub_AllInvalidSkipsRepository(t *testing.T) {
	svc := NewService(nil)
	res, err := svc.Scrub(context.Background(), testOrgID, []string{"x", "y@z"})
	require.NoError(t, err)
	assert.Len(t, res.Invalid, 2)
	assert.Empty(t, res.Deliverable)
}
