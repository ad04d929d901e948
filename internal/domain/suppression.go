package domain

import (
	"time"

	"github.com/ignite/emailtype/internal/emailaddr"
)

// SuppressionReason enumerates why an address was suppressed.
type SuppressionReason string

const (
	ReasonHardBounce  SuppressionReason = "hard_bounce"
	ReasonSoftBounce  SuppressionReason = "soft_bounce"
	ReasonComplaint   SuppressionReason = "spam_complaint"
	ReasonUnsubscribe SuppressionReason = "unsubscribe"
	ReasonInactive    SuppressionReason = "inactive"
	ReasonManual      SuppressionReason = "manual"
	ReasonRoleBased   SuppressionReason = "role_based"
)

// Valid reports whether r is one of the known reasons.
func (r SuppressionReason) Valid() bool {
	switch r {
	case ReasonHardBounce, ReasonSoftBounce, ReasonComplaint, ReasonUnsubscribe,
		ReasonInactive, ReasonManual, ReasonRoleBased:
		return true
	}
	return false
}

// SuppressionSource indicates where the suppression signal originated.
type SuppressionSource string

const (
	SourceBounce     SuppressionSource = "bounce"
	SourceFBLReport  SuppressionSource = "fbl_report"
	SourceESPWebhook SuppressionSource = "esp_webhook"
	SourceTracking   SuppressionSource = "tracking_unsubscribe"
	SourceManual     SuppressionSource = "manual"
	SourceImport     SuppressionSource = "import"
)

// Suppression represents a single entry in an organization's suppression list.
// Email is always canonical; Hash mirrors Email.Hash() for index lookups.
type Suppression struct {
	ID             string            `json:"id" db:"id"`
	OrganizationID string            `json:"organization_id" db:"organization_id"`
	Email          emailaddr.Address `json:"email" db:"email"`
	Hash           uint32            `json:"hash" db:"email_hash"`
	Reason         SuppressionReason `json:"reason" db:"reason"`
	Source         SuppressionSource `json:"source" db:"source"`
	ISP            string            `json:"isp,omitempty" db:"isp"`
	DSNCode        string            `json:"dsn_code,omitempty" db:"dsn_code"`
	DSNDiag        string            `json:"dsn_diag,omitempty" db:"dsn_diag"`
	SourceIP       string            `json:"source_ip,omitempty" db:"source_ip"`
	CampaignID     string            `json:"campaign_id,omitempty" db:"campaign_id"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
}

// Domain returns the domain part of the suppressed address.
func (s *Suppression) Domain() string { return s.Email.Domain() }
