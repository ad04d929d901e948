// Package api exposes the address value type and the suppression service
// over HTTP.
//
// Routes:
//
//	GET    /health
//	GET    /health/live
//	GET    /health/ready
//	POST   /api/addresses/parse
//	POST   /api/addresses/decode
//	POST   /api/addresses/compare
//	POST   /api/addresses/sort
//	GET    /api/addresses/domains/{domain}
//	GET    /api/engine/stats
//	GET    /api/suppressions
//	POST   /api/suppressions
//	GET    /api/suppressions/stats
//	GET    /api/suppressions/check/{email}
//	DELETE /api/suppressions/{email}
//	POST   /api/suppressions/scrub
//	POST   /api/suppressions/export
//
// Suppression routes are scoped to the organization named by the
// X-Organization-ID header (or org_id query parameter).
package api
