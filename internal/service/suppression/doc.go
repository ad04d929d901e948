// Package suppression implements the suppression list service.
//
// This is the single source of truth for whether an email address should
// receive mail. Suppressions flow in from multiple sources (bounces,
// FBL complaints, manual admin actions, ESP webhooks) and are checked
// before every send.
//
// Raw strings enter the service only through emailaddr.Parse, so the
// repository always sees canonical addresses and invalid input surfaces
// as an *emailaddr.ValidationError.
//
// The service layer contains pure business logic and depends on the
// Repository interface defined in repository.go. It never imports
// net/http or database/sql directly.
package suppression
