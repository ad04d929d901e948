package api

import (
	"errors"
	"net/http"

	"github.com/ignite/emailtype/internal/emailaddr"
	"github.com/ignite/emailtype/internal/export"
	"github.com/ignite/emailtype/internal/pkg/httputil"
	"github.com/ignite/emailtype/internal/service/suppression"
)

// Machine-readable error codes carried in ErrorResponse.Code.
const (
	codeInvalidSyntax   = "invalid_syntax"
	codeTooLong         = "too_long"
	codeCorruptEncoding = "corrupt_encoding"
	codeNotFound        = "not_found"
	codeBadRequest      = "bad_request"
	codeConflict        = "conflict"
)

// writeError maps domain errors to HTTP responses. Anything unrecognized
// becomes a sanitized 500.
func writeError(w http.ResponseWriter, err error) {
	var verr *emailaddr.ValidationError
	var cerr *emailaddr.CorruptEncodingError
	switch {
	case errors.As(err, &verr):
		code := codeInvalidSyntax
		if verr.Reason == emailaddr.ReasonTooLong {
			code = codeTooLong
		}
		httputil.ErrorWithCode(w, http.StatusBadRequest, code, verr.Error(), nil)
	case errors.As(err, &cerr):
		httputil.ErrorWithCode(w, http.StatusUnprocessableEntity, codeCorruptEncoding, cerr.Error(), nil)
	case errors.Is(err, suppression.ErrNotFound), errors.Is(err, export.ErrNoExport):
		httputil.ErrorWithCode(w, http.StatusNotFound, codeNotFound, err.Error(), nil)
	case errors.Is(err, suppression.ErrEmailRequired),
		errors.Is(err, suppression.ErrInvalidReason),
		errors.Is(err, suppression.ErrOrgIDRequired):
		httputil.ErrorWithCode(w, http.StatusBadRequest, codeBadRequest, err.Error(), nil)
	case errors.Is(err, export.ErrExportInProgress):
		httputil.ErrorWithCode(w, http.StatusConflict, codeConflict, err.Error(), nil)
	default:
		httputil.InternalError(w, err)
	}
}
