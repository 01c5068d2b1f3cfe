package cms

import (
	"errors"
	"fmt"
)

// CodeOK is the result code of a successful CMS call.
const CodeOK = "0000"

// ResultError is a business failure reported to CMS clients as a result code
// and message rather than an HTTP error.
type ResultError struct {
	Code    string
	Message string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("cms result %s: %s", e.Code, e.Message)
}

var (
	ErrParameter       = &ResultError{Code: "7777", Message: "invalid request parameter"}
	ErrServiceType     = &ResultError{Code: "1003", Message: "service type header is not B"}
	ErrEvidenceExt     = &ResultError{Code: "E006", Message: "file extension does not match evidence type"}
	ErrEvidenceSize    = &ResultError{Code: "E202", Message: "evidence file exceeds maximum size"}
	ErrEvidenceMissing = &ResultError{Code: "E301", Message: "no evidence file registered"}

	ErrMemberExists    = &ResultError{Code: "2002", Message: "member id already registered"}
	ErrMemberNotFound  = &ResultError{Code: "3001", Message: "member not registered"}
	ErrMemberCancelled = &ResultError{Code: "3005", Message: "member already cancelled"}

	ErrPaymentMember      = &ResultError{Code: "2001", Message: "unknown member id"}
	ErrMemberInactive     = &ResultError{Code: "2002", Message: "member is not actively registered"}
	ErrPaymentExists      = &ResultError{Code: "2018", Message: "duplicate message number"}
	ErrDeleteNotFound     = &ResultError{Code: "2019", Message: "no payment to delete"}
	ErrDeleteNotPending   = &ResultError{Code: "2020", Message: "payment is already being processed"}
	ErrPaymentNotFound    = &ResultError{Code: "2021", Message: "payment not found"}
	ErrCancelNotCard      = &ResultError{Code: "2024", Message: "only card payments can be cancelled"}
	ErrCancelNotSucceeded = &ResultError{Code: "2025", Message: "pending or failed payments cannot be cancelled"}
)

// ResultCode maps err to the result code returned to clients. Errors that are
// not a *ResultError yield "".
func ResultCode(err error) string {
	if err == nil {
		return CodeOK
	}
	if re, ok := AsResult(err); ok {
		return re.Code
	}
	return ""
}

func paramError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrParameter}, args...)...)
}

// AsResult returns the *ResultError wrapped in err, if any.
func AsResult(err error) (*ResultError, bool) {
	var re *ResultError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
