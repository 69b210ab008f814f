package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeMissingASIN        = "MISSING_ASIN"
	ErrCodeInvalidASIN        = "INVALID_ASIN"
	ErrCodeMissingCredentials = "MISSING_CREDENTIALS"
	ErrCodeUpstream           = "UPSTREAM_ERROR"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// DomainError is a business-logic error carrying a stable code.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrMissingASIN        = NewDomainError(ErrCodeMissingASIN, "Item identifier is required")
	ErrInvalidASIN        = NewDomainError(ErrCodeInvalidASIN, "Item identifier must be 10 alphanumeric characters")
	ErrMissingCredentials = NewDomainError(ErrCodeMissingCredentials, "Access key, secret key and partner tag are required")
)
