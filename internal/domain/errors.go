package domain

// APIError is the RFC 7807 shaped body of every non-2xx response outside
// the workflow endpoints
type APIError struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Title
}

// validationMessages covers validator tags that carry no parameter
var validationMessages = map[string]string{
	"uuid":             "Must be a valid UUID",
	"url":              "Must be a valid URL",
	"numeric":          "Must be a numeric value",
	"dive":             "Contains an invalid entry",
	"required_without": "Required when the alternative is missing",
}

// ValidationMessage returns a readable message for a validator tag
func ValidationMessage(tag string) string {
	if msg, ok := validationMessages[tag]; ok {
		return msg
	}
	return "Validation failed: " + tag
}

// APIError.Type values
const (
	ErrorTypeValidation      = "validation_error"
	ErrorTypeNotFound        = "not_found"
	ErrorTypeBadRequest      = "bad_request"
	ErrorTypeConflict        = "conflict"
	ErrorTypeUnauthorized    = "unauthorized"
	ErrorTypeForbidden       = "forbidden"
	ErrorTypeInternal        = "internal_error"
	ErrorTypeConfiguration   = "configuration_error"
	ErrorTypeExternalService = "external_service_error"
)

// ActionResult is the uniform response of workflow mutations. Success is
// false when the operation was refused; Error then carries the reason.
type ActionResult struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Succeeded wraps data in a successful ActionResult
func Succeeded(data interface{}) ActionResult {
	return ActionResult{Success: true, Data: data}
}

// Failed builds a failed ActionResult from an error message
func Failed(msg string) ActionResult {
	return ActionResult{Success: false, Error: msg}
}
