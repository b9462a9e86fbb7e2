package api

import "fmt"

// APIError is the decoded form of a relay error envelope. Status is
// the HTTP status, Code the string kind ("forbidden", "not_found"),
// ErrorCode the stable numeric error_code from the relay's shared
// table, and Message the server-supplied detail.
type APIError struct {
	Status    int
	Code      string
	ErrorCode int
	Message   string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Code != "" && e.Message != "" {
		if e.ErrorCode > 0 {
			return fmt.Sprintf("%s: %s (error_code %d)", e.Code, e.Message, e.ErrorCode)
		}
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Status > 0 {
		return fmt.Sprintf("relay error: status %d", e.Status)
	}
	return "relay error"
}
