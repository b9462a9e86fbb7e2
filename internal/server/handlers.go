package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"crelay/internal/api"
)

func (s *Server) writeErrorReq(w http.ResponseWriter, r *http.Request, status int, err error) {
	if err == nil {
		err = errors.New(http.StatusText(status))
	}

	code := errorCode(status, err)
	numericCode := errorNumericCode(status, err)
	message := err.Error()

	fields := []any{"status", status, "code", code, "error_code", numericCode, "error", err}
	if r != nil {
		fields = append(fields, "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)
	}

	switch {
	case status >= 500:
		s.log().Error("request error", fields...)
		message = "internal error"
	case status >= 400:
		s.log().Debug("request rejected", fields...)
	}

	s.writeJSON(w, status, api.ErrorResponse{Success: false, Error: message, Code: code, ErrorCode: numericCode})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("write json response", "status", status, "error", err)
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeErrorReq(w, r, httpStatusFromError(err), err)
}

type apiError struct {
	status  int
	code    string
	errCode int
	err     error
}

func (e apiError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e apiError) Unwrap() error {
	return e.err
}

func makeAPIError(status int, code string, errCode int, err error) error {
	if err == nil {
		err = errors.New(http.StatusText(status))
	}

	var existing apiError
	if errors.As(err, &existing) {
		if existing.status != 0 {
			return existing
		}
	}

	return apiError{status: status, code: code, errCode: errCode, err: err}
}

func badRequestCode(err error, code int) error {
	return makeAPIError(http.StatusBadRequest, "invalid_argument", code, err)
}

func notFoundCode(err error, code int) error {
	return makeAPIError(http.StatusNotFound, "not_found", code, err)
}

func forbiddenCode(err error, code int) error {
	return makeAPIError(http.StatusForbidden, "forbidden", code, err)
}

func internalError(err error) error {
	return makeAPIError(http.StatusInternalServerError, "internal", ErrCodeInternal, err)
}

func storeFailure(err error) error {
	return makeAPIError(http.StatusInternalServerError, "internal", ErrCodeStoreFailure, err)
}

func storageFailure(err error) error {
	return makeAPIError(http.StatusInternalServerError, "internal", ErrCodeStorageIO, err)
}

func httpStatusFromError(err error) int {
	var apiErr apiError
	if errors.As(err, &apiErr) {
		return apiErr.status
	}
	return http.StatusInternalServerError
}

func errorCode(status int, err error) string {
	var apiErr apiError
	if errors.As(err, &apiErr) && apiErr.code != "" {
		return apiErr.code
	}
	switch status {
	case http.StatusBadRequest:
		return "invalid_argument"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusInternalServerError:
		return "internal"
	default:
		return ""
	}
}

func errorNumericCode(status int, err error) int {
	var apiErr apiError
	if errors.As(err, &apiErr) && apiErr.errCode > 0 {
		return apiErr.errCode
	}
	return defaultErrorCodeByStatus(status)
}

func isUniqueConstraint(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, defaultJSONMaxBody)
	return json.NewDecoder(r.Body).Decode(dst)
}

func classifyDecodeJSONError(err error) error {
	if err == nil {
		return nil
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return badRequestCode(fmt.Errorf("request body too large"), ErrCodeRequestTooLarge)
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return badRequestCode(fmt.Errorf("invalid JSON payload"), ErrCodeInvalidJSON)
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return badRequestCode(err, ErrCodeInvalidJSON)
	}

	var unmarshalErr *json.UnmarshalTypeError
	if errors.As(err, &unmarshalErr) {
		return badRequestCode(err, ErrCodeInvalidJSON)
	}

	return badRequestCode(err, ErrCodeInvalidJSON)
}

func (s *Server) decodeJSONReq(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, classifyDecodeJSONError(err))
		return false
	}
	return true
}

func classifyMultipartError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(strings.ToLower(err.Error()), "request body too large") {
		return badRequestCode(fmt.Errorf("request body too large"), ErrCodeRequestTooLarge)
	}
	return badRequestCode(err, ErrCodeInvalidArgument)
}
