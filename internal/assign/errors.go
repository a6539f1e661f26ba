package assign

import "fmt"

// Code identifies an engine failure category. The dashboard maps codes to
// localized messages, so codes are stable strings rather than prose.
type Code string

const (
	CodeMissingCredential Code = "missing_credential"
	CodeNoVehicles        Code = "no_vehicles_in_service"
	CodeCapacity          Code = "insufficient_capacity"
	CodeGeocode           Code = "address_not_found"
	CodeRoute             Code = "route_failed"
	CodeBadRequest        Code = "bad_request"
	CodeUnknown           Code = "unknown"
)

// Error is the single failure value the engine surfaces. Detail carries the
// variable part (the failing address, the requested passenger count).
type Error struct {
	Code   Code
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func newError(code Code, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}
