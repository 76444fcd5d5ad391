package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// Rejection codes returned to clients. Each maps to exactly one decision
// stage so callers can distinguish re-authentication from retry-later.
const (
	CodeAuthInvalid      = "AUTH_INVALID"
	CodeRateLimited      = "RATE_LIMITED"
	CodeRegionDenied     = "REGION_DENIED"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeEmergencyActive  = "EMERGENCY_ACTIVE"
)

// Rejection is the JSON body of every denied request.
type Rejection struct {
	Code    string     `json:"code"`
	Message string     `json:"message"`
	ResetAt *time.Time `json:"reset_at,omitempty"`
}

func statusFor(code string) int {
	switch code {
	case CodeAuthInvalid:
		return http.StatusUnauthorized
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeRegionDenied:
		return http.StatusUnavailableForLegalReasons
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeEmergencyActive:
		return http.StatusServiceUnavailable
	}
	return http.StatusForbidden
}

func writeRejection(w http.ResponseWriter, rej Rejection) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if rej.Code == CodeRateLimited && rej.ResetAt != nil {
		retryAfter := max(int(time.Until(*rej.ResetAt).Seconds())+1, 1)
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}
	w.WriteHeader(statusFor(rej.Code))
	_ = json.NewEncoder(w).Encode(rej)
}
