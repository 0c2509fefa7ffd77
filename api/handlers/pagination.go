package handlers

import (
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// ParseLimit reads the limit query parameter, falling back to defaultLimit
// and capping at MaxLimit.
func ParseLimit(r *http.Request, defaultLimit int) int {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	limit := defaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = min(parsed, MaxLimit)
		}
	}
	return limit
}

// ListResponse wraps a list result.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Limit int `json:"limit"`
}
