// Package dberror classifies ledger infrastructure errors so handlers can
// tell an unreachable database from a bug.
package dberror

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorType classifies ledger errors for appropriate handling.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeConnectivity indicates the database is unreachable.
	ErrorTypeConnectivity
	ErrorTypeTimeout
	// ErrorTypeContention indicates a transaction kept losing serialization
	// races and ran out of retries.
	ErrorTypeContention
	ErrorTypeAuth
)

// IsTransient returns true if the request is worth retrying later.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	// The caller went away; nothing to retry for them.
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch Classify(err) {
	case ErrorTypeConnectivity, ErrorTypeTimeout, ErrorTypeContention:
		return true
	default:
		return false
	}
}

// Classify determines the type of a ledger error.
func Classify(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "40001" || pgErr.Code == "40P01":
			return ErrorTypeContention
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57P"):
			return ErrorTypeConnectivity
		case strings.HasPrefix(pgErr.Code, "28"):
			return ErrorTypeAuth
		}
		return ErrorTypeUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorTypeTimeout
		}
		return ErrorTypeConnectivity
	}

	errStr := strings.ToLower(err.Error())
	connectivityPatterns := []string{
		"connection refused",
		"connection reset",
		"conn closed",
		"no such host",
		"dial tcp",
		"broken pipe",
		"closed pool",
		"failed to connect",
	}
	for _, pattern := range connectivityPatterns {
		if strings.Contains(errStr, pattern) {
			return ErrorTypeConnectivity
		}
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out") {
		return ErrorTypeTimeout
	}
	return ErrorTypeUnknown
}

// UserMessage returns a message safe to show to API clients.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch Classify(err) {
	case ErrorTypeConnectivity:
		return "Ledger temporarily unavailable. Please try again in a moment."
	case ErrorTypeTimeout:
		return "Request timed out. Please try again."
	case ErrorTypeContention:
		return "Contest is busy. Please retry the request."
	case ErrorTypeAuth:
		return "Ledger authentication error. Please contact support."
	default:
		return "An unexpected error occurred. Please try again."
	}
}
