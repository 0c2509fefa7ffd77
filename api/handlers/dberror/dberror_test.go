package dberror_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/malbeclabs/fitfreak/api/handlers/dberror"
	"github.com/stretchr/testify/require"
)

func TestFitFreak_DBError_Classify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		want      dberror.ErrorType
		transient bool
	}{
		{"nil", nil, dberror.ErrorTypeUnknown, false},
		{"serialization", fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40001"}), dberror.ErrorTypeContention, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, dberror.ErrorTypeContention, true},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, dberror.ErrorTypeConnectivity, true},
		{"bad password", &pgconn.PgError{Code: "28P01"}, dberror.ErrorTypeAuth, false},
		{"unique violation", &pgconn.PgError{Code: "23505"}, dberror.ErrorTypeUnknown, false},
		{"refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), dberror.ErrorTypeConnectivity, true},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), dberror.ErrorTypeTimeout, true},
		{"canceled", fmt.Errorf("failed to connect: %w", context.Canceled), dberror.ErrorTypeConnectivity, false},
		{"other", errors.New("boom"), dberror.ErrorTypeUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, dberror.Classify(tt.err))
			require.Equal(t, tt.transient, dberror.IsTransient(tt.err))
		})
	}
}

func TestFitFreak_DBError_UserMessage(t *testing.T) {
	t.Parallel()
	require.Empty(t, dberror.UserMessage(nil))
	require.Contains(t, dberror.UserMessage(&pgconn.PgError{Code: "40001"}), "retry")
	require.Contains(t, dberror.UserMessage(errors.New("boom")), "unexpected")
}
