package pipeline

import (
	"context"

	"diningwrapped/internal/getapi"
)

// SessionSource resolves and refreshes the platform session. A session must
// fully resolve before any retrieval that uses it is issued.
type SessionSource interface {
	EnsureSession(ctx context.Context) (string, error)
	RefreshSession(ctx context.Context) (string, error)
}

// TransactionSource is the slice of the platform client the fetcher uses.
// This interface enables mocking the external platform in tests.
type TransactionSource interface {
	RetrieveTransactions(ctx context.Context, sessionID string, query getapi.TransactionQuery) (*getapi.TransactionHistory, error)
}
