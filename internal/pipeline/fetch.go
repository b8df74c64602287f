package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"diningwrapped/internal/getapi"
)

// Window bounds a transaction retrieval. A nil Newest leaves the window
// open-ended; Max caps how many most-recent records the server returns.
type Window struct {
	Oldest time.Time
	Newest *time.Time
	Max    int
}

// DefaultWindow covers the fall semester with the standard cap.
func DefaultWindow() Window {
	newest := time.Date(2025, 12, 12, 23, 59, 59, 999000000, time.UTC)
	return Window{
		Oldest: time.Date(2025, 8, 22, 0, 0, 0, 0, time.UTC),
		Newest: &newest,
		Max:    100,
	}
}

// Fetcher retrieves windowed transaction history, absorbing exactly one
// session expiry by refreshing and retrying. A second failure propagates;
// there are no further retries.
type Fetcher struct {
	sessions SessionSource
	platform TransactionSource
	policy   retryPolicy
	log      zerolog.Logger
}

// NewFetcher creates a fetcher over the given session source and platform.
func NewFetcher(sessions SessionSource, platform TransactionSource, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		sessions: sessions,
		platform: platform,
		policy:   sessionRetryPolicy,
		log:      log,
	}
}

// Fetch resolves a session and retrieves the raw history for the window.
func (f *Fetcher) Fetch(ctx context.Context, w Window) (*getapi.TransactionHistory, error) {
	query := getapi.TransactionQuery{
		OldestDate:          &w.Oldest,
		NewestDate:          w.Newest,
		MaxReturnMostRecent: w.Max,
	}

	var history *getapi.TransactionHistory
	err := f.policy.do(ctx, f.sessions, func(sessionID string) error {
		h, err := f.platform.RetrieveTransactions(ctx, sessionID, query)
		if err != nil {
			f.log.Debug().Err(err).Msg("Transaction retrieval failed")
			return err
		}
		history = h
		return nil
	})
	if err != nil {
		return nil, err
	}

	f.log.Info().
		Int("total_count", history.TotalCount).
		Bool("return_capped", history.ReturnCapped).
		Int("returned", len(history.Transactions)).
		Msg("Transactions retrieved")
	return history, nil
}
