package pipeline

import (
	"context"
	"errors"

	"diningwrapped/internal/getapi"
)

// retryPolicy is the bounded retry behavior around session expiry: one
// attempt; on a designated failure kind refresh the session once and retry
// the identical call once; any other failure, and a second failure after the
// retry, propagates unchanged.
type retryPolicy struct {
	retryable func(error) bool
}

// sessionRetryPolicy absorbs exactly one expired-session or transport
// failure. Expiry has no client-visible timestamp, so a rejection is the
// only signal that a refresh is due.
var sessionRetryPolicy = retryPolicy{
	retryable: func(err error) bool {
		return errors.Is(err, getapi.ErrSessionExpired) || errors.Is(err, getapi.ErrTransport)
	},
}

func (p retryPolicy) do(ctx context.Context, sessions SessionSource, call func(sessionID string) error) error {
	sessionID, err := sessions.EnsureSession(ctx)
	if err != nil {
		return err
	}

	err = call(sessionID)
	if err == nil || !p.retryable(err) {
		return err
	}

	sessionID, refreshErr := sessions.RefreshSession(ctx)
	if refreshErr != nil {
		return refreshErr
	}
	return call(sessionID)
}
