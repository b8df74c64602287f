package auth

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// HashUserID reduces the opaque platform user id to a one-way SHA-256 hex
// digest. Only the digest ever leaves the process.
func HashUserID(rawUserID string) string {
	sum := sha256.Sum256([]byte(rawUserID))
	return hex.EncodeToString(sum[:])
}

// IdentityDispatcher feeds the identity sink off the critical path. Session
// ids are handed over through a small buffered channel; when the buffer is
// full the notification is dropped rather than ever blocking an auth
// operation. Sink and retrieval failures are logged and swallowed.
type IdentityDispatcher struct {
	platform Platform
	sink     IdentitySink
	log      zerolog.Logger
	ch       chan string
}

// NewIdentityDispatcher creates a dispatcher with the given buffer size.
func NewIdentityDispatcher(platform Platform, sink IdentitySink, log zerolog.Logger, bufferSize int) *IdentityDispatcher {
	if bufferSize <= 0 {
		bufferSize = 4
	}
	return &IdentityDispatcher{
		platform: platform,
		sink:     sink,
		log:      log,
		ch:       make(chan string, bufferSize),
	}
}

// Start consumes notifications until ctx is canceled.
func (d *IdentityDispatcher) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sessionID := <-d.ch:
				d.identify(ctx, sessionID)
			}
		}
	}()
}

// Notify hands a freshly established session to the dispatcher. Never blocks.
func (d *IdentityDispatcher) Notify(sessionID string) {
	select {
	case d.ch <- sessionID:
	default:
		d.log.Debug().Msg("Identity notification dropped, buffer full")
	}
}

func (d *IdentityDispatcher) identify(ctx context.Context, sessionID string) {
	rawUserID, err := d.platform.RetrieveUserID(ctx, sessionID)
	if err != nil {
		d.log.Debug().Err(err).Msg("Identity user id retrieval failed")
		return
	}
	if err := d.sink.Identify(ctx, HashUserID(rawUserID)); err != nil {
		d.log.Debug().Err(err).Msg("Identity sink failed")
	}
}

// NopSink discards identity events. The default when no sink is configured.
type NopSink struct{}

// Identify implements IdentitySink.
func (NopSink) Identify(ctx context.Context, distinctID string) error { return nil }

// HTTPSink posts the hashed id to an analytics endpoint.
type HTTPSink struct {
	endpoint string
	httpc    *http.Client
}

// NewHTTPSink creates a sink posting to the given endpoint.
func NewHTTPSink(endpoint string) *HTTPSink {
	return &HTTPSink{
		endpoint: endpoint,
		httpc:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Identify implements IdentitySink.
func (s *HTTPSink) Identify(ctx context.Context, distinctID string) error {
	body, err := json.Marshal(map[string]string{"distinct_id": distinctID})
	if err != nil {
		return fmt.Errorf("encode identity event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("post identity event: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("identity endpoint returned HTTP %d", resp.StatusCode)
	}
	return nil
}
