package getapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the production GET services endpoint.
const DefaultBaseURL = "https://services.get.cbord.com/GETServices/services/json"

// wireDateLayout is the timestamp format the platform expects in query
// criteria (UTC with milliseconds).
const wireDateLayout = "2006-01-02T15:04:05.000Z"

// Client talks to the GET platform. Every operation is an HTTPS POST of a
// {method, params} body to a service path; the response is an envelope of
// {response, exception} where a non-null exception means the call was
// rejected.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     zerolog.Logger
}

// NewClient creates a platform client. An empty baseURL selects the
// production endpoint.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

type rpcRequest struct {
	Method string `json:"method"`
	Params any    `json:"params"`
}

type rpcEnvelope struct {
	Response  json.RawMessage `json:"response"`
	Exception json.RawMessage `json:"exception"`
}

// postJSON issues one envelope call. rejectKind classifies a non-null
// exception payload (authentication vs. session expiry); transport and HTTP
// failures always map to ErrTransport. The decoded response lands in out.
func (c *Client) postJSON(ctx context.Context, path, method string, params, out any, rejectKind error) error {
	body, err := json.Marshal(rpcRequest{Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", method, err)
	}

	url := c.baseURL + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", method, ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: %w: HTTP %d", method, ErrTransport, resp.StatusCode)
	}

	var env rpcEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s: %w: decode envelope: %v", method, ErrTransport, err)
	}

	if exceptionPresent(env.Exception) {
		c.log.Debug().Str("method", method).RawJSON("exception", env.Exception).Msg("Platform rejected call")
		return &PlatformError{Method: method, Detail: string(env.Exception), Kind: rejectKind}
	}

	if out != nil {
		if err := json.Unmarshal(env.Response, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", method, err)
		}
	}
	return nil
}

func exceptionPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

type createPINParams struct {
	PIN       string `json:"PIN"`
	DeviceID  string `json:"deviceId"`
	SessionID string `json:"sessionId"`
}

// CreatePIN registers a freshly generated device credential with the
// platform, authorized by a one-shot validator session. Returns whether the
// platform accepted the registration.
func (c *Client) CreatePIN(ctx context.Context, deviceID, pin, validatorSessionID string) (bool, error) {
	var accepted bool
	err := c.postJSON(ctx, "user", "createPIN", createPINParams{
		PIN:       pin,
		DeviceID:  deviceID,
		SessionID: validatorSessionID,
	}, &accepted, ErrAuthentication)
	if err != nil {
		return false, err
	}
	return accepted, nil
}

type systemCredentials struct {
	Domain   string `json:"domain"`
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type authenticatePINParams struct {
	SystemCredentials systemCredentials `json:"systemCredentials"`
	DeviceID          string            `json:"deviceId"`
	PIN               string            `json:"pin"`
}

// AuthenticatePIN exchanges a device credential for an opaque session id.
// The systemCredentials block is a fixed artifact of the wire contract.
func (c *Client) AuthenticatePIN(ctx context.Context, deviceID, pin string) (string, error) {
	var sessionID string
	err := c.postJSON(ctx, "authentication", "authenticatePIN", authenticatePINParams{
		SystemCredentials: systemCredentials{
			Domain:   "",
			UserName: "get_mobile",
			Password: "NOTUSED",
		},
		DeviceID: deviceID,
		PIN:      pin,
	}, &sessionID, ErrAuthentication)
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

type queryCriteria struct {
	MaxReturnMostRecent int     `json:"maxReturnMostRecent"`
	NewestDate          *string `json:"newestDate"`
	OldestDate          *string `json:"oldestDate"`
	AccountID           *string `json:"accountId"`
}

type retrieveTransactionsParams struct {
	PaymentSystemType int           `json:"paymentSystemType"`
	QueryCriteria     queryCriteria `json:"queryCriteria"`
	SessionID         string        `json:"sessionId"`
}

// RetrieveTransactions fetches the transaction history within the query
// window, most recent first up to the requested cap.
func (c *Client) RetrieveTransactions(ctx context.Context, sessionID string, query TransactionQuery) (*TransactionHistory, error) {
	if query.MaxReturnMostRecent <= 0 {
		query.MaxReturnMostRecent = 100
	}
	var history TransactionHistory
	err := c.postJSON(ctx, "commerce", "retrieveTransactionHistoryWithinDateRange", retrieveTransactionsParams{
		PaymentSystemType: query.PaymentSystemType,
		QueryCriteria: queryCriteria{
			MaxReturnMostRecent: query.MaxReturnMostRecent,
			NewestDate:          wireDate(query.NewestDate),
			OldestDate:          wireDate(query.OldestDate),
			AccountID:           query.AccountID,
		},
		SessionID: sessionID,
	}, &history, ErrSessionExpired)
	if err != nil {
		return nil, err
	}
	return &history, nil
}

type retrieveUserIDParams struct {
	SessionID string `json:"sessionId"`
}

// RetrieveUserID returns the opaque platform user id bound to the session.
// Only the identity side channel consumes this, and only in hashed form.
func (c *Client) RetrieveUserID(ctx context.Context, sessionID string) (string, error) {
	var userID string
	err := c.postJSON(ctx, "user", "retrieve", retrieveUserIDParams{SessionID: sessionID}, &userID, ErrSessionExpired)
	if err != nil {
		return "", err
	}
	return userID, nil
}

func wireDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(wireDateLayout)
	return &s
}
