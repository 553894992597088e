// Package bridge is the typed client external bot processes use to drive the
// bot action endpoint. It attaches the caller's credential, generates propose
// idempotency keys, caches the matches view behind its ETag and can poll for
// incoming proposals. It never retries: failures are returned to the caller.
package bridge

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/tbourn/ltrain-backend/internal/domain"
)

// Watch polling bounds.
const (
	MinWatchInterval = 5 * time.Second
	MaxWatchInterval = 30 * time.Second
)

// Credential is an Authorization scheme plus secret.
type Credential struct {
	Scheme string
	Secret string
}

// BearerToken authenticates with a user session token.
func BearerToken(tok string) Credential { return Credential{Scheme: "Bearer", Secret: tok} }

// BotKey authenticates with a bot API key.
func BotKey(key string) Credential { return Credential{Scheme: "Bot", Secret: key} }

func (c Credential) header() string { return c.Scheme + " " + c.Secret }

// Bot is one discovery result.
type Bot struct {
	ID            string           `json:"id"`
	UserID        string           `json:"user_id"`
	Nickname      string           `json:"nickname"`
	Description   *string          `json:"description"`
	Interests     []string         `json:"interests"`
	Specificity   int              `json:"specificity"`
	StationID     string           `json:"station_id"`
	Direction     domain.Direction `json:"direction"`
	LastHeartbeat time.Time        `json:"last_heartbeat"`
}

// ProposeResult is the outcome of a propose call. Duplicate is set when the
// key had already been used and Match is the stored proposal.
type ProposeResult struct {
	Match     domain.Match `json:"match"`
	Duplicate bool         `json:"duplicate"`
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status    int
	Code      string `json:"code"`
	Message   string `json:"error"`
	RequestID string `json:"request_id"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("bridge: http %d", e.Status)
	}
	return fmt.Sprintf("bridge: %s (%d): %s", e.Code, e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithClock overrides time.Now for key generation.
func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// Client calls {baseURL}/bot. It is safe for concurrent use.
type Client struct {
	endpoint string
	cred     Credential
	http     *http.Client
	now      func() time.Time
	prop     propagation.TextMapPropagator

	mu          sync.Mutex
	matchesTag  string
	matchesLast []domain.Match
}

// New returns a client for the API rooted at baseURL (e.g.
// "http://localhost:8080/api").
func New(baseURL string, cred Credential, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(baseURL, "/") + "/bot",
		cred:     cred,
		http:     http.DefaultClient,
		now:      time.Now,
		prop:     otel.GetTextMapPropagator(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Register places the caller's session at stationID.
func (c *Client) Register(ctx context.Context, stationID, direction string) (*domain.BotSession, error) {
	var out struct {
		Session domain.BotSession `json:"session"`
	}
	if err := c.post(ctx, map[string]any{"action": "register", "station_id": stationID, "direction": direction}, &out); err != nil {
		return nil, err
	}
	return &out.Session, nil
}

// Heartbeat refreshes the caller's session, moving it to stationID.
func (c *Client) Heartbeat(ctx context.Context, stationID, direction string) error {
	return c.post(ctx, map[string]any{"action": "heartbeat", "station_id": stationID, "direction": direction}, nil)
}

// Discover lists other live bots at stationID, most specific first.
func (c *Client) Discover(ctx context.Context, stationID string, limit int) ([]Bot, error) {
	var out struct {
		Bots []Bot `json:"bots"`
	}
	if err := c.post(ctx, map[string]any{"action": "discover", "station_id": stationID, "limit": limit}, &out); err != nil {
		return nil, err
	}
	return out.Bots, nil
}

// Propose proposes a meetup to targetUserID with a freshly generated key.
// Callers that retry should use ProposeWithKey with the key of the first
// attempt so the server can deduplicate.
func (c *Client) Propose(ctx context.Context, targetUserID, stationID, direction string) (*ProposeResult, error) {
	return c.ProposeWithKey(ctx, c.NewProposeKey(targetUserID), targetUserID, stationID, direction)
}

// ProposeWithKey proposes a meetup under an explicit idempotency key.
func (c *Client) ProposeWithKey(ctx context.Context, key, targetUserID, stationID, direction string) (*ProposeResult, error) {
	var out ProposeResult
	err := c.post(ctx, map[string]any{
		"action":          "propose",
		"target_user_id":  targetUserID,
		"station_id":      stationID,
		"direction":       direction,
		"idempotency_key": key,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// NewProposeKey derives a key from the caller's credential, the target and
// the current time. Only a hash prefix of the credential is embedded.
func (c *Client) NewProposeKey(targetUserID string) string {
	sum := sha256.Sum256([]byte(c.cred.Secret))
	id := ulid.MustNew(ulid.Timestamp(c.now()), ulid.DefaultEntropy())
	return fmt.Sprintf("propose_%s_%s_%s", hex.EncodeToString(sum[:4]), targetUserID, id)
}

// Respond accepts or rejects proposal matchID.
func (c *Client) Respond(ctx context.Context, matchID string, accept bool) (*domain.Match, error) {
	var out struct {
		Match domain.Match `json:"match"`
	}
	if err := c.post(ctx, map[string]any{"action": "respond", "match_id": matchID, "accept": accept}, &out); err != nil {
		return nil, err
	}
	return &out.Match, nil
}

// Matches lists pending and accepted proposals the caller is party to. An
// unchanged view is served from the cached copy via If-None-Match.
func (c *Client) Matches(ctx context.Context) ([]domain.Match, error) {
	c.mu.Lock()
	tag := c.matchesTag
	c.mu.Unlock()

	var out struct {
		Matches []domain.Match `json:"matches"`
	}
	newTag, notModified, err := c.get(ctx, "matches", tag, &out)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if notModified {
		return append([]domain.Match(nil), c.matchesLast...), nil
	}
	c.matchesTag, c.matchesLast = newTag, out.Matches
	return append([]domain.Match(nil), out.Matches...), nil
}

// Proposals lists pending proposals addressed to the caller.
func (c *Client) Proposals(ctx context.Context) ([]domain.Match, error) {
	var out struct {
		Proposals []domain.Match `json:"proposals"`
	}
	if _, _, err := c.get(ctx, "proposals", "", &out); err != nil {
		return nil, err
	}
	return out.Proposals, nil
}

// Watch polls Proposals every interval (clamped to 5-30 s) and calls fn with
// the proposals not seen in earlier polls. It returns when ctx ends or a poll
// fails.
func (c *Client) Watch(ctx context.Context, interval time.Duration, fn func([]domain.Match)) error {
	interval = min(max(interval, MinWatchInterval), MaxWatchInterval)
	return c.watch(ctx, interval, fn)
}

func (c *Client) watch(ctx context.Context, interval time.Duration, fn func([]domain.Match)) error {
	seen := make(map[string]struct{})
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		items, err := c.Proposals(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		var fresh []domain.Match
		for _, m := range items {
			if _, ok := seen[m.ID]; !ok {
				seen[m.ID] = struct{}{}
				fresh = append(fresh, m)
			}
		}
		if len(fresh) > 0 {
			fn(fresh)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (c *Client) post(ctx context.Context, body map[string]any, out any) error {
	if d, ok := body["direction"].(string); ok && d == "" {
		delete(body, "direction")
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	_, _, err = c.do(req, out)
	return err
}

func (c *Client) get(ctx context.Context, action, etag string, out any) (string, bool, error) {
	u := c.endpoint + "?" + url.Values{"action": {action}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", false, err
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) (etag string, notModified bool, err error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.cred.header())
	c.prop.Inject(req.Context(), propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return resp.Header.Get("ETag"), true, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ae := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(ae)
		return "", false, ae
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return "", false, fmt.Errorf("bridge: decode response: %w", err)
		}
	}
	return resp.Header.Get("ETag"), false, nil
}
