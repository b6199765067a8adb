// Package http implements the Delivery Client: it gets notifications to the
// notification gateway over an unreliable network, with bounded retries and
// idempotency keys.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"gig-dispatch/internal/domain"
)

// PermanentError marks a delivery failure that retrying cannot fix, such as
// an auth rejection or an unknown route.
type PermanentError struct {
	Status int
	Reason string
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent delivery failure (%d): %s", e.Status, e.Reason)
}

// Options configures the DeliveryClient.
type Options struct {
	// GatewayURL is the base URL of the notification gateway.
	GatewayURL string
	// Token is the shared bearer token for the gateway.
	Token string
	// Backoff is the full attempt schedule: one entry per attempt, each
	// the delay before that attempt. {0, 1s, 2s, 4s} means four attempts.
	Backoff []time.Duration
	// RequestTimeout bounds one whole attempt; ConnectTimeout bounds the
	// dial only. Both are distinct from the retry budget.
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
}

// DeliveryClient implements domain.Deliverer against the gateway's
// /api/notify endpoint. Transient failures (network errors, 5xx) are
// retried per the backoff schedule; permanent ones are surfaced at once. A
// ledger suppresses resends of keys the gateway already acknowledged.
type DeliveryClient struct {
	client  *http.Client
	url     string
	token   string
	backoff []time.Duration
	ledger  domain.DeliveryLedger
	logger  *slog.Logger
}

// DefaultBackoff mirrors the gateway contract: immediate, then 1s, 2s, 4s.
var DefaultBackoff = []time.Duration{0, time.Second, 2 * time.Second, 4 * time.Second}

// NewDeliveryClient creates a DeliveryClient.
func NewDeliveryClient(opts Options, ledger domain.DeliveryLedger, logger *slog.Logger) *DeliveryClient {
	if len(opts.Backoff) == 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 8 * time.Second
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 3 * time.Second
	}

	return &DeliveryClient{
		client: &http.Client{
			Timeout: opts.RequestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: opts.ConnectTimeout}).DialContext,
			},
		},
		url:     strings.TrimRight(opts.GatewayURL, "/") + "/api/notify",
		token:   opts.Token,
		backoff: opts.Backoff,
		ledger:  ledger,
		logger:  logger.With("component", "delivery-client"),
	}
}

// Deliver sends one notification, retrying transient failures. A nil return
// means the gateway acknowledged the idempotency key, now or previously.
func (c *DeliveryClient) Deliver(ctx context.Context, n domain.Notification) error {
	key := n.IdempotencyKey()

	if c.ledger != nil {
		if done, err := c.ledger.Delivered(ctx, key); err == nil && done {
			return nil
		}
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	var lastErr error
	for attempt, delay := range c.backoff {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := c.send(ctx, key, body)
		if err == nil {
			if c.ledger != nil {
				if _, lerr := c.ledger.MarkDelivered(ctx, key); lerr != nil {
					c.logger.Warn("failed to record delivery", "key", key, "error", lerr)
				}
			}
			return nil
		}

		var perm *PermanentError
		if errors.As(err, &perm) {
			return err
		}

		lastErr = err
		c.logger.Warn("delivery attempt failed", "key", key, "attempt", attempt+1, "error", err)
	}

	return fmt.Errorf("delivery failed after %d attempts: %w", len(c.backoff), lastErr)
}

// send performs a single attempt.
func (c *DeliveryClient) send(ctx context.Context, key string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return &PermanentError{Reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Idempotency-Key", key)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	switch {
	case resp.StatusCode == http.StatusConflict:
		// Gateway saw this idempotency key before; the event landed.
		return nil
	case resp.StatusCode >= 500:
		return fmt.Errorf("gateway returned %s", resp.Status)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return &PermanentError{Status: resp.StatusCode, Reason: "gateway rejected auth token"}
	case resp.StatusCode == http.StatusNotFound:
		return &PermanentError{Status: resp.StatusCode, Reason: "gateway notify route not found"}
	case resp.StatusCode >= 400:
		return &PermanentError{Status: resp.StatusCode, Reason: "gateway rejected request"}
	}
	return nil
}
