package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

const (
	DefaultTimeout = 30 * time.Second

	maxReplyBytes = 1 << 20
	// ISO-8601 in UTC with millisecond precision, e.g. 2025-01-02T03:04:05.678Z
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

type State int

const (
	StateIdle State = iota
	StateSending
	StateFulfilled
	StateFailed
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateFulfilled:
		return "fulfilled"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Request is the JSON body posted to the webhook.
type Request struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	UserID    string `json:"user_id"`
	Timestamp string `json:"timestamp"`
}

// Reply is the JSON body expected back from the webhook.
type Reply struct {
	Message string `json:"message"`
}

type Options struct {
	URL     string
	Timeout time.Duration
	Client  *http.Client
	Signer  *Signer
	Logger  zerolog.Logger
	Now     func() time.Time
}

// Dispatcher runs one request/response exchange with the webhook at a time.
type Dispatcher struct {
	url     string
	timeout time.Duration
	client  *http.Client
	signer  *Signer
	logger  zerolog.Logger
	now     func() time.Time

	mu   sync.Mutex
	busy bool
	last State
}

func New(opts Options) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Client == nil {
		// the per-exchange context carries the deadline
		opts.Client = &http.Client{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Dispatcher{
		url:     opts.URL,
		timeout: opts.Timeout,
		client:  opts.Client,
		signer:  opts.Signer,
		logger:  opts.Logger,
		now:     opts.Now,
		last:    StateIdle,
	}
}

// State is StateSending while an exchange is in flight, StateIdle otherwise.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.busy {
		return StateSending
	}
	return StateIdle
}

// LastOutcome is the terminal state of the most recent exchange, or
// StateIdle before the first one.
func (d *Dispatcher) LastOutcome() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// SendTurn posts the user's text and returns the assistant reply. It returns
// ErrBusy without sending anything if another exchange is in flight; every
// other failure is an *ExchangeError. The exchange is aborted once the
// configured timeout elapses and a response arriving after that is never
// returned.
func (d *Dispatcher) SendTurn(ctx context.Context, sessionID, text string) (string, error) {
	if !d.begin() {
		return "", ErrBusy
	}
	reply, err := d.exchange(ctx, sessionID, text)
	d.finish(outcome(err))
	return reply, err
}

func (d *Dispatcher) begin() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.busy {
		return false
	}
	d.busy = true
	return true
}

func (d *Dispatcher) finish(s State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.busy = false
	d.last = s
}

func (d *Dispatcher) exchange(ctx context.Context, sessionID, text string) (string, error) {
	requestID := ulid.Make().String()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	payload := Request{
		SessionID: sessionID,
		Message:   text,
		UserID:    sessionID,
		Timestamp: d.now().UTC().Format(timestampLayout),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &ExchangeError{Kind: KindNetwork, RequestID: requestID, Err: err}
	}

	d.logger.Debug().
		Str("request_id", requestID).
		Str("session_id", sessionID).
		RawJSON("payload", body).
		Msg("sending to webhook")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return "", &ExchangeError{Kind: KindNetwork, RequestID: requestID, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if d.signer != nil {
		tok, err := d.signer.Sign(sessionID, requestID)
		if err != nil {
			return "", &ExchangeError{Kind: KindNetwork, RequestID: requestID, Err: err}
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", transportError(ctx, requestID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return "", &ExchangeError{Kind: KindHTTPStatus, Status: resp.StatusCode, RequestID: requestID}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return "", transportError(ctx, requestID, err)
	}

	d.logger.Debug().
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Bytes("body", data).
		Msg("webhook response")

	var decoded Reply
	if err := json.Unmarshal(data, &decoded); err != nil {
		return "", &ExchangeError{Kind: KindMalformedResponse, RequestID: requestID, Err: err}
	}
	if strings.TrimSpace(decoded.Message) == "" {
		return "", &ExchangeError{Kind: KindMalformedResponse, RequestID: requestID, Err: errors.New("missing message field")}
	}
	return decoded.Message, nil
}

func transportError(ctx context.Context, requestID string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &ExchangeError{Kind: KindTimeout, RequestID: requestID, Err: err}
	}
	return &ExchangeError{Kind: KindNetwork, RequestID: requestID, Err: err}
}

func outcome(err error) State {
	switch {
	case err == nil:
		return StateFulfilled
	case KindOf(err) == KindTimeout:
		return StateTimedOut
	default:
		return StateFailed
	}
}
