package widget

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/suPer8Hu/ai-widget/internal/chat"
	"github.com/suPer8Hu/ai-widget/internal/events"
	"github.com/suPer8Hu/ai-widget/internal/history"
	"github.com/suPer8Hu/ai-widget/internal/identity"
	"github.com/suPer8Hu/ai-widget/internal/webhook"
)

var (
	// ErrBusy is returned when a submission arrives while an exchange is
	// still pending. Overlapping submissions are rejected, never queued.
	ErrBusy = errors.New("widget: exchange in progress")

	ErrNoQuickReply       = errors.New("widget: no such quick reply")
	ErrQuickRepliesHidden = errors.New("widget: quick replies are no longer available")
)

const DefaultErrorMessage = "Mi dispiace, sto avendo un problema tecnico momentaneo. Riprova tra pochi secondi."

// Dispatcher performs one exchange with the conversational backend.
type Dispatcher interface {
	SendTurn(ctx context.Context, sessionID, text string) (string, error)
}

type Config struct {
	WelcomeMessage         string
	ErrorMessage           string
	QuickReplies           []string
	SessionStorageKey      string
	ConversationStorageKey string
}

type Deps struct {
	Identity   *identity.Store
	History    *history.Store
	Dispatcher Dispatcher
	View       View
	Events     events.Sink // optional
	Logger     zerolog.Logger
	Now        func() time.Time
}

// Controller owns one widget instance: its session, transcript and
// presentation state. It is safe for concurrent use; at most one exchange is
// in flight at a time.
type Controller struct {
	cfg        Config
	identity   *identity.Store
	history    *history.Store
	dispatcher Dispatcher
	view       View
	events     events.Sink
	logger     zerolog.Logger
	now        func() time.Time

	mu         sync.Mutex
	sessionID  string
	transcript *chat.Transcript
	state      State
	pending    bool
}

// New resolves the session, restores persisted history and renders the
// initial view.
func New(ctx context.Context, cfg Config, deps Deps) (*Controller, error) {
	if deps.Identity == nil || deps.History == nil || deps.Dispatcher == nil {
		return nil, errors.New("widget: identity, history and dispatcher are required")
	}
	if cfg.SessionStorageKey == "" || cfg.ConversationStorageKey == "" {
		return nil, errors.New("widget: storage keys are required")
	}
	if strings.TrimSpace(cfg.ErrorMessage) == "" {
		cfg.ErrorMessage = DefaultErrorMessage
	}
	if deps.View == nil {
		deps.View = nopView{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	c := &Controller{
		cfg:        cfg,
		identity:   deps.Identity,
		history:    deps.History,
		dispatcher: deps.Dispatcher,
		view:       deps.View,
		events:     deps.Events,
		logger:     deps.Logger,
		now:        deps.Now,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessionID = c.identity.GetOrCreateSessionID(ctx, cfg.SessionStorageKey)
	c.transcript = chat.NewTranscript(c.history.Load(ctx, cfg.ConversationStorageKey))
	c.state = newState(len(cfg.QuickReplies) > 0)
	c.view.SetVisibility(c.state.Visibility())
	c.showInitialLocked()

	c.logger.Debug().
		Str("session_id", c.sessionID).
		Int("history_length", c.transcript.Len()).
		Msg("chat widget initialized")

	return c, nil
}

// showInitialLocked greets a new visitor or replays a returning visitor's
// history. Replayed turns are rendered only; they are already persisted.
func (c *Controller) showInitialLocked() {
	if c.transcript.Len() == 0 {
		if strings.TrimSpace(c.cfg.WelcomeMessage) != "" {
			c.view.RenderTurn(chat.NewTurn(chat.RoleAssistant, c.cfg.WelcomeMessage, c.now()))
		}
		c.view.SetQuickReplies(c.state.QuickReplies(), c.cfg.QuickReplies)
		return
	}
	for _, t := range c.transcript.Turns() {
		c.view.RenderTurn(t)
	}
	c.state.HideQuickReplies()
	c.view.SetQuickReplies(false, nil)
}

func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Controller) Transcript() []chat.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.Turns()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending reports whether an exchange is in flight.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func (c *Controller) Toggle() Visibility {
	c.mu.Lock()
	defer c.mu.Unlock()

	hadNotification := c.state.Notification()
	v := c.state.Toggle()
	c.view.SetVisibility(v)
	if v == Open {
		if hadNotification {
			c.view.SetNotification(false)
		}
		c.view.FocusInput()
	}
	return v
}

// Submit sends the user's text and blocks until the exchange resolves. Blank
// text is ignored. Exchange failures are not returned: they surface as the
// configured error message in the transcript. The only error is ErrBusy.
func (c *Controller) Submit(ctx context.Context, text string) error {
	// history is stored as JSON, which cannot carry invalid UTF-8
	text = strings.ToValidUTF8(strings.TrimSpace(text), "\uFFFD")
	if text == "" {
		return nil
	}

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return ErrBusy
	}
	c.pending = true
	c.appendLocked(ctx, chat.RoleUser, text, false)
	c.view.ClearInput()
	if c.state.HideQuickReplies() {
		c.view.SetQuickReplies(false, nil)
	}
	if c.state.ShowTyping() {
		c.view.SetTyping(true)
	}
	sessionID := c.sessionID
	c.mu.Unlock()

	reply, err := c.dispatcher.SendTurn(ctx, sessionID, text)
	fallback := err != nil
	if fallback {
		c.logger.Debug().
			Err(err).
			Str("kind", webhook.KindOf(err).String()).
			Str("session_id", sessionID).
			Msg("error sending message")
		reply = c.cfg.ErrorMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.HideTyping() {
		c.view.SetTyping(false)
	}
	c.appendLocked(ctx, chat.RoleAssistant, reply, fallback)
	c.pending = false
	return nil
}

// QuickReply submits the i-th configured prompt as if the user typed it.
func (c *Controller) QuickReply(ctx context.Context, i int) error {
	c.mu.Lock()
	if i < 0 || i >= len(c.cfg.QuickReplies) {
		c.mu.Unlock()
		return ErrNoQuickReply
	}
	if !c.state.QuickReplies() {
		c.mu.Unlock()
		return ErrQuickRepliesHidden
	}
	prompt := c.cfg.QuickReplies[i]
	c.mu.Unlock()

	return c.Submit(ctx, prompt)
}

// Reset starts a new conversation with a fresh session id.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending {
		return ErrBusy
	}

	if err := c.history.Clear(ctx, c.cfg.ConversationStorageKey); err != nil {
		c.logger.Debug().Err(err).Msg("history clear failed")
	}
	if err := c.identity.Reset(ctx, c.cfg.SessionStorageKey); err != nil {
		c.logger.Debug().Err(err).Msg("session reset failed")
	}
	c.sessionID = c.identity.GetOrCreateSessionID(ctx, c.cfg.SessionStorageKey)
	c.transcript.Reset()
	c.state.ResetQuickReplies(len(c.cfg.QuickReplies) > 0)
	c.view.ClearTurns()
	c.showInitialLocked()
	return nil
}

func (c *Controller) appendLocked(ctx context.Context, role chat.Role, content string, fallback bool) {
	turn, err := c.transcript.Append(chat.NewTurn(role, content, c.now()))
	if err != nil {
		c.logger.Debug().Err(err).Str("role", string(role)).Msg("turn not recorded")
		return
	}
	c.view.RenderTurn(turn)
	if role == chat.RoleAssistant && c.state.Notify() {
		c.view.SetNotification(true)
	}

	// persist even if the caller gave up on the exchange
	pctx := context.WithoutCancel(ctx)
	if err := c.history.Save(pctx, c.cfg.ConversationStorageKey, c.transcript.Turns()); err != nil {
		c.logger.Debug().Err(err).Msg("history not saved")
	}
	if c.events != nil {
		_ = c.events.PublishTurn(pctx, events.TurnEvent{
			SessionID: c.sessionID,
			Role:      turn.Role,
			Content:   turn.Content,
			Timestamp: turn.Timestamp,
			Fallback:  fallback,
		})
	}
}
