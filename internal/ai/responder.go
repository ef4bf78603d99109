package ai

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/suPer8Hu/ai-widget/internal/webhook"
)

const DefaultContextWindow = 20

// Responder answers widget turns with a Provider, keeping the most recent
// messages of each session in memory as context.
type Responder struct {
	provider     Provider
	systemPrompt string
	window       int

	mu       sync.Mutex
	sessions map[string][]Message
}

func NewResponder(p Provider, systemPrompt string, window int) *Responder {
	if window <= 0 || window > 100 {
		window = DefaultContextWindow
	}
	return &Responder{
		provider:     p,
		systemPrompt: strings.TrimSpace(systemPrompt),
		window:       window,
		sessions:     make(map[string][]Message),
	}
}

func (r *Responder) Respond(ctx context.Context, req webhook.Request) (string, error) {
	user := Message{Role: "user", Content: strings.TrimSpace(req.Message)}

	r.mu.Lock()
	prior := append([]Message(nil), r.sessions[req.SessionID]...)
	r.mu.Unlock()

	msgs := make([]Message, 0, len(prior)+2)
	if r.systemPrompt != "" {
		msgs = append(msgs, Message{Role: "system", Content: r.systemPrompt})
	}
	msgs = append(msgs, prior...)
	msgs = append(msgs, user)

	reply, err := r.provider.Chat(ctx, msgs)
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", errors.New("ai: empty reply")
	}

	r.mu.Lock()
	ctxMsgs := append(r.sessions[req.SessionID], user, Message{Role: "assistant", Content: reply})
	if len(ctxMsgs) > r.window {
		ctxMsgs = append([]Message(nil), ctxMsgs[len(ctxMsgs)-r.window:]...)
	}
	r.sessions[req.SessionID] = ctxMsgs
	r.mu.Unlock()

	return reply, nil
}
