package widget

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_Transitions(t *testing.T) {
	s := newState(true)

	assert.Equal(t, Closed, s.Visibility())
	assert.False(t, s.HideTyping(), "hiding a hidden indicator is a no-op")
	assert.True(t, s.ShowTyping())
	assert.False(t, s.ShowTyping())
	assert.True(t, s.HideTyping())

	assert.True(t, s.HideQuickReplies())
	assert.False(t, s.HideQuickReplies())
	assert.False(t, s.QuickReplies())

	assert.True(t, s.Notify())
	assert.False(t, s.Notify())
	assert.Equal(t, Open, s.Toggle())
	assert.False(t, s.Notification())
	assert.False(t, s.Notify(), "no notification while open")
	assert.Equal(t, Closed, s.Toggle())

	assert.True(t, s.ResetQuickReplies(true))
	assert.False(t, s.ResetQuickReplies(true))
}

func TestState_NoQuickRepliesConfigured(t *testing.T) {
	s := newState(false)
	assert.False(t, s.QuickReplies())
	assert.False(t, s.HideQuickReplies())
}

func TestVisibility_String(t *testing.T) {
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "closed", Closed.String())
}
