package widget

import "github.com/suPer8Hu/ai-widget/internal/chat"

// View is the rendering surface driven by the controller. Calls are made
// while the controller holds its lock and must not call back into it.
type View interface {
	RenderTurn(turn chat.Turn)
	ClearTurns()
	SetTyping(shown bool)
	SetQuickReplies(visible bool, prompts []string)
	SetVisibility(v Visibility)
	SetNotification(shown bool)
	FocusInput()
	ClearInput()
}

type nopView struct{}

func (nopView) RenderTurn(chat.Turn) {}
func (nopView) ClearTurns() {}
func (nopView) SetTyping(bool) {}
func (nopView) SetQuickReplies(bool, []string) {}
func (nopView) SetVisibility(Visibility) {}
func (nopView) SetNotification(bool) {}
func (nopView) FocusInput() {}
func (nopView) ClearInput() {}
