package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/suPer8Hu/ai-widget/internal/chat"
	"github.com/suPer8Hu/ai-widget/internal/widget"
)

var (
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	mutedStyle     = lipgloss.NewStyle().Faint(true)
	badgeStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// terminalView renders the widget as lines of text.
type terminalView struct {
	mu        sync.Mutex
	out       io.Writer
	assistant string
}

func newTerminalView(out io.Writer, assistantName string) *terminalView {
	if assistantName == "" {
		assistantName = "Demy"
	}
	return &terminalView{out: out, assistant: assistantName}
}

func (v *terminalView) printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, format, args...)
}

func (v *terminalView) RenderTurn(t chat.Turn) {
	who := userStyle.Render("Tu")
	if t.Role == chat.RoleAssistant {
		who = assistantStyle.Render(v.assistant)
	}
	stamp := mutedStyle.Render(t.Time().Format(time.Kitchen))
	v.printf("%s %s: %s\n", stamp, who, strings.TrimSpace(t.Content))
}

func (v *terminalView) ClearTurns() {
	v.printf("%s\n", mutedStyle.Render("--- nuova conversazione ---"))
}

func (v *terminalView) SetTyping(shown bool) {
	if shown {
		v.printf("%s\n", mutedStyle.Render(v.assistant+" sta scrivendo..."))
	}
}

func (v *terminalView) SetQuickReplies(visible bool, prompts []string) {
	if !visible || len(prompts) == 0 {
		return
	}
	var b strings.Builder
	for i, p := range prompts {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  /quick %d  %s", i+1, p)))
		b.WriteByte('\n')
	}
	v.printf("%s", b.String())
}

func (v *terminalView) SetVisibility(vis widget.Visibility) {
	v.printf("%s\n", mutedStyle.Render("[chat "+vis.String()+"]"))
}

func (v *terminalView) SetNotification(shown bool) {
	if shown {
		v.printf("%s\n", badgeStyle.Render("(1) nuovo messaggio"))
	}
}

func (v *terminalView) FocusInput() {}

func (v *terminalView) ClearInput() {}
