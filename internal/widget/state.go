package widget

type Visibility int

const (
	Closed Visibility = iota
	Open
)

func (v Visibility) String() string {
	if v == Open {
		return "open"
	}
	return "closed"
}

// State is the widget's presentation state. Fields change only through the
// transition methods; each reports whether anything changed, so a transition
// that does not apply (hiding an indicator that is not shown) is a no-op.
type State struct {
	visibility   Visibility
	typing       bool
	quickReplies bool
	notification bool
}

func newState(quickReplies bool) State {
	return State{visibility: Closed, quickReplies: quickReplies}
}

func (s State) Visibility() Visibility { return s.visibility }
func (s State) Typing() bool { return s.typing }
func (s State) QuickReplies() bool { return s.quickReplies }
func (s State) Notification() bool { return s.notification }

// Toggle flips visibility. Opening clears the notification.
func (s *State) Toggle() Visibility {
	if s.visibility == Open {
		s.visibility = Closed
	} else {
		s.visibility = Open
		s.notification = false
	}
	return s.visibility
}

func (s *State) ShowTyping() bool {
	if s.typing {
		return false
	}
	s.typing = true
	return true
}

func (s *State) HideTyping() bool {
	if !s.typing {
		return false
	}
	s.typing = false
	return true
}

// HideQuickReplies is one-way for a conversation; only ResetQuickReplies
// (a new conversation) shows them again.
func (s *State) HideQuickReplies() bool {
	if !s.quickReplies {
		return false
	}
	s.quickReplies = false
	return true
}

func (s *State) ResetQuickReplies(available bool) bool {
	if s.quickReplies == available {
		return false
	}
	s.quickReplies = available
	return true
}

// Notify raises the new-message notification; only while Closed.
func (s *State) Notify() bool {
	if s.visibility == Open || s.notification {
		return false
	}
	s.notification = true
	return true
}
