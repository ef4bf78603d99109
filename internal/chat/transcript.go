package chat

import "errors"

var ErrInvalidTurn = errors.New("chat: invalid turn")

// Transcript is the in-memory, ordered conversation for the current process.
// It is not safe for concurrent use; the widget controller serializes access.
type Transcript struct {
	turns []Turn
}

// NewTranscript seeds a transcript with restored turns. Invalid entries are
// skipped and timestamps are clamped so the sequence never goes backwards.
func NewTranscript(seed []Turn) *Transcript {
	t := &Transcript{turns: make([]Turn, 0, len(seed))}
	for _, turn := range seed {
		_, _ = t.Append(turn)
	}
	return t
}

// Append records a turn at the end of the transcript and returns the turn as
// stored. A timestamp earlier than the previous turn is raised to match it.
func (t *Transcript) Append(turn Turn) (Turn, error) {
	if !turn.Valid() {
		return Turn{}, ErrInvalidTurn
	}
	if n := len(t.turns); n > 0 && turn.Timestamp < t.turns[n-1].Timestamp {
		turn.Timestamp = t.turns[n-1].Timestamp
	}
	t.turns = append(t.turns, turn)
	return turn, nil
}

// Turns returns a copy in conversation order.
func (t *Transcript) Turns() []Turn {
	return append([]Turn(nil), t.turns...)
}

func (t *Transcript) Len() int {
	return len(t.turns)
}

func (t *Transcript) Reset() {
	t.turns = t.turns[:0]
}
