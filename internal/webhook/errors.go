package webhook

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when a turn is submitted while another is in flight.
var ErrBusy = errors.New("webhook: exchange already in flight")

type Kind int

const (
	KindNetwork Kind = iota + 1
	KindTimeout
	KindHTTPStatus
	KindMalformedResponse
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindHTTPStatus:
		return "http_status"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// ExchangeError describes why a turn did not produce an assistant reply.
type ExchangeError struct {
	Kind      Kind
	Status    int // set for KindHTTPStatus
	RequestID string
	Err       error
}

func (e *ExchangeError) Error() string {
	msg := fmt.Sprintf("webhook %s", e.Kind)
	if e.Kind == KindHTTPStatus {
		msg = fmt.Sprintf("%s %d", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// KindOf returns the exchange error kind of err, or 0 when err is not an
// ExchangeError.
func KindOf(err error) Kind {
	var ee *ExchangeError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return 0
}
