package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/mrsingh-rishi/voice-instructor/model"
)

// Stage names the pipeline step a failure came from.
type Stage string

const (
	StageFrame      Stage = "frame"
	StageTranscribe Stage = "transcribe"
	StageInstruct   Stage = "instruct"
)

// Kind is the coarse class of a pipeline failure.
type Kind int

const (
	KindInternal Kind = iota
	KindBadInput
	KindUpstream
	KindTimeout
	KindUnavailable
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindBadInput:
		return "bad_input"
	case KindUpstream:
		return "upstream"
	case KindTimeout:
		return "timeout"
	case KindUnavailable:
		return "unavailable"
	case KindCanceled:
		return "canceled"
	default:
		return "internal"
	}
}

// Error is returned by Run and Process. Its message never includes the
// upstream error text, which can carry request details; Err keeps the
// full chain for logging.
type Error struct {
	Stage Stage
	Kind  Kind
	// Status is the upstream HTTP status, when one was received.
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindBadInput:
		return fmt.Sprintf("%s failed: invalid audio upload", e.Stage)
	case KindUpstream:
		if e.Status > 0 {
			return fmt.Sprintf("%s failed: upstream service returned status %d", e.Stage, e.Status)
		}
		return fmt.Sprintf("%s failed: upstream service returned an invalid result", e.Stage)
	case KindTimeout:
		return fmt.Sprintf("%s failed: upstream service timed out", e.Stage)
	case KindUnavailable:
		return fmt.Sprintf("%s failed: upstream service unavailable", e.Stage)
	case KindCanceled:
		return fmt.Sprintf("%s failed: request canceled", e.Stage)
	default:
		return fmt.Sprintf("%s failed: internal error", e.Stage)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// classify maps a capability error onto a Kind. Order matters: transport
// errors wrap context errors, and breaker rejections carry no cause.
func classify(stage Stage, err error) *Error {
	e := &Error{Stage: stage, Err: err}

	var (
		apiErr *openai.APIError
		reqErr *openai.RequestError
		netErr net.Error
	)
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		e.Kind = KindUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		e.Kind = KindTimeout
	case errors.Is(err, context.Canceled):
		e.Kind = KindCanceled
	case errors.As(err, &apiErr):
		e.Kind = KindUpstream
		e.Status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		e.Kind = KindUpstream
		e.Status = reqErr.HTTPStatusCode
	case errors.Is(err, model.ErrMalformedResult):
		e.Kind = KindUpstream
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			e.Kind = KindTimeout
		} else {
			e.Kind = KindUnavailable
		}
	default:
		e.Kind = KindInternal
	}
	return e
}

// countsAsFailure reports whether err should move a breaker toward open.
// Caller cancellations and client-side 4xx responses say nothing about the
// upstream's health.
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	e := classify("", err)
	switch e.Kind {
	case KindCanceled, KindBadInput:
		return false
	case KindUpstream:
		return e.Status == 0 || e.Status == 429 || e.Status >= 500
	default:
		return true
	}
}
