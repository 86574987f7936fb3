package pipeline

import (
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/mrsingh-rishi/voice-instructor/config"
)

// Breaker names, also used as keys in BreakerStates.
const (
	TranscriptionBreaker = "transcription"
	ChatBreaker          = "chat"
)

// WithBreakers wraps each capability in its own circuit breaker. An open
// breaker rejects the call without reaching the service; nothing is retried.
// It has no effect when cfg.Enabled is false.
func WithBreakers(cfg config.BreakerConfig) Option {
	return func(p *Pipeline) {
		if !cfg.Enabled {
			return
		}
		p.breakers[StageTranscribe] = newBreaker(TranscriptionBreaker, cfg, p)
		p.breakers[StageInstruct] = newBreaker(ChatBreaker, cfg, p)
	}
}

func newBreaker(name string, cfg config.BreakerConfig, p *Pipeline) *gobreaker.CircuitBreaker {
	threshold := cfg.FailureThreshold
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return !countsAsFailure(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			// p.logger may be replaced by a later option, so read it at call time.
			p.logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// BreakerStates reports each configured breaker's state by name.
func (p *Pipeline) BreakerStates() map[string]string {
	states := make(map[string]string, len(p.breakers))
	for _, cb := range p.breakers {
		states[cb.Name()] = cb.State().String()
	}
	return states
}
