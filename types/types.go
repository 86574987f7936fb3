package types

import "github.com/mrsingh-rishi/voice-instructor/model"

// InstructionResponse is the success body of the instruction variant.
type InstructionResponse struct {
	Transcript  model.Transcript  `json:"stt"`
	Instruction model.Instruction `json:"instruction"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports liveness and the state of each upstream breaker.
type HealthResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Version  string            `json:"version"`
	Uptime   string            `json:"uptime"`
	Breakers map[string]string `json:"breakers,omitempty"`
}
