package model

import (
	"encoding/json"

	"github.com/sashabaranov/go-openai"
)

// PCM is a headerless mono 16-bit 16 kHz audio upload.
type PCM []byte

// WAV is a PCM buffer framed in a RIFF/WAVE container.
type WAV []byte

// Transcript represents text produced by the transcription service.
type Transcript string

// Instruction is the safety instruction the chat model derived from a Transcript.
type Instruction string

// Transcription is the transcription service's answer. Raw holds the
// response body exactly as the service sent it and is empty when the
// client in use does not capture bodies.
type Transcription struct {
	Result openai.AudioResponse
	Raw    json.RawMessage
}
