package stt

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/mrsingh-rishi/voice-instructor/llm"
	"github.com/mrsingh-rishi/voice-instructor/model"
)

// uploadName is the file name the WAV upload is sent under.
const uploadName = "audio.wav"

// AudioAPI is the part of the go-openai client used for transcription.
type AudioAPI interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// Whisper transcribes WAV uploads with a hosted speech-to-text model.
type Whisper struct {
	api        AudioAPI
	model      string
	stagingDir string
	language   string
	format     openai.AudioResponseFormat
}

// Option configures a Whisper adapter.
type Option func(*Whisper)

// WithStagingDir sets where uploads are staged; empty means os.TempDir.
func WithStagingDir(dir string) Option {
	return func(w *Whisper) { w.stagingDir = dir }
}

// WithLanguage passes an ISO-639-1 hint to the transcription model.
func WithLanguage(lang string) Option {
	return func(w *Whisper) { w.language = lang }
}

// WithResponseFormat selects json or verbose_json results.
func WithResponseFormat(format string) Option {
	return func(w *Whisper) { w.format = openai.AudioResponseFormat(format) }
}

// NewWhisper creates a transcription adapter for the given model or Azure deployment.
func NewWhisper(api AudioAPI, model string, opts ...Option) (*Whisper, error) {
	if api == nil {
		return nil, errors.New("transcription client is required")
	}
	if model == "" {
		return nil, errors.New("model is required")
	}

	w := &Whisper{
		api:    api,
		model:  model,
		format: openai.AudioResponseFormatJSON,
	}
	for _, opt := range opts {
		opt(w)
	}

	switch w.format {
	case openai.AudioResponseFormatJSON, openai.AudioResponseFormatVerboseJSON:
	default:
		return nil, errors.Errorf("unsupported response format %q", w.format)
	}
	return w, nil
}

// Transcribe stages wav in a temp file for the duration of the call and
// returns the service's full result along with its response body. The
// staging file is removed on every return path.
func (w *Whisper) Transcribe(ctx context.Context, wav []byte) (model.Transcription, error) {
	f, err := os.CreateTemp(w.stagingDir, "upload-*.wav")
	if err != nil {
		return model.Transcription{}, errors.Wrap(err, "create staging file")
	}
	defer func() {
		f.Close()
		os.Remove(f.Name())
	}()

	if _, err := f.Write(wav); err != nil {
		return model.Transcription{}, errors.Wrap(err, "write staging file")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return model.Transcription{}, errors.Wrap(err, "rewind staging file")
	}

	ctx, body := llm.CaptureBody(ctx)
	resp, err := w.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: uploadName,
		Reader:   f,
		Language: w.language,
		Format:   w.format,
	})
	if err != nil {
		return model.Transcription{}, errors.Wrapf(err, "transcription with %s", w.model)
	}
	return model.Transcription{Result: resp, Raw: body.Bytes()}, nil
}
