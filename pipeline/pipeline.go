// Package pipeline sequences framing, transcription and instruction for one
// upload. Every failure leaves the pipeline as a single *Error.
package pipeline

//go:generate mockgen -destination=mocks/mock_pipeline.go -package=mocks . Transcriber,Instructor

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/mrsingh-rishi/voice-instructor/audio"
	"github.com/mrsingh-rishi/voice-instructor/model"
)

// Transcriber converts a WAV container into the transcription service's result.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (model.Transcription, error)
}

// Instructor derives a safety instruction from a transcript.
type Instructor interface {
	Instruct(ctx context.Context, transcript string) (string, error)
}

// Observer receives the duration and outcome of every stage that ran. A
// non-nil err is always a *Error.
type Observer interface {
	ObserveStage(stage Stage, elapsed time.Duration, err error)
}

// Result is the success outcome of a run. Transcription is set only when
// the instruction stage was not requested.
type Result struct {
	Transcription *model.Transcription
	Transcript    model.Transcript
	Instruction   model.Instruction
}

// Pipeline runs uploads against one transcriber and one instructor. It is
// safe for concurrent use.
type Pipeline struct {
	transcriber Transcriber
	instructor  Instructor
	timeout     time.Duration
	observer    Observer
	logger      *zap.Logger
	breakers    map[Stage]*gobreaker.CircuitBreaker
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTimeout bounds both remote stages together; zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

// WithObserver reports every stage outcome to o.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// WithLogger sets the logger for stage and breaker events.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// New creates a pipeline over long-lived capability handles.
func New(transcriber Transcriber, instructor Instructor, opts ...Option) *Pipeline {
	p := &Pipeline{
		transcriber: transcriber,
		instructor:  instructor,
		logger:      zap.NewNop(),
		breakers:    make(map[Stage]*gobreaker.CircuitBreaker),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process frames a raw PCM upload with audio.DefaultFormat and runs it.
func (p *Pipeline) Process(ctx context.Context, pcm model.PCM, withInstruction bool) (*Result, error) {
	start := time.Now()
	wav, err := audio.FrameDefault(pcm)
	if err != nil {
		perr := &Error{Stage: StageFrame, Kind: KindBadInput, Err: err}
		p.observe(StageFrame, start, perr)
		return nil, perr
	}
	p.observe(StageFrame, start, nil)
	return p.Run(ctx, wav, withInstruction)
}

// Run transcribes wav and, when withInstruction is set, feeds the transcript
// to the instructor. The instruction stage never starts before the
// transcript is available, and a failure in it discards the transcript.
func (p *Pipeline) Run(ctx context.Context, wav model.WAV, withInstruction bool) (*Result, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	transcription, err := p.transcribe(ctx, wav)
	if err != nil {
		return nil, err
	}
	transcript := model.Transcript(transcription.Result.Text)

	if !withInstruction {
		return &Result{Transcription: &transcription, Transcript: transcript}, nil
	}

	instruction, err := p.instruct(ctx, transcript)
	if err != nil {
		return nil, err
	}
	return &Result{Transcript: transcript, Instruction: instruction}, nil
}

func (p *Pipeline) transcribe(ctx context.Context, wav model.WAV) (model.Transcription, error) {
	start := time.Now()
	out, err := p.execute(StageTranscribe, func() (interface{}, error) {
		return p.transcriber.Transcribe(ctx, wav)
	})
	if err != nil {
		perr := classify(StageTranscribe, err)
		p.observe(StageTranscribe, start, perr)
		return model.Transcription{}, perr
	}
	p.observe(StageTranscribe, start, nil)

	resp := out.(model.Transcription)
	p.logger.Debug("transcription complete",
		zap.Int("wav_bytes", len(wav)),
		zap.Int("transcript_chars", len(resp.Result.Text)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

func (p *Pipeline) instruct(ctx context.Context, transcript model.Transcript) (model.Instruction, error) {
	start := time.Now()
	out, err := p.execute(StageInstruct, func() (interface{}, error) {
		return p.instructor.Instruct(ctx, string(transcript))
	})
	if err != nil {
		perr := classify(StageInstruct, err)
		p.observe(StageInstruct, start, perr)
		return "", perr
	}
	p.observe(StageInstruct, start, nil)

	instruction := out.(string)
	p.logger.Debug("instruction complete",
		zap.Int("instruction_chars", len(instruction)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return model.Instruction(instruction), nil
}

// execute runs fn through the stage's breaker when one is configured.
func (p *Pipeline) execute(stage Stage, fn func() (interface{}, error)) (interface{}, error) {
	cb, ok := p.breakers[stage]
	if !ok {
		return fn()
	}
	return cb.Execute(fn)
}

func (p *Pipeline) observe(stage Stage, start time.Time, perr *Error) {
	if p.observer == nil {
		return
	}
	// a nil *Error must reach the observer as a nil error
	var err error
	if perr != nil {
		err = perr
	}
	p.observer.ObserveStage(stage, time.Since(start), err)
}
