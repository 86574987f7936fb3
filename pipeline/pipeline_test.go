package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsingh-rishi/voice-instructor/audio"
	"github.com/mrsingh-rishi/voice-instructor/config"
	"github.com/mrsingh-rishi/voice-instructor/model"
	"github.com/mrsingh-rishi/voice-instructor/pipeline"
	"github.com/mrsingh-rishi/voice-instructor/pipeline/mocks"
)

type stageCall struct {
	stage pipeline.Stage
	err   error
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []stageCall
}

func (o *recordingObserver) ObserveStage(stage pipeline.Stage, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, stageCall{stage: stage, err: err})
}

func newMocks(t *testing.T) (*mocks.MockTranscriber, *mocks.MockInstructor) {
	ctrl := gomock.NewController(t)
	return mocks.NewMockTranscriber(ctrl), mocks.NewMockInstructor(ctrl)
}

func transcribed(text string) model.Transcription {
	return model.Transcription{Result: openai.AudioResponse{Text: text}}
}

func framed(t *testing.T, pcm []byte) model.WAV {
	t.Helper()
	wav, err := audio.FrameDefault(pcm)
	require.NoError(t, err)
	return wav
}

func TestRunRawResultUnmodified(t *testing.T) {
	transcriber, instructor := newMocks(t)
	raw := model.Transcription{
		Result: openai.AudioResponse{
			Task:     "transcribe",
			Language: "english",
			Duration: 0.5,
			Text:     "hello",
		},
		Raw: json.RawMessage(`{"task":"transcribe","language":"english","duration":0.5,"text":"hello"}`),
	}
	transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any()).Return(raw, nil)
	instructor.EXPECT().Instruct(gomock.Any(), gomock.Any()).Times(0)

	p := pipeline.New(transcriber, instructor)
	res, err := p.Run(context.Background(), framed(t, []byte{0, 0}), false)
	require.NoError(t, err)
	require.NotNil(t, res.Transcription)
	assert.Equal(t, raw, *res.Transcription)
	assert.Equal(t, model.Transcript("hello"), res.Transcript)
	assert.Empty(t, res.Instruction)
}

func TestRunWithInstruction(t *testing.T) {
	transcriber, instructor := newMocks(t)
	gomock.InOrder(
		transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any()).
			Return(transcribed("turn off valve 3"), nil),
		instructor.EXPECT().Instruct(gomock.Any(), "turn off valve 3").
			Return("Confirm valve 3 isolation before proceeding.", nil),
	)

	p := pipeline.New(transcriber, instructor)
	res, err := p.Run(context.Background(), framed(t, []byte{1, 2}), true)
	require.NoError(t, err)
	assert.Nil(t, res.Transcription)
	assert.Equal(t, model.Transcript("turn off valve 3"), res.Transcript)
	assert.Equal(t, model.Instruction("Confirm valve 3 isolation before proceeding."), res.Instruction)
}

func TestRunTranscriberErrorSkipsInstructor(t *testing.T) {
	transcriber, instructor := newMocks(t)
	upstream := &openai.APIError{
		HTTPStatusCode: http.StatusUnauthorized,
		Message:        "Incorrect API key provided: sk-secret",
	}
	transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any()).Return(model.Transcription{}, upstream)
	instructor.EXPECT().Instruct(gomock.Any(), gomock.Any()).Times(0)

	p := pipeline.New(transcriber, instructor)
	res, err := p.Run(context.Background(), framed(t, nil), true)
	assert.Nil(t, res)

	var perr *pipeline.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, pipeline.StageTranscribe, perr.Stage)
	assert.Equal(t, pipeline.KindUpstream, perr.Kind)
	assert.Equal(t, http.StatusUnauthorized, perr.Status)
	assert.NotContains(t, err.Error(), "sk-secret")
	assert.ErrorIs(t, err, upstream)
}

func TestRunInstructorErrorDiscardsTranscript(t *testing.T) {
	transcriber, instructor := newMocks(t)
	transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any()).
		Return(transcribed("start the press"), nil)
	instructor.EXPECT().Instruct(gomock.Any(), "start the press").
		Return("", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests})

	p := pipeline.New(transcriber, instructor)
	res, err := p.Run(context.Background(), framed(t, nil), true)
	assert.Nil(t, res)

	var perr *pipeline.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, pipeline.StageInstruct, perr.Stage)
	assert.Equal(t, pipeline.KindUpstream, perr.Kind)
	assert.NotContains(t, err.Error(), "start the press")
}

func TestRunMalformedChatResult(t *testing.T) {
	transcriber, instructor := newMocks(t)
	transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any()).Return(transcribed("hi"), nil)
	instructor.EXPECT().Instruct(gomock.Any(), gomock.Any()).Return("", model.ErrMalformedResult)

	_, err := pipeline.New(transcriber, instructor).Run(context.Background(), framed(t, nil), true)

	var perr *pipeline.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, pipeline.KindUpstream, perr.Kind)
	assert.Zero(t, perr.Status)
}

func TestRunTimeoutCoversBothStages(t *testing.T) {
	transcriber, instructor := newMocks(t)
	transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any()).
		Return(transcribed("hello"), nil)
	instructor.EXPECT().Instruct(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string) (string, error) {
			_, ok := ctx.Deadline()
			assert.True(t, ok, "instruct stage has no deadline")
			<-ctx.Done()
			return "", ctx.Err()
		})

	p := pipeline.New(transcriber, instructor, pipeline.WithTimeout(20*time.Millisecond))
	_, err := p.Run(context.Background(), framed(t, nil), true)

	var perr *pipeline.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, pipeline.StageInstruct, perr.Stage)
	assert.Equal(t, pipeline.KindTimeout, perr.Kind)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunCallerCancellation(t *testing.T) {
	transcriber, instructor := newMocks(t)
	transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ []byte) (model.Transcription, error) {
			return model.Transcription{}, ctx.Err()
		})
	instructor.EXPECT().Instruct(gomock.Any(), gomock.Any()).Times(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.New(transcriber, instructor).Run(ctx, framed(t, nil), true)

	var perr *pipeline.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, pipeline.KindCanceled, perr.Kind)
}

func TestProcessFramesBeforeTranscription(t *testing.T) {
	transcriber, instructor := newMocks(t)
	pcm := []byte{10, 0, 20, 0, 30, 0, 40, 0}

	transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, wav []byte) (model.Transcription, error) {
			info, data, err := audio.Parse(wav)
			require.NoError(t, err)
			assert.Equal(t, 1, info.Channels)
			assert.Equal(t, 2, info.SampleWidth)
			assert.Equal(t, 16000, info.SampleRate)
			assert.Equal(t, pcm, data)
			return transcribed("ok"), nil
		})

	observer := &recordingObserver{}
	p := pipeline.New(transcriber, instructor, pipeline.WithObserver(observer))
	res, err := p.Process(context.Background(), pcm, false)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Transcription.Result.Text)

	require.Len(t, observer.calls, 2)
	assert.Equal(t, pipeline.StageFrame, observer.calls[0].stage)
	assert.Equal(t, pipeline.StageTranscribe, observer.calls[1].stage)
	// compared as interfaces: a typed nil would break err != nil checks
	for _, call := range observer.calls {
		assert.True(t, call.err == nil, "stage %s reported a non-nil error", call.stage)
	}
}

func TestProcessEmptyUpload(t *testing.T) {
	transcriber, instructor := newMocks(t)
	transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, wav []byte) (model.Transcription, error) {
			info, data, err := audio.Parse(wav)
			require.NoError(t, err)
			assert.Zero(t, info.DataSize)
			assert.Empty(t, data)
			return model.Transcription{}, nil
		})

	res, err := pipeline.New(transcriber, instructor).Process(context.Background(), nil, false)
	require.NoError(t, err)
	assert.Empty(t, res.Transcript)
}

func TestObserverSeesFailedStage(t *testing.T) {
	transcriber, instructor := newMocks(t)
	transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any()).Return(transcribed("x"), nil)
	instructor.EXPECT().Instruct(gomock.Any(), gomock.Any()).Return("", errors.New("boom"))

	observer := &recordingObserver{}
	_, err := pipeline.New(transcriber, instructor, pipeline.WithObserver(observer)).
		Run(context.Background(), framed(t, nil), true)
	require.Error(t, err)

	require.Len(t, observer.calls, 2)
	assert.Equal(t, pipeline.StageInstruct, observer.calls[1].stage)
	assert.Error(t, observer.calls[1].err)
}

func breakerConfig(threshold uint32) config.BreakerConfig {
	return config.BreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: threshold,
	}
}

func TestBreakerOpensAndFailsFast(t *testing.T) {
	transcriber, instructor := newMocks(t)
	transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any()).
		Return(model.Transcription{}, &openai.APIError{HTTPStatusCode: http.StatusBadGateway}).
		Times(2)
	instructor.EXPECT().Instruct(gomock.Any(), gomock.Any()).Times(0)

	p := pipeline.New(transcriber, instructor, pipeline.WithBreakers(breakerConfig(2)))
	assert.Equal(t, "closed", p.BreakerStates()[pipeline.TranscriptionBreaker])

	for i := 0; i < 2; i++ {
		_, err := p.Run(context.Background(), framed(t, nil), true)
		var perr *pipeline.Error
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, pipeline.KindUpstream, perr.Kind)
	}

	// third call never reaches the transcriber
	_, err := p.Run(context.Background(), framed(t, nil), true)
	var perr *pipeline.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, pipeline.KindUnavailable, perr.Kind)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)

	states := p.BreakerStates()
	assert.Equal(t, "open", states[pipeline.TranscriptionBreaker])
	assert.Equal(t, "closed", states[pipeline.ChatBreaker])
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	transcriber, instructor := newMocks(t)
	transcriber.EXPECT().Transcribe(gomock.Any(), gomock.Any()).
		Return(model.Transcription{}, &openai.APIError{HTTPStatusCode: http.StatusBadRequest}).
		Times(3)

	p := pipeline.New(transcriber, instructor, pipeline.WithBreakers(breakerConfig(1)))
	for i := 0; i < 3; i++ {
		_, err := p.Run(context.Background(), framed(t, nil), false)
		var perr *pipeline.Error
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, pipeline.KindUpstream, perr.Kind)
	}
	assert.Equal(t, "closed", p.BreakerStates()[pipeline.TranscriptionBreaker])
}

func TestBreakersDisabled(t *testing.T) {
	transcriber, instructor := newMocks(t)
	cfg := breakerConfig(1)
	cfg.Enabled = false

	p := pipeline.New(transcriber, instructor, pipeline.WithBreakers(cfg))
	assert.Empty(t, p.BreakerStates())
}
