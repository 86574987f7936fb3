package llm

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/mrsingh-rishi/voice-instructor/model"
)

// SafetyInstructions is the system directive for every instruction request.
const SafetyInstructions = `You are an industrial workspace assistant. The user message is a transcript of something a worker said on the shop floor.
Reply with one short, clear safety instruction the worker should follow before or while carrying out what they said.
Do not add greetings, explanations or formatting; return only the safety instruction.`

// Fixed sampling parameters for instruction requests.
const (
	maxTokens   = 500
	temperature = 0.7
	topP        = 0.95
)

// ChatAPI is the part of the go-openai client used for chat completions.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Instructor turns transcripts into safety instructions with a hosted chat model.
type Instructor struct {
	API                ChatAPI
	Model              string // model name, or deployment name on Azure
	SystemInstructions string
}

// NewInstructor returns an Instructor for modelName using the fixed safety
// directive.
func NewInstructor(api ChatAPI, modelName string) (*Instructor, error) {
	if api == nil {
		return nil, errors.New("chat client is required")
	}
	if modelName == "" {
		return nil, errors.New("model is required")
	}
	return &Instructor{
		API:                api,
		Model:              modelName,
		SystemInstructions: SafetyInstructions,
	}, nil
}

// Request builds the two-message, non-streaming completion request for transcript.
func (in *Instructor) Request(transcript string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: in.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: in.SystemInstructions},
			{Role: openai.ChatMessageRoleUser, Content: transcript},
		},
		MaxTokens:        maxTokens,
		Temperature:      temperature,
		TopP:             topP,
		FrequencyPenalty: 0,
		PresencePenalty:  0,
		Stream:           false,
	}
}

// Instruct sends transcript to the chat model and returns the first choice's content.
func (in *Instructor) Instruct(ctx context.Context, transcript string) (string, error) {
	resp, err := in.API.CreateChatCompletion(ctx, in.Request(transcript))
	if err != nil {
		return "", errors.Wrapf(err, "chat completion with %s", in.Model)
	}
	if len(resp.Choices) == 0 {
		return "", errors.Wrap(model.ErrMalformedResult, "chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
