package llm

import (
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/mrsingh-rishi/voice-instructor/config"
)

// NewClient builds the single go-openai client shared by the transcription
// and chat adapters. For Azure, model names passed in requests are used as
// deployment names verbatim. Response bodies are captured for calls made
// under CaptureBody.
func NewClient(cfg config.OpenAIConfig, httpClient *http.Client) *openai.Client {
	var clientConfig openai.ClientConfig
	switch cfg.Provider {
	case config.ProviderAzure:
		clientConfig = openai.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
		clientConfig.APIVersion = cfg.APIVersion
		clientConfig.AzureModelMapperFunc = func(model string) string {
			return model
		}
	default:
		clientConfig = openai.DefaultConfig(cfg.APIKey)
		clientConfig.BaseURL = cfg.Endpoint
	}

	if httpClient == nil {
		httpClient = &http.Client{}
	}
	clientConfig.HTTPClient = capturingDoer{next: httpClient}
	return openai.NewClientWithConfig(clientConfig)
}
