package llm

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

type bodyKey struct{}

// ResponseBody receives the body of a successful upstream response made
// under the context returned by CaptureBody.
type ResponseBody struct {
	data []byte
}

// Bytes returns the captured body, or nil if nothing was captured.
func (b *ResponseBody) Bytes() []byte {
	return b.data
}

// CaptureBody returns a context whose upstream response body is recorded
// into the returned ResponseBody by clients built with NewClient.
func CaptureBody(ctx context.Context) (context.Context, *ResponseBody) {
	body := &ResponseBody{}
	return context.WithValue(ctx, bodyKey{}, body), body
}

// capturingDoer copies success bodies for requests that asked for it and
// hands go-openai an identical body to decode.
type capturingDoer struct {
	next openai.HTTPDoer
}

func (d capturingDoer) Do(req *http.Request) (*http.Response, error) {
	resp, err := d.next.Do(req)
	if err != nil {
		return resp, err
	}

	body, ok := req.Context().Value(bodyKey{}).(*ResponseBody)
	if !ok || resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusBadRequest {
		return resp, nil
	}

	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}
	body.data = data
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}
