package translate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

const defaultOllamaModel = "qwen3:14b"

// implements Translator using a local ollama server
type OllamaTranslator struct {
	*llmTranslator
	client *api.Client
	model  string
}

// NewOllamaTranslator talks to opts.Endpoint, or to OLLAMA_HOST when no
// endpoint is set.
func NewOllamaTranslator(
	ctx context.Context,
	opts Options,
) (*OllamaTranslator, error) {
	var client *api.Client
	if opts.Endpoint != "" {
		endpoint, err := url.Parse(opts.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama endpoint %q: %w", opts.Endpoint, err)
		}
		client = api.NewClient(endpoint, http.DefaultClient)
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
	}

	model := opts.Model
	if model == "" {
		model = defaultOllamaModel
	}

	t := &OllamaTranslator{
		client: client,
		model:  model,
	}
	t.llmTranslator = newLLMTranslator("Ollama", t.complete, opts)
	return t, nil
}

func (t *OllamaTranslator) complete(
	ctx context.Context,
	prompt string,
) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  t.model,
		Prompt: prompt,
		Stream: &stream,
	}

	var sb strings.Builder
	err := t.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (t *OllamaTranslator) Close() error {
	return nil
}
