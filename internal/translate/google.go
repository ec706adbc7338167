package translate

import (
	"context"
	"fmt"

	gtranslate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"

	lang "github.com/mgpai22/srtpack/internal/language"
)

// Cloud Translation accepts at most 128 segments per request
const googleMaxBatch = 100

// implements Translator using the Google Cloud Translation API
type GoogleTranslator struct {
	client    *gtranslate.Client
	source    string // "" lets the service detect it
	target    string
	model     string // "nmt" or "base"; empty lets the service choose
	batchSize int
}

// NewGoogleTranslator authenticates with apiKey, or with application
// default credentials when apiKey is empty. Language codes are checked
// when translating, so a malformed code fails the entries rather than
// the run.
func NewGoogleTranslator(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*GoogleTranslator, error) {
	var source string
	if in := lang.Normalize(opts.InputLanguage); in != lang.Auto {
		source = in
	}

	var clientOpts []option.ClientOption
	if apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(apiKey))
	}
	client, err := gtranslate.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Translate client: %w", err)
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 || batchSize > googleMaxBatch {
		batchSize = googleMaxBatch
	}

	return &GoogleTranslator{
		client:    client,
		source:    source,
		target:    lang.Normalize(opts.TargetLanguage),
		model:     opts.Model,
		batchSize: batchSize,
	}, nil
}

func (t *GoogleTranslator) tags() (source, target language.Tag, err error) {
	target, err = lang.Tag(t.target)
	if err != nil {
		return source, target, fmt.Errorf("unsupported target language %q: %w", t.target, err)
	}
	if t.source != "" {
		source, err = lang.Tag(t.source)
		if err != nil {
			return source, target, fmt.Errorf("unsupported input language %q: %w", t.source, err)
		}
	}
	return source, target, nil
}

func (t *GoogleTranslator) Translate(
	ctx context.Context,
	items []TranslationItem,
) ([]TranslationResult, error) {
	source, target, err := t.tags()
	if err != nil {
		return nil, err
	}

	results := make([]TranslationResult, 0, len(items))
	for start := 0; start < len(items); start += t.batchSize {
		end := start + t.batchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		texts := make([]string, len(batch))
		for i, item := range batch {
			texts[i] = item.Text
		}

		translations, err := t.client.Translate(ctx, texts, target,
			&gtranslate.Options{
				Source: source,
				Format: gtranslate.Text,
				Model:  t.model,
			})
		if err != nil {
			return nil, fmt.Errorf("translation failed: %w", err)
		}
		if len(translations) != len(batch) {
			return nil, fmt.Errorf(
				"expected %d results, got %d",
				len(batch),
				len(translations),
			)
		}

		for i, tr := range translations {
			results = append(results, TranslationResult{
				Index: batch[i].Index,
				Text:  tr.Text,
			})
		}
	}

	return results, nil
}

func (t *GoogleTranslator) Close() error {
	return t.client.Close()
}
