package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// CompleteFunc sends one prompt to a model and returns its text reply.
type CompleteFunc func(ctx context.Context, prompt string) (string, error)

// batching, prompting and response parsing shared by the LLM providers
type llmTranslator struct {
	complete CompleteFunc
	options  Options
	name     string
}

func newLLMTranslator(
	name string,
	complete CompleteFunc,
	opts Options,
) *llmTranslator {
	return &llmTranslator{
		complete: complete,
		options:  opts,
		name:     name,
	}
}

// NewLLMTranslator batches items into JSON prompts for complete, the way the
// hosted providers do. name labels request errors.
func NewLLMTranslator(name string, complete CompleteFunc, opts Options) ConcurrentTranslator {
	return newLLMTranslator(name, complete, opts)
}

func (t *llmTranslator) batchSize() int {
	if t.options.BatchSize > 0 {
		return t.options.BatchSize
	}
	return DefaultBatchSize
}

func (t *llmTranslator) batches(items []TranslationItem) [][]TranslationItem {
	size := t.batchSize()
	var batches [][]TranslationItem
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}

func (t *llmTranslator) Translate(
	ctx context.Context,
	items []TranslationItem,
) ([]TranslationResult, error) {
	if len(items) == 0 {
		return []TranslationResult{}, nil
	}

	var allResults []TranslationResult
	var firstErr error
	failed := 0
	for i, batch := range t.batches(items) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results, err := t.translateBatch(ctx, batch)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("batch %d failed: %w", i, err)
			}
			failed += len(batch)
			continue
		}
		allResults = append(allResults, results...)
	}

	sortResults(allResults)
	return partialResults(allResults, failed, firstErr)
}

// Items are split into batches of BatchSize (default 50). Each batch becomes
// one API request. Workers (up to concurrency) pull batches from a shared queue.
// A failed batch does not stop the others; their results come back with a
// *PartialError.
func (t *llmTranslator) TranslateWithConcurrency(
	ctx context.Context,
	items []TranslationItem,
	concurrency int,
) ([]TranslationResult, error) {
	if len(items) == 0 {
		return []TranslationResult{}, nil
	}

	if concurrency <= 0 {
		concurrency = 3
	}

	batches := t.batches(items)
	if len(batches) == 1 {
		return t.translateBatch(ctx, batches[0])
	}

	type batchResult struct {
		Index   int
		Results []TranslationResult
		Error   error
	}

	workChan := make(chan int)
	resultChan := make(chan batchResult, len(batches))

	var wg sync.WaitGroup
	for i := 0; i < concurrency && i < len(batches); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batchIdx := range workChan {
				if ctx.Err() != nil {
					return
				}
				results, err := t.translateBatch(ctx, batches[batchIdx])
				resultChan <- batchResult{
					Index:   batchIdx,
					Results: results,
					Error:   err,
				}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for i := range batches {
			select {
			case <-ctx.Done():
				return
			case workChan <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var allResults []TranslationResult
	var firstErr error
	firstIdx := len(batches)
	failed := 0
	for result := range resultChan {
		if result.Error != nil {
			// lowest batch wins so the error does not depend on scheduling
			if result.Index < firstIdx {
				firstIdx = result.Index
				firstErr = fmt.Errorf(
					"batch %d failed: %w",
					result.Index,
					result.Error,
				)
			}
			failed += len(batches[result.Index])
			continue
		}
		allResults = append(allResults, result.Results...)
	}

	if err := ctx.Err(); err != nil && len(allResults)+failed < len(items) {
		return nil, err
	}

	sortResults(allResults)
	return partialResults(allResults, failed, firstErr)
}

// no results at all is a plain failure
func partialResults(
	results []TranslationResult,
	failed int,
	err error,
) ([]TranslationResult, error) {
	if err == nil {
		return results, nil
	}
	if len(results) == 0 {
		return nil, err
	}
	return results, &PartialError{Failed: failed, Err: err}
}

func (t *llmTranslator) translateBatch(
	ctx context.Context,
	items []TranslationItem,
) ([]TranslationResult, error) {
	prompt := BuildPrompt(t.options, items)

	responseText, err := t.complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", t.name, err)
	}
	if strings.TrimSpace(responseText) == "" {
		return nil, fmt.Errorf("no text in %s response", t.name)
	}

	responseText = cleanJSONResponse(responseText)

	results, err := extractTranslationResults(responseText)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to parse JSON response: %w (response: %s)",
			err,
			truncateString(responseText, 200),
		)
	}

	if err := matchIndices(items, results); err != nil {
		return nil, err
	}

	return results, nil
}

// every requested index must come back exactly once
func matchIndices(items []TranslationItem, results []TranslationResult) error {
	if len(results) != len(items) {
		return fmt.Errorf(
			"expected %d results, got %d",
			len(items),
			len(results),
		)
	}
	want := make(map[int]bool, len(items))
	for _, item := range items {
		want[item.Index] = true
	}
	for _, r := range results {
		if !want[r.Index] {
			return fmt.Errorf("unexpected or duplicate result index %d", r.Index)
		}
		delete(want, r.Index)
	}
	return nil
}

func sortResults(results []TranslationResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})
}

var (
	jsonBlockRegex = regexp.MustCompile("```(?:json)?\\s*")
	thinkRegex     = regexp.MustCompile(`(?s)<think>.*?</think>`)
)

func cleanJSONResponse(s string) string {
	s = thinkRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	s = jsonBlockRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")

	return strings.TrimSpace(s)
}

// fixes invalid JSON escape sequences like \N (ASS newline).
// It replaces \N with \\N so JSON can parse it, preserving the literal \N in the output.
func fixInvalidEscapes(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	i := 0
	for i < len(s) {
		if i < len(s)-1 && s[i] == '\\' {
			next := s[i+1]
			switch next {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
				result.WriteByte(s[i])
				result.WriteByte(s[i+1])
				i += 2
			default:
				result.WriteString("\\\\")
				result.WriteByte(next)
				i += 2
			}
		} else {
			result.WriteByte(s[i])
			i++
		}
	}

	return result.String()
}

func extractTranslationResults(text string) ([]TranslationResult, error) {
	text = fixInvalidEscapes(text)

	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}
		decoder := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			continue
		}
		if results, ok := tryExtractResults(raw); ok && len(results) > 0 {
			return results, nil
		}
	}
	return nil, fmt.Errorf("no valid translation JSON found in response")
}

func tryExtractResults(raw json.RawMessage) ([]TranslationResult, bool) {
	var results []TranslationResult
	if err := json.Unmarshal(raw, &results); err == nil &&
		validateResults(results) {
		return results, true
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, false
	}

	for _, key := range []string{"results", "translations", "data", "items"} {
		if fieldRaw, exists := wrapper[key]; exists {
			var fieldResults []TranslationResult
			if err := json.Unmarshal(fieldRaw, &fieldResults); err == nil &&
				validateResults(fieldResults) {
				return fieldResults, true
			}
		}
	}

	for _, fieldRaw := range wrapper {
		var fieldResults []TranslationResult
		if err := json.Unmarshal(fieldRaw, &fieldResults); err == nil &&
			validateResults(fieldResults) {
			return fieldResults, true
		}
	}

	return nil, false
}

func validateResults(results []TranslationResult) bool {
	for _, r := range results {
		if r.Text != "" {
			return true
		}
	}
	return false
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
