package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

func TestExtractTranslationResults(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCount int
		wantErr   bool
	}{
		{
			name: "plain valid array",
			input: `[
				{"index": 0, "text": "こんにちは"},
				{"index": 1, "text": "さようなら"}
			]`,
			wantCount: 2,
		},
		{
			name: "preamble with valid array",
			input: `Here is the translation:
			[
				{"index": 0, "text": "Bonjour"},
				{"index": 1, "text": "Au revoir"}
			]`,
			wantCount: 2,
		},
		{
			name: "valid array with trailing text",
			input: `[
				{"index": 0, "text": "Hola"}
			]
			I hope this helps!`,
			wantCount: 1,
		},
		{
			name:      "code fenced JSON",
			input:     `[{"index": 0, "text": "翻訳されたテキスト"}]`,
			wantCount: 1,
		},
		{
			name: "wrapper object with results key",
			input: `{"results": [
				{"index": 0, "text": "Translated"}
			]}`,
			wantCount: 1,
		},
		{
			name: "wrapper object with translations key",
			input: `{"translations": [
				{"index": 0, "text": "Übersetzt"}
			]}`,
			wantCount: 1,
		},
		{
			name: "wrapper object with data key",
			input: `{"data": [
				{"index": 0, "text": "Переведено"}
			]}`,
			wantCount: 1,
		},
		{
			name:    "empty array",
			input:   `[]`,
			wantErr: true,
		},
		{
			name:    "no JSON at all",
			input:   `This is just plain text.`,
			wantErr: true,
		},
		{
			name:    "invalid JSON",
			input:   `[{"index": 0, "text": "incomplete"`,
			wantErr: true,
		},
		{
			name:    "array with empty text",
			input:   `[{"index": 0, "text": ""}]`,
			wantErr: true,
		},
		{
			name: "complex preamble",
			input: `I've translated the subtitles for you. Here is the JSON:

			[
				{"index": 0, "text": "First translation"},
				{"index": 1, "text": "Second translation"}
			]

			Let me know if you need anything else!`,
			wantCount: 2,
		},
		{
			name: "SRT newline escape in text",
			input: `[
				{"index": 0, "text": "That's why they are fuming...\Nthese Babu and Pappu."}
			]`,
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := extractTranslationResults(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(results) != tt.wantCount {
				t.Errorf("got %d results, want %d", len(results), tt.wantCount)
			}
		})
	}
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain JSON",
			input: `[{"index": 0, "text": "hello"}]`,
			want:  `[{"index": 0, "text": "hello"}]`,
		},
		{
			name:  "json code fence",
			input: "```json\n[{\"index\": 0, \"text\": \"hello\"}]\n```",
			want:  `[{"index": 0, "text": "hello"}]`,
		},
		{
			name:  "plain code fence",
			input: "```\n[{\"index\": 0, \"text\": \"hello\"}]\n```",
			want:  `[{"index": 0, "text": "hello"}]`,
		},
		{
			name:  "with leading/trailing whitespace",
			input: "  \n\n```json\n[{\"index\": 0}]\n```\n\n  ",
			want:  `[{"index": 0}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanJSONResponse(tt.input); got != tt.want {
				t.Errorf("cleanJSONResponse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateResults(t *testing.T) {
	tests := []struct {
		name    string
		results []TranslationResult
		want    bool
	}{
		{"empty slice", []TranslationResult{}, false},
		{"nil slice", nil, false},
		{
			"result with text",
			[]TranslationResult{{Index: 0, Text: "hello"}},
			true,
		},
		{
			"result with empty text",
			[]TranslationResult{{Index: 0, Text: ""}},
			false,
		},
		{
			"multiple results one valid",
			[]TranslationResult{
				{Index: 0, Text: ""},
				{Index: 1, Text: "valid"},
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validateResults(tt.results); got != tt.want {
				t.Errorf("validateResults() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	opts := Options{
		InputLanguage:  "en",
		TargetLanguage: "ja",
	}

	items := []TranslationItem{
		{Index: 0, Text: "Hello world"},
		{Index: 1, Text: "Goodbye"},
	}

	prompt := BuildPrompt(opts, items)

	if !strings.Contains(prompt, "English (en) subtitle texts") {
		t.Error("prompt should contain input language")
	}
	if !strings.Contains(prompt, "to Japanese (ja)") {
		t.Error("prompt should contain target language")
	}
	if !strings.Contains(prompt, "Hello world") {
		t.Error("prompt should contain input text")
	}
	if !strings.Contains(prompt, `"index": 0`) {
		t.Error("prompt should contain index")
	}
}

func TestBuildPromptWithoutInputLanguage(t *testing.T) {
	opts := Options{
		TargetLanguage: "es",
	}

	items := []TranslationItem{
		{Index: 0, Text: "Hello"},
	}

	prompt := BuildPrompt(opts, items)

	if strings.Contains(prompt, "English") || strings.Contains(prompt, "from ") {
		t.Error("prompt should not contain input language when not specified")
	}
	if !strings.Contains(prompt, "to Spanish (es)") {
		t.Error("prompt should contain target language")
	}
}

func TestBuildPromptPolish(t *testing.T) {
	opts := Options{
		TargetLanguage: "fr",
		Task:           TaskPolish,
		Prompt:         "keep it informal",
	}

	prompt := BuildPrompt(opts, []TranslationItem{{Index: 3, Text: "Bonjour"}})

	if !strings.Contains(prompt, "native French (fr) speaker") {
		t.Error("polish prompt should name the language being polished")
	}
	if !strings.Contains(prompt, "Do NOT translate") {
		t.Error("polish prompt should forbid translation")
	}
	if strings.Contains(prompt, "Translate the following") {
		t.Error("polish prompt should not ask for a translation")
	}
	if !strings.Contains(prompt, "Additional instructions: keep it informal") {
		t.Error("prompt should carry custom instructions")
	}
}

func TestCleanJSONResponseStripsThinking(t *testing.T) {
	input := "<think>\nthe user wants french\n</think>\n[{\"index\": 0, \"text\": \"salut\"}]"
	want := `[{"index": 0, "text": "salut"}]`
	if got := cleanJSONResponse(input); got != want {
		t.Errorf("cleanJSONResponse() = %q, want %q", got, want)
	}
}

func TestMatchIndices(t *testing.T) {
	items := []TranslationItem{{Index: 4, Text: "a"}, {Index: 7, Text: "b"}}

	tests := []struct {
		name    string
		results []TranslationResult
		wantErr bool
	}{
		{"all present", []TranslationResult{{Index: 7}, {Index: 4}}, false},
		{"missing one", []TranslationResult{{Index: 4}}, true},
		{"duplicate", []TranslationResult{{Index: 4}, {Index: 4}}, true},
		{"unknown index", []TranslationResult{{Index: 4}, {Index: 9}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := matchIndices(items, tt.results)
			if (err != nil) != tt.wantErr {
				t.Errorf("matchIndices() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLLMTranslatorBatchesAndSorts(t *testing.T) {
	var calls atomic.Int32
	complete := func(ctx context.Context, prompt string) (string, error) {
		calls.Add(1)
		items, err := promptItems(prompt)
		if err != nil {
			return "", err
		}
		out := make([]TranslationResult, len(items))
		for i, item := range items {
			// reply in reverse order to exercise sorting
			out[len(items)-1-i] = TranslationResult{Index: item.Index, Text: strings.ToUpper(item.Text)}
		}
		b, _ := json.Marshal(out)
		return "```json\n" + string(b) + "\n```", nil
	}

	tr := newLLMTranslator("fake", complete, Options{TargetLanguage: "fr", BatchSize: 2})
	items := []TranslationItem{
		{Index: 0, Text: "a"},
		{Index: 1, Text: "b"},
		{Index: 2, Text: "c"},
	}

	results, err := tr.TranslateWithConcurrency(context.Background(), items, 2)
	if err != nil {
		t.Fatalf("TranslateWithConcurrency error: %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("expected 2 requests, got %d", n)
	}
	want := []string{"A", "B", "C"}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d", len(results), len(want))
	}
	for i, r := range results {
		if r.Index != i || r.Text != want[i] {
			t.Errorf("results[%d] = %+v, want {%d %s}", i, r, i, want[i])
		}
	}
}

func TestLLMTranslatorRejectsShortReply(t *testing.T) {
	complete := func(ctx context.Context, prompt string) (string, error) {
		return `[{"index": 0, "text": "only one"}]`, nil
	}
	tr := newLLMTranslator("fake", complete, Options{TargetLanguage: "fr"})

	_, err := tr.Translate(context.Background(), []TranslationItem{
		{Index: 0, Text: "one"},
		{Index: 1, Text: "two"},
	})
	if err == nil {
		t.Fatal("expected error for missing result")
	}
}

// items embedded in a prompt built by BuildPrompt
func promptItems(prompt string) ([]TranslationItem, error) {
	start := strings.Index(prompt, "Input JSON:\n")
	end := strings.LastIndex(prompt, "\n\nOutput the JSON array only:")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no input JSON in prompt")
	}
	var items []TranslationItem
	err := json.Unmarshal([]byte(prompt[start+len("Input JSON:\n"):end]), &items)
	return items, err
}

var errOverloaded = errors.New("model overloaded")

// fakeModel upper-cases every item. fail decides, per request, whether the
// request errors instead.
type fakeModel struct {
	mu    sync.Mutex
	calls int
	fail  func(call int, items []TranslationItem) bool
}

func (m *fakeModel) complete(ctx context.Context, prompt string) (string, error) {
	items, err := promptItems(prompt)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()

	if m.fail != nil && m.fail(call, items) {
		return "", errOverloaded
	}
	out := make([]TranslationResult, len(items))
	for i, item := range items {
		out[i] = TranslationResult{Index: item.Index, Text: strings.ToUpper(item.Text)}
	}
	b, _ := json.Marshal(out)
	return string(b), nil
}

func (m *fakeModel) requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func hasIndex(items []TranslationItem, index int) bool {
	for _, item := range items {
		if item.Index == index {
			return true
		}
	}
	return false
}

func numberedItems(n int) []TranslationItem {
	items := make([]TranslationItem, n)
	for i := range items {
		items[i] = TranslationItem{Index: i, Text: fmt.Sprintf("line %d", i)}
	}
	return items
}

func TestTranslateAllResendsOnlyTheFailedBatch(t *testing.T) {
	for _, concurrency := range []int{1, 3} {
		t.Run(fmt.Sprintf("concurrency %d", concurrency), func(t *testing.T) {
			var once sync.Once
			model := &fakeModel{fail: func(call int, items []TranslationItem) bool {
				failed := false
				if hasIndex(items, 50) && len(items) > 1 {
					once.Do(func() { failed = true })
				}
				return failed
			}}
			tr := newLLMTranslator("fake", model.complete, Options{TargetLanguage: "fr", BatchSize: 50})

			out := TranslateAll(context.Background(), tr, numberedItems(150), concurrency)

			if n := model.requests(); n != 4 {
				t.Errorf("expected 4 requests (3 batches + 1 resend), got %d", n)
			}
			for i, o := range out {
				if o.Err != nil || o.Text != strings.ToUpper(fmt.Sprintf("line %d", i)) {
					t.Errorf("outcome %d = %+v", i, o)
				}
			}
		})
	}
}

func TestTranslateAllSplitsOnlyTheFailingBatch(t *testing.T) {
	model := &fakeModel{fail: func(call int, items []TranslationItem) bool {
		return hasIndex(items, 60)
	}}
	tr := newLLMTranslator("fake", model.complete, Options{TargetLanguage: "fr", BatchSize: 50})

	out := TranslateAll(context.Background(), tr, numberedItems(150), 1)

	// 3 batches, the failed batch resent once, then its 50 items one by one
	if n := model.requests(); n != 54 {
		t.Errorf("expected 54 requests, got %d", n)
	}
	for i, o := range out {
		if i == 60 {
			if !errors.Is(o.Err, errOverloaded) {
				t.Errorf("outcome 60 error = %v, want %v", o.Err, errOverloaded)
			}
			continue
		}
		if o.Err != nil {
			t.Errorf("outcome %d: unexpected error %v", i, o.Err)
		}
	}
}

func TestTranslateWithConcurrencyKeepsOtherBatches(t *testing.T) {
	model := &fakeModel{fail: func(call int, items []TranslationItem) bool {
		return hasIndex(items, 2)
	}}
	tr := newLLMTranslator("fake", model.complete, Options{TargetLanguage: "fr", BatchSize: 2})

	results, err := tr.TranslateWithConcurrency(context.Background(), numberedItems(6), 3)

	var partial *PartialError
	if !errors.As(err, &partial) {
		t.Fatalf("error = %v, want *PartialError", err)
	}
	if partial.Failed != 2 {
		t.Errorf("Failed = %d, want 2", partial.Failed)
	}
	if !errors.Is(err, errOverloaded) {
		t.Errorf("error %v does not wrap %v", err, errOverloaded)
	}
	if !strings.Contains(err.Error(), "batch 1 failed") {
		t.Errorf("error %q should name batch 1", err)
	}

	var got []int
	for _, r := range results {
		got = append(got, r.Index)
	}
	want := []int{0, 1, 4, 5}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("result indices = %v, want %v", got, want)
	}
	if n := model.requests(); n != 3 {
		t.Errorf("expected 3 requests, got %d", n)
	}
}

func TestTranslateWithConcurrencyAllBatchesFail(t *testing.T) {
	model := &fakeModel{fail: func(int, []TranslationItem) bool { return true }}
	tr := newLLMTranslator("fake", model.complete, Options{TargetLanguage: "fr", BatchSize: 2})

	results, err := tr.TranslateWithConcurrency(context.Background(), numberedItems(4), 2)

	var partial *PartialError
	if err == nil || errors.As(err, &partial) {
		t.Fatalf("error = %v, want a plain failure", err)
	}
	if !strings.Contains(err.Error(), "batch 0 failed") {
		t.Errorf("error %q should name the first batch", err)
	}
	if results != nil {
		t.Errorf("results = %v, want nil", results)
	}
}

func TestTranslateWithConcurrencyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	model := &fakeModel{}
	tr := newLLMTranslator("fake", model.complete, Options{TargetLanguage: "fr", BatchSize: 2})

	_, err := tr.TranslateWithConcurrency(ctx, numberedItems(6), 2)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if n := model.requests(); n != 0 {
		t.Errorf("expected no requests after cancel, got %d", n)
	}
}
