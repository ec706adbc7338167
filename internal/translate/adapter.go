package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// TextFunc is the single-text translation capability:
// translate(text, source, target) -> text | failure.
type TextFunc func(ctx context.Context, text, source, target string) (string, error)

// FuncTranslator adapts a TextFunc to Translator, one call per item.
type FuncTranslator struct {
	fn     TextFunc
	source string
	target string
}

func NewFuncTranslator(fn TextFunc, opts Options) *FuncTranslator {
	return &FuncTranslator{
		fn:     fn,
		source: opts.InputLanguage,
		target: opts.TargetLanguage,
	}
}

// Translate stops at the first failing item, the way a batch API fails as a
// whole; TranslateAll recovers the items that do translate.
func (t *FuncTranslator) Translate(
	ctx context.Context,
	items []TranslationItem,
) ([]TranslationResult, error) {
	results := make([]TranslationResult, 0, len(items))
	for _, item := range items {
		text, err := t.fn(ctx, item.Text, t.source, t.target)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", item.Index, err)
		}
		results = append(results, TranslationResult{
			Index: item.Index,
			Text:  text,
		})
	}
	return results, nil
}

// Outcome is the per-item result of TranslateAll. Text is empty when Err is
// set.
type Outcome struct {
	Index int
	Text  string
	Err   error
}

// TranslateAll returns one outcome per item, in input order. Blank items are
// not sent. Items that come back from the set call are kept. When only part
// of the set failed, the missing items are sent together once more. Whatever
// is still missing is sent one item at a time so only the items that really
// fail carry an error.
func TranslateAll(
	ctx context.Context,
	tr Translator,
	items []TranslationItem,
	concurrency int,
) []Outcome {
	outcomes := make([]Outcome, len(items))
	position := make(map[int]int, len(items))
	var pending []TranslationItem

	for i, item := range items {
		outcomes[i] = Outcome{Index: item.Index}
		position[item.Index] = i
		if strings.TrimSpace(item.Text) == "" {
			continue
		}
		pending = append(pending, item)
	}
	if len(pending) == 0 {
		return outcomes
	}

	results, err := translateSet(ctx, tr, pending, concurrency)
	missing := record(outcomes, position, pending, results, err)
	if len(missing) > 0 && len(missing) < len(pending) && ctx.Err() == nil {
		results, err = translateSet(ctx, tr, missing, concurrency)
		missing = record(outcomes, position, missing, results, err)
	}

	for _, item := range missing {
		o := &outcomes[position[item.Index]]
		if ctxErr := ctx.Err(); ctxErr != nil {
			o.Err = ctxErr
			continue
		}

		res, ierr := tr.Translate(ctx, []TranslationItem{item})
		switch {
		case ierr != nil:
			o.Err = ierr
		case len(res) != 1:
			o.Err = fmt.Errorf("expected 1 result, got %d", len(res))
		default:
			o.Text = res[0].Text
		}
	}
	return outcomes
}

// stores the results of a set call and returns the items that have none
func record(
	outcomes []Outcome,
	position map[int]int,
	items []TranslationItem,
	results []TranslationResult,
	err error,
) []TranslationItem {
	var partial *PartialError
	switch {
	case err == nil:
		if matchIndices(items, results) != nil {
			return items
		}
	case errors.As(err, &partial):
	default:
		return items
	}

	want := make(map[int]bool, len(items))
	for _, item := range items {
		want[item.Index] = true
	}
	for _, r := range results {
		if want[r.Index] {
			outcomes[position[r.Index]].Text = r.Text
			delete(want, r.Index)
		}
	}

	var missing []TranslationItem
	for _, item := range items {
		if want[item.Index] {
			missing = append(missing, item)
		}
	}
	return missing
}

func translateSet(
	ctx context.Context,
	tr Translator,
	items []TranslationItem,
	concurrency int,
) ([]TranslationResult, error) {
	if ct, ok := tr.(ConcurrentTranslator); ok && concurrency > 1 {
		return ct.TranslateWithConcurrency(ctx, items, concurrency)
	}
	return tr.Translate(ctx, items)
}
