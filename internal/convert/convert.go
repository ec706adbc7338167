// Package convert turns one subtitle file into a language package: a
// translated subtitle file per target language and a dialogue list table
// with the source text and every translation side by side.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mgpai22/srtpack/internal/document"
	"github.com/mgpai22/srtpack/internal/language"
	"github.com/mgpai22/srtpack/internal/subtitle"
	"github.com/mgpai22/srtpack/internal/translate"
	"github.com/mgpai22/srtpack/internal/video"
)

// Request describes one conversion.
type Request struct {
	Input           string
	SourceLanguage  string // "auto" or empty detects it from the text
	TargetLanguages []string
	OutputDir       string // defaults to the input's directory
	Format          subtitle.Format
	TableOutput     string // defaults to <output dir>/<stem>.docx
	TableHeading    string
	TableOnly       bool // skip the per-language subtitle files
	Stream          int  // subtitle stream of a video input
	Concurrency     int  // target languages translated at once
}

// Result lists what a conversion produced.
type Result struct {
	RunID           string
	Input           string
	SourceLanguage  string // resolved; empty when it could not be detected
	TargetLanguages []string
	Entries         int
	SubtitleFiles   []string // in TargetLanguages order
	TableFile       string
	Warnings        []Warning
}

// TranslatorFunc builds the translator for one language pair. source is
// empty when the input language is to be detected by the engine.
type TranslatorFunc func(ctx context.Context, source, target string) (translate.Translator, error)

// ProgressFunc is called when a stage finishes for a target language.
type ProgressFunc func(language string, stage Stage)

type Converter struct {
	logger     *zap.SugaredLogger
	translator TranslatorFunc
	polisher   TranslatorFunc
	video      video.Processor
	onStatus   func(Status)
	onProgress ProgressFunc
}

type Option func(*Converter)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTranslator sets how target columns are filled. Without one the
// translation columns are left blank for manual translation.
func WithTranslator(fn TranslatorFunc) Option {
	return func(c *Converter) { c.translator = fn }
}

// WithPolisher enables the polish pass over every translation.
func WithPolisher(fn TranslatorFunc) Option {
	return func(c *Converter) { c.polisher = fn }
}

func WithVideoProcessor(p video.Processor) Option {
	return func(c *Converter) {
		if p != nil {
			c.video = p
		}
	}
}

// WithStatusHandler receives every status change, in order, on the
// converting goroutine.
func WithStatusHandler(fn func(Status)) Option {
	return func(c *Converter) { c.onStatus = fn }
}

func WithProgress(fn ProgressFunc) Option {
	return func(c *Converter) { c.onProgress = fn }
}

func New(opts ...Option) *Converter {
	c := &Converter{
		logger: zap.NewNop().Sugar(),
		video:  video.NewProcessor(""),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert runs the whole conversion. A parse error aborts before anything is
// written; entries that fail to translate become warnings.
func (c *Converter) Convert(ctx context.Context, req Request) (*Result, error) {
	return c.run(ctx, req, c.notify)
}

func (c *Converter) notify(s Status) {
	if c.onStatus != nil {
		c.onStatus(s)
	}
}

func (c *Converter) progress(lang string, stage Stage) {
	if c.onProgress != nil {
		c.onProgress(lang, stage)
	}
}

type languageJob struct {
	target     string
	translator translate.Translator
	polisher   translate.Translator
}

func (c *Converter) run(
	ctx context.Context,
	req Request,
	notify func(Status),
) (res *Result, err error) {
	defer func() {
		if err != nil {
			notify(StatusIdle)
		}
	}()

	runID := uuid.NewString()
	log := c.logger.With("run_id", runID)

	req, err = normalizeRequest(req)
	if err != nil {
		return nil, err
	}

	jobs, err := c.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	defer closeJobs(jobs)
	notify(StatusReady)

	sub, err := c.load(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Infow("parsed input",
		"input", req.Input,
		"entries", len(sub.Entries),
		"format", sub.Format,
	)
	notify(StatusRunning)

	source := req.SourceLanguage
	if source == "" {
		source = language.Detect(sub.Texts())
		log.Infow("detected input language", "source_language", source)
	}
	for _, target := range req.TargetLanguages {
		if source != "" && language.Equal(source, target) {
			log.Warnw("output language matches detected input language",
				"target_language", target)
		}
	}

	texts, warnings, err := c.translateAll(ctx, log, sub, jobs, req.Concurrency)
	if err != nil {
		return nil, err
	}
	notify(StatusFinishing)

	res = &Result{
		RunID:           runID,
		Input:           req.Input,
		SourceLanguage:  source,
		TargetLanguages: req.TargetLanguages,
		Entries:         len(sub.Entries),
		Warnings:        warnings,
	}
	if err := c.write(log, req, sub, source, texts, res); err != nil {
		return nil, err
	}

	log.Infow("conversion complete",
		"subtitle_files", len(res.SubtitleFiles),
		"table", res.TableFile,
		"warnings", len(res.Warnings),
	)
	notify(StatusComplete)
	return res, nil
}

func normalizeRequest(req Request) (Request, error) {
	if strings.TrimSpace(req.Input) == "" {
		return req, ErrNoInput
	}
	info, err := os.Stat(req.Input)
	if err != nil {
		return req, fmt.Errorf("input file: %w", err)
	}
	if info.IsDir() {
		return req, fmt.Errorf("input %s is a directory", req.Input)
	}
	if !subtitle.IsSubtitleFile(req.Input) && !video.IsVideoFile(req.Input) {
		return req, fmt.Errorf("%w: %s", ErrUnsupported, req.Input)
	}

	source := language.Normalize(req.SourceLanguage)
	if source == language.Auto {
		source = ""
	}
	req.SourceLanguage = source

	seen := make(map[string]bool, len(req.TargetLanguages))
	targets := make([]string, 0, len(req.TargetLanguages))
	for _, t := range req.TargetLanguages {
		t = language.Normalize(t)
		if t == "" || seen[t] {
			continue
		}
		if strings.ContainsAny(t, `/\`) {
			return req, fmt.Errorf("invalid output language %q", t)
		}
		if source != "" && t == source {
			return req, fmt.Errorf("%w: %s", ErrSameLanguage, t)
		}
		seen[t] = true
		targets = append(targets, t)
	}
	if len(targets) == 0 && !req.TableOnly {
		return req, ErrNoTargets
	}
	req.TargetLanguages = targets

	format, err := subtitle.ParseFormat(string(req.Format))
	if err != nil {
		return req, err
	}
	req.Format = format

	if req.Concurrency < 1 {
		req.Concurrency = 1
	}
	if req.TableHeading == "" {
		req.TableHeading = document.DefaultHeading
	}
	return req, nil
}

// builds every translator up front so configuration problems surface before
// the input is read
func (c *Converter) prepare(ctx context.Context, req Request) ([]languageJob, error) {
	jobs := make([]languageJob, 0, len(req.TargetLanguages))
	for _, target := range req.TargetLanguages {
		job := languageJob{target: target}
		if c.translator != nil {
			tr, err := c.translator(ctx, req.SourceLanguage, target)
			if err != nil {
				closeJobs(jobs)
				return nil, fmt.Errorf("create translator for %s: %w", target, err)
			}
			job.translator = tr

			if c.polisher != nil {
				p, err := c.polisher(ctx, req.SourceLanguage, target)
				if err != nil {
					closeJobs(append(jobs, job))
					return nil, fmt.Errorf("create polisher for %s: %w", target, err)
				}
				job.polisher = p
			}
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func closeJobs(jobs []languageJob) {
	for _, job := range jobs {
		for _, tr := range []translate.Translator{job.translator, job.polisher} {
			if closer, ok := tr.(io.Closer); ok {
				_ = closer.Close()
			}
		}
	}
}

func (c *Converter) load(ctx context.Context, req Request) (*subtitle.Subtitle, error) {
	if !video.IsVideoFile(req.Input) {
		return subtitle.Open(req.Input)
	}

	dir, err := os.MkdirTemp("", "srtpack-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	extracted := filepath.Join(dir, "stream.srt")
	opts := video.DefaultExtractOptions()
	opts.Stream = req.Stream
	if err := c.video.ExtractSubtitles(ctx, req.Input, extracted, opts); err != nil {
		return nil, fmt.Errorf("extract subtitles from %s: %w", req.Input, err)
	}
	return subtitle.ParseFile(extracted)
}

// texts[i] holds the column for jobs[i], aligned with sub.Entries
func (c *Converter) translateAll(
	ctx context.Context,
	log *zap.SugaredLogger,
	sub *subtitle.Subtitle,
	jobs []languageJob,
	concurrency int,
) ([][]string, []Warning, error) {
	items := make([]translate.TranslationItem, len(sub.Entries))
	for i, e := range sub.Entries {
		items[i] = translate.TranslationItem{Index: i, Text: e.Text}
	}

	texts := make([][]string, len(jobs))
	perJob := make([][]Warning, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			texts[i], perJob[i] = c.translateLanguage(gctx, log, sub, items, job, concurrency)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var warnings []Warning
	for _, w := range perJob {
		warnings = append(warnings, w...)
	}
	return texts, warnings, nil
}

func (c *Converter) translateLanguage(
	ctx context.Context,
	log *zap.SugaredLogger,
	sub *subtitle.Subtitle,
	items []translate.TranslationItem,
	job languageJob,
	concurrency int,
) ([]string, []Warning) {
	out := make([]string, len(items))
	if job.translator == nil {
		return out, nil
	}

	log = log.With("target_language", job.target)
	log.Infow("translating", "entries", len(items))

	var warnings []Warning
	warn := func(i int, stage Stage, err error) {
		w := Warning{
			Entry:    sub.Entries[i].Index,
			Language: job.target,
			Stage:    stage,
			Err:      err,
		}
		log.Warnw("entry failed", "stage", stage, "entry", w.Entry, "error", err)
		warnings = append(warnings, w)
	}

	for i, o := range translate.TranslateAll(ctx, job.translator, items, concurrency) {
		if o.Err != nil {
			warn(i, StageTranslate, o.Err)
			continue
		}
		out[i] = o.Text
	}
	c.progress(job.target, StageTranslate)

	if job.polisher == nil {
		return out, warnings
	}

	polishItems := make([]translate.TranslationItem, 0, len(out))
	for i, text := range out {
		if text != "" {
			polishItems = append(polishItems, translate.TranslationItem{Index: i, Text: text})
		}
	}
	log.Infow("polishing", "entries", len(polishItems))
	for _, o := range translate.TranslateAll(ctx, job.polisher, polishItems, concurrency) {
		if o.Err != nil {
			warn(o.Index, StagePolish, o.Err)
			continue
		}
		if strings.TrimSpace(o.Text) != "" {
			out[o.Index] = o.Text
		}
	}
	c.progress(job.target, StagePolish)

	return out, warnings
}

func (c *Converter) write(
	log *zap.SugaredLogger,
	req Request,
	sub *subtitle.Subtitle,
	source string,
	texts [][]string,
	res *Result,
) error {
	outDir := req.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(req.Input)
	}
	stem := strings.TrimSuffix(filepath.Base(req.Input), filepath.Ext(req.Input))

	if !req.TableOnly {
		w, err := subtitle.NewWriter(req.Format)
		if err != nil {
			return err
		}
		ext := subtitle.GetExtensionForFormat(req.Format)
		for i, target := range req.TargetLanguages {
			path := filepath.Join(outDir, stem+"."+target+ext)
			if err := w.Write(sub.WithTexts(texts[i], target), path); err != nil {
				return &WriteError{Path: path, Err: err}
			}
			log.Infow("wrote subtitle file", "target_language", target, "path", path)
			res.SubtitleFiles = append(res.SubtitleFiles, path)
		}
	}

	tablePath := req.TableOutput
	if tablePath == "" {
		tablePath = filepath.Join(outDir, stem+".docx")
	}
	table := document.BuildTable(sub, source, req.TargetLanguages, texts)
	if err := document.WriteDOCX(table, tablePath, req.TableHeading); err != nil {
		return &WriteError{Path: tablePath, Err: err}
	}
	log.Infow("wrote table", "path", tablePath, "rows", len(table.Rows))
	res.TableFile = tablePath

	return nil
}
