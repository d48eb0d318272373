package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/csysgen/pkg/config"
	"github.com/chazu/csysgen/pkg/engine"
	"github.com/chazu/csysgen/pkg/field"
	"github.com/chazu/csysgen/pkg/kernel/sdfx"
	"github.com/chazu/csysgen/pkg/model"
	"github.com/chazu/csysgen/pkg/orient"
	"github.com/chazu/csysgen/pkg/report"
	"github.com/chazu/csysgen/pkg/store"
)

// App evaluates mesh descriptions and publishes one orientation field per
// selected part.
type App struct {
	engine *engine.Engine
	cfg    *config.Config

	in  *bufio.Reader // answers to the continue prompt
	out io.Writer     // prompt and report output
}

// FailureData is a JSON-serializable element failure.
type FailureData struct {
	Element int    `json:"element"`
	Message string `json:"message"`
}

// FindingData is a JSON-serializable validation finding.
type FindingData struct {
	Part     string `json:"part"`
	Element  int    `json:"element,omitempty"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// PartResult is the outcome for one part.
type PartResult struct {
	Part     string         `json:"part"`
	Field    string         `json:"field,omitempty"` // empty when nothing was published
	OK       bool           `json:"ok"`
	Partial  bool           `json:"partial"`
	Failures []FailureData  `json:"failures"`
	Summary  report.Summary `json:"summary"`
}

// GenerateResult is the full result of one generation.
type GenerateResult struct {
	Parts    []PartResult       `json:"parts"`
	Errors   []engine.EvalError `json:"errors"`
	Findings []FindingData      `json:"findings"`
	Halted   bool               `json:"halted"`  // a part failed under the halt policy
	Stopped  bool               `json:"stopped"` // declined at the continue prompt
}

// Err summarizes why the result is incomplete, or returns nil.
func (r GenerateResult) Err() error {
	if len(r.Errors) > 0 {
		msgs := make([]string, len(r.Errors))
		for i, e := range r.Errors {
			msgs[i] = e.Error()
		}
		return fmt.Errorf("evaluation failed:\n  %s", strings.Join(msgs, "\n  "))
	}
	if len(r.Parts) == 0 {
		return errors.New("model defines no parts")
	}
	if r.Halted {
		last := r.Parts[len(r.Parts)-1]
		return fmt.Errorf("part %s failed, remaining parts were not processed", last.Part)
	}
	return nil
}

// Summaries returns the audit summary of every processed part.
func (r GenerateResult) Summaries() []report.Summary {
	sums := make([]report.Summary, len(r.Parts))
	for i, p := range r.Parts {
		sums[i] = p.Summary
	}
	return sums
}

// NewApp creates an App for cfg with the sdfx kernel. A nil cfg uses the
// defaults.
func NewApp(cfg *config.Config) *App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &App{
		engine: engine.NewEngine(sdfx.New()),
		cfg:    cfg,
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stderr,
	}
}

// Generate evaluates source and computes the fields of the configured parts
// without publishing them.
func (a *App) Generate(source string) GenerateResult {
	result, err := a.generate(context.Background(), source, nil)
	if err != nil {
		log.Printf("Generate error: %v", err)
	}
	return result
}

// generate evaluates source and processes the selected parts in order,
// publishing each part's request to sink when sink is non-nil. The returned
// error is reserved for sink and context failures; problems with the input
// are reported in the result.
func (a *App) generate(ctx context.Context, source string, sink field.Sink) (GenerateResult, error) {
	result := GenerateResult{
		Parts:    []PartResult{},
		Errors:   []engine.EvalError{},
		Findings: []FindingData{},
	}

	// Step 1: Evaluate the source into a mesh model.
	m, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, engine.EvalError{Message: err.Error()})
		return result, nil
	}
	if len(evalErrs) > 0 {
		result.Errors = append(result.Errors, evalErrs...)
		return result, nil
	}

	// Step 2: Pick the parts to process.
	parts, err := selectParts(m, a.cfg.Parts)
	if err != nil {
		result.Errors = append(result.Errors, engine.EvalError{Message: err.Error()})
		return result, nil
	}

	opts := orient.Options{
		Policy:  a.cfg.PolicyValue(),
		Workers: a.cfg.Workers,
		Corners: a.cfg.CornerMap(),
	}
	fopts := field.Options{
		Prefix:       a.cfg.FieldPrefix,
		Description:  a.cfg.Description,
		AllowPartial: opts.Policy == orient.ContinueOnFailure,
	}

	// Step 3: Validate, orient and publish part by part.
	for i, p := range parts {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		pr, err := a.processPart(ctx, p, opts, fopts, sink, &result)
		result.Parts = append(result.Parts, pr)
		if err != nil {
			return result, err
		}
		if !pr.OK && opts.Policy == orient.HaltOnFailure {
			log.Printf("part %s failed, halting", p.Name)
			result.Halted = true
			break
		}
		if a.cfg.Confirm && i < len(parts)-1 && !a.confirm(p.Name) {
			log.Printf("stopped after part %s", p.Name)
			result.Stopped = true
			break
		}
	}
	return result, nil
}

// processPart runs one part. Structural validation errors fail the part
// before any frame is built; geometric findings are recorded and the
// affected elements fail during orientation, where the policy applies.
func (a *App) processPart(ctx context.Context, p *model.Part, opts orient.Options, fopts field.Options, sink field.Sink, result *GenerateResult) (PartResult, error) {
	pr := PartResult{Part: p.Name, Failures: []FailureData{}}

	structural := model.ValidatePart(p)
	errs, warnings := model.ValidateGeometry(p, opts.Corners)
	for _, list := range [][]model.ValidationError{structural, errs, warnings} {
		for _, e := range list {
			result.Findings = append(result.Findings, FindingData{
				Part:     e.Part,
				Element:  e.Element,
				Severity: e.Severity.String(),
				Message:  e.Message,
			})
		}
	}
	if len(structural) > 0 {
		for _, e := range structural {
			pr.Failures = append(pr.Failures, FailureData{Element: e.Element, Message: e.Message})
		}
		pr.Summary = report.Summary{Part: p.Name, Elements: len(p.Elements), Failures: len(structural)}
		return pr, nil
	}

	res := orient.Aggregate(p, opts)
	pr.OK = res.OK
	pr.Summary = report.Summarize(res)
	for _, f := range res.Failures {
		pr.Failures = append(pr.Failures, FailureData{Element: f.Element, Message: f.Err.Error()})
	}

	req, err := field.NewRequest(res, fopts)
	if err != nil {
		log.Printf("part %s: no field published: %v", p.Name, err)
		pr.OK = false
		return pr, nil
	}
	pr.Field = req.Field.Name
	pr.Partial = req.Partial
	if sink != nil {
		if err := sink.Publish(ctx, req); err != nil {
			return pr, fmt.Errorf("publish %s: %w", req.Field.Name, err)
		}
	}
	log.Printf("part %s: %d frames, %d failures", p.Name, len(res.Records), len(res.Failures))
	return pr, nil
}

// confirm asks whether to continue after part. Anything but an explicit
// "n" or "no" continues; a closed input stops.
func (a *App) confirm(part string) bool {
	fmt.Fprintf(a.out, "Part - %s - done, continue ? [Y/n] ", part)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "n", "no":
		return false
	}
	return true
}

// selectParts returns the named parts in the given order, or every part in
// definition order when names is empty.
func selectParts(m *model.Model, names []string) ([]*model.Part, error) {
	if len(names) == 0 {
		return m.PartList(), nil
	}
	parts := make([]*model.Part, 0, len(names))
	for _, name := range names {
		p := m.Lookup(name)
		if p == nil {
			return nil, fmt.Errorf("part %q is not defined (have %s)", name, strings.Join(m.Order, ", "))
		}
		parts = append(parts, p)
	}
	return parts, nil
}

// Run processes the configured model file and writes the results.
func (a *App) Run(ctx context.Context) error {
	source, err := os.ReadFile(a.cfg.Model)
	if err != nil {
		return fmt.Errorf("read model: %w", err)
	}

	w, closeOut, err := openOutput(a.cfg.Output.Path)
	if err != nil {
		return err
	}
	defer closeOut()

	writer, err := field.NewWriter(a.cfg.Output.Format, w)
	if err != nil {
		return err
	}
	sinks := field.Multi{writer}
	if a.cfg.Output.Store != "" {
		st, err := store.Open(a.cfg.Output.Store, a.cfg.Model)
		if err != nil {
			return err
		}
		defer st.Close()
		sinks = append(sinks, st)
	}

	result, err := a.generate(ctx, string(source), sinks)
	if cerr := writer.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close writer: %w", cerr)
	}
	if err != nil {
		return err
	}

	for _, f := range result.Findings {
		log.Printf("%s: part %s element %d: %s", f.Severity, f.Part, f.Element, f.Message)
	}
	if a.cfg.Output.Report && len(result.Parts) > 0 {
		if err := report.Write(a.out, result.Summaries()); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	if a.cfg.Output.Histogram != "" && len(result.Parts) > 0 {
		if err := report.SaveHistogram(result.Summaries(), a.cfg.Output.Histogram); err != nil {
			log.Printf("histogram not written: %v", err)
		}
	}
	return result.Err()
}

// ListStore prints the runs and field names held in the configured store.
func (a *App) ListStore(ctx context.Context, w io.Writer) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.Runs(ctx)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Fprintf(w, "run %s  %s  %d field(s)  %s\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Fields, r.Note)
	}
	names, err := st.Fields(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(w, n)
	}
	return nil
}

// ShowField writes the latest stored request for name in the configured
// output format.
func (a *App) ShowField(ctx context.Context, name string, w io.Writer) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	req, err := st.Load(ctx, name)
	if err != nil {
		return err
	}
	writer, err := field.NewWriter(a.cfg.Output.Format, w)
	if err != nil {
		return err
	}
	if err := writer.Publish(ctx, req); err != nil {
		return err
	}
	return writer.Close()
}

func (a *App) openStore() (*store.Store, error) {
	if a.cfg.Output.Store == "" {
		return nil, errors.New("no store configured")
	}
	return store.Open(a.cfg.Output.Store, "")
}

// openOutput returns stdout for "" and "-", or creates path and its parent
// directories.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			log.Printf("close %s: %v", path, err)
		}
	}, nil
}
