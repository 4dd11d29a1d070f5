package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/schema"
	"golang.org/x/sync/errgroup"
)

// sarifFileName is the staged SARIF file inside the run scope.
const sarifFileName = "riskgate.sarif"

var commitIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{7,64}$`)

// AnalysisRequest is the set of parameters shared by every analyzer task.
type AnalysisRequest struct {
	Range        schema.Range
	Profile      string
	Includes     []string
	Excludes     []string
	MaxFileBytes int64
	MaxDiffBytes int64
	Sarif        bool
	Timeout      time.Duration // per subprocess; zero means no timeout
}

// NewAnalysisRequest builds the request from a validated config.
func NewAnalysisRequest(cfg *contract.Config) AnalysisRequest {
	return AnalysisRequest{
		Range:        cfg.Range,
		Profile:      cfg.Profile,
		Includes:     cfg.Includes,
		Excludes:     cfg.Excludes,
		MaxFileBytes: cfg.MaxFileBytes,
		MaxDiffBytes: cfg.MaxDiffBytes,
		Sarif:        cfg.Sarif,
		Timeout:      cfg.CommandTimeout,
	}
}

// Validate checks the request before any subprocess is launched.
func (r AnalysisRequest) Validate() error {
	if strings.TrimSpace(r.Range.Base) == "" || strings.TrimSpace(r.Range.Head) == "" {
		return fmt.Errorf("analysis range requires both base and head (received %q)", r.Range.String())
	}
	for _, g := range append(append([]string{}, r.Includes...), r.Excludes...) {
		if err := contract.ValidateGlob(g); err != nil {
			return err
		}
	}
	if r.MaxFileBytes < 0 || r.MaxDiffBytes < 0 {
		return fmt.Errorf("size ceilings cannot be negative (max-file-bytes=%d, max-diff-bytes=%d)", r.MaxFileBytes, r.MaxDiffBytes)
	}
	if r.Timeout < 0 {
		return fmt.Errorf("command timeout cannot be negative (received %s)", r.Timeout)
	}
	return nil
}

// Args returns the argument list shared by every task, without the format flag.
func (r AnalysisRequest) Args() []string {
	args := []string{"analyze", "--mode", "branch", "--base", r.Range.Base, "--head", r.Range.Head}
	if r.Profile != "" {
		args = append(args, "--profile", r.Profile)
	}
	for _, g := range r.Includes {
		args = append(args, "--include", g)
	}
	for _, g := range r.Excludes {
		args = append(args, "--exclude", g)
	}
	if r.MaxFileBytes > 0 {
		args = append(args, "--max-file-bytes", strconv.FormatInt(r.MaxFileBytes, 10))
	}
	if r.MaxDiffBytes > 0 {
		args = append(args, "--max-diff-bytes", strconv.FormatInt(r.MaxDiffBytes, 10))
	}
	return args
}

// AnalysisResult holds every output of one analysis. It is only returned when
// all tasks succeeded.
type AnalysisResult struct {
	Snapshot  *schema.Snapshot
	Narrative string
	SarifPath string // empty when SARIF was not requested
}

// Runner drives the analyzer subprocesses for one run.
type Runner struct {
	client contract.AnalyzerClient
	scope  *RunScope
}

// NewRunner creates a Runner. The scope receives the SARIF file.
func NewRunner(client contract.AnalyzerClient, scope *RunScope) *Runner {
	return &Runner{client: client, scope: scope}
}

// analysisTask is one analyzer invocation. Each task writes only its own fields.
type analysisTask struct {
	shape schema.OutputShape
	run   func(ctx context.Context, args []string) error
}

// Run launches every task concurrently. The first failure cancels the others
// and no partial result is returned.
func (r *Runner) Run(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	prefix := req.Args()

	var (
		facts     *schema.FactsDocument
		factsRaw  []byte
		risk      *schema.RiskReport
		riskRaw   []byte
		narrative string
		sarifPath string
	)

	tasks := []analysisTask{
		{shape: schema.FactsShape, run: func(ctx context.Context, args []string) error {
			out, err := r.client.Run(ctx, args...)
			if err != nil {
				return err
			}
			doc, err := ParseFacts(out)
			if err != nil {
				return r.parseError(args, out, err)
			}
			facts, factsRaw = doc, out
			return nil
		}},
		{shape: schema.RiskShape, run: func(ctx context.Context, args []string) error {
			out, err := r.client.Run(ctx, args...)
			if err != nil {
				return err
			}
			report, err := ParseRiskReport(out)
			if err != nil {
				return r.parseError(args, out, err)
			}
			risk, riskRaw = report, out
			return nil
		}},
		{shape: schema.NarrativeShape, run: func(ctx context.Context, args []string) error {
			out, err := r.client.Run(ctx, args...)
			if err != nil {
				return err
			}
			narrative = string(out)
			return nil
		}},
	}
	if req.Sarif {
		tasks = append(tasks, analysisTask{shape: schema.SarifShape, run: func(ctx context.Context, args []string) error {
			path, err := r.streamSarif(ctx, args)
			if err != nil {
				return err
			}
			sarifPath = path
			return nil
		}})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		args := append(append(make([]string, 0, len(prefix)+2), prefix...), "--format", string(task.shape))
		g.Go(func() error {
			taskCtx, cancel := withOptionalTimeout(gctx, req.Timeout)
			defer cancel()
			start := time.Now()
			if err := task.run(taskCtx, args); err != nil {
				return fmt.Errorf("%s task failed: %w", task.shape, err)
			}
			contract.LogDebug("Analyzer task finished", "format", task.shape, "duration", time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snapshot := &schema.Snapshot{Facts: facts, Risk: risk, FactsJSON: factsRaw, RiskJSON: riskRaw}
	if err := checkRangeConsistency(req.Range, snapshot); err != nil {
		return nil, &contract.ParseError{Command: r.commandLine(prefix), Err: err}
	}
	return &AnalysisResult{Snapshot: snapshot, Narrative: narrative, SarifPath: sarifPath}, nil
}

// streamSarif writes SARIF stdout straight to the staging directory and checks it is JSON.
func (r *Runner) streamSarif(ctx context.Context, args []string) (string, error) {
	path, err := r.scope.Path(sarifFileName)
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create SARIF file: %w", err)
	}
	streamErr := r.client.Stream(ctx, f, args...)
	closeErr := f.Close()
	if streamErr != nil {
		return "", streamErr
	}
	if closeErr != nil {
		return "", fmt.Errorf("failed to write SARIF file: %w", closeErr)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read SARIF file: %w", err)
	}
	if !json.Valid(data) {
		return "", r.parseError(args, data, errors.New("SARIF output is not valid JSON"))
	}
	return path, nil
}

func (r *Runner) parseError(args []string, out []byte, err error) error {
	return &contract.ParseError{Command: r.commandLine(args), Excerpt: contract.Excerpt(out), Err: err}
}

func (r *Runner) commandLine(args []string) string {
	if cl, ok := r.client.(interface{ CommandLine(...string) string }); ok {
		return cl.CommandLine(args...)
	}
	return "analyzer " + strings.Join(args, " ")
}

func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// checkRangeConsistency verifies that both documents describe the requested range.
// Symbolic refs like HEAD are resolved by the analyzer, so they are only compared
// between the two documents.
func checkRangeConsistency(requested schema.Range, snapshot *schema.Snapshot) error {
	factsRange := snapshot.Facts.Range
	riskRange := snapshot.Risk.Range

	if !factsRange.IsZero() && !riskRange.IsZero() && !sameRange(*factsRange, *riskRange) {
		return fmt.Errorf("facts range %s does not match risk report range %s", factsRange, riskRange)
	}
	for _, got := range []*schema.Range{factsRange, riskRange} {
		if got.IsZero() {
			continue
		}
		if commitIDPattern.MatchString(requested.Base) && !sameCommit(requested.Base, got.Base) {
			return fmt.Errorf("analyzer reported range %s, requested %s", got, requested.String())
		}
		if commitIDPattern.MatchString(requested.Head) && !sameCommit(requested.Head, got.Head) {
			return fmt.Errorf("analyzer reported range %s, requested %s", got, requested.String())
		}
	}
	return nil
}

func sameRange(a, b schema.Range) bool {
	return sameCommit(a.Base, b.Base) && sameCommit(a.Head, b.Head)
}

// sameCommit treats an abbreviated commit id as equal to its full form.
func sameCommit(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return true
	}
	if !commitIDPattern.MatchString(a) || !commitIDPattern.MatchString(b) {
		return false
	}
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}
