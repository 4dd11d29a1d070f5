package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/internal/outwriter"
	"github.com/huangsam/riskgate/schema"
)

var (
	// ErrThresholdExceeded marks a run whose score met or exceeded the configured gate.
	ErrThresholdExceeded = errors.New("risk score threshold exceeded")

	// ErrScopeMismatch marks a run whose baseline range is not comparable, under strict scope.
	ErrScopeMismatch = errors.New("baseline scope mismatch")
)

// RunDeps holds the collaborators of a run.
type RunDeps struct {
	Analyzer  contract.AnalyzerClient
	Resolver  contract.VersionResolver
	Artifacts contract.BlobStore    // nil disables artifact publishing and baselines
	History   contract.HistoryStore // nil disables run history
	Comments  contract.CommentClient
	Summary   contract.SummaryWriter
	Outputs   contract.OutputWriter
	Now       func() time.Time
	ScopeDir  string // parent of the staging directory; the system temp dir when empty
}

// RunReport is everything a completed run produced.
type RunReport struct {
	RunID           string
	AnalyzerVersion string
	Result          *AnalysisResult
	Baseline        *schema.Snapshot
	Delta           *schema.DeltaResult
	Artifacts       schema.ArtifactHandle
	ArtifactErr     error
	CommentPosted   bool
	Outputs         *schema.RunOutputs
	GateFailed      bool
}

// ExecuteRun drives one CI run: resolve the analyzer version, fetch the baseline,
// analyze, publish artifacts, compute the delta, publish reports, emit outputs,
// record history, and finally apply the score gate.
//
// Analyzer failures abort the run. Every other failure degrades the run and is
// logged. A threshold or strict scope failure is returned only after all
// reporting has been published, alongside the report.
func ExecuteRun(ctx context.Context, cfg *contract.Config, deps RunDeps) (*RunReport, error) {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	start := now()

	scope := NewRunScope(deps.ScopeDir)
	defer func() {
		if err := scope.Close(); err != nil {
			contract.LogWarn("Failed to clean up staging directory", err)
		}
	}()

	report := &RunReport{RunID: cfg.RunID}
	if report.RunID == "" {
		report.RunID = uuid.NewString()
	}

	// 1. Resolve the analyzer version for the logs
	report.AnalyzerVersion = cfg.AnalyzerVersion
	if deps.Resolver != nil {
		report.AnalyzerVersion = deps.Resolver.Resolve(ctx, cfg.AnalyzerVersion)
	}
	contract.LogInfo("Using analyzer", "package", cfg.AnalyzerPackage, "requested", cfg.AnalyzerVersion, "resolved", report.AnalyzerVersion)

	// 2. Fetch the baseline before analysis so a stale read never sees this run's artifacts
	artifacts := NewArtifacts(deps.Artifacts, scope, report.RunID)
	artifacts.now = now
	if cfg.BaselineArtifact != "" {
		report.Baseline = artifacts.FetchBaseline(ctx, cfg.BaselineArtifact)
	}

	// 3. Analyze
	result, err := NewRunner(deps.Analyzer, scope).Run(ctx, NewAnalysisRequest(cfg))
	if err != nil {
		return nil, err
	}
	report.Result = result
	risk := result.Snapshot.Risk
	contract.LogInfo("Analysis finished", "score", risk.Score, "level", risk.Level, "flags", len(risk.Flags), "findings", len(result.Snapshot.Facts.Findings))

	// 4. Publish artifacts
	if deps.Artifacts != nil {
		report.Artifacts, report.ArtifactErr = artifacts.Publish(ctx, cfg.ArtifactName, result)
		if report.ArtifactErr != nil {
			contract.LogError("Artifact publishing failed; later runs cannot use this run as a baseline", report.ArtifactErr, "artifact", cfg.ArtifactName)
		} else {
			contract.LogInfo("Published artifacts", "names", report.Artifacts.Names())
		}
	}

	// 5. Delta
	var scopeErr error
	if report.Baseline != nil {
		delta := CompareSnapshots(report.Baseline, result.Snapshot)
		report.Delta = &delta
		contract.LogInfo("Computed delta", "new", len(delta.NewFindingIDs), "resolved", len(delta.ResolvedFindingIDs), "unchanged", len(delta.UnchangedFindingIDs))
		if !delta.ScopeMatch {
			contract.LogWarn("Baseline scope mismatch", errors.New(delta.ScopeWarning), "baseline", cfg.BaselineArtifact)
			if cfg.StrictScope {
				scopeErr = fmt.Errorf("%w: %s", ErrScopeMismatch, delta.ScopeWarning)
			}
		}
	}

	// 6. Reports
	threshold := contract.DisabledThreshold
	if cfg.GateEnabled() {
		threshold = cfg.FailOnScore
	}
	view := outwriter.ReportView{
		AnalyzerVersion: report.AnalyzerVersion,
		Range:           cfg.Range,
		Snapshot:        result.Snapshot,
		Narrative:       result.Narrative,
		BaselineName:    cfg.BaselineArtifact,
		Delta:           report.Delta,
		Artifacts:       report.Artifacts,
		ArtifactError:   report.ArtifactErr != nil,
		Threshold:       threshold,
	}
	publisher := NewPublisher(deps.Comments, deps.Summary, cfg.Comment, cfg.CommentLimit)
	if summary, err := outwriter.RenderSummary(view); err != nil {
		contract.LogError("Failed to render job summary", err)
	} else if err := publisher.PublishSummary(summary); err != nil {
		contract.LogError("Failed to publish job summary", err)
	}
	if cfg.Comment {
		var target *schema.CommentTarget
		if t, ok := cfg.CommentTarget(); ok {
			target = &t
		}
		if comment, err := outwriter.RenderComment(view); err != nil {
			contract.LogWarn("Failed to render PR comment", err)
		} else {
			report.CommentPosted = publisher.PublishComment(ctx, comment, target)
		}
	}

	// 7. Outputs
	report.Outputs = BuildOutputs(result, report.Artifacts, report.Delta, cfg.OutputLimit)
	var outputErr error
	if deps.Outputs != nil {
		if outputErr = deps.Outputs.WriteOutputs(report.Outputs); outputErr != nil {
			outputErr = fmt.Errorf("failed to write step outputs: %w", outputErr)
			contract.LogError("Failed to write step outputs", outputErr)
		}
	}

	// 8. Gate, evaluated here so history records it
	var gateErr error
	if cfg.GateEnabled() && risk.Score >= cfg.FailOnScore {
		report.GateFailed = true
		gateErr = fmt.Errorf("%w: score %d is at or above %d", ErrThresholdExceeded, risk.Score, cfg.FailOnScore)
	}

	// 9. History
	if deps.History != nil {
		rec := buildRunRecord(cfg, report, start, now())
		if err := deps.History.RecordRun(ctx, rec); err != nil {
			contract.LogWarn("Failed to record run history", err, "run", report.RunID)
		}
	}

	return report, errors.Join(outputErr, scopeErr, gateErr)
}

// BuildOutputs assembles the step outputs. Delta keys are absent without a baseline,
// and each JSON body is bounded to limit bytes with a companion truncation flag.
func BuildOutputs(result *AnalysisResult, handle schema.ArtifactHandle, delta *schema.DeltaResult, limit int) *schema.RunOutputs {
	out := &schema.RunOutputs{}
	snapshot := result.Snapshot
	risk := snapshot.Risk

	out.Set(schema.OutRiskScore, strconv.Itoa(risk.Score))
	out.Set(schema.OutRiskLevel, string(risk.Level))
	out.Set(schema.OutFlagCount, strconv.Itoa(len(risk.Flags)))
	out.Set(schema.OutFindingCount, strconv.Itoa(len(snapshot.Facts.Findings)))
	out.Set(schema.OutBlocking, strconv.FormatBool(snapshot.Facts.HasBlockingActions()))

	if handle.FactsName != "" {
		out.Set(schema.OutFactsArtifact, handle.FactsName)
	}
	if handle.RiskName != "" {
		out.Set(schema.OutRiskArtifact, handle.RiskName)
	}
	if handle.SarifName != "" {
		out.Set(schema.OutSarifArtifact, handle.SarifName)
	}
	if delta != nil {
		out.Set(schema.OutDeltaNew, strconv.Itoa(len(delta.NewFindingIDs)))
		out.Set(schema.OutDeltaResolved, strconv.Itoa(len(delta.ResolvedFindingIDs)))
	}
	if len(risk.Categories) > 0 {
		if breakdown, err := json.Marshal(risk.Categories); err == nil {
			out.Set(schema.OutScoreBreakdown, string(breakdown))
		}
	}

	facts := Bound(string(snapshot.FactsJSON), limit)
	out.Set(schema.OutFactsJSON, facts.Value)
	out.Set(schema.OutFactsJSONTruncated, strconv.FormatBool(facts.Truncated))
	riskJSON := Bound(string(snapshot.RiskJSON), limit)
	out.Set(schema.OutRiskJSON, riskJSON.Value)
	out.Set(schema.OutRiskJSONTruncated, strconv.FormatBool(riskJSON.Truncated))
	return out
}

func buildRunRecord(cfg *contract.Config, report *RunReport, start, end time.Time) schema.RunRecord {
	snapshot := report.Result.Snapshot
	rec := schema.RunRecord{
		RunID:           report.RunID,
		Repository:      cfg.Repository.String(),
		BaseSHA:         cfg.Range.Base,
		HeadSHA:         cfg.Range.Head,
		AnalyzerVersion: report.AnalyzerVersion,
		Score:           snapshot.Risk.Score,
		Level:           snapshot.Risk.Level,
		FindingCount:    len(snapshot.Facts.Findings),
		FlagCount:       len(snapshot.Risk.Flags),
		Blocking:        snapshot.Facts.HasBlockingActions(),
		GateFailed:      report.GateFailed,
		StartTime:       start,
		EndTime:         end,
	}
	if cfg.PullRequest != nil {
		rec.PullNumber = cfg.PullRequest.Number
	}
	if d := report.Delta; d != nil {
		deltaNew, deltaResolved, match := len(d.NewFindingIDs), len(d.ResolvedFindingIDs), d.ScopeMatch
		rec.DeltaNew, rec.DeltaResolved, rec.ScopeMatch = &deltaNew, &deltaResolved, &match
	}
	return rec
}
