package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/schema"
)

const commentTruncationNotice = "\n\n_Report truncated. See the job summary for the full report._"

// minCommentLimit fits the marker line, one byte of report, and the truncation notice.
const minCommentLimit = len(schema.ReportMarker) + 2 + len(commentTruncationNotice)

// Publisher writes the job summary and maintains the single marker-bearing PR comment.
//
// The comment upsert lists then acts without a lock. Two runs racing on the same
// pull request can both create a comment; the next run converges to one.
type Publisher struct {
	comments        contract.CommentClient // nil when no token is configured
	summary         contract.SummaryWriter
	commentsEnabled bool
	limit           int
}

// NewPublisher creates a report publisher. limit bounds the comment body in
// bytes; zero selects the default and smaller limits are raised to minCommentLimit.
func NewPublisher(comments contract.CommentClient, summary contract.SummaryWriter, commentsEnabled bool, limit int) *Publisher {
	if limit <= 0 {
		limit = contract.DefaultCommentLimit
	}
	limit = max(limit, minCommentLimit)
	return &Publisher{comments: comments, summary: summary, commentsEnabled: commentsEnabled, limit: limit}
}

// PublishSummary appends the rendered report to the job summary.
func (p *Publisher) PublishSummary(rendered string) error {
	if p.summary == nil {
		return errors.New("summary writer is not configured")
	}
	if err := p.summary.AppendSummary(rendered); err != nil {
		return fmt.Errorf("failed to write job summary: %w", err)
	}
	return nil
}

// PublishComment creates or updates the report comment and reports whether one
// is now present. It never fails the run: skips and API errors are logged.
func (p *Publisher) PublishComment(ctx context.Context, rendered string, target *schema.CommentTarget) bool {
	switch {
	case !p.commentsEnabled:
		contract.LogDebug("PR comment disabled by configuration")
		return false
	case target == nil:
		contract.LogInfo("Not a pull request run, skipping PR comment")
		return false
	case target.Fork:
		contract.LogInfo("Pull request is from a fork, skipping PR comment", "pr", target.Number)
		return false
	case p.comments == nil:
		contract.LogInfo("No GitHub token available, skipping PR comment", "pr", target.Number)
		return false
	}

	body := p.CommentBody(rendered)
	if err := p.upsert(ctx, target, body); err != nil {
		contract.LogWarn("Failed to publish PR comment", err, "repo", target.Repo.String(), "pr", target.Number)
		return false
	}
	return true
}

// CommentBody prefixes the marker and bounds the body to the comment limit.
func (p *Publisher) CommentBody(rendered string) string {
	body := schema.ReportMarker + "\n" + rendered
	if len(body) <= p.limit {
		return body
	}
	cut := p.limit - len(commentTruncationNotice)
	for cut > len(schema.ReportMarker)+1 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + commentTruncationNotice
}

func (p *Publisher) upsert(ctx context.Context, target *schema.CommentTarget, body string) error {
	existing, err := p.comments.ListComments(ctx, target.Repo, target.Number)
	if err != nil {
		return err
	}

	// Only comments that open with the marker are ours; a comment quoting it is not.
	var owned []schema.IssueComment
	for _, c := range existing {
		if strings.HasPrefix(c.Body, schema.ReportMarker) {
			owned = append(owned, c)
		}
	}

	if len(owned) == 0 {
		created, err := p.comments.CreateComment(ctx, target.Repo, target.Number, body)
		if err != nil {
			return err
		}
		contract.LogInfo("Created PR comment", "id", created.ID, "pr", target.Number)
		return nil
	}

	// Keep the oldest, drop duplicates left by a race.
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID < owned[j].ID })
	keep := owned[0]
	if keep.Body != body {
		if err := p.comments.UpdateComment(ctx, target.Repo, keep.ID, body); err != nil {
			return err
		}
	}
	contract.LogInfo("Updated PR comment", "id", keep.ID, "pr", target.Number)

	for _, dup := range owned[1:] {
		if dup.Author != keep.Author {
			contract.LogDebug("Leaving marker comment by another author", "id", dup.ID, "author", dup.Author)
			continue
		}
		if err := p.comments.DeleteComment(ctx, target.Repo, dup.ID); err != nil {
			contract.LogWarn("Failed to delete duplicate PR comment", err, "id", dup.ID)
		}
	}
	return nil
}
