// Package ghaction reads and writes the GitHub Actions runner files: the event
// payload, step outputs and the job summary.
package ghaction

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/schema"
)

type eventRepo struct {
	FullName string `json:"full_name"`
	Fork     bool   `json:"fork"`
}

type eventRef struct {
	SHA  string     `json:"sha"`
	Ref  string     `json:"ref"`
	Repo *eventRepo `json:"repo"`
}

type pullRequestEvent struct {
	Number      int `json:"number"`
	PullRequest *struct {
		Number int      `json:"number"`
		Base   eventRef `json:"base"`
		Head   eventRef `json:"head"`
	} `json:"pull_request"`
}

// LoadPullRequest reads the event payload at path. It returns nil when the file
// is absent or the event is not a pull request event.
func LoadPullRequest(path string) (*schema.PullRequestContext, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read event payload %s: %w", path, err)
	}
	return ParsePullRequest(data)
}

// ParsePullRequest extracts the pull request context from an event payload.
func ParsePullRequest(data []byte) (*schema.PullRequestContext, error) {
	var event pullRequestEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to parse event payload: %w", err)
	}
	if event.PullRequest == nil {
		return nil, nil
	}

	pr := event.PullRequest
	number := pr.Number
	if number == 0 {
		number = event.Number
	}
	return &schema.PullRequestContext{
		Number:  number,
		BaseSHA: pr.Base.SHA,
		HeadSHA: pr.Head.SHA,
		BaseRef: pr.Base.Ref,
		HeadRef: pr.Head.Ref,
		Fork:    isFork(pr.Base.Repo, pr.Head.Repo),
	}, nil
}

// isFork reports whether the head lives in a different repository than the base.
// A deleted head repository is treated as a fork.
func isFork(base, head *eventRepo) bool {
	if head == nil {
		return base != nil
	}
	if base == nil {
		return head.Fork
	}
	return !strings.EqualFold(head.FullName, base.FullName)
}

// OutputFile writes step outputs in the runner's multiline format. With an
// empty path the outputs go to the fallback writer.
type OutputFile struct {
	path     string
	fallback io.Writer
	newDelim func() string
}

var _ contract.OutputWriter = &OutputFile{} // Compile-time check

// NewOutputFile creates an output writer for path, normally $GITHUB_OUTPUT.
func NewOutputFile(path string, fallback io.Writer) *OutputFile {
	if fallback == nil {
		fallback = os.Stdout
	}
	return &OutputFile{
		path:     path,
		fallback: fallback,
		newDelim: func() string { return "ghadelimiter_" + uuid.NewString() },
	}
}

// WriteOutputs appends every entry in insertion order.
func (o *OutputFile) WriteOutputs(outputs *schema.RunOutputs) error {
	if outputs == nil || outputs.Len() == 0 {
		return nil
	}
	var b strings.Builder
	for _, entry := range outputs.Entries() {
		record, err := o.formatEntry(entry)
		if err != nil {
			return err
		}
		b.WriteString(record)
	}
	if o.path == "" {
		_, err := io.WriteString(o.fallback, b.String())
		return err
	}
	return appendFile(o.path, b.String())
}

// formatEntry renders one key<<DELIM block. The delimiter never occurs in the value.
func (o *OutputFile) formatEntry(entry schema.OutputEntry) (string, error) {
	if entry.Key == "" || strings.ContainsAny(entry.Key, "\r\n=<") {
		return "", fmt.Errorf("invalid output key %q", entry.Key)
	}
	delim := o.newDelim()
	for strings.Contains(entry.Value, delim) || strings.Contains(entry.Key, delim) {
		delim = o.newDelim()
	}
	return fmt.Sprintf("%s<<%s\n%s\n%s\n", entry.Key, delim, entry.Value, delim), nil
}

// SummaryFile appends markdown to the job summary, normally $GITHUB_STEP_SUMMARY.
type SummaryFile struct {
	path     string
	fallback io.Writer
}

var _ contract.SummaryWriter = &SummaryFile{} // Compile-time check

// NewSummaryFile creates a summary writer. With an empty path the markdown goes
// to the fallback writer.
func NewSummaryFile(path string, fallback io.Writer) *SummaryFile {
	if fallback == nil {
		fallback = os.Stdout
	}
	return &SummaryFile{path: path, fallback: fallback}
}

// AppendSummary implements the SummaryWriter interface.
func (s *SummaryFile) AppendSummary(markdown string) error {
	if !strings.HasSuffix(markdown, "\n") {
		markdown += "\n"
	}
	if s.path == "" {
		_, err := io.WriteString(s.fallback, markdown)
		return err
	}
	return appendFile(s.path, markdown)
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
