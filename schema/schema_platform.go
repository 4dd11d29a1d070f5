package schema

import (
	"fmt"
	"strings"
)

// RepoRef identifies a repository on the code host.
type RepoRef struct {
	Owner string
	Name  string
}

// ParseRepoRef parses "owner/name".
func ParseRepoRef(s string) (RepoRef, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return RepoRef{}, fmt.Errorf("invalid repository %q, expected owner/name", s)
	}
	return RepoRef{Owner: owner, Name: name}, nil
}

// String formats the reference as owner/name.
func (r RepoRef) String() string {
	if r.Owner == "" && r.Name == "" {
		return ""
	}
	return r.Owner + "/" + r.Name
}

// IsZero reports whether the reference is unset.
func (r RepoRef) IsZero() bool { return r.Owner == "" && r.Name == "" }

// IssueComment is a comment on a pull request conversation.
type IssueComment struct {
	ID     int64
	Body   string
	Author string
}

// PullRequestContext is what a run knows about the pull request that triggered it.
type PullRequestContext struct {
	Number  int
	BaseSHA string
	HeadSHA string
	BaseRef string
	HeadRef string
	Fork    bool // head repository differs from base repository
}

// CommentTarget is where a report comment goes.
type CommentTarget struct {
	Repo   RepoRef
	Number int
	Fork   bool
}
