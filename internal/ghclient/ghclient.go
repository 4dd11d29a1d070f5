// Package ghclient talks to the GitHub REST API for pull request comments.
package ghclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v72/github"
	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/schema"
)

const (
	defaultTimeout = 30 * time.Second
	commentsPage   = 100
)

// Client implements contract.CommentClient on top of go-github.
type Client struct {
	gh *github.Client
}

var _ contract.CommentClient = &Client{} // Compile-time check

// NewClient creates a token-authenticated client. An empty apiURL uses api.github.com.
func NewClient(token, apiURL string) (*Client, error) {
	if token == "" {
		return nil, errors.New("github token cannot be empty")
	}
	gh := github.NewClient(&http.Client{Timeout: defaultTimeout}).WithAuthToken(token)
	if apiURL != "" && apiURL != contract.DefaultGitHubAPIURL {
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		base, err := url.Parse(apiURL)
		if err != nil || base.Scheme == "" || base.Host == "" {
			return nil, fmt.Errorf("invalid GitHub API URL %q", apiURL)
		}
		gh.BaseURL = base
	}
	return &Client{gh: gh}, nil
}

// ListComments returns every issue comment on the pull request, oldest first.
func (c *Client) ListComments(ctx context.Context, repo schema.RepoRef, number int) ([]schema.IssueComment, error) {
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: commentsPage},
	}

	var results []schema.IssueComment
	for {
		comments, resp, err := c.gh.Issues.ListComments(ctx, repo.Owner, repo.Name, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list comments on %s#%d: %w", repo, number, err)
		}
		for _, comment := range comments {
			results = append(results, convertComment(comment))
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return results, nil
}

// CreateComment posts a new comment on the pull request.
func (c *Client) CreateComment(ctx context.Context, repo schema.RepoRef, number int, body string) (schema.IssueComment, error) {
	comment, _, err := c.gh.Issues.CreateComment(ctx, repo.Owner, repo.Name, number, &github.IssueComment{Body: github.Ptr(body)})
	if err != nil {
		return schema.IssueComment{}, fmt.Errorf("failed to create comment on %s#%d: %w", repo, number, err)
	}
	return convertComment(comment), nil
}

// UpdateComment replaces the body of an existing comment.
func (c *Client) UpdateComment(ctx context.Context, repo schema.RepoRef, commentID int64, body string) error {
	if _, _, err := c.gh.Issues.EditComment(ctx, repo.Owner, repo.Name, commentID, &github.IssueComment{Body: github.Ptr(body)}); err != nil {
		return fmt.Errorf("failed to update comment %d on %s: %w", commentID, repo, err)
	}
	return nil
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, repo schema.RepoRef, commentID int64) error {
	if _, err := c.gh.Issues.DeleteComment(ctx, repo.Owner, repo.Name, commentID); err != nil {
		return fmt.Errorf("failed to delete comment %d on %s: %w", commentID, repo, err)
	}
	return nil
}

func convertComment(comment *github.IssueComment) schema.IssueComment {
	if comment == nil {
		return schema.IssueComment{}
	}
	return schema.IssueComment{
		ID:     comment.GetID(),
		Body:   comment.GetBody(),
		Author: comment.GetUser().GetLogin(),
	}
}
