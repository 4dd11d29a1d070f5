package ghclient

import (
	"context"

	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/schema"
	"github.com/stretchr/testify/mock"
)

// MockCommentClient is a mock implementation of CommentClient for testing.
type MockCommentClient struct {
	mock.Mock
}

var _ contract.CommentClient = &MockCommentClient{} // Compile-time check

// ListComments implements the CommentClient interface.
func (m *MockCommentClient) ListComments(ctx context.Context, repo schema.RepoRef, number int) ([]schema.IssueComment, error) {
	args := m.Called(ctx, repo, number)
	comments, _ := args.Get(0).([]schema.IssueComment)
	return comments, args.Error(1)
}

// CreateComment implements the CommentClient interface.
func (m *MockCommentClient) CreateComment(ctx context.Context, repo schema.RepoRef, number int, body string) (schema.IssueComment, error) {
	args := m.Called(ctx, repo, number, body)
	comment, _ := args.Get(0).(schema.IssueComment)
	return comment, args.Error(1)
}

// UpdateComment implements the CommentClient interface.
func (m *MockCommentClient) UpdateComment(ctx context.Context, repo schema.RepoRef, commentID int64, body string) error {
	args := m.Called(ctx, repo, commentID, body)
	return args.Error(0)
}

// DeleteComment implements the CommentClient interface.
func (m *MockCommentClient) DeleteComment(ctx context.Context, repo schema.RepoRef, commentID int64) error {
	args := m.Called(ctx, repo, commentID)
	return args.Error(0)
}
