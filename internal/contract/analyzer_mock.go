package contract

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockAnalyzerClient is a mock implementation of AnalyzerClient for testing.
// Arguments are recorded as (ctx, []string) so expectations can match on the
// whole argument list with mock.MatchedBy.
type MockAnalyzerClient struct {
	mock.Mock
}

var _ AnalyzerClient = &MockAnalyzerClient{} // Compile-time check

// Run mocks the Run method.
func (m *MockAnalyzerClient) Run(ctx context.Context, args ...string) ([]byte, error) {
	ret := m.Called(ctx, args)
	var out []byte
	if v := ret.Get(0); v != nil {
		out = v.([]byte)
	}
	return out, ret.Error(1)
}

// Stream mocks the Stream method. The []byte returned by the mock is written to w.
func (m *MockAnalyzerClient) Stream(ctx context.Context, w io.Writer, args ...string) error {
	ret := m.Called(ctx, args)
	if v := ret.Get(0); v != nil {
		if _, err := w.Write(v.([]byte)); err != nil {
			return err
		}
	}
	return ret.Error(1)
}

// HasArgPair reports whether args contains flag immediately followed by value.
func HasArgPair(args []string, flag, value string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}
