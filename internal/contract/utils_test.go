package contract

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/huangsam/riskgate/schema"
	"github.com/stretchr/testify/assert"
)

func TestGetPlainLabel(t *testing.T) {
	tests := []struct {
		input    schema.RiskLevel
		expected string
	}{
		{schema.CriticalLevel, CriticalValue},
		{schema.HighLevel, HighValue},
		{"MEDIUM", MediumValue},
		{schema.LowLevel, LowValue},
		{"", UnknownValue},
		{"bogus", UnknownValue},
	}
	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			assert.Equal(t, tt.expected, GetPlainLabel(tt.input))
		})
	}
}

func TestGetColorLabelKeepsText(t *testing.T) {
	assert.Contains(t, GetColorLabel(schema.HighLevel), HighValue)
	assert.Equal(t, UnknownValue, GetColorLabel("bogus"))
	assert.Equal(t, "new", GetStatusLabel(schema.NewStatus, false))
}

func TestValidateGlob(t *testing.T) {
	tests := []struct {
		pattern string
		valid   bool
	}{
		{"*.go", true},
		{"src/**/*.ts", true},
		{"docs/", true},
		{"[a-z]*.md", true},
		{"[", false},
		{"src/[a", false},
		{"  ", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			err := ValidateGlob(tt.pattern)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Equal(t, []string{"a", "b"}, SplitList(" a, ,b ,"))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "abcdefg...", TruncateText("abcdefghijklmnop", 10))
	assert.Equal(t, "abc", TruncateText("abc", 2))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		assert.NoError(t, err)
		assert.True(t, v)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		assert.NoError(t, err)
		assert.False(t, v)
	}
	_, err := ParseBoolString("sometimes")
	assert.Error(t, err)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "hello", Excerpt([]byte("  hello \n")))

	long := strings.Repeat("é", MaxExcerptBytes) // 2 bytes per rune
	out := Excerpt([]byte(long))
	assert.True(t, strings.HasSuffix(out, "... (truncated)"))
	assert.LessOrEqual(t, len(strings.TrimSuffix(out, "... (truncated)")), MaxExcerptBytes)
	assert.True(t, strings.HasPrefix(out, "é"))
}

func TestErrorMessages(t *testing.T) {
	cmdErr := &CommandError{Command: "riskmap --format risk-json", ExitCode: 1, Stderr: "boom"}
	assert.Contains(t, cmdErr.Error(), "exited with code 1")
	assert.Contains(t, cmdErr.Error(), "stderr: boom")
	assert.True(t, IsFatalAnalysisError(cmdErr))

	timeout := &CommandError{Command: "x", ExitCode: -1, TimedOut: true}
	assert.Contains(t, timeout.Error(), "timed out")

	inner := errors.New("unexpected EOF")
	parseErr := &ParseError{Command: "x", Excerpt: "{", Err: inner}
	assert.ErrorIs(t, parseErr, inner)
	assert.True(t, IsFatalAnalysisError(parseErr))
	assert.False(t, IsFatalAnalysisError(errors.New("other")))
}

func TestLogAnnotations(t *testing.T) {
	var logs, annotations bytes.Buffer
	SetLogOutput(&logs, &annotations, true)
	t.Cleanup(func() { SetLogOutput(&bytes.Buffer{}, &bytes.Buffer{}, false) })

	LogWarn("artifact publish failed", errors.New("line1\nline2"))
	LogInfo("not annotated")

	assert.Contains(t, logs.String(), "artifact publish failed")
	assert.Contains(t, logs.String(), "not annotated")
	assert.Equal(t, "::warning::artifact publish failed: line1%0Aline2\n", annotations.String())
}

func TestLogDebugLevel(t *testing.T) {
	var logs bytes.Buffer
	SetLogOutput(&logs, &bytes.Buffer{}, false)
	t.Cleanup(func() {
		SetDebug(false)
		SetLogOutput(&bytes.Buffer{}, &bytes.Buffer{}, false)
	})

	LogDebug("hidden")
	assert.NotContains(t, logs.String(), "hidden")

	SetDebug(true)
	LogDebug("shown")
	assert.Contains(t, logs.String(), "shown")
}
