package core

import "github.com/huangsam/riskgate/schema"

// Bound limits value to limit bytes. An oversized value is cut to a prefix of
// exactly limit bytes and flagged; the cut is byte-level and may split a rune.
func Bound(value string, limit int) schema.TruncatedOutput {
	if limit < 0 {
		limit = 0
	}
	if len(value) <= limit {
		return schema.TruncatedOutput{Value: value}
	}
	return schema.TruncatedOutput{Value: value[:limit], Truncated: true}
}
