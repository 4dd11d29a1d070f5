package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/huangsam/riskgate/schema"
)

// Keys each document must carry. Anything else is output of another shape.
var (
	factsRequiredKeys = []string{"findings"}
	riskRequiredKeys  = []string{"score", "level", "flags"}
)

// requireKeys checks that data is a JSON object holding every key with a non-null value.
func requireKeys(data []byte, keys []string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("expected a JSON object: %w", err)
	}
	if fields == nil {
		return errors.New("expected a JSON object, got null")
	}
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			return fmt.Errorf("missing required key %q", key)
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return fmt.Errorf("required key %q is null", key)
		}
	}
	return nil
}

// ParseFacts decodes and validates a facts document.
func ParseFacts(data []byte) (*schema.FactsDocument, error) {
	if err := requireKeys(data, factsRequiredKeys); err != nil {
		return nil, fmt.Errorf("invalid facts document: %w", err)
	}
	var doc schema.FactsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid facts document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid facts document: %w", err)
	}
	return &doc, nil
}

// ParseRiskReport decodes and validates a risk report.
func ParseRiskReport(data []byte) (*schema.RiskReport, error) {
	if err := requireKeys(data, riskRequiredKeys); err != nil {
		return nil, fmt.Errorf("invalid risk report: %w", err)
	}
	var report schema.RiskReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("invalid risk report: %w", err)
	}
	if err := report.Validate(); err != nil {
		return nil, fmt.Errorf("invalid risk report: %w", err)
	}
	return &report, nil
}

// ParseSnapshot decodes both documents of a snapshot and keeps the raw bytes.
func ParseSnapshot(factsJSON, riskJSON []byte) (*schema.Snapshot, error) {
	facts, err := ParseFacts(factsJSON)
	if err != nil {
		return nil, err
	}
	risk, err := ParseRiskReport(riskJSON)
	if err != nil {
		return nil, err
	}
	return &schema.Snapshot{Facts: facts, Risk: risk, FactsJSON: factsJSON, RiskJSON: riskJSON}, nil
}
