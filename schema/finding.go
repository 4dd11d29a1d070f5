package schema

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Keys owned by Finding itself. Everything else in a finding object belongs to the payload.
var findingFixedKeys = map[string]struct{}{
	"findingId":  {},
	"kind":       {},
	"category":   {},
	"confidence": {},
	"evidence":   {},
}

// Finding is a single detected fact about a change. The fixed fields are shared by
// every kind; kind-specific fields live in Payload and sit flat next to the fixed
// fields on the wire.
type Finding struct {
	FindingID  string
	Kind       FindingKind
	Category   string
	Confidence float64
	Evidence   []string
	Payload    FindingPayload
}

// FindingPayload is the kind-specific part of a finding.
type FindingPayload interface {
	PayloadKind() FindingKind
}

// FilePatternPayload is a changed file matching a risk pattern.
type FilePatternPayload struct {
	Path    string `json:"path"`
	Pattern string `json:"pattern,omitempty"`
}

// PayloadKind implements FindingPayload.
func (FilePatternPayload) PayloadKind() FindingKind { return FilePatternKind }

// DependencyChangePayload is an added, removed, or bumped dependency.
type DependencyChangePayload struct {
	Ecosystem string `json:"ecosystem,omitempty"`
	Name      string `json:"name"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Manifest  string `json:"manifest,omitempty"`
}

// PayloadKind implements FindingPayload.
func (DependencyChangePayload) PayloadKind() FindingKind { return DependencyChangeKind }

// SizeThresholdPayload is a file or diff exceeding a size ceiling.
type SizeThresholdPayload struct {
	Path  string `json:"path,omitempty"`
	Bytes int64  `json:"bytes"`
	Limit int64  `json:"limit"`
}

// PayloadKind implements FindingPayload.
func (SizeThresholdPayload) PayloadKind() FindingKind { return SizeThresholdKind }

// RawPayload keeps the fields of a kind this version does not model.
type RawPayload struct {
	Kind   FindingKind
	Fields map[string]json.RawMessage
}

// PayloadKind implements FindingPayload.
func (p RawPayload) PayloadKind() FindingKind { return p.Kind }

// MarshalJSON writes the fixed fields and the payload fields into one object.
func (f Finding) MarshalJSON() ([]byte, error) {
	out := map[string]json.RawMessage{}

	if f.Payload != nil {
		fields, err := payloadFields(f.Payload)
		if err != nil {
			return nil, err
		}
		for k, v := range fields {
			if _, fixed := findingFixedKeys[k]; !fixed {
				out[k] = v
			}
		}
	}

	kind := f.Kind
	if kind == "" && f.Payload != nil {
		kind = f.Payload.PayloadKind()
	}
	evidence := f.Evidence
	if evidence == nil {
		evidence = []string{}
	}

	fixed := map[string]any{
		"findingId":  f.FindingID,
		"kind":       kind,
		"category":   f.Category,
		"confidence": f.Confidence,
		"evidence":   evidence,
	}
	for k, v := range fixed {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[k] = b
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits a flat finding object into fixed fields and a typed payload.
func (f *Finding) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	var decoded Finding
	if err := decodeField(obj, "findingId", &decoded.FindingID); err != nil {
		return err
	}
	if err := decodeField(obj, "kind", &decoded.Kind); err != nil {
		return err
	}
	if err := decodeField(obj, "category", &decoded.Category); err != nil {
		return err
	}
	if err := decodeField(obj, "confidence", &decoded.Confidence); err != nil {
		return err
	}
	if err := decodeField(obj, "evidence", &decoded.Evidence); err != nil {
		return err
	}

	rest := maps.Clone(obj)
	for k := range findingFixedKeys {
		delete(rest, k)
	}

	payload, err := decodePayload(decoded.Kind, rest)
	if err != nil {
		return fmt.Errorf("finding %q: %w", decoded.FindingID, err)
	}
	decoded.Payload = payload

	*f = decoded
	return nil
}

func decodeField(obj map[string]json.RawMessage, key string, dst any) error {
	raw, ok := obj[key]
	if !ok || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("field %s: %w", key, err)
	}
	return nil
}

func decodePayload(kind FindingKind, rest map[string]json.RawMessage) (FindingPayload, error) {
	var typed FindingPayload
	switch kind {
	case FilePatternKind:
		typed = &FilePatternPayload{}
	case DependencyChangeKind:
		typed = &DependencyChangePayload{}
	case SizeThresholdKind:
		typed = &SizeThresholdPayload{}
	default:
		if len(rest) == 0 {
			return nil, nil
		}
		return RawPayload{Kind: kind, Fields: rest}, nil
	}

	b, err := json.Marshal(rest)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, typed); err != nil {
		return nil, fmt.Errorf("%s payload: %w", kind, err)
	}

	switch p := typed.(type) {
	case *FilePatternPayload:
		return *p, nil
	case *DependencyChangePayload:
		return *p, nil
	case *SizeThresholdPayload:
		return *p, nil
	}
	return typed, nil
}

func payloadFields(p FindingPayload) (map[string]json.RawMessage, error) {
	if raw, ok := p.(RawPayload); ok {
		return raw.Fields, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
