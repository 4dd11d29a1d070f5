package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/schema"
	"github.com/stretchr/testify/mock"
)

const (
	baseSHA = "1111111111111111111111111111111111111111"
	headSHA = "2222222222222222222222222222222222222222"
)

func factsJSON(r *schema.Range, ids ...string) []byte {
	doc := schema.FactsDocument{SchemaVersion: "1", Range: r, Files: []schema.FileEntry{}, Findings: []schema.Finding{}}
	for _, id := range ids {
		doc.Findings = append(doc.Findings, schema.Finding{
			FindingID:  id,
			Category:   "infra",
			Confidence: 1,
			Payload:    schema.FilePatternPayload{Path: id + ".yml"},
		})
	}
	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return data
}

func riskJSON(r *schema.Range, score int, level schema.RiskLevel, flagIDs ...string) []byte {
	report := schema.RiskReport{SchemaVersion: "1", Range: r, Score: score, Level: level, Flags: []schema.Flag{}}
	if len(flagIDs) > 0 {
		report.Categories = map[string]schema.CategoryScore{"infra": {Score: score, FlagCount: len(flagIDs)}}
	}
	for _, id := range flagIDs {
		report.Flags = append(report.Flags, schema.Flag{FlagID: id, RuleID: "rule-" + id, Category: "infra", Title: "Flag " + id, Score: score})
	}
	data, err := json.Marshal(report)
	if err != nil {
		panic(err)
	}
	return data
}

func snapshotOf(r *schema.Range, ids ...string) *schema.Snapshot {
	s, err := ParseSnapshot(factsJSON(r, ids...), riskJSON(r, 10, schema.LowLevel))
	if err != nil {
		panic(err)
	}
	return s
}

// formatArg matches an analyzer argument list requesting the given shape.
func formatArg(shape schema.OutputShape) any {
	return mock.MatchedBy(func(args []string) bool {
		return contract.HasArgPair(args, "--format", string(shape))
	})
}

// memBlobStore is an in-memory BlobStore.
type memBlobStore struct {
	mu      sync.Mutex
	records map[string]schema.ArtifactRecord
	failPut map[string]error
	failGet error
	puts    []string
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{records: map[string]schema.ArtifactRecord{}, failPut: map[string]error{}}
}

func (s *memBlobStore) Put(_ context.Context, rec schema.ArtifactRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failPut[rec.Name]; err != nil {
		return err
	}
	s.records[rec.Name] = rec
	s.puts = append(s.puts, rec.Name)
	return nil
}

func (s *memBlobStore) Get(_ context.Context, name string) (*schema.ArtifactRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet != nil {
		return nil, s.failGet
	}
	rec, ok := s.records[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, contract.ErrArtifactNotFound)
	}
	return &rec, nil
}

func (s *memBlobStore) List(context.Context) ([]schema.ArtifactInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var infos []schema.ArtifactInfo
	for _, rec := range s.records {
		infos = append(infos, schema.ArtifactInfo{Name: rec.Name, RunID: rec.RunID, SizeBytes: rec.SizeBytes, CreatedAt: rec.CreatedAt})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (s *memBlobStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, name)
	return nil
}

func (s *memBlobStore) GetStatus(context.Context) (schema.ArtifactStatus, error) {
	return schema.ArtifactStatus{Backend: "memory", Connected: true, TotalArtifacts: len(s.records)}, nil
}

func (s *memBlobStore) Close() error { return nil }

func (s *memBlobStore) seed(base string, facts, risk []byte) {
	s.records[schema.FactsArtifactName(base)] = schema.ArtifactRecord{Name: schema.FactsArtifactName(base), Content: facts}
	s.records[schema.RiskArtifactName(base)] = schema.ArtifactRecord{Name: schema.RiskArtifactName(base), Content: risk}
}

// fakeComments is an in-memory pull request conversation.
type fakeComments struct {
	mu        sync.Mutex
	nextID    int64
	comments  []schema.IssueComment
	listErr   error
	createErr error
	updates   int
	deletes   int
}

func (f *fakeComments) ListComments(context.Context, schema.RepoRef, int) ([]schema.IssueComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]schema.IssueComment(nil), f.comments...), nil
}

func (f *fakeComments) CreateComment(_ context.Context, _ schema.RepoRef, _ int, body string) (schema.IssueComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return schema.IssueComment{}, f.createErr
	}
	f.nextID++
	c := schema.IssueComment{ID: f.nextID, Body: body, Author: "riskgate"}
	f.comments = append(f.comments, c)
	return c, nil
}

func (f *fakeComments) UpdateComment(_ context.Context, _ schema.RepoRef, id int64, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.comments {
		if f.comments[i].ID == id {
			f.comments[i].Body = body
			f.updates++
			return nil
		}
	}
	return errors.New("comment not found")
}

func (f *fakeComments) DeleteComment(_ context.Context, _ schema.RepoRef, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.comments {
		if f.comments[i].ID == id {
			f.comments = append(f.comments[:i], f.comments[i+1:]...)
			f.deletes++
			return nil
		}
	}
	return errors.New("comment not found")
}

func (f *fakeComments) marked() []schema.IssueComment {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []schema.IssueComment
	for _, c := range f.comments {
		if strings.HasPrefix(c.Body, schema.ReportMarker) {
			out = append(out, c)
		}
	}
	return out
}

type fakeSummary struct {
	parts []string
	err   error
}

func (f *fakeSummary) AppendSummary(markdown string) error {
	if f.err != nil {
		return f.err
	}
	f.parts = append(f.parts, markdown)
	return nil
}

type fakeOutputs struct {
	written *schema.RunOutputs
	err     error
}

func (f *fakeOutputs) WriteOutputs(outputs *schema.RunOutputs) error {
	f.written = outputs
	return f.err
}

type fixedResolver string

func (r fixedResolver) Resolve(context.Context, string) string { return string(r) }
