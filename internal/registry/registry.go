// Package registry resolves analyzer version specs against an npm registry.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/huangsam/riskgate/internal/contract"
	"golang.org/x/mod/semver"
)

// maxBodyBytes caps the registry response read. Version manifests are small.
const maxBodyBytes = 1 << 20

// NPMResolver resolves dist-tags and ranges to a concrete version.
type NPMResolver struct {
	baseURL    string
	pkg        string
	httpClient *http.Client
}

var _ contract.VersionResolver = &NPMResolver{} // Compile-time check

// NewNPMResolver creates a resolver for pkg hosted at baseURL.
func NewNPMResolver(baseURL, pkg string, timeout time.Duration) *NPMResolver {
	if timeout <= 0 {
		timeout = contract.DefaultResolveTimeout
	}
	return &NPMResolver{
		baseURL:    strings.TrimRight(baseURL, "/"),
		pkg:        pkg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type versionManifest struct {
	Version string `json:"version"`
}

// IsExactVersion reports whether spec already names a single version.
// Shorthand like "1" or "1.2" is a range for npm, so it does not count.
func IsExactVersion(spec string) bool {
	v := spec
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return false
	}
	withoutBuild, _, _ := strings.Cut(v, "+")
	return semver.Canonical(v) == withoutBuild
}

// Resolve returns the concrete version for spec. Any failure returns spec
// exactly as given. An empty spec is looked up as the default dist-tag.
func (r *NPMResolver) Resolve(ctx context.Context, spec string) string {
	if IsExactVersion(spec) {
		return spec
	}
	query := spec
	if query == "" {
		query = contract.DefaultAnalyzerVersion
	}

	version, err := r.lookup(ctx, query)
	if err != nil {
		contract.LogDebug("Analyzer version lookup failed, using spec as-is", "spec", spec, "error", err)
		return spec
	}
	contract.LogDebug("Resolved analyzer version", "spec", spec, "version", version)
	return version
}

func (r *NPMResolver) lookup(ctx context.Context, spec string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", r.baseURL, url.PathEscape(r.pkg), url.PathEscape(spec))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("registry request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	var manifest versionManifest
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&manifest); err != nil {
		return "", fmt.Errorf("malformed registry response: %w", err)
	}
	version := strings.TrimSpace(manifest.Version)
	if version == "" {
		return "", fmt.Errorf("registry response has no version")
	}
	return version, nil
}
