package iostore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/schema"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// runIDMetadataKey is the object metadata key holding the producing run ID.
const runIDMetadataKey = "riskgate-run-id"

// GCSBlobStore stores artifacts as objects in a Google Cloud Storage bucket.
type GCSBlobStore struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ contract.BlobStore = &GCSBlobStore{} // Compile-time check

// NewGCSBlobStore creates a bucket-backed store. With an empty credentials file the
// client uses Application Default Credentials. Extra options are passed to the client.
func NewGCSBlobStore(ctx context.Context, bucket, prefix, credentialsFile string, opts ...option.ClientOption) (*GCSBlobStore, error) {
	if bucket == "" {
		return nil, errors.New("bucket name cannot be empty")
	}
	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account key not found at path: %s. Please ensure you have the correct key and it is accessible", credentialsFile)
		}
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}
	return &GCSBlobStore{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

// objectName maps an artifact name to its object path.
func (s *GCSBlobStore) objectName(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// artifactName maps an object path back to its artifact name.
func (s *GCSBlobStore) artifactName(object string) string {
	if s.prefix == "" {
		return object
	}
	return strings.TrimPrefix(object, s.prefix+"/")
}

// Put implements the BlobStore interface.
func (s *GCSBlobStore) Put(ctx context.Context, rec schema.ArtifactRecord) error {
	if rec.Name == "" {
		return errors.New("artifact name cannot be empty")
	}
	object := s.objectName(rec.Name)
	writer := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	writer.ContentType = "application/json"
	writer.CacheControl = "no-cache, no-store, must-revalidate"
	writer.Metadata = map[string]string{runIDMetadataKey: rec.RunID}

	if _, err := writer.Write(rec.Content); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write GCS object %s: %w", object, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer for %s: %w", object, err)
	}
	return nil
}

// Get implements the BlobStore interface.
func (s *GCSBlobStore) Get(ctx context.Context, name string) (*schema.ArtifactRecord, error) {
	obj := s.client.Bucket(s.bucket).Object(s.objectName(name))

	attrs, err := obj.Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%s: %w", name, contract.ErrArtifactNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat GCS object %s: %w", name, err)
	}

	reader, err := obj.Generation(attrs.Generation).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS object %s: %w", name, err)
	}
	defer func() { _ = reader.Close() }()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object %s: %w", name, err)
	}

	return &schema.ArtifactRecord{
		Name:      name,
		RunID:     attrs.Metadata[runIDMetadataKey],
		Content:   content,
		SizeBytes: int64(len(content)),
		CreatedAt: attrs.Updated,
	}, nil
}

// List implements the BlobStore interface.
func (s *GCSBlobStore) List(ctx context.Context) ([]schema.ArtifactInfo, error) {
	query := &storage.Query{}
	if s.prefix != "" {
		query.Prefix = s.prefix + "/"
	}

	var results []schema.ArtifactInfo
	it := s.client.Bucket(s.bucket).Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list GCS objects: %w", err)
		}
		results = append(results, schema.ArtifactInfo{
			Name:      s.artifactName(attrs.Name),
			RunID:     attrs.Metadata[runIDMetadataKey],
			SizeBytes: attrs.Size,
			CreatedAt: attrs.Updated,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		}
		return results[i].Name < results[j].Name
	})
	return results, nil
}

// Delete implements the BlobStore interface.
func (s *GCSBlobStore) Delete(ctx context.Context, name string) error {
	err := s.client.Bucket(s.bucket).Object(s.objectName(name)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object %s: %w", name, err)
	}
	return nil
}

// GetStatus implements the BlobStore interface.
func (s *GCSBlobStore) GetStatus(ctx context.Context) (schema.ArtifactStatus, error) {
	status := schema.ArtifactStatus{Backend: string(schema.GCSBackend), Connected: s.client != nil}

	infos, err := s.List(ctx)
	if err != nil {
		return status, err
	}
	status.TotalArtifacts = len(infos)
	var oldest time.Time
	for _, info := range infos {
		status.TotalBytes += info.SizeBytes
		if info.CreatedAt.After(status.LastArtifactTime) {
			status.LastArtifactTime = info.CreatedAt
		}
		if oldest.IsZero() || info.CreatedAt.Before(oldest) {
			oldest = info.CreatedAt
		}
	}
	status.OldestArtifactTime = oldest
	return status, nil
}

// Close closes the storage client.
func (s *GCSBlobStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
