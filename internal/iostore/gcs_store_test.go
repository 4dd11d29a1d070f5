package iostore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestNewGCSBlobStore_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewGCSBlobStore(ctx, "", GCSPrefix, "")
	assert.ErrorContains(t, err, "bucket name cannot be empty")

	_, err = NewGCSBlobStore(ctx, "bucket", GCSPrefix, filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "service account key not found")
}

func TestGCSBlobStore_ObjectNames(t *testing.T) {
	store, err := NewGCSBlobStore(context.Background(), "bucket", "/riskgate/", "", option.WithoutAuthentication())
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.Equal(t, "riskgate/main-facts", store.objectName("main-facts"))
	assert.Equal(t, "main-facts", store.artifactName("riskgate/main-facts"))

	bare := &GCSBlobStore{}
	assert.Equal(t, "main-facts", bare.objectName("main-facts"))
	assert.Equal(t, "main-facts", bare.artifactName("main-facts"))
}
