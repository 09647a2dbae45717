package phenologystore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeEndpoint(t *testing.T) {
	require.Equal(t, "minio.local:9000", sanitizeEndpoint("http://minio.local:9000/"))
	require.Equal(t, "account.r2.cloudflarestorage.com", sanitizeEndpoint(" https://account.r2.cloudflarestorage.com/bucket "))
	require.Equal(t, "", sanitizeEndpoint("  "))
}

func TestObjectKeyIsStableAndPathSafe(t *testing.T) {
	store := &ObjectStore{prefix: "phenology"}
	key := `taxonKey=1["gadmGid=USA.46_1"]`

	first := store.objectKey(key)
	require.Equal(t, first, store.objectKey(key))
	require.NotEqual(t, first, store.objectKey("taxonKey=1"))
	require.True(t, strings.HasPrefix(first, "phenology/"))
	require.True(t, strings.HasSuffix(first, ".json"))
	require.NotContains(t, strings.TrimPrefix(first, "phenology/"), "/")
}
