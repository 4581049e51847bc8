package persistent

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgtestdeepak-cmd/QA/pkg/models"
)

func TestEntriesEncodeAsArray(t *testing.T) {
	raw, err := encodeEntries(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))

	raw, err = encodeEntries([]models.HistoryEntry{{ID: 7, TestCases: []models.TestCase{{ID: "TC_001"}}}})
	require.NoError(t, err)

	entries, err := decodeEntries(raw)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(7), entries[0].ID)
	assert.Equal(t, "TC_001", entries[0].TestCases[0].ID)
}

func TestDecodeEntriesEmptyAndNull(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte("null")} {
		entries, err := decodeEntries(raw)
		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	}
	_, err := decodeEntries([]byte("{broken"))
	assert.Error(t, err)
}

func TestArtifactURL(t *testing.T) {
	plain, _ := url.Parse("http://minio:9000")
	assert.Equal(t, "http://minio:9000/tcgen/alice/42/a.png", artifactURL(plain, "tcgen", "alice/42/a.png"))

	secure, _ := url.Parse("https://s3.example.com")
	assert.Equal(t, "https://s3.example.com/tcgen/x.png", artifactURL(secure, "tcgen", "x.png"))
}
