package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlainText(t *testing.T) {
	text, err := DocumentExtractor{}.Extract(context.Background(), "prd.md", []byte("# Login\r\n\r\n\r\n\r\nUsers   can\tlog in.  \n"))
	require.NoError(t, err)
	assert.Equal(t, "# Login\n\nUsers can log in.", text)
}

func TestExtractRejectsEmpty(t *testing.T) {
	_, err := DocumentExtractor{}.Extract(context.Background(), "prd.txt", nil)
	assert.Error(t, err)
}

func TestExtractRejectsBinary(t *testing.T) {
	_, err := DocumentExtractor{}.Extract(context.Background(), "blob.bin", []byte{0x00, 0xff, 0x10, 0x00})
	assert.Error(t, err)

	_, err = DocumentExtractor{}.Extract(context.Background(), "fake.pdf", []byte{0x00, 0x01, 0x02})
	assert.ErrorContains(t, err, "missing the %PDF header")
}

func TestExtractCorruptPDF(t *testing.T) {
	_, err := DocumentExtractor{}.Extract(context.Background(), "broken.pdf", []byte("%PDF-1.7\nnot really a pdf"))
	assert.Error(t, err)
}

func TestExtractHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := DocumentExtractor{}.Extract(ctx, "prd.txt", []byte("text"))
	assert.ErrorIs(t, err, context.Canceled)
}
