package attachments

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	jpegHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
)

func TestEncodeKeepsOrderAndDetectsType(t *testing.T) {
	files := []File{
		BytesFile("first.png", pngHeader),
		BytesFile("second.jpg", jpegHeader),
		BytesFile("notes.txt", []byte("plain notes")),
	}
	atts, err := Encode(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, atts, 3)

	assert.Equal(t, "first.png", atts[0].Name)
	assert.Equal(t, "image/png", atts[0].MIMEType)
	assert.Equal(t, pngHeader, atts[0].Data)
	assert.Equal(t, "image/jpeg", atts[1].MIMEType)
	assert.Contains(t, atts[2].MIMEType, "text/plain")

	assert.NoError(t, RequireImages(atts[:2]))
	assert.ErrorIs(t, RequireImages(atts), ErrNotAnImage)
}

func TestEncodeFailsOnOpenError(t *testing.T) {
	boom := errors.New("disk gone")
	files := []File{
		BytesFile("ok.png", pngHeader),
		{Name: "bad.png", Open: func() (io.ReadCloser, error) { return nil, boom }},
	}
	atts, err := Encode(context.Background(), files)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, atts)
}

func TestEncodeRejectsEmptyFile(t *testing.T) {
	_, err := Encode(context.Background(), []File{BytesFile("empty.png", nil)})
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestEncodeNoFiles(t *testing.T) {
	atts, err := Encode(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, atts)
}

func TestPolicyCheck(t *testing.T) {
	p := Policy{MaxBytes: 10, MaxCount: 2}
	assert.NoError(t, p.Check([]File{{Name: "a", Size: 10}}))
	assert.ErrorIs(t, p.Check([]File{{Name: "a", Size: 11}}), ErrTooLarge)
	assert.ErrorIs(t, p.Check([]File{{Name: "a"}, {Name: "b"}, {Name: "c"}}), ErrTooMany)
	assert.NoError(t, Policy{}.Check([]File{{Name: "huge", Size: 1 << 40}}))
}
