// Package attachments turns uploaded files into inline attachments for the model call.
package attachments

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"github.com/cgtestdeepak-cmd/QA/pkg/models"
)

var (
	ErrTooLarge     = errors.New("attachment exceeds the size limit")
	ErrTooMany      = errors.New("too many attachments")
	ErrNotAnImage   = errors.New("attachment is not an image")
	ErrEmptyContent = errors.New("attachment is empty")
)

// File is an uploaded binary not yet read into memory.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// BytesFile wraps in-memory content as a File.
func BytesFile(name string, data []byte) File {
	return File{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Policy is the caller-side limit applied before anything is encoded.
type Policy struct {
	MaxBytes int64 // Per file; 0 disables the check
	MaxCount int   // 0 disables the check
}

// Check rejects uploads that break the policy.
func (p Policy) Check(files []File) error {
	if p.MaxCount > 0 && len(files) > p.MaxCount {
		return fmt.Errorf("%w: %d files, limit is %d", ErrTooMany, len(files), p.MaxCount)
	}
	for _, f := range files {
		if p.MaxBytes > 0 && f.Size > p.MaxBytes {
			return fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrTooLarge, f.Name, f.Size, p.MaxBytes)
		}
	}
	return nil
}

// Encode reads every file concurrently and detects its MIME type from content.
// The result keeps input order. The first failure cancels the rest.
func Encode(ctx context.Context, files []File) ([]models.Attachment, error) {
	out := make([]models.Attachment, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			att, err := encodeOne(ctx, f)
			if err != nil {
				return err
			}
			out[i] = att
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeOne(ctx context.Context, f File) (models.Attachment, error) {
	if err := ctx.Err(); err != nil {
		return models.Attachment{}, err
	}
	rc, err := f.Open()
	if err != nil {
		return models.Attachment{}, fmt.Errorf("failed to open attachment '%s': %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("failed to read attachment '%s': %w", f.Name, err)
	}
	if len(data) == 0 {
		return models.Attachment{}, fmt.Errorf("%w: %s", ErrEmptyContent, f.Name)
	}
	mime := mimetype.Detect(data)
	return models.Attachment{Name: f.Name, MIMEType: mime.String(), Data: data}, nil
}

// RequireImages rejects any attachment whose detected type is not an image.
func RequireImages(atts []models.Attachment) error {
	for _, a := range atts {
		if !strings.HasPrefix(a.MIMEType, "image/") {
			return fmt.Errorf("%w: %s is %s", ErrNotAnImage, a.Name, a.MIMEType)
		}
	}
	return nil
}
