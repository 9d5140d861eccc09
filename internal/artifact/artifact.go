// Package artifact converts rendered video into a transport-safe string and back.
package artifact

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"slidecast/internal/domain"
	"slidecast/internal/logger"
)

// File is an artifact stored on disk.
type File struct {
	Path string
}

func (f File) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}

func (f File) Size() int64 {
	info, err := os.Stat(f.Path)
	if err != nil {
		return -1
	}
	return info.Size()
}

// Bytes is an in-memory artifact.
type Bytes []byte

func (b Bytes) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (b Bytes) Size() int64 {
	return int64(len(b))
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// Encode reads a once and returns its standard base64 encoding. Unreadable or
// empty artifacts fail with ErrEncodingFailed.
func Encode(ctx context.Context, a domain.Artifact) (string, error) {
	if a == nil {
		return "", fmt.Errorf("%w: no artifact", domain.ErrEncodingFailed)
	}

	rc, err := a.Open()
	if err != nil {
		return "", fmt.Errorf("%w: open artifact: %w", domain.ErrEncodingFailed, err)
	}
	defer rc.Close()

	var sb strings.Builder
	if size := a.Size(); size > 0 {
		sb.Grow(base64.StdEncoding.EncodedLen(int(size)))
	}

	enc := base64.NewEncoder(base64.StdEncoding, &sb)
	n, err := io.Copy(enc, ctxReader{ctx: ctx, r: rc})
	if err != nil {
		return "", fmt.Errorf("%w: read artifact: %w", domain.ErrEncodingFailed, err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrEncodingFailed, err)
	}
	if n == 0 {
		return "", fmt.Errorf("%w: artifact is empty", domain.ErrEncodingFailed)
	}

	logger.Debug().
		Str("size", humanize.IBytes(uint64(n))).
		Str("encoded", humanize.IBytes(uint64(sb.Len()))).
		Msg("artifact encoded")
	return sb.String(), nil
}

// ErrInvalidEncoding means the payload is not valid base64.
var ErrInvalidEncoding = errors.New("video payload is not valid base64")

// DecodedLen returns the exact decoded length of a padded base64 string.
func DecodedLen(s string) int64 {
	n := int64(len(s)) / 4 * 3
	if strings.HasSuffix(s, "==") {
		n -= 2
	} else if strings.HasSuffix(s, "=") {
		n--
	}
	return n
}

// Decode decodes s, refusing payloads whose decoded size exceeds limit before
// allocating. A limit of zero or less disables the check.
func Decode(s string, limit int64) ([]byte, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ";base64,"); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+len(";base64,"):]
	}
	if s == "" {
		return nil, fmt.Errorf("%w: videoBase64", domain.ErrMissingField)
	}
	if limit > 0 && DecodedLen(s) > limit {
		return nil, fmt.Errorf("%w (limit %s)", domain.ErrPayloadTooLarge, humanize.IBytes(uint64(limit)))
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}
	return data, nil
}
