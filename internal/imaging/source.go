package imaging

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrEmptySource is returned for a source with neither a path nor data.
var ErrEmptySource = errors.New("image source is empty")

// SourceKind tags the variant of a Source.
type SourceKind string

const (
	SourcePath  SourceKind = "path"
	SourceBytes SourceKind = "bytes"
)

// Source is where a page image comes from: a file on disk or an encoded
// image already in memory.
type Source struct {
	Kind SourceKind
	Path string
	Data []byte
}

// FromPath is a source read from a file.
func FromPath(path string) Source { return Source{Kind: SourcePath, Path: path} }

// FromBytes is a source held in memory.
func FromBytes(data []byte) Source { return Source{Kind: SourceBytes, Data: data} }

// FromBase64 decodes standard base64, as carried in tool arguments.
func FromBase64(encoded string) (Source, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Source{}, fmt.Errorf("decode base64 image: %w", err)
	}
	return FromBytes(data), nil
}

// Key identifies the source in a cache: the path, or a digest of the data.
func (s Source) Key() string {
	if s.Kind == SourceBytes {
		sum := sha256.Sum256(s.Data)
		return "sha256:" + hex.EncodeToString(sum[:])
	}
	return "path:" + s.Path
}

func (s Source) String() string {
	if s.Kind == SourceBytes {
		return fmt.Sprintf("<%d bytes>", len(s.Data))
	}
	return s.Path
}

func (s Source) open() (io.ReadCloser, int64, error) {
	switch s.Kind {
	case SourcePath:
		if s.Path == "" {
			return nil, 0, ErrEmptySource
		}
		f, err := os.Open(s.Path)
		if err != nil {
			return nil, 0, fmt.Errorf("open image: %w", err)
		}
		st, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, 0, fmt.Errorf("stat image: %w", err)
		}
		return f, st.Size(), nil
	case SourceBytes:
		if len(s.Data) == 0 {
			return nil, 0, ErrEmptySource
		}
		return io.NopCloser(bytes.NewReader(s.Data)), int64(len(s.Data)), nil
	default:
		return nil, 0, fmt.Errorf("%w: unknown kind %q", ErrEmptySource, s.Kind)
	}
}
