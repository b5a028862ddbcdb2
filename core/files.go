package core

import (
	"context"
	"io"
)

// FileStorage stores uploaded files and returns their public URL.
type FileStorage interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}
