package filestore

import (
	"context"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core"
)

// New returns the file storage selected by the configuration.
func New(ctx context.Context, conf core.StorageConfig) (core.FileStorage, error) {
	switch conf.Backend {
	case "", "local":
		return NewLocalStorage(conf.LocalDir, conf.PublicBaseURL)
	case "b2":
		return NewB2Storage(ctx, conf.B2AccountID, conf.B2AppKey, conf.B2Bucket)
	default:
		return nil, errors.Errorf("unknown storage backend %q", conf.Backend)
	}
}

// UniqueName returns a collision-free file name keeping the extension of original.
func UniqueName(original string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(original, `\`, "/"))))
	if len(ext) > 10 {
		ext = ""
	}
	return uuid.NewString() + ext
}
