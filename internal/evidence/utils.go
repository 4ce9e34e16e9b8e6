package evidence

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

func prepareFilepath(filePath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, err
	}

	if _, err := os.Stat(filePath); err == nil {
		return nil, ErrFileExists
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	return os.Create(filePath)
}

// objectKey names a stored photo as <slug(order)>/<field>-<uuid>.jpg.
func objectKey(orderID, field string) string {
	return path.Join(slug.Make(orderID), field+"-"+uuid.NewString()+".jpg")
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}
