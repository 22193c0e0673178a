package httpapi

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fieldops-platform/internal/mutate"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// saveUploads persists every multipart file under the given form field into
// the upload directory. Stored names are random; the client filename only
// contributes its extension.
func (h Handlers) saveUploads(c *gin.Context, field string) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("%w: multipart form: %v", mutate.ErrValidation, err)
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files under field %q", mutate.ErrValidation, field)
	}

	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f.Filename))
		name := uuid.NewString() + ext
		dst := filepath.Join(h.UploadDir, name)
		if err := c.SaveUploadedFile(f, dst); err != nil {
			return nil, fmt.Errorf("save upload: %w", err)
		}
		paths = append(paths, dst)
	}
	return paths, nil
}
