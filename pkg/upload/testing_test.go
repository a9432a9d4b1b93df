package upload

import (
	"io"
	"strings"

	"github.com/morezero/jaxon/pkg/request"
)

func part(field, filename, contentType, content string) *request.File {
	return request.NewFile(field, filename, contentType, int64(len(content)), func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(content)), nil
	})
}
