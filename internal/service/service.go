// Package service holds the site's use cases on top of the record store and the upload
// helper. Admin checks happen before these are called.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gantzhq/gantz/internal/upload"
)

// ErrValidation marks input the caller has to fix.
var ErrValidation = errors.New("invalid input")

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Uploader places a file in blob storage and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, f upload.File) (string, error)
}
