package service

import (
	"context"
	"io"
)

// ImageHost stores an image and hands back its public URL together with the
// id the host assigned, which may differ from the requested folder/publicID.
type ImageHost interface {
	Upload(ctx context.Context, file io.Reader, folder string, publicID string) (url string, hostID string, err error)
	Delete(ctx context.Context, publicID string) error
}
