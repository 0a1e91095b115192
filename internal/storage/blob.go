package storage

import (
	"context"
	"errors"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageSize is the largest accepted product image (2 MiB).
const MaxImageSize = 2 << 20

// imageTypes maps accepted image MIME types to the stored file extension.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

var ErrInvalidKey = errors.New("storage: invalid key")

// Upload is a file received from a client.
type Upload struct {
	Filename string
	Data     []byte
}

// Size returns the payload length in bytes.
func (u *Upload) Size() int {
	return len(u.Data)
}

// Asset identifies a stored blob. Key addresses it inside the store and URL
// is what clients load; the two are produced together and never derived
// from one another.
type Asset struct {
	Key string
	URL string
}

// BlobStore persists binary assets.
type BlobStore interface {
	Put(ctx context.Context, namespace string, upload *Upload) (Asset, error)
	// Delete removes the asset at key. A key that is already gone is not an error.
	Delete(ctx context.Context, key string) error
}

// DetectImage sniffs data and returns its MIME type and file extension when
// it is one of the accepted raster formats.
func DetectImage(data []byte) (mime string, ext string, ok bool) {
	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		if e, found := imageTypes[m.String()]; found {
			return m.String(), e, true
		}
	}
	return mt.String(), "", false
}
