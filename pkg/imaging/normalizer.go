// Package imaging normalizes uploaded images: whatever format comes in,
// what gets stored is a re-encoded JPEG.
package imaging

import (
	"bytes"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// ContentType is the MIME type of every normalized image.
const ContentType = "image/jpeg"

const defaultQuality = 85

type JPEGNormalizer struct {
	Quality int
}

func NewJPEGNormalizer() *JPEGNormalizer {
	return &JPEGNormalizer{Quality: defaultQuality}
}

func (n *JPEGNormalizer) Normalize(raw []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}

	quality := n.Quality
	if quality <= 0 || quality > 100 {
		quality = defaultQuality
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, errors.Wrap(err, "encode image")
	}
	return buf.Bytes(), nil
}
