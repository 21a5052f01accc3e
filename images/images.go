// Package images decodes the photos attached to a memory card.
//
// Photos arrive as data URIs produced by the upload collaborator. Decoding
// never touches the network, so a capture cannot be tainted by a cross-origin
// resource.
package images

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"net/url"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// ErrNotDataURI is returned for sources that are not data URIs.
var ErrNotDataURI = errors.New("source is not a data URI")

// Image represents a photo resource.
type Image struct {
	Name     string // Identifier for the image
	Data     []byte // Raw encoded image data
	Hash     string // SHA256 hash of image data for deduplication
	MIMEType string
}

// ParseDataURI extracts the payload of a data URI.
func ParseDataURI(name, uri string) (*Image, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, ErrNotDataURI
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URI for %s: missing payload separator", name)
	}

	mediaType, isBase64 := strings.CutSuffix(header, ";base64")
	var data []byte
	if isBase64 {
		var err error
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// some encoders drop the padding
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
			if err != nil {
				return nil, fmt.Errorf("failed to decode base64 payload of %s: %w", name, err)
			}
		}
	} else {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to unescape payload of %s: %w", name, err)
		}
		data = []byte(s)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data for %s", name)
	}

	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	sum := sha256.Sum256(data)
	return &Image{
		Name:     name,
		Data:     data,
		Hash:     hex.EncodeToString(sum[:]),
		MIMEType: mediaType,
	}, nil
}

// Decode decodes the image data. The format is sniffed from the data, not
// taken from the declared media type.
func (img *Image) Decode() (image.Image, string, error) {
	m, format, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image %s: %w", img.Name, err)
	}
	return m, format, nil
}

// DecodeDataURI parses and decodes a data URI in one step.
func DecodeDataURI(ctx context.Context, name, uri string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := ParseDataURI(name, uri)
	if err != nil {
		return nil, err
	}
	m, _, err := img.Decode()
	if err != nil {
		return nil, err
	}
	return m, ctx.Err()
}

// EncodeDataURI returns a base64 data URI for data with the given media type.
func EncodeDataURI(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
