package layout

import (
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
)

// DecodeImage sniffs data and wraps it for embedding. Only PNG and JPEG
// are supported by the exporter; anything else reports false.
func DecodeImage(data []byte) (*Image, bool) {
	kind, err := filetype.Match(data)
	if err != nil {
		return nil, false
	}
	switch kind {
	case matchers.TypePng:
		return &Image{Type: "PNG", Data: data}, true
	case matchers.TypeJpeg:
		return &Image{Type: "JPG", Data: data}, true
	}
	return nil, false
}
