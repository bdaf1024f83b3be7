package converter

import (
	"context"

	"github.com/bigkaa/goartstore/converter/internal/codec"
)

// imageTargets — MIME-тип и расширение растровых форматов.
var imageTargets = map[string]struct {
	mediaType string
	extension string
}{
	"png":  {"image/png", "png"},
	"jpg":  {"image/jpeg", "jpg"},
	"jpeg": {"image/jpeg", "jpg"},
	"webp": {"image/webp", "webp"},
	"gif":  {"image/gif", "gif"},
	"bmp":  {"image/bmp", "bmp"},
	"tiff": {"image/tiff", "tiff"},
	"ico":  {"image/x-icon", "ico"},
}

// imageStrategy перекодирует растровое изображение в format.
type imageStrategy struct {
	format string
}

func (s imageStrategy) Convert(_ context.Context, in Input) (*Output, error) {
	img, _, err := codec.DecodeImage(in.Source.Data)
	if err != nil {
		return nil, err
	}
	data, err := codec.EncodeImage(img, s.format, in.Quality)
	if err != nil {
		return nil, err
	}
	t := imageTargets[s.format]
	return &Output{Data: data, MediaType: t.mediaType, Extension: t.extension}, nil
}
