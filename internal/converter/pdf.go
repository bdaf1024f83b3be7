package converter

import (
	"context"
	"strings"

	"github.com/bigkaa/goartstore/converter/internal/codec"
)

// convertPDF: текстовые источники — страница текста, PNG/JPEG — страница
// с изображением, прочие — пустая страница.
func convertPDF(_ context.Context, in Input) (*Output, error) {
	var (
		data []byte
		err  error
	)

	mt := strings.ToLower(mediaType(in))
	ext := in.Source.Extension()
	switch {
	case isTextual(in):
		var text string
		if text, err = sourceText(in); err == nil {
			data, err = codec.TextPDF(text)
		}
	case strings.Contains(mt, "png") || ext == "png",
		strings.Contains(mt, "jpeg") || strings.Contains(mt, "jpg") || ext == "jpg" || ext == "jpeg":
		data, err = codec.ImagePDF(in.Source.Data)
	default:
		data, err = codec.BlankPDF()
	}
	if err != nil {
		return nil, err
	}

	return &Output{Data: data, MediaType: "application/pdf", Extension: "pdf"}, nil
}
