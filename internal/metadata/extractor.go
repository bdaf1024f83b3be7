// Пакет metadata — извлечение метаданных исходного файла.
//
// Базовые сведения (имя, MIME-тип, размер, время конвертации) возвращаются
// всегда. Для изображений дополнительно читаются размеры, формат,
// наличие альфа-канала и плотность. Ошибка чтения изображения не прерывает
// конвертацию: она логируется, блок dimensions опускается.
package metadata

import (
	"log/slog"
	"strings"
	"time"

	"github.com/bigkaa/goartstore/converter/internal/codec"
	"github.com/bigkaa/goartstore/converter/internal/domain/model"
)

// Extractor — извлечение метаданных. Не имеет состояния.
type Extractor struct {
	logger *slog.Logger
}

// New создаёт Extractor.
func New(logger *slog.Logger) *Extractor {
	return &Extractor{
		logger: logger.With(slog.String("component", "metadata")),
	}
}

// Extract возвращает метаданные файла на момент at.
func (e *Extractor) Extract(src model.SourceFile, at time.Time) map[string]any {
	meta := map[string]any{
		"fileName":         src.BaseName(),
		"originalMimeType": src.MediaType,
		"size":             src.Size(),
		"convertedAt":      at.UTC().Format(time.RFC3339),
	}

	if !strings.HasPrefix(strings.ToLower(src.MediaType), "image/") {
		return meta
	}

	info, err := codec.ProbeImage(src.Data)
	if err != nil {
		e.logger.Warn("Не удалось прочитать параметры изображения",
			slog.String("file_name", src.Name),
			slog.String("media_type", src.MediaType),
			slog.String("error", err.Error()),
		)
		return meta
	}

	dims := map[string]any{
		"width":    info.Width,
		"height":   info.Height,
		"format":   info.Format,
		"hasAlpha": info.HasAlpha,
	}
	if info.Density > 0 {
		dims["density"] = info.Density
	}
	meta["dimensions"] = dims

	return meta
}
