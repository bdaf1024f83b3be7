package converter

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bigkaa/goartstore/converter/internal/codec"
	"github.com/bigkaa/goartstore/converter/internal/domain/model"
)

// errNotStructured — источник данных не разбирается как структура (xml).
var errNotStructured = errors.New("источник не разбирается как структурированные данные")

func baseName(in Input) string {
	return in.Source.BaseName()
}

func mediaType(in Input) string {
	return in.Source.MediaType
}

func timestamp(in Input) string {
	return in.Now.UTC().Format(time.RFC3339)
}

// localDate — дата в формате dd.MM.yyyy HH:mm:ss для HTML-страницы.
func localDate(in Input) string {
	return in.Now.Format("02.01.2006 15:04:05")
}

func sizeKB(in Input) float64 {
	return float64(len(in.Source.Data)) / 1024
}

// isTextual — источник содержит читаемый текст: документ, код или text/*.
func isTextual(in Input) bool {
	switch in.Source.Category {
	case model.CategoryDocument, model.CategoryCode:
		return true
	}
	return strings.Contains(in.Source.MediaType, "text")
}

// delimited — разделитель табличного текста, ok = false для книг Excel.
func delimited(in Input) (rune, bool) {
	return codec.DelimiterFor(in.Source.Extension())
}

// sourceText возвращает текст источника. Документы проходят через
// извлечение текста, остальные источники читаются как UTF-8.
func sourceText(in Input) (string, error) {
	if in.Source.Category == model.CategoryDocument {
		doc, err := codec.ExtractDocument(in.Source.Extension(), in.Source.MediaType, in.Source.Data)
		if err != nil {
			return "", err
		}
		return doc.Text, nil
	}
	return string(in.Source.Data), nil
}

// parseData разбирает источник категории data: json как JSON,
// yaml/yml как YAML. XML не разбирается.
func parseData(in Input) (any, error) {
	ext := in.Source.Extension()
	if ext == "xml" {
		return nil, errNotStructured
	}
	return codec.ParseData(ext, in.Source.Data)
}

// sheetRows возвращает табличные листы источника: один безымянный лист
// для CSV/TSV или все листы книги.
func sheetRows(in Input) ([]codec.Sheet, error) {
	if comma, ok := delimited(in); ok {
		rows, err := codec.ReadDelimited(in.Source.Data, comma)
		if err != nil {
			return nil, err
		}
		return []codec.Sheet{{Rows: rows}}, nil
	}
	return codec.ReadWorkbook(in.Source.Data)
}

// metadataValue — блок metadata для структурированных ответов (nil, если не запрошен).
func metadataValue(in Input) any {
	if !in.IncludeMetadata || in.Metadata == nil {
		return nil
	}
	return in.Metadata
}

func metadataJSON(in Input, indent bool) string {
	var (
		b   []byte
		err error
	)
	if indent {
		b, err = json.MarshalIndent(metadataValue(in), "", "  ")
	} else {
		b, err = json.Marshal(metadataValue(in))
	}
	if err != nil {
		return "null"
	}
	return string(b)
}
