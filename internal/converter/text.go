package converter

import (
	"context"
	"fmt"
	"strings"

	"github.com/bigkaa/goartstore/converter/internal/codec"
	"github.com/bigkaa/goartstore/converter/internal/domain/model"
)

// convertText: документ — извлечённый текст, таблица — CSV как есть или
// листы книги с разделителем-табуляцией, данные — отформатированный JSON,
// код — исходный текст, прочее — сводка о файле.
func convertText(_ context.Context, in Input) (*Output, error) {
	var data []byte

	switch in.Source.Category {
	case model.CategoryDocument:
		text, err := sourceText(in)
		if err != nil {
			return nil, err
		}
		data = []byte(text)
	case model.CategorySpreadsheet:
		if _, ok := delimited(in); ok {
			data = in.Source.Data
			break
		}
		sheets, err := codec.ReadWorkbook(in.Source.Data)
		if err != nil {
			return nil, err
		}
		data = []byte(flattenSheets(sheets))
	case model.CategoryData:
		data = in.Source.Data
		if v, err := codec.ParseJSON(in.Source.Data); err == nil {
			if pretty, err := codec.MarshalJSON(v); err == nil {
				data = pretty
			}
		}
	case model.CategoryCode:
		data = in.Source.Data
	default:
		data = []byte(textSummary(in))
	}

	return &Output{Data: data, MediaType: "text/plain", Extension: "txt"}, nil
}

// flattenSheets выводит каждый лист под заголовком === имя ===,
// ячейки строки разделены табуляцией, после листа пустая строка.
func flattenSheets(sheets []codec.Sheet) string {
	var b strings.Builder
	for _, sh := range sheets {
		fmt.Fprintf(&b, "=== %s ===\n", sh.Name)
		for _, row := range sh.Rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func textSummary(in Input) string {
	s := fmt.Sprintf("File: %s\nType: %s\nSize: %d bytes\nConverted: %s\n\n",
		baseName(in), mediaType(in), len(in.Source.Data), timestamp(in))
	if in.IncludeMetadata {
		s += metadataJSON(in, true)
	}
	return s
}
