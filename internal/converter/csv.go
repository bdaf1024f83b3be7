package converter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/bigkaa/goartstore/converter/internal/codec"
	"github.com/bigkaa/goartstore/converter/internal/domain/model"
)

// convertCSV записывает CSV, заключая каждое поле в кавычки.
// CSV-источник возвращается без изменений.
func convertCSV(_ context.Context, in Input) (*Output, error) {
	var buf bytes.Buffer

	switch in.Source.Category {
	case model.CategorySpreadsheet:
		comma, ok := delimited(in)
		switch {
		case ok && comma == ',':
			buf.Write(in.Source.Data)
		case ok:
			rows, err := codec.ReadDelimited(in.Source.Data, comma)
			if err != nil {
				return nil, err
			}
			codec.WriteQuotedCSV(&buf, rows)
		default:
			sheets, err := codec.ReadWorkbook(in.Source.Data)
			if err != nil {
				return nil, err
			}
			writeSheetsCSV(&buf, sheets)
		}

	case model.CategoryData:
		value, err := parseData(in)
		if err != nil {
			codec.WriteQuotedCSV(&buf, [][]string{{"content"}, {string(in.Source.Data)}})
			break
		}
		if rows, ok := codec.ObjectRows(value); ok {
			codec.WriteQuotedCSV(&buf, objectTable(rows))
			break
		}
		compact, err := json.Marshal(value)
		if err != nil {
			return nil, codecData("csv", err)
		}
		codec.WriteQuotedCSV(&buf, [][]string{{"data"}, {string(compact)}})

	default:
		codec.WriteQuotedCSV(&buf, [][]string{
			{"filename", "type", "size", "converted"},
			{baseName(in), mediaType(in), strconv.Itoa(len(in.Source.Data)), timestamp(in)},
		})
	}

	return &Output{Data: buf.Bytes(), MediaType: "text/csv", Extension: "csv"}, nil
}

// writeSheetsCSV выводит листы книги; при нескольких листах каждый
// предваряется строкой ### имя ###, листы разделены пустой строкой.
func writeSheetsCSV(buf *bytes.Buffer, sheets []codec.Sheet) {
	for i, sh := range sheets {
		if i > 0 {
			buf.WriteByte('\n')
		}
		if len(sheets) > 1 {
			fmt.Fprintf(buf, "### %s ###\n", sh.Name)
		}
		codec.WriteQuotedCSV(buf, sh.Rows)
	}
}

// objectTable — строка заголовка из ключей первого объекта и строки значений.
func objectTable(rows []*codec.Object) [][]string {
	headers := codec.Keys(rows[0])
	table := make([][]string, 0, len(rows)+1)
	table = append(table, headers)
	for _, obj := range rows {
		line := make([]string, len(headers))
		for i, h := range headers {
			v, _ := obj.Get(h)
			line[i] = codec.CellString(v)
		}
		table = append(table, line)
	}
	return table
}

func codecData(op string, err error) error {
	return &codec.Error{Subsystem: codec.SubsystemData, Op: op, Err: err}
}
