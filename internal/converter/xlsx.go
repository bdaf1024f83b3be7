package converter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bigkaa/goartstore/converter/internal/codec"
	"github.com/bigkaa/goartstore/converter/internal/domain/model"
)

const (
	xlsxMediaType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	xlsxDataSheet    = "Data"
	xlsxSummarySheet = "Converted Data"
	xlsxHeaderFill   = "E0E0E0"
)

// convertWorkbook создаёт книгу Excel с одним листом.
func convertWorkbook(_ context.Context, in Input) (*Output, error) {
	sheet := xlsxDataSheet
	var (
		rows   [][]any
		style  *codec.HeaderStyle
		widths []float64
	)

	_, isDelimited := delimited(in)
	switch {
	case in.Source.Category == model.CategoryData:
		value, err := parseData(in)
		if err != nil {
			rows = [][]any{{"Content"}, {string(in.Source.Data)}}
			break
		}
		if objs, ok := codec.ObjectRows(value); ok {
			rows = objectCells(objs)
			style = &codec.HeaderStyle{Bold: true, Fill: xlsxHeaderFill}
			break
		}
		compact, err := json.Marshal(value)
		if err != nil {
			return nil, codecData("xlsx", err)
		}
		rows = [][]any{{"Data"}, {string(compact)}}

	case in.Source.Category == model.CategorySpreadsheet && isDelimited:
		sheets, err := sheetRows(in)
		if err != nil {
			return nil, err
		}
		rows = delimitedCells(sheets[0].Rows)
		style = &codec.HeaderStyle{Bold: true}

	default:
		sheet = xlsxSummarySheet
		rows = [][]any{
			{"Property", "Value"},
			{"File Name", baseName(in)},
			{"File Type", mediaType(in)},
			{"File Size", fmt.Sprintf("%d bytes", len(in.Source.Data))},
			{"Converted At", timestamp(in)},
		}
		if metadataValue(in) != nil {
			rows = append(rows, []any{"Metadata", metadataJSON(in, false)})
		}
		style = &codec.HeaderStyle{Bold: true}
		widths = []float64{20, 60}
	}

	data, err := codec.WriteWorkbook(sheet, rows, style, widths...)
	if err != nil {
		return nil, err
	}
	return &Output{Data: data, MediaType: xlsxMediaType, Extension: "xlsx"}, nil
}

// objectCells — заголовок из ключей первого объекта и значения ячеек.
// Вложенные объекты и массивы записываются компактным JSON.
func objectCells(objs []*codec.Object) [][]any {
	headers := codec.Keys(objs[0])
	out := make([][]any, 0, len(objs)+1)

	head := make([]any, len(headers))
	for i, h := range headers {
		head[i] = h
	}
	out = append(out, head)

	for _, obj := range objs {
		row := make([]any, len(headers))
		for i, h := range headers {
			v, _ := obj.Get(h)
			switch v.(type) {
			case *codec.Object, []any:
				row[i] = codec.CellString(v)
			default:
				row[i] = v
			}
		}
		out = append(out, row)
	}
	return out
}

// delimitedCells — строки CSV/TSV с дополненным заголовком.
func delimitedCells(rows [][]string) [][]any {
	if len(rows) == 0 {
		return nil
	}
	out := make([][]any, 0, len(rows))
	header := codec.HeaderNames(rows[0], 0)
	for _, r := range append([][]string{header}, rows[1:]...) {
		row := make([]any, len(r))
		for i, v := range r {
			row[i] = v
		}
		out = append(out, row)
	}
	return out
}
