// tabular.go — табличные данные: CSV/TSV и книги Excel (excelize).
package codec

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet — лист книги: имя и строки ячеек (строковые значения).
type Sheet struct {
	Name string
	Rows [][]string
}

// HeaderStyle — оформление строки заголовка при записи книги.
type HeaderStyle struct {
	Bold bool
	// Fill — цвет заливки RGB без '#', пусто — без заливки
	Fill string
}

// DelimiterFor возвращает разделитель для табличного текста по расширению.
// ok = false — источник не является CSV/TSV.
func DelimiterFor(ext string) (comma rune, ok bool) {
	switch ext {
	case "csv":
		return ',', true
	case "tsv":
		return '\t', true
	}
	return 0, false
}

// ReadDelimited разбирает CSV/TSV. Строки могут иметь разное число полей.
func ReadDelimited(data []byte, comma rune) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, wrap(SubsystemSpreadsheet, "csv", err)
	}
	return rows, nil
}

// RowsToObjects превращает строки с заголовком в первой строке в объекты.
// Пустой или отсутствующий заголовок заменяется на column_N (N с 1).
func RowsToObjects(rows [][]string) []*Object {
	if len(rows) == 0 {
		return []*Object{}
	}
	headers := HeaderNames(rows[0], maxWidth(rows))

	out := make([]*Object, 0, len(rows)-1)
	for _, row := range rows[1:] {
		obj := NewObject()
		for i, h := range headers {
			if i < len(row) {
				obj.Set(h, row[i])
			} else {
				obj.Set(h, "")
			}
		}
		out = append(out, obj)
	}
	return out
}

// HeaderNames дополняет заголовки до width, заменяя пустые на column_N.
func HeaderNames(header []string, width int) []string {
	if width < len(header) {
		width = len(header)
	}
	names := make([]string, width)
	for i := range names {
		if i < len(header) && strings.TrimSpace(header[i]) != "" {
			names[i] = header[i]
		} else {
			names[i] = "column_" + strconv.Itoa(i+1)
		}
	}
	return names
}

func maxWidth(rows [][]string) int {
	w := 0
	for _, r := range rows {
		w = max(w, len(r))
	}
	return w
}

// QuoteCSV заключает поле в двойные кавычки, удваивая внутренние кавычки.
func QuoteCSV(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// WriteQuotedCSV записывает строки, заключая каждое поле в кавычки.
func WriteQuotedCSV(buf *bytes.Buffer, rows [][]string) {
	for _, row := range rows {
		for i, f := range row {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(QuoteCSV(f))
		}
		buf.WriteByte('\n')
	}
}

// ReadWorkbook открывает книгу xlsx и возвращает все листы по порядку.
func ReadWorkbook(data []byte) ([]Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, wrap(SubsystemSpreadsheet, "open workbook", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	sheets := make([]Sheet, 0, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, wrap(SubsystemSpreadsheet, "read sheet "+name, err)
		}
		sheets = append(sheets, Sheet{Name: name, Rows: rows})
	}
	return sheets, nil
}

// WriteWorkbook создаёт книгу с одним листом. Первая строка оформляется
// стилем style, если он задан. widths — ширина колонок A, B, ... (0 — по умолчанию).
func WriteWorkbook(sheetName string, rows [][]any, style *HeaderStyle, widths ...float64) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, wrap(SubsystemSpreadsheet, "rename sheet", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, wrap(SubsystemSpreadsheet, "cell name", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, wrap(SubsystemSpreadsheet, fmt.Sprintf("write row %d", i+1), err)
		}
	}

	if style != nil && len(rows) > 0 {
		st := &excelize.Style{Font: &excelize.Font{Bold: style.Bold}}
		if style.Fill != "" {
			st.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{style.Fill}}
		}
		id, err := f.NewStyle(st)
		if err != nil {
			return nil, wrap(SubsystemSpreadsheet, "header style", err)
		}
		if err := f.SetRowStyle(sheetName, 1, 1, id); err != nil {
			return nil, wrap(SubsystemSpreadsheet, "header style", err)
		}
	}

	for i, w := range widths {
		if w <= 0 {
			continue
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, wrap(SubsystemSpreadsheet, "column name", err)
		}
		if err := f.SetColWidth(sheetName, col, col, w); err != nil {
			return nil, wrap(SubsystemSpreadsheet, "column width", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, wrap(SubsystemSpreadsheet, "write workbook", err)
	}
	return buf.Bytes(), nil
}
