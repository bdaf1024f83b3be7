package converter

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/bigkaa/goartstore/converter/internal/codec"
	"github.com/bigkaa/goartstore/converter/internal/domain/model"
)

var htmlPages = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="tr">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Name}}</title>
  <style>
    body { font-family: Arial, sans-serif; max-width: 800px; margin: 0 auto; padding: 20px; }
    .metadata { background: #f5f5f5; padding: 10px; margin-bottom: 20px; border-radius: 5px; white-space: pre; }
  </style>
</head>
<body>
{{- if .Metadata}}
  <div class="metadata">{{.Metadata}}</div>
{{- end}}
  {{.Markup}}
</body>
</html>
{{define "data"}}<!DOCTYPE html>
<html lang="tr">
<head>
  <meta charset="UTF-8">
  <title>Data Visualization - {{.Name}}</title>
  <style>
    body { font-family: Arial, sans-serif; margin: 20px; }
    pre { background: #f5f5f5; padding: 15px; border-radius: 5px; overflow-x: auto; }
  </style>
</head>
<body>
  <h1>Data: {{.Name}}</h1>
  <pre><code>{{.Payload}}</code></pre>
</body>
</html>
{{end}}
{{define "summary"}}<!DOCTYPE html>
<html lang="tr">
<head>
  <meta charset="UTF-8">
  <title>{{.Name}}</title>
</head>
<body>
  <h1>{{.Name}}</h1>
  <p><strong>Original Type:</strong> {{.Type}}</p>
  <p><strong>Size:</strong> {{.SizeKB}} KB</p>
  <p><strong>Converted:</strong> {{.Converted}}</p>
{{- if .Metadata}}
  <pre>{{.Metadata}}</pre>
{{- end}}
</body>
</html>
{{end}}`))

type htmlPage struct {
	Name      string
	Type      string
	SizeKB    string
	Converted string
	Metadata  string
	// Markup — разметка документа, собранная codec с экранированием текста
	Markup template.HTML
	// Payload — отформатированный JSON
	Payload string
}

// convertHTML: документ — разметка в оболочке страницы, данные — JSON
// в <pre><code>, прочее — страница со сводкой о файле.
func convertHTML(_ context.Context, in Input) (*Output, error) {
	page := htmlPage{
		Name:      baseName(in),
		Type:      mediaType(in),
		SizeKB:    fmt.Sprintf("%.2f", sizeKB(in)),
		Converted: localDate(in),
	}
	if in.IncludeMetadata {
		page.Metadata = metadataJSON(in, true)
	}

	tmpl := "document"
	switch in.Source.Category {
	case model.CategoryDocument:
		doc, err := codec.ExtractDocument(in.Source.Extension(), in.Source.MediaType, in.Source.Data)
		if err != nil {
			return nil, err
		}
		page.Markup = template.HTML(doc.HTML) //nolint:gosec // текст экранирован при сборке разметки
	case model.CategoryData:
		tmpl = "data"
		value, err := parseData(in)
		if err != nil {
			obj := codec.NewObject()
			obj.Set("content", string(in.Source.Data))
			value = obj
		}
		payload, err := codec.MarshalJSON(value)
		if err != nil {
			return nil, err
		}
		page.Payload = string(payload)
	default:
		tmpl = "summary"
	}

	var buf bytes.Buffer
	if err := htmlPages.ExecuteTemplate(&buf, tmpl, page); err != nil {
		return nil, fmt.Errorf("шаблон html: %w", err)
	}
	return &Output{Data: buf.Bytes(), MediaType: "text/html", Extension: "html"}, nil
}
