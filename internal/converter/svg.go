package converter

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"text/template"
)

var svgCard = template.Must(template.New("svg").Funcs(template.FuncMap{
	"esc": html.EscapeString,
}).Parse(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="800" height="600" viewBox="0 0 800 600">
  <defs>
    <linearGradient id="bg" x1="0%" y1="0%" x2="100%" y2="100%">
      <stop offset="0%" style="stop-color:#f0f9ff;stop-opacity:1" />
      <stop offset="100%" style="stop-color:#e0f2fe;stop-opacity:1" />
    </linearGradient>
  </defs>

  <rect width="800" height="600" fill="url(#bg)" stroke="#0284c7" stroke-width="2"/>

  <text x="400" y="100" text-anchor="middle" font-family="Arial, sans-serif" font-size="24" font-weight="bold" fill="#0c4a6e">{{esc .Name}}</text>
  <text x="400" y="140" text-anchor="middle" font-family="Arial, sans-serif" font-size="16" fill="#075985">Original Type: {{esc .Type}}</text>
  <text x="400" y="170" text-anchor="middle" font-family="Arial, sans-serif" font-size="16" fill="#075985">Size: {{.SizeKB}} KB</text>
  <text x="400" y="200" text-anchor="middle" font-family="Arial, sans-serif" font-size="16" fill="#075985">Converted: {{.Date}}</text>

  <circle cx="400" cy="350" r="80" fill="#0ea5e9" fill-opacity="0.2" stroke="#0284c7" stroke-width="3"/>

  <text x="400" y="500" text-anchor="middle" font-family="Arial, sans-serif" font-size="12" fill="#64748b">Generated by Converter</text>
</svg>
`))

// convertSVG рисует карточку 800×600 с описанием исходного файла.
func convertSVG(_ context.Context, in Input) (*Output, error) {
	var buf bytes.Buffer
	err := svgCard.Execute(&buf, struct {
		Name, Type, SizeKB, Date string
	}{
		Name:   baseName(in),
		Type:   mediaType(in),
		SizeKB: fmt.Sprintf("%.2f", sizeKB(in)),
		Date:   in.Now.Format("02.01.2006"),
	})
	if err != nil {
		return nil, fmt.Errorf("шаблон svg: %w", err)
	}
	return &Output{Data: buf.Bytes(), MediaType: "image/svg+xml", Extension: "svg"}, nil
}
