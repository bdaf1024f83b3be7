// document.go — извлечение текста и упрощённой HTML-разметки из документов.
//
// Поддерживаемые источники:
//   - docx (word/document.xml) и odt (content.xml) — заголовки, абзацы,
//     полужирный и курсив
//   - md — разметка через goldmark, текст — исходник
//   - html — обход DOM через x/net/html
//   - прочий текст (txt, tex, text/*) — абзацы по пустым строкам
//
// Разметка ограничена набором h1, h2, p, strong, em.
package codec

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	xhtml "golang.org/x/net/html"
)

// maxDocumentPart — ограничение на размер распакованной XML-части документа.
const maxDocumentPart = 64 << 20

// Document — результат извлечения: простой текст и упрощённая разметка.
type Document struct {
	Text string
	HTML string
}

// paragraph — абзац документа с уровнем заголовка (0 — обычный абзац).
type paragraph struct {
	heading int
	runs    []textRun
}

type textRun struct {
	text   string
	bold   bool
	italic bool
}

// ExtractDocument извлекает текст и разметку по расширению и MIME-типу.
func ExtractDocument(ext, mediaType string, data []byte) (*Document, error) {
	switch {
	case ext == "docx" || strings.Contains(mediaType, "wordprocessingml"):
		paras, err := readDOCX(data)
		if err != nil {
			return nil, wrap(SubsystemDocument, "docx", err)
		}
		return renderParagraphs(paras), nil
	case ext == "odt" || strings.Contains(mediaType, "opendocument.text"):
		paras, err := readODT(data)
		if err != nil {
			return nil, wrap(SubsystemDocument, "odt", err)
		}
		return renderParagraphs(paras), nil
	case ext == "md" || ext == "markdown" || mediaType == "text/markdown":
		return markdownDocument(data)
	case ext == "html" || ext == "htm" || strings.HasPrefix(mediaType, "text/html"):
		return htmlDocument(data)
	case ext == "pdf" || ext == "doc" || ext == "rtf":
		return nil, wrap(SubsystemDocument, "extract", fmt.Errorf("%w: %s", ErrUnsupported, ext))
	}

	// Недопустимые UTF-8 последовательности заменяются на U+FFFD
	return plainDocument(decodeText(data)), nil
}

// --- docx / odt ---

func openZipPart(data []byte, name string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("некорректный zip-контейнер: %w", err)
	}
	f, err := zr.Open(name)
	if err != nil {
		return nil, fmt.Errorf("часть %s не найдена: %w", name, err)
	}
	defer f.Close()

	part, err := io.ReadAll(io.LimitReader(f, maxDocumentPart+1))
	if err != nil {
		return nil, fmt.Errorf("чтение %s: %w", name, err)
	}
	if len(part) > maxDocumentPart {
		return nil, fmt.Errorf("часть %s превышает %d байт", name, maxDocumentPart)
	}
	return part, nil
}

// readDOCX разбирает word/document.xml потоково: абзацы w:p, стиль w:pStyle,
// прогоны w:r со свойствами w:b / w:i, текст w:t.
func readDOCX(data []byte) ([]paragraph, error) {
	part, err := openZipPart(data, "word/document.xml")
	if err != nil {
		return nil, err
	}

	dec := xml.NewDecoder(bytes.NewReader(part))
	var (
		paras  []paragraph
		cur    *paragraph
		run    *textRun
		inText bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("разбор document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				cur = &paragraph{}
			case "pStyle":
				if cur != nil {
					cur.heading = headingFromStyle(attr(t, "val"))
				}
			case "r":
				if cur != nil {
					run = &textRun{}
				}
			case "b":
				if run != nil && toggleOn(attr(t, "val")) {
					run.bold = true
				}
			case "i":
				if run != nil && toggleOn(attr(t, "val")) {
					run.italic = true
				}
			case "t":
				inText = run != nil
			case "tab":
				if run != nil {
					run.text += "\t"
				}
			case "br", "cr":
				if run != nil {
					run.text += "\n"
				}
			}
		case xml.CharData:
			if inText {
				run.text += string(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "r":
				if cur != nil && run != nil && run.text != "" {
					cur.runs = append(cur.runs, *run)
				}
				run = nil
			case "p":
				if cur != nil {
					paras = append(paras, *cur)
				}
				cur = nil
			}
		}
	}

	return paras, nil
}

// readODT разбирает content.xml: text:h (outline-level), text:p, text:span.
func readODT(data []byte) ([]paragraph, error) {
	part, err := openZipPart(data, "content.xml")
	if err != nil {
		return nil, err
	}

	dec := xml.NewDecoder(bytes.NewReader(part))
	var (
		paras []paragraph
		cur   *paragraph
		depth int // вложенность text:p / text:h
	)

	appendText := func(s string) {
		if cur == nil || s == "" {
			return
		}
		if n := len(cur.runs); n > 0 {
			cur.runs[n-1].text += s
			return
		}
		cur.runs = append(cur.runs, textRun{text: s})
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("разбор content.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p", "h":
				depth++
				if depth == 1 {
					cur = &paragraph{}
					if t.Name.Local == "h" {
						cur.heading = 1
						if attr(t, "outline-level") != "" && attr(t, "outline-level") != "1" {
							cur.heading = 2
						}
					}
				}
			case "tab":
				appendText("\t")
			case "line-break":
				appendText("\n")
			case "s":
				appendText(" ")
			}
		case xml.CharData:
			if depth > 0 {
				appendText(string(t))
			}
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "h" {
				depth--
				if depth == 0 && cur != nil {
					paras = append(paras, *cur)
					cur = nil
				}
			}
		}
	}

	return paras, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// toggleOn — свойство w:b / w:i без val или с val=true/1/on.
func toggleOn(val string) bool {
	switch strings.ToLower(val) {
	case "", "true", "1", "on":
		return true
	}
	return false
}

// headingFromStyle: Title/Heading1 → 1, Heading2..9 → 2, прочее → 0.
func headingFromStyle(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	switch {
	case s == "title" || s == "heading1":
		return 1
	case strings.HasPrefix(s, "heading"):
		return 2
	}
	return 0
}

// renderParagraphs формирует текст (абзацы через пустую строку) и разметку.
// Пустые абзацы пропускаются в разметке.
func renderParagraphs(paras []paragraph) *Document {
	var text, markup strings.Builder

	for _, p := range paras {
		for _, r := range p.runs {
			text.WriteString(r.text)
		}
		text.WriteString("\n\n")

		if len(p.runs) == 0 {
			continue
		}
		tag := "p"
		switch p.heading {
		case 1:
			tag = "h1"
		case 2:
			tag = "h2"
		}
		markup.WriteString("<" + tag + ">")
		for _, r := range p.runs {
			s := html.EscapeString(r.text)
			if r.italic {
				s = "<em>" + s + "</em>"
			}
			if r.bold {
				s = "<strong>" + s + "</strong>"
			}
			markup.WriteString(s)
		}
		markup.WriteString("</" + tag + ">")
	}

	return &Document{Text: text.String(), HTML: markup.String()}
}

// --- markdown / html / plain ---

func markdownDocument(data []byte) (*Document, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert(data, &buf); err != nil {
		return nil, wrap(SubsystemDocument, "markdown", err)
	}
	return &Document{Text: decodeText(data), HTML: buf.String()}, nil
}

func decodeText(data []byte) string {
	return strings.ToValidUTF8(string(data), "\uFFFD")
}

// htmlDocument обходит DOM и собирает абзацы, пропуская script/style/head.
func htmlDocument(data []byte) (*Document, error) {
	root, err := xhtml.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, wrap(SubsystemDocument, "html", err)
	}

	var (
		paras []paragraph
		cur   *paragraph
	)
	flush := func() {
		if cur != nil && len(cur.runs) > 0 {
			paras = append(paras, *cur)
		}
		cur = nil
	}

	var walk func(n *xhtml.Node, bold, italic bool)
	walk = func(n *xhtml.Node, bold, italic bool) {
		switch n.Type {
		case xhtml.TextNode:
			s := strings.Join(strings.Fields(n.Data), " ")
			if s == "" {
				return
			}
			if cur == nil {
				cur = &paragraph{}
			}
			cur.runs = append(cur.runs, textRun{text: s, bold: bold, italic: italic})
			return
		case xhtml.ElementNode:
			switch n.Data {
			case "script", "style", "head", "noscript", "template":
				return
			case "strong", "b":
				bold = true
			case "em", "i":
				italic = true
			case "h1", "h2", "h3", "h4", "h5", "h6", "p", "li", "div", "section",
				"article", "blockquote", "pre", "tr", "br":
				flush()
				defer flush()
				if n.Data == "h1" {
					cur = &paragraph{heading: 1}
				} else if n.Data[0] == 'h' && len(n.Data) == 2 {
					cur = &paragraph{heading: 2}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, bold, italic)
		}
	}
	walk(root, false, false)
	flush()

	doc := renderParagraphs(joinRuns(paras))
	return doc, nil
}

// joinRuns вставляет пробел без оформления между соседними фрагментами абзаца.
func joinRuns(paras []paragraph) []paragraph {
	for i := range paras {
		runs := paras[i].runs
		if len(runs) < 2 {
			continue
		}
		joined := make([]textRun, 0, 2*len(runs)-1)
		for j, r := range runs {
			if j > 0 {
				joined = append(joined, textRun{text: " "})
			}
			joined = append(joined, r)
		}
		paras[i].runs = joined
	}
	return paras
}

func plainDocument(s string) *Document {
	var paras []paragraph
	for _, block := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n") {
		if strings.TrimSpace(block) == "" {
			continue
		}
		paras = append(paras, paragraph{runs: []textRun{{text: block}}})
	}
	doc := renderParagraphs(paras)
	// Для простого текста текстом остаётся исходник без изменений
	doc.Text = s
	return doc
}
