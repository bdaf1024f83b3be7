package converter

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/bigkaa/goartstore/converter/internal/codec"
	"github.com/bigkaa/goartstore/converter/internal/domain/model"
)

// markupToMarkdown — замены упрощённой разметки документа на Markdown.
var markupToMarkdown = strings.NewReplacer(
	"<h1>", "# ",
	"</h1>", "\n\n",
	"<h2>", "## ",
	"</h2>", "\n\n",
	"<p>", "",
	"</p>", "\n\n",
	"<strong>", "**",
	"</strong>", "**",
	"<em>", "*",
	"</em>", "*",
)

var anyTag = regexp.MustCompile(`<[^>]+>`)

// convertMarkdown: документ — разметка, переписанная в Markdown,
// прочее — заголовок с исходным форматом и датой.
func convertMarkdown(_ context.Context, in Input) (*Output, error) {
	var text string

	if in.Source.Category == model.CategoryDocument {
		doc, err := codec.ExtractDocument(in.Source.Extension(), in.Source.MediaType, in.Source.Data)
		if err != nil {
			return nil, err
		}
		text = html.UnescapeString(anyTag.ReplaceAllString(markupToMarkdown.Replace(doc.HTML), ""))
	} else {
		text = fmt.Sprintf("# %s\n\n**Original Format:** %s\n\n**Converted:** %s\n\n",
			baseName(in), mediaType(in), timestamp(in))
		if in.IncludeMetadata {
			text += "```json\n" + metadataJSON(in, true) + "\n```"
		}
	}

	return &Output{Data: []byte(text), MediaType: "text/markdown", Extension: "md"}, nil
}
