package converter

import (
	"context"
	"encoding/xml"
	"fmt"
)

type cdata struct {
	Value string `xml:",cdata"`
}

// xmlFile — описание файла в XML: имя, тип, размер, дата и метаданные.
type xmlFile struct {
	XMLName     xml.Name `xml:"file"`
	Name        cdata    `xml:"name"`
	Type        cdata    `xml:"type"`
	Size        int      `xml:"size"`
	ConvertedAt string   `xml:"convertedAt"`
	Metadata    *cdata   `xml:"metadata,omitempty"`
}

func convertXML(_ context.Context, in Input) (*Output, error) {
	doc := xmlFile{
		Name:        cdata{baseName(in)},
		Type:        cdata{mediaType(in)},
		Size:        len(in.Source.Data),
		ConvertedAt: timestamp(in),
	}
	if metadataValue(in) != nil {
		doc.Metadata = &cdata{metadataJSON(in, false)}
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("сериализация xml: %w", err)
	}
	data := append([]byte(xml.Header), body...)
	data = append(data, '\n')

	return &Output{Data: data, MediaType: "application/xml", Extension: "xml"}, nil
}
