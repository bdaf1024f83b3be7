package converter

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/bigkaa/goartstore/converter/internal/codec"
	"github.com/bigkaa/goartstore/converter/internal/domain/model"
)

type payloadFormat int

const (
	payloadJSON payloadFormat = iota
	payloadYAML
)

// payloadStrategy строит упорядоченный структурированный ответ и
// сериализует его в JSON или YAML.
type payloadStrategy struct {
	format    payloadFormat
	extension string
}

func (s payloadStrategy) Convert(_ context.Context, in Input) (*Output, error) {
	payload, err := s.build(in)
	if err != nil {
		return nil, err
	}

	if s.format == payloadYAML {
		data, err := codec.MarshalYAML(payload)
		if err != nil {
			return nil, err
		}
		return &Output{Data: data, MediaType: "application/x-yaml", Extension: s.extension}, nil
	}

	data, err := codec.MarshalJSON(payload)
	if err != nil {
		return nil, err
	}
	return &Output{Data: data, MediaType: "application/json", Extension: s.extension}, nil
}

func (s payloadStrategy) build(in Input) (*codec.Object, error) {
	obj := codec.NewObject()
	obj.Set("metadata", metadataValue(in))

	switch {
	case in.Source.Category == model.CategorySpreadsheet:
		sheets, err := sheetRows(in)
		if err != nil {
			return nil, err
		}
		if _, ok := delimited(in); ok {
			obj.Set("data", codec.RowsToObjects(sheets[0].Rows))
			return obj, nil
		}
		list := make([]*codec.Object, 0, len(sheets))
		for _, sh := range sheets {
			item := codec.NewObject()
			item.Set("name", sh.Name)
			item.Set("data", codec.RowsToObjects(sh.Rows))
			list = append(list, item)
		}
		obj.Set("sheets", list)

	case in.Source.Category == model.CategoryData:
		value, err := parseData(in)
		if err != nil {
			s.unparsed(obj, in)
			return obj, nil
		}
		if s.format == payloadYAML {
			obj.Set("data", value)
		} else {
			obj.Set("originalData", value)
		}

	case isTextual(in):
		text, err := sourceText(in)
		if err != nil {
			return nil, err
		}
		setTextStats(obj, in, text)

	default:
		obj.Set("fileName", baseName(in))
		obj.Set("fileType", mediaType(in))
		obj.Set("size", len(in.Source.Data))
		obj.Set("convertedAt", timestamp(in))
		if s.format == payloadJSON {
			obj.Set("note", "Non-data file converted to JSON metadata")
		}
	}

	return obj, nil
}

// unparsed — данные не разобраны: исходный текст и пояснение.
func (s payloadStrategy) unparsed(obj *codec.Object, in Input) {
	if s.format == payloadYAML {
		obj.Set("fileName", baseName(in))
		obj.Set("fileType", mediaType(in))
		obj.Set("content", string(in.Source.Data))
		obj.Set("note", "Could not parse as structured data")
		return
	}
	obj.Set("content", string(in.Source.Data))
	obj.Set("note", "Could not parse original data as JSON")
}

// setTextStats заполняет поля текстового источника.
// wordCount — число непустых фрагментов между пробельными символами,
// characterCount — число символов Unicode.
func setTextStats(obj *codec.Object, in Input, text string) {
	obj.Set("fileName", baseName(in))
	obj.Set("originalFormat", mediaType(in))
	obj.Set("content", text)
	obj.Set("lines", strings.Split(text, "\n"))
	obj.Set("wordCount", len(strings.Fields(text)))
	obj.Set("characterCount", utf8.RuneCountInString(text))
	obj.Set("convertedAt", timestamp(in))
}
