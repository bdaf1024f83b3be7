// structured.go — разбор JSON и YAML с сохранением порядка ключей.
//
// Объекты представлены как *orderedmap.OrderedMap[string, any], массивы —
// []any, числа — int64 или float64. Такое представление одинаково
// сериализуется в JSON и YAML в исходном порядке полей.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Object — упорядоченный JSON/YAML-объект.
type Object = orderedmap.OrderedMap[string, any]

// NewObject создаёт пустой упорядоченный объект.
func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// ParseData разбирает структурированные данные по расширению источника:
// yaml/yml — как YAML, остальные — как JSON.
func ParseData(ext string, data []byte) (any, error) {
	switch ext {
	case "yaml", "yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseJSON разбирает один JSON-документ. Лишние данные после документа — ошибка.
func ParseJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, wrap(SubsystemData, "json", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, wrap(SubsystemData, "json", errors.New("лишние данные после JSON-документа"))
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("ожидался ключ объекта, получено %v", keyTok)
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // '}'
				return nil, err
			}
			return obj, nil
		case '[':
			arr := make([]any, 0)
			for dec.More() {
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil { // ']'
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("неожиданный разделитель %v", t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		// string, bool, nil
		return t, nil
	}
}

// ParseYAML разбирает первый YAML-документ.
func ParseYAML(data []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, wrap(SubsystemData, "yaml", err)
	}
	if root.Kind == 0 {
		return nil, wrap(SubsystemData, "yaml", errors.New("пустой документ"))
	}
	v, err := yamlNodeValue(&root)
	if err != nil {
		return nil, wrap(SubsystemData, "yaml", err)
	}
	return v, nil
}

func yamlNodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlNodeValue(n.Content[0])
	case yaml.AliasNode:
		return yamlNodeValue(n.Alias)
	case yaml.MappingNode:
		obj := NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			val, err := yamlNodeValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj.Set(key, val)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			val, err := yamlNodeValue(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		return arr, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		// Целые YAML декодируются как int, приводим к int64 как в JSON
		if i, ok := v.(int); ok {
			return int64(i), nil
		}
		return v, nil
	}
	return nil, fmt.Errorf("неподдерживаемый узел YAML: %v", n.Kind)
}

// MarshalJSON сериализует значение с отступом в 2 пробела.
func MarshalJSON(v any) ([]byte, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, wrap(SubsystemData, "json encode", err)
	}
	return out, nil
}

// MarshalYAML сериализует значение в блочном стиле с отступом в 2 пробела.
func MarshalYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, wrap(SubsystemData, "yaml encode", err)
	}
	if err := enc.Close(); err != nil {
		return nil, wrap(SubsystemData, "yaml encode", err)
	}
	return buf.Bytes(), nil
}

// ObjectRows возвращает элементы массива, если значение — непустой массив
// объектов. Иначе ok = false.
func ObjectRows(v any) (rows []*Object, ok bool) {
	arr, isArr := v.([]any)
	if !isArr || len(arr) == 0 {
		return nil, false
	}
	rows = make([]*Object, 0, len(arr))
	for _, item := range arr {
		obj, isObj := item.(*Object)
		if !isObj {
			return nil, false
		}
		rows = append(rows, obj)
	}
	return rows, true
}

// Keys возвращает ключи объекта в порядке вставки.
func Keys(obj *Object) []string {
	keys := make([]string, 0, obj.Len())
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// CellString приводит значение к строке для ячейки CSV/XLSX.
// Объекты и массивы сериализуются в компактный JSON, nil — пустая строка.
func CellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *Object, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}
