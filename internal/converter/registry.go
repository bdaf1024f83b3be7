// Пакет converter — диспетчер конвертации: реестр стратегий по целевому
// формату и встроенные стратегии для изображений, документов, таблиц и данных.
//
// Стратегия получает исходный файл с уже определённой категорией и
// возвращает байты результата с MIME-типом и расширением. Допустимость
// конвертации проверяется до вызова стратегии (пакет policy).
package converter

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bigkaa/goartstore/converter/internal/domain/model"
	"github.com/bigkaa/goartstore/converter/internal/domain/policy"
)

// ErrUnsupportedFormat — целевой формат не зарегистрирован.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Input — входные данные стратегии.
type Input struct {
	Source model.SourceFile
	// Quality — качество для форматов с потерями
	Quality         int
	IncludeMetadata bool
	// Metadata — результат извлечения метаданных, nil если не запрашивались
	Metadata map[string]any
	// Now — момент конвертации для полей convertedAt
	Now time.Time
}

// NewInput собирает вход стратегии из запроса на конвертацию.
func NewInput(req model.ConversionRequest, now time.Time) Input {
	return Input{
		Source:          req.Source,
		Quality:         req.Quality,
		IncludeMetadata: req.IncludeMetadata,
		Now:             now,
	}
}

// Output — результат стратегии.
type Output struct {
	Data      []byte
	MediaType string
	Extension string
}

// Strategy — конвертация в один целевой формат.
type Strategy interface {
	Convert(ctx context.Context, in Input) (*Output, error)
}

// StrategyFunc — адаптер функции к интерфейсу Strategy.
type StrategyFunc func(ctx context.Context, in Input) (*Output, error)

// Convert вызывает f(ctx, in).
func (f StrategyFunc) Convert(ctx context.Context, in Input) (*Output, error) {
	return f(ctx, in)
}

// FormatGroup — группа поддерживаемых форматов для сообщения об ошибке.
type FormatGroup struct {
	Name    string   `json:"name"`
	Formats []string `json:"formats"`
}

// UnsupportedFormatError — запрошен незарегистрированный формат.
type UnsupportedFormatError struct {
	Target    string
	Supported []FormatGroup
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("Unsupported output format: %s", e.Target)
}

// Is позволяет сравнивать через errors.Is(err, ErrUnsupportedFormat).
func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// Suggestion формирует перечень поддерживаемых форматов по группам.
func (e *UnsupportedFormatError) Suggestion() string {
	parts := make([]string, 0, len(e.Supported))
	for _, g := range e.Supported {
		parts = append(parts, g.Name+": "+strings.Join(g.Formats, ", "))
	}
	return strings.Join(parts, "; ")
}

// supportedGroups — группы форматов в сообщении об ошибке: изображения,
// документы, таблицы, данные.
var supportedGroups = []struct {
	name     string
	category model.Category
}{
	{"images", model.CategoryImage},
	{"documents", model.CategoryDocument},
	{"spreadsheets", model.CategorySpreadsheet},
	{"data", model.CategoryData},
}

// SupportedFormats возвращает группы форматов для сообщения о неизвестном формате.
func SupportedFormats() []FormatGroup {
	suffixes := make(map[model.Category][]string)
	for _, c := range policy.Categories() {
		suffixes[c.Category] = c.Suffixes
	}
	out := make([]FormatGroup, 0, len(supportedGroups))
	for _, g := range supportedGroups {
		out = append(out, FormatGroup{Name: g.name, Formats: suffixes[g.category]})
	}
	return out
}

// Registry — таблица стратегий по целевому формату.
// Заполняется при старте и далее только читается.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// DefaultRegistry создаёт реестр со всеми встроенными стратегиями.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, f := range []string{"png", "jpg", "jpeg", "webp", "gif", "bmp", "tiff", "ico"} {
		r.Register(f, imageStrategy{format: f})
	}
	r.Register("pdf", StrategyFunc(convertPDF))
	r.Register("html", StrategyFunc(convertHTML))
	r.Register("txt", StrategyFunc(convertText))
	r.Register("md", StrategyFunc(convertMarkdown))
	r.Register("json", payloadStrategy{format: payloadJSON, extension: "json"})
	r.Register("yaml", payloadStrategy{format: payloadYAML, extension: "yaml"})
	r.Register("yml", payloadStrategy{format: payloadYAML, extension: "yml"})
	r.Register("xml", StrategyFunc(convertXML))
	r.Register("csv", StrategyFunc(convertCSV))
	r.Register("xlsx", StrategyFunc(convertWorkbook))
	r.Register("excel", StrategyFunc(convertWorkbook))
	r.Register("svg", StrategyFunc(convertSVG))
	return r
}

// Register регистрирует стратегию для формата, заменяя существующую.
func (r *Registry) Register(target string, s Strategy) {
	r.strategies[strings.ToLower(target)] = s
}

// Lookup возвращает стратегию для формата или *UnsupportedFormatError.
func (r *Registry) Lookup(target string) (Strategy, error) {
	s, ok := r.strategies[target]
	if !ok {
		return nil, &UnsupportedFormatError{Target: target, Supported: SupportedFormats()}
	}
	return s, nil
}

// Convert выполняет конвертацию в формат target.
func (r *Registry) Convert(ctx context.Context, target string, in Input) (*Output, error) {
	s, err := r.Lookup(target)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Convert(ctx, in)
}

// Targets возвращает зарегистрированные форматы в алфавитном порядке.
func (r *Registry) Targets() []string {
	out := make([]string, 0, len(r.strategies))
	for k := range r.strategies {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
