// Пакет model — доменные модели сервиса конвертации.
// SourceFile, ConversionRequest, ConversionResult, Artifact — неизменяемые
// структуры, которые передаются между слоями конвейера конвертации.
package model

import (
	"strings"
	"time"
)

// Category — укрупнённая доменная категория исходного файла.
type Category string

const (
	CategoryImage       Category = "image"
	CategoryDocument    Category = "document"
	CategorySpreadsheet Category = "spreadsheet"
	CategoryData        Category = "data"
	CategoryArchive     Category = "archive"
	CategoryCode        Category = "code"
	CategoryAudio       Category = "audio"
	CategoryVideo       Category = "video"
	// CategoryUnknown — ни суффикс, ни MIME-тип не распознаны
	CategoryUnknown Category = "unknown"
)

// SourceFile — загруженный исходный файл.
// Принадлежит запросу, который выполняет конвертацию, и не изменяется.
type SourceFile struct {
	// Name — заявленное имя файла (из multipart)
	Name string
	// MediaType — заявленный MIME-тип
	MediaType string
	// Data — содержимое файла
	Data []byte
	// Category — категория, определённая классификатором
	Category Category
}

// Size возвращает размер исходного файла в байтах.
func (f SourceFile) Size() int64 {
	return int64(len(f.Data))
}

// Extension возвращает суффикс имени после последней точки в нижнем регистре.
// Для имени без точки возвращает пустую строку.
func (f SourceFile) Extension() string {
	return ExtensionOf(f.Name)
}

// BaseName возвращает имя файла без последнего суффикса.
func (f SourceFile) BaseName() string {
	if i := strings.LastIndexByte(f.Name, '.'); i >= 0 {
		return f.Name[:i]
	}
	return f.Name
}

// ConversionRequest — запрос на конвертацию. Создаётся один раз на входящий запрос.
type ConversionRequest struct {
	Source SourceFile
	// Target — целевой формат в нижнем регистре (png, pdf, json, ...)
	Target string
	// Quality — качество для форматов с потерями (по умолчанию 90)
	Quality int
	// IncludeMetadata — включать ли блок метаданных в результат
	IncludeMetadata bool
}

// ConversionResult — результат успешной конвертации.
type ConversionResult struct {
	Data             []byte
	MediaType        string
	Extension        string
	FileName         string
	Size             int64
	OriginalSize     int64
	CompressionRatio string
	SourceCategory   Category
	TargetFormat     string
	DownloadID       string
	// Metadata — nil, если метаданные не запрашивались
	Metadata map[string]any
}

// Artifact — сконвертированный файл во временном хранилище.
type Artifact struct {
	Handle    string
	Data      []byte
	MediaType string
	FileName  string
	CreatedAt time.Time
}

// ExtensionOf возвращает суффикс после последней точки в нижнем регистре.
func ExtensionOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}
