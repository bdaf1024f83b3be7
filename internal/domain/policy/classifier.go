// Пакет policy — классификация исходных файлов по категориям и
// политика допустимых конвертаций между категориями и целевыми форматами.
//
// Не выполняет I/O, не имеет состояния: все таблицы фиксированы при сборке.
package policy

import (
	"slices"
	"strings"

	"github.com/bigkaa/goartstore/converter/internal/domain/model"
)

// categoryOrder — порядок проверки суффиксов.
// csv и tsv встречаются и в spreadsheet, и в data: побеждает spreadsheet.
var categoryOrder = []model.Category{
	model.CategoryImage,
	model.CategoryDocument,
	model.CategorySpreadsheet,
	model.CategoryData,
	model.CategoryArchive,
	model.CategoryCode,
	model.CategoryAudio,
	model.CategoryVideo,
}

// categorySuffixes — суффиксы файлов по категориям.
var categorySuffixes = map[model.Category][]string{
	model.CategoryImage:       {"jpg", "jpeg", "png", "webp", "gif", "bmp", "tiff", "svg", "ico"},
	model.CategoryDocument:    {"pdf", "docx", "doc", "odt", "rtf", "txt", "html", "md", "tex"},
	model.CategorySpreadsheet: {"xlsx", "xls", "csv", "ods", "tsv"},
	model.CategoryData:        {"json", "xml", "yaml", "yml", "csv", "tsv"},
	model.CategoryArchive:     {"zip", "rar", "7z", "tar", "gz"},
	model.CategoryCode:        {"js", "ts", "py", "java", "cpp", "c", "cs", "php", "rb", "go", "rs"},
	model.CategoryAudio:       {"mp3", "wav", "flac", "aac", "ogg", "m4a"},
	model.CategoryVideo:       {"mp4", "avi", "mov", "wmv", "flv", "mkv", "webm"},
}

// Classify определяет категорию файла по имени и заявленному MIME-типу.
// Совпадение суффикса имеет приоритет над MIME-типом.
func Classify(fileName, mediaType string) model.Category {
	if ext := model.ExtensionOf(fileName); ext != "" {
		for _, cat := range categoryOrder {
			if slices.Contains(categorySuffixes[cat], ext) {
				return cat
			}
		}
	}

	mt := strings.ToLower(mediaType)
	switch {
	case strings.HasPrefix(mt, "image/"):
		return model.CategoryImage
	case strings.HasPrefix(mt, "audio/"):
		return model.CategoryAudio
	case strings.HasPrefix(mt, "video/"):
		return model.CategoryVideo
	case strings.Contains(mt, "document") || strings.HasPrefix(mt, "text/"):
		return model.CategoryDocument
	case strings.Contains(mt, "spreadsheet") || strings.Contains(mt, "excel"):
		return model.CategorySpreadsheet
	}
	return model.CategoryUnknown
}

// Categories возвращает категории в порядке проверки вместе с их суффиксами.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, 0, len(categoryOrder))
	for _, cat := range categoryOrder {
		out = append(out, CategoryInfo{
			Category: cat,
			Suffixes: slices.Clone(categorySuffixes[cat]),
		})
	}
	return out
}

// CategoryInfo — категория и список её суффиксов.
type CategoryInfo struct {
	Category model.Category `json:"category"`
	Suffixes []string       `json:"suffixes"`
}
