// rules.go — таблица правил конвертации (allowed / forbidden) по категориям.
package policy

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bigkaa/goartstore/converter/internal/domain/model"
)

// fallbackSuggestion — подсказка для категорий без списка allowed.
const fallbackSuggestion = "Try converting to: txt, json"

// Rule — набор допустимых и запрещённых целевых форматов для категории.
type Rule struct {
	Allowed   []string `json:"allowed"`
	Forbidden []string `json:"forbidden"`
}

// Rules — таблица правил. Категория без записи допускает любой формат.
type Rules map[model.Category]Rule

// DefaultRules возвращает стандартную таблицу правил конвертации.
// archive и unknown намеренно отсутствуют.
func DefaultRules() Rules {
	return Rules{
		model.CategoryImage: {
			Allowed:   []string{"jpg", "jpeg", "png", "webp", "gif", "bmp", "tiff", "svg", "ico", "pdf"},
			Forbidden: []string{"json", "xml", "yaml", "csv", "xlsx", "txt", "docx", "mp3", "mp4"},
		},
		model.CategoryDocument: {
			Allowed:   []string{"pdf", "docx", "txt", "html", "md", "json", "xml", "yaml"},
			Forbidden: []string{"jpg", "png", "mp3", "mp4", "xlsx", "csv"},
		},
		model.CategorySpreadsheet: {
			Allowed:   []string{"xlsx", "csv", "json", "xml", "yaml", "txt", "html", "pdf"},
			Forbidden: []string{"jpg", "png", "mp3", "mp4", "docx"},
		},
		model.CategoryData: {
			Allowed:   []string{"json", "xml", "yaml", "csv", "tsv", "txt", "html"},
			Forbidden: []string{"jpg", "png", "mp3", "mp4", "docx", "pdf"},
		},
		model.CategoryCode: {
			Allowed:   []string{"txt", "html", "json", "xml", "pdf"},
			Forbidden: []string{"jpg", "png", "mp3", "mp4", "xlsx", "csv"},
		},
		model.CategoryAudio: {
			Allowed:   []string{"txt", "json", "xml"},
			Forbidden: []string{"jpg", "png", "pdf", "docx", "xlsx", "csv"},
		},
		model.CategoryVideo: {
			Allowed:   []string{"txt", "json", "xml"},
			Forbidden: []string{"jpg", "png", "pdf", "docx", "xlsx", "csv"},
		},
	}
}

// RejectionError — конвертация запрещена политикой.
type RejectionError struct {
	Category   model.Category
	Target     string
	Suggestion string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s files cannot be converted to %s",
		e.Category, strings.ToUpper(e.Target))
}

// Check проверяет допустимость конвертации category → target.
// target должен быть уже приведён к нижнему регистру.
//
// Порядок проверки: сначала forbidden, затем allowed (если список непуст).
// Возвращает *RejectionError при запрете.
func (r Rules) Check(category model.Category, target string) error {
	rule, ok := r[category]
	if !ok {
		return nil
	}

	if slices.Contains(rule.Forbidden, target) {
		return r.reject(category, target)
	}
	if len(rule.Allowed) > 0 && !slices.Contains(rule.Allowed, target) {
		return r.reject(category, target)
	}
	return nil
}

// Suggestion возвращает подсказку со списком допустимых форматов категории.
func (r Rules) Suggestion(category model.Category) string {
	rule, ok := r[category]
	if !ok || len(rule.Allowed) == 0 {
		return fallbackSuggestion
	}
	return fmt.Sprintf("Supported formats for %s: %s", category, strings.Join(rule.Allowed, ", "))
}

func (r Rules) reject(category model.Category, target string) *RejectionError {
	return &RejectionError{
		Category:   category,
		Target:     target,
		Suggestion: r.Suggestion(category),
	}
}

// RuleInfo — описание правила для API и CLI.
type RuleInfo struct {
	Category model.Category `json:"category"`
	Rule
	// Unrestricted — правило отсутствует, допускается любой формат
	Unrestricted bool `json:"unrestricted"`
}

// Describe возвращает правила для всех известных категорий в порядке классификации.
func (r Rules) Describe() []RuleInfo {
	cats := append(slices.Clone(categoryOrder), model.CategoryUnknown)
	out := make([]RuleInfo, 0, len(cats))
	for _, cat := range cats {
		rule, ok := r[cat]
		out = append(out, RuleInfo{
			Category:     cat,
			Rule:         Rule{Allowed: slices.Clone(rule.Allowed), Forbidden: slices.Clone(rule.Forbidden)},
			Unrestricted: !ok,
		})
	}
	return out
}
