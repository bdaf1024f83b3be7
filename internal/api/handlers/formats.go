// formats.go — обработчик GET /api/v1/formats (категории, правила, форматы).
package handlers

import (
	"net/http"

	"github.com/bigkaa/goartstore/converter/internal/converter"
	"github.com/bigkaa/goartstore/converter/internal/domain/policy"
)

// FormatsResponse — описание поддерживаемых конвертаций.
type FormatsResponse struct {
	Categories []policy.CategoryInfo   `json:"categories"`
	Rules      []policy.RuleInfo       `json:"rules"`
	Targets    []string                `json:"targets"`
	Groups     []converter.FormatGroup `json:"groups"`
}

// FormatsHandler — обработчик справочника форматов.
type FormatsHandler struct {
	rules    policy.Rules
	registry *converter.Registry
}

// NewFormatsHandler создаёт обработчик справочника форматов.
func NewFormatsHandler(rules policy.Rules, registry *converter.Registry) *FormatsHandler {
	return &FormatsHandler{rules: rules, registry: registry}
}

// GetFormats обрабатывает GET /api/v1/formats.
func (h *FormatsHandler) GetFormats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, FormatsResponse{
		Categories: policy.Categories(),
		Rules:      h.rules.Describe(),
		Targets:    h.registry.Targets(),
		Groups:     converter.SupportedFormats(),
	})
}
