// Пакет errors — конструкторы стандартных ошибок API конвертера.
// Единый формат: {"error": {"code": "...", "message": "...", ...}}.
// Все HTTP-ответы с ошибками должны использовать WriteError или WriteErrorDetail.
package errors //nolint:revive // TODO: переименовать пакет errors, конфликт со stdlib

import (
	"encoding/json"
	"net/http"
)

// Коды ошибок API.
const (
	CodeValidationError   = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeFileTooLarge      = "FILE_TOO_LARGE"
	CodeInvalidConversion = "INVALID_CONVERSION"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeSystemUnavailable = "SYSTEM_UNAVAILABLE"
	CodeConversionFailed  = "CONVERSION_FAILED"
	CodeInternalError     = "INTERNAL_ERROR"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error Detail `json:"error"`
}

// Detail — тело ошибки. Необязательные поля опускаются.
type Detail struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	Details    any    `json:"details,omitempty"`
	// RateLimited и TimeRemaining — только для SYSTEM_UNAVAILABLE
	RateLimited   bool `json:"rate_limited,omitempty"`
	TimeRemaining int  `json:"time_remaining,omitempty"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	WriteErrorDetail(w, statusCode, Detail{Code: code, Message: message})
}

// WriteErrorDetail записывает ответ ошибки с подсказкой и деталями.
func WriteErrorDetail(w http.ResponseWriter, statusCode int, detail Detail) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{Error: detail})
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// FileTooLarge — 413 файл превышает лимит.
func FileTooLarge(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusRequestEntityTooLarge, CodeFileTooLarge, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}
