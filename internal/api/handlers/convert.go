// convert.go — HTTP handlers конвертации и скачивания результата.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/goartstore/converter/internal/api/errors"
	"github.com/bigkaa/goartstore/converter/internal/service"
)

// multipartOverhead — запас на заголовки и текстовые поля multipart-формы
// сверх лимита размера файла.
const multipartOverhead = 1 << 20

// multipartMemory — объём формы, удерживаемый в памяти при разборе.
const multipartMemory = 32 << 20

// ConvertResponse — ответ успешной конвертации.
type ConvertResponse struct {
	Success          bool           `json:"success"`
	FileName         string         `json:"file_name"`
	ContentType      string         `json:"content_type"`
	Size             int64          `json:"size"`
	OriginalSize     int64          `json:"original_size"`
	CompressionRatio string         `json:"compression_ratio"`
	SourceCategory   string         `json:"source_category"`
	TargetFormat     string         `json:"target_format"`
	DownloadID       string         `json:"download_id"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// ConvertHandler — обработчик endpoints конвертации.
type ConvertHandler struct {
	convertSvc  *service.ConvertService
	downloadSvc *service.DownloadService
	maxFileSize int64
	logger      *slog.Logger
}

// NewConvertHandler создаёт обработчик конвертации.
func NewConvertHandler(
	convertSvc *service.ConvertService,
	downloadSvc *service.DownloadService,
	maxFileSize int64,
	logger *slog.Logger,
) *ConvertHandler {
	return &ConvertHandler{
		convertSvc:  convertSvc,
		downloadSvc: downloadSvc,
		maxFileSize: maxFileSize,
		logger:      logger.With(slog.String("component", "convert_handler")),
	}
}

// Convert обрабатывает POST /api/v1/convert.
// Multipart form: file (обязательно), outputFormat, quality, includeMetadata (опционально).
func (h *ConvertHandler) Convert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apierrors.FileTooLarge(w, "File exceeds the maximum allowed size of "+strconv.FormatInt(h.maxFileSize, 10)+" bytes")
			return
		}
		apierrors.ValidationError(w, "Invalid multipart form: "+err.Error())
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "No file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Ошибка чтения загруженного файла",
			slog.String("file_name", header.Filename),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Failed to read uploaded file")
		return
	}

	// Нечисловое качество заменяется значением по умолчанию
	quality, _ := strconv.Atoi(r.FormValue("quality"))

	res, cerr := h.convertSvc.Convert(r.Context(), service.ConvertParams{
		FileName:        header.Filename,
		MediaType:       header.Header.Get("Content-Type"),
		Data:            data,
		Target:          r.FormValue("outputFormat"),
		Quality:         quality,
		IncludeMetadata: r.FormValue("includeMetadata") == "true",
	})
	if cerr != nil {
		writeConvertError(w, cerr)
		return
	}

	writeJSON(w, http.StatusOK, ConvertResponse{
		Success:          true,
		FileName:         res.FileName,
		ContentType:      res.MediaType,
		Size:             res.Size,
		OriginalSize:     res.OriginalSize,
		CompressionRatio: res.CompressionRatio,
		SourceCategory:   string(res.SourceCategory),
		TargetFormat:     res.TargetFormat,
		DownloadID:       res.DownloadID,
		Metadata:         res.Metadata,
	})
}

// Download обрабатывает GET /api/v1/convert/{downloadID}.
func (h *ConvertHandler) Download(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, chi.URLParam(r, "downloadID"))
}

// DownloadByQuery обрабатывает GET /api/v1/convert?id=<downloadID>.
func (h *ConvertHandler) DownloadByQuery(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, r.URL.Query().Get("id"))
}

func (h *ConvertHandler) serve(w http.ResponseWriter, r *http.Request, handle string) {
	if handle == "" {
		apierrors.NotFound(w, "File not found or expired")
		return
	}
	if derr := h.downloadSvc.Serve(w, r, handle); derr != nil {
		apierrors.WriteError(w, derr.StatusCode, derr.Code, derr.Message)
	}
}

// writeConvertError преобразует ошибку сервиса в HTTP-ответ.
// Для SYSTEM_UNAVAILABLE выставляется Retry-After в секундах.
func writeConvertError(w http.ResponseWriter, cerr *service.ConvertError) {
	detail := apierrors.Detail{
		Code:       cerr.Code,
		Message:    cerr.Message,
		Suggestion: cerr.Suggestion,
		Details:    cerr.Details,
	}
	if cerr.Code == apierrors.CodeSystemUnavailable {
		detail.RateLimited = true
		detail.TimeRemaining = cerr.TimeRemaining
		if cerr.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(cerr.RetryAfter.Seconds()))))
		}
	}
	apierrors.WriteErrorDetail(w, cerr.StatusCode, detail)
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
