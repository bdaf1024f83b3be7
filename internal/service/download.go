// download.go — сервис отдачи сконвертированных файлов из временного хранилища.
package service

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	apierrors "github.com/bigkaa/goartstore/converter/internal/api/errors"
	"github.com/bigkaa/goartstore/converter/internal/storage/artifacts"
)

// maxSafeNameLen — максимальная длина имени файла в Content-Disposition.
const maxSafeNameLen = 100

var (
	unsafeNameChars = regexp.MustCompile(`[^\w\s.-]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)

// DownloadError — ошибка скачивания с HTTP-кодом.
type DownloadError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// DownloadService — сервис скачивания артефактов.
type DownloadService struct {
	store  *artifacts.Store
	logger *slog.Logger
}

// NewDownloadService создаёт сервис скачивания.
func NewDownloadService(store *artifacts.Store, logger *slog.Logger) *DownloadService {
	return &DownloadService{
		store:  store,
		logger: logger.With(slog.String("component", "download_service")),
	}
}

// Serve отдаёт артефакт клиенту через http.ServeContent.
// Поддерживает Range requests (206 Partial Content).
func (s *DownloadService) Serve(w http.ResponseWriter, r *http.Request, handle string) *DownloadError {
	art, ok := s.store.Get(handle)
	if !ok {
		return &DownloadError{
			StatusCode: http.StatusNotFound,
			Code:       apierrors.CodeNotFound,
			Message:    "File not found or expired",
		}
	}

	safe := SafeFileName(art.FileName)
	w.Header().Set("Content-Type", art.MediaType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", safe, encodeExtValue(art.FileName)))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.Header().Set("Cache-Control", "no-cache")

	// http.ServeContent обрабатывает Range и If-Modified-Since,
	// Content-Length перезаписывается для частичных ответов
	http.ServeContent(w, r, safe, art.CreatedAt, bytes.NewReader(art.Data))

	s.logger.Debug("Файл отдан",
		slog.String("handle", handle),
		slog.String("file_name", art.FileName),
		slog.Int("size", len(art.Data)),
	)
	return nil
}

// encodeExtValue кодирует значение filename* (RFC 5987): всё вне attr-char
// записывается как %XX, пробел — %20.
func encodeExtValue(name string) string {
	return strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}

// SafeFileName заменяет символы вне [A-Za-z0-9_ .-] и пробельные
// последовательности на '_' и ограничивает длину 100 символами
// с сохранением расширения.
func SafeFileName(name string) string {
	s := unsafeNameChars.ReplaceAllString(name, "_")
	s = whitespaceRuns.ReplaceAllString(s, "_")
	if len(s) <= maxSafeNameLen {
		return s
	}

	ext := path.Ext(s)
	if len(ext) >= maxSafeNameLen {
		return s[:maxSafeNameLen]
	}
	return s[:maxSafeNameLen-len(ext)] + ext
}
