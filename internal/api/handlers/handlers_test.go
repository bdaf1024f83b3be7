package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/goartstore/converter/internal/converter"
	"github.com/bigkaa/goartstore/converter/internal/domain/policy"
	"github.com/bigkaa/goartstore/converter/internal/domain/throttle"
	"github.com/bigkaa/goartstore/converter/internal/metadata"
	"github.com/bigkaa/goartstore/converter/internal/service"
	"github.com/bigkaa/goartstore/converter/internal/storage/artifacts"
)

// fakeDeps — фиксированное состояние зависимостей.
type fakeDeps map[string]bool

func (f fakeDeps) Health() map[string]bool { return f }

type testEnv struct {
	router http.Handler
	gate   *throttle.Gate
	store  *artifacts.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := artifacts.New(artifacts.DefaultRetention, 100, logger)
	if err != nil {
		t.Fatalf("ошибка создания Store: %v", err)
	}
	gate := throttle.New()
	registry := converter.DefaultRegistry()
	rules := policy.DefaultRules()

	convertSvc := service.NewConvertService(gate, rules, registry, metadata.New(logger), store,
		artifacts.HandleFromName,
		service.ConvertDefaults{Format: "png", Quality: 90, MaxFileSize: 1024},
		logger,
	)
	downloadSvc := service.NewDownloadService(store, logger)

	api := NewAPIHandler(
		NewConvertHandler(convertSvc, downloadSvc, 1024, logger),
		NewFormatsHandler(rules, registry),
		NewSystemHandler("cv-test", gate, store, fakeDeps{"system-health:monitor:80": true}),
		NewHealthHandler(gate),
	)
	r := chi.NewRouter()
	api.Register(r)

	return &testEnv{router: r, gate: gate, store: store}
}

// multipartRequest собирает POST /api/v1/convert с файлом и полями формы.
func multipartRequest(t *testing.T, fileName, mediaType string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if fileName != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
		h.Set("Content-Type", mediaType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("ошибка создания части: %v", err)
		}
		_, _ = part.Write(data)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("ошибка записи поля %s: %v", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("ошибка закрытия multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// errorEnvelope — тело ответа с ошибкой.
type errorEnvelope struct {
	Error struct {
		Code          string          `json:"code"`
		Message       string          `json:"message"`
		Suggestion    string          `json:"suggestion"`
		Details       json.RawMessage `json:"details"`
		RateLimited   bool            `json:"rate_limited"`
		TimeRemaining int             `json:"time_remaining"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("ошибка разбора ответа: %v, тело: %s", err, w.Body.String())
	}
	return env
}

func TestConvert_SuccessAndDownload(t *testing.T) {
	env := newTestEnv(t)

	req := multipartRequest(t, "notes.txt", "text/plain", []byte("hello world"), map[string]string{
		"outputFormat":    "JSON",
		"includeMetadata": "true",
	})
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("статус: ожидалось 200, получено %d, тело: %s", w.Code, w.Body.String())
	}

	var resp ConvertResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("ошибка разбора ответа: %v", err)
	}
	if !resp.Success {
		t.Error("success = false")
	}
	if resp.FileName != "notes.json" || resp.ContentType != "application/json" {
		t.Errorf("file_name/content_type: %q %q", resp.FileName, resp.ContentType)
	}
	if resp.OriginalSize != 11 || resp.SourceCategory != "document" || resp.TargetFormat != "json" {
		t.Errorf("ответ: %+v", resp)
	}
	if resp.Metadata == nil || resp.Metadata["originalMimeType"] != "text/plain" {
		t.Errorf("metadata: %v", resp.Metadata)
	}

	// Скачивание по пути
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/convert/"+resp.DownloadID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("скачивание: статус %d", w.Code)
	}
	if int64(w.Body.Len()) != resp.Size {
		t.Errorf("скачано %d байт, ожидалось %d", w.Body.Len(), resp.Size)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), `filename="notes.json"`) {
		t.Errorf("Content-Disposition: %q", w.Header().Get("Content-Disposition"))
	}

	// Скачивание через query-параметр
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/convert?id="+resp.DownloadID, nil))
	if w.Code != http.StatusOK {
		t.Errorf("скачивание ?id=: статус %d", w.Code)
	}
}

func TestConvert_NoFile(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, multipartRequest(t, "", "", nil, map[string]string{"outputFormat": "json"}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("статус: ожидалось 400, получено %d", w.Code)
	}
	if e := decodeError(t, w); e.Error.Code != "VALIDATION_ERROR" || e.Error.Message != "No file provided" {
		t.Errorf("ошибка: %+v", e.Error)
	}
}

func TestConvert_InvalidConversion(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, multipartRequest(t, "data.json", "application/json", []byte(`{"a":1}`),
		map[string]string{"outputFormat": "jpg"}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("статус: ожидалось 400, получено %d", w.Code)
	}
	e := decodeError(t, w)
	if e.Error.Code != "INVALID_CONVERSION" {
		t.Errorf("code: %q", e.Error.Code)
	}
	if e.Error.Message != "Invalid conversion: data files cannot be converted to JPG" {
		t.Errorf("message: %q", e.Error.Message)
	}
	if !strings.HasPrefix(e.Error.Suggestion, "Supported formats for data: json") {
		t.Errorf("suggestion: %q", e.Error.Suggestion)
	}
}

func TestConvert_TooLarge(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, multipartRequest(t, "big.txt", "text/plain", make([]byte, 4096),
		map[string]string{"outputFormat": "json"}))

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("статус: ожидалось 413, получено %d", w.Code)
	}
	if e := decodeError(t, w); e.Error.Code != "FILE_TOO_LARGE" {
		t.Errorf("code: %q", e.Error.Code)
	}
}

func TestConvert_Throttled(t *testing.T) {
	env := newTestEnv(t)
	if err := env.gate.Apply(throttle.SeverityWarning, time.Now()); err != nil {
		t.Fatalf("ошибка Apply: %v", err)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, multipartRequest(t, "a.txt", "text/plain", []byte("a"), nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("статус: ожидалось 503, получено %d", w.Code)
	}
	e := decodeError(t, w)
	if e.Error.Code != "SYSTEM_UNAVAILABLE" || !e.Error.RateLimited {
		t.Errorf("ошибка: %+v", e.Error)
	}
	if e.Error.TimeRemaining != 30 {
		t.Errorf("time_remaining: ожидалось 30, получено %d", e.Error.TimeRemaining)
	}
	retry, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil || retry <= 0 || retry > 1800 {
		t.Errorf("Retry-After: %q", w.Header().Get("Retry-After"))
	}
	if env.store.Stats().Count != 0 {
		t.Error("артефакт сохранён при блокировке")
	}

	// readiness отражает блокировку
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("/health/ready: ожидалось 503, получено %d", w.Code)
	}
	var ready healthReadyResponse
	_ = json.Unmarshal(w.Body.Bytes(), &ready)
	if ready.Status != "degraded" || ready.Checks.Admission.Message != "High system load" {
		t.Errorf("/health/ready: %+v", ready)
	}
}

func TestDownload_NotFound(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/v1/convert/missing", "/api/v1/convert?id=missing", "/api/v1/convert"} {
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: ожидалось 404, получено %d", path, w.Code)
			continue
		}
		if e := decodeError(t, w); e.Error.Message != "File not found or expired" {
			t.Errorf("%s: message %q", path, e.Error.Message)
		}
	}
}

func TestGetFormats(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/formats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("статус %d", w.Code)
	}

	var resp FormatsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("ошибка разбора: %v", err)
	}
	if len(resp.Targets) != 20 {
		t.Errorf("targets: ожидалось 20, получено %d (%v)", len(resp.Targets), resp.Targets)
	}
	if len(resp.Groups) != 4 || resp.Groups[0].Name != "images" {
		t.Errorf("groups: %+v", resp.Groups)
	}
	if len(resp.Categories) == 0 || len(resp.Rules) == 0 {
		t.Error("пустые categories/rules")
	}
}

func TestGetInfo(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/info", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("статус %d", w.Code)
	}

	var resp InfoResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("ошибка разбора: %v", err)
	}
	if resp.Service != "converter" || resp.ServiceID != "cv-test" || resp.Status != "online" {
		t.Errorf("info: %+v", resp)
	}
	if resp.Artifacts.BytesHuman != "0 B" || resp.Artifacts.Retention != "1h0m0s" {
		t.Errorf("artifacts: %+v", resp.Artifacts)
	}
	if !resp.Dependencies["system-health:monitor:80"] {
		t.Errorf("dependencies: %v", resp.Dependencies)
	}
}

func TestHealthLive(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("статус %d", w.Code)
	}
	var resp healthLiveResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "ok" || resp.Service != "converter" {
		t.Errorf("ответ: %+v", resp)
	}

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusOK {
		t.Errorf("/health/ready: статус %d", w.Code)
	}
}
