// Пакет service — бизнес-логика конвертера.
// convert.go — конвейер конвертации: допуск → классификация → политика →
// метаданные → диспетчер → временное хранилище.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apierrors "github.com/bigkaa/goartstore/converter/internal/api/errors"
	"github.com/bigkaa/goartstore/converter/internal/codec"
	"github.com/bigkaa/goartstore/converter/internal/converter"
	"github.com/bigkaa/goartstore/converter/internal/domain/model"
	"github.com/bigkaa/goartstore/converter/internal/domain/policy"
	"github.com/bigkaa/goartstore/converter/internal/domain/throttle"
	"github.com/bigkaa/goartstore/converter/internal/metadata"
	"github.com/bigkaa/goartstore/converter/internal/storage/artifacts"
)

// Результаты конвертации для метрик.
const (
	resultSuccess     = "success"
	resultRejected    = "rejected"
	resultUnsupported = "unsupported"
	resultThrottled   = "throttled"
	resultTooLarge    = "too_large"
	resultFailed      = "failed"
)

// Prometheus метрики конвертаций
var (
	// conversionsTotal — количество конвертаций по категории, формату и результату.
	conversionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cv_conversions_total",
		Help: "Общее количество запросов на конвертацию",
	}, []string{"source_category", "target_format", "result"})

	// conversionDuration — длительность успешных конвертаций.
	conversionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cv_conversion_duration_seconds",
		Help:    "Длительность конвертации в секундах",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"target_format"})
)

// codecSuggestions — подсказки пользователю по подсистеме кодека.
var codecSuggestions = map[codec.Subsystem]string{
	codec.SubsystemImage:       "Image processing failed. Please ensure the file is a valid image format.",
	codec.SubsystemDocument:    "Document processing failed. Please ensure the file is a valid Word document.",
	codec.SubsystemSpreadsheet: "Spreadsheet processing failed. Please ensure the file is a valid Excel file.",
	codec.SubsystemData:        "Data processing failed. Please ensure the file contains valid structured data.",
}

// ConvertParams — параметры запроса на конвертацию.
type ConvertParams struct {
	// FileName — заявленное имя файла
	FileName string
	// MediaType — заявленный MIME-тип
	MediaType string
	// Data — содержимое файла
	Data []byte
	// Target — целевой формат (регистр не важен, пусто — формат по умолчанию)
	Target string
	// Quality — качество для форматов с потерями (0 — по умолчанию)
	Quality int
	// IncludeMetadata — включить блок метаданных
	IncludeMetadata bool
}

// FailureDetails — детали ошибки конвертации для ответа.
type FailureDetails struct {
	FileName     string `json:"file_name"`
	FileType     string `json:"file_type"`
	TargetFormat string `json:"target_format"`
	Timestamp    string `json:"timestamp"`
}

// ConvertError — ошибка конвертации с HTTP-кодом.
type ConvertError struct {
	StatusCode int
	Code       string
	Message    string
	Suggestion string
	// Details — FailureDetails или перечень поддерживаемых форматов
	Details any
	// RetryAfter — оставшееся время блокировки (только SYSTEM_UNAVAILABLE)
	RetryAfter time.Duration
	// TimeRemaining — оставшиеся минуты блокировки (только SYSTEM_UNAVAILABLE)
	TimeRemaining int
	// Err — исходная ошибка
	Err error
}

func (e *ConvertError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ConvertError) Unwrap() error {
	return e.Err
}

// ConvertDefaults — значения по умолчанию для необязательных полей запроса.
type ConvertDefaults struct {
	Format      string
	Quality     int
	MaxFileSize int64
}

// ConvertService — сервис конвертации файлов.
type ConvertService struct {
	gate      *throttle.Gate
	rules     policy.Rules
	registry  *converter.Registry
	extractor *metadata.Extractor
	store     *artifacts.Store
	handles   artifacts.HandleStrategy
	defaults  ConvertDefaults
	now       func() time.Time
	logger    *slog.Logger
}

// NewConvertService создаёт сервис конвертации.
func NewConvertService(
	gate *throttle.Gate,
	rules policy.Rules,
	registry *converter.Registry,
	extractor *metadata.Extractor,
	store *artifacts.Store,
	handles artifacts.HandleStrategy,
	defaults ConvertDefaults,
	logger *slog.Logger,
) *ConvertService {
	return &ConvertService{
		gate:      gate,
		rules:     rules,
		registry:  registry,
		extractor: extractor,
		store:     store,
		handles:   handles,
		defaults:  defaults,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "convert_service")),
	}
}

// Convert выполняет конвертацию и сохраняет результат во временном хранилище.
//
// Поток:
//  1. Проверка шлюза допуска
//  2. Проверка размера файла
//  3. Классификация источника
//  4. Проверка политики (до любых кодеков)
//  5. Метаданные (по запросу)
//  6. Диспетчер стратегий
//  7. Сохранение артефакта
//
// При ошибке артефакт не сохраняется.
func (s *ConvertService) Convert(ctx context.Context, p ConvertParams) (*model.ConversionResult, *ConvertError) {
	start := s.now()
	target := strings.ToLower(strings.TrimSpace(p.Target))
	if target == "" {
		target = s.defaults.Format
	}
	quality := p.Quality
	if quality <= 0 {
		quality = s.defaults.Quality
	}

	// 1. Шлюз допуска
	if d := s.gate.Admit(start); !d.Allowed {
		conversionsTotal.WithLabelValues("", "", resultThrottled).Inc()
		s.logger.Warn("Конвертация отклонена: система недоступна",
			slog.String("reason", d.Reason),
			slog.Int("time_remaining", d.MinutesRemaining),
		)
		return nil, &ConvertError{
			StatusCode:    http.StatusServiceUnavailable,
			Code:          apierrors.CodeSystemUnavailable,
			Message:       fmt.Sprintf("%s. Please try again in %d minutes.", d.Reason, d.MinutesRemaining),
			RetryAfter:    d.RetryAfter,
			TimeRemaining: d.MinutesRemaining,
		}
	}

	// 2. Размер файла
	if s.defaults.MaxFileSize > 0 && int64(len(p.Data)) > s.defaults.MaxFileSize {
		conversionsTotal.WithLabelValues("", "", resultTooLarge).Inc()
		return nil, &ConvertError{
			StatusCode: http.StatusRequestEntityTooLarge,
			Code:       apierrors.CodeFileTooLarge,
			Message:    fmt.Sprintf("File size %d bytes exceeds the limit of %d bytes", len(p.Data), s.defaults.MaxFileSize),
		}
	}

	// 3. Классификация
	src := model.SourceFile{
		Name:      p.FileName,
		MediaType: p.MediaType,
		Data:      p.Data,
		Category:  policy.Classify(p.FileName, p.MediaType),
	}

	// 4. Политика
	if err := s.rules.Check(src.Category, target); err != nil {
		var rej *policy.RejectionError
		errors.As(err, &rej)
		conversionsTotal.WithLabelValues(string(src.Category), metricTarget(s.registry, target), resultRejected).Inc()
		return nil, &ConvertError{
			StatusCode: http.StatusBadRequest,
			Code:       apierrors.CodeInvalidConversion,
			Message:    "Invalid conversion: " + err.Error(),
			Suggestion: rej.Suggestion,
			Err:        err,
		}
	}

	req := model.ConversionRequest{
		Source:          src,
		Target:          target,
		Quality:         quality,
		IncludeMetadata: p.IncludeMetadata,
	}

	if _, err := s.registry.Lookup(req.Target); err != nil {
		var uerr *converter.UnsupportedFormatError
		errors.As(err, &uerr)
		conversionsTotal.WithLabelValues(string(src.Category), "", resultUnsupported).Inc()
		return nil, &ConvertError{
			StatusCode: http.StatusBadRequest,
			Code:       apierrors.CodeUnsupportedFormat,
			Message:    err.Error(),
			Suggestion: "Supported formats: " + uerr.Suggestion(),
			Details:    map[string]any{"supported_formats": uerr.Supported},
			Err:        err,
		}
	}

	// 5. Метаданные
	in := converter.NewInput(req, start)
	if req.IncludeMetadata {
		in.Metadata = s.extractor.Extract(src, start)
	}

	// 6. Конвертация
	out, err := s.registry.Convert(ctx, req.Target, in)
	if err != nil {
		return nil, s.failure(req, err)
	}

	// 7. Сохранение
	fileName := src.BaseName() + "." + out.Extension
	handle := s.handles.NewHandle(fileName)
	s.store.Put(model.Artifact{
		Handle:    handle,
		Data:      out.Data,
		MediaType: out.MediaType,
		FileName:  fileName,
	})

	elapsed := s.now().Sub(start)
	conversionsTotal.WithLabelValues(string(src.Category), target, resultSuccess).Inc()
	conversionDuration.WithLabelValues(target).Observe(elapsed.Seconds())

	s.logger.Info("Файл сконвертирован",
		slog.String("file_name", p.FileName),
		slog.String("source_category", string(src.Category)),
		slog.String("target_format", target),
		slog.Int("original_size", len(p.Data)),
		slog.Int("size", len(out.Data)),
		slog.Duration("duration", elapsed),
	)

	result := &model.ConversionResult{
		Data:             out.Data,
		MediaType:        out.MediaType,
		Extension:        out.Extension,
		FileName:         fileName,
		Size:             int64(len(out.Data)),
		OriginalSize:     src.Size(),
		CompressionRatio: CompressionRatio(int64(len(out.Data)), src.Size()),
		SourceCategory:   src.Category,
		TargetFormat:     target,
		DownloadID:       handle,
	}
	if req.IncludeMetadata {
		result.Metadata = in.Metadata
	}
	return result, nil
}

// failure формирует ответ CONVERSION_FAILED с подсказкой по подсистеме кодека.
func (s *ConvertService) failure(req model.ConversionRequest, err error) *ConvertError {
	src, target := req.Source, req.Target
	conversionsTotal.WithLabelValues(string(src.Category), target, resultFailed).Inc()
	s.logger.Error("Ошибка конвертации",
		slog.String("file_name", src.Name),
		slog.String("media_type", src.MediaType),
		slog.String("target_format", target),
		slog.String("error", err.Error()),
	)

	ce := &ConvertError{
		StatusCode: http.StatusInternalServerError,
		Code:       apierrors.CodeConversionFailed,
		Message:    "Conversion failed: " + err.Error(),
		Details: FailureDetails{
			FileName:     src.Name,
			FileType:     src.MediaType,
			TargetFormat: target,
			Timestamp:    s.now().UTC().Format(time.RFC3339),
		},
		Err: err,
	}
	var cerr *codec.Error
	if errors.As(err, &cerr) {
		ce.Suggestion = codecSuggestions[cerr.Subsystem]
	}
	return ce
}

// CompressionRatio — (1 - size/original) * 100 с двумя знаками и символом %.
// Для пустого исходного файла — 0.00%.
func CompressionRatio(size, original int64) string {
	if original <= 0 {
		return "0.00%"
	}
	ratio := (1 - float64(size)/float64(original)) * 100
	if math.Abs(ratio) < 0.005 {
		ratio = 0
	}
	return fmt.Sprintf("%.2f%%", ratio)
}

// metricTarget ограничивает кардинальность метки target_format
// зарегистрированными форматами.
func metricTarget(r *converter.Registry, target string) string {
	if _, err := r.Lookup(target); err != nil {
		return "other"
	}
	return target
}
