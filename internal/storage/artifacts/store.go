// Пакет artifacts — потокобезопасное in-memory хранилище сконвертированных
// файлов между синхронной конвертацией и последующим скачиванием.
//
// Запись живёт Retention (по умолчанию 1 час) и удаляется лениво:
// очистка выполняется при каждом Put, фонового таймера нет.
// Чтение не удаляет запись и не продлевает её жизнь.
//
// Ёмкость по умолчанию не ограничена (Unbounded). При заданной ёмкости
// simplelru из hashicorp/golang-lru/v2 вытесняет самую старую по вставке
// запись.
//
// Не персистентное: при рестарте содержимое теряется.
package artifacts

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/converter/internal/domain/model"
)

// DefaultRetention — время хранения артефакта.
const DefaultRetention = time.Hour

// Unbounded — ёмкость без ограничения: запись удаляется только по
// истечении Retention.
const Unbounded = 0

// Prometheus-метрики хранилища.
var (
	artifactsStored = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cv_artifacts_stored",
		Help: "Текущее количество артефактов во временном хранилище.",
	})
	artifactsBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cv_artifacts_bytes",
		Help: "Суммарный объём артефактов во временном хранилище в байтах.",
	})
	artifactsEvictedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cv_artifacts_evicted_total",
		Help: "Общее количество вытесненных артефактов.",
	}, []string{"reason"})
	artifactLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cv_artifact_lookups_total",
		Help: "Общее количество обращений к хранилищу артефактов.",
	}, []string{"result"})
)

// HandleStrategy — способ формирования дескриптора скачивания.
type HandleStrategy string

const (
	// HandleFromName — обратимая кодировка отображаемого имени.
	// Две конвертации с одинаковым именем результата получают один
	// дескриптор, и более поздний Put перезаписывает запись.
	HandleFromName HandleStrategy = "name"
	// HandleRandom — непрозрачный UUID v4, не связанный с именем.
	HandleRandom HandleStrategy = "random"
)

// ParseHandleStrategy проверяет строковое значение стратегии.
func ParseHandleStrategy(s string) (HandleStrategy, error) {
	switch HandleStrategy(s) {
	case HandleFromName, HandleRandom:
		return HandleStrategy(s), nil
	default:
		return "", fmt.Errorf("недопустимая стратегия дескриптора %q, допустимые: name, random", s)
	}
}

// NewHandle формирует дескриптор для отображаемого имени результата.
func (s HandleStrategy) NewHandle(displayName string) string {
	if s == HandleRandom {
		return uuid.NewString()
	}
	return base64.RawURLEncoding.EncodeToString([]byte(displayName))
}

// Stats — сводка по содержимому хранилища.
type Stats struct {
	Count int   `json:"count"`
	Bytes int64 `json:"bytes"`
}

// Store — временное хранилище артефактов.
type Store struct {
	mu        sync.Mutex
	items     *simplelru.LRU[string, *model.Artifact]
	bytes     int64
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// New создаёт хранилище с указанным временем хранения и ёмкостью
// (Unbounded — без ограничения).
func New(retention time.Duration, maxItems int, logger *slog.Logger) (*Store, error) {
	return NewWithClock(retention, maxItems, time.Now, logger)
}

// NewWithClock создаёт хранилище с заданным источником времени.
// Используется в тестах для управления временем.
func NewWithClock(retention time.Duration, maxItems int, now func() time.Time, logger *slog.Logger) (*Store, error) {
	if retention <= 0 {
		return nil, fmt.Errorf("время хранения должно быть положительным, получено %s", retention)
	}
	if maxItems < 0 {
		return nil, fmt.Errorf("ёмкость не может быть отрицательной, получено %d", maxItems)
	}
	capacity := maxItems
	if capacity == Unbounded {
		capacity = math.MaxInt
	}

	s := &Store{
		retention: retention,
		now:       now,
		logger:    logger.With(slog.String("component", "artifact_store")),
	}

	// Колбэк вызывается из Add/Remove, то есть всегда под s.mu
	items, err := simplelru.NewLRU[string, *model.Artifact](capacity, func(_ string, a *model.Artifact) {
		s.bytes -= int64(len(a.Data))
	})
	if err != nil {
		return nil, fmt.Errorf("создание LRU ёмкостью %d: %w", capacity, err)
	}
	s.items = items

	return s, nil
}

// Put сохраняет артефакт под его дескриптором, перезаписывая существующий.
// CreatedAt выставляется по часам хранилища. После вставки удаляются
// записи старше Retention.
func (s *Store) Put(a model.Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	a.CreatedAt = now

	if old, ok := s.items.Peek(a.Handle); ok {
		s.bytes -= int64(len(old.Data))
		s.logger.Debug("Артефакт перезаписан",
			slog.String("handle", a.Handle),
			slog.String("file_name", old.FileName),
		)
	}

	stored := a
	if s.items.Add(a.Handle, &stored) {
		artifactsEvictedTotal.WithLabelValues("capacity").Inc()
		s.logger.Warn("Хранилище артефактов заполнено, самая старая запись вытеснена",
			slog.Int("capacity", s.items.Len()),
		)
	}
	s.bytes += int64(len(a.Data))

	s.sweepLocked(now)
	s.updateGaugesLocked()
}

// Get возвращает копию артефакта по дескриптору.
// Не удаляет запись и не продлевает срок её жизни.
func (s *Store) Get(handle string) (*model.Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.items.Peek(handle)
	if !ok {
		artifactLookupsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	artifactLookupsTotal.WithLabelValues("hit").Inc()

	copied := *a
	return &copied, true
}

// Stats возвращает количество и суммарный объём артефактов.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Count: s.items.Len(), Bytes: s.bytes}
}

// Retention возвращает время хранения артефакта.
func (s *Store) Retention() time.Duration {
	return s.retention
}

// sweepLocked просматривает все записи. Вызывать под s.mu.
func (s *Store) sweepLocked(now time.Time) int {
	cutoff := now.Add(-s.retention)
	removed := 0

	for _, handle := range s.items.Keys() {
		a, ok := s.items.Peek(handle)
		if !ok || !a.CreatedAt.Before(cutoff) {
			continue
		}
		s.items.Remove(handle)
		removed++

		s.logger.Debug("Артефакт удалён по истечении срока хранения",
			slog.String("handle", handle),
			slog.String("file_name", a.FileName),
			slog.Time("created_at", a.CreatedAt),
		)
	}

	if removed > 0 {
		artifactsEvictedTotal.WithLabelValues("expired").Add(float64(removed))
		s.logger.Info("Очистка артефактов завершена",
			slog.Int("removed", removed),
			slog.Int("remaining", s.items.Len()),
		)
	}
	return removed
}

func (s *Store) updateGaugesLocked() {
	artifactsStored.Set(float64(s.items.Len()))
	artifactsBytes.Set(float64(s.bytes))
}
