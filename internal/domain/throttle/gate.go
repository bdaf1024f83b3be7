// Пакет throttle — шлюз допуска (admission gate) для новых конвертаций.
//
// Два состояния:
//   - open — запросы принимаются
//   - throttled(until, reason) — запросы отклоняются до момента until
//
// Переход в throttled выполняется по результату внешней health-проверки
// (Apply), возврат в open — при severity healthy или по истечении until
// при очередном Admit.
//
// Потокобезопасен через sync.RWMutex.
package throttle

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Severity — уровень состояния системы из health endpoint.
type Severity string

const (
	SeverityHealthy  Severity = "healthy"
	SeverityStarting Severity = "starting"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// cooldown — длительность блокировки и причина для каждого уровня.
type cooldown struct {
	duration time.Duration
	reason   string
}

// cooldowns — матрица уровней, переводящих шлюз в throttled.
// healthy отсутствует: он снимает блокировку.
var cooldowns = map[Severity]cooldown{
	SeverityCritical: {60 * time.Minute, "System critical"},
	SeverityWarning:  {30 * time.Minute, "High system load"},
	SeverityStarting: {5 * time.Minute, "System starting"},
}

// State — снимок состояния шлюза.
type State struct {
	Active bool      `json:"active"`
	Until  time.Time `json:"until,omitzero"`
	Reason string    `json:"reason,omitempty"`
}

// Decision — результат проверки допуска.
type Decision struct {
	Allowed bool
	Reason  string
	// MinutesRemaining — ceil((until - now) / 1 минута), 0 при Allowed
	MinutesRemaining int
	// RetryAfter — точное оставшееся время блокировки
	RetryAfter time.Duration
}

// Gate — шлюз допуска. Единственный экземпляр на процесс,
// передаётся в сервисы явно.
type Gate struct {
	mu    sync.RWMutex
	state State
	// lastSeverity — последний применённый уровень (для /api/v1/info)
	lastSeverity Severity
}

// New создаёт шлюз в состоянии open.
func New() *Gate {
	return &Gate{}
}

// Admit проверяет, можно ли принять новую конвертацию в момент now.
// Если блокировка истекла, шлюз переходит в open.
func (g *Gate) Admit(now time.Time) Decision {
	g.mu.RLock()
	st := g.state
	g.mu.RUnlock()

	if !st.Active {
		return Decision{Allowed: true}
	}

	if !now.Before(st.Until) {
		g.mu.Lock()
		// Блокировку могли продлить между RUnlock и Lock
		if g.state.Active && !now.Before(g.state.Until) {
			g.state = State{}
		}
		st = g.state
		g.mu.Unlock()
		if !st.Active {
			return Decision{Allowed: true}
		}
	}

	remaining := st.Until.Sub(now)
	return Decision{
		Allowed:          false,
		Reason:           st.Reason,
		MinutesRemaining: int(math.Ceil(remaining.Minutes())),
		RetryAfter:       remaining,
	}
}

// Apply применяет уровень из health-проверки в момент now.
// Возвращает ошибку для неизвестного уровня; в этом случае шлюз
// открывается, как при healthy.
func (g *Gate) Apply(severity Severity, now time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.lastSeverity = severity

	cd, ok := cooldowns[severity]
	if !ok {
		g.state = State{}
		if severity != SeverityHealthy {
			return fmt.Errorf("неизвестный уровень состояния: %q", severity)
		}
		return nil
	}

	g.state = State{
		Active: true,
		Until:  now.Add(cd.duration),
		Reason: cd.reason,
	}
	return nil
}

// State возвращает копию текущего состояния.
func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// LastSeverity возвращает последний применённый уровень (пусто до первой проверки).
func (g *Gate) LastSeverity() Severity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastSeverity
}
