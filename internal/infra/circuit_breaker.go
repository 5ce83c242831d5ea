package infra

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// CBState is the state of a CircuitBreaker.
//
//   - Closed: calls pass through and failures are counted.
//   - Open: calls are rejected with *CircuitOpenError until ReintentoEn.
//   - Half-open: one call at a time is let through to test recovery.
type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen matches every *CircuitOpenError.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitOpenError is returned when the breaker rejects a call without
// running it. Callers use it to skip follow-up work against the same backend.
type CircuitOpenError struct {
	Nombre      string
	ReintentoEn time.Time
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("%s: %v (reintento %s)", e.Nombre, ErrCircuitOpen, e.ReintentoEn.Format(time.RFC3339))
}

func (e *CircuitOpenError) Is(target error) bool { return target == ErrCircuitOpen }

type CircuitBreakerConfig struct {
	// Nombre identifies the guarded backend in logs and errors.
	Nombre           string
	FailureThreshold int           // consecutive failures that open the circuit
	SuccessThreshold int           // consecutive half-open successes that close it
	OpenTimeout      time.Duration // time spent open before a trial call is allowed
}

func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Nombre:           "redis",
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
	}
}

// CircuitBreaker is safe for concurrent use.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu          sync.Mutex
	state       CBState
	fallos      int
	exitos      int
	reintentoEn time.Time
	sondeando   bool
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig()
	if cfg.Nombre == "" {
		cfg.Nombre = def.Nombre
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.estado()
}

// Execute runs fn unless the circuit rejects it. The error of fn is returned
// unchanged; a rejection returns *CircuitOpenError.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	sonda, err := cb.admitir()
	if err != nil {
		return err
	}
	err = fn()
	cb.registrar(sonda, err)
	return err
}

// estado moves an expired open circuit to half-open. Caller holds mu.
func (cb *CircuitBreaker) estado() CBState {
	if cb.state == CBOpen && !cb.now().Before(cb.reintentoEn) {
		cb.pasarA(CBHalfOpen)
	}
	return cb.state
}

// admitir reports whether the admitted call is the single half-open trial call.
func (cb *CircuitBreaker) admitir() (bool, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.estado() {
	case CBOpen:
		return false, &CircuitOpenError{Nombre: cb.cfg.Nombre, ReintentoEn: cb.reintentoEn}
	case CBHalfOpen:
		if cb.sondeando {
			return false, &CircuitOpenError{Nombre: cb.cfg.Nombre, ReintentoEn: cb.now()}
		}
		cb.sondeando = true
		return true, nil
	}
	return false, nil
}

func (cb *CircuitBreaker) registrar(sonda bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if sonda {
		cb.sondeando = false
	}

	if err != nil {
		cb.exitos = 0
		cb.fallos++
		if cb.state == CBHalfOpen || cb.fallos >= cb.cfg.FailureThreshold {
			cb.reintentoEn = cb.now().Add(cb.cfg.OpenTimeout)
			cb.pasarA(CBOpen)
		}
		return
	}

	cb.fallos = 0
	if cb.state == CBHalfOpen {
		cb.exitos++
		if cb.exitos >= cb.cfg.SuccessThreshold {
			cb.pasarA(CBClosed)
		}
	}
}

// pasarA records a transition. Caller holds mu.
func (cb *CircuitBreaker) pasarA(to CBState) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	cb.exitos = 0
	if to != CBHalfOpen {
		cb.fallos = 0
	}

	ev := log.Info()
	if to == CBOpen {
		ev = log.Warn().Time("reintento_en", cb.reintentoEn)
	}
	ev.Str("circuito", cb.cfg.Nombre).
		Str("de", from.String()).
		Str("a", to.String()).
		Msg("circuit breaker: cambio de estado")
}
