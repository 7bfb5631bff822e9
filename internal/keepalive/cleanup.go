package keepalive

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/stigoleg/movemouse/internal/logging"
)

// ErrCleanupTimeout is reported when shutdown steps outlive the deadline.
var ErrCleanupTimeout = errors.New("cleanup timeout exceeded")

type cleanupStep struct {
	name string
	fn   func() error
}

// CleanupManager runs shutdown steps in reverse registration order within
// a deadline. Each step is isolated: an error or panic is recorded and the
// next step still runs.
type CleanupManager struct {
	mu      sync.Mutex
	steps   []cleanupStep
	timeout time.Duration
	logger  *slog.Logger

	once sync.Once
	errs []error
}

// NewCleanupManager creates a manager. A non-positive timeout means 5s.
func NewCleanupManager(timeout time.Duration, logger *slog.Logger) *CleanupManager {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &CleanupManager{timeout: timeout, logger: logging.Component(logger, "cleanup")}
}

// RegisterFunc adds a named step. Later registrations run first.
func (cm *CleanupManager) RegisterFunc(name string, fn func() error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.steps = append(cm.steps, cleanupStep{name: name, fn: fn})
}

// Execute runs every step once. Repeated calls return the first result.
// Steps still running at the deadline are abandoned.
func (cm *CleanupManager) Execute() []error {
	cm.once.Do(func() { cm.errs = cm.run() })
	return cm.errs
}

func (cm *CleanupManager) run() []error {
	cm.mu.Lock()
	steps := append([]cleanupStep(nil), cm.steps...)
	cm.mu.Unlock()
	if len(steps) == 0 {
		return nil
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := len(steps) - 1; i >= 0; i-- {
			if err := cm.step(steps[i]); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}
	}()

	timer := time.NewTimer(cm.timeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		cm.logger.Error("cleanup timed out, some resources may not have been released", "timeout", cm.timeout)
		mu.Lock()
		errs = append(errs, ErrCleanupTimeout)
		mu.Unlock()
	}

	mu.Lock()
	defer mu.Unlock()
	return append([]error(nil), errs...)
}

func (cm *CleanupManager) step(s cleanupStep) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			cm.logger.Error("panic during cleanup", "resource", s.name, "panic", r)
			err = fmt.Errorf("%s: panic during cleanup: %v", s.name, r)
		}
	}()
	if err := s.fn(); err != nil {
		cm.logger.Warn("cleanup failed", "resource", s.name, "err", err)
		return fmt.Errorf("%s: %w", s.name, err)
	}
	cm.logger.Debug("cleaned up", "resource", s.name, "took", time.Since(start))
	return nil
}
