// Package retrain имитирует фоновое переобучение модели с отслеживанием прогресса.
// Модель не меняется: задача только проходит фиксированные шаги.
package retrain

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Состояния задачи
const (
	StateIdle      = "idle"
	StateRunning   = "running"
	StateCompleted = "completed"
	StateCancelled = "cancelled"
)

// ErrAlreadyRunning задача уже выполняется
var ErrAlreadyRunning = errors.New("retrain job is already running")

// Steps шаги переобучения в порядке выполнения
var Steps = []string{
	"Loading new data",
	"Validating dataset",
	"Preparing features",
	"Fitting model",
	"Cross-validation",
	"Saving weights",
	"Reloading service",
}

// Status снимок состояния задачи
type Status struct {
	JobID      string     `json:"job_id,omitempty"`
	Status     string     `json:"status"`
	Progress   int        `json:"progress"`
	Step       int        `json:"step"`
	TotalSteps int        `json:"total_steps"`
	Message    string     `json:"message"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Manager запускает не более одной задачи одновременно
type Manager struct {
	stepDuration time.Duration
	logger       *zap.Logger
	onProgress   func(progress int)

	mu     sync.Mutex
	status Status
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager создает менеджер; onProgress может быть nil
func NewManager(stepDuration time.Duration, logger *zap.Logger, onProgress func(int)) *Manager {
	if onProgress == nil {
		onProgress = func(int) {}
	}
	return &Manager{
		stepDuration: stepDuration,
		logger:       logger.Named("retrain"),
		onProgress:   onProgress,
		status: Status{
			Status:     StateIdle,
			TotalSteps: len(Steps),
			Message:    "No retrain job has been started",
		},
	}
}

// Start запускает задачу в фоне. Отмена ctx запроса задачу не прерывает,
// для этого есть Stop.
func (m *Manager) Start(ctx context.Context) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status.Status == StateRunning {
		return m.status, ErrAlreadyRunning
	}

	started := time.Now().UTC()
	m.status = Status{
		JobID:      uuid.NewString(),
		Status:     StateRunning,
		TotalSteps: len(Steps),
		Message:    "Retrain started",
		StartedAt:  &started,
	}

	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.wg.Add(1)
	go m.run(jobCtx, m.status.JobID)

	m.logger.Info("retrain job started", zap.String("job_id", m.status.JobID))
	return m.status, nil
}

func (m *Manager) run(ctx context.Context, jobID string) {
	defer m.wg.Done()

	for i, step := range Steps {
		m.update(func(s *Status) {
			s.Step = i + 1
			s.Progress = i * 100 / len(Steps)
			s.Message = step
		})

		select {
		case <-ctx.Done():
			m.logger.Info("retrain job cancelled", zap.String("job_id", jobID), zap.Int("step", i+1))
			m.finish(StateCancelled, "Retrain cancelled")
			return
		case <-time.After(m.stepDuration):
		}
	}

	m.logger.Info("retrain job completed", zap.String("job_id", jobID))
	m.finish(StateCompleted, "Retrain completed")
}

func (m *Manager) update(fn func(*Status)) {
	m.mu.Lock()
	fn(&m.status)
	progress := m.status.Progress
	m.mu.Unlock()

	m.onProgress(progress)
}

// finish фиксирует итог задачи; статус и cancel меняются в одной критической секции
func (m *Manager) finish(state, message string) {
	m.mu.Lock()
	finished := time.Now().UTC()
	m.status.Status = state
	m.status.Message = message
	m.status.FinishedAt = &finished
	if state == StateCompleted {
		m.status.Progress = 100
		m.status.Step = len(Steps)
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	progress := m.status.Progress
	m.mu.Unlock()

	m.onProgress(progress)
}

// Status возвращает копию текущего состояния
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Stop отменяет текущую задачу и дожидается ее завершения
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}
