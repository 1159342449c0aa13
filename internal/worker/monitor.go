package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kuldipraj/taskboard/internal/metrics"
	"github.com/kuldipraj/taskboard/internal/model"
	"github.com/kuldipraj/taskboard/internal/service"
)

// Monitor periodically samples collection stats into the log and the
// prometheus task gauges. It never mutates task data.
type Monitor struct {
	service  *service.TaskService
	logger   *zap.Logger
	interval time.Duration
	wg       sync.WaitGroup
	stop     chan struct{}
}

func NewMonitor(srv *service.TaskService, logger *zap.Logger, interval time.Duration) *Monitor {
	return &Monitor{
		service:  srv,
		logger:   logger,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (m *Monitor) Start(ctx context.Context) {
	m.logger.Info("starting stats monitor", zap.Duration("interval", m.interval))

	m.wg.Add(1)
	go m.run(ctx)
}

func (m *Monitor) Stop() {
	close(m.stop)
	m.wg.Wait()
	m.logger.Info("stats monitor stopped")
}

func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sample(ctx)
		}
	}
}

func (m *Monitor) sample(ctx context.Context) {
	stats, err := m.service.Stats(ctx)
	if err != nil {
		m.logger.Error("stats sample failed", zap.Error(err))
		return
	}

	// Publish all known statuses so gauges drop back to zero when the
	// last task of a status disappears.
	for _, status := range []string{model.StatusPending, model.StatusInProgress, model.StatusCompleted} {
		metrics.SetTaskCount(status, stats.ByStatus[status])
	}

	m.logger.Info("task stats",
		zap.Int("total", stats.Total),
		zap.Int("pending", stats.ByStatus[model.StatusPending]),
		zap.Int("in_progress", stats.ByStatus[model.StatusInProgress]),
		zap.Int("completed", stats.ByStatus[model.StatusCompleted]),
	)
}
