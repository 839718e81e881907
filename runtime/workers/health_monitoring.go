package workers

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"task-portal/observability"

	"github.com/shirou/gopsutil/process"
)

// HealthMonitoringWorker periodically samples the server's own process
// (CPU, RAM, goroutines, GC) and feeds the observability manager.
type HealthMonitoringWorker struct {
	log            *slog.Logger
	monitor        *observability.Manager
	metricInterval time.Duration
}

func NewHealthMonitoringWorker(log *slog.Logger, monitor *observability.Manager,
	metricInterval time.Duration) *HealthMonitoringWorker {
	return &HealthMonitoringWorker{log: log, monitor: monitor, metricInterval: metricInterval}
}

func (w *HealthMonitoringWorker) Run(ctx context.Context) error {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health sampling")
			return nil
		case <-ticker.C:
			cpu, err := proc.CPUPercent()
			if err != nil {
				w.log.Error("Error while finding process cpu usage", "err", err)
				continue
			}
			ram, err := proc.MemoryPercent()
			if err != nil {
				w.log.Error("Error while finding process ram usage", "err", err)
				continue
			}

			var mem runtime.MemStats
			runtime.ReadMemStats(&mem)

			w.monitor.RecordSystem(cpu, ram, runtime.NumGoroutine(),
				mem.Alloc/1024/1024, mem.NumGC)
		}
	}
}
