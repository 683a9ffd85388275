package workers

import (
	"context"
	"log/slog"
	"os"
	goruntime "runtime"
	"time"

	"github.com/shirou/gopsutil/process"

	"gamehub/observability"
)

// TelemetryWorker periodically logs process health (RSS, CPU, GC) together
// with the runtime counters. Cheap enough to always leave on.
type TelemetryWorker struct {
	log      *slog.Logger
	interval time.Duration
	metrics  *observability.Metrics
}

func NewTelemetryWorker(log *slog.Logger, interval time.Duration, metrics *observability.Metrics) *TelemetryWorker {
	return &TelemetryWorker{log: log, interval: interval, metrics: metrics}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.report(proc)
		}
	}
}

func (w *TelemetryWorker) report(proc *process.Process) {
	snapshot := w.metrics.GetSnapshot()

	var memStats goruntime.MemStats
	goruntime.ReadMemStats(&memStats)

	attrs := []any{
		"alloc_mb", memStats.Alloc / 1024 / 1024,
		"num_gc", memStats.NumGC,
		"goroutines", goruntime.NumGoroutine(),
		"connections_open", snapshot.ConnectionsOpened - snapshot.ConnectionsClosed,
		"messages_routed", snapshot.RoutedMessages,
		"messages_rejected", snapshot.RejectedMessages,
		"auth_failures", snapshot.AuthFailures,
		"events_dropped", snapshot.DroppedEvents,
		"instance_faults", snapshot.InstanceFaults,
	}

	if memInfo, err := proc.MemoryInfo(); err == nil {
		attrs = append(attrs, "rss_mb", memInfo.RSS/1024/1024)
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		attrs = append(attrs, "cpu_percent", cpu)
	}

	w.log.Info("Telemetry", attrs...)
}
