package observability

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsManager manages metrics collection
type MetricsManager struct {
	config        MetricsConfig
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter

	// Task lifecycle metrics
	tasksActive     metric.Int64UpDownCounter
	taskCreateTotal metric.Int64Counter
	taskStopTotal   metric.Int64Counter
	taskErrorTotal  metric.Int64Counter

	// Policy bundle metrics
	bundlesActive     metric.Int64UpDownCounter
	bundleLoadTotal   metric.Int64Counter
	bundleReloadTotal metric.Int64Counter
	bundleFailTotal   metric.Int64Counter

	// Resource metrics
	cpuUsage    metric.Float64Histogram
	memoryUsage metric.Int64Histogram
	diskUsage   metric.Int64Histogram
	networkRx   metric.Int64Counter
	networkTx   metric.Int64Counter

	// Operation metrics
	operationDuration metric.Float64Histogram
	operationTotal    metric.Int64Counter

	mu sync.RWMutex
}

// NewMetricsManager creates a new metrics manager
func NewMetricsManager(serviceName string, config MetricsConfig, exporters *ExporterManager) (*MetricsManager, error) {
	mm := &MetricsManager{
		config: config,
	}

	// Create meter provider
	opts := []sdkmetric.Option{}

	// Add metric exporters
	if exporters != nil {
		for _, reader := range exporters.GetMetricReaders() {
			opts = append(opts, sdkmetric.WithReader(reader))
		}
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	mm.meterProvider = mp

	// Get meter
	mm.meter = mp.Meter(serviceName)

	// Initialize metrics
	if err := mm.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return mm, nil
}

// initMetrics initializes all metrics
func (mm *MetricsManager) initMetrics() error {
	var err error

	// Task lifecycle metrics
	mm.tasksActive, err = mm.meter.Int64UpDownCounter(
		"gateway_tasks_active",
		metric.WithDescription("Number of tasks not yet in a terminal state"),
	)
	if err != nil {
		return err
	}

	mm.taskCreateTotal, err = mm.meter.Int64Counter(
		"gateway_task_create_total",
		metric.WithDescription("Total number of tasks admitted into the registry"),
	)
	if err != nil {
		return err
	}

	mm.taskStopTotal, err = mm.meter.Int64Counter(
		"gateway_task_stop_total",
		metric.WithDescription("Total number of tasks that reached a terminal state"),
	)
	if err != nil {
		return err
	}

	mm.taskErrorTotal, err = mm.meter.Int64Counter(
		"gateway_task_error_total",
		metric.WithDescription("Total number of tasks that failed"),
	)
	if err != nil {
		return err
	}

	// Policy bundle metrics
	mm.bundlesActive, err = mm.meter.Int64UpDownCounter(
		"gateway_policy_bundles_active",
		metric.WithDescription("Number of policy bundles currently loaded (always 0 or 1)"),
	)
	if err != nil {
		return err
	}

	mm.bundleLoadTotal, err = mm.meter.Int64Counter(
		"gateway_policy_bundle_load_total",
		metric.WithDescription("Total number of policy bundle loads at startup"),
	)
	if err != nil {
		return err
	}

	mm.bundleReloadTotal, err = mm.meter.Int64Counter(
		"gateway_policy_bundle_reload_total",
		metric.WithDescription("Total number of successful SIGHUP policy bundle reloads"),
	)
	if err != nil {
		return err
	}

	mm.bundleFailTotal, err = mm.meter.Int64Counter(
		"gateway_policy_bundle_reload_fail_total",
		metric.WithDescription("Total number of policy bundle reloads that kept the previous bundle"),
	)
	if err != nil {
		return err
	}

	// Resource metrics
	mm.cpuUsage, err = mm.meter.Float64Histogram(
		"gateway_sandbox_cpu_usage",
		metric.WithDescription("Sandboxed task CPU usage in cores"),
		metric.WithUnit("cores"),
	)
	if err != nil {
		return err
	}

	mm.memoryUsage, err = mm.meter.Int64Histogram(
		"gateway_sandbox_memory_usage_bytes",
		metric.WithDescription("Sandboxed task memory usage in bytes"),
		metric.WithUnit("bytes"),
	)
	if err != nil {
		return err
	}

	mm.diskUsage, err = mm.meter.Int64Histogram(
		"gateway_sandbox_disk_usage_bytes",
		metric.WithDescription("Sandboxed task disk usage in bytes"),
		metric.WithUnit("bytes"),
	)
	if err != nil {
		return err
	}

	mm.networkRx, err = mm.meter.Int64Counter(
		"gateway_sandbox_network_rx_bytes",
		metric.WithDescription("Sandboxed task network bytes received"),
		metric.WithUnit("bytes"),
	)
	if err != nil {
		return err
	}

	mm.networkTx, err = mm.meter.Int64Counter(
		"gateway_sandbox_network_tx_bytes",
		metric.WithDescription("Sandboxed task network bytes transmitted"),
		metric.WithUnit("bytes"),
	)
	if err != nil {
		return err
	}

	// Operation metrics
	mm.operationDuration, err = mm.meter.Float64Histogram(
		"gateway_operation_duration_seconds",
		metric.WithDescription("Gateway operation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	mm.operationTotal, err = mm.meter.Int64Counter(
		"gateway_operation_total",
		metric.WithDescription("Total number of gateway operations"),
	)
	if err != nil {
		return err
	}

	return nil
}

// RecordTaskCreated records a task's admission into the registry.
func (mm *MetricsManager) RecordTaskCreated(ctx context.Context, attrs ...metric.AddOption) {
	mm.tasksActive.Add(ctx, 1, attrs...)
	mm.taskCreateTotal.Add(ctx, 1, attrs...)
}

// RecordTaskStopped records a task reaching any terminal state.
func (mm *MetricsManager) RecordTaskStopped(ctx context.Context, attrs ...metric.AddOption) {
	mm.tasksActive.Add(ctx, -1, attrs...)
	mm.taskStopTotal.Add(ctx, 1, attrs...)
}

// RecordTaskError records a task reaching the Failed state.
func (mm *MetricsManager) RecordTaskError(ctx context.Context, attrs ...metric.AddOption) {
	mm.taskErrorTotal.Add(ctx, 1, attrs...)
}

// RecordBundleLoaded records the initial policy bundle load at startup.
func (mm *MetricsManager) RecordBundleLoaded(ctx context.Context, attrs ...metric.AddOption) {
	mm.bundlesActive.Add(ctx, 1, attrs...)
	mm.bundleLoadTotal.Add(ctx, 1, attrs...)
}

// RecordBundleReloaded records a successful SIGHUP bundle reload.
func (mm *MetricsManager) RecordBundleReloaded(ctx context.Context, attrs ...metric.AddOption) {
	mm.bundleReloadTotal.Add(ctx, 1, attrs...)
}

// RecordBundleReloadFailed records a reload attempt that kept the
// previous bundle.
func (mm *MetricsManager) RecordBundleReloadFailed(ctx context.Context, attrs ...metric.AddOption) {
	mm.bundleFailTotal.Add(ctx, 1, attrs...)
}

// RecordCPUUsage records CPU usage
func (mm *MetricsManager) RecordCPUUsage(ctx context.Context, usage float64, attrs ...metric.RecordOption) {
	mm.cpuUsage.Record(ctx, usage, attrs...)
}

// RecordMemoryUsage records memory usage
func (mm *MetricsManager) RecordMemoryUsage(ctx context.Context, usage int64, attrs ...metric.RecordOption) {
	mm.memoryUsage.Record(ctx, usage, attrs...)
}

// RecordDiskUsage records disk usage
func (mm *MetricsManager) RecordDiskUsage(ctx context.Context, usage int64, attrs ...metric.RecordOption) {
	mm.diskUsage.Record(ctx, usage, attrs...)
}

// RecordNetworkRx records network bytes received
func (mm *MetricsManager) RecordNetworkRx(ctx context.Context, bytes int64, attrs ...metric.AddOption) {
	mm.networkRx.Add(ctx, bytes, attrs...)
}

// RecordNetworkTx records network bytes transmitted
func (mm *MetricsManager) RecordNetworkTx(ctx context.Context, bytes int64, attrs ...metric.AddOption) {
	mm.networkTx.Add(ctx, bytes, attrs...)
}

// RecordOperationDuration records operation duration
func (mm *MetricsManager) RecordOperationDuration(ctx context.Context, duration float64, attrs ...metric.RecordOption) {
	mm.operationDuration.Record(ctx, duration, attrs...)
}

// RecordOperation records an operation
func (mm *MetricsManager) RecordOperation(ctx context.Context, attrs ...metric.AddOption) {
	mm.operationTotal.Add(ctx, 1, attrs...)
}

// Meter exposes the underlying OTel meter so other packages (see
// gateway_hooks.go) can register their own instruments against the same
// provider and exporters instead of standing up a second MeterProvider.
func (mm *MetricsManager) Meter() metric.Meter {
	return mm.meter
}

// Shutdown shuts down the metrics manager
func (mm *MetricsManager) Shutdown(ctx context.Context) error {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	if mm.meterProvider != nil {
		return mm.meterProvider.Shutdown(ctx)
	}

	return nil
}
