package docmerge

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Operation is one schedulable unit of work, typically a single file's
// conversion. Operations are stateless; the governor owns all shared state.
type Operation func(ctx context.Context) (ConversionResult, error)

// Governor defaults.
const (
	MinConcurrent = 2

	defaultBatchSize           = 5
	defaultMemoryThresholdMB   = 512
	defaultCPUThresholdPercent = 85.0
	defaultSystemMemoryPct     = 90.0
	defaultPollInterval        = 500 * time.Millisecond
	defaultMaxThrottleWait     = 10 * time.Second
	defaultBatchDelay          = 100 * time.Millisecond

	// cpuSampleWindow is the short sampling window for CPU utilization.
	cpuSampleWindow = 100 * time.Millisecond

	// metricsWindow bounds the rolling processing-time buffer.
	metricsWindow = 50
)

// GovernorConfig bounds concurrent work and resource usage.
type GovernorConfig struct {
	MaxConcurrent       int     // concurrent operations; 0 = 80% of GOMAXPROCS, min 2
	BatchSize           int     // operations per batch; 0 = default
	MemoryThresholdMB   uint64  // heap threshold for throttling and reclamation
	CPUThresholdPercent float64 // CPU utilization gate
	SystemMemoryPercent float64 // system memory utilization gate
	PollInterval        time.Duration
	MaxThrottleWait     time.Duration // bound on throttle blocking; soft limit
	BatchDelay          time.Duration // pause between batches
	DisableParallel     bool          // force sequential execution
	DisableMemoryOpt    bool          // skip post-run memory reclamation
}

// DefaultGovernorConfig returns the default configuration: concurrency at
// 80% of available processing units (minimum 2), with soft resource gates.
func DefaultGovernorConfig() GovernorConfig {
	return GovernorConfig{
		MaxConcurrent:       ResolveConcurrency(0),
		BatchSize:           defaultBatchSize,
		MemoryThresholdMB:   defaultMemoryThresholdMB,
		CPUThresholdPercent: defaultCPUThresholdPercent,
		SystemMemoryPercent: defaultSystemMemoryPct,
		PollInterval:        defaultPollInterval,
		MaxThrottleWait:     defaultMaxThrottleWait,
		BatchDelay:          defaultBatchDelay,
	}
}

// merged overlays non-zero fields of other onto c.
func (c GovernorConfig) merged(other GovernorConfig) GovernorConfig {
	out := c
	if other.MaxConcurrent > 0 {
		out.MaxConcurrent = other.MaxConcurrent
	}
	if other.BatchSize > 0 {
		out.BatchSize = other.BatchSize
	}
	if other.MemoryThresholdMB > 0 {
		out.MemoryThresholdMB = other.MemoryThresholdMB
	}
	if other.CPUThresholdPercent > 0 {
		out.CPUThresholdPercent = other.CPUThresholdPercent
	}
	if other.SystemMemoryPercent > 0 {
		out.SystemMemoryPercent = other.SystemMemoryPercent
	}
	if other.PollInterval > 0 {
		out.PollInterval = other.PollInterval
	}
	if other.MaxThrottleWait > 0 {
		out.MaxThrottleWait = other.MaxThrottleWait
	}
	if other.BatchDelay > 0 {
		out.BatchDelay = other.BatchDelay
	}
	if other.DisableParallel {
		out.DisableParallel = true
	}
	if other.DisableMemoryOpt {
		out.DisableMemoryOpt = true
	}
	return out
}

// ResolveConcurrency determines the concurrent-operation cap.
// Priority: explicit value > 80% of GOMAXPROCS, minimum 2.
func ResolveConcurrency(explicit int) int {
	if explicit > 0 {
		return explicit
	}
	n := runtime.GOMAXPROCS(0) * 80 / 100
	if n < MinConcurrent {
		return MinConcurrent
	}
	return n
}

// usageSample is one point-in-time resource reading.
type usageSample struct {
	CPUPercent    float64
	MemoryUsed    uint64
	MemoryTotal   uint64
	MemoryPercent float64
}

// resourceSampler abstracts system sampling to enable testing without
// depending on host load.
type resourceSampler interface {
	Sample(ctx context.Context) (usageSample, error)
}

// gopsutilSampler reads system CPU and memory via gopsutil.
type gopsutilSampler struct{}

func (gopsutilSampler) Sample(ctx context.Context) (usageSample, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return usageSample{}, fmt.Errorf("sampling memory: %w", err)
	}

	pcts, err := cpu.PercentWithContext(ctx, cpuSampleWindow, false)
	if err != nil {
		return usageSample{}, fmt.Errorf("sampling cpu: %w", err)
	}
	var cpuPct float64
	if len(pcts) > 0 {
		cpuPct = pcts[0]
	}

	return usageSample{
		CPUPercent:    cpuPct,
		MemoryUsed:    vm.Used,
		MemoryTotal:   vm.Total,
		MemoryPercent: vm.UsedPercent,
	}, nil
}

// Governor tracks active-operation counts and resource usage, and executes
// operation lists sequentially or in concurrency-capped batches. Its
// counters and rolling metrics buffer are the only cross-task shared mutable
// state in the pipeline, and only the governor's own methods touch them.
type Governor struct {
	cfg     GovernorConfig
	logger  *slog.Logger
	sampler resourceSampler

	mu        sync.Mutex
	active    int
	queued    int
	durations []time.Duration
}

// NewGovernor creates a governor. Zero-value config fields get defaults.
func NewGovernor(cfg GovernorConfig, logger *slog.Logger) *Governor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Governor{
		cfg:     DefaultGovernorConfig().merged(cfg),
		logger:  logger,
		sampler: gopsutilSampler{},
	}
}

// Execute runs the operations and returns their results in submission
// order, regardless of completion order. Any single failure aborts the call
// (fail-fast, no partial results).
func (g *Governor) Execute(ctx context.Context, ops []Operation) ([]ConversionResult, error) {
	if len(ops) == 0 {
		return nil, nil
	}

	var started atomic.Int64
	wrapped := make([]Operation, len(ops))
	for i, op := range ops {
		op := op
		wrapped[i] = func(ctx context.Context) (ConversionResult, error) {
			started.Add(1)
			return op(ctx)
		}
	}

	g.addQueued(len(ops))
	defer func() {
		// Operations that never started leave the queue now; started ones
		// already left it via opStarted.
		g.addQueued(int(started.Load()) - len(ops))
	}()

	var results []ConversionResult
	var err error
	if g.cfg.DisableParallel || len(ops) == 1 || g.cfg.MaxConcurrent <= 1 {
		results, err = g.executeSequential(ctx, wrapped)
	} else {
		results, err = g.executeBatched(ctx, wrapped)
	}
	if err != nil {
		return nil, err
	}

	if !g.cfg.DisableMemoryOpt {
		g.reclaimMemory()
	}
	return results, nil
}

func (g *Governor) executeSequential(ctx context.Context, ops []Operation) ([]ConversionResult, error) {
	results := make([]ConversionResult, len(ops))
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := g.runOp(ctx, op)
		if err != nil {
			return nil, err
		}
		results[i] = res
	}
	return results, nil
}

func (g *Governor) executeBatched(ctx context.Context, ops []Operation) ([]ConversionResult, error) {
	batchSize := g.cfg.BatchSize
	if batchSize > g.cfg.MaxConcurrent {
		batchSize = g.cfg.MaxConcurrent
	}
	if batchSize < 1 {
		batchSize = 1
	}

	results := make([]ConversionResult, len(ops))

	for start := 0; start < len(ops); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + batchSize
		if end > len(ops) {
			end = len(ops)
		}

		if err := g.throttle(ctx); err != nil {
			return nil, err
		}

		if err := g.runBatch(ctx, ops[start:end], results[start:end]); err != nil {
			return nil, err
		}

		// Small pause between batches avoids back-to-back resource spikes.
		if end < len(ops) && g.cfg.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(g.cfg.BatchDelay):
			}
		}
	}

	return results, nil
}

// indexedResult carries one worker's outcome back to the collector.
type indexedResult struct {
	index int
	res   ConversionResult
	err   error
}

// runBatch executes one batch on a fixed pool of workers pulling indices
// from a shared task channel and posting typed results back. Results land
// in out by submission index; the lowest-index error wins for determinism.
func (g *Governor) runBatch(ctx context.Context, batch []Operation, out []ConversionResult) error {
	workers := g.cfg.MaxConcurrent
	if workers > len(batch) {
		workers = len(batch)
	}

	tasks := make(chan int)
	resultCh := make(chan indexedResult)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				res, err := g.runOp(ctx, batch[i])
				resultCh <- indexedResult{index: i, res: res, err: err}
			}
		}()
	}

	go func() {
		defer close(tasks)
		for i := range batch {
			select {
			case tasks <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var firstErr error
	firstErrIndex := len(batch)
	received := 0
	for r := range resultCh {
		received++
		if r.err != nil {
			if r.index < firstErrIndex {
				firstErr = r.err
				firstErrIndex = r.index
			}
			continue
		}
		out[r.index] = r.res
	}

	if firstErr != nil {
		return firstErr
	}
	if received < len(batch) {
		// Submission loop stopped early; only a canceled context does that.
		return ctx.Err()
	}
	return nil
}

// runOp executes one operation, maintaining the governor's counters and
// rolling duration buffer. Task code never mutates governor state directly.
func (g *Governor) runOp(ctx context.Context, op Operation) (ConversionResult, error) {
	g.opStarted()
	start := time.Now()
	res, err := op(ctx)
	g.opFinished(time.Since(start))
	return res, err
}

func (g *Governor) opStarted() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active++
	if g.queued > 0 {
		g.queued--
	}
}

func (g *Governor) opFinished(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active--
	g.durations = append(g.durations, d)
	if len(g.durations) > metricsWindow {
		g.durations = g.durations[len(g.durations)-metricsWindow:]
	}
}

func (g *Governor) addQueued(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queued += n
	if g.queued < 0 {
		g.queued = 0
	}
}

// throttle blocks while resource usage exceeds thresholds, polling on a
// fixed interval up to a bounded maximum wait, after which it proceeds
// anyway with a warning. Soft limit, not hard admission control.
func (g *Governor) throttle(ctx context.Context) error {
	deadline := time.Now().Add(g.cfg.MaxThrottleWait)

	for {
		exceeded, reason := g.thresholdExceeded(ctx)
		if !exceeded {
			return nil
		}

		if time.Now().After(deadline) {
			g.logger.Warn("resource throttle wait timed out, proceeding anyway",
				"reason", reason, "waited", g.cfg.MaxThrottleWait)
			return nil
		}

		g.logger.Debug("throttling before batch", "reason", reason)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.cfg.PollInterval):
		}
	}
}

// thresholdExceeded samples current usage and reports the first breached
// gate: heap, system memory percentage, CPU, or in-flight operations.
func (g *Governor) thresholdExceeded(ctx context.Context) (bool, string) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	heapMB := ms.HeapAlloc >> 20
	if g.cfg.MemoryThresholdMB > 0 && heapMB > g.cfg.MemoryThresholdMB {
		return true, fmt.Sprintf("heap %dMB over %dMB", heapMB, g.cfg.MemoryThresholdMB)
	}

	s, err := g.sampler.Sample(ctx)
	if err != nil {
		// Sampling failure never blocks admission.
		g.logger.Debug("resource sample failed", "error", err)
		return false, ""
	}
	if g.cfg.SystemMemoryPercent > 0 && s.MemoryPercent > g.cfg.SystemMemoryPercent {
		return true, fmt.Sprintf("system memory %.1f%% over %.1f%%", s.MemoryPercent, g.cfg.SystemMemoryPercent)
	}
	if g.cfg.CPUThresholdPercent > 0 && s.CPUPercent > g.cfg.CPUThresholdPercent {
		return true, fmt.Sprintf("cpu %.1f%% over %.1f%%", s.CPUPercent, g.cfg.CPUThresholdPercent)
	}

	g.mu.Lock()
	active := g.active
	g.mu.Unlock()
	if active >= g.cfg.MaxConcurrent {
		return true, fmt.Sprintf("%d operations in flight", active)
	}

	return false, ""
}

// reclaimMemory issues an explicit reclamation hint and trims the metrics
// buffer when heap usage exceeds the configured threshold.
func (g *Governor) reclaimMemory() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.HeapAlloc>>20 <= g.cfg.MemoryThresholdMB {
		return
	}

	runtime.GC()

	g.mu.Lock()
	if len(g.durations) > metricsWindow/2 {
		g.durations = g.durations[len(g.durations)-metricsWindow/2:]
	}
	g.mu.Unlock()

	g.logger.Debug("memory reclamation hint issued", "heapMB", ms.HeapAlloc>>20)
}

// Snapshot returns a point-in-time view of resource usage and governor
// counters, including the rolling average processing time.
func (g *Governor) Snapshot(ctx context.Context) ResourceSnapshot {
	s, err := g.sampler.Sample(ctx)
	if err != nil {
		g.logger.Debug("resource sample failed", "error", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var avg time.Duration
	if len(g.durations) > 0 {
		var total time.Duration
		for _, d := range g.durations {
			total += d
		}
		avg = total / time.Duration(len(g.durations))
	}

	return ResourceSnapshot{
		CPUPercent:        s.CPUPercent,
		MemoryUsed:        s.MemoryUsed,
		MemoryTotal:       s.MemoryTotal,
		MemoryPercent:     s.MemoryPercent,
		ActiveOperations:  g.active,
		QueuedOperations:  g.queued,
		AvgProcessingTime: avg,
	}
}
