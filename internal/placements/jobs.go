package placements

import (
	"context"
	"sync"
	"time"

	"github.com/raulk/clock"

	"adslot/pkg/logger"
)

// JobProcessor runs the optional expiry sweeper. Expiry stays lazy without it;
// the sweeper only makes promotions visible to consumers of placement events
// without waiting for a reader.
type JobProcessor struct {
	allocator Allocator
	config    *JobConfig
	clock     clock.Clock
	log       *logger.Logger
	done      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup

	mu          sync.Mutex
	running     bool
	lastSweep   time.Time
	lastExpired int
	lastError   string
}

// JobConfig contains configuration for background jobs
type JobConfig struct {
	SweepInterval time.Duration
}

// DefaultJobConfig returns default job configuration
func DefaultJobConfig() *JobConfig {
	return &JobConfig{
		SweepInterval: 1 * time.Minute,
	}
}

// NewJobProcessor creates a new job processor. A missing or non-positive
// interval falls back to the default.
func NewJobProcessor(allocator Allocator, config *JobConfig, clk clock.Clock) *JobProcessor {
	if config == nil || config.SweepInterval <= 0 {
		config = DefaultJobConfig()
	}
	if clk == nil {
		clk = clock.New()
	}
	return &JobProcessor{
		allocator: allocator,
		config:    config,
		clock:     clk,
		log:       logger.GetDefault(),
		done:      make(chan struct{}),
	}
}

// Start starts the sweeper in the background
func (jp *JobProcessor) Start(ctx context.Context) {
	jp.setRunning(true)
	jp.wg.Add(1)
	go jp.startSweeper(ctx)
	jp.log.Info("Placement expiry sweeper started", "interval", jp.config.SweepInterval.String())
}

// Stop stops the sweeper and waits for it to exit
func (jp *JobProcessor) Stop() {
	jp.stopOnce.Do(func() {
		close(jp.done)
	})
	jp.wg.Wait()
	jp.log.Info("Placement expiry sweeper stopped")
}

func (jp *JobProcessor) startSweeper(ctx context.Context) {
	defer jp.wg.Done()
	defer jp.setRunning(false)

	ticker := jp.clock.Ticker(jp.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			jp.sweep(ctx)
		case <-jp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (jp *JobProcessor) sweep(ctx context.Context) {
	expired, err := jp.allocator.SweepExpired(ctx)

	jp.mu.Lock()
	jp.lastSweep = jp.clock.Now()
	jp.lastExpired = expired
	jp.lastError = ""
	if err != nil {
		jp.lastError = err.Error()
	}
	jp.mu.Unlock()

	if err != nil {
		jp.log.ErrorWithContext(ctx, "Error sweeping expired placements", err, nil)
	}
	if expired > 0 {
		jp.log.InfoWithContext(ctx, "Swept expired placements", map[string]interface{}{"expired": expired})
	}
}

func (jp *JobProcessor) setRunning(running bool) {
	jp.mu.Lock()
	jp.running = running
	jp.mu.Unlock()
}

// GetJobStatus reports the sweeper state for the status endpoint
func (jp *JobProcessor) GetJobStatus() map[string]interface{} {
	jp.mu.Lock()
	defer jp.mu.Unlock()

	state := "stopped"
	if jp.running {
		state = "running"
	}
	status := map[string]interface{}{
		"sweep_interval": jp.config.SweepInterval.String(),
		"status":         state,
		"last_expired":   jp.lastExpired,
	}
	if !jp.lastSweep.IsZero() {
		status["last_sweep"] = jp.lastSweep
	}
	if jp.lastError != "" {
		status["last_error"] = jp.lastError
	}
	return status
}
