package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ticketero/queue-service/internal/observability"
	"github.com/ticketero/queue-service/internal/service"
)

// Engine drives the two periodic loops: the queue loop (no-show sweep,
// assignment, position recompute) and the message loop (delivery queue
// drain). Ticks run to completion; a slow tick delays the next one
// instead of overlapping it.
type Engine struct {
	sweeper     *service.SweeperService
	assignments *service.AssignmentService
	positions   *service.PositionService
	deliveries  *service.DeliveryService
	metrics     *observability.Metrics
	logger      *zap.Logger

	queueInterval   time.Duration
	messageInterval time.Duration

	wg sync.WaitGroup
}

// EngineDependencies bundles collaborators.
type EngineDependencies struct {
	Sweeper         *service.SweeperService
	Assignments     *service.AssignmentService
	Positions       *service.PositionService
	Deliveries      *service.DeliveryService
	Metrics         *observability.Metrics
	Logger          *zap.Logger
	QueueInterval   time.Duration
	MessageInterval time.Duration
}

// NewEngine constructs the engine.
func NewEngine(deps EngineDependencies) *Engine {
	queueInterval := deps.QueueInterval
	if queueInterval <= 0 {
		queueInterval = 5 * time.Second
	}
	messageInterval := deps.MessageInterval
	if messageInterval <= 0 {
		messageInterval = time.Minute
	}
	return &Engine{
		sweeper:         deps.Sweeper,
		assignments:     deps.Assignments,
		positions:       deps.Positions,
		deliveries:      deps.Deliveries,
		metrics:         deps.Metrics,
		logger:          deps.Logger,
		queueInterval:   queueInterval,
		messageInterval: messageInterval,
	}
}

// Start launches both loops. They stop when ctx is cancelled; Wait blocks
// until the in-flight ticks have drained.
func (e *Engine) Start(ctx context.Context) {
	e.wg.Add(2)
	go e.loop(ctx, "queue", e.queueInterval, e.queueTick)
	go e.loop(ctx, "message", e.messageInterval, e.messageTick)
}

// Wait blocks until both loops have exited.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) loop(ctx context.Context, name string, interval time.Duration, tick func(context.Context)) {
	defer e.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info("engine loop started",
		zap.String("loop", name), zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine loop stopped", zap.String("loop", name))
			return
		case <-ticker.C:
			start := time.Now()
			tick(ctx)
			e.metrics.ObserveTick(name, time.Since(start))
		}
	}
}

// queueTick runs the sweep first so expired no-shows release advisor
// capacity before assignment, recomputes positions and proximity alerts
// next, then drains the head of the queue into the freed capacity.
func (e *Engine) queueTick(ctx context.Context) {
	if expired, err := e.sweeper.RunTick(ctx); err != nil {
		e.logger.Error("no-show sweep failed", zap.Error(err))
	} else if expired > 0 {
		e.logger.Info("no-show sweep expired tickets", zap.Int("count", expired))
	}

	if err := e.positions.RunTick(ctx); err != nil {
		e.logger.Error("position recompute failed", zap.Error(err))
	}

	if assigned, err := e.assignments.RunTick(ctx); err != nil {
		e.logger.Error("assignment pass failed", zap.Error(err))
	} else if assigned > 0 {
		e.logger.Info("assignment pass bound tickets", zap.Int("count", assigned))
	}
}

func (e *Engine) messageTick(ctx context.Context) {
	if sent, err := e.deliveries.RunTick(ctx); err != nil {
		e.logger.Error("delivery pass failed", zap.Error(err))
	} else if sent > 0 {
		e.logger.Info("delivery pass sent messages", zap.Int("count", sent))
	}
}
