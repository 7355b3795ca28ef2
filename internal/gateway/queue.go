package gateway

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketbot/internal/observability"
)

// Task is a side effect that runs after the store has been written.
// Tasks sharing a ChannelID run one at a time in enqueue order.
type Task struct {
	Name      string
	GuildID   string
	ChannelID string
	// Delay postpones the first attempt without holding a worker. When due the
	// task joins the back of its channel's order. It cannot be cancelled.
	Delay time.Duration
	Run   func(ctx context.Context) error
}

// Runner accepts follow-up tasks.
type Runner interface {
	Enqueue(task Task)
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// QueueConfig tunes the follow-up queue.
type QueueConfig struct {
	Workers         int
	Size            int
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// AttemptTimeout bounds a single attempt; in-flight tasks keep it after shutdown starts.
	AttemptTimeout time.Duration
}

func (c QueueConfig) withDefaults() QueueConfig {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.Size <= 0 {
		c.Size = 256
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = 500 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 10 * time.Second
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 15 * time.Second
	}
	return c
}

// Queue runs follow-up tasks on a fixed worker pool with exponential backoff.
// Each worker owns a shard of channels, so tasks for one channel never overlap
// and a retrying task holds back later tasks for the same channel.
// Tasks that exhaust their attempts are logged for manual reconciliation.
type Queue struct {
	cfg     QueueConfig
	shards  []chan Task
	next    atomic.Uint32
	logger  *zap.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	timers  map[*time.Timer]struct{}
	stopped bool
}

// NewQueue builds a queue; call Run to start its workers.
func NewQueue(cfg QueueConfig, logger *zap.Logger, metrics *observability.Metrics) *Queue {
	cfg = cfg.withDefaults()
	perShard := (cfg.Size + cfg.Workers - 1) / cfg.Workers
	shards := make([]chan Task, cfg.Workers)
	for i := range shards {
		shards[i] = make(chan Task, perShard)
	}
	return &Queue{
		cfg:     cfg,
		shards:  shards,
		logger:  logger.With(zap.String("component", "followups")),
		metrics: metrics,
		timers:  make(map[*time.Timer]struct{}),
	}
}

// Enqueue never blocks. A full shard drops the task and logs it.
func (q *Queue) Enqueue(task Task) {
	if task.Delay > 0 {
		q.schedule(task)
		return
	}
	q.push(task)
}

func (q *Queue) push(task Task) {
	select {
	case q.shardFor(task) <- task:
	default:
		q.metrics.RecordFollowup(task.Name, "dropped")
		q.logger.Error("follow-up queue full; task dropped, manual reconciliation required",
			taskFields(task)...)
	}
}

// schedule parks a delayed task on a timer until it is due.
func (q *Queue) schedule(task Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		q.metrics.RecordFollowup(task.Name, "dropped")
		q.logger.Warn("follow-up queue stopped; delayed task abandoned", taskFields(task)...)
		return
	}
	delay := task.Delay
	task.Delay = 0
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		q.mu.Lock()
		delete(q.timers, timer)
		q.mu.Unlock()
		q.push(task)
	})
	q.timers[timer] = struct{}{}
}

func (q *Queue) shardFor(task Task) chan Task {
	n := uint32(len(q.shards))
	if task.ChannelID == "" {
		return q.shards[q.next.Add(1)%n]
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(task.ChannelID))
	return q.shards[h.Sum32()%n]
}

// Run starts the workers and blocks until ctx is done and in-flight tasks finish.
// Queued and delayed tasks left at that point are abandoned and counted in the log.
func (q *Queue) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, shard := range q.shards {
		wg.Add(1)
		go func(tasks <-chan Task) {
			defer wg.Done()
			q.work(ctx, tasks)
		}(shard)
	}
	wg.Wait()

	q.mu.Lock()
	q.stopped = true
	delayed := 0
	for timer := range q.timers {
		if timer.Stop() {
			delayed++
		}
	}
	clear(q.timers)
	q.mu.Unlock()

	pending := 0
	for _, shard := range q.shards {
		pending += len(shard)
	}
	if pending > 0 || delayed > 0 {
		q.logger.Warn("follow-up tasks abandoned at shutdown",
			zap.Int("pending", pending), zap.Int("delayed", delayed))
	}
	return nil
}

func (q *Queue) work(ctx context.Context, tasks <-chan Task) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-tasks:
			q.execute(context.WithoutCancel(ctx), task)
		}
	}
}

func (q *Queue) execute(ctx context.Context, task Task) {
	attempts := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, q.cfg.AttemptTimeout)
		defer cancel()
		return struct{}{}, task.Run(attemptCtx)
	},
		backoff.WithBackOff(q.newBackOff()),
		backoff.WithMaxTries(uint(q.cfg.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			q.metrics.RecordFollowup(task.Name, "retry")
			q.logger.Debug("follow-up attempt failed",
				append(taskFields(task), zap.Error(err), zap.Duration("next", next))...)
		}),
	)
	if err != nil {
		q.metrics.RecordFollowup(task.Name, "failed")
		q.logger.Error("follow-up failed, manual reconciliation required",
			append(taskFields(task), zap.Int("attempts", attempts), zap.Error(err))...)
		return
	}
	q.metrics.RecordFollowup(task.Name, "ok")
}

func (q *Queue) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = q.cfg.InitialInterval
	b.MaxInterval = q.cfg.MaxInterval
	return b
}

func taskFields(task Task) []zap.Field {
	return []zap.Field{
		zap.String("task", task.Name),
		zap.String("guild_id", task.GuildID),
		zap.String("channel_id", task.ChannelID),
	}
}

// InlineRunner executes each task once, synchronously, ignoring Delay.
// It records every task it ran.
type InlineRunner struct {
	Logger *zap.Logger

	mu    sync.Mutex
	tasks []Task
	errs  []error
}

func (r *InlineRunner) Enqueue(task Task) {
	err := task.Run(context.Background())

	r.mu.Lock()
	r.tasks = append(r.tasks, task)
	r.errs = append(r.errs, err)
	r.mu.Unlock()

	if err != nil && r.Logger != nil {
		r.Logger.Error("follow-up failed", append(taskFields(task), zap.Error(err))...)
	}
}

// Tasks returns the tasks run so far.
func (r *InlineRunner) Tasks() []Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Task(nil), r.tasks...)
}

// Errors returns the error of each run, in order; nil entries mean success.
func (r *InlineRunner) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}
