package sender

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/mediabot/core/logger"
	"github.com/m3rciful/mediabot/core/telegram/netutil"
)

var (
	// ErrQueueClosed is returned once the dispatcher has been closed.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when the owning shard has no room left.
	ErrQueueFull = errors.New("telegram sender: queue full")

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Options tunes the dispatcher. Zero values select defaults.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds one job including its retries.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	o.MaxRetries = max(o.MaxRetries, 0)
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
	done     chan error
}

// Dispatcher runs outbound Bot API calls on a fixed set of shards. Calls that
// share a key (a chat id) land on the same shard and run in submission order,
// so replies to one chat never overtake each other.
type Dispatcher struct {
	opts   Options
	shards []chan job
	wg     sync.WaitGroup
	errs   atomic.Uint64

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts the shard workers.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{opts: opts, shards: make([]chan job, opts.Workers)}
	for i := range d.shards {
		ch := make(chan job, opts.QueueSize)
		d.shards[i] = ch
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for j := range ch {
				err := d.handleJob(j)
				if j.done != nil {
					j.done <- err
				}
			}
		}()
	}
	return d
}

// Enqueue queues run and returns without waiting for it.
func (d *Dispatcher) Enqueue(ctx context.Context, key int64, action, endpoint string, run func() error) error {
	return d.submit(key, job{ctx: ctx, action: action, endpoint: endpoint, run: run})
}

// Do queues run and waits for its final result, retries included.
func (d *Dispatcher) Do(ctx context.Context, key int64, action, endpoint string, run func() error) error {
	j := job{ctx: ctx, action: action, endpoint: endpoint, run: run, done: make(chan error, 1)}
	if err := d.submit(key, j); err != nil {
		return err
	}
	return <-j.done
}

// Barrier waits until every job queued earlier on key's shard has finished.
// Callers use it to keep a slow call, such as an upload, in chat order
// without holding the shard while it runs.
func (d *Dispatcher) Barrier(ctx context.Context, key int64) error {
	return d.Do(ctx, key, "barrier", "", func() error { return nil })
}

func (d *Dispatcher) submit(key int64, j job) error {
	if j.run == nil {
		return errors.New("telegram sender: nil run function")
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.shards[d.shardFor(key)] <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) shardFor(key int64) int {
	n := int64(len(d.shards))
	return int((key%n + n) % n)
}

// ErrorCount returns how many jobs failed after all retries.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close rejects new jobs and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.shards {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) handleJob(j job) error {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithTimeout(ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	base := []slog.Attr{slog.String("action", j.action)}
	if j.endpoint != "" {
		base = append(base, slog.String("endpoint", j.endpoint))
	}
	logger.Debug(ctx, "tg.sender", "send.start", base...)

	attempt, err := netutil.Retry(runCtx, d.opts.MaxRetries+1, d.opts.RetryBackoff,
		func(int) error { return j.run() },
		func(n int, delay time.Duration, _ error) {
			logger.Debug(ctx, "tg.sender", "send.retry.backoff",
				append(base, slog.Int("attempt", n), slog.Duration("delay", delay))...)
		},
	)
	elapsed := slog.Duration("elapsed", time.Since(start))

	if err != nil {
		d.errs.Add(1)
		logger.Error(ctx, "tg.sender", "send.fail", append(base,
			slog.String("err", Redact(err)),
			slog.String("err_code", string(netutil.Classify(err))),
			slog.Int("attempts", attempt),
			elapsed,
		)...)
		return err
	}
	if attempt > 1 {
		logger.Info(ctx, "tg.sender", "send.retry.success", append(base, slog.Int("attempt", attempt), elapsed)...)
		return nil
	}
	logger.Debug(ctx, "tg.sender", "send.success", append(base, elapsed)...)
	return nil
}

// Redact hides bot tokens that net/http embeds in request URLs.
func Redact(err error) string {
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}
