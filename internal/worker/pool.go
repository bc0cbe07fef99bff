package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/fernandosserra/unython/internal/infra"
)

const (
	QueueRecibo  = "jobs:recibo"
	QueueEmail   = "jobs:email"
	QueueEstoque = "jobs:estoque"

	maxAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ── Dispatcher ────────────────────────────────────────────────────────────────

// Dispatcher enqueues async jobs into Redis lists; the pool dequeues them via
// BRPOP. Pushes go through a circuit breaker so a dead Redis costs the sale
// path one fast error instead of a network timeout.
type Dispatcher struct {
	rdb *redis.Client
	cb  *infra.CircuitBreaker
}

// NewDispatcher builds a dispatcher. cb may be nil.
func NewDispatcher(rdb *redis.Client, cb *infra.CircuitBreaker) *Dispatcher {
	return &Dispatcher{rdb: rdb, cb: cb}
}

// EnqueueRecibo asks for the PDF receipt of a committed sale.
func (d *Dispatcher) EnqueueRecibo(ctx context.Context, p ReciboJobPayload) error {
	return d.enqueue(ctx, QueueRecibo, "recibo", p)
}

// EnqueueEmail pushes an email job.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, p EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, "email", p)
}

// EnqueueAlertaEstoque asks for a low-stock check of one item.
func (d *Dispatcher) EnqueueAlertaEstoque(ctx context.Context, p AlertaEstoquePayload) error {
	return d.enqueue(ctx, QueueEstoque, "alerta_estoque", p)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	push := func() error { return d.rdb.LPush(ctx, queue, encoded).Err() }
	if d.cb == nil {
		return push()
	}
	return d.cb.Execute(push)
}

// ── Pool ──────────────────────────────────────────────────────────────────────

// Handler processes one job payload. A returned error triggers a retry;
// after maxAttempts the job goes to the dead letter queue.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Pool consumes the registered queues with a fixed number of goroutines.
type Pool struct {
	rdb      *redis.Client
	handlers map[string]Handler
	queues   []string
	backoff  time.Duration // first retry delay; doubles per attempt
}

func NewPool(rdb *redis.Client) *Pool {
	return &Pool{rdb: rdb, handlers: map[string]Handler{}, backoff: time.Second}
}

// Handle registers h for queue. Must be called before Start.
func (p *Pool) Handle(queue string, h Handler) {
	if _, ok := p.handlers[queue]; !ok {
		p.queues = append(p.queues, queue)
	}
	p.handlers[queue] = h
}

// Start launches numWorkers goroutines. Each one blocks on BRPOP, so an idle
// pool costs no CPU. Workers exit when ctx is cancelled.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	if len(p.queues) == 0 {
		log.Warn().Msg("worker pool: no queues registered")
		return
	}
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers on %v", numWorkers, p.queues)
}

func (p *Pool) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, p.queues...).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					log.Warn().Err(err).Int("worker", id).Msg("worker: BRPOP failed")
					time.Sleep(time.Second)
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.process(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, p.rdb, queue, "", json.RawMessage(`null`), "invalid envelope: "+err.Error(), 0)
		infra.JobsProcessados.WithLabelValues(queue, "dlq").Inc()
		return
	}

	h, ok := p.handlers[queue]
	if !ok {
		log.Error().Str("queue", queue).Str("type", job.Type).Msg("no handler for queue")
		return
	}

	log.Debug().Str("type", job.Type).Str("queue", queue).Msg("processing job")
	err := withRetry(ctx, maxAttempts, p.backoff, func(attempt int) error {
		if err := h(ctx, job.Payload); err != nil {
			log.Warn().Err(err).Str("queue", queue).Int("attempt", attempt+1).Msg("job attempt failed")
			return err
		}
		return nil
	})
	if err != nil {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, err.Error(), maxAttempts)
		infra.JobsProcessados.WithLabelValues(queue, "dlq").Inc()
		return
	}
	infra.JobsProcessados.WithLabelValues(queue, "ok").Inc()
}

// withRetry calls fn up to maxAttempts times with exponential backoff
// (attempt 1 immediate, then base, 2×base, …). Returns nil as soon as an
// attempt succeeds; the last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, base time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := base * time.Duration(1<<uint(i-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
