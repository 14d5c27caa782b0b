package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gyaneshwarpardhi/fraudform/internal/config"
	"github.com/gyaneshwarpardhi/fraudform/internal/inference"
	"github.com/gyaneshwarpardhi/fraudform/internal/metrics"
	"github.com/gyaneshwarpardhi/fraudform/internal/transaction"
)

var (
	ErrQueueFull     = errors.New("scoring queue full")
	ErrTimeout       = errors.New("scoring timeout")
	ErrEmptyBatch    = errors.New("batch must contain at least one transaction")
	ErrBatchTooLarge = errors.New("batch too large")
)

// Engine scores transactions on a bounded worker pool against the current
// Predictor.
type Engine struct {
	predictor atomic.Pointer[inference.Predictor]
	pool      *workerPool[*scoreWork]
	conf      config.EngineConf
}

type scoreWork struct {
	tx        transaction.Transaction
	predictor *inference.Predictor
	resultC   chan<- indexedResult
	index     int
}

type indexedResult struct {
	index  int
	result *inference.Result
}

// New creates an Engine using conf and starts the worker pool.
func New(ctx context.Context, p *inference.Predictor, conf config.EngineConf) *Engine {
	e := &Engine{conf: conf}
	e.predictor.Store(p)
	e.pool = newWorkerPool[*scoreWork](ctx, conf.Workers, conf.QueueDepth, e.process)
	return e
}

// Predictor returns the predictor new submissions are scored with.
func (e *Engine) Predictor() *inference.Predictor {
	return e.predictor.Load()
}

// SwapPredictor atomically replaces the predictor (used on artifact reload).
// Submissions already queued finish against the predictor they were
// accepted with.
func (e *Engine) SwapPredictor(p *inference.Predictor) {
	e.predictor.Store(p)
}

// Score scores one transaction and waits for the result.
// Returns ErrQueueFull if the queue has no room.
func (e *Engine) Score(ctx context.Context, tx transaction.Transaction) (*inference.Result, error) {
	results, err := e.run(ctx, []transaction.Transaction{tx})
	if err != nil {
		return nil, err
	}
	if results[0] == nil {
		return nil, fmt.Errorf("%w after %v", ErrTimeout, e.conf.Timeout())
	}
	return results[0], nil
}

// ScoreBatch scores up to conf.MaxBatch transactions concurrently. Results
// are returned in input order. Items that could not be queued or did not
// finish in time carry a KindRejected failure.
func (e *Engine) ScoreBatch(ctx context.Context, txs []transaction.Transaction) ([]*inference.Result, error) {
	if len(txs) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(txs) > e.conf.MaxBatch {
		return nil, fmt.Errorf("%w: %d exceeds max %d", ErrBatchTooLarge, len(txs), e.conf.MaxBatch)
	}
	results, err := e.run(ctx, txs)
	if err != nil && !errors.Is(err, ErrQueueFull) {
		return nil, err
	}
	for i, r := range results {
		if r == nil {
			results[i] = inference.Failed(txs[i].ID, inference.KindRejected, fmt.Errorf("%w after %v", ErrTimeout, e.conf.Timeout()))
		}
	}
	return results, nil
}

// run submits txs and collects results until all arrive or the timeout
// elapses. Slots left nil timed out. If nothing could be queued, it returns
// ErrQueueFull.
func (e *Engine) run(ctx context.Context, txs []transaction.Transaction) ([]*inference.Result, error) {
	p := e.predictor.Load()
	resultC := make(chan indexedResult, len(txs))
	results := make([]*inference.Result, len(txs))

	pending := 0
	for i, tx := range txs {
		w := &scoreWork{tx: tx, predictor: p, resultC: resultC, index: i}
		if !e.pool.Submit(w) {
			metrics.SubmissionsDropped.Inc()
			results[i] = inference.Failed(tx.ID, inference.KindRejected, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.conf.QueueDepth))
			continue
		}
		metrics.SubmissionsEnqueued.Inc()
		pending++
	}
	if pending == 0 {
		return results, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.conf.QueueDepth)
	}

	timer := time.NewTimer(e.conf.Timeout())
	defer timer.Stop()
	for pending > 0 {
		select {
		case r := <-resultC:
			results[r.index] = r.result
			pending--
		case <-timer.C:
			return results, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return results, nil
}

func (e *Engine) process(_ context.Context, w *scoreWork) {
	res := w.predictor.Score(w.tx)
	record(res)
	w.resultC <- indexedResult{index: w.index, result: res}
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

// Shutdown drains the pool gracefully.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}

func record(res *inference.Result) {
	metrics.ScoringDuration.Observe(res.Duration.Seconds())
	if !res.OK() {
		metrics.Failures.WithLabelValues(string(res.Failure.Kind)).Inc()
		return
	}
	verdict := "legitimate"
	if res.Prediction.Fraudulent() {
		verdict = "fraudulent"
	}
	metrics.Predictions.WithLabelValues(verdict).Inc()
	if res.Prediction.Probability != nil {
		metrics.FraudProbability.Observe(*res.Prediction.Probability)
	}
}
