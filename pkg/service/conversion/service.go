// Package conversion holds the view state of the converter and the two use
// cases that drive it: loading the currency table and converting an amount.
package conversion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/amirasaad/fxconvert/infra/metrics"
	"github.com/amirasaad/fxconvert/pkg/currency"
	"github.com/amirasaad/fxconvert/pkg/provider"
)

const (
	OpLoadCurrencies = "load_currencies"
	OpConvert        = "convert"

	// Prefixes of State.Error, by the operation that set it.
	LoadErrorPrefix    = "Error loading currencies: "
	ConvertErrorPrefix = "Conversion error: "
)

// ErrClosed is returned by tasks started after Close.
var ErrClosed = errors.New("conversion service closed")

// Service owns the converter State. Operations run on their own goroutines
// and are not serialized: when two overlap, whichever settles last decides
// the visible outcome. Only Service writes the state.
type Service struct {
	client  provider.RateClient
	logger  *slog.Logger
	metrics *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	state    State
	inFlight int
	closed   bool
	subs     map[uint64]chan State
	nextSub  uint64
}

// NewService creates a Service backed by client. It does not fetch anything;
// callers start with LoadCurrencies.
func NewService(client provider.RateClient, logger *slog.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		client:  client,
		logger:  logger,
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
		subs:    make(map[uint64]chan State),
	}
}

// LoadCurrencies fetches the currency table. On failure the table is left as
// it was and State.Error describes the cause. A previous error is not
// cleared, neither on start nor on success.
func (s *Service) LoadCurrencies() *Task {
	task := newTask(OpLoadCurrencies)
	if !s.begin(task, nil) {
		return task
	}

	go s.run(task,
		func(ctx context.Context) (func(*State), error) {
			table, err := s.client.ListCurrencies(ctx)
			if err != nil {
				return nil, err
			}
			return func(st *State) {
				s.metrics.RecordCurrencyLoad(nil)
				st.Currencies = table
			}, nil
		},
		func(st *State, err error) {
			s.metrics.RecordCurrencyLoad(err)
			st.Error = LoadErrorPrefix + err.Error()
			st.Result = nil
		},
	)
	return task
}

// Convert converts amount from one currency to another. An amount that is not
// a finite number above zero is rejected with currency.ErrInvalidAmount
// before anything starts; the state is left untouched in that case.
func (s *Service) Convert(amount float64, from, to string) *Task {
	if err := currency.ValidateAmount(amount); err != nil {
		return settledTask(OpConvert, err)
	}

	task := newTask(OpConvert)
	if !s.begin(task, func(st *State) { st.Error = "" }) {
		return task
	}

	log := s.logger.With("task_id", task.ID(), "from", from, "to", to, "amount", amount)
	go s.run(task,
		func(ctx context.Context) (func(*State), error) {
			if from == to {
				return s.storeResult(&amount, metrics.OutcomeIdentity), nil
			}

			resp, err := s.client.GetLatestRate(ctx, amount, from, to)
			if err != nil {
				return nil, err
			}

			value, ok := resp.Rate(to)
			if !ok {
				log.Warn("Rate missing from response", "date", resp.Date)
				return s.storeResult(nil, metrics.OutcomeMissingRate), nil
			}
			log.Info("Conversion completed", "result", value, "date", resp.Date)
			return s.storeResult(&value, metrics.OutcomeSuccess), nil
		},
		func(st *State, err error) {
			log.Error("Conversion failed", "error", err)
			s.metrics.RecordConversion(metrics.OutcomeError)
			st.Error = ConvertErrorPrefix + err.Error()
			st.Result = nil
		},
	)
	return task
}

// storeResult is applied only if the service is still open, so outcomes
// dropped by Close are not counted.
func (s *Service) storeResult(value *float64, outcome string) func(*State) {
	return func(st *State) {
		s.metrics.RecordConversion(outcome)
		st.Result = value
		st.Error = ""
	}
}

// Snapshot returns a copy of the current state.
func (s *Service) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe returns a channel that receives the current state immediately and
// then a snapshot after every transition. The channel holds only the latest
// undelivered snapshot, so a slow reader skips intermediate states. The
// returned func unsubscribes and closes the channel; Close does the same for
// every subscriber.
func (s *Service) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.state.clone()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// Close aborts in-flight requests, waits for their goroutines and drops
// their results. Later operations settle with ErrClosed. Safe to call more
// than once.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.logger.Debug("Conversion service closed")
}

// begin marks task in flight and applies mutate while holding the lock.
func (s *Service) begin(task *Task, mutate func(*State)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		task.settle(ErrClosed)
		return false
	}

	s.wg.Add(1)
	s.inFlight++
	s.state.IsLoading = true
	if mutate != nil {
		mutate(&s.state)
	}
	s.notifyLocked()
	s.metrics.OperationStarted()
	s.logger.Debug("Operation started", "op", task.Op(), "task_id", task.ID())
	return true
}

// run executes work and always settles task, including when work panics.
func (s *Service) run(
	task *Task,
	work func(ctx context.Context) (func(*State), error),
	fail func(*State, error),
) {
	var (
		apply func(*State)
		err   error
	)
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Operation panic recovered", "op", task.Op(), "task_id", task.ID(), "panic", r)
			apply, err = nil, fmt.Errorf("panic: %v", r)
		}
		s.finish(task, err, func(st *State) {
			if err != nil {
				fail(st, err)
				return
			}
			if apply != nil {
				apply(st)
			}
		})
	}()

	apply, err = work(s.ctx)
}

func (s *Service) finish(task *Task, err error, apply func(*State)) {
	s.mu.Lock()
	s.inFlight--
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("Discarding result after close", "op", task.Op(), "task_id", task.ID())
	} else {
		apply(&s.state)
		s.state.IsLoading = s.inFlight > 0
		s.notifyLocked()
		s.mu.Unlock()
	}

	s.metrics.OperationFinished()
	task.settle(err)
}

func (s *Service) notifyLocked() {
	for _, ch := range s.subs {
		snapshot := s.state.clone()
		select {
		case ch <- snapshot:
			continue
		default:
		}
		// Replace the stale snapshot nobody has read yet.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
}
