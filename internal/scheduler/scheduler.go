package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jagatabuk/inquirybot/internal/metrics"
	"github.com/jagatabuk/inquirybot/internal/processor"
)

// Worker performs the two halves of a poll cycle
type Worker interface {
	Poll(ctx context.Context) (int, error)
	Process(ctx context.Context) (processor.Outcome, error)
}

// Status is a snapshot for the status server
type Status struct {
	State       State              `json:"state"`
	Cycles      int                `json:"cycles"`
	LastCycleAt time.Time          `json:"last_cycle_at"`
	LastResult  string             `json:"last_result,omitempty"`
	LastOutcome *processor.Outcome `json:"last_outcome,omitempty"`
	LastError   string             `json:"last_error,omitempty"`
}

type Scheduler struct {
	worker   Worker
	interval time.Duration
	cooldown time.Duration
	clock    Clock
	logger   *zap.Logger

	mu         sync.RWMutex
	state      State
	status     Status
	cycleStart time.Time

	observe func(from State, e Event, to State)
}

func New(w Worker, interval, cooldown time.Duration, clock Clock, logger *zap.Logger) *Scheduler {
	if clock == nil {
		clock = RealClock
	}
	return &Scheduler{
		worker:   w,
		interval: interval,
		cooldown: cooldown,
		clock:    clock,
		logger:   logger.Named("scheduler"),
		state:    StateIdle,
	}
}

func (s *Scheduler) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	st.State = s.state
	if st.LastOutcome != nil {
		out := *st.LastOutcome
		st.LastOutcome = &out
	}
	return st
}

// Run polls immediately and then keeps cycling until ctx is cancelled.
// Failures never end the loop; they only choose the next wait.
func (s *Scheduler) Run(ctx context.Context) error {
	s.setState(StatePolling)
	s.logger.Info("scheduler started",
		zap.Duration("interval", s.interval),
		zap.Duration("cooldown", s.cooldown))

	for {
		switch s.State() {
		case StateIdle:
			s.fire(s.wait(ctx, s.interval))
		case StateCoolingDown:
			s.fire(s.wait(ctx, s.cooldown))
		case StatePolling:
			s.fire(s.poll(ctx))
		case StateProcessing:
			s.fire(s.process(ctx))
		case StateStopped:
			s.logger.Info("scheduler stopped")
			return nil
		}
	}
}

// RunOnce runs a single cycle and reports its result
func (s *Scheduler) RunOnce(ctx context.Context) (processor.Outcome, error) {
	s.setState(StatePolling)
	defer s.setState(StateStopped)

	s.startCycle()
	n, err := s.safePoll(ctx)
	if err != nil {
		s.finishCycle(resultFor(s.classify(ctx, err)), nil, err)
		return processor.Outcome{}, err
	}
	if n == 0 {
		s.finishCycle("empty", &processor.Outcome{}, nil)
		return processor.Outcome{}, nil
	}

	s.setState(StateProcessing)
	out, err := s.safeProcess(ctx)
	if err != nil {
		s.finishCycle(resultFor(s.classify(ctx, err)), &out, err)
		return out, err
	}
	s.finishCycle("processed", &out, nil)
	return out, nil
}

func (s *Scheduler) wait(ctx context.Context, d time.Duration) Event {
	if ctx.Err() != nil {
		return EventShutdown
	}
	select {
	case <-ctx.Done():
		return EventShutdown
	case <-s.clock.After(d):
		return EventWake
	}
}

func (s *Scheduler) poll(ctx context.Context) Event {
	if ctx.Err() != nil {
		return EventShutdown
	}

	s.startCycle()
	n, err := s.safePoll(ctx)
	if err != nil {
		e := s.classify(ctx, err)
		s.finishCycle(resultFor(e), nil, err)
		return e
	}
	if n == 0 {
		s.finishCycle("empty", &processor.Outcome{}, nil)
		return EventEmpty
	}
	return EventFetched
}

func (s *Scheduler) process(ctx context.Context) Event {
	out, err := s.safeProcess(ctx)
	if err != nil {
		e := s.classify(ctx, err)
		s.finishCycle(resultFor(e), &out, err)
		return e
	}
	s.finishCycle("processed", &out, nil)
	return EventDone
}

// classify maps a cycle error to its event. Mailbox failures wait the
// normal interval; anything else cools down first.
func (s *Scheduler) classify(ctx context.Context, err error) Event {
	if ctx.Err() != nil {
		return EventShutdown
	}
	var te *processor.TransportError
	if errors.As(err, &te) {
		s.logger.Warn("mailbox unavailable, retrying after interval", zap.String("op", te.Op), zap.Error(te.Err))
		return EventTransportFailure
	}
	s.logger.Error("cycle failed unexpectedly, cooling down", zap.Error(err))
	return EventUnexpectedFailure
}

func (s *Scheduler) safePoll(ctx context.Context) (n int, err error) {
	defer s.recoverPanic(&err)
	return s.worker.Poll(ctx)
}

func (s *Scheduler) safeProcess(ctx context.Context) (out processor.Outcome, err error) {
	defer s.recoverPanic(&err)
	return s.worker.Process(ctx)
}

func (s *Scheduler) recoverPanic(err *error) {
	if r := recover(); r != nil {
		s.logger.Error("recovered from panic in cycle", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
		*err = fmt.Errorf("panic: %v", r)
	}
}

func (s *Scheduler) fire(e Event) {
	s.mu.Lock()
	from := s.state
	to, ok := Next(from, e)
	s.state = to
	observe := s.observe
	s.mu.Unlock()

	if !ok {
		s.logger.Warn("ignored event", zap.String("state", string(from)), zap.String("event", string(e)))
		return
	}
	metrics.SetSchedulerState(string(to), stateNames())
	s.logger.Debug("transition",
		zap.String("from", string(from)),
		zap.String("event", string(e)),
		zap.String("to", string(to)))
	if observe != nil {
		observe(from, e, to)
	}
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	metrics.SetSchedulerState(string(st), stateNames())
}

func (s *Scheduler) startCycle() {
	s.mu.Lock()
	s.cycleStart = s.clock.Now()
	s.mu.Unlock()
}

func (s *Scheduler) finishCycle(result string, out *processor.Outcome, err error) {
	now := s.clock.Now()

	s.mu.Lock()
	duration := now.Sub(s.cycleStart)
	s.status.Cycles++
	s.status.LastCycleAt = now
	s.status.LastResult = result
	s.status.LastOutcome = out
	s.status.LastError = ""
	if err != nil {
		s.status.LastError = err.Error()
	}
	s.mu.Unlock()

	metrics.RecordCycle(result, duration, now)
}

func resultFor(e Event) string {
	switch e {
	case EventTransportFailure:
		return "transport_failure"
	case EventShutdown:
		return "shutdown"
	default:
		return "unexpected_failure"
	}
}

func stateNames() []string {
	names := make([]string, len(States))
	for i, st := range States {
		names[i] = string(st)
	}
	return names
}
