package engine

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"
)

// Telemetry is the observation hook the scheduler calls into around every
// task execution (spec §4.8/C9). A nil Telemetry is valid; Evaluator is the
// concrete implementation, but tests commonly supply their own stub.
type Telemetry interface {
	RecordTaskStart(taskName string)
	RecordTaskEnd(taskName string, status ExecuteOutcome, err error)
}

// SchedulerConfig tunes the rotation loop (spec §4.4).
type SchedulerConfig struct {
	// PollInterval is how long Run sleeps between rotations when no node is
	// idle or no task is ready, before retrying. Zero selects a default.
	PollInterval time.Duration
	// Logger receives one line per dispatch/failure/deadlock. A nil Logger
	// selects log.Default().
	Logger *log.Logger
}

// Scheduler is the dependency-driven dispatch loop from spec §4.4: it owns
// a task list, a shared ValueContext, and a pool of Executors (local Nodes
// or remote transport handles), and drives tasks from pending to
// complete/failed in dependency order.
type Scheduler struct {
	tasks     []*Task
	byName    map[string]*Task
	executors []Executor
	ctx       *ValueContext
	telemetry Telemetry
	cfg       SchedulerConfig

	mu sync.Mutex // guards executor availability selection
}

// NewScheduler builds a scheduler over tasks, dispatching onto executors and
// reading/writing shared results in valueCtx. telemetry may be nil.
func NewScheduler(tasks []*Task, executors []Executor, valueCtx *ValueContext, telemetry Telemetry, cfg SchedulerConfig) *Scheduler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 25 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	byName := make(map[string]*Task, len(tasks))
	for _, t := range tasks {
		byName[t.Name] = t
	}
	return &Scheduler{
		tasks:     tasks,
		byName:    byName,
		executors: executors,
		ctx:       valueCtx,
		telemetry: telemetry,
		cfg:       cfg,
	}
}

// Context returns the scheduler's shared result context.
func (s *Scheduler) Context() *ValueContext { return s.ctx }

// SetTelemetry attaches (or replaces) the scheduler's telemetry sink. Safe
// to call before a run starts; not safe concurrently with Run/RunParallel.
func (s *Scheduler) SetTelemetry(t Telemetry) {
	s.telemetry = t
}

// pendingTasks returns tasks that have neither completed nor failed.
func (s *Scheduler) pendingTasks() []*Task {
	var out []*Task
	for _, t := range s.tasks {
		switch t.Status() {
		case TaskComplete, TaskFailed:
		default:
			out = append(out, t)
		}
	}
	return out
}

// acquireExecutor finds and marks busy the first idle executor able to run
// the given task's agent, atomically with respect to other dispatch
// attempts. It returns nil if none is available right now.
func (s *Scheduler) acquireExecutor(task *Task) Executor {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.executors {
		if ex.StatusSnapshot().Status != NodeIdle {
			continue
		}
		if !ex.HasAgent(task.AgentName) {
			continue
		}
		ex.SetStatus(NodeBusy)
		return ex
	}
	return nil
}

// release returns an executor to idle.
func (s *Scheduler) release(ex Executor) {
	ex.SetStatus(NodeIdle)
}

// Run executes tasks until ctx is done, every task has completed, or a task
// fails. This is the sequential, remote-capable loop from spec §4.4: each
// rotation walks the pending tasks in order and synchronously dispatches
// every one whose dependencies (not full readiness) are met and that an
// idle, capable executor can take. The first failed task ends the run with
// that task's error; results already written stay in the context. When a
// rotation dispatches nothing, Run sleeps for PollInterval; if by then no
// pending task has its dependencies met, it returns a DeadlockError
// (spec §4.4, §7), otherwise it keeps waiting for an executor — matching
// swarm/manager.py's back-pressure loop.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		pending := s.pendingTasks()
		if len(pending) == 0 {
			return nil
		}

		dispatchedThisRotation := false
		for _, task := range pending {
			if task.Status() != TaskPending {
				continue
			}
			if !task.DependenciesMet(s.ctx) {
				continue
			}
			ex := s.acquireExecutor(task)
			if ex == nil {
				continue
			}
			dispatchedThisRotation = true
			s.dispatch(ctx, task, ex)
			if _, err := task.Result(); err != nil {
				return err
			}
		}

		if !dispatchedThisRotation {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.cfg.PollInterval):
			}
			if s.rotationIsStuck() {
				remaining := make([]string, 0, len(pending))
				for _, t := range s.pendingTasks() {
					remaining = append(remaining, t.Name)
				}
				sort.Strings(remaining)
				err := &DeadlockError{Remaining: remaining}
				s.cfg.Logger.Printf("scheduler: %v", err)
				return err
			}
		}
	}
}

// rotationIsStuck reports whether no pending task could ever become
// dispatchable: every pending task is blocked on a dependency that is
// itself not complete (a real cycle would already have been rejected by
// Builder.Validate, so this mainly guards against unmet external context).
func (s *Scheduler) rotationIsStuck() bool {
	pending := s.pendingTasks()
	if len(pending) == 0 {
		return false
	}
	for _, t := range pending {
		if t.DependenciesMet(s.ctx) {
			return false // something is ready, just waiting on a node
		}
	}
	return true
}

// dispatch runs task on ex synchronously, updates status/result, and
// reports to telemetry. Shared by Run and RunParallel.
func (s *Scheduler) dispatch(ctx context.Context, task *Task, ex Executor) {
	task.markRunning()
	if s.telemetry != nil {
		s.telemetry.RecordTaskStart(task.Name)
	}
	s.cfg.Logger.Printf("scheduler: dispatching task %s to node %s (agent %s)", task.Name, ex.ID(), task.AgentName)

	res := ex.ExecuteTask(ctx, task, s.ctx)
	s.release(ex)

	if res.Status != ExecuteSuccess {
		err := &AgentFailureError{Task: task.Name, Err: stringError(res.Error)}
		task.markFailed(err)
		if s.telemetry != nil {
			s.telemetry.RecordTaskEnd(task.Name, res.Status, err)
		}
		s.cfg.Logger.Printf("scheduler: task %s failed: %v", task.Name, err)
		return
	}

	if task.ResultKey != "" {
		if err := s.ctx.SetOnce(task.ResultKey, res.Result); err != nil {
			task.markFailed(err)
			if s.telemetry != nil {
				s.telemetry.RecordTaskEnd(task.Name, ExecuteError, err)
			}
			s.cfg.Logger.Printf("scheduler: task %s result write failed: %v", task.Name, err)
			return
		}
	}
	task.markComplete(res.Result)
	if s.telemetry != nil {
		s.telemetry.RecordTaskEnd(task.Name, ExecuteSuccess, nil)
	}
}

// RunParallel is the local batch-mode loop (spec §4.2): each round, every
// task whose full readiness predicate holds (dependencies AND template
// variables bound) and for which an idle, capable executor is free is
// dispatched concurrently; a ready task that finds no free executor waits
// for a later round. The scheduler waits for the whole round before
// checking for failures (the first failed task of the round ends the run
// with its error) and picking the next one. This mirrors core.py's
// threaded Crew.execute, and is only meaningful with local Nodes since it
// assumes dispatch is cheap to parallelize without back-pressure.
func (s *Scheduler) RunParallel(ctx context.Context) error {
	for {
		pending := s.pendingTasks()
		if len(pending) == 0 {
			return nil
		}

		var batch []*Task
		for _, t := range pending {
			if t.Status() == TaskPending && t.Ready(s.ctx) {
				batch = append(batch, t)
			}
		}
		if len(batch) == 0 {
			remaining := make([]string, 0, len(pending))
			for _, t := range pending {
				remaining = append(remaining, t.Name)
			}
			sort.Strings(remaining)
			err := &DeadlockError{Remaining: remaining}
			s.cfg.Logger.Printf("scheduler: %v", err)
			return err
		}

		var wg sync.WaitGroup
		for _, task := range batch {
			task := task
			ex := s.acquireExecutor(task)
			if ex == nil {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.dispatch(ctx, task, ex)
			}()
		}
		wg.Wait()
		for _, task := range batch {
			if _, err := task.Result(); err != nil {
				return err
			}
		}
	}
}

// SchedulerStatus summarizes in-flight progress (spec §7, ported from
// swarm/manager.py's get_system_status).
type SchedulerStatus struct {
	Total       int
	Pending     int
	Running     int
	Complete    int
	Failed      int
	MinDuration time.Duration
	MaxDuration time.Duration
	AvgDuration time.Duration
}

// Status reports aggregate task counts. Its duration fields are always
// zero, since the scheduler itself does not retain per-task timing once a
// task completes; Evaluator.Report computes min/max/avg durations from the
// timestamps it records.
func (s *Scheduler) Status() SchedulerStatus {
	var st SchedulerStatus
	st.Total = len(s.tasks)
	for _, t := range s.tasks {
		switch t.Status() {
		case TaskPending:
			st.Pending++
		case TaskRunning:
			st.Running++
		case TaskComplete:
			st.Complete++
		case TaskFailed:
			st.Failed++
		}
	}
	return st
}

type stringError string

func (e stringError) Error() string { return string(e) }
