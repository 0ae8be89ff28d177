package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// TaskStat is one task's recorded timing/outcome, the unit evaluation.py's
// CrewEvaluator calls task_stats.
type TaskStat struct {
	Name   string
	Start  time.Time
	End    time.Time
	Status ExecuteOutcome
	Err    error
}

// Duration returns End.Sub(Start), zero if the task never ended.
func (s TaskStat) Duration() time.Duration {
	if s.End.IsZero() {
		return 0
	}
	return s.End.Sub(s.Start)
}

// TransportCallRecord is one remote-transport round trip, ported from
// swarm/debug.py's log_grpc_call: method name, the two endpoints, when it
// happened, how long it took, and the wire sizes involved.
type TransportCallRecord struct {
	Method       string
	SourceNode   string
	TargetNode   string
	Timestamp    time.Time
	Duration     time.Duration
	RequestSize  int
	ResponseSize int
}

// Evaluator implements Telemetry and accumulates the run-level statistics
// from spec §4.8 (C9), ported from utils/evaluation.py's CrewEvaluator and
// swarm/debug.py's call ledger.
type Evaluator struct {
	mu             sync.Mutex
	stats          map[string]*TaskStat
	order          []string
	transportCalls []TransportCallRecord
	startedAt      time.Time
	endedAt        time.Time
}

// NewEvaluator builds an empty evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{stats: make(map[string]*TaskStat)}
}

// StartEvaluation marks the beginning of a run, for TotalExecutionTime.
func (e *Evaluator) StartEvaluation(at time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.startedAt = at
}

// EndEvaluation marks the end of a run.
func (e *Evaluator) EndEvaluation(at time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.endedAt = at
}

// RecordTaskStart implements Telemetry.
func (e *Evaluator) RecordTaskStart(taskName string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats[taskName] = &TaskStat{Name: taskName, Start: time.Now()}
	e.order = append(e.order, taskName)
}

// RecordTaskEnd implements Telemetry.
func (e *Evaluator) RecordTaskEnd(taskName string, status ExecuteOutcome, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.stats[taskName]
	if !ok {
		st = &TaskStat{Name: taskName}
		e.stats[taskName] = st
		e.order = append(e.order, taskName)
	}
	st.End = time.Now()
	st.Status = status
	st.Err = err
}

// RecordTransportCall appends one remote round trip to the communication
// ledger.
func (e *Evaluator) RecordTransportCall(rec TransportCallRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transportCalls = append(e.transportCalls, rec)
}

// TaskStats returns a snapshot of recorded per-task stats, in the order
// tasks were first started.
func (e *Evaluator) TaskStats() []TaskStat {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]TaskStat, 0, len(e.order))
	for _, name := range e.order {
		out = append(out, *e.stats[name])
	}
	return out
}

// TotalExecutionTime is EndEvaluation minus StartEvaluation, ported from
// CrewEvaluator.get_total_execution_time.
func (e *Evaluator) TotalExecutionTime() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.startedAt.IsZero() || e.endedAt.IsZero() {
		return 0
	}
	return e.endedAt.Sub(e.startedAt)
}

// ParallelGroups partitions recorded tasks into groups linked by
// overlapping [Start, End) intervals, ported from CrewEvaluator.
// get_parallel_execution_stats: two tasks are "parallel" with each other if
// their time windows intersect, and a group is the transitive closure of
// that relation. Tasks with a zero End (never completed) are excluded.
func (e *Evaluator) ParallelGroups() [][]string {
	stats := e.TaskStats()
	var complete []TaskStat
	for _, s := range stats {
		if !s.End.IsZero() {
			complete = append(complete, s)
		}
	}
	sort.Slice(complete, func(i, j int) bool { return complete[i].Start.Before(complete[j].Start) })

	n := len(complete)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	overlaps := func(a, b TaskStat) bool {
		return a.Start.Before(b.End) && b.Start.Before(a.End)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if overlaps(complete[i], complete[j]) {
				union(i, j)
			}
		}
	}

	groups := make(map[int][]string)
	for i, s := range complete {
		root := find(i)
		groups[root] = append(groups[root], s.Name)
	}
	out := make([][]string, 0, len(groups))
	for _, g := range groups {
		sort.Strings(g)
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// CommunicationGraph aggregates recorded transport calls into a
// source-node -> target-node -> call-count map, ported from
// swarm/debug.py's communication graph.
func (e *Evaluator) CommunicationGraph() map[string]map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	graph := make(map[string]map[string]int)
	for _, call := range e.transportCalls {
		if graph[call.SourceNode] == nil {
			graph[call.SourceNode] = make(map[string]int)
		}
		graph[call.SourceNode][call.TargetNode]++
	}
	return graph
}

// ExecutionReport is the rendered summary from CrewEvaluator.
// generate_execution_report, folded together with SwarmManager.
// get_system_status's timing stats (spec §7).
type ExecutionReport struct {
	TotalTasks      int
	Completed       int
	Failed          int
	TotalTime       time.Duration
	MinTaskDuration time.Duration
	MaxTaskDuration time.Duration
	AvgTaskDuration time.Duration
	ParallelGroups  [][]string
}

// Report computes the full execution report.
func (e *Evaluator) Report() ExecutionReport {
	stats := e.TaskStats()
	report := ExecutionReport{
		TotalTasks:     len(stats),
		TotalTime:      e.TotalExecutionTime(),
		ParallelGroups: e.ParallelGroups(),
	}

	var sum time.Duration
	var counted int
	for _, s := range stats {
		switch s.Status {
		case ExecuteSuccess:
			report.Completed++
		case ExecuteError:
			report.Failed++
		}
		d := s.Duration()
		if d <= 0 {
			continue
		}
		if counted == 0 || d < report.MinTaskDuration {
			report.MinTaskDuration = d
		}
		if d > report.MaxTaskDuration {
			report.MaxTaskDuration = d
		}
		sum += d
		counted++
	}
	if counted > 0 {
		report.AvgTaskDuration = sum / time.Duration(counted)
	}
	return report
}

// String renders the report as short plain text, mirroring the teacher
// repo's preference for a simple formatted summary over a templated
// report generator.
func (r ExecutionReport) String() string {
	return fmt.Sprintf(
		"tasks: %d total, %d complete, %d failed | total time: %s | task duration min/avg/max: %s/%s/%s | parallel groups: %d",
		r.TotalTasks, r.Completed, r.Failed, r.TotalTime,
		r.MinTaskDuration, r.AvgTaskDuration, r.MaxTaskDuration, len(r.ParallelGroups),
	)
}
