package board

import (
	"sort"
	"sync"

	"boardsync/domain"
)

// Partition groups tasks into board columns by stage. Every task lands
// in exactly one bucket (unknown stages fall into the first one) and
// each bucket is ordered by priority rank, highest first, stable with
// respect to the input order for equal ranks. Pure function; the
// result is always derivable from the mirror's task list.
func Partition(tasks []domain.Task) map[domain.Stage][]domain.Task {
	columns := make(map[domain.Stage][]domain.Task, len(domain.Stages))
	for _, s := range domain.Stages {
		columns[s] = []domain.Task{}
	}
	for _, t := range tasks {
		stage := domain.NormalizeStage(t.Stage)
		columns[stage] = append(columns[stage], t)
	}
	for stage := range columns {
		col := columns[stage]
		sort.SliceStable(col, func(i, j int) bool {
			return domain.PriorityRank(col[i].Priority) > domain.PriorityRank(col[j].Priority)
		})
	}
	return columns
}

// State holds the columns currently rendered by the board. It is
// replaced wholesale from every mirror push and spliced optimistically
// by drag-and-drop moves; the next authoritative snapshot always wins.
type State struct {
	mu      sync.Mutex
	columns map[domain.Stage][]domain.Task
}

func NewState() *State {
	return &State{columns: Partition(nil)}
}

// Replace rebuilds the columns from an authoritative task list,
// discarding any optimistic splices.
func (s *State) Replace(tasks []domain.Task) {
	cols := Partition(tasks)
	s.mu.Lock()
	s.columns = cols
	s.mu.Unlock()
}

// Columns returns a copy of the current columns.
func (s *State) Columns() map[domain.Stage][]domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Stage][]domain.Task, len(s.columns))
	for stage, col := range s.columns {
		cpy := make([]domain.Task, len(col))
		copy(cpy, col)
		out[stage] = cpy
	}
	return out
}

// Splice removes the task from the source column and inserts it into
// the destination column at index (clamped to the column bounds). This
// is the optimistic half of a move; it holds only until the next
// Replace.
func (s *State) Splice(task domain.Task, from, to domain.Stage, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.columns[from]
	for i, t := range src {
		if t.ID == task.ID {
			s.columns[from] = append(src[:i:i], src[i+1:]...)
			break
		}
	}

	task.Stage = to
	dst := s.columns[to]
	if index < 0 {
		index = 0
	}
	if index > len(dst) {
		index = len(dst)
	}
	dst = append(dst, domain.Task{})
	copy(dst[index+1:], dst[index:])
	dst[index] = task
	s.columns[to] = dst
}
