package board

import (
	"testing"

	"boardsync/domain"
)

func TestPartitionCoversEveryTaskExactlyOnce(t *testing.T) {
	tasks := []domain.Task{
		{ID: "task-001", Stage: domain.StageTodo},
		{ID: "task-002", Stage: domain.StageDone},
		{ID: "task-003", Stage: "bogus"},
		{ID: "task-004", Stage: domain.StageInProgress},
	}

	cols := Partition(tasks)

	if len(cols) != len(domain.Stages) {
		t.Fatalf("expected %d columns, got %d", len(domain.Stages), len(cols))
	}
	seen := map[string]int{}
	total := 0
	for _, col := range cols {
		for _, task := range col {
			seen[task.ID]++
			total++
		}
	}
	if total != len(tasks) {
		t.Fatalf("expected %d tasks across columns, got %d", len(tasks), total)
	}
	for id, count := range seen {
		if count != 1 {
			t.Fatalf("task %s appears %d times", id, count)
		}
	}
	if len(cols[domain.StageTodo]) != 2 {
		t.Fatalf("unknown stage should land in the first column, got %#v", cols[domain.StageTodo])
	}
}

func TestPartitionOrdersByPriorityStable(t *testing.T) {
	tasks := []domain.Task{
		{ID: "task-001", Stage: domain.StageTodo, Priority: domain.PriorityLow},
		{ID: "task-002", Stage: domain.StageTodo, Priority: domain.PriorityUrgent},
		{ID: "task-003", Stage: domain.StageTodo, Priority: domain.PriorityMedium},
		{ID: "task-004", Stage: domain.StageTodo, Priority: domain.PriorityMedium},
	}

	col := Partition(tasks)[domain.StageTodo]

	for i := 1; i < len(col); i++ {
		a, b := col[i-1], col[i]
		if domain.PriorityRank(a.Priority) < domain.PriorityRank(b.Priority) {
			t.Fatalf("column not ordered by rank: %s before %s", a.ID, b.ID)
		}
	}
	// Equal priorities keep their list order.
	if col[1].ID != "task-003" || col[2].ID != "task-004" {
		t.Fatalf("expected stable order for equal priorities, got %#v", col)
	}
}

func TestPartitionIdempotent(t *testing.T) {
	tasks := []domain.Task{
		{ID: "task-001", Stage: domain.StageTodo, Priority: domain.PriorityUrgent},
		{ID: "task-002", Stage: domain.StageTodo, Priority: domain.PriorityLow},
	}
	first := Partition(tasks)
	flattened := append(first[domain.StageTodo], first[domain.StageDone]...)
	second := Partition(flattened)

	if len(second[domain.StageTodo]) != 2 || second[domain.StageTodo][0].ID != "task-001" {
		t.Fatalf("partition not idempotent: %#v", second[domain.StageTodo])
	}
}

func TestStateSpliceAndReplace(t *testing.T) {
	s := NewState()
	tasks := []domain.Task{
		{ID: "task-001", Stage: domain.StageTodo},
		{ID: "task-002", Stage: domain.StageTodo},
	}
	s.Replace(tasks)

	s.Splice(tasks[0], domain.StageTodo, domain.StageDone, 0)

	cols := s.Columns()
	if len(cols[domain.StageTodo]) != 1 || cols[domain.StageTodo][0].ID != "task-002" {
		t.Fatalf("source column after splice: %#v", cols[domain.StageTodo])
	}
	if len(cols[domain.StageDone]) != 1 || cols[domain.StageDone][0].Stage != domain.StageDone {
		t.Fatalf("destination column after splice: %#v", cols[domain.StageDone])
	}

	// The next authoritative snapshot discards the optimistic splice.
	s.Replace(tasks)
	cols = s.Columns()
	if len(cols[domain.StageTodo]) != 2 || len(cols[domain.StageDone]) != 0 {
		t.Fatalf("replace did not supersede the splice: %#v", cols)
	}
}

func TestStateSpliceClampsIndex(t *testing.T) {
	s := NewState()
	s.Replace([]domain.Task{{ID: "task-001", Stage: domain.StageTodo}})

	s.Splice(domain.Task{ID: "task-001", Stage: domain.StageTodo}, domain.StageTodo, domain.StageDone, 99)

	cols := s.Columns()
	if len(cols[domain.StageDone]) != 1 {
		t.Fatalf("expected clamped insert, got %#v", cols[domain.StageDone])
	}
}
