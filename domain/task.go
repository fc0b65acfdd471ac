package domain

// Stage is a workflow column on the board. Every task occupies exactly
// one stage at any time; changing the stage is the only mutation path
// for board movement.
type Stage string

const (
	StageTodo          Stage = "todo"
	StageInProgress    Stage = "in-progress"
	StageAwaitFeedback Stage = "await-feedback"
	StageDone          Stage = "done"
)

// Stages lists the board columns in render order.
var Stages = []Stage{StageTodo, StageInProgress, StageAwaitFeedback, StageDone}

// DefaultStage is where tasks land when their stage is missing or unknown.
func DefaultStage() Stage {
	return Stages[0]
}

// NormalizeStage coerces unknown stage values to the default stage.
func NormalizeStage(s Stage) Stage {
	for _, known := range Stages {
		if s == known {
			return s
		}
	}
	return DefaultStage()
}

// Label returns the user-facing column title.
func (s Stage) Label() string {
	switch s {
	case StageTodo:
		return "To do"
	case StageInProgress:
		return "In progress"
	case StageAwaitFeedback:
		return "Await feedback"
	case StageDone:
		return "Done"
	default:
		return string(s)
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityUrgent Priority = "urgent"
)

// PriorityRank orders tasks within a stage, highest first. The "high"
// value is not part of the current set but still appears in documents
// written by older clients, so it keeps its historical rank. Unknown
// values rank lowest.
func PriorityRank(p Priority) int {
	switch p {
	case PriorityUrgent:
		return 4
	case Priority("high"):
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

type Category string

const (
	CategoryUserStory     Category = "User Story"
	CategoryTechnicalTask Category = "Technical Task"
)

var Categories = []Category{CategoryUserStory, CategoryTechnicalTask}

// NormalizeCategory coerces unknown categories to the first defined one.
func NormalizeCategory(c Category) Category {
	for _, known := range Categories {
		if c == known {
			return c
		}
	}
	return Categories[0]
}

// Subtask is an independently toggle-able checklist entry on a task.
type Subtask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Done      bool   `json:"done"`
	CreatedAt int64  `json:"createdAt"`
}

// Task is a single board item in the read model.
type Task struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Category         Category  `json:"category"`
	Priority         Priority  `json:"priority"`
	Stage            Stage     `json:"stage"`
	AssignedContacts []string  `json:"assignedContacts"`
	Subtasks         []Subtask `json:"subtasks"`
	DueDate          int64     `json:"dueDate,omitempty"`
	Color            int       `json:"color"`
	CreatedAt        int64     `json:"createdAt"`
	UpdatedAt        int64     `json:"updatedAt"`
}
