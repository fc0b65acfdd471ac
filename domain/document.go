package domain

import "github.com/bytedance/sonic"

// Document is one raw entry of a remote collection: the entity id plus
// the stored column payload as JSON. Mirrors map documents to typed
// entities through the Decode functions below, which supply a default
// for every optional field so consumers never see nil slices or
// out-of-set enum values.
type Document struct {
	ID   string
	Data []byte
}

type rawTask struct {
	RowKey           string  `json:"RowKey"`
	Title            string  `json:"Title"`
	Description      string  `json:"Description"`
	Category         string  `json:"Category"`
	Priority         string  `json:"Priority"`
	Stage            string  `json:"Stage"`
	AssignedContacts string  `json:"AssignedContacts"`
	Subtasks         string  `json:"Subtasks"`
	DueDate          float64 `json:"DueDate"`
	Color            float64 `json:"Color"`
	CreatedAt        float64 `json:"CreatedAt"`
	UpdatedAt        float64 `json:"UpdatedAt"`
}

// DecodeTask builds a typed task from a raw document. Malformed column
// payloads degrade to defaults instead of failing the whole snapshot.
func DecodeTask(doc Document) Task {
	var raw rawTask
	_ = sonic.Unmarshal(doc.Data, &raw)

	t := Task{
		ID:               doc.ID,
		Title:            raw.Title,
		Description:      raw.Description,
		Category:         NormalizeCategory(Category(raw.Category)),
		Priority:         Priority(raw.Priority),
		Stage:            NormalizeStage(Stage(raw.Stage)),
		AssignedContacts: decodeStringList(raw.AssignedContacts),
		Subtasks:         decodeSubtasks(raw.Subtasks),
		DueDate:          int64(raw.DueDate),
		Color:            NormalizeColor(int(raw.Color)),
		CreatedAt:        int64(raw.CreatedAt),
		UpdatedAt:        int64(raw.UpdatedAt),
	}
	if t.ID == "" {
		t.ID = raw.RowKey
	}
	return t
}

type rawContact struct {
	RowKey    string  `json:"RowKey"`
	Name      string  `json:"Name"`
	Email     string  `json:"Email"`
	Phone     string  `json:"Phone"`
	Initials  string  `json:"Initials"`
	Color     float64 `json:"Color"`
	CreatedAt float64 `json:"CreatedAt"`
	UpdatedAt float64 `json:"UpdatedAt"`
}

// DecodeContact builds a typed contact from a raw document.
func DecodeContact(doc Document) Contact {
	var raw rawContact
	_ = sonic.Unmarshal(doc.Data, &raw)

	c := Contact{
		ID:        doc.ID,
		Name:      raw.Name,
		Email:     raw.Email,
		Phone:     raw.Phone,
		Initials:  raw.Initials,
		Color:     NormalizeColor(int(raw.Color)),
		CreatedAt: int64(raw.CreatedAt),
		UpdatedAt: int64(raw.UpdatedAt),
	}
	if c.ID == "" {
		c.ID = raw.RowKey
	}
	if c.Initials == "" {
		c.Initials = Initials(c.Name)
	}
	return c
}

func decodeStringList(payload string) []string {
	out := []string{}
	if payload == "" {
		return out
	}
	if err := sonic.Unmarshal([]byte(payload), &out); err != nil {
		return []string{}
	}
	if out == nil {
		return []string{}
	}
	return out
}

func decodeSubtasks(payload string) []Subtask {
	out := []Subtask{}
	if payload == "" {
		return out
	}
	if err := sonic.Unmarshal([]byte(payload), &out); err != nil {
		return []Subtask{}
	}
	if out == nil {
		return []Subtask{}
	}
	return out
}

// EncodeTask flattens a task into the column map written to the store.
// Slice fields are stored as JSON strings because table columns are
// scalar.
func EncodeTask(t Task) map[string]any {
	assigned, _ := sonic.Marshal(t.AssignedContacts)
	subtasks, _ := sonic.Marshal(t.Subtasks)
	return map[string]any{
		"Title":            t.Title,
		"Description":      t.Description,
		"Category":         string(t.Category),
		"Priority":         string(t.Priority),
		"Stage":            string(t.Stage),
		"AssignedContacts": string(assigned),
		"Subtasks":         string(subtasks),
		"DueDate":          t.DueDate,
		"Color":            t.Color,
	}
}

// EncodeContact flattens a contact into the column map written to the store.
func EncodeContact(c Contact) map[string]any {
	return map[string]any{
		"Name":     c.Name,
		"Email":    c.Email,
		"Phone":    c.Phone,
		"Initials": c.Initials,
		"Color":    c.Color,
	}
}

// EncodeStringList serializes a string list column for a partial update.
func EncodeStringList(list []string) string {
	if list == nil {
		list = []string{}
	}
	data, _ := sonic.Marshal(list)
	return string(data)
}

// EncodeSubtasks serializes a subtask list for a partial update.
func EncodeSubtasks(subs []Subtask) string {
	if subs == nil {
		subs = []Subtask{}
	}
	data, _ := sonic.Marshal(subs)
	return string(data)
}
