package domain

import (
	"strings"
	"unicode/utf8"
)

// Contact is a directory entry referenced by Task.AssignedContacts.
// References are soft: deleting a contact leaves its id behind on
// tasks, and readers filter unresolved ids.
type Contact struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Initials  string `json:"initials"`
	Color     int    `json:"color"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Initials derives the avatar initials from a full name. It is computed
// once at creation and cached on the contact; a later rename does not
// recompute it.
func Initials(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	first, _ := utf8.DecodeRuneInString(fields[0])
	var b strings.Builder
	b.WriteString(strings.ToUpper(string(first)))
	if len(fields) > 1 {
		last, _ := utf8.DecodeRuneInString(fields[len(fields)-1])
		b.WriteString(strings.ToUpper(string(last)))
	}
	return b.String()
}
