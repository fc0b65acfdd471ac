package session

import (
	"context"
	"strings"

	"boardsync/domain"
	"boardsync/ident"
)

// ContactInput carries the fields of a create-contact form.
type ContactInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ContactPatch carries a partial contact update; nil fields stay
// untouched. Initials are cached from creation time and deliberately
// not recomputed when the name changes.
type ContactPatch struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// CreateContact validates the input, assigns the next sequential id,
// derives the cached initials and writes the document.
func (s *Session) CreateContact(ctx context.Context, in ContactInput) (domain.Contact, error) {
	c := domain.Contact{
		Name:  strings.Join(strings.Fields(in.Name), " "),
		Email: strings.TrimSpace(in.Email),
		Phone: strings.TrimSpace(in.Phone),
	}
	if err := domain.ValidateContact(c); err != nil {
		return domain.Contact{}, err
	}

	id, err := ident.Next(ctx, s.contacts, "contact")
	if err != nil {
		s.Notifier.Error("Could not create contact")
		return domain.Contact{}, err
	}
	c.ID = id
	c.Initials = domain.Initials(c.Name)
	c.Color = domain.PickColor(id)

	if err := s.contacts.Set(ctx, id, domain.EncodeContact(c)); err != nil {
		s.Notifier.Error("Could not create contact")
		return domain.Contact{}, err
	}
	s.Notifier.Success("Contact " + c.Name + " created")
	return c, nil
}

// UpdateContact applies a partial update to a contact.
func (s *Session) UpdateContact(ctx context.Context, id string, patch ContactPatch) error {
	fields := map[string]any{}
	if patch.Name != nil {
		name := strings.Join(strings.Fields(*patch.Name), " ")
		if len(strings.Fields(name)) < 2 {
			return domain.ValidationError{Field: "name", Reason: "first and last name required"}
		}
		fields["name"] = name
	}
	if patch.Email != nil {
		c := domain.Contact{Name: "a b", Email: *patch.Email, Phone: "+49 170 1234567"}
		if err := domain.ValidateContact(c); err != nil {
			return err
		}
		fields["email"] = *patch.Email
	}
	if patch.Phone != nil {
		c := domain.Contact{Name: "a b", Email: "a@example.com", Phone: *patch.Phone}
		if err := domain.ValidateContact(c); err != nil {
			return err
		}
		fields["phone"] = *patch.Phone
	}
	if len(fields) == 0 {
		return nil
	}

	if _, ok, err := s.contacts.Get(ctx, id); err != nil {
		return err
	} else if !ok {
		return ErrNotFound
	}
	if err := s.contacts.Merge(ctx, id, fields); err != nil {
		s.Notifier.Error("Could not update contact " + id)
		return err
	}
	return nil
}
