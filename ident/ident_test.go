package ident

import (
	"context"
	"errors"
	"testing"

	"boardsync/domain"
)

type stubLister struct {
	ids []string
	err error
}

func (s *stubLister) GetAll(ctx context.Context) ([]domain.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	docs := make([]domain.Document, 0, len(s.ids))
	for _, id := range s.ids {
		docs = append(docs, domain.Document{ID: id})
	}
	return docs, nil
}

func TestNextSkipsGaps(t *testing.T) {
	lister := &stubLister{ids: []string{"task-001", "task-002", "task-005"}}

	id, err := Next(context.Background(), lister, "task")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if id != "task-006" {
		t.Fatalf("expected task-006, got %s", id)
	}
}

func TestNextEmptyCollection(t *testing.T) {
	id, err := Next(context.Background(), &stubLister{}, "contact")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if id != "contact-001" {
		t.Fatalf("expected contact-001, got %s", id)
	}
}

func TestNextIgnoresForeignIds(t *testing.T) {
	lister := &stubLister{ids: []string{"task-003", "contact-040", "task-x", "task-"}}

	id, err := Next(context.Background(), lister, "task")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if id != "task-004" {
		t.Fatalf("expected task-004, got %s", id)
	}
}

func TestNextGrowsPastPadding(t *testing.T) {
	lister := &stubLister{ids: []string{"task-999"}}

	id, err := Next(context.Background(), lister, "task")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if id != "task-1000" {
		t.Fatalf("expected task-1000, got %s", id)
	}
}

func TestNextScanFailureFailsCreate(t *testing.T) {
	lister := &stubLister{err: errors.New("listing down")}

	if _, err := Next(context.Background(), lister, "task"); err == nil {
		t.Fatal("expected scan error to propagate")
	}
}
