package ident

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"boardsync/domain"
)

// Lister exposes the document ids of a collection.
type Lister interface {
	GetAll(ctx context.Context) ([]domain.Document, error)
}

// Next computes the next sequential display id for the collection:
// scan all ids matching prefix-NNN, take the maximum and return
// prefix-(N+1) zero-padded to three digits. Gaps left by deletions are
// not backfilled. The scan runs without a transaction, so two
// concurrent creators can compute the same id; callers invoke Next
// immediately before the create write to keep that window small. When
// the scan fails the create must fail too, never fall back to a
// possibly colliding id.
func Next(ctx context.Context, lister Lister, prefix string) (string, error) {
	docs, err := lister.GetAll(ctx)
	if err != nil {
		return "", fmt.Errorf("scan %s ids: %w", prefix, err)
	}

	re := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `-(\d+)$`)
	max := 0
	for _, doc := range docs {
		m := re.FindStringSubmatch(doc.ID)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s-%03d", prefix, max+1), nil
}
