package storage

import (
	"context"
	"encoding/json"

	log "github.com/sirupsen/logrus"
)

// Activity is one entry of the board activity feed. Records are
// enqueued best-effort after each write; a consumer (out of scope here)
// drains the queue into whatever audit view it needs.
type Activity struct {
	Collection string `json:"collection"`
	EntityID   string `json:"entityId"`
	Action     string `json:"action"`
	Time       int64  `json:"time"`
}

func (s *Store) recordActivity(ctx context.Context, a Activity) {
	if s.queue == nil {
		return
	}
	data, err := json.Marshal(a)
	if err != nil {
		return
	}
	if _, err := s.queue.EnqueueMessage(ctx, string(data), nil); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"collection": a.Collection,
			"entity":     a.EntityID,
			"action":     a.Action,
		}).Error("unable to enqueue activity record")
	}
}
