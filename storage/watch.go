package storage

import (
	"context"
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"boardsync/domain"
)

const snapshotKeyPrefix = "snapshot:"

// Watch subscribes to the update channel and pushes a fresh full
// snapshot of the collection on every change ping, plus one initial
// snapshot right after subscribing. It blocks until ctx is done; fetch
// errors go to onError and leave the previous snapshot standing. The
// latest snapshot is also cached in Redis so restarting consumers can
// warm up without hitting the table service.
func (c *Collection) Watch(ctx context.Context, onSnapshot func([]domain.Document), onError func(error)) {
	for {
		sub := c.store.redis.Subscribe(ctx, c.store.channel)
		ch := sub.Channel()

		c.pushSnapshot(ctx, onSnapshot, onError)

	recv:
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break recv
				}
				var ping changeNotification
				if err := json.Unmarshal([]byte(msg.Payload), &ping); err != nil {
					log.WithError(err).Error("unable to parse change notification")
					continue
				}
				if ping.Collection != c.name {
					continue
				}
				c.pushSnapshot(ctx, onSnapshot, onError)
			}
		}

		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}
		log.WithField("collection", c.name).Error("pubsub channel closed, reconnecting")
		time.Sleep(time.Second)
	}
}

func (c *Collection) pushSnapshot(ctx context.Context, onSnapshot func([]domain.Document), onError func(error)) {
	docs, err := c.GetAll(ctx)
	if err != nil {
		if onError != nil {
			onError(err)
		}
		return
	}
	c.cacheSnapshot(ctx, docs)
	onSnapshot(docs)
}

func (c *Collection) cacheSnapshot(ctx context.Context, docs []domain.Document) {
	raw := make([]json.RawMessage, 0, len(docs))
	for _, d := range docs {
		raw = append(raw, d.Data)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return
	}
	if err := c.store.redis.Set(ctx, snapshotKeyPrefix+c.name, data, 0).Err(); err != nil {
		log.WithError(err).WithField("collection", c.name).Error("unable to cache snapshot")
	}
}
