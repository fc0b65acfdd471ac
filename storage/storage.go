package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"boardsync/domain"
)

// Store provides access to the remote document collections backing the
// board. All documents of one board share a partition; the row key is
// the document id.
type Store struct {
	svc     *aztables.ServiceClient
	queue   *azqueue.QueueClient
	redis   *redis.Client
	board   string
	channel string
}

// New creates a Store from the given connection string. The activity
// queue and the Redis update channel are shared by every collection.
func New(connStr, boardID, activityQueue string, rc *redis.Client, updatesChannel string) (*Store, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	queue, err := azqueue.NewQueueClientFromConnectionString(connStr, activityQueue, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return &Store{svc: svc, queue: queue, redis: rc, board: boardID, channel: updatesChannel}, nil
}

// Collection returns a client for one named collection (table).
func (s *Store) Collection(table string) *Collection {
	return &Collection{name: table, table: s.svc.NewClient(table), store: s}
}

// Collection is a keyed document collection supporting get-all,
// get-by-id, create, partial update and delete. Every successful write
// publishes a change notification so subscribers re-fetch the snapshot.
type Collection struct {
	name  string
	table *aztables.Client
	store *Store
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

type rowKeyOnly struct {
	RowKey string `json:"RowKey"`
}

// GetAll lists every document of the board partition.
func (c *Collection) GetAll(ctx context.Context) ([]domain.Document, error) {
	filter := "PartitionKey eq '" + c.store.board + "'"
	pager := c.table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	docs := []domain.Document{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			var key rowKeyOnly
			if err := json.Unmarshal(e, &key); err != nil {
				return nil, err
			}
			docs = append(docs, domain.Document{ID: key.RowKey, Data: e})
		}
	}
	return docs, nil
}

// Get retrieves a single document. The second return value reports
// whether the document exists.
func (c *Collection) Get(ctx context.Context, id string) (domain.Document, bool, error) {
	ent, err := c.table.GetEntity(ctx, c.store.board, id, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == 404 {
			return domain.Document{}, false, nil
		}
		return domain.Document{}, false, err
	}
	return domain.Document{ID: id, Data: ent.Value}, true, nil
}

// Set creates or replaces a document. CreatedAt and UpdatedAt are
// assigned here from the process-monotonic clock, never by callers.
func (c *Collection) Set(ctx context.Context, id string, fields map[string]any) error {
	ent := make(map[string]any, len(fields)+4)
	for k, v := range fields {
		ent[capKey(k)] = v
	}
	now := nextTimestamp()
	ent["PartitionKey"] = c.store.board
	ent["RowKey"] = id
	ent["CreatedAt"] = now
	ent["UpdatedAt"] = now
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	if _, err := c.table.UpsertEntity(ctx, payload, nil); err != nil {
		return err
	}
	c.store.changed(ctx, c.name, id, "created")
	return nil
}

// Merge applies a partial update to an existing document and bumps
// UpdatedAt.
func (c *Collection) Merge(ctx context.Context, id string, patch map[string]any) error {
	ent := make(map[string]any, len(patch)+3)
	for k, v := range patch {
		if k == "" {
			continue
		}
		ent[capKey(k)] = v
	}
	ent["PartitionKey"] = c.store.board
	ent["RowKey"] = id
	ent["UpdatedAt"] = nextTimestamp()
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	if _, err := c.table.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge}); err != nil {
		return err
	}
	c.store.changed(ctx, c.name, id, "updated")
	return nil
}

// Delete removes a document.
func (c *Collection) Delete(ctx context.Context, id string) error {
	if _, err := c.table.DeleteEntity(ctx, c.store.board, id, nil); err != nil {
		return err
	}
	c.store.changed(ctx, c.name, id, "deleted")
	return nil
}

// changed fans out a write: a pub/sub ping for subscribers and a
// best-effort activity record. Neither failure fails the write itself.
func (s *Store) changed(ctx context.Context, collection, id, action string) {
	ping, _ := json.Marshal(changeNotification{Collection: collection})
	if err := s.redis.Publish(ctx, s.channel, ping).Err(); err != nil {
		log.WithError(err).WithField("collection", collection).Error("unable to publish change notification")
	}
	s.recordActivity(ctx, Activity{Collection: collection, EntityID: id, Action: action, Time: time.Now().UnixMilli()})
}

type changeNotification struct {
	Collection string `json:"collection"`
}

func capKey(k string) string {
	if k == "" {
		return k
	}
	return strings.ToUpper(k[:1]) + k[1:]
}
