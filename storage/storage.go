package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"github.com/Unknownuser10132/shiptivitas-2/domain"
)

const (
	defaultQueueConcurrency = 10
	queuePerCPU             = 10
	maxQueueConcurrency     = 64
)

type messageQueue interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
}

// Storage provides access to underlying persistence mechanisms.
type Storage struct {
	clientsTable     *aztables.Client
	eventsQueue      messageQueue
	queueConcurrency int
}

// New creates a Storage instance from the given connection string.
func New(connStr, clientsTable, eventsQueue string) (*Storage, error) {
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
	eq, err := azqueue.NewQueueClientFromConnectionString(connStr, eventsQueue, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{
		clientsTable:     svc.NewClient(clientsTable),
		eventsQueue:      eq,
		queueConcurrency: queueConcurrencyForCPU(runtime.NumCPU()),
	}, nil
}

func queueConcurrencyForCPU(cpu int) int {
	if cpu <= 0 {
		return defaultQueueConcurrency
	}
	n := cpu * queuePerCPU
	if n > maxQueueConcurrency {
		n = maxQueueConcurrency
	}
	return n
}

type clientEntity struct {
	aztables.Entity
	Name        string `json:"Name"`
	Description string `json:"Description"`
	Status      string `json:"Status"`
	Priority    int    `json:"Priority"`
}

func decodeClientEntity(data []byte) (domain.Client, error) {
	var ent clientEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Client{}, err
	}
	id, err := strconv.Atoi(ent.RowKey)
	if err != nil {
		return domain.Client{}, fmt.Errorf("client entity %q: bad row key: %w", ent.RowKey, err)
	}
	return domain.Client{
		ID:          id,
		Name:        ent.Name,
		Description: ent.Description,
		Status:      domain.Status(ent.Status),
		Priority:    ent.Priority,
	}, nil
}

// FetchClients retrieves every client on the provided user's board, ordered
// by id so sequential reads observe a stable collection order.
func (s *Storage) FetchClients(ctx context.Context, userID string) ([]domain.Client, error) {
	filter := "PartitionKey eq '" + userID + "'"
	pager := s.clientsTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	clients := []domain.Client{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			c, err := decodeClientEntity(e)
			if err != nil {
				return nil, err
			}
			clients = append(clients, c)
		}
	}
	sort.Slice(clients, func(a, b int) bool { return clients[a].ID < clients[b].ID })
	return clients, nil
}

// InsertClient adds a new client row.
func (s *Storage) InsertClient(ctx context.Context, userID string, c domain.Client) error {
	ent := clientEntity{
		Entity:      aztables.Entity{PartitionKey: userID, RowKey: strconv.Itoa(c.ID)},
		Name:        c.Name,
		Description: c.Description,
		Status:      string(c.Status),
		Priority:    c.Priority,
	}
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = s.clientsTable.AddEntity(ctx, payload, nil)
	return err
}

// UpdatePlacements writes the given (id, status, priority) triples as
// merge-mode updates, leaving payload columns untouched.
func (s *Storage) UpdatePlacements(ctx context.Context, userID string, changes []domain.Placement) error {
	for _, p := range changes {
		upd := map[string]any{
			"PartitionKey": userID,
			"RowKey":       strconv.Itoa(p.ID),
			"Status":       string(p.Status),
			"Priority":     p.Priority,
		}
		payload, err := json.Marshal(upd)
		if err != nil {
			return err
		}
		et := azcore.ETagAny
		_, err = s.clientsTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{
			IfMatch:    &et,
			UpdateMode: aztables.UpdateModeMerge,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteClient removes a client row.
func (s *Storage) DeleteClient(ctx context.Context, userID string, id int) error {
	_, err := s.clientsTable.DeleteEntity(ctx, userID, strconv.Itoa(id), nil)
	return err
}

// EnqueueEvents sends the given events to the board events queue. Sends run
// concurrently up to the configured queue concurrency.
func (s *Storage) EnqueueEvents(ctx context.Context, userID string, evs []domain.Event) error {
	if len(evs) == 0 {
		return nil
	}
	workers := s.queueConcurrency
	if workers <= 0 {
		workers = 1
	}
	if workers > len(evs) {
		workers = len(evs)
	}

	sem := make(chan struct{}, workers)
	errCh := make(chan error, len(evs))
	var wg sync.WaitGroup
	for _, ev := range evs {
		env := domain.EventEnvelope{UserID: userID, Event: ev}
		data, err := json.Marshal(env)
		if err != nil {
			return err
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(payload string) {
			defer wg.Done()
			defer func() { <-sem }()
			if _, err := s.eventsQueue.EnqueueMessage(ctx, payload, nil); err != nil {
				errCh <- err
			}
		}(string(data))
	}
	wg.Wait()
	close(errCh)
	return <-errCh
}
