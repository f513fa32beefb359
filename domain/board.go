package domain

import (
	"context"
	"sync"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
)

// Placement is the persisted position of one client: its lane and its dense
// rank within that lane.
type Placement struct {
	ID       int
	Status   Status
	Priority int
}

// Storage defines the persistence operations the board service needs.
type Storage interface {
	FetchClients(ctx context.Context, userID string) ([]Client, error)
	InsertClient(ctx context.Context, userID string, c Client) error
	UpdatePlacements(ctx context.Context, userID string, changes []Placement) error
	DeleteClient(ctx context.Context, userID string, id int) error
	EnqueueEvents(ctx context.Context, userID string, evs []Event) error
}

// BoardService owns every board mutation. Each write runs the full
// load-reconcile-persist sequence under a per-user lock so concurrent
// requests against the same board cannot lose updates.
type BoardService struct {
	st Storage

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewBoardService(st Storage) *BoardService {
	return &BoardService{st: st, locks: map[string]*sync.Mutex{}}
}

func (s *BoardService) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// ListClients returns the user's full board.
func (s *BoardService) ListClients(ctx context.Context, userID string) ([]Client, error) {
	return s.st.FetchClients(ctx, userID)
}

// GetClient returns a single client by id.
func (s *BoardService) GetClient(ctx context.Context, userID string, id int) (Client, error) {
	clients, err := s.st.FetchClients(ctx, userID)
	if err != nil {
		return Client{}, err
	}
	for _, c := range clients {
		if c.ID == id {
			return c, nil
		}
	}
	return Client{}, UnknownTargetError{ID: id}
}

// CreateClient adds a new client at the bottom of its lane. A nil status
// places the client in the backlog.
func (s *BoardService) CreateClient(ctx context.Context, userID, name, description string, status *Status) (Client, error) {
	lane := StatusBacklog
	if status != nil {
		if !status.Valid() {
			return Client{}, InvalidStatusError{Status: *status}
		}
		lane = *status
	}

	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	clients, err := s.st.FetchClients(ctx, userID)
	if err != nil {
		return Client{}, err
	}
	nextID := 1
	laneSize := 0
	for _, c := range clients {
		if c.ID >= nextID {
			nextID = c.ID + 1
		}
		if c.Status == lane {
			laneSize++
		}
	}
	client := Client{ID: nextID, Name: name, Description: description, Status: lane, Priority: laneSize + 1}
	if err := s.st.InsertClient(ctx, userID, client); err != nil {
		return Client{}, err
	}
	s.publish(ctx, userID, ClientCreated, client)
	return client, nil
}

// MoveClient applies one status/priority change and returns the full updated
// board. Only clients whose placement actually changed are written back.
func (s *BoardService) MoveClient(ctx context.Context, userID string, id int, status *Status, priority *int) ([]Client, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	clients, err := s.st.FetchClients(ctx, userID)
	if err != nil {
		return nil, err
	}
	updated, err := Reconcile(clients, id, status, priority)
	if err != nil {
		return nil, err
	}
	changes := changedPlacements(clients, updated)
	if len(changes) == 0 {
		return updated, nil
	}
	if err := s.st.UpdatePlacements(ctx, userID, changes); err != nil {
		return nil, err
	}
	for _, c := range updated {
		if c.ID == id {
			s.publish(ctx, userID, ClientMoved, c)
			break
		}
	}
	return updated, nil
}

// DeleteClient removes a client and renumbers its lane so the remaining
// priorities stay dense. It returns the board after the removal.
func (s *BoardService) DeleteClient(ctx context.Context, userID string, id int) ([]Client, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	clients, err := s.st.FetchClients(ctx, userID)
	if err != nil {
		return nil, err
	}
	target := -1
	for i := range clients {
		if clients[i].ID == id {
			target = i
			break
		}
	}
	if target < 0 {
		return nil, UnknownTargetError{ID: id}
	}

	out := make([]Client, len(clients))
	copy(out, clients)
	renumber(out, laneByRank(out, out[target].Status, target))
	removed := out[target]
	out = append(out[:target], out[target+1:]...)

	if err := s.st.DeleteClient(ctx, userID, id); err != nil {
		return nil, err
	}
	if changes := changedPlacements(clients, out); len(changes) > 0 {
		if err := s.st.UpdatePlacements(ctx, userID, changes); err != nil {
			return nil, err
		}
	}
	s.publish(ctx, userID, ClientDeleted, removed)
	return out, nil
}

// changedPlacements diffs two boards by client id and returns the placements
// that must be written back.
func changedPlacements(before, after []Client) []Placement {
	prev := make(map[int]Client, len(before))
	for _, c := range before {
		prev[c.ID] = c
	}
	changes := []Placement{}
	for _, c := range after {
		old, ok := prev[c.ID]
		if ok && old.Status == c.Status && old.Priority == c.Priority {
			continue
		}
		changes = append(changes, Placement{ID: c.ID, Status: c.Status, Priority: c.Priority})
	}
	return changes
}

// publish emits a board event. Event delivery is best effort: a queue outage
// must not fail a write that already committed.
func (s *BoardService) publish(ctx context.Context, userID, eventType string, c Client) {
	data, err := sonic.Marshal(c)
	if err != nil {
		log.WithFields(log.Fields{"client": c.ID, "type": eventType}).Warnf("marshal event: %v", err)
		return
	}
	ev := NewEvent(eventType, c.ID, data)
	if err := s.st.EnqueueEvents(ctx, userID, []Event{ev}); err != nil {
		log.WithFields(log.Fields{"client": c.ID, "type": eventType}).Warnf("enqueue event: %v", err)
	}
}
