package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/lotgo/lotgo-backend/models"
)

// memLedger is an in-memory Ledger so tests never touch Postgres.
type memLedger struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*models.User
	byName map[string]uint
}

func newMemLedger() *memLedger {
	return &memLedger{
		users:  make(map[uint]*models.User),
		byName: make(map[string]uint),
	}
}

func (l *memLedger) Identify(username string) (*models.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id, ok := l.byName[username]; ok {
		u := *l.users[id]
		return &u, nil
	}
	l.nextID++
	u := &models.User{ID: l.nextID, Username: username, Balance: StartingBalance}
	l.users[u.ID] = u
	l.byName[username] = u.ID
	out := *u
	return &out, nil
}

func (l *memLedger) Credit(userID uint, amount float64, _ models.TransactionType) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	u, ok := l.users[userID]
	if !ok {
		return 0, fmt.Errorf("no such user %d", userID)
	}
	u.Balance += amount
	return u.Balance, nil
}

func (l *memLedger) Debit(userID uint, amount float64, _ models.TransactionType) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	u, ok := l.users[userID]
	if !ok {
		return 0, fmt.Errorf("no such user %d", userID)
	}
	if u.Balance < amount {
		return 0, ErrInsufficientFunds
	}
	u.Balance -= amount
	return u.Balance, nil
}

func (l *memLedger) Transfer(fromID, toID uint, amount float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	from, ok := l.users[fromID]
	if !ok {
		return fmt.Errorf("no such user %d", fromID)
	}
	to, ok := l.users[toID]
	if !ok {
		return fmt.Errorf("no such user %d", toID)
	}
	if from.Balance < amount {
		return ErrInsufficientFunds
	}
	from.Balance -= amount
	to.Balance += amount
	return nil
}

func (l *memLedger) balance(userID uint) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.users[userID].Balance
}

// memRoundStore records rounds in memory.
type memRoundStore struct {
	mu     sync.Mutex
	nextID uint
	rounds map[uint]models.Round
}

func newMemRoundStore() *memRoundStore {
	return &memRoundStore{rounds: make(map[uint]models.Round)}
}

func (s *memRoundStore) Create(round *models.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	round.ID = s.nextID
	s.rounds[round.ID] = *round
	return nil
}

func (s *memRoundStore) Update(round *models.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[round.ID] = *round
	return nil
}

func (s *memRoundStore) get(id uint) (models.Round, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[id]
	return r, ok
}

func newTestCoordinator() (*Coordinator, *memLedger, *memRoundStore) {
	ledger := newMemLedger()
	store := newMemRoundStore()
	return NewCoordinator(ledger, store), ledger, store
}

// connect attaches a connectionless test client to the coordinator.
func connect(c *Coordinator) *Client {
	cl := &Client{
		id:    uuid.NewString(),
		coord: c,
		send:  make(chan []byte, 256),
	}
	c.connMu.Lock()
	c.conns[cl.id] = cl
	c.connMu.Unlock()
	return cl
}

// identified connects and identifies a client in one step.
func identified(t *testing.T, c *Coordinator, username string) *Client {
	t.Helper()
	cl := connect(c)
	if err := c.Identify(cl, username); err != nil {
		t.Fatalf("identify %s: %v", username, err)
	}
	return cl
}

// drainEvents empties a client's outbound queue, decoded as loose maps.
func drainEvents(cl *Client) []map[string]any {
	var events []map[string]any
	for {
		select {
		case b := <-cl.send:
			var m map[string]any
			if err := json.Unmarshal(b, &m); err == nil {
				events = append(events, m)
			}
		default:
			return events
		}
	}
}

// eventsOfType filters drained events by their type tag.
func eventsOfType(events []map[string]any, typ string) []map[string]any {
	var out []map[string]any
	for _, e := range events {
		if e["type"] == typ {
			out = append(out, e)
		}
	}
	return out
}
