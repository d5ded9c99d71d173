package sales

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Storage is the main interface for our sales storage layer.
type Storage interface {
	// Create persists a new sale, assigning identities that are still empty.
	Create(ctx context.Context, sale *Sale) (*Sale, error)
	// Read returns ErrNotFound when no sale has the given ID.
	Read(ctx context.Context, id string) (*Sale, error)
	GetAll(ctx context.Context) ([]*Sale, error)
	// Cancel loads the sale, applies Sale.Cancel and stores the result.
	// It returns false when the sale does not exist.
	Cancel(ctx context.Context, id string) (bool, error)
}

// LocalStorage provides an in-memory implementation for storing sales.
type LocalStorage struct {
	mu sync.RWMutex
	m  map[string]*Sale
}

// NewLocalStorage instantiates a new LocalStorage for sales with an empty map.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		m: map[string]*Sale{},
	}
}

func (l *LocalStorage) Create(ctx context.Context, sale *Sale) (*Sale, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	created := sale.clone()
	assignIDs(created)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.m[created.ID] = created
	return created.clone(), nil
}

// Read retrieves a sale from the local storage by ID.
// Returns ErrNotFound if the sale is not found.
func (l *LocalStorage) Read(ctx context.Context, id string) (*Sale, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.clone(), nil
}

// GetAll retrieves all sales, oldest first.
func (l *LocalStorage) GetAll(ctx context.Context) ([]*Sale, error) {
	l.mu.RLock()
	sales := make([]*Sale, 0, len(l.m))
	for _, s := range l.m {
		sales = append(sales, s.clone())
	}
	l.mu.RUnlock()

	sort.Slice(sales, func(i, j int) bool {
		return sales[i].SaleDate().Before(sales[j].SaleDate())
	})
	return sales, nil
}

func (l *LocalStorage) Cancel(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, ErrEmptyID
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.m[id]
	if !ok {
		return false, nil
	}
	if err := s.Cancel(); err != nil {
		return false, err
	}
	return true, nil
}

func assignIDs(sale *Sale) {
	if sale.ID == "" {
		sale.ID = uuid.NewString()
	}
	for i := range sale.Items {
		if sale.Items[i].ID == "" {
			sale.Items[i].ID = uuid.NewString()
		}
	}
}
