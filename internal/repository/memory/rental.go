package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/repository"
)

type rentalRepository struct {
	mu      sync.RWMutex
	rentals map[string]domain.Rental
}

func NewRentalRepository() repository.RentalRepository {
	return &rentalRepository{rentals: make(map[string]domain.Rental)}
}

func clone(r domain.Rental) domain.Rental {
	if r.CancelledAt != nil {
		at := *r.CancelledAt
		r.CancelledAt = &at
	}
	return r
}

func (r *rentalRepository) Create(_ context.Context, rt *domain.Rental) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rentals[rt.ID]; exists {
		return fmt.Errorf("rental %s already exists", rt.ID)
	}
	r.rentals[rt.ID] = clone(*rt)
	return nil
}

func (r *rentalRepository) GetByID(_ context.Context, id string) (*domain.Rental, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.rentals[id]
	if !ok {
		return nil, domain.NewNotFoundError("rental", id)
	}
	out := clone(rt)
	return &out, nil
}

func (r *rentalRepository) Update(_ context.Context, rt *domain.Rental) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rentals[rt.ID]; !ok {
		return domain.NewNotFoundError("rental", rt.ID)
	}
	r.rentals[rt.ID] = clone(*rt)
	return nil
}

func (r *rentalRepository) List(_ context.Context, filter repository.RentalFilter) ([]domain.Rental, error) {
	r.mu.RLock()
	out := make([]domain.Rental, 0, len(r.rentals))
	for _, rt := range r.rentals {
		if rt.Cancelled && !filter.IncludeCancelled {
			continue
		}
		if filter.CarID != "" && rt.CarID != filter.CarID {
			continue
		}
		if filter.CustomerID != "" && rt.CustomerID != filter.CustomerID {
			continue
		}
		out = append(out, clone(rt))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
