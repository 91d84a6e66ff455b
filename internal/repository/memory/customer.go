package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/repository"
)

type customerRepository struct {
	mu        sync.RWMutex
	customers map[string]domain.Customer
	byEmail   map[string]string
}

func NewCustomerRepository() repository.CustomerRepository {
	return &customerRepository{
		customers: make(map[string]domain.Customer),
		byEmail:   make(map[string]string),
	}
}

func (r *customerRepository) Create(_ context.Context, c *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.customers[c.ID]; exists {
		return fmt.Errorf("customer %s already exists", c.ID)
	}
	email := normalize(c.Email)
	if _, taken := r.byEmail[email]; taken {
		return domain.NewValidationError("email", "%q is already registered", c.Email)
	}
	r.customers[c.ID] = *c
	r.byEmail[email] = c.ID
	return nil
}

func (r *customerRepository) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.customers[id]
	if !ok {
		return nil, domain.NewNotFoundError("customer", id)
	}
	return &c, nil
}

func (r *customerRepository) GetByEmail(_ context.Context, email string) (*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[normalize(email)]
	if !ok {
		return nil, domain.NewNotFoundError("customer", email)
	}
	c := r.customers[id]
	return &c, nil
}

func (r *customerRepository) Update(_ context.Context, c *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.customers[c.ID]
	if !ok {
		return domain.NewNotFoundError("customer", c.ID)
	}
	email := normalize(c.Email)
	if owner, taken := r.byEmail[email]; taken && owner != c.ID {
		return domain.NewValidationError("email", "%q is already registered", c.Email)
	}
	delete(r.byEmail, normalize(prev.Email))
	r.byEmail[email] = c.ID
	r.customers[c.ID] = *c
	return nil
}

func (r *customerRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.customers[id]
	if !ok {
		return domain.NewNotFoundError("customer", id)
	}
	delete(r.byEmail, normalize(c.Email))
	delete(r.customers, id)
	return nil
}

func (r *customerRepository) List(_ context.Context) ([]domain.Customer, error) {
	r.mu.RLock()
	out := make([]domain.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, c)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
