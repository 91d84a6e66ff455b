package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/logger"
	"velorent-backend/internal/repository"
	"velorent-backend/internal/scheduling"
	"velorent-backend/internal/utils"
)

type customerService struct {
	customerRepo repository.CustomerRepository
	rentalRepo   repository.RentalRepository
	resolver     *scheduling.Resolver
	projector    scheduling.Projector
	validator    Validator
	clock        utils.Clock
}

func NewCustomerService(
	customerRepo repository.CustomerRepository,
	rentalRepo repository.RentalRepository,
	resolver *scheduling.Resolver,
	projector scheduling.Projector,
	validator Validator,
	clock utils.Clock,
) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		rentalRepo:   rentalRepo,
		resolver:     resolver,
		projector:    projector,
		validator:    validator,
		clock:        clock,
	}
}

func normalizeCustomer(in *CustomerInput) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.DriverLicense = strings.TrimSpace(in.DriverLicense)
}

func (s *customerService) CreateCustomer(ctx context.Context, in CustomerInput) (*domain.Customer, error) {
	logger.EnterMethod("customerService.CreateCustomer", "email", in.Email)

	normalizeCustomer(&in)
	if err := s.validator.Struct(in); err != nil {
		logger.ExitMethodWithError("customerService.CreateCustomer", err)
		return nil, err
	}

	now := s.clock.Now()
	c := &domain.Customer{
		ID:            uuid.New().String(),
		FullName:      in.FullName,
		Email:         in.Email,
		Phone:         in.Phone,
		Address:       in.Address,
		DriverLicense: in.DriverLicense,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.customerRepo.Create(ctx, c); err != nil {
		logger.ExitMethodWithError("customerService.CreateCustomer", err, "email", c.Email)
		return nil, err
	}
	logger.ExitMethod("customerService.CreateCustomer", "customerID", c.ID)
	return c, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return s.customerRepo.GetByID(ctx, id)
}

func (s *customerService) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.customerRepo.List(ctx)
}

func (s *customerService) UpdateCustomer(ctx context.Context, id string, in CustomerInput) (*domain.Customer, error) {
	normalizeCustomer(&in)
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	c, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c.FullName = in.FullName
	c.Email = in.Email
	c.Phone = in.Phone
	c.Address = in.Address
	c.DriverLicense = in.DriverLicense
	c.UpdatedAt = s.clock.Now()
	if err := s.customerRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCustomer refuses while the customer holds a current or upcoming
// rental. It holds the customer's lock, which booking also takes, so a rental
// cannot be created between the check and the delete.
func (s *customerService) DeleteCustomer(ctx context.Context, id string) error {
	return s.resolver.WithCustomer(ctx, id, func(ctx context.Context) error {
		if _, err := s.customerRepo.GetByID(ctx, id); err != nil {
			return err
		}
		rentals, err := s.rentalRepo.List(ctx, repository.RentalFilter{CustomerID: id})
		if err != nil {
			return err
		}

		today := s.projector.Today(s.clock.Now())
		var blocking []domain.Rental
		for _, r := range rentals {
			if !r.EndDate.Before(today) {
				blocking = append(blocking, r)
			}
		}
		if len(blocking) > 0 {
			return domain.NewConflictError("customer has current or upcoming rentals", blocking)
		}
		if err := s.customerRepo.Delete(ctx, id); err != nil {
			return err
		}
		logger.Info("Customer removed", "customerID", id)
		return nil
	})
}
