package service

import (
	"context"
	"fmt"

	"velorent-backend/internal/domain"
	"velorent-backend/internal/logger"
	"velorent-backend/internal/repository"
	"velorent-backend/internal/scheduling"
	"velorent-backend/internal/utils"
)

type reminderService struct {
	rentalRepo   repository.RentalRepository
	carRepo      repository.CarRepository
	customerRepo repository.CustomerRepository
	email        EmailService
	noteSvc      NotificationService
	clock        utils.Clock
}

func NewReminderService(
	rentalRepo repository.RentalRepository,
	carRepo repository.CarRepository,
	customerRepo repository.CustomerRepository,
	email EmailService,
	noteSvc NotificationService,
	clock utils.Clock,
) ReminderService {
	return &reminderService{
		rentalRepo:   rentalRepo,
		carRepo:      carRepo,
		customerRepo: customerRepo,
		email:        email,
		noteSvc:      noteSvc,
		clock:        clock,
	}
}

func (s *reminderService) SendPaymentReminder(ctx context.Context, rentalID string) (*PaymentReminder, error) {
	logger.EnterMethod("reminderService.SendPaymentReminder", "rentalID", rentalID)

	rental, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		logger.ExitMethodWithError("reminderService.SendPaymentReminder", err, "rentalID", rentalID)
		return nil, err
	}
	if rental.Cancelled {
		err := domain.NewValidationError("rental", "cannot send a reminder for a cancelled rental")
		logger.ExitMethodWithError("reminderService.SendPaymentReminder", err, "rentalID", rentalID)
		return nil, err
	}
	due := rental.AmountDue()
	if !due.IsPositive() {
		err := domain.NewValidationError("rental", "rental is fully paid")
		logger.ExitMethodWithError("reminderService.SendPaymentReminder", err, "rentalID", rentalID)
		return nil, err
	}

	customer, err := s.customerRepo.GetByID(ctx, rental.CustomerID)
	if err != nil {
		logger.ExitMethodWithError("reminderService.SendPaymentReminder", err, "customerID", rental.CustomerID)
		return nil, err
	}
	car, err := s.carRepo.GetByID(ctx, rental.CarID)
	if err != nil {
		logger.ExitMethodWithError("reminderService.SendPaymentReminder", err, "carID", rental.CarID)
		return nil, err
	}

	if err := s.email.SendPaymentReminder(ctx, customer.Email, customer.FullName, car.Label(), due, rental.ID); err != nil {
		err = fmt.Errorf("send payment reminder for rental %s: %w", rental.ID, err)
		logger.ExitMethodWithError("reminderService.SendPaymentReminder", err, "rentalID", rentalID)
		return nil, err
	}

	now := s.clock.Now()
	_, err = s.noteSvc.Notify(ctx, &domain.Notification{
		Type:     domain.NotificationTypePayment,
		Priority: domain.PriorityLow,
		Title:    "Payment reminder sent",
		Message:  fmt.Sprintf("Reminded %s about %s outstanding on %s", customer.FullName, due.StringFixed(2), car.Label()),
		RentalID: rental.ID,
		Attributes: map[string]string{
			"amount_due":     due.StringFixed(2),
			"payment_status": string(scheduling.PaymentStatus(rental)),
			"email":          customer.Email,
		},
		CreatedAt: now,
	})
	if err != nil {
		logger.Warn("Reminder sent but its notification was not recorded", "rentalID", rental.ID, "error", err)
	}

	logger.Info("Manual payment reminder sent", "rentalID", rental.ID, "email", customer.Email, "amountDue", due.StringFixed(2))
	logger.ExitMethod("reminderService.SendPaymentReminder", "rentalID", rentalID)
	return &PaymentReminder{RentalID: rental.ID, Email: customer.Email, AmountDue: due, SentAt: now}, nil
}
