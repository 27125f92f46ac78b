package servicerecord

import (
	"context"
	"fmt"
	"time"

	"crewtransit/internal/core/actor"
	"crewtransit/internal/core/apperror"
	"crewtransit/internal/core/id"
	"crewtransit/internal/core/tx"
	"crewtransit/internal/domain"
	"crewtransit/internal/domain/pricing"
	"crewtransit/pkg/logger"
	"crewtransit/pkg/numerator"
)

// PriceCalculator computes price breakdowns. Satisfied by *pricing.Calculator.
type PriceCalculator interface {
	Calculate(ctx context.Context, in pricing.Input) (*pricing.Breakdown, error)
}

// Service provides business operations for service records: creation with
// pricing, edit-gated updates, and the status state machine. Invoice linking
// is owned by the invoice aggregator, which calls the repository's
// conditional updates directly inside its own transaction.
type Service struct {
	repo       Repository
	calculator PriceCalculator
	numerator  numerator.Generator
	txManager  tx.Manager
	hooks      *domain.HookRegistry[*ServiceRecord]
}

// NewService creates a new service record service.
func NewService(
	repo Repository,
	calculator PriceCalculator,
	numGen numerator.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:       repo,
		calculator: calculator,
		numerator:  numGen,
		txManager:  txManager,
		hooks:      domain.NewHookRegistry[*ServiceRecord](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*ServiceRecord] {
	return s.hooks
}

// Create prices and persists a new service record in pending state. A record
// is never created without a price: a pricing failure blocks creation.
func (s *Service) Create(ctx context.Context, rec *ServiceRecord) error {
	if err := s.hooks.RunBeforeCreate(ctx, rec); err != nil {
		return err
	}

	rec.Normalize()
	rec.Status = StatusPending
	rec.InvoiceID = nil

	if err := s.reprice(ctx, rec); err != nil {
		return err
	}

	if err := rec.Validate(ctx); err != nil {
		return err
	}

	if rec.Number == "" {
		cfg := numerator.DefaultConfig(NumberPrefix)
		number, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		rec.Number = number
	}

	if a := actor.FromContext(ctx); a != nil {
		rec.CreatedBy = a.UserID
		rec.UpdatedBy = a.UserID
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, rec); err != nil {
			return fmt.Errorf("create record: %w", err)
		}
		if len(rec.Attachments) > 0 {
			if err := s.repo.SaveAttachments(ctx, rec.ID, rec.Attachments); err != nil {
				return fmt.Errorf("save attachments: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterCreate(ctx, rec); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "service record created",
		"id", rec.ID,
		"number", rec.Number,
		"client", rec.ClientCode,
		"price", rec.Price.String(),
		"currency", rec.Currency)

	return nil
}

// GetByID retrieves a record with its attachments.
func (s *Service) GetByID(ctx context.Context, recID id.ID) (*ServiceRecord, error) {
	rec, err := s.repo.GetByID(ctx, recID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetAttachments(ctx, recID)
	if err != nil {
		return nil, fmt.Errorf("get attachments: %w", err)
	}
	rec.Attachments = lines

	return rec, nil
}

// GetByNumber retrieves a record by document number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*ServiceRecord, error) {
	return s.repo.GetByNumber(ctx, number)
}

// Update modifies business fields of an editable record and recomputes its
// price. Edit-gating is checked against the stored status, not the caller's
// copy; status and invoice linkage cannot change through this path.
func (s *Service) Update(ctx context.Context, rec *ServiceRecord) error {
	if err := s.hooks.RunBeforeUpdate(ctx, rec); err != nil {
		return err
	}

	stored, err := s.repo.GetByID(ctx, rec.ID)
	if err != nil {
		return err
	}

	if err := stored.CanModify(); err != nil {
		return err
	}

	rec.Normalize()
	rec.Status = stored.Status
	rec.InvoiceID = stored.InvoiceID
	rec.Number = stored.Number

	// Any of route, category, passengers or waiting may have changed, and
	// all of them feed the price. Recompute unconditionally while editable.
	oldPrice := stored.Price
	if err := s.reprice(ctx, rec); err != nil {
		return err
	}

	if err := rec.Validate(ctx); err != nil {
		return err
	}

	if a := actor.FromContext(ctx); a != nil {
		rec.UpdatedBy = a.UserID
	}

	if err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, rec)
	}); err != nil {
		return err
	}

	if err := s.hooks.RunAfterUpdate(ctx, rec); err != nil {
		logger.Warn(ctx, "after-update hook failed", "error", err)
	}

	if !oldPrice.Equal(rec.Price) {
		logger.Info(ctx, "service record repriced",
			"id", rec.ID,
			"oldPrice", oldPrice.String(),
			"newPrice", rec.Price.String())
	}

	return nil
}

// ChangeStatus applies one state machine transition. Transitions into
// prefactured and invoiced belong to the invoice aggregator and are rejected
// here even though the table allows them.
func (s *Service) ChangeStatus(ctx context.Context, recID id.ID, target Status) (*ServiceRecord, error) {
	rec, err := s.repo.GetByID(ctx, recID)
	if err != nil {
		return nil, err
	}

	if target == StatusPrefactured || target == StatusInvoiced {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"status is managed by invoicing").
			WithDetail("status", string(target))
	}

	if err := CheckTransition(rec.Status, target); err != nil {
		return nil, err
	}

	ok, err := s.repo.UpdateStatus(ctx, recID, rec.Status, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NewConcurrentModification("service record", recID)
	}

	logger.Info(ctx, "service record status changed",
		"id", recID,
		"from", string(rec.Status),
		"to", string(target))

	rec.Status = target
	return rec, nil
}

// AddAttachment appends one attachment line. Allowed after completion but
// not once invoiced.
func (s *Service) AddAttachment(ctx context.Context, recID id.ID, fileName, fileRef string) (*ServiceRecord, error) {
	rec, err := s.GetByID(ctx, recID)
	if err != nil {
		return nil, err
	}

	addedBy := ""
	if a := actor.FromContext(ctx); a != nil {
		addedBy = a.UserID
	}

	if err := rec.AddAttachment(fileName, fileRef, addedBy, time.Now()); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.SaveAttachments(ctx, recID, rec.Attachments)
	})
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// Delete soft-deletes an editable record. Completed and later records are
// part of billing history and cannot be removed.
func (s *Service) Delete(ctx context.Context, recID id.ID) error {
	rec, err := s.repo.GetByID(ctx, recID)
	if err != nil {
		return err
	}

	if err := rec.CanModify(); err != nil {
		return err
	}

	rec.MarkDeleted()
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, rec)
	})
}

// List retrieves records with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*ServiceRecord], error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) reprice(ctx context.Context, rec *ServiceRecord) error {
	breakdown, err := s.calculator.Calculate(ctx, pricing.Input{
		OriginCode:      rec.OriginCode,
		DestinationCode: rec.DestinationCode,
		Category:        rec.Category,
		PassengerCount:  rec.PassengerCount,
		WaitingHours:    rec.WaitingHours,
	})
	if err != nil {
		return err
	}

	rec.ApplyPrice(breakdown)
	return nil
}
