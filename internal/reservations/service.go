package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelarde/comanda-backend/pkg/db/models"
	"github.com/avelarde/comanda-backend/pkg/enums"
	pkgerrors "github.com/avelarde/comanda-backend/pkg/errors"
)

// CreateInput is a public booking request.
type CreateInput struct {
	Name      string
	Email     string
	Phone     string
	PartySize int
	StartsAt  time.Time
	Note      string
}

// StaffPatch lets staff move a reservation through its states and seat it at
// a table.
type StaffPatch struct {
	Status  *enums.ReservationStatus
	TableID *uuid.UUID
	Note    *string
}

// Service manages table bookings. Creation is public; everything else is
// staff-side.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Reservation, error)
	List(ctx context.Context, status *enums.ReservationStatus) ([]models.Reservation, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	Update(ctx context.Context, id uuid.UUID, patch StaffPatch) (*models.Reservation, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reservations repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Reservation, error) {
	details := map[string]string{}
	if input.Name == "" {
		details["name"] = "is required"
	}
	if input.Phone == "" {
		details["phone"] = "is required"
	}
	if input.PartySize <= 0 {
		details["party_size"] = "must be positive"
	}
	if input.StartsAt.Before(time.Now()) {
		details["starts_at"] = "must be in the future"
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}

	reservation := &models.Reservation{
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		PartySize: input.PartySize,
		StartsAt:  input.StartsAt,
		Status:    enums.ReservationStatusPending,
		Note:      input.Note,
	}
	if err := s.repo.Create(ctx, reservation); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reservation")
	}
	return reservation, nil
}

func (s *service) List(ctx context.Context, status *enums.ReservationStatus) ([]models.Reservation, error) {
	reservations, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reservations")
	}
	return reservations, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	return s.load(ctx, id)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, patch StaffPatch) (*models.Reservation, error) {
	reservation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil {
		if !patch.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid reservation status")
		}
		if reservation.Status == enums.ReservationStatusCancelled && *patch.Status != reservation.Status {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled reservations cannot change state")
		}
		reservation.Status = *patch.Status
	}
	if patch.TableID != nil {
		reservation.TableID = patch.TableID
	}
	if patch.Note != nil {
		reservation.Note = *patch.Note
	}

	if err := s.repo.Update(ctx, reservation); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update reservation")
	}
	return reservation, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete reservation")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservation")
	}
	return reservation, nil
}
