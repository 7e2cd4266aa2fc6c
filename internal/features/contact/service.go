package contact

import (
	"context"
	"errors"
	"fmt"

	"taskpilot/internal/common/apperr"
	"taskpilot/internal/features/notification"

	"github.com/badoux/checkmail"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type SubmitInput struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,min=2,max=200"`
	Message string `json:"message" validate:"required,min=2,max=5000"`
}

type ContactService interface {
	Submit(ctx context.Context, input SubmitInput) (*Contact, error)
	List(ctx context.Context, status string, page, limit int64) ([]Contact, int64, error)
	Get(ctx context.Context, id string) (*Contact, error)
	UpdateStatus(ctx context.Context, id string, status string) error
	Delete(ctx context.Context, id string) error
}

type ContactServiceImpl struct {
	Repo       ContactRepository
	Dispatcher notification.Dispatcher
	Logger     *zap.Logger

	validate *validator.Validate
}

func NewContactService(repo ContactRepository, dispatcher notification.Dispatcher, logger *zap.Logger) ContactService {
	return &ContactServiceImpl{
		Repo:       repo,
		Dispatcher: dispatcher,
		Logger:     logger,
		validate:   validator.New(),
	}
}

func (s *ContactServiceImpl) Submit(ctx context.Context, input SubmitInput) (*Contact, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), apperr.ErrValidation)
	}
	if err := checkmail.ValidateFormat(input.Email); err != nil {
		return nil, fmt.Errorf("invalid email address: %w", apperr.ErrValidation)
	}

	c := &Contact{
		Name:    input.Name,
		Email:   input.Email,
		Subject: input.Subject,
		Message: input.Message,
	}
	if err := s.Repo.Create(ctx, c); err != nil {
		return nil, err
	}

	go s.Dispatcher.ContactSubmitted(context.Background(), c.ID, c.Name, c.Subject)

	return c, nil
}

func (s *ContactServiceImpl) List(ctx context.Context, status string, page, limit int64) ([]Contact, int64, error) {
	st := ContactStatus(status)
	if status != "" && !st.Valid() {
		return nil, 0, fmt.Errorf("invalid status %q: %w", status, apperr.ErrValidation)
	}
	offset := (page - 1) * limit
	return s.Repo.List(ctx, st, limit, offset)
}

func (s *ContactServiceImpl) Get(ctx context.Context, id string) (*Contact, error) {
	c, err := s.Repo.FindByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("contact: %w", apperr.ErrNotFound)
	} else if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ContactServiceImpl) UpdateStatus(ctx context.Context, id string, status string) error {
	st := ContactStatus(status)
	if !st.Valid() {
		return fmt.Errorf("invalid status %q: %w", status, apperr.ErrValidation)
	}

	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.Repo.UpdateStatus(ctx, c.ID, st)
}

func (s *ContactServiceImpl) Delete(ctx context.Context, id string) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.Repo.Delete(ctx, c.ID)
}
