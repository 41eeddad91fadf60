package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/attaboy/bonusvalue/internal/repository"
	"github.com/google/uuid"
)

// OperatorService manages operators.
type OperatorService struct {
	db        repository.DBTX
	operators repository.OperatorRepository
	logger    *slog.Logger
}

// NewOperatorService creates an OperatorService.
func NewOperatorService(db repository.DBTX, operators repository.OperatorRepository, logger *slog.Logger) *OperatorService {
	return &OperatorService{db: db, operators: operators, logger: logger}
}

// OperatorInput holds operator creation fields.
type OperatorInput struct {
	Name     string   `json:"name" validate:"required,max=200"`
	Website  string   `json:"website,omitempty" validate:"omitempty,url"`
	Licenses []string `json:"licenses,omitempty" validate:"omitempty,max=20,dive,required,max=64"`
}

// Create registers a new operator.
func (s *OperatorService) Create(ctx context.Context, in OperatorInput) (*domain.Operator, error) {
	op := &domain.Operator{
		ID:       uuid.New(),
		Name:     strings.TrimSpace(in.Name),
		Website:  strings.TrimSpace(in.Website),
		Licenses: in.Licenses,
	}
	if op.Name == "" {
		return nil, domain.ErrValidation("name is required")
	}
	if err := s.operators.Create(ctx, s.db, op); err != nil {
		return nil, asAppError(err)
	}

	s.logger.Info("operator created", "operator_id", op.ID, "name", op.Name)
	return op, nil
}

// List returns all operators ordered by name.
func (s *OperatorService) List(ctx context.Context) ([]domain.Operator, error) {
	ops, err := s.operators.List(ctx, s.db)
	if err != nil {
		return nil, domain.ErrInternal("list operators", err)
	}
	if ops == nil {
		ops = []domain.Operator{}
	}
	return ops, nil
}
