package planning

import (
	"context"

	"go.uber.org/zap"

	"github.com/vsinha/prodplan/pkg/domain/repositories"
	"github.com/vsinha/prodplan/pkg/domain/services"
)

// ValidationService checks the stored specification graph
type ValidationService struct {
	source    repositories.SpecGraphSource
	validator *services.SpecValidator
	logger    *zap.Logger
}

// NewValidationService creates a validation service over source
func NewValidationService(source repositories.SpecGraphSource, logger *zap.Logger) *ValidationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidationService{source: source, validator: services.NewSpecValidator(), logger: logger}
}

// Validate loads the whole graph and reports cycles, duplicate and dangling lines
func (s *ValidationService) Validate(ctx context.Context) (*services.ValidationResult, error) {
	items, err := s.source.ListItems(ctx)
	if err != nil {
		return nil, internal("failed to list items", err)
	}
	specs, err := s.source.ListSpecifications(ctx)
	if err != nil {
		return nil, internal("failed to list specifications", err)
	}
	components, err := s.source.ListAllComponents(ctx)
	if err != nil {
		return nil, internal("failed to list spec components", err)
	}
	defaults, err := s.source.ListDefaultSpecs(ctx)
	if err != nil {
		return nil, internal("failed to list default specifications", err)
	}

	result := s.validator.Validate(services.SpecGraph{
		Items:          items,
		Specifications: specs,
		Components:     components,
		Defaults:       defaults,
	})

	s.logger.Info("specification graph validated",
		zap.Int("items", len(items)),
		zap.Int("specifications", len(specs)),
		zap.Int("components", len(components)),
		zap.Int("cycles", len(result.CyclePaths)),
		zap.Int("duplicates", len(result.DuplicateLines)),
		zap.Int("dangling", len(result.DanglingLines)),
	)
	return result, nil
}
