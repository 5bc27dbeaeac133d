package explosion

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

var errStoreDown = errors.New("connection refused")

func newTestEngine(catalog repositories.CatalogRepository, opts ...Option) (*Engine, *CatalogCache) {
	cache := NewCatalogCache(catalog, NewSpecResolver(catalog, zap.NewNop()))
	return NewEngine(cache, opts...), cache
}

// failingCatalog fails component reads of one specification
type failingCatalog struct {
	repositories.CatalogRepository
	failSpec entities.SpecID
}

func (f *failingCatalog) GetComponents(ctx context.Context, specID entities.SpecID) ([]*entities.SpecComponent, error) {
	if specID == f.failSpec {
		return nil, errStoreDown
	}
	return f.CatalogRepository.GetComponents(ctx, specID)
}

// recordingCollector keeps every callback in call order
type recordingCollector struct {
	visits     []NodeVisit
	components []ComponentEdge
	operations []OperationEdge
}

func (r *recordingCollector) OnEnter(_ context.Context, visit NodeVisit) error {
	r.visits = append(r.visits, visit)
	return nil
}

func (r *recordingCollector) OnComponentEdge(_ context.Context, edge ComponentEdge) error {
	r.components = append(r.components, edge)
	return nil
}

func (r *recordingCollector) OnOperationEdge(_ context.Context, edge OperationEdge) error {
	r.operations = append(r.operations, edge)
	return nil
}

func (r *recordingCollector) maxDepth() int {
	depth := 0
	for _, v := range r.visits {
		if v.Depth > depth {
			depth = v.Depth
		}
	}
	return depth
}
