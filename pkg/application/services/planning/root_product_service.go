package planning

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"go.uber.org/zap"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

// RootProductView is a root product joined with its item
type RootProductView struct {
	ID       int64  `json:"id"`
	ItemID   int64  `json:"item_id"`
	ItemCode string `json:"item_code"`
	ItemName string `json:"item_name"`
}

// StageView is a production stage as listed to clients
type StageView struct {
	ID    int64  `json:"stage_id"`
	Name  string `json:"stage_name"`
	Order int    `json:"stage_order"`
}

// RootProductService manages the set of finished products under plan
type RootProductService struct {
	catalog repositories.CatalogRepository
	roots   repositories.RootProductRepository
	plans   repositories.PlanRepository
	logger  *zap.Logger
}

// NewRootProductService creates a root product service; plans receives the cleanup of removed products
func NewRootProductService(
	catalog repositories.CatalogRepository,
	roots repositories.RootProductRepository,
	plans repositories.PlanRepository,
	logger *zap.Logger,
) *RootProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RootProductService{catalog: catalog, roots: roots, plans: plans, logger: logger}
}

// List returns root products ordered by item code
func (s *RootProductService) List(ctx context.Context) ([]RootProductView, error) {
	products, err := s.roots.ListRootProducts(ctx)
	if err != nil {
		return nil, internal("failed to list root products", err)
	}

	views := make([]RootProductView, 0, len(products))
	for _, p := range products {
		item, err := s.catalog.GetItem(ctx, p.ItemID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				s.logger.Warn("root product refers to unknown item", zap.Int64("item_id", int64(p.ItemID)))
				continue
			}
			return nil, internal(fmt.Sprintf("failed to read item %d", p.ItemID), err)
		}
		views = append(views, RootProductView{
			ID:       p.ID,
			ItemID:   int64(item.ID),
			ItemCode: item.Code,
			ItemName: item.Name,
		})
	}

	sort.Slice(views, func(i, j int) bool {
		if views[i].ItemCode != views[j].ItemCode {
			return views[i].ItemCode < views[j].ItemCode
		}
		return views[i].ItemName < views[j].ItemName
	})
	return views, nil
}

// Ensure registers the item with the given code as a root product.
// A product that is already registered is returned as is with created=false.
func (s *RootProductService) Ensure(ctx context.Context, itemCode string) (*RootProductView, bool, error) {
	code := strings.TrimSpace(itemCode)
	if code == "" {
		return nil, false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("item_code is required")
	}

	item, err := s.catalog.GetItemByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, false, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(fmt.Sprintf("item %q not found", code)).
				WithCause(err)
		}
		return nil, false, internal("failed to read item", err)
	}

	view := &RootProductView{ItemID: int64(item.ID), ItemCode: item.Code, ItemName: item.Name}
	product, err := s.roots.AddRootProduct(ctx, item.ID)
	if err != nil {
		if !errors.Is(err, repositories.ErrAlreadyExists) {
			return nil, false, internal("failed to add root product", err)
		}
		existing, err := s.findRootProduct(ctx, item.ID)
		if err != nil {
			return nil, false, err
		}
		view.ID = existing.ID
		return view, false, nil
	}

	s.logger.Info("root product added", zap.Int64("item_id", int64(item.ID)), zap.String("item_code", item.Code))
	view.ID = product.ID
	return view, true, nil
}

func (s *RootProductService) findRootProduct(ctx context.Context, itemID entities.ItemID) (*entities.RootProduct, error) {
	products, err := s.roots.ListRootProducts(ctx)
	if err != nil {
		return nil, internal("failed to list root products", err)
	}
	for _, p := range products {
		if p.ItemID == itemID {
			return p, nil
		}
	}
	return nil, internal(fmt.Sprintf("root product of item %d vanished", itemID), repositories.ErrNotFound)
}

// EnsureCodes registers every listed item code, skipping those already registered.
// Unknown codes fail the whole call before anything is written.
func (s *RootProductService) EnsureCodes(ctx context.Context, itemCodes []string) (int, error) {
	ids := make([]entities.ItemID, 0, len(itemCodes))
	for _, raw := range itemCodes {
		code := strings.TrimSpace(raw)
		if code == "" {
			continue
		}
		item, err := s.catalog.GetItemByCode(ctx, code)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return 0, errbuilder.New().
					WithCode(errbuilder.CodeNotFound).
					WithMsg(fmt.Sprintf("root product item %q not found", code)).
					WithCause(err)
			}
			return 0, internal("failed to read item", err)
		}
		ids = append(ids, item.ID)
	}

	added, err := s.roots.EnsureRootProducts(ctx, ids)
	if err != nil {
		return added, internal("failed to register root products", err)
	}
	s.logger.Info("root products ensured", zap.Int("requested", len(ids)), zap.Int("added", added))
	return added, nil
}

// Remove unregisters the root product of an item and drops its plan entries
func (s *RootProductService) Remove(ctx context.Context, itemID entities.ItemID) error {
	if err := s.roots.RemoveRootProduct(ctx, itemID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(fmt.Sprintf("item %d is not a root product", itemID)).
				WithCause(err)
		}
		return internal("failed to remove root product", err)
	}

	deleted, err := s.plans.DeletePlanEntries(ctx, repositories.PlanQuery{ItemIDs: []entities.ItemID{itemID}})
	if err != nil {
		return internal(fmt.Sprintf("failed to delete plan entries of item %d", itemID), err)
	}
	s.logger.Info("root product removed", zap.Int64("item_id", int64(itemID)), zap.Int("plan_entries_deleted", deleted))
	return nil
}

// Stages returns production stages ordered by stage order, then name
func (s *RootProductService) Stages(ctx context.Context) ([]StageView, error) {
	stages, err := s.catalog.ListStages(ctx)
	if err != nil {
		return nil, internal("failed to list stages", err)
	}

	views := make([]StageView, 0, len(stages))
	for _, st := range stages {
		views = append(views, StageView{ID: int64(st.ID), Name: st.DisplayName(), Order: st.Order})
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].Order != views[j].Order {
			return views[i].Order < views[j].Order
		}
		return views[i].Name < views[j].Name
	})
	return views, nil
}

func internal(msg string, cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(msg).
		WithCause(cause)
}
