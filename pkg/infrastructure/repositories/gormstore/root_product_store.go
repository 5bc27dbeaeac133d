package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

// RootProductStore keeps the root products under plan
type RootProductStore struct {
	db *gorm.DB
}

// NewRootProductStore creates a root product store over db
func NewRootProductStore(db *gorm.DB) *RootProductStore {
	return &RootProductStore{db: db}
}

var _ repositories.RootProductRepository = (*RootProductStore)(nil)

// ListRootProducts returns root products in registration order
func (s *RootProductStore) ListRootProducts(ctx context.Context) ([]*entities.RootProduct, error) {
	var rows []RootProductModel
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	products := make([]*entities.RootProduct, 0, len(rows))
	for _, row := range rows {
		products = append(products, &entities.RootProduct{ID: row.ID, ItemID: entities.ItemID(row.ItemID)})
	}
	return products, nil
}

// AddRootProduct registers an item; a second registration fails with ErrAlreadyExists
func (s *RootProductStore) AddRootProduct(ctx context.Context, itemID entities.ItemID) (*entities.RootProduct, error) {
	var product *entities.RootProduct
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&RootProductModel{}).Where("item_id = ?", int64(itemID)).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("root product for item %d: %w", itemID, repositories.ErrAlreadyExists)
		}

		row := RootProductModel{ItemID: int64(itemID)}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		product = &entities.RootProduct{ID: row.ID, ItemID: itemID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// RemoveRootProduct unregisters an item
func (s *RootProductStore) RemoveRootProduct(ctx context.Context, itemID entities.ItemID) error {
	result := s.db.WithContext(ctx).Where("item_id = ?", int64(itemID)).Delete(&RootProductModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("root product for item %d: %w", itemID, repositories.ErrNotFound)
	}
	return nil
}

// EnsureRootProducts registers every listed item that is not yet a root product
func (s *RootProductStore) EnsureRootProducts(ctx context.Context, itemIDs []entities.ItemID) (int, error) {
	added := 0
	for _, id := range itemIDs {
		if _, err := s.AddRootProduct(ctx, id); err != nil {
			if errors.Is(err, repositories.ErrAlreadyExists) {
				continue
			}
			return added, err
		}
		added++
	}
	return added, nil
}
