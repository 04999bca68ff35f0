package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/baizehq/baize/internal/clock"
	inventorydomain "github.com/baizehq/baize/internal/inventory/domain"
	"github.com/baizehq/baize/pkg/db"
	"github.com/baizehq/baize/pkg/repository"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	GenID *snowflake.Node
	Repo  repository.Repository[inventorydomain.Item]
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	genID *snowflake.Node
	repo  repository.Repository[inventorydomain.Item]
}

func New(p Params) inventorydomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("inventory.service"),
		clock: p.Clock,
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req inventorydomain.CreateRequest) (*inventorydomain.Response, error) {
	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		return nil, inventorydomain.ErrInvalidSKU
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, inventorydomain.ErrInvalidName
	}
	if req.PriceMinor <= 0 {
		return nil, inventorydomain.ErrInvalidPrice
	}
	if req.StockQty < 0 || req.LowStockThreshold < 0 {
		return nil, inventorydomain.ErrInvalidQty
	}

	now := s.clock.Now()
	entity := &inventorydomain.Item{
		ID:                s.genID.Generate(),
		SKU:               sku,
		Name:              name,
		Category:          strings.ToLower(strings.TrimSpace(req.Category)),
		PriceMinor:        req.PriceMinor,
		StockQty:          req.StockQty,
		LowStockThreshold: req.LowStockThreshold,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, entity); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, inventorydomain.ErrDuplicateSKU
		}
		return nil, err
	}

	return toResponse(entity), nil
}

func (s *Service) List(ctx context.Context, category string) ([]inventorydomain.Response, error) {
	filter := &inventorydomain.Item{}
	if category = strings.ToLower(strings.TrimSpace(category)); category != "" {
		filter.Category = category
	}

	items, err := s.repo.Find(ctx, filter, repository.OrderBy("name ASC"))
	if err != nil {
		return nil, err
	}

	resp := make([]inventorydomain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, *toResponse(item))
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*inventorydomain.Response, error) {
	entity, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(entity), nil
}

func (s *Service) Update(ctx context.Context, req inventorydomain.UpdateRequest) (*inventorydomain.Response, error) {
	entity, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, inventorydomain.ErrInvalidName
		}
		entity.Name = name
		updates["name"] = name
	}
	if req.Category != nil {
		category := strings.ToLower(strings.TrimSpace(*req.Category))
		entity.Category = category
		updates["category"] = category
	}
	if req.PriceMinor != nil {
		if *req.PriceMinor <= 0 {
			return nil, inventorydomain.ErrInvalidPrice
		}
		entity.PriceMinor = *req.PriceMinor
		updates["price_minor"] = *req.PriceMinor
	}
	if req.LowStockThreshold != nil {
		if *req.LowStockThreshold < 0 {
			return nil, inventorydomain.ErrInvalidQty
		}
		entity.LowStockThreshold = *req.LowStockThreshold
		updates["low_stock_threshold"] = *req.LowStockThreshold
	}
	if req.Active != nil {
		entity.Active = *req.Active
		updates["active"] = *req.Active
	}
	if len(updates) == 0 {
		return toResponse(entity), nil
	}

	now := s.clock.Now()
	entity.UpdatedAt = now
	updates["updated_at"] = now

	if err := s.repo.Update(ctx, entity.ID.String(), updates); err != nil {
		return nil, err
	}
	return toResponse(entity), nil
}

func (s *Service) Restock(ctx context.Context, id string, qty int64) (*inventorydomain.Response, error) {
	if qty <= 0 {
		return nil, inventorydomain.ErrInvalidQty
	}

	entity, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Exec(
		`UPDATE inventory_items
		 SET stock_qty = stock_qty + ?,
		     updated_at = ?
		 WHERE id = ?`,
		qty, now, int64(entity.ID),
	).Error
	if err != nil {
		return nil, err
	}

	entity.StockQty += qty
	entity.UpdatedAt = now

	s.log.Info("item restocked",
		zap.String("item_id", entity.ID.String()),
		zap.String("sku", entity.SKU),
		zap.Int64("qty", qty),
	)

	return toResponse(entity), nil
}

func (s *Service) find(ctx context.Context, id string) (*inventorydomain.Item, error) {
	itemID, err := snowflake.ParseString(id)
	if err != nil {
		return nil, inventorydomain.ErrInvalidID
	}

	entity, err := s.repo.FindOne(ctx, &inventorydomain.Item{ID: itemID})
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, inventorydomain.ErrNotFound
	}
	return entity, nil
}

func toResponse(entity *inventorydomain.Item) *inventorydomain.Response {
	return &inventorydomain.Response{
		ID:                entity.ID.String(),
		SKU:               entity.SKU,
		Name:              entity.Name,
		Category:          entity.Category,
		PriceMinor:        entity.PriceMinor,
		StockQty:          entity.StockQty,
		LowStockThreshold: entity.LowStockThreshold,
		Active:            entity.Active,
		CreatedAt:         entity.CreatedAt,
		UpdatedAt:         entity.UpdatedAt,
	}
}
