package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/baizehq/baize/internal/clock"
	"github.com/baizehq/baize/internal/config"
	tabledomain "github.com/baizehq/baize/internal/table/domain"
	tariffservice "github.com/baizehq/baize/internal/tariff/service"
	"github.com/baizehq/baize/pkg/db"
	"github.com/baizehq/baize/pkg/repository"
)

type Params struct {
	fx.In

	Cfg   config.Config
	Log   *zap.Logger
	Clock clock.Clock
	GenID *snowflake.Node
	Repo  repository.Repository[tabledomain.Table]
}

type Service struct {
	venueID string
	log     *zap.Logger
	clock   clock.Clock
	genID   *snowflake.Node
	repo    repository.Repository[tabledomain.Table]
}

func New(p Params) tabledomain.Service {
	return &Service{
		venueID: p.Cfg.HQ.VenueID,
		log:     p.Log.Named("table.service"),
		clock:   p.Clock,
		genID:   p.GenID,
		repo:    p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req tabledomain.CreateRequest) (*tabledomain.Response, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, tabledomain.ErrInvalidCode
	}

	tableType := strings.ToLower(strings.TrimSpace(req.TableType))
	if !tariffservice.ValidTableType(tableType) {
		return nil, tabledomain.ErrInvalidTableType
	}

	now := s.clock.Now()
	entity := &tabledomain.Table{
		ID:        s.genID.Generate(),
		VenueID:   s.venueID,
		Code:      code,
		TableType: tableType,
		Status:    tabledomain.StatusAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, entity); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, tabledomain.ErrDuplicateCode
		}
		return nil, err
	}

	s.log.Info("table registered",
		zap.String("table_id", entity.ID.String()),
		zap.String("code", code),
		zap.String("table_type", tableType),
	)

	return toResponse(entity), nil
}

func (s *Service) List(ctx context.Context, status string) ([]tabledomain.Response, error) {
	filter := &tabledomain.Table{VenueID: s.venueID}
	if status = strings.ToLower(strings.TrimSpace(status)); status != "" {
		filter.Status = status
	}

	items, err := s.repo.Find(ctx, filter, repository.OrderBy("code ASC"))
	if err != nil {
		return nil, err
	}

	resp := make([]tabledomain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, *toResponse(item))
	}

	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*tabledomain.Response, error) {
	entity, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(entity), nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*tabledomain.Response, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, tabledomain.ErrInvalidCode
	}

	entity, err := s.repo.FindOne(ctx, &tabledomain.Table{VenueID: s.venueID, Code: code})
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, tabledomain.ErrNotFound
	}

	return toResponse(entity), nil
}

func (s *Service) SetMaintenance(ctx context.Context, id string, enabled bool) (*tabledomain.Response, error) {
	entity, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity.Status == tabledomain.StatusOccupied {
		return nil, tabledomain.ErrTableOccupied
	}

	next := tabledomain.StatusAvailable
	if enabled {
		next = tabledomain.StatusMaintenance
	}

	now := s.clock.Now()
	if err := s.repo.Update(ctx, entity.ID.String(), map[string]any{
		"status":     next,
		"updated_at": now,
	}); err != nil {
		return nil, err
	}

	entity.Status = next
	entity.UpdatedAt = now
	return toResponse(entity), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	entity, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if entity.Status == tabledomain.StatusOccupied {
		return tabledomain.ErrTableOccupied
	}

	return s.repo.Delete(ctx, entity.ID.String())
}

func (s *Service) find(ctx context.Context, id string) (*tabledomain.Table, error) {
	tableID, err := snowflake.ParseString(id)
	if err != nil {
		return nil, tabledomain.ErrInvalidID
	}

	entity, err := s.repo.FindOne(ctx, &tabledomain.Table{ID: tableID})
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, tabledomain.ErrNotFound
	}

	return entity, nil
}

func toResponse(entity *tabledomain.Table) *tabledomain.Response {
	return &tabledomain.Response{
		ID:        entity.ID.String(),
		VenueID:   entity.VenueID,
		Code:      entity.Code,
		TableType: entity.TableType,
		Status:    entity.Status,
		CreatedAt: entity.CreatedAt,
		UpdatedAt: entity.UpdatedAt,
	}
}
