package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/baizehq/baize/internal/clock"
	tariffdomain "github.com/baizehq/baize/internal/tariff/domain"
	"github.com/baizehq/baize/pkg/repository"
)

var validTableTypes = map[string]struct{}{
	"pool":    {},
	"snooker": {},
	"carom":   {},
}

// ValidTableType reports whether the tariff engine knows the table type.
func ValidTableType(tableType string) bool {
	_, ok := validTableTypes[tableType]
	return ok
}

type Params struct {
	fx.In

	Log   *zap.Logger
	Clock clock.Clock
	GenID *snowflake.Node
	Repo  repository.Repository[tariffdomain.Rate]
}

type Service struct {
	log   *zap.Logger
	clock clock.Clock
	genID *snowflake.Node
	repo  repository.Repository[tariffdomain.Rate]
}

func New(p Params) tariffdomain.Service {
	return &Service{
		log:   p.Log.Named("tariff.service"),
		clock: p.Clock,
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req tariffdomain.CreateRequest) (*tariffdomain.Response, error) {
	tableType := strings.ToLower(strings.TrimSpace(req.TableType))
	if !ValidTableType(tableType) {
		return nil, tariffdomain.ErrInvalidTableType
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, tariffdomain.ErrInvalidName
	}

	if req.HourlyRateMinor <= 0 {
		return nil, tariffdomain.ErrInvalidRate
	}

	now := s.clock.Now()
	effectiveFrom := now
	if req.EffectiveFrom != nil {
		effectiveFrom = req.EffectiveFrom.UTC()
	}

	entity := &tariffdomain.Rate{
		ID:              s.genID.Generate(),
		TableType:       tableType,
		Name:            name,
		HourlyRateMinor: req.HourlyRateMinor,
		EffectiveFrom:   effectiveFrom,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, entity); err != nil {
		return nil, err
	}

	s.log.Info("tariff rate created",
		zap.String("rate_id", entity.ID.String()),
		zap.String("table_type", tableType),
		zap.Int64("hourly_rate_minor", entity.HourlyRateMinor),
	)

	return toResponse(entity), nil
}

func (s *Service) List(ctx context.Context, tableType string) ([]tariffdomain.Response, error) {
	filter := &tariffdomain.Rate{}
	if tableType = strings.ToLower(strings.TrimSpace(tableType)); tableType != "" {
		filter.TableType = tableType
	}

	items, err := s.repo.Find(ctx, filter, repository.OrderBy("effective_from DESC"))
	if err != nil {
		return nil, err
	}

	resp := make([]tariffdomain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, *toResponse(item))
	}

	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*tariffdomain.Response, error) {
	rateID, err := tariffdomain.ParseID(id)
	if err != nil {
		return nil, tariffdomain.ErrInvalidID
	}

	entity, err := s.repo.FindOne(ctx, &tariffdomain.Rate{ID: rateID})
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, tariffdomain.ErrNotFound
	}

	return toResponse(entity), nil
}

func (s *Service) Update(ctx context.Context, req tariffdomain.UpdateRequest) (*tariffdomain.Response, error) {
	rateID, err := tariffdomain.ParseID(req.ID)
	if err != nil {
		return nil, tariffdomain.ErrInvalidID
	}

	entity, err := s.repo.FindOne(ctx, &tariffdomain.Rate{ID: rateID})
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, tariffdomain.ErrNotFound
	}

	updates := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, tariffdomain.ErrInvalidName
		}
		entity.Name = name
		updates["name"] = name
	}
	if req.HourlyRateMinor != nil {
		if *req.HourlyRateMinor <= 0 {
			return nil, tariffdomain.ErrInvalidRate
		}
		entity.HourlyRateMinor = *req.HourlyRateMinor
		updates["hourly_rate_minor"] = *req.HourlyRateMinor
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

func (s *Service) Delete(ctx context.Context, id string) error {
	rateID, err := tariffdomain.ParseID(id)
	if err != nil {
		return tariffdomain.ErrInvalidID
	}

	entity, err := s.repo.FindOne(ctx, &tariffdomain.Rate{ID: rateID})
	if err != nil {
		return err
	}
	if entity == nil {
		return tariffdomain.ErrNotFound
	}

	return s.repo.Delete(ctx, entity.ID.String())
}

func (s *Service) Resolve(ctx context.Context, tableType string, at time.Time) (*tariffdomain.Rate, error) {
	tableType = strings.ToLower(strings.TrimSpace(tableType))
	if !ValidTableType(tableType) {
		return nil, tariffdomain.ErrInvalidTableType
	}

	entity, err := s.repo.FindOne(ctx,
		&tariffdomain.Rate{TableType: tableType},
		repository.Where("effective_from <= ?", at.UTC()),
		repository.OrderBy("effective_from DESC"),
	)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, tariffdomain.ErrNoApplicableRate
	}

	return entity, nil
}

func toResponse(entity *tariffdomain.Rate) *tariffdomain.Response {
	return &tariffdomain.Response{
		ID:              entity.ID.String(),
		TableType:       entity.TableType,
		Name:            entity.Name,
		HourlyRateMinor: entity.HourlyRateMinor,
		EffectiveFrom:   entity.EffectiveFrom,
		CreatedAt:       entity.CreatedAt,
		UpdatedAt:       entity.UpdatedAt,
	}
}
