package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/baizehq/baize/internal/clock"
	memberdomain "github.com/baizehq/baize/internal/member/domain"
	"github.com/baizehq/baize/pkg/db"
	"github.com/baizehq/baize/pkg/repository"
)

var validTiers = map[string]struct{}{
	memberdomain.TierRegular: {},
	memberdomain.TierSilver:  {},
	memberdomain.TierGold:    {},
}

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	GenID  *snowflake.Node
	Repo   repository.Repository[memberdomain.Member]
	Ledger memberdomain.Ledger
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	clock  clock.Clock
	genID  *snowflake.Node
	repo   repository.Repository[memberdomain.Member]
	ledger memberdomain.Ledger
}

func New(p Params) memberdomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("member.service"),
		clock:  p.Clock,
		genID:  p.GenID,
		repo:   p.Repo,
		ledger: p.Ledger,
	}
}

func (s *Service) Create(ctx context.Context, req memberdomain.CreateRequest) (*memberdomain.Response, error) {
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		return nil, memberdomain.ErrInvalidPhone
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, memberdomain.ErrInvalidName
	}

	tier := strings.ToLower(strings.TrimSpace(req.Tier))
	if tier == "" {
		tier = memberdomain.TierRegular
	}
	if _, ok := validTiers[tier]; !ok {
		return nil, memberdomain.ErrInvalidTier
	}

	now := s.clock.Now()
	entity := &memberdomain.Member{
		ID:        s.genID.Generate(),
		Phone:     phone,
		Name:      name,
		Tier:      tier,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, entity); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, memberdomain.ErrDuplicatePhone
		}
		return nil, err
	}

	s.log.Info("member registered",
		zap.String("member_id", entity.ID.String()),
		zap.String("tier", tier),
	)

	return toResponse(entity), nil
}

func (s *Service) List(ctx context.Context) ([]memberdomain.Response, error) {
	items, err := s.repo.Find(ctx, &memberdomain.Member{}, repository.OrderBy("name ASC"))
	if err != nil {
		return nil, err
	}

	resp := make([]memberdomain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, *toResponse(item))
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*memberdomain.Response, error) {
	entity, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(entity), nil
}

func (s *Service) GetByPhone(ctx context.Context, phone string) (*memberdomain.Response, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, memberdomain.ErrInvalidPhone
	}

	entity, err := s.repo.FindOne(ctx, &memberdomain.Member{Phone: phone})
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, memberdomain.ErrNotFound
	}
	return toResponse(entity), nil
}

func (s *Service) Update(ctx context.Context, req memberdomain.UpdateRequest) (*memberdomain.Response, error) {
	entity, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, memberdomain.ErrInvalidName
		}
		entity.Name = name
		updates["name"] = name
	}
	if req.Tier != nil {
		tier := strings.ToLower(strings.TrimSpace(*req.Tier))
		if _, ok := validTiers[tier]; !ok {
			return nil, memberdomain.ErrInvalidTier
		}
		entity.Tier = tier
		updates["tier"] = tier
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

func (s *Service) GrantFreeMinutes(ctx context.Context, id string, minutes int64) (*memberdomain.Response, error) {
	if minutes <= 0 {
		return nil, memberdomain.ErrInvalidMinutes
	}

	entity, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entity.Active {
		return nil, memberdomain.ErrMemberInactive
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Exec(
		`UPDATE members
		 SET free_minutes_balance = free_minutes_balance + ?,
		     updated_at = ?
		 WHERE id = ?`,
		minutes, now, int64(entity.ID),
	).Error
	if err != nil {
		return nil, err
	}

	entity.FreeMinutesBalance += minutes
	entity.UpdatedAt = now

	s.log.Info("free minutes granted",
		zap.String("member_id", entity.ID.String()),
		zap.Int64("minutes", minutes),
	)

	return toResponse(entity), nil
}

func (s *Service) find(ctx context.Context, id string) (*memberdomain.Member, error) {
	memberID, err := snowflake.ParseString(id)
	if err != nil {
		return nil, memberdomain.ErrInvalidID
	}

	entity, err := s.repo.FindOne(ctx, &memberdomain.Member{ID: memberID})
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, memberdomain.ErrNotFound
	}
	return entity, nil
}

func toResponse(entity *memberdomain.Member) *memberdomain.Response {
	return &memberdomain.Response{
		ID:                 entity.ID.String(),
		Phone:              entity.Phone,
		Name:               entity.Name,
		Tier:               entity.Tier,
		FreeMinutesBalance: entity.FreeMinutesBalance,
		Active:             entity.Active,
		CreatedAt:          entity.CreatedAt,
		UpdatedAt:          entity.UpdatedAt,
	}
}
