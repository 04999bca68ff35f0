package service

import (
	"context"
	"strings"
	"unicode"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/baizehq/baize/internal/clock"
	employeedomain "github.com/baizehq/baize/internal/employee/domain"
	"github.com/baizehq/baize/pkg/db"
	"github.com/baizehq/baize/pkg/repository"
)

var validRoles = map[string]struct{}{
	employeedomain.RoleManager: {},
	employeedomain.RoleCashier: {},
	employeedomain.RoleFloor:   {},
}

type Params struct {
	fx.In

	Log   *zap.Logger
	Clock clock.Clock
	GenID *snowflake.Node
	Repo  repository.Repository[employeedomain.Employee]
}

type Service struct {
	log   *zap.Logger
	clock clock.Clock
	genID *snowflake.Node
	repo  repository.Repository[employeedomain.Employee]
}

func New(p Params) employeedomain.Service {
	return &Service{
		log:   p.Log.Named("employee.service"),
		clock: p.Clock,
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req employeedomain.CreateRequest) (*employeedomain.Response, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, employeedomain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, employeedomain.ErrInvalidName
	}

	role := strings.ToLower(strings.TrimSpace(req.Role))
	if _, ok := validRoles[role]; !ok {
		return nil, employeedomain.ErrInvalidRole
	}

	hash, err := hashPIN(req.PIN)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	entity := &employeedomain.Employee{
		ID:        s.genID.Generate(),
		Code:      code,
		Name:      name,
		Role:      role,
		PINHash:   hash,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, entity); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, employeedomain.ErrDuplicateCode
		}
		return nil, err
	}

	s.log.Info("employee registered",
		zap.String("employee_id", entity.ID.String()),
		zap.String("role", role),
	)

	return toResponse(entity), nil
}

func (s *Service) List(ctx context.Context) ([]employeedomain.Response, error) {
	items, err := s.repo.Find(ctx, &employeedomain.Employee{}, repository.OrderBy("name ASC"))
	if err != nil {
		return nil, err
	}

	resp := make([]employeedomain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, *toResponse(item))
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*employeedomain.Response, error) {
	entity, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(entity), nil
}

func (s *Service) VerifyPIN(ctx context.Context, code, pin string) (*employeedomain.Response, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, employeedomain.ErrInvalidCode
	}

	entity, err := s.repo.FindOne(ctx, &employeedomain.Employee{Code: code})
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, employeedomain.ErrNotFound
	}
	if !entity.Active {
		return nil, employeedomain.ErrEmployeeRetired
	}

	if err := bcrypt.CompareHashAndPassword([]byte(entity.PINHash), []byte(pin)); err != nil {
		return nil, employeedomain.ErrPINMismatch
	}

	return toResponse(entity), nil
}

func (s *Service) SetPIN(ctx context.Context, id, pin string) error {
	entity, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	hash, err := hashPIN(pin)
	if err != nil {
		return err
	}

	return s.repo.Update(ctx, entity.ID.String(), map[string]any{
		"pin_hash":   hash,
		"updated_at": s.clock.Now(),
	})
}

func (s *Service) Deactivate(ctx context.Context, id string) error {
	entity, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	return s.repo.Update(ctx, entity.ID.String(), map[string]any{
		"active":     false,
		"updated_at": s.clock.Now(),
	})
}

func (s *Service) find(ctx context.Context, id string) (*employeedomain.Employee, error) {
	employeeID, err := snowflake.ParseString(id)
	if err != nil {
		return nil, employeedomain.ErrInvalidID
	}

	entity, err := s.repo.FindOne(ctx, &employeedomain.Employee{ID: employeeID})
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, employeedomain.ErrNotFound
	}
	return entity, nil
}

// hashPIN accepts 4 to 8 digit PINs.
func hashPIN(pin string) (string, error) {
	pin = strings.TrimSpace(pin)
	if len(pin) < 4 || len(pin) > 8 {
		return "", employeedomain.ErrInvalidPIN
	}
	for _, r := range pin {
		if !unicode.IsDigit(r) {
			return "", employeedomain.ErrInvalidPIN
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func toResponse(entity *employeedomain.Employee) *employeedomain.Response {
	return &employeedomain.Response{
		ID:        entity.ID.String(),
		Code:      entity.Code,
		Name:      entity.Name,
		Role:      entity.Role,
		Active:    entity.Active,
		CreatedAt: entity.CreatedAt,
		UpdatedAt: entity.UpdatedAt,
	}
}
