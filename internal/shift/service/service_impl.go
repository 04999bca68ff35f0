package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/baizehq/baize/internal/clock"
	"github.com/baizehq/baize/internal/config"
	eventsdomain "github.com/baizehq/baize/internal/events/domain"
	obsmetrics "github.com/baizehq/baize/internal/observability/metrics"
	"github.com/baizehq/baize/internal/ratelimit"
	shiftdomain "github.com/baizehq/baize/internal/shift/domain"
	"github.com/baizehq/baize/pkg/db"
)

var movementTypes = map[string]struct{}{
	shiftdomain.MovementSale:       {},
	shiftdomain.MovementDrop:       {},
	shiftdomain.MovementPayout:     {},
	shiftdomain.MovementAdjustment: {},
}

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	GenID     *snowflake.Node
	Policy    *config.PolicyHolder
	Repo      shiftdomain.Repository
	Bills     shiftdomain.BillTotalsSource
	Limiter   *ratelimit.POSLimiter
	Publisher eventsdomain.Publisher
	Metrics   *obsmetrics.Metrics
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	genID     *snowflake.Node
	policy    *config.PolicyHolder
	repo      shiftdomain.Repository
	bills     shiftdomain.BillTotalsSource
	limiter   *ratelimit.POSLimiter
	publisher eventsdomain.Publisher
	metrics   *obsmetrics.Metrics
}

func New(p Params) shiftdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("shift.service"),
		clock:     p.Clock,
		genID:     p.GenID,
		policy:    p.Policy,
		repo:      p.Repo,
		bills:     p.Bills,
		limiter:   p.Limiter,
		publisher: p.Publisher,
		metrics:   p.Metrics,
	}
}

func (s *Service) Open(ctx context.Context, req shiftdomain.OpenRequest) (*shiftdomain.Response, error) {
	register := strings.TrimSpace(req.Register)
	if register == "" {
		return nil, shiftdomain.ErrInvalidRegister
	}
	if req.OpeningFloatMinor < 0 {
		return nil, shiftdomain.ErrInvalidAmount
	}

	token, locked, err := s.limiter.TryLockRegister(ctx, register)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, shiftdomain.ErrRegisterBusy
	}
	defer func() {
		if err := s.limiter.ReleaseRegister(ctx, register, token); err != nil {
			s.log.Warn("register lock release failed", zap.String("register", register), zap.Error(err))
		}
	}()

	active, err := s.repo.GetActiveByRegister(ctx, s.db, register)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, shiftdomain.ErrShiftAlreadyActive
	}

	now := s.clock.Now()
	shift := &shiftdomain.Shift{
		ID:                s.genID.Generate(),
		Register:          register,
		OpenedBy:          strings.TrimSpace(req.OpenedBy),
		Status:            shiftdomain.StatusOpen,
		OpenedAt:          now,
		OpeningFloatMinor: req.OpeningFloatMinor,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Insert(ctx, s.db, shift); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, shiftdomain.ErrShiftAlreadyActive
		}
		return nil, err
	}

	s.publisher.Publish(ctx, eventsdomain.TypeShiftOpened, map[string]any{
		"shift_id":            shift.ID.String(),
		"register":            register,
		"opening_float_minor": shift.OpeningFloatMinor,
		"opened_at":           now,
	})
	s.log.Info("shift opened",
		zap.String("shift_id", shift.ID.String()),
		zap.String("register", register),
		zap.Int64("opening_float_minor", shift.OpeningFloatMinor),
	)

	return toResponse(shift), nil
}

func (s *Service) RecordMovement(ctx context.Context, req shiftdomain.MovementRequest) (*shiftdomain.MovementResponse, error) {
	shift, err := s.find(ctx, req.ShiftID)
	if err != nil {
		return nil, err
	}
	if shift.Status != shiftdomain.StatusOpen {
		return nil, shiftdomain.ErrShiftNotActive
	}

	movementType := strings.ToLower(strings.TrimSpace(req.Type))
	if _, ok := movementTypes[movementType]; !ok {
		return nil, shiftdomain.ErrInvalidMovementType
	}
	if req.AmountMinor <= 0 {
		return nil, shiftdomain.ErrInvalidAmount
	}

	movement := &shiftdomain.CashMovement{
		ID:          s.genID.Generate(),
		ShiftID:     shift.ID,
		Type:        movementType,
		AmountMinor: req.AmountMinor,
		Reason:      strings.TrimSpace(req.Reason),
		RecordedBy:  strings.TrimSpace(req.RecordedBy),
		RecordedAt:  s.clock.Now(),
	}

	if err := s.repo.InsertMovement(ctx, s.db, movement); err != nil {
		return nil, err
	}

	return &shiftdomain.MovementResponse{
		ID:          movement.ID.String(),
		ShiftID:     shift.ID.String(),
		Type:        movement.Type,
		AmountMinor: movement.AmountMinor,
		Reason:      movement.Reason,
		RecordedBy:  movement.RecordedBy,
		RecordedAt:  movement.RecordedAt,
	}, nil
}

func (s *Service) Summary(ctx context.Context, shiftID string) (*shiftdomain.SummaryResponse, error) {
	shift, err := s.find(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, shift)
}

func (s *Service) Close(ctx context.Context, req shiftdomain.CloseRequest) (*shiftdomain.SummaryResponse, error) {
	shift, err := s.find(ctx, req.ShiftID)
	if err != nil {
		return nil, err
	}
	if shift.Status != shiftdomain.StatusOpen {
		return nil, shiftdomain.ErrShiftNotActive
	}
	if req.CountedCashMinor < 0 {
		return nil, shiftdomain.ErrInvalidAmount
	}

	token, locked, err := s.limiter.TryLockRegister(ctx, shift.Register)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, shiftdomain.ErrRegisterBusy
	}
	defer func() {
		if err := s.limiter.ReleaseRegister(ctx, shift.Register, token); err != nil {
			s.log.Warn("register lock release failed", zap.String("register", shift.Register), zap.Error(err))
		}
	}()

	now := s.clock.Now()
	summary, err := s.computeSummary(ctx, shift)
	if err != nil {
		return nil, err
	}

	variance := req.CountedCashMinor - summary.ExpectedCashMinor

	frozen, err := s.repo.FreezeClose(ctx, s.db, shiftdomain.CloseUpdate{
		ShiftID:           int64(shift.ID),
		ClosedAt:          now,
		ExpectedCashMinor: summary.ExpectedCashMinor,
		CountedCashMinor:  req.CountedCashMinor,
		VarianceMinor:     variance,
	})
	if err != nil {
		return nil, err
	}
	if !frozen {
		return nil, shiftdomain.ErrShiftNotActive
	}

	shift.Status = shiftdomain.StatusClosed
	shift.ClosedAt = &now
	shift.ExpectedCashMinor = summary.ExpectedCashMinor
	shift.CountedCashMinor = req.CountedCashMinor
	shift.VarianceMinor = variance

	summary.Status = shiftdomain.StatusClosed
	summary.ClosedAt = &now
	summary.CountedCashMinor = &req.CountedCashMinor
	summary.VarianceMinor = &variance

	s.metrics.RecordShiftClosed(ctx, shift.Register, variance)
	s.publisher.Publish(ctx, eventsdomain.TypeShiftClosed, map[string]any{
		"shift_id":            shift.ID.String(),
		"register":            shift.Register,
		"expected_cash_minor": summary.ExpectedCashMinor,
		"counted_cash_minor":  req.CountedCashMinor,
		"variance_minor":      variance,
		"closed_at":           now,
	})

	if alert := s.policy.Current().VarianceAlertMinor; alert > 0 && abs(variance) >= alert {
		s.publisher.Publish(ctx, eventsdomain.TypeVarianceAlert, map[string]any{
			"shift_id":       shift.ID.String(),
			"register":       shift.Register,
			"variance_minor": variance,
		})
		s.log.Warn("shift variance over threshold",
			zap.String("shift_id", shift.ID.String()),
			zap.Int64("variance_minor", variance),
		)
	}

	s.log.Info("shift closed",
		zap.String("shift_id", shift.ID.String()),
		zap.String("register", shift.Register),
		zap.Int64("variance_minor", variance),
	)

	return summary, nil
}

func (s *Service) GetActive(ctx context.Context, register string) (*shiftdomain.Response, error) {
	register = strings.TrimSpace(register)
	if register == "" {
		return nil, shiftdomain.ErrInvalidRegister
	}

	shift, err := s.repo.GetActiveByRegister(ctx, s.db, register)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, shiftdomain.ErrShiftNotActive
	}

	return toResponse(shift), nil
}

// summarize returns frozen numbers for a closed shift and live numbers
// for an open one.
func (s *Service) summarize(ctx context.Context, shift *shiftdomain.Shift) (*shiftdomain.SummaryResponse, error) {
	if shift.Status == shiftdomain.StatusClosed {
		summary, err := s.computeSummary(ctx, shift)
		if err != nil {
			return nil, err
		}
		summary.ExpectedCashMinor = shift.ExpectedCashMinor
		summary.CountedCashMinor = &shift.CountedCashMinor
		summary.VarianceMinor = &shift.VarianceMinor
		return summary, nil
	}
	return s.computeSummary(ctx, shift)
}

func (s *Service) computeSummary(ctx context.Context, shift *shiftdomain.Shift) (*shiftdomain.SummaryResponse, error) {
	movements, err := s.repo.ListMovements(ctx, s.db, int64(shift.ID))
	if err != nil {
		return nil, err
	}

	summary := &shiftdomain.SummaryResponse{
		ShiftID:           shift.ID.String(),
		Register:          shift.Register,
		Status:            shift.Status,
		OpenedAt:          shift.OpenedAt,
		ClosedAt:          shift.ClosedAt,
		OpeningFloatMinor: shift.OpeningFloatMinor,
	}

	for _, movement := range movements {
		switch movement.Type {
		case shiftdomain.MovementSale:
			summary.CashSalesMinor += movement.AmountMinor
		case shiftdomain.MovementDrop:
			summary.DropMinor += movement.AmountMinor
		case shiftdomain.MovementPayout:
			summary.PayoutMinor += movement.AmountMinor
		case shiftdomain.MovementAdjustment:
			summary.AdjustmentMinor += movement.AmountMinor
		}
	}

	// An open shift attributes bills up to now; a closed one up to its
	// close instant.
	billCash, billCard, err := s.bills.SalesTotals(ctx, shift.Register, shift.OpenedAt, shift.ClosedAt)
	if err != nil {
		return nil, err
	}
	summary.CashSalesMinor += billCash
	summary.CardSalesMinor = billCard

	summary.ExpectedCashMinor = shift.OpeningFloatMinor +
		summary.CashSalesMinor +
		summary.AdjustmentMinor -
		summary.DropMinor -
		summary.PayoutMinor

	return summary, nil
}

func (s *Service) find(ctx context.Context, id string) (*shiftdomain.Shift, error) {
	shiftID, err := snowflake.ParseString(id)
	if err != nil {
		return nil, shiftdomain.ErrInvalidID
	}

	shift, err := s.repo.Get(ctx, s.db, int64(shiftID))
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, shiftdomain.ErrNotFound
	}
	return shift, nil
}

func toResponse(shift *shiftdomain.Shift) *shiftdomain.Response {
	return &shiftdomain.Response{
		ID:                shift.ID.String(),
		Register:          shift.Register,
		OpenedBy:          shift.OpenedBy,
		Status:            shift.Status,
		OpenedAt:          shift.OpenedAt,
		ClosedAt:          shift.ClosedAt,
		OpeningFloatMinor: shift.OpeningFloatMinor,
	}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
