package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/baizehq/baize/internal/clock"
	"github.com/baizehq/baize/internal/config"
	eventsdomain "github.com/baizehq/baize/internal/events/domain"
	obsmetrics "github.com/baizehq/baize/internal/observability/metrics"
	tabledomain "github.com/baizehq/baize/internal/table/domain"
	sessiondomain "github.com/baizehq/baize/internal/tablesession/domain"
	tariffdomain "github.com/baizehq/baize/internal/tariff/domain"
	"github.com/baizehq/baize/pkg/db"
	"github.com/baizehq/baize/pkg/repository"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	GenID     *snowflake.Node
	Policy    *config.PolicyHolder
	Repo      sessiondomain.Repository
	TableRepo repository.Repository[tabledomain.Table]
	Cache     sessiondomain.ActiveCache
	Tariff    tariffdomain.Service
	Publisher eventsdomain.Publisher
	Metrics   *obsmetrics.Metrics
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	genID     *snowflake.Node
	policy    *config.PolicyHolder
	repo      sessiondomain.Repository
	tableRepo repository.Repository[tabledomain.Table]
	cache     sessiondomain.ActiveCache
	tariff    tariffdomain.Service
	publisher eventsdomain.Publisher
	metrics   *obsmetrics.Metrics
}

func New(p Params) sessiondomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("tablesession.service"),
		clock:     p.Clock,
		genID:     p.GenID,
		policy:    p.Policy,
		repo:      p.Repo,
		tableRepo: p.TableRepo,
		cache:     p.Cache,
		tariff:    p.Tariff,
		publisher: p.Publisher,
		metrics:   p.Metrics,
	}
}

func (s *Service) Start(ctx context.Context, req sessiondomain.StartRequest) (*sessiondomain.Response, error) {
	tableID, err := snowflake.ParseString(req.TableID)
	if err != nil {
		return nil, sessiondomain.ErrInvalidID
	}

	table, err := s.tableRepo.FindOne(ctx, &tabledomain.Table{ID: tableID})
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, sessiondomain.ErrNotFound
	}
	switch table.Status {
	case tabledomain.StatusOccupied:
		return nil, sessiondomain.ErrAlreadyOccupied
	case tabledomain.StatusMaintenance:
		return nil, sessiondomain.ErrTableRetired
	}

	var memberID *snowflake.ID
	if req.MemberID != nil && *req.MemberID != "" {
		parsed, err := snowflake.ParseString(*req.MemberID)
		if err != nil {
			return nil, sessiondomain.ErrInvalidID
		}
		memberID = &parsed
	}

	now := s.clock.Now()

	// Rate is resolved once and pinned on the session row.
	rate, err := s.tariff.Resolve(ctx, table.TableType, now)
	if err != nil {
		return nil, err
	}

	session := &sessiondomain.Session{
		ID:              s.genID.Generate(),
		TableID:         table.ID,
		TableCode:       table.Code,
		TableType:       table.TableType,
		MemberID:        memberID,
		RateID:          rate.ID,
		HourlyRateMinor: rate.HourlyRateMinor,
		Status:          sessiondomain.StatusActive,
		StartedAt:       now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claimed, err := s.repo.ClaimTable(ctx, tx, int64(table.ID), tabledomain.StatusAvailable, tabledomain.StatusOccupied, now)
		if err != nil {
			return err
		}
		if !claimed {
			return sessiondomain.ErrAlreadyOccupied
		}
		return s.repo.Insert(ctx, tx, session)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, sessiondomain.ErrAlreadyOccupied
		}
		return nil, err
	}

	s.cache.Store(ctx, table.ID.String(), session.ID.String())
	s.metrics.RecordSessionStarted(ctx, table.TableType)
	s.publisher.Publish(ctx, eventsdomain.TypeSessionStarted, map[string]any{
		"session_id":        session.ID.String(),
		"table_id":          table.ID.String(),
		"table_code":        table.Code,
		"hourly_rate_minor": rate.HourlyRateMinor,
		"started_at":        now,
	})
	s.log.Info("session started",
		zap.String("session_id", session.ID.String()),
		zap.String("table_code", table.Code),
		zap.Int64("hourly_rate_minor", rate.HourlyRateMinor),
	)

	return s.toResponse(session), nil
}

func (s *Service) Pause(ctx context.Context, sessionID string) (*sessiondomain.Response, error) {
	session, err := s.find(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		moved, err := s.repo.Transition(ctx, tx, int64(session.ID), sessiondomain.StatusActive, sessiondomain.StatusPaused, now)
		if err != nil {
			return err
		}
		if !moved {
			return sessiondomain.ErrInvalidState
		}
		return s.repo.InsertPause(ctx, tx, &sessiondomain.Pause{
			ID:        s.genID.Generate(),
			SessionID: session.ID,
			PausedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	session.Status = sessiondomain.StatusPaused
	s.publisher.Publish(ctx, eventsdomain.TypeSessionPaused, map[string]any{
		"session_id": session.ID.String(),
		"table_code": session.TableCode,
		"paused_at":  now,
	})

	return s.toResponse(session), nil
}

func (s *Service) Resume(ctx context.Context, sessionID string) (*sessiondomain.Response, error) {
	session, err := s.find(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		moved, err := s.repo.Transition(ctx, tx, int64(session.ID), sessiondomain.StatusPaused, sessiondomain.StatusActive, now)
		if err != nil {
			return err
		}
		if !moved {
			return sessiondomain.ErrInvalidState
		}
		if _, err := s.repo.ResumePause(ctx, tx, int64(session.ID), now); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	session.Status = sessiondomain.StatusActive
	s.publisher.Publish(ctx, eventsdomain.TypeSessionResumed, map[string]any{
		"session_id": session.ID.String(),
		"table_code": session.TableCode,
		"resumed_at": now,
	})

	return s.toResponse(session), nil
}

// Move reseats an open session on another table. The clock keeps
// running and the rate stays the one pinned at start, even when the
// target table type carries a different tariff.
func (s *Service) Move(ctx context.Context, sessionID, tableID string) (*sessiondomain.Response, error) {
	session, err := s.find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Open() {
		return nil, sessiondomain.ErrInvalidState
	}

	targetID, err := snowflake.ParseString(tableID)
	if err != nil {
		return nil, sessiondomain.ErrInvalidID
	}
	target, err := s.tableRepo.FindOne(ctx, &tabledomain.Table{ID: targetID})
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, sessiondomain.ErrNotFound
	}
	switch target.Status {
	case tabledomain.StatusOccupied:
		return nil, sessiondomain.ErrAlreadyOccupied
	case tabledomain.StatusMaintenance:
		return nil, sessiondomain.ErrTableRetired
	}

	sourceID := session.TableID
	sourceCode := session.TableCode

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claimed, err := s.repo.ClaimTable(ctx, tx, int64(target.ID), tabledomain.StatusAvailable, tabledomain.StatusOccupied, now)
		if err != nil {
			return err
		}
		if !claimed {
			return sessiondomain.ErrAlreadyOccupied
		}

		moved, err := s.repo.Reseat(ctx, tx, sessiondomain.MoveUpdate{
			SessionID: int64(session.ID),
			TableID:   int64(target.ID),
			TableCode: target.Code,
			TableType: target.TableType,
			MovedAt:   now,
		})
		if err != nil {
			return err
		}
		if !moved {
			return sessiondomain.ErrInvalidState
		}

		if _, err := s.repo.ClaimTable(ctx, tx, int64(sourceID), tabledomain.StatusOccupied, tabledomain.StatusAvailable, now); err != nil {
			return err
		}

		session.TableID = target.ID
		session.TableCode = target.Code
		session.TableType = target.TableType
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Clear(ctx, sourceID.String())
	s.cache.Store(ctx, target.ID.String(), session.ID.String())
	s.publisher.Publish(ctx, eventsdomain.TypeSessionMoved, map[string]any{
		"session_id": session.ID.String(),
		"from_table": sourceCode,
		"to_table":   target.Code,
		"moved_at":   now,
	})
	s.log.Info("session moved",
		zap.String("session_id", session.ID.String()),
		zap.String("from_table", sourceCode),
		zap.String("to_table", target.Code),
	)

	return s.toResponse(session), nil
}

func (s *Service) Stop(ctx context.Context, sessionID string) (*sessiondomain.Response, error) {
	session, err := s.find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Open() {
		return nil, sessiondomain.ErrInvalidState
	}

	now := s.clock.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A still-open pause ends at the stop instant.
		if _, err := s.repo.ResumePause(ctx, tx, int64(session.ID), now); err != nil {
			return err
		}

		pauses, err := s.repo.ListPauses(ctx, tx, int64(session.ID))
		if err != nil {
			return err
		}

		pausedSeconds := sumPausedSeconds(pauses, now)
		elapsedMinutes := chargeableMinutes(session.StartedAt, now, pausedSeconds)
		charge := tariffdomain.ComputeCharge(elapsedMinutes, session.HourlyRateMinor, s.policy.Current())

		frozen, err := s.repo.FreezeClose(ctx, tx, sessiondomain.CloseUpdate{
			SessionID:       int64(session.ID),
			ClosedAt:        now,
			PausedSeconds:   pausedSeconds,
			ElapsedMinutes:  elapsedMinutes,
			TimeChargeMinor: charge,
		})
		if err != nil {
			return err
		}
		if !frozen {
			return sessiondomain.ErrInvalidState
		}

		if _, err := s.repo.ClaimTable(ctx, tx, int64(session.TableID), tabledomain.StatusOccupied, tabledomain.StatusAvailable, now); err != nil {
			return err
		}

		session.Status = sessiondomain.StatusClosed
		session.ClosedAt = &now
		session.PausedSeconds = pausedSeconds
		session.ElapsedMinutes = elapsedMinutes
		session.TimeChargeMinor = charge
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Clear(ctx, session.TableID.String())
	s.metrics.RecordSessionClosed(ctx, session.TableType, session.TimeChargeMinor)
	s.publisher.Publish(ctx, eventsdomain.TypeSessionClosed, map[string]any{
		"session_id":        session.ID.String(),
		"table_code":        session.TableCode,
		"elapsed_minutes":   session.ElapsedMinutes,
		"time_charge_minor": session.TimeChargeMinor,
		"closed_at":         now,
	})
	s.log.Info("session closed",
		zap.String("session_id", session.ID.String()),
		zap.String("table_code", session.TableCode),
		zap.Int64("elapsed_minutes", session.ElapsedMinutes),
		zap.Int64("time_charge_minor", session.TimeChargeMinor),
	)

	return s.toResponse(session), nil
}

func (s *Service) GetByID(ctx context.Context, sessionID string) (*sessiondomain.Response, error) {
	session, err := s.find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(session), nil
}

func (s *Service) ListOpen(ctx context.Context) ([]sessiondomain.Response, error) {
	sessions, err := s.repo.ListOpen(ctx, s.db)
	if err != nil {
		return nil, err
	}

	resp := make([]sessiondomain.Response, 0, len(sessions))
	for i := range sessions {
		resp = append(resp, *s.toResponse(&sessions[i]))
	}
	return resp, nil
}

func (s *Service) find(ctx context.Context, id string) (*sessiondomain.Session, error) {
	sessionID, err := snowflake.ParseString(id)
	if err != nil {
		return nil, sessiondomain.ErrInvalidID
	}

	session, err := s.repo.Get(ctx, s.db, int64(sessionID))
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, sessiondomain.ErrNotFound
	}
	return session, nil
}

func sumPausedSeconds(pauses []sessiondomain.Pause, now time.Time) int64 {
	var total int64
	for _, pause := range pauses {
		end := now
		if pause.ResumedAt != nil {
			end = *pause.ResumedAt
		}
		if seconds := int64(end.Sub(pause.PausedAt) / time.Second); seconds > 0 {
			total += seconds
		}
	}
	return total
}

// chargeableMinutes rounds active time up to the started minute, so a
// session is never billed zero for any positive active duration.
func chargeableMinutes(startedAt, closedAt time.Time, pausedSeconds int64) int64 {
	activeSeconds := int64(closedAt.Sub(startedAt)/time.Second) - pausedSeconds
	if activeSeconds <= 0 {
		return 0
	}
	return (activeSeconds + 59) / 60
}

func (s *Service) toResponse(session *sessiondomain.Session) *sessiondomain.Response {
	resp := &sessiondomain.Response{
		ID:              session.ID.String(),
		TableID:         session.TableID.String(),
		TableCode:       session.TableCode,
		TableType:       session.TableType,
		RateID:          session.RateID.String(),
		HourlyRateMinor: session.HourlyRateMinor,
		Status:          session.Status,
		StartedAt:       session.StartedAt,
		ClosedAt:        session.ClosedAt,
		PausedSeconds:   session.PausedSeconds,
		ElapsedMinutes:  session.ElapsedMinutes,
		TimeChargeMinor: session.TimeChargeMinor,
	}
	if session.MemberID != nil {
		id := session.MemberID.String()
		resp.MemberID = &id
	}
	if session.BillID != nil {
		id := session.BillID.String()
		resp.BillID = &id
	}
	return resp
}
