package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	billingdomain "github.com/baizehq/baize/internal/billing/domain"
	"github.com/baizehq/baize/internal/clock"
	"github.com/baizehq/baize/internal/config"
	eventsdomain "github.com/baizehq/baize/internal/events/domain"
	inventorydomain "github.com/baizehq/baize/internal/inventory/domain"
	memberdomain "github.com/baizehq/baize/internal/member/domain"
	obsmetrics "github.com/baizehq/baize/internal/observability/metrics"
	sessiondomain "github.com/baizehq/baize/internal/tablesession/domain"
	tariffdomain "github.com/baizehq/baize/internal/tariff/domain"
)

var paymentMethods = map[string]struct{}{
	billingdomain.PaymentCash:  {},
	billingdomain.PaymentCard:  {},
	billingdomain.PaymentOther: {},
}

type Params struct {
	fx.In

	Cfg         config.Config
	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	GenID       *snowflake.Node
	Policy      *config.PolicyHolder
	Repo        billingdomain.Repository
	SessionRepo sessiondomain.Repository
	Stock       inventorydomain.Stock
	Members     memberdomain.Ledger
	Publisher   eventsdomain.Publisher
	Metrics     *obsmetrics.Metrics
}

type Service struct {
	defaultRegister string
	db              *gorm.DB
	log             *zap.Logger
	clock           clock.Clock
	genID           *snowflake.Node
	policy          *config.PolicyHolder
	repo            billingdomain.Repository
	sessionRepo     sessiondomain.Repository
	stock           inventorydomain.Stock
	members         memberdomain.Ledger
	publisher       eventsdomain.Publisher
	metrics         *obsmetrics.Metrics
}

func New(p Params) billingdomain.Service {
	return &Service{
		defaultRegister: p.Cfg.DefaultRegister,
		db:              p.DB,
		log:             p.Log.Named("billing.service"),
		clock:           p.Clock,
		genID:           p.GenID,
		policy:          p.Policy,
		repo:            p.Repo,
		sessionRepo:     p.SessionRepo,
		stock:           p.Stock,
		members:         p.Members,
		publisher:       p.Publisher,
		metrics:         p.Metrics,
	}
}

type lowStockNote struct {
	itemID   string
	sku      string
	name     string
	stockQty int64
}

func (s *Service) Create(ctx context.Context, req billingdomain.CreateRequest) (*billingdomain.Response, error) {
	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if _, ok := paymentMethods[method]; !ok {
		return nil, billingdomain.ErrInvalidPayment
	}
	if req.SessionID == nil && len(req.Items) == 0 {
		return nil, billingdomain.ErrEmptyBill
	}
	if req.TipMinor < 0 || req.TenderCashMinor < 0 || req.TenderCardMinor < 0 {
		return nil, billingdomain.ErrInvalidAmount
	}

	register := strings.TrimSpace(req.Register)
	if register == "" {
		register = s.defaultRegister
	}

	now := s.clock.Now()
	policy := s.policy.Current()

	bill := &billingdomain.Bill{
		ID:            s.genID.Generate(),
		Register:      register,
		Status:        billingdomain.StatusSettled,
		PaymentMethod: method,
		CreatedBy:     strings.TrimSpace(req.CreatedBy),
		CreatedAt:     now,
	}

	var lowStock []lowStockNote
	var memberTier string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session *sessiondomain.Session

		if req.SessionID != nil {
			sessionID, err := snowflake.ParseString(*req.SessionID)
			if err != nil {
				return billingdomain.ErrInvalidID
			}
			session, err = s.sessionRepo.Get(ctx, tx, int64(sessionID))
			if err != nil {
				return err
			}
			if session == nil {
				return billingdomain.ErrNotFound
			}
			if session.Open() {
				return billingdomain.ErrSessionStillOpen
			}
			if session.BillID != nil {
				return billingdomain.ErrSessionAlreadyBilled
			}
			bill.SessionID = &session.ID
			bill.TimeChargeMinor = session.TimeChargeMinor
			bill.MemberID = session.MemberID
		}

		if req.MemberID != nil && *req.MemberID != "" {
			memberID, err := snowflake.ParseString(*req.MemberID)
			if err != nil {
				return billingdomain.ErrInvalidID
			}
			bill.MemberID = &memberID
		}

		items, itemsSubtotal, notes, err := s.buildItems(ctx, tx, bill.ID, req.Items, now)
		if err != nil {
			return err
		}
		lowStock = notes
		bill.ItemsSubtotalMinor = itemsSubtotal

		var member *memberdomain.Member
		if bill.MemberID != nil {
			member, err = s.members.Get(ctx, tx, int64(*bill.MemberID))
			if err != nil {
				return err
			}
			if member == nil {
				return billingdomain.ErrNotFound
			}
			if !member.Active {
				return memberdomain.ErrMemberInactive
			}
			memberTier = member.Tier
		}

		bill.SubtotalMinor = bill.TimeChargeMinor + bill.ItemsSubtotalMinor

		// Membership pricing touches the time charge only, and in a
		// fixed order: the tier percentage comes off the full time
		// charge, then free minutes are credited at the full pinned
		// rate. Items are never discounted.
		tierDiscount := tariffdomain.MemberDiscount(bill.TimeChargeMinor, memberTier, policy)

		var freeCredit int64
		if member != nil && session != nil && member.FreeMinutesBalance > 0 {
			minutes, credit := tariffdomain.FreeMinutesCredit(
				member.FreeMinutesBalance,
				session.ElapsedMinutes,
				session.HourlyRateMinor,
			)
			if remaining := bill.TimeChargeMinor - tierDiscount; credit > remaining {
				credit = remaining
			}
			if minutes > 0 {
				consumed, err := s.members.ConsumeFreeMinutes(ctx, tx, int64(member.ID), minutes, now)
				if err != nil {
					return err
				}
				if consumed {
					bill.FreeMinutesUsed = minutes
					freeCredit = credit
				}
			}
		}

		bill.DiscountMinor = tierDiscount + freeCredit
		if bill.DiscountMinor > bill.SubtotalMinor {
			bill.DiscountMinor = bill.SubtotalMinor
		}

		bill.TaxMinor = tariffdomain.Tax(bill.SubtotalMinor-bill.DiscountMinor, policy)
		bill.TipMinor = req.TipMinor
		bill.TotalMinor = bill.SubtotalMinor - bill.DiscountMinor + bill.TaxMinor + bill.TipMinor

		tendered := req.TenderCashMinor + req.TenderCardMinor
		if tendered == 0 && method != billingdomain.PaymentCash {
			// Card and other sales keyed without amounts settle exactly.
			bill.TenderCardMinor = bill.TotalMinor
		} else {
			if tendered < bill.TotalMinor {
				return billingdomain.ErrInsufficientTender
			}
			bill.TenderCashMinor = req.TenderCashMinor
			bill.TenderCardMinor = req.TenderCardMinor
			bill.ChangeMinor = tendered - bill.TotalMinor
		}

		if err := s.repo.Insert(ctx, tx, bill, items); err != nil {
			return err
		}

		if session != nil {
			attached, err := s.repo.AttachSession(ctx, tx, int64(session.ID), int64(bill.ID), now)
			if err != nil {
				return err
			}
			if !attached {
				return billingdomain.ErrSessionAlreadyBilled
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordBillCreated(ctx, method)
	s.publisher.Publish(ctx, eventsdomain.TypeBillSettled, map[string]any{
		"bill_id":        bill.ID.String(),
		"register":       register,
		"total_minor":    bill.TotalMinor,
		"payment_method": method,
		"created_at":     now,
	})
	for _, note := range lowStock {
		s.publisher.Publish(ctx, eventsdomain.TypeLowStock, map[string]any{
			"item_id":   note.itemID,
			"sku":       note.sku,
			"name":      note.name,
			"stock_qty": note.stockQty,
		})
	}
	s.log.Info("bill settled",
		zap.String("bill_id", bill.ID.String()),
		zap.String("register", register),
		zap.String("payment_method", method),
		zap.Int64("total_minor", bill.TotalMinor),
	)

	return s.GetByID(ctx, bill.ID.String())
}

func (s *Service) buildItems(
	ctx context.Context,
	tx *gorm.DB,
	billID snowflake.ID,
	lines []billingdomain.ItemRequest,
	at time.Time,
) ([]billingdomain.BillItem, int64, []lowStockNote, error) {
	items := make([]billingdomain.BillItem, 0, len(lines))
	var subtotal int64
	var notes []lowStockNote

	for _, line := range lines {
		if line.Qty <= 0 {
			return nil, 0, nil, billingdomain.ErrInvalidQty
		}
		itemID, err := snowflake.ParseString(line.ItemID)
		if err != nil {
			return nil, 0, nil, billingdomain.ErrInvalidID
		}

		item, err := s.stock.Get(ctx, tx, int64(itemID))
		if err != nil {
			return nil, 0, nil, err
		}
		if item == nil {
			return nil, 0, nil, billingdomain.ErrNotFound
		}
		if !item.Active {
			return nil, 0, nil, inventorydomain.ErrItemInactive
		}

		decremented, err := s.stock.Decrement(ctx, tx, int64(item.ID), line.Qty, at)
		if err != nil {
			return nil, 0, nil, err
		}
		if !decremented {
			return nil, 0, nil, inventorydomain.ErrInsufficientStock
		}

		remaining := item.StockQty - line.Qty
		if item.LowStockThreshold > 0 && remaining <= item.LowStockThreshold {
			notes = append(notes, lowStockNote{
				itemID:   item.ID.String(),
				sku:      item.SKU,
				name:     item.Name,
				stockQty: remaining,
			})
		}

		lineTotal := item.PriceMinor * line.Qty
		subtotal += lineTotal

		billItem := billingdomain.BillItem{
			ID:             s.genID.Generate(),
			BillID:         billID,
			ItemID:         item.ID,
			Name:           item.Name,
			UnitPriceMinor: item.PriceMinor,
			Qty:            line.Qty,
			LineTotalMinor: lineTotal,
		}
		if len(line.Modifiers) > 0 {
			raw, err := json.Marshal(line.Modifiers)
			if err != nil {
				return nil, 0, nil, err
			}
			billItem.Modifiers = datatypes.JSON(raw)
		}
		items = append(items, billItem)
	}

	return items, subtotal, notes, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*billingdomain.Response, error) {
	billID, err := snowflake.ParseString(id)
	if err != nil {
		return nil, billingdomain.ErrInvalidID
	}

	bill, items, err := s.repo.Get(ctx, s.db, int64(billID))
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, billingdomain.ErrNotFound
	}

	return toResponse(bill, items), nil
}

func (s *Service) List(ctx context.Context, query billingdomain.ListQuery) ([]billingdomain.Response, error) {
	bills, err := s.repo.List(ctx, s.db, query)
	if err != nil {
		return nil, err
	}

	resp := make([]billingdomain.Response, 0, len(bills))
	for i := range bills {
		resp = append(resp, *toResponse(&bills[i], nil))
	}
	return resp, nil
}

func (s *Service) Void(ctx context.Context, id string, reason string) (*billingdomain.Response, error) {
	billID, err := snowflake.ParseString(id)
	if err != nil {
		return nil, billingdomain.ErrInvalidID
	}

	bill, _, err := s.repo.Get(ctx, s.db, int64(billID))
	if err != nil {
		return nil, err
	}
	if bill == nil {
		return nil, billingdomain.ErrNotFound
	}

	voided, err := s.repo.MarkVoided(ctx, s.db, int64(billID))
	if err != nil {
		return nil, err
	}
	if !voided {
		return nil, billingdomain.ErrAlreadyVoided
	}

	s.log.Warn("bill voided",
		zap.String("bill_id", bill.ID.String()),
		zap.String("reason", strings.TrimSpace(reason)),
	)

	return s.GetByID(ctx, id)
}

func toResponse(bill *billingdomain.Bill, items []billingdomain.BillItem) *billingdomain.Response {
	resp := &billingdomain.Response{
		ID:                 bill.ID.String(),
		Register:           bill.Register,
		Status:             bill.Status,
		TimeChargeMinor:    bill.TimeChargeMinor,
		ItemsSubtotalMinor: bill.ItemsSubtotalMinor,
		SubtotalMinor:      bill.SubtotalMinor,
		DiscountMinor:      bill.DiscountMinor,
		FreeMinutesUsed:    bill.FreeMinutesUsed,
		TaxMinor:           bill.TaxMinor,
		TipMinor:           bill.TipMinor,
		TotalMinor:         bill.TotalMinor,
		PaymentMethod:      bill.PaymentMethod,
		TenderCashMinor:    bill.TenderCashMinor,
		TenderCardMinor:    bill.TenderCardMinor,
		ChangeMinor:        bill.ChangeMinor,
		CreatedAt:          bill.CreatedAt,
	}
	if bill.SessionID != nil {
		id := bill.SessionID.String()
		resp.SessionID = &id
	}
	if bill.MemberID != nil {
		id := bill.MemberID.String()
		resp.MemberID = &id
	}
	for _, item := range items {
		itemResp := billingdomain.ItemResponse{
			ID:             item.ID.String(),
			ItemID:         item.ItemID.String(),
			Name:           item.Name,
			UnitPriceMinor: item.UnitPriceMinor,
			Qty:            item.Qty,
			LineTotalMinor: item.LineTotalMinor,
		}
		if len(item.Modifiers) > 0 {
			var modifiers map[string]any
			if err := json.Unmarshal(item.Modifiers, &modifiers); err == nil {
				itemResp.Modifiers = modifiers
			}
		}
		resp.Items = append(resp.Items, itemResp)
	}
	return resp
}
