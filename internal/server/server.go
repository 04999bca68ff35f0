package server

import (
	"context"
	"net/http"
	"time"

	"github.com/baizehq/baize/internal/billing"
	billingdomain "github.com/baizehq/baize/internal/billing/domain"
	"github.com/baizehq/baize/internal/config"
	"github.com/baizehq/baize/internal/employee"
	employeedomain "github.com/baizehq/baize/internal/employee/domain"
	"github.com/baizehq/baize/internal/events"
	"github.com/baizehq/baize/internal/hqmetrics"
	"github.com/baizehq/baize/internal/inventory"
	inventorydomain "github.com/baizehq/baize/internal/inventory/domain"
	"github.com/baizehq/baize/internal/member"
	memberdomain "github.com/baizehq/baize/internal/member/domain"
	"github.com/baizehq/baize/internal/observability"
	obslogger "github.com/baizehq/baize/internal/observability/logger"
	obsmetrics "github.com/baizehq/baize/internal/observability/metrics"
	obstracing "github.com/baizehq/baize/internal/observability/tracing"
	"github.com/baizehq/baize/internal/ratelimit"
	"github.com/baizehq/baize/internal/report"
	"github.com/baizehq/baize/internal/shift"
	shiftdomain "github.com/baizehq/baize/internal/shift/domain"
	"github.com/baizehq/baize/internal/table"
	tabledomain "github.com/baizehq/baize/internal/table/domain"
	"github.com/baizehq/baize/internal/tablesession"
	tablesessiondomain "github.com/baizehq/baize/internal/tablesession/domain"
	"github.com/baizehq/baize/internal/tariff"
	tariffdomain "github.com/baizehq/baize/internal/tariff/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	events.Module,
	ratelimit.Module,
	table.Module,
	tariff.Module,
	tablesession.Module,
	shift.Module,
	member.Module,
	inventory.Module,
	billing.Module,
	employee.Module,
	report.Module,
	hqmetrics.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	tableSvc     tabledomain.Service
	tariffSvc    tariffdomain.Service
	sessionSvc   tablesessiondomain.Service
	shiftSvc     shiftdomain.Service
	memberSvc    memberdomain.Service
	inventorySvc inventorydomain.Service
	billingSvc   billingdomain.Service
	employeeSvc  employeedomain.Service
	reportSvc    *report.Service
	eventsHub    *events.Hub
	limiter      *ratelimit.POSLimiter
	obsMetrics   *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	TableSvc     tabledomain.Service
	TariffSvc    tariffdomain.Service
	SessionSvc   tablesessiondomain.Service
	ShiftSvc     shiftdomain.Service
	MemberSvc    memberdomain.Service
	InventorySvc inventorydomain.Service
	BillingSvc   billingdomain.Service
	EmployeeSvc  employeedomain.Service
	ReportSvc    *report.Service
	EventsHub    *events.Hub
	Limiter      *ratelimit.POSLimiter
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		tableSvc:     p.TableSvc,
		tariffSvc:    p.TariffSvc,
		sessionSvc:   p.SessionSvc,
		shiftSvc:     p.ShiftSvc,
		memberSvc:    p.MemberSvc,
		inventorySvc: p.InventorySvc,
		billingSvc:   p.BillingSvc,
		employeeSvc:  p.EmployeeSvc,
		reportSvc:    p.ReportSvc,
		eventsHub:    p.EventsHub,
		limiter:      p.Limiter,
		obsMetrics:   p.ObsMetrics,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.GET("/tables", s.ListTables)
	api.POST("/tables", s.rateLimit("tables.write"), s.CreateTable)
	api.GET("/tables/:id", s.GetTableByID)
	api.POST("/tables/:id/maintenance", s.rateLimit("tables.write"), s.SetTableMaintenance)
	api.DELETE("/tables/:id", s.rateLimit("tables.write"), s.DeleteTable)

	api.GET("/tariffs", s.ListTariffs)
	api.POST("/tariffs", s.rateLimit("tariffs.write"), s.CreateTariff)
	api.GET("/tariffs/:id", s.GetTariffByID)
	api.PATCH("/tariffs/:id", s.rateLimit("tariffs.write"), s.UpdateTariff)
	api.DELETE("/tariffs/:id", s.rateLimit("tariffs.write"), s.DeleteTariff)

	api.GET("/sessions", s.ListOpenSessions)
	api.POST("/sessions", s.rateLimit("sessions.write"), s.StartSession)
	api.GET("/sessions/:id", s.GetSessionByID)
	api.POST("/sessions/:id/pause", s.rateLimit("sessions.write"), s.PauseSession)
	api.POST("/sessions/:id/resume", s.rateLimit("sessions.write"), s.ResumeSession)
	api.POST("/sessions/:id/move", s.rateLimit("sessions.write"), s.MoveSession)
	api.POST("/sessions/:id/stop", s.rateLimit("sessions.write"), s.StopSession)

	api.POST("/shifts", s.rateLimit("shifts.write"), s.OpenShift)
	api.GET("/shifts/active", s.GetActiveShift)
	api.GET("/shifts/:id/summary", s.GetShiftSummary)
	api.POST("/shifts/:id/movements", s.rateLimit("shifts.write"), s.RecordShiftMovement)
	api.POST("/shifts/:id/close", s.rateLimit("shifts.write"), s.CloseShift)

	api.GET("/bills", s.ListBills)
	api.POST("/bills", s.rateLimit("bills.write"), s.CreateBill)
	api.GET("/bills/:id", s.GetBillByID)
	api.POST("/bills/:id/void", s.rateLimit("bills.write"), s.VoidBill)
	api.GET("/bills/:id/receipt", s.BillReceipt)

	api.GET("/members", s.ListMembers)
	api.POST("/members", s.rateLimit("members.write"), s.CreateMember)
	api.GET("/members/:id", s.GetMemberByID)
	api.PATCH("/members/:id", s.rateLimit("members.write"), s.UpdateMember)
	api.POST("/members/:id/free-minutes", s.rateLimit("members.write"), s.GrantMemberFreeMinutes)

	api.GET("/inventory", s.ListInventoryItems)
	api.POST("/inventory", s.rateLimit("inventory.write"), s.CreateInventoryItem)
	api.GET("/inventory/:id", s.GetInventoryItemByID)
	api.PATCH("/inventory/:id", s.rateLimit("inventory.write"), s.UpdateInventoryItem)
	api.POST("/inventory/:id/restock", s.rateLimit("inventory.write"), s.RestockInventoryItem)

	api.GET("/employees", s.ListEmployees)
	api.POST("/employees", s.rateLimit("employees.write"), s.CreateEmployee)
	api.GET("/employees/:id", s.GetEmployeeByID)
	api.POST("/employees/verify-pin", s.rateLimit("employees.verify"), s.VerifyEmployeePIN)
	api.POST("/employees/:id/pin", s.rateLimit("employees.write"), s.SetEmployeePIN)
	api.DELETE("/employees/:id", s.rateLimit("employees.write"), s.DeactivateEmployee)

	api.GET("/reports/daily-sales", s.DailySalesReport)
	api.GET("/reports/shifts/:id/z-report", s.ShiftZReport)

	api.GET("/events", s.RecentEvents)
	api.GET("/events/stream", s.StreamEvents)
}
