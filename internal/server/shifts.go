package server

import (
	"net/http"
	"strings"

	shiftdomain "github.com/baizehq/baize/internal/shift/domain"
	"github.com/gin-gonic/gin"
)

type openShiftRequest struct {
	Register          string `json:"register"`
	OpenedBy          string `json:"opened_by"`
	OpeningFloatMinor int64  `json:"opening_float_minor"`
}

func (s *Server) OpenShift(c *gin.Context) {
	var req openShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	register := strings.TrimSpace(req.Register)
	if register == "" {
		register = s.cfg.DefaultRegister
	}

	resp, err := s.shiftSvc.Open(c.Request.Context(), shiftdomain.OpenRequest{
		Register:          register,
		OpenedBy:          strings.TrimSpace(req.OpenedBy),
		OpeningFloatMinor: req.OpeningFloatMinor,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetActiveShift(c *gin.Context) {
	register := strings.TrimSpace(c.Query("register"))
	if register == "" {
		register = s.cfg.DefaultRegister
	}

	resp, err := s.shiftSvc.GetActive(c.Request.Context(), register)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type shiftMovementRequest struct {
	Type        string `json:"type"`
	AmountMinor int64  `json:"amount_minor"`
	Reason      string `json:"reason"`
	RecordedBy  string `json:"recorded_by"`
}

func (s *Server) RecordShiftMovement(c *gin.Context) {
	var req shiftMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.shiftSvc.RecordMovement(c.Request.Context(), shiftdomain.MovementRequest{
		ShiftID:     strings.TrimSpace(c.Param("id")),
		Type:        strings.TrimSpace(req.Type),
		AmountMinor: req.AmountMinor,
		Reason:      strings.TrimSpace(req.Reason),
		RecordedBy:  strings.TrimSpace(req.RecordedBy),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetShiftSummary(c *gin.Context) {
	resp, err := s.shiftSvc.Summary(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type closeShiftRequest struct {
	CountedCashMinor int64 `json:"counted_cash_minor"`
}

func (s *Server) CloseShift(c *gin.Context) {
	var req closeShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.shiftSvc.Close(c.Request.Context(), shiftdomain.CloseRequest{
		ShiftID:          strings.TrimSpace(c.Param("id")),
		CountedCashMinor: req.CountedCashMinor,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
