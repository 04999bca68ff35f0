package server

import (
	"net/http"
	"strings"
	"time"

	tariffdomain "github.com/baizehq/baize/internal/tariff/domain"
	"github.com/gin-gonic/gin"
)

type createTariffRequest struct {
	TableType       string     `json:"table_type"`
	Name            string     `json:"name"`
	HourlyRateMinor int64      `json:"hourly_rate_minor"`
	EffectiveFrom   *time.Time `json:"effective_from"`
}

func (s *Server) CreateTariff(c *gin.Context) {
	var req createTariffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tariffSvc.Create(c.Request.Context(), tariffdomain.CreateRequest{
		TableType:       strings.TrimSpace(req.TableType),
		Name:            strings.TrimSpace(req.Name),
		HourlyRateMinor: req.HourlyRateMinor,
		EffectiveFrom:   req.EffectiveFrom,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTariffs(c *gin.Context) {
	tableType := strings.TrimSpace(c.Query("table_type"))

	resp, err := s.tariffSvc.List(c.Request.Context(), tableType)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTariffByID(c *gin.Context) {
	resp, err := s.tariffSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateTariffRequest struct {
	Name            *string `json:"name"`
	HourlyRateMinor *int64  `json:"hourly_rate_minor"`
}

func (s *Server) UpdateTariff(c *gin.Context) {
	var req updateTariffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tariffSvc.Update(c.Request.Context(), tariffdomain.UpdateRequest{
		ID:              strings.TrimSpace(c.Param("id")),
		Name:            req.Name,
		HourlyRateMinor: req.HourlyRateMinor,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteTariff(c *gin.Context) {
	if err := s.tariffSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}
