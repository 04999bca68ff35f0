package server

import (
	"net/http"
	"strings"

	tabledomain "github.com/baizehq/baize/internal/table/domain"
	"github.com/gin-gonic/gin"
)

type createTableRequest struct {
	Code      string `json:"code"`
	TableType string `json:"table_type"`
}

func (s *Server) CreateTable(c *gin.Context) {
	var req createTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tableSvc.Create(c.Request.Context(), tabledomain.CreateRequest{
		Code:      strings.TrimSpace(req.Code),
		TableType: strings.TrimSpace(req.TableType),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTables(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))

	resp, err := s.tableSvc.List(c.Request.Context(), status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTableByID(c *gin.Context) {
	resp, err := s.tableSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type tableMaintenanceRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) SetTableMaintenance(c *gin.Context) {
	var req tableMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tableSvc.SetMaintenance(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.Enabled)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteTable(c *gin.Context) {
	if err := s.tableSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}
