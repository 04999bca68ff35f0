package server

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) DailySalesReport(c *gin.Context) {
	day := time.Now().UTC()
	if raw := strings.TrimSpace(c.Query("day")); raw != "" {
		parsed, err := time.Parse(dateOnlyLayout, raw)
		if err != nil {
			AbortWithError(c, newValidationError("day", "invalid_day", "invalid day"))
			return
		}
		day = parsed
	}

	resp, err := s.reportSvc.DailySales(c.Request.Context(), day)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ShiftZReport(c *gin.Context) {
	reader, err := s.reportSvc.ShiftZReport(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", "inline; filename=z-report.pdf")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}
