package server

import (
	"net/http"
	"strings"

	tablesessiondomain "github.com/baizehq/baize/internal/tablesession/domain"
	"github.com/gin-gonic/gin"
)

type startSessionRequest struct {
	TableID  string  `json:"table_id"`
	MemberID *string `json:"member_id"`
}

func (s *Server) StartSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.sessionSvc.Start(c.Request.Context(), tablesessiondomain.StartRequest{
		TableID:  strings.TrimSpace(req.TableID),
		MemberID: req.MemberID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PauseSession(c *gin.Context) {
	resp, err := s.sessionSvc.Pause(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ResumeSession(c *gin.Context) {
	resp, err := s.sessionSvc.Resume(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type moveSessionRequest struct {
	TableID string `json:"table_id"`
}

func (s *Server) MoveSession(c *gin.Context) {
	var req moveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.sessionSvc.Move(c.Request.Context(), strings.TrimSpace(c.Param("id")), strings.TrimSpace(req.TableID))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) StopSession(c *gin.Context) {
	resp, err := s.sessionSvc.Stop(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetSessionByID(c *gin.Context) {
	resp, err := s.sessionSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOpenSessions(c *gin.Context) {
	resp, err := s.sessionSvc.ListOpen(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
