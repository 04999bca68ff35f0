package server

import (
	"net/http"
	"strings"

	memberdomain "github.com/baizehq/baize/internal/member/domain"
	"github.com/gin-gonic/gin"
)

type createMemberRequest struct {
	Phone string `json:"phone"`
	Name  string `json:"name"`
	Tier  string `json:"tier"`
}

func (s *Server) CreateMember(c *gin.Context) {
	var req createMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.memberSvc.Create(c.Request.Context(), memberdomain.CreateRequest{
		Phone: strings.TrimSpace(req.Phone),
		Name:  strings.TrimSpace(req.Name),
		Tier:  strings.TrimSpace(req.Tier),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListMembers(c *gin.Context) {
	if phone := strings.TrimSpace(c.Query("phone")); phone != "" {
		resp, err := s.memberSvc.GetByPhone(c.Request.Context(), phone)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": []any{resp}})
		return
	}

	resp, err := s.memberSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetMemberByID(c *gin.Context) {
	resp, err := s.memberSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateMemberRequest struct {
	Name   *string `json:"name"`
	Tier   *string `json:"tier"`
	Active *bool   `json:"active"`
}

func (s *Server) UpdateMember(c *gin.Context) {
	var req updateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.memberSvc.Update(c.Request.Context(), memberdomain.UpdateRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		Name:   req.Name,
		Tier:   req.Tier,
		Active: req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type grantFreeMinutesRequest struct {
	Minutes int64 `json:"minutes"`
}

func (s *Server) GrantMemberFreeMinutes(c *gin.Context) {
	var req grantFreeMinutesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.memberSvc.GrantFreeMinutes(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.Minutes)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
