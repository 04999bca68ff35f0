package server

import (
	"net/http"
	"strings"

	employeedomain "github.com/baizehq/baize/internal/employee/domain"
	"github.com/gin-gonic/gin"
)

type createEmployeeRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Role string `json:"role"`
	PIN  string `json:"pin"`
}

func (s *Server) CreateEmployee(c *gin.Context) {
	var req createEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.employeeSvc.Create(c.Request.Context(), employeedomain.CreateRequest{
		Code: strings.TrimSpace(req.Code),
		Name: strings.TrimSpace(req.Name),
		Role: strings.TrimSpace(req.Role),
		PIN:  strings.TrimSpace(req.PIN),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListEmployees(c *gin.Context) {
	resp, err := s.employeeSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetEmployeeByID(c *gin.Context) {
	resp, err := s.employeeSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type verifyPINRequest struct {
	Code string `json:"code"`
	PIN  string `json:"pin"`
}

func (s *Server) VerifyEmployeePIN(c *gin.Context) {
	var req verifyPINRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.employeeSvc.VerifyPIN(c.Request.Context(), strings.TrimSpace(req.Code), strings.TrimSpace(req.PIN))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type setPINRequest struct {
	PIN string `json:"pin"`
}

func (s *Server) SetEmployeePIN(c *gin.Context) {
	var req setPINRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.employeeSvc.SetPIN(c.Request.Context(), strings.TrimSpace(c.Param("id")), strings.TrimSpace(req.PIN)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"updated": true}})
}

func (s *Server) DeactivateEmployee(c *gin.Context) {
	if err := s.employeeSvc.Deactivate(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deactivated": true}})
}
