package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	billingdomain "github.com/baizehq/baize/internal/billing/domain"
	"github.com/gin-gonic/gin"
)

type createBillRequest struct {
	SessionID       *string           `json:"session_id"`
	MemberID        *string           `json:"member_id"`
	Register        string            `json:"register"`
	Items           []billItemRequest `json:"items"`
	PaymentMethod   string            `json:"payment_method"`
	TipMinor        int64             `json:"tip_minor"`
	TenderCashMinor int64             `json:"tender_cash_minor"`
	TenderCardMinor int64             `json:"tender_card_minor"`
	CreatedBy       string            `json:"created_by"`
}

type billItemRequest struct {
	ItemID    string         `json:"item_id"`
	Qty       int64          `json:"qty"`
	Modifiers map[string]any `json:"modifiers"`
}

func (s *Server) CreateBill(c *gin.Context) {
	var req createBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	items := make([]billingdomain.ItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, billingdomain.ItemRequest{
			ItemID:    strings.TrimSpace(item.ItemID),
			Qty:       item.Qty,
			Modifiers: item.Modifiers,
		})
	}

	resp, err := s.billingSvc.Create(c.Request.Context(), billingdomain.CreateRequest{
		SessionID:       req.SessionID,
		MemberID:        req.MemberID,
		Register:        strings.TrimSpace(req.Register),
		Items:           items,
		PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
		TipMinor:        req.TipMinor,
		TenderCashMinor: req.TenderCashMinor,
		TenderCardMinor: req.TenderCardMinor,
		CreatedBy:       strings.TrimSpace(req.CreatedBy),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBillByID(c *gin.Context) {
	resp, err := s.billingSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBills(c *gin.Context) {
	from, err := parseOptionalTime(c.Query("from"), false)
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return
	}

	to, err := parseOptionalTime(c.Query("to"), true)
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return
	}

	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
			return
		}
	}

	resp, err := s.billingSvc.List(c.Request.Context(), billingdomain.ListQuery{
		Register: strings.TrimSpace(c.Query("register")),
		From:     from,
		To:       to,
		Limit:    limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type voidBillRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) VoidBill(c *gin.Context) {
	var req voidBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.billingSvc.Void(c.Request.Context(), strings.TrimSpace(c.Param("id")), strings.TrimSpace(req.Reason))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) BillReceipt(c *gin.Context) {
	reader, err := s.reportSvc.BillReceipt(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", "inline; filename=receipt.pdf")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}
