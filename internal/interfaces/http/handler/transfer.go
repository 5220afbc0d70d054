package handler

import (
	"github.com/afftrack/backend/internal/domain/shared"
	"github.com/afftrack/backend/internal/domain/transfer"
	"github.com/afftrack/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransferHandler handles transfer outcome HTTP requests
type TransferHandler struct {
	BaseHandler
	transfers transfer.Repository
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(transfers transfer.Repository) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

// TransferResponse represents a transfer outcome in API responses
type TransferResponse struct {
	ID           string  `json:"id"`
	LeadID       string  `json:"lead_id"`
	FeedID       *string `json:"feed_id,omitempty"`
	Status       string  `json:"status"`
	Accepted     bool    `json:"accepted"`
	Response     string  `json:"response,omitempty"`
	ResponseCode int     `json:"response_code,omitempty"`
	ErrorMessage string  `json:"error_message,omitempty"`
	PrePingID    string  `json:"pre_ping_id,omitempty"`
	Payout       *string `json:"payout,omitempty"`
	RetryCount   int     `json:"retry_count"`
	dto.TimestampResponse
}

func toTransferResponse(t *transfer.Transfer) TransferResponse {
	resp := TransferResponse{
		ID:           t.ID.String(),
		LeadID:       t.LeadID.String(),
		Status:       t.Status.String(),
		Accepted:     t.Accepted(),
		Response:     t.Response,
		ResponseCode: t.ResponseCode,
		ErrorMessage: t.ErrorMessage,
		PrePingID:    t.PrePingID,
		RetryCount:   t.RetryCount,
		TimestampResponse: dto.TimestampResponse{
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
		},
	}
	if t.FeedID != nil {
		id := t.FeedID.String()
		resp.FeedID = &id
	}
	// Payout is reported only when extraction actually found one,
	// so "zero payout" and "no payout" stay distinguishable
	if t.PayoutFound {
		payout := t.Payout.String()
		resp.Payout = &payout
	}
	return resp
}

// ListTransfers returns a paginated list of transfer outcomes
func (h *TransferHandler) ListTransfers(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Filters:  map[string]any{},
	}
	if status := c.Query("status"); status != "" {
		if !transfer.Status(status).IsValid() {
			h.BadRequest(c, "invalid transfer status filter")
			return
		}
		filter.Filters["status"] = status
	}
	if feedID := c.Query("feed_id"); feedID != "" {
		if _, err := uuid.Parse(feedID); err != nil {
			h.BadRequest(c, "invalid feed_id filter")
			return
		}
		filter.Filters["feed_id"] = feedID
	}
	if leadID := c.Query("lead_id"); leadID != "" {
		if _, err := uuid.Parse(leadID); err != nil {
			h.BadRequest(c, "invalid lead_id filter")
			return
		}
		filter.Filters["lead_id"] = leadID
	}

	transfers, err := h.transfers.FindAll(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	total, err := h.transfers.Count(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]TransferResponse, 0, len(transfers))
	for i := range transfers {
		items = append(items, toTransferResponse(&transfers[i]))
	}

	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// GetTransfer returns a single transfer outcome by ID
func (h *TransferHandler) GetTransfer(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "invalid transfer ID")
		return
	}

	id := uuid.MustParse(req.ID)
	t, err := h.transfers.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toTransferResponse(t))
}

// ListLeadTransfers returns all transfer outcomes recorded for one lead
func (h *TransferHandler) ListLeadTransfers(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "invalid lead ID")
		return
	}

	leadID := uuid.MustParse(req.ID)
	transfers, err := h.transfers.FindByLeadID(c.Request.Context(), leadID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]TransferResponse, 0, len(transfers))
	for i := range transfers {
		items = append(items, toTransferResponse(&transfers[i]))
	}

	h.Success(c, items)
}
