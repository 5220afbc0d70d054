package handler

import (
	"fmt"

	"github.com/afftrack/backend/internal/application/dispatch"
	"github.com/afftrack/backend/internal/domain/feed"
	"github.com/afftrack/backend/internal/domain/shared"
	"github.com/afftrack/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FeedHandler handles transfer feed HTTP requests
type FeedHandler struct {
	BaseHandler
	feeds   feed.Repository
	service *dispatch.Service
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feeds feed.Repository, service *dispatch.Service) *FeedHandler {
	return &FeedHandler{
		feeds:   feeds,
		service: service,
	}
}

// FeedResponse represents a transfer feed in API responses.
// Header values are omitted because they routinely carry partner API keys.
type FeedResponse struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	PartnerName    string   `json:"partner_name,omitempty"`
	Status         string   `json:"status"`
	Method         string   `json:"method"`
	EndpointURL    string   `json:"endpoint_url"`
	BodyEncoding   string   `json:"body_encoding"`
	SuccessPattern string   `json:"success_pattern"`
	PayoutType     string   `json:"payout_type"`
	PayoutValue    string   `json:"payout_value"`
	PayoutPath     string   `json:"payout_path,omitempty"`
	PrePingEnabled bool     `json:"pre_ping_enabled"`
	ScheduleActive bool     `json:"schedule_active"`
	ConditionCount int      `json:"condition_count"`
	Conditions     []string `json:"conditions,omitempty"`
	dto.TimestampResponse
}

func toFeedResponse(f *feed.TransferFeed) FeedResponse {
	resp := FeedResponse{
		ID:             f.ID.String(),
		Name:           f.Name,
		PartnerName:    f.PartnerName,
		Status:         f.Status.String(),
		Method:         f.Method,
		EndpointURL:    f.EndpointURL,
		BodyEncoding:   string(f.BodyEncoding),
		SuccessPattern: f.SuccessPattern,
		PayoutType:     string(f.PayoutType),
		PayoutValue:    f.PayoutValue.String(),
		PayoutPath:     f.PayoutPath,
		PrePingEnabled: f.PrePingEnabled(),
		ScheduleActive: f.Schedule != nil && f.Schedule.Enabled,
		ConditionCount: len(f.Conditions),
		TimestampResponse: dto.TimestampResponse{
			CreatedAt: f.CreatedAt,
			UpdatedAt: f.UpdatedAt,
		},
	}
	for _, cond := range f.Conditions {
		resp.Conditions = append(resp.Conditions,
			fmt.Sprintf("%s %s %q", cond.Field, cond.Operator, cond.Value))
	}
	return resp
}

// ListFeeds returns a paginated list of feeds with optional status filtering
func (h *FeedHandler) ListFeeds(c *gin.Context) {
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
		if !feed.FeedStatus(status).IsValid() {
			h.BadRequest(c, "invalid feed status filter")
			return
		}
		filter.Filters["status"] = status
	}

	feeds, err := h.feeds.FindAll(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	total, err := h.feeds.Count(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]FeedResponse, 0, len(feeds))
	for i := range feeds {
		items = append(items, toFeedResponse(&feeds[i]))
	}

	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// GetFeed returns a single feed by ID
func (h *FeedHandler) GetFeed(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "invalid feed ID")
		return
	}

	id := uuid.MustParse(req.ID)
	f, err := h.feeds.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toFeedResponse(f))
}

// TestFeedRequest represents the HTTP request body for a dry-run test
type TestFeedRequest struct {
	LeadData map[string]any `json:"lead_data"`
}

// TestFeed runs the full dispatch chain once against a feed in trace
// mode. Nothing is persisted and no retries happen; the response is the
// stage-by-stage diagnostic trace.
func (h *FeedHandler) TestFeed(c *gin.Context) {
	var uriReq dto.IDRequest
	if err := c.ShouldBindUri(&uriReq); err != nil {
		h.BadRequest(c, "invalid feed ID")
		return
	}

	var req TestFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	id := uuid.MustParse(uriReq.ID)
	trace, err := h.service.TestFeed(c.Request.Context(), id, req.LeadData)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, trace)
}
