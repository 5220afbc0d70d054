package handler

import (
	"github.com/afftrack/backend/internal/application/dispatch"
	"github.com/afftrack/backend/internal/domain/lead"
	"github.com/afftrack/backend/internal/domain/shared"
	"github.com/afftrack/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LeadHandler handles lead-related HTTP requests
type LeadHandler struct {
	BaseHandler
	leads   lead.Repository
	service *dispatch.Service
}

// NewLeadHandler creates a new LeadHandler
func NewLeadHandler(leads lead.Repository, service *dispatch.Service) *LeadHandler {
	return &LeadHandler{
		leads:   leads,
		service: service,
	}
}

// CreateLeadRequest represents the HTTP request body for capturing a lead
type CreateLeadRequest struct {
	FirstName  string         `json:"first_name" binding:"required,min=1,max=100"`
	LastName   string         `json:"last_name" binding:"required,min=1,max=100"`
	Email      string         `json:"email" binding:"required,email"`
	Phone      string         `json:"phone" binding:"required,min=7,max=20"`
	Address    string         `json:"address,omitempty" binding:"max=200"`
	City       string         `json:"city,omitempty" binding:"max=100"`
	State      string         `json:"state,omitempty" binding:"max=50"`
	ZipCode    string         `json:"zip_code,omitempty" binding:"max=20"`
	Country    string         `json:"country,omitempty" binding:"max=50"`
	BirthDay   string         `json:"birth_day,omitempty" binding:"max=2"`
	BirthMonth string         `json:"birth_month,omitempty" binding:"max=2"`
	BirthYear  string         `json:"birth_year,omitempty" binding:"max=4"`
	IPAddress  string         `json:"ip_address,omitempty" binding:"omitempty,ip"`
	Source     string         `json:"source,omitempty" binding:"max=100"`
	MetaData   map[string]any `json:"meta_data,omitempty"`
}

// LeadResponse represents a lead in API responses
type LeadResponse struct {
	ID         string         `json:"id"`
	FirstName  string         `json:"first_name"`
	LastName   string         `json:"last_name"`
	Email      string         `json:"email"`
	Phone      string         `json:"phone"`
	Address    string         `json:"address,omitempty"`
	City       string         `json:"city,omitempty"`
	State      string         `json:"state,omitempty"`
	ZipCode    string         `json:"zip_code,omitempty"`
	Country    string         `json:"country,omitempty"`
	BirthDay   string         `json:"birth_day,omitempty"`
	BirthMonth string         `json:"birth_month,omitempty"`
	BirthYear  string         `json:"birth_year,omitempty"`
	IPAddress  string         `json:"ip_address,omitempty"`
	Source     string         `json:"source,omitempty"`
	MetaData   map[string]any `json:"meta_data,omitempty"`
	Status     string         `json:"status"`
	dto.TimestampResponse
}

func toLeadResponse(l *lead.Lead) LeadResponse {
	return LeadResponse{
		ID:         l.ID.String(),
		FirstName:  l.FirstName,
		LastName:   l.LastName,
		Email:      l.Email,
		Phone:      l.Phone,
		Address:    l.Address,
		City:       l.City,
		State:      l.State,
		ZipCode:    l.ZipCode,
		Country:    l.Country,
		BirthDay:   l.BirthDay,
		BirthMonth: l.BirthMonth,
		BirthYear:  l.BirthYear,
		IPAddress:  l.IPAddress,
		Source:     l.Source,
		MetaData:   l.MetaData,
		Status:     l.Status.String(),
		TimestampResponse: dto.TimestampResponse{
			CreatedAt: l.CreatedAt,
			UpdatedAt: l.UpdatedAt,
		},
	}
}

// ListLeads returns a paginated list of leads with optional status filtering
func (h *LeadHandler) ListLeads(c *gin.Context) {
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
		if !lead.LeadStatus(status).IsValid() {
			h.BadRequest(c, "invalid lead status filter")
			return
		}
		filter.Filters["status"] = status
	}

	leads, err := h.leads.FindAll(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	total, err := h.leads.Count(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]LeadResponse, 0, len(leads))
	for i := range leads {
		items = append(items, toLeadResponse(&leads[i]))
	}

	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// GetLead returns a single lead by ID
func (h *LeadHandler) GetLead(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "invalid lead ID")
		return
	}

	id := uuid.MustParse(req.ID)
	l, err := h.leads.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toLeadResponse(l))
}

// CreateLead captures a new lead in the NEW state
func (h *LeadHandler) CreateLead(c *gin.Context) {
	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	l := lead.New(req.FirstName, req.LastName, req.Email, req.Phone)
	l.Address = req.Address
	l.City = req.City
	l.State = req.State
	l.ZipCode = req.ZipCode
	l.Country = req.Country
	l.BirthDay = req.BirthDay
	l.BirthMonth = req.BirthMonth
	l.BirthYear = req.BirthYear
	l.IPAddress = req.IPAddress
	l.Source = req.Source
	if req.MetaData != nil {
		l.MetaData = req.MetaData
	}

	if err := h.leads.Save(c.Request.Context(), l); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toLeadResponse(l))
}

// DispatchLead runs one commit-mode dispatch pass for a lead immediately,
// outside the recurring worker
func (h *LeadHandler) DispatchLead(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "invalid lead ID")
		return
	}

	id := uuid.MustParse(req.ID)
	l, err := h.leads.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	rec, err := h.service.ProcessLead(c.Request.Context(), l)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if rec == nil {
		h.UnprocessableEntity(c, dto.ErrCodeInvalidState, "lead has already been through a dispatch pass")
		return
	}

	h.Success(c, toTransferResponse(rec))
}
