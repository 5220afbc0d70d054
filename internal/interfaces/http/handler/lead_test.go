package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/afftrack/backend/internal/domain/lead"
	"github.com/afftrack/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockLeadRepository implements lead.Repository for testing
type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id uuid.UUID) (*lead.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lead.Lead), args.Error(1)
}

func (m *MockLeadRepository) FindPending(ctx context.Context, limit int) ([]lead.Lead, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]lead.Lead), args.Error(1)
}

func (m *MockLeadRepository) FindAll(ctx context.Context, filter shared.Filter) ([]lead.Lead, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]lead.Lead), args.Error(1)
}

func (m *MockLeadRepository) Save(ctx context.Context, l *lead.Lead) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockLeadRepository) MarkTransferred(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLeadRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func capturedLead() *lead.Lead {
	l := lead.New("Jane", "Doe", "jane@example.com", "+14155550123")
	l.State = "CA"
	l.ZipCode = "94107"
	return l
}

func TestLeadHandler_CreateLead_Success(t *testing.T) {
	leadRepo := new(MockLeadRepository)
	leadRepo.On("Save", mock.Anything, mock.AnythingOfType("*lead.Lead")).Return(nil)

	handler := NewLeadHandler(leadRepo, nil)
	router := setupTestRouter()
	router.POST("/leads", handler.CreateLead)

	reqBody := CreateLeadRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Phone:     "+14155550123",
		State:     "CA",
		ZipCode:   "94107",
		IPAddress: "203.0.113.7",
		Source:    "landing-page-7",
	}
	body, _ := json.Marshal(reqBody)

	req := httptest.NewRequest(http.MethodPost, "/leads", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool         `json:"success"`
		Data    LeadResponse `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "jane@example.com", resp.Data.Email)
	assert.Equal(t, "NEW", resp.Data.Status)
	assert.NotEmpty(t, resp.Data.ID)
	leadRepo.AssertExpectations(t)
}

func TestLeadHandler_CreateLead_InvalidJSON(t *testing.T) {
	handler := NewLeadHandler(new(MockLeadRepository), nil)
	router := setupTestRouter()
	router.POST("/leads", handler.CreateLead)

	req := httptest.NewRequest(http.MethodPost, "/leads", bytes.NewBufferString("not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLeadHandler_CreateLead_MissingRequiredFields(t *testing.T) {
	handler := NewLeadHandler(new(MockLeadRepository), nil)
	router := setupTestRouter()
	router.POST("/leads", handler.CreateLead)

	body, _ := json.Marshal(map[string]string{"first_name": "Jane"})
	req := httptest.NewRequest(http.MethodPost, "/leads", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLeadHandler_CreateLead_InvalidEmail(t *testing.T) {
	handler := NewLeadHandler(new(MockLeadRepository), nil)
	router := setupTestRouter()
	router.POST("/leads", handler.CreateLead)

	reqBody := CreateLeadRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "not-an-email",
		Phone:     "+14155550123",
	}
	body, _ := json.Marshal(reqBody)
	req := httptest.NewRequest(http.MethodPost, "/leads", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLeadHandler_GetLead_Success(t *testing.T) {
	l := capturedLead()

	leadRepo := new(MockLeadRepository)
	leadRepo.On("FindByID", mock.Anything, l.ID).Return(l, nil)

	handler := NewLeadHandler(leadRepo, nil)
	router := setupTestRouter()
	router.GET("/leads/:id", handler.GetLead)

	req := httptest.NewRequest(http.MethodGet, "/leads/"+l.ID.String(), nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data LeadResponse `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, l.ID.String(), resp.Data.ID)
	assert.Equal(t, "CA", resp.Data.State)
	leadRepo.AssertExpectations(t)
}

func TestLeadHandler_GetLead_NotFound(t *testing.T) {
	id := uuid.New()

	leadRepo := new(MockLeadRepository)
	leadRepo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

	handler := NewLeadHandler(leadRepo, nil)
	router := setupTestRouter()
	router.GET("/leads/:id", handler.GetLead)

	req := httptest.NewRequest(http.MethodGet, "/leads/"+id.String(), nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_NOT_FOUND")
}

func TestLeadHandler_GetLead_InvalidID(t *testing.T) {
	handler := NewLeadHandler(new(MockLeadRepository), nil)
	router := setupTestRouter()
	router.GET("/leads/:id", handler.GetLead)

	req := httptest.NewRequest(http.MethodGet, "/leads/not-a-uuid", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLeadHandler_ListLeads(t *testing.T) {
	t.Run("returns paginated leads", func(t *testing.T) {
		leads := []lead.Lead{*capturedLead(), *capturedLead()}

		leadRepo := new(MockLeadRepository)
		leadRepo.On("FindAll", mock.Anything, mock.AnythingOfType("shared.Filter")).Return(leads, nil)
		leadRepo.On("Count", mock.Anything, mock.AnythingOfType("shared.Filter")).Return(int64(2), nil)

		handler := NewLeadHandler(leadRepo, nil)
		router := setupTestRouter()
		router.GET("/leads", handler.ListLeads)

		req := httptest.NewRequest(http.MethodGet, "/leads?page=1&page_size=10", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool           `json:"success"`
			Data    []LeadResponse `json:"data"`
			Meta    struct {
				Total int64 `json:"total"`
				Page  int   `json:"page"`
			} `json:"meta"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Len(t, resp.Data, 2)
		assert.Equal(t, int64(2), resp.Meta.Total)
		assert.Equal(t, 1, resp.Meta.Page)
		leadRepo.AssertExpectations(t)
	})

	t.Run("passes status filter through", func(t *testing.T) {
		leadRepo := new(MockLeadRepository)
		leadRepo.On("FindAll", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
			return f.Filters["status"] == "TRANSFERRED"
		})).Return([]lead.Lead{}, nil)
		leadRepo.On("Count", mock.Anything, mock.AnythingOfType("shared.Filter")).Return(int64(0), nil)

		handler := NewLeadHandler(leadRepo, nil)
		router := setupTestRouter()
		router.GET("/leads", handler.ListLeads)

		req := httptest.NewRequest(http.MethodGet, "/leads?status=TRANSFERRED", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		leadRepo.AssertExpectations(t)
	})

	t.Run("rejects unknown status filter", func(t *testing.T) {
		handler := NewLeadHandler(new(MockLeadRepository), nil)
		router := setupTestRouter()
		router.GET("/leads", handler.ListLeads)

		req := httptest.NewRequest(http.MethodGet, "/leads?status=BOGUS", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLeadHandler_DispatchLead(t *testing.T) {
	t.Run("accepted dispatch returns the transfer record", func(t *testing.T) {
		l := capturedLead()

		leadRepo := new(MockLeadRepository)
		leadRepo.On("FindByID", mock.Anything, l.ID).Return(l, nil)
		leadRepo.On("MarkTransferred", mock.Anything, l.ID).Return(nil)

		transferRepo := new(MockTransferRepository)
		transferRepo.On("Create", mock.Anything, mock.AnythingOfType("*transfer.Transfer")).Return(nil)

		service := newTestDispatchService(t, leadRepo, transferRepo, acceptingFeed(), `{"result":"approved","price":12.5}`)
		handler := NewLeadHandler(leadRepo, service)

		router := setupTestRouter()
		router.POST("/leads/:id/dispatch", handler.DispatchLead)

		req := httptest.NewRequest(http.MethodPost, "/leads/"+l.ID.String()+"/dispatch", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data TransferResponse `json:"data"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ACCEPTED", resp.Data.Status)
		assert.True(t, resp.Data.Accepted)
		assert.Equal(t, l.ID.String(), resp.Data.LeadID)
		leadRepo.AssertExpectations(t)
		transferRepo.AssertExpectations(t)
	})

	t.Run("already-processed lead is rejected", func(t *testing.T) {
		l := capturedLead()
		assert.NoError(t, l.MarkTransferred())

		leadRepo := new(MockLeadRepository)
		leadRepo.On("FindByID", mock.Anything, l.ID).Return(l, nil)

		service := newTestDispatchService(t, leadRepo, new(MockTransferRepository), acceptingFeed(), `{"result":"approved"}`)
		handler := NewLeadHandler(leadRepo, service)

		router := setupTestRouter()
		router.POST("/leads/:id/dispatch", handler.DispatchLead)

		req := httptest.NewRequest(http.MethodPost, "/leads/"+l.ID.String()+"/dispatch", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_INVALID_STATE")
	})
}
