package dispatch

import (
	"context"
	"net/http"
	"testing"

	"github.com/afftrack/backend/internal/domain/feed"
	"github.com/afftrack/backend/internal/domain/lead"
	"github.com/afftrack/backend/internal/domain/shared"
	"github.com/afftrack/backend/internal/domain/transfer"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// In-Memory Stores
// ---------------------------------------------------------------------------

type memFeedRepo struct {
	feeds []feed.TransferFeed
}

func (r *memFeedRepo) FindByID(_ context.Context, id uuid.UUID) (*feed.TransferFeed, error) {
	for i := range r.feeds {
		if r.feeds[i].ID == id {
			return &r.feeds[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memFeedRepo) FindActive(_ context.Context) ([]feed.TransferFeed, error) {
	var active []feed.TransferFeed
	for _, f := range r.feeds {
		if f.Status == feed.FeedStatusActive {
			active = append(active, f)
		}
	}
	return active, nil
}

func (r *memFeedRepo) FindAll(_ context.Context, _ shared.Filter) ([]feed.TransferFeed, error) {
	return r.feeds, nil
}

func (r *memFeedRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.feeds)), nil
}

type memLeadRepo struct {
	leads       map[uuid.UUID]*lead.Lead
	transferred []uuid.UUID
}

func newMemLeadRepo(leads ...*lead.Lead) *memLeadRepo {
	r := &memLeadRepo{leads: map[uuid.UUID]*lead.Lead{}}
	for _, l := range leads {
		r.leads[l.ID] = l
	}
	return r
}

func (r *memLeadRepo) FindByID(_ context.Context, id uuid.UUID) (*lead.Lead, error) {
	l, ok := r.leads[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return l, nil
}

func (r *memLeadRepo) FindPending(_ context.Context, _ int) ([]lead.Lead, error) {
	var pending []lead.Lead
	for _, l := range r.leads {
		if l.IsPending() {
			pending = append(pending, *l)
		}
	}
	return pending, nil
}

func (r *memLeadRepo) FindAll(_ context.Context, _ shared.Filter) ([]lead.Lead, error) {
	var all []lead.Lead
	for _, l := range r.leads {
		all = append(all, *l)
	}
	return all, nil
}

func (r *memLeadRepo) Save(_ context.Context, l *lead.Lead) error {
	r.leads[l.ID] = l
	return nil
}

func (r *memLeadRepo) MarkTransferred(_ context.Context, id uuid.UUID) error {
	r.transferred = append(r.transferred, id)
	if l, ok := r.leads[id]; ok && l.IsPending() {
		return l.MarkTransferred()
	}
	return nil
}

func (r *memLeadRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.leads)), nil
}

type memTransferRepo struct {
	records []*transfer.Transfer
	byLead  map[uuid.UUID]bool
}

func newMemTransferRepo() *memTransferRepo {
	return &memTransferRepo{byLead: map[uuid.UUID]bool{}}
}

func (r *memTransferRepo) FindByID(_ context.Context, id uuid.UUID) (*transfer.Transfer, error) {
	for _, t := range r.records {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memTransferRepo) FindByLeadID(_ context.Context, leadID uuid.UUID) ([]transfer.Transfer, error) {
	var out []transfer.Transfer
	for _, t := range r.records {
		if t.LeadID == leadID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *memTransferRepo) FindAll(_ context.Context, _ shared.Filter) ([]transfer.Transfer, error) {
	var out []transfer.Transfer
	for _, t := range r.records {
		out = append(out, *t)
	}
	return out, nil
}

func (r *memTransferRepo) Create(_ context.Context, t *transfer.Transfer) error {
	if r.byLead[t.LeadID] {
		return shared.ErrAlreadyExists
	}
	r.byLead[t.LeadID] = true
	r.records = append(r.records, t)
	return nil
}

func (r *memTransferRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.records)), nil
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

func newTestService(doer HTTPDoer, feeds []feed.TransferFeed, leads *memLeadRepo, transfers *memTransferRepo) *Service {
	logger := zap.NewNop()
	engine := newTestEngine(doer, fastConfig())
	recorder := NewRecorder(transfers, leads, logger)
	return NewService(engine, &memFeedRepo{feeds: feeds}, leads, recorder, logger)
}

func TestService_ProcessLead(t *testing.T) {
	t.Run("Accepted lead is recorded and marked transferred", func(t *testing.T) {
		doer := &stubDoer{respond: func(_ *http.Request, _ string) (*http.Response, error) {
			return textResponse(200, `{"result":"approved"}`)
		}}
		l := testLead()
		leads := newMemLeadRepo(l)
		transfers := newMemTransferRepo()
		svc := newTestService(doer, []feed.TransferFeed{activeFeed("Feed A", "https://a.example.com/leads")}, leads, transfers)

		result, err := svc.ProcessLead(context.Background(), l)

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, transfer.StatusAccepted, result.Status)
		assert.Equal(t, lead.LeadStatusTransferred, l.Status)
		require.Len(t, transfers.records, 1)
		assert.Equal(t, l.ID, transfers.records[0].LeadID)
	})

	t.Run("Inactive feeds are never dispatched to", func(t *testing.T) {
		doer := &stubDoer{respond: func(_ *http.Request, _ string) (*http.Response, error) {
			return textResponse(200, `{"result":"approved"}`)
		}}
		inactive := activeFeed("Paused", "https://paused.example.com/leads")
		inactive.Status = feed.FeedStatusInactive
		l := testLead()
		leads := newMemLeadRepo(l)
		transfers := newMemTransferRepo()
		svc := newTestService(doer, []feed.TransferFeed{inactive}, leads, transfers)

		result, err := svc.ProcessLead(context.Background(), l)

		require.NoError(t, err)
		assert.Equal(t, transfer.StatusFailedAllFeeds, result.Status)
		assert.Empty(t, doer.requests)
	})

	t.Run("Exhausted lead still gets an outcome row", func(t *testing.T) {
		doer := &stubDoer{respond: func(_ *http.Request, _ string) (*http.Response, error) {
			return textResponse(200, `{"result":"rejected"}`)
		}}
		l := testLead()
		leads := newMemLeadRepo(l)
		transfers := newMemTransferRepo()
		svc := newTestService(doer, []feed.TransferFeed{activeFeed("Feed A", "https://a.example.com/leads")}, leads, transfers)

		result, err := svc.ProcessLead(context.Background(), l)

		require.NoError(t, err)
		assert.Equal(t, transfer.StatusFailedMain, result.Status)
		assert.Equal(t, lead.LeadStatusTransferred, l.Status, "failed leads leave the queue too")
		require.Len(t, transfers.records, 1)
	})

	t.Run("Non-pending lead is skipped without requests", func(t *testing.T) {
		doer := &stubDoer{respond: func(_ *http.Request, _ string) (*http.Response, error) {
			return textResponse(200, `{"result":"approved"}`)
		}}
		l := testLead()
		require.NoError(t, l.MarkTransferred())
		leads := newMemLeadRepo(l)
		transfers := newMemTransferRepo()
		svc := newTestService(doer, []feed.TransferFeed{activeFeed("Feed A", "https://a.example.com/leads")}, leads, transfers)

		result, err := svc.ProcessLead(context.Background(), l)

		require.NoError(t, err)
		assert.Nil(t, result)
		assert.Empty(t, doer.requests)
		assert.Empty(t, transfers.records)
	})
}

func TestService_TestFeed(t *testing.T) {
	t.Run("Unknown feed", func(t *testing.T) {
		doer := &stubDoer{respond: func(_ *http.Request, _ string) (*http.Response, error) {
			return textResponse(200, "ok")
		}}
		svc := newTestService(doer, nil, newMemLeadRepo(), newMemTransferRepo())

		_, err := svc.TestFeed(context.Background(), uuid.New(), nil)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("Testing-status feed is reachable in dry-run", func(t *testing.T) {
		doer := &stubDoer{respond: func(_ *http.Request, _ string) (*http.Response, error) {
			return textResponse(200, `{"result":"approved"}`)
		}}
		f := activeFeed("Candidate", "https://candidate.example.com/leads")
		f.Status = feed.FeedStatusTesting
		svc := newTestService(doer, []feed.TransferFeed{f}, newMemLeadRepo(), newMemTransferRepo())

		trace, err := svc.TestFeed(context.Background(), f.ID, map[string]any{"email": "jane@example.com"})

		require.NoError(t, err)
		require.NotNil(t, trace.MainRequest)
		assert.True(t, trace.MainRequest.SuccessPatternMatched)
		assert.Contains(t, trace.MainRequest.Request.Body, "jane@example.com")
	})
}

func TestRecorder_Record(t *testing.T) {
	t.Run("Duplicate outcome row is tolerated", func(t *testing.T) {
		l := testLead()
		leads := newMemLeadRepo(l)
		transfers := newMemTransferRepo()
		recorder := NewRecorder(transfers, leads, zap.NewNop())

		outcome := &Outcome{Status: transfer.StatusFailedAllFeeds}

		_, err := recorder.Record(context.Background(), l.ID, outcome)
		require.NoError(t, err)

		_, err = recorder.Record(context.Background(), l.ID, outcome)
		require.NoError(t, err, "a reprocessed pass must not fail on the existing row")
		assert.Len(t, transfers.records, 1)
	})
}
