package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/booking-pipeline/internal/model"
	"github.com/iliyamo/booking-pipeline/internal/pipeline"
)

// stubLedger, stubStore and stubRollups give the handler a working
// in-process pipeline without MySQL.

type stubLedger struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (l *stubLedger) TryClaim(_ context.Context, messageID string, _ *string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen[messageID] {
		return false, nil
	}
	l.seen[messageID] = true
	return true, nil
}

func (l *stubLedger) Release(_ context.Context, messageID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.seen, messageID)
	return nil
}

func (l *stubLedger) Confirm(context.Context, string) {}

type stubStore struct {
	mu   sync.Mutex
	rows map[string]*model.Transaction
	err  error
}

func (s *stubStore) Append(_ context.Context, ev model.InboundEvent) (*model.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	txn := &model.Transaction{ID: 42, MessageID: ev.MessageID, NetAmount: ev.NetAmount()}
	s.rows[ev.MessageID] = txn
	return txn, nil
}

func (s *stubStore) GetByMessageID(_ context.Context, messageID string) (*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if txn, ok := s.rows[messageID]; ok {
		return txn, nil
	}
	return nil, errors.New("no transaction for message")
}

type stubRollups struct{}

func (stubRollups) ApplyAgentDay(context.Context, model.InboundEvent) error { return nil }
func (stubRollups) ApplyDay(context.Context, model.InboundEvent) error      { return nil }

type stubNotifier struct{}

func (stubNotifier) Publish(context.Context, *model.Transaction) {}

func newWebhookEnv(storeErr error) *WebhookHandler {
	ing := pipeline.NewIngestor(
		&stubLedger{seen: map[string]bool{}},
		&stubStore{err: storeErr, rows: map[string]*model.Transaction{}},
		stubRollups{},
		stubNotifier{},
		1, time.Millisecond,
	)
	return NewWebhookHandler(ing)
}

func postEvent(t *testing.T, h *WebhookHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/webhook/transactions", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h.Ingest(c))
	return rec
}

const validBody = `{"message_id":"m1","payment_method":"Cash","agent_name":"lia",` +
	`"amount":500000,"commission":25000,"booking_date":"2024-01-10"}`

func TestIngestStatusMapping(t *testing.T) {
	h := newWebhookEnv(nil)

	rec := postEvent(t, h, validBody)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var accepted map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	assert.Equal(t, "accepted", accepted["status"])
	assert.Equal(t, float64(42), accepted["transaction_id"])

	// Redelivery of the same message is acknowledged, not repeated.
	rec = postEvent(t, h, validBody)
	assert.Equal(t, http.StatusOK, rec.Code)

	var dup map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dup))
	assert.Equal(t, "duplicate", dup["status"])
	assert.Equal(t, "m1", dup["message_id"])
	assert.Equal(t, float64(42), dup["transaction_id"], "duplicates point back at the stored row")
}

func TestIngestRejectedPayload(t *testing.T) {
	h := newWebhookEnv(nil)

	body := `{"message_id":"m2","payment_method":"BITCOIN","agent_name":"lia",` +
		`"amount":100,"commission":10,"booking_date":"2024-01-10"}`
	rec := postEvent(t, h, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Status string `json:"status"`
		Errors []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "rejected", resp.Status)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "payment_method", resp.Errors[0].Field)
}

func TestIngestStoreFailureIsRetryable(t *testing.T) {
	h := newWebhookEnv(errors.New("mysql down"))

	rec := postEvent(t, h, validBody)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp["status"])
	assert.Equal(t, false, resp["stored_but_not_aggregated"])
}

func TestIngestMalformedBody(t *testing.T) {
	h := newWebhookEnv(nil)

	rec := postEvent(t, h, `{"message_id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
