package handler

import (
	"net/http" // HTTP status codes
	"time"     // response timestamps

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/booking-pipeline/internal/model"    // inbound event shape
	"github.com/iliyamo/booking-pipeline/internal/pipeline" // ingestion orchestrator
)

// WebhookHandler receives parsed booking events from the bot and feeds
// them to the ingestion pipeline.  Authentication of the webhook token
// and rate limiting have already happened in middleware; this handler
// only binds the payload and translates the pipeline outcome into an
// HTTP response.
type WebhookHandler struct {
	Pipeline *pipeline.Ingestor // the single ingestion entry point
}

// NewWebhookHandler constructs a WebhookHandler.  The ingestor must be
// non-nil.
func NewWebhookHandler(p *pipeline.Ingestor) *WebhookHandler {
	if p == nil {
		panic("nil ingestor passed to NewWebhookHandler")
	}
	return &WebhookHandler{Pipeline: p}
}

// Ingest handles POST /v1/webhook/transactions.  Outcome mapping:
//
//	Accepted  -> 201 with the new transaction ID
//	Duplicate -> 200 echoing the originally stored transaction ID
//	             (at-least-once delivery is normal, not an error)
//	Rejected  -> 400 with per-field validation messages
//	Failed    -> 502 so the bot's delivery layer retries later
//
// A Failed response with stored_but_not_aggregated=true means the
// transaction row exists but a rollup update was lost; re-sending the
// same message will NOT repair it (it would be a duplicate), operators
// must rebuild the summaries instead.
func (h *WebhookHandler) Ingest(c echo.Context) error {
	var ev model.InboundEvent
	if err := c.Bind(&ev); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	out := h.Pipeline.Ingest(c.Request().Context(), ev)
	switch out.Status {
	case pipeline.StatusAccepted:
		return c.JSON(http.StatusCreated, echo.Map{
			"status":         out.Status.String(),
			"transaction_id": out.TransactionID,
			"processed_at":   time.Now().UTC().Format(time.RFC3339),
		})
	case pipeline.StatusDuplicate:
		return c.JSON(http.StatusOK, echo.Map{
			"status":         out.Status.String(),
			"message_id":     out.MessageID,
			"transaction_id": out.TransactionID,
		})
	case pipeline.StatusRejected:
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status": out.Status.String(),
			"errors": out.Fields,
		})
	default:
		return c.JSON(http.StatusBadGateway, echo.Map{
			"status":                    out.Status.String(),
			"error":                     "storage failure",
			"stored_but_not_aggregated": out.StoredButNotAggregated,
		})
	}
}
