package handler

import (
	"errors"   // for sentinel comparisons
	"net/http" // HTTP status codes
	"time"     // date parsing for path params

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/booking-pipeline/internal/repository" // rollup read access
)

// SummaryHandler exposes the live rollups to the dashboard backend.
// All methods assume JWT authentication and role validation has already
// been performed by middleware.  The handler only reads; rollup writes
// happen exclusively inside the ingestion pipeline.
type SummaryHandler struct {
	Summaries    *repository.SummaryRepo     // rollup tables
	Transactions *repository.TransactionRepo // underlying transaction rows
}

// NewSummaryHandler constructs a SummaryHandler with the provided
// repositories.  All dependencies must be non-nil.
func NewSummaryHandler(summaries *repository.SummaryRepo, transactions *repository.TransactionRepo) *SummaryHandler {
	if summaries == nil || transactions == nil {
		panic("nil repository passed to NewSummaryHandler")
	}
	return &SummaryHandler{Summaries: summaries, Transactions: transactions}
}

// parseDate validates the :date path parameter as a calendar date.
func parseDate(c echo.Context) (string, bool) {
	raw := c.Param("date")
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return "", false
	}
	return raw, true
}

// GetDaily handles GET /v1/summaries/daily/:date.  It returns the
// all-agents rollup for one booking date or 404 when no booking has
// been accepted for that date yet.
func (h *SummaryHandler) GetDaily(c echo.Context) error {
	date, ok := parseDate(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}
	s, err := h.Summaries.GetDay(c.Request().Context(), date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no summary for date"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking_date":     s.BookingDate,
		"total_bookings":   s.TotalBookings,
		"total_cash":       s.TotalCash,
		"total_transfer":   s.TotalTransfer,
		"total_gross":      s.TotalGross,
		"total_commission": s.TotalCommission,
		"updated_at":       s.UpdatedAt.Format(time.RFC3339),
	})
}

// GetAgents handles GET /v1/summaries/agents/:date.  It returns every
// agent rollup for one booking date ordered by agent name; an empty
// list when the date has no bookings.
func (h *SummaryHandler) GetAgents(c echo.Context) error {
	date, ok := parseDate(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}
	list, err := h.Summaries.ListAgentsByDate(c.Request().Context(), date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	agents := make([]echo.Map, 0, len(list))
	for _, s := range list {
		agents = append(agents, echo.Map{
			"agent_name":       s.AgentName,
			"total_bookings":   s.TotalBookings,
			"total_cash":       s.TotalCash,
			"total_transfer":   s.TotalTransfer,
			"total_commission": s.TotalCommission,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking_date": date,
		"agents":       agents,
	})
}

// GetTransactions handles GET /v1/transactions/:date.  It returns the
// individual transaction rows behind the rollups for one booking date,
// newest first, so the dashboard can drill down from a summary into
// the bookings that produced it.
func (h *SummaryHandler) GetTransactions(c echo.Context) error {
	date, ok := parseDate(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}
	list, err := h.Transactions.ListByBookingDate(c.Request().Context(), date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	rows := make([]echo.Map, 0, len(list))
	for _, t := range list {
		row := echo.Map{
			"transaction_id": t.ID,
			"message_id":     t.MessageID,
			"location":       t.Location,
			"unit":           t.Unit,
			"payment_method": t.PaymentMethod,
			"agent_name":     t.AgentName,
			"amount":         t.Amount,
			"commission":     t.Commission,
			"net_amount":     t.NetAmount,
			"booking_date":   t.BookingDate,
			"created_at":     t.CreatedAt.Format(time.RFC3339),
		}
		if t.SourceChannelID != nil {
			row["source_channel_id"] = *t.SourceChannelID
		}
		rows = append(rows, row)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking_date": date,
		"transactions": rows,
	})
}

// Rebuild handles POST /v1/summaries/rebuild.  It recomputes both
// rollup tables from the transactions table, the repair path after a
// stored-but-not-aggregated failure.  Restricted to the ADMIN role by
// middleware.
func (h *SummaryHandler) Rebuild(c echo.Context) error {
	if err := h.Summaries.Rebuild(c.Request().Context()); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rebuild failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "rebuilt"})
}
