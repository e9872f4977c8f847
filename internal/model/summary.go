package model

import "time"

// AgentDailySummary is the rollup of all transactions closed by one
// agent on one booking date, bucketed by payment method.  It is
// maintained incrementally by the aggregator but must always equal the
// aggregate over the transactions table for its key, so it can be
// rebuilt from scratch by replaying every transaction.
type AgentDailySummary struct {
	BookingDate     string    // agent_daily_summaries.booking_date
	AgentName       string    // agent_daily_summaries.agent_name
	TotalBookings   int64     // agent_daily_summaries.total_bookings
	TotalCash       int64     // agent_daily_summaries.total_cash
	TotalTransfer   int64     // agent_daily_summaries.total_transfer
	TotalCommission int64     // agent_daily_summaries.total_commission
	UpdatedAt       time.Time // agent_daily_summaries.updated_at
}

// DailySummary is the rollup of all transactions on one booking date
// across every agent.  Same reconstructability contract as
// AgentDailySummary, with an additional gross bucket covering both
// payment methods.
type DailySummary struct {
	BookingDate     string    // daily_summaries.booking_date
	TotalBookings   int64     // daily_summaries.total_bookings
	TotalCash       int64     // daily_summaries.total_cash
	TotalTransfer   int64     // daily_summaries.total_transfer
	TotalGross      int64     // daily_summaries.total_gross
	TotalCommission int64     // daily_summaries.total_commission
	UpdatedAt       time.Time // daily_summaries.updated_at
}
