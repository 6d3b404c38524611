package usage

import (
	"context"
	"time"
)

// Period selects the reporting window.
type Period string

const (
	// PeriodDay reports the current UTC day.
	PeriodDay Period = "day"
	// PeriodMonth reports the current UTC month.
	PeriodMonth Period = "month"
	// PeriodTotal reports running totals with no window boundaries.
	PeriodTotal Period = "total"
)

// Valid reports whether p is a known period.
func (p Period) Valid() bool {
	return p == PeriodDay || p == PeriodMonth || p == PeriodTotal
}

// Report is an embedding token usage snapshot for one period.
// Timestamps are unix milliseconds; zero means no boundary.
type Report struct {
	Period      Period
	PeriodStart int64
	PeriodEnd   int64
	TokensUsed  int64
	TokenLimit  int64
	Remaining   int64
	Exhausted   bool
	ResetsAt    int64
}

// Service reports embedding token usage against the configured budget.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (unlimited mode).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: time.Now}
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(_ context.Context, period Period) Report {
	now := s.now().UTC()
	var start, end int64
	var limit, used, remaining int64

	switch period {
	case PeriodDay:
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		dayEnd := dayStart.Add(24 * time.Hour)
		start = dayStart.UnixMilli()
		end = dayEnd.UnixMilli()
		if s.br != nil {
			limit = s.br.DailyLimit()
			used = s.br.DailyUsed()
			remaining = s.br.RemainingDaily()
		}
	case PeriodMonth:
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		monthEnd := monthStart.AddDate(0, 1, 0)
		start = monthStart.UnixMilli()
		end = monthEnd.UnixMilli()
		if s.br != nil {
			limit = s.br.MonthlyLimit()
			used = s.br.MonthlyUsed()
			remaining = s.br.RemainingMonthly()
		}
	default:
		// total, no period boundaries
		if s.br != nil {
			limit = s.br.MonthlyLimit()
			used = s.br.MonthlyUsed()
			remaining = s.br.RemainingMonthly()
		}
	}

	return Report{
		Period:      period,
		PeriodStart: start,
		PeriodEnd:   end,
		TokensUsed:  used,
		TokenLimit:  limit,
		Remaining:   remaining,
		Exhausted:   limit > 0 && remaining <= 0,
		ResetsAt:    end,
	}
}
