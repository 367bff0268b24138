package service

import (
	"context"
	"time"

	"go-invoice-ws/internal/repository"

	"github.com/shopspring/decimal"
)

type MonthlySummary struct {
	Month  string                      `json:"month"`
	Totals repository.FinancialSummary `json:"totals"`
	Net    decimal.Decimal             `json:"net"`
	Stock  repository.StockStats       `json:"stock"`
	Daily  []repository.DailyTotal     `json:"daily"`
}

type DashboardService interface {
	GetMonthlySummary(ctx context.Context, month time.Time) (*MonthlySummary, error)
	GetStockStats(ctx context.Context) (*repository.StockStats, error)
}

type dashboardService struct {
	repo              repository.DashboardRepository
	lowStockThreshold int
}

func NewDashboardService(repo repository.DashboardRepository, lowStockThreshold int) DashboardService {
	return &dashboardService{repo: repo, lowStockThreshold: lowStockThreshold}
}

// MonthBounds returns the first instant of t's month and of the month after
func MonthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

func (s *dashboardService) GetMonthlySummary(ctx context.Context, month time.Time) (*MonthlySummary, error) {
	start, end := MonthBounds(month)

	totals, err := s.repo.GetFinancialSummary(ctx, start, end)
	if err != nil {
		return nil, storageErr("financial summary", err)
	}

	stock, err := s.GetStockStats(ctx)
	if err != nil {
		return nil, err
	}

	daily, err := s.repo.GetDailyTotals(ctx, start, end)
	if err != nil {
		return nil, storageErr("daily totals", err)
	}
	if daily == nil {
		daily = []repository.DailyTotal{}
	}

	return &MonthlySummary{
		Month:  start.Format("2006-01"),
		Totals: *totals,
		Net:    totals.SalesTotal.Sub(totals.PurchasesTotal),
		Stock:  *stock,
		Daily:  daily,
	}, nil
}

func (s *dashboardService) GetStockStats(ctx context.Context) (*repository.StockStats, error) {
	stats, err := s.repo.GetStockStats(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, storageErr("stock stats", err)
	}
	return stats, nil
}
