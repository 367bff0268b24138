package repository

import (
	"context"
	"time"

	"go-invoice-ws/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DashboardRepository interface {
	GetFinancialSummary(ctx context.Context, start, end time.Time) (*FinancialSummary, error)
	GetStockStats(ctx context.Context, lowStockThreshold int) (*StockStats, error)
	GetDailyTotals(ctx context.Context, start, end time.Time) ([]DailyTotal, error)
}

// FinancialSummary aggregates invoice totals per direction over a period
type FinancialSummary struct {
	SalesTotal     decimal.Decimal `json:"sales_total"`
	PurchasesTotal decimal.Decimal `json:"purchases_total"`
	SalesCount     int64           `json:"sales_count"`
	PurchasesCount int64           `json:"purchases_count"`
}

// StockStats for the overview cards
type StockStats struct {
	TotalProducts  int64           `json:"total_products"`
	LowStockCount  int64           `json:"low_stock_count"`
	TotalValuation decimal.Decimal `json:"total_valuation"`
}

// DailyTotal is one point of the sales/purchases chart
type DailyTotal struct {
	Date      string          `json:"date"`
	Sales     decimal.Decimal `json:"sales"`
	Purchases decimal.Decimal `json:"purchases"`
}

// reportedStatuses are the invoices that count towards money totals.
// Drafts and cancelled invoices are left out.
var reportedStatuses = []model.InvoiceStatus{model.StatusFinalized, model.StatusPaid}

func reportedInvoices(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", reportedStatuses)
}

type typeTotal struct {
	Type  model.InvoiceType
	Total decimal.Decimal
	Count int64
}

type dashboardRepo struct {
	db *gorm.DB
}

func NewDashboardRepo(db *gorm.DB) DashboardRepository {
	return &dashboardRepo{db}
}

func (r *dashboardRepo) GetFinancialSummary(ctx context.Context, start, end time.Time) (*FinancialSummary, error) {
	var rows []typeTotal

	err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Select("type, COALESCE(SUM(total), 0) AS total, COUNT(*) AS count").
		Scopes(reportedInvoices).
		Where("date >= ? AND date < ?", start, end).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	summary := &FinancialSummary{SalesTotal: decimal.Zero, PurchasesTotal: decimal.Zero}
	for _, row := range rows {
		switch row.Type {
		case model.InvoiceSale:
			summary.SalesTotal, summary.SalesCount = row.Total, row.Count
		case model.InvoicePurchase:
			summary.PurchasesTotal, summary.PurchasesCount = row.Total, row.Count
		}
	}
	return summary, nil
}

func (r *dashboardRepo) GetStockStats(ctx context.Context, lowStockThreshold int) (*StockStats, error) {
	stats := StockStats{TotalValuation: decimal.Zero}
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.Product{}).Where("quantity < ?", lowStockThreshold).Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}

	// Stock valued at the last buying price
	err := db.Model(&model.Product{}).Select("COALESCE(SUM(quantity * buying_price), 0)").Row().Scan(&stats.TotalValuation)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func (r *dashboardRepo) GetDailyTotals(ctx context.Context, start, end time.Time) ([]DailyTotal, error) {
	var results []DailyTotal

	rows, err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Select(`
			TO_CHAR(date, 'YYYY-MM-DD') AS day,
			COALESCE(SUM(CASE WHEN type = 'SALE' THEN total ELSE 0 END), 0) AS sales,
			COALESCE(SUM(CASE WHEN type = 'PURCHASE' THEN total ELSE 0 END), 0) AS purchases
		`).
		Scopes(reportedInvoices).
		Where("date >= ? AND date < ?", start, end).
		Group("day").
		Order("day ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data DailyTotal
		if err := rows.Scan(&data.Date, &data.Sales, &data.Purchases); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, rows.Err()
}
