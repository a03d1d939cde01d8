package register

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/fluxo-pos/internal/repo"
	"github.com/angelmondragon/fluxo-pos/pkg/db/models"
	"github.com/angelmondragon/fluxo-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/fluxo-pos/pkg/errors"
	"github.com/angelmondragon/fluxo-pos/pkg/logger"
)

// Summary is what the register expects at closing time.
type Summary struct {
	BusinessDay  time.Time       `json:"business_day"`
	Breakdown    Breakdown       `json:"breakdown"`
	ExpectedCash decimal.Decimal `json:"expected_cash"`
}

// CloseInput is the cashier's count.
type CloseInput struct {
	Day      time.Time     `json:"day"`
	Bills    map[int64]int `json:"bills"`
	Notes    *string       `json:"notes,omitempty"`
	ClosedBy *string       `json:"closed_by,omitempty"`
}

// Service reconciles a day's sales against the counted drawer.
type Service struct {
	repo.Base
	companyID  uuid.UUID
	terminalID string
	location   *time.Location
	logg       *logger.Logger
}

type ServiceParams struct {
	DB         *gorm.DB
	CompanyID  string
	TerminalID string
	Location   *time.Location
	Logger     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	companyID, err := uuid.Parse(params.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("invalid company id: %w", err)
	}
	loc := params.Location
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		Base:       repo.NewBase(params.DB),
		companyID:  companyID,
		terminalID: params.TerminalID,
		location:   loc,
		logg:       params.Logger,
	}, nil
}

// Summary reads the non-cancelled orders created on day.
func (s *Service) Summary(ctx context.Context, day time.Time) (*Summary, error) {
	start, end := s.dayBounds(day)

	var rows []struct {
		PaymentType string
		Total       decimal.Decimal
	}
	err := s.DB(ctx).Model(&models.Order{}).
		Select("payment_type", "total").
		Where("company_id = ? AND created_at >= ? AND created_at < ? AND status <> ?",
			s.companyID, start, end, enums.OrderStatusCancelled).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load day orders")
	}

	sales := make([]Sale, 0, len(rows))
	for _, row := range rows {
		sales = append(sales, Sale{PaymentType: row.PaymentType, Total: row.Total})
	}
	breakdown := Summarize(sales)
	return &Summary{
		BusinessDay:  start,
		Breakdown:    breakdown,
		ExpectedCash: breakdown.Cash,
	}, nil
}

// Close stores the day's closing. Difference is counted minus expected cash.
func (s *Service) Close(ctx context.Context, input CloseInput) (*models.CashClosing, error) {
	counted, bills, err := CountBills(input.Bills)
	if err != nil {
		return nil, err
	}
	day := input.Day
	if day.IsZero() {
		day = time.Now()
	}
	summary, err := s.Summary(ctx, day)
	if err != nil {
		return nil, err
	}

	closing := &models.CashClosing{
		ID:           uuid.New(),
		CompanyID:    s.companyID,
		BusinessDay:  summary.BusinessDay,
		OrderCount:   summary.Breakdown.OrderCount,
		TotalSales:   summary.Breakdown.Total,
		ExpectedCash: summary.ExpectedCash,
		CountedCash:  counted,
		Difference:   counted.Sub(summary.ExpectedCash),
		ByPayment:    summary.Breakdown.ByPayment(),
		Bills:        bills,
		Notes:        input.Notes,
		ClosedBy:     input.ClosedBy,
	}
	if s.terminalID != "" {
		terminal := s.terminalID
		closing.TerminalID = &terminal
	}
	if err := s.DB(ctx).Create(closing).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store cash closing")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"closing_id": closing.ID.String(),
		"orders":     closing.OrderCount,
		"difference": closing.Difference.StringFixed(2),
	}), "cash register closed")
	return closing, nil
}

// Location is the time zone business days are cut in.
func (s *Service) Location() *time.Location {
	return s.location
}

func (s *Service) dayBounds(day time.Time) (time.Time, time.Time) {
	local := day.In(s.location)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location)
	return start, start.AddDate(0, 0, 1)
}
