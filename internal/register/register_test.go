package register

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/fluxo-pos/pkg/config"
	"github.com/angelmondragon/fluxo-pos/pkg/db"
	"github.com/angelmondragon/fluxo-pos/pkg/db/models"
	"github.com/angelmondragon/fluxo-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/fluxo-pos/pkg/errors"
	"github.com/angelmondragon/fluxo-pos/pkg/logger"
)

func TestSummarizeClassifiesPaymentAliases(t *testing.T) {
	sales := []Sale{
		{PaymentType: "efectivo", Total: decimal.NewFromInt(100)},
		{PaymentType: "cash", Total: decimal.NewFromInt(50)},
		{PaymentType: "tarjeta", Total: decimal.NewFromInt(70)},
		{PaymentType: "mp", Total: decimal.NewFromInt(30)},
		{PaymentType: "transferencia", Total: decimal.NewFromInt(20)},
		{PaymentType: "crypto", Total: decimal.NewFromInt(5)},
		{PaymentType: "", Total: decimal.NewFromInt(5)},
	}

	b := Summarize(sales)
	require.Equal(t, 7, b.OrderCount)
	require.True(t, b.Cash.Equal(decimal.NewFromInt(160)))
	require.True(t, b.Card.Equal(decimal.NewFromInt(70)))
	require.True(t, b.MercadoPago.Equal(decimal.NewFromInt(30)))
	require.True(t, b.Transfer.Equal(decimal.NewFromInt(20)))
	require.True(t, b.Total.Equal(decimal.NewFromInt(280)))
}

func TestCountBills(t *testing.T) {
	total, kept, err := CountBills(map[int64]int{1000: 2, 500: 1, 20: 0})
	require.NoError(t, err)
	require.True(t, total.Equal(decimal.NewFromInt(2500)))
	require.Equal(t, map[string]int{"1000": 2, "500": 1}, kept)

	_, _, err = CountBills(map[int64]int{7: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, _, err = CountBills(map[int64]int{100: -1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDenominationsLargestFirst(t *testing.T) {
	require.Equal(t, []int64{10000, 5000, 2000, 1000, 500, 200, 100, 50, 20, 10}, Denominations)

	total, _, err := CountBills(map[int64]int{10000: 1, 10: 3})
	require.NoError(t, err)
	require.True(t, total.Equal(decimal.NewFromInt(10030)))
}

func openRemote(t *testing.T) *gorm.DB {
	t.Helper()
	client, err := db.OpenLocal(context.Background(), config.LocalStoreConfig{Path: filepath.Join(t.TempDir(), "remote.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.DB().AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.CashClosing{}))
	return client.DB()
}

func seedOrder(t *testing.T, conn *gorm.DB, company uuid.UUID, ticket int64, payment enums.PaymentType, total string, status enums.OrderStatus, at time.Time) {
	t.Helper()
	order := models.Order{
		ID:           uuid.New(),
		CompanyID:    company,
		TicketNumber: ticket,
		ClientRef:    uuid.NewString(),
		OrderType:    enums.OrderTypeLocal,
		PaymentType:  payment,
		Status:       status,
		Subtotal:     decimal.RequireFromString(total),
		Discount:     decimal.Zero,
		Total:        decimal.RequireFromString(total),
		CapturedAt:   at,
		CreatedAt:    at,
	}
	require.NoError(t, conn.Create(&order).Error)
}

func TestServiceSummaryAndClose(t *testing.T) {
	conn := openRemote(t)
	company := uuid.New()
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	seedOrder(t, conn, company, 1, enums.PaymentTypeCash, "1500", enums.OrderStatusCompleted, day.Add(9*time.Hour))
	seedOrder(t, conn, company, 2, enums.PaymentTypeCard, "800", enums.OrderStatusPending, day.Add(10*time.Hour))
	seedOrder(t, conn, company, 3, enums.PaymentTypeCash, "999", enums.OrderStatusCancelled, day.Add(11*time.Hour))
	seedOrder(t, conn, company, 4, enums.PaymentTypeCash, "400", enums.OrderStatusCompleted, day.Add(-time.Hour))
	seedOrder(t, conn, uuid.New(), 1, enums.PaymentTypeCash, "700", enums.OrderStatusCompleted, day.Add(9*time.Hour))

	svc, err := NewService(ServiceParams{
		DB:         conn,
		CompanyID:  company.String(),
		TerminalID: "till-1",
		Location:   time.UTC,
		Logger:     logger.New(logger.Options{Output: io.Discard}),
	})
	require.NoError(t, err)

	summary, err := svc.Summary(context.Background(), day.Add(12*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 2, summary.Breakdown.OrderCount)
	require.True(t, summary.ExpectedCash.Equal(decimal.NewFromInt(1500)))
	require.True(t, summary.Breakdown.Total.Equal(decimal.NewFromInt(2300)))

	closing, err := svc.Close(context.Background(), CloseInput{
		Day:   day.Add(20 * time.Hour),
		Bills: map[int64]int{1000: 1, 200: 2},
	})
	require.NoError(t, err)
	require.True(t, closing.CountedCash.Equal(decimal.NewFromInt(1400)))
	require.True(t, closing.Difference.Equal(decimal.NewFromInt(-100)))
	require.Equal(t, map[string]int{"1000": 1, "200": 2}, closing.Bills)

	var stored models.CashClosing
	require.NoError(t, conn.First(&stored, "id = ?", closing.ID).Error)
	require.Equal(t, 2, stored.OrderCount)
	require.True(t, stored.ByPayment["card"].Equal(decimal.NewFromInt(800)))
	require.Equal(t, "till-1", *stored.TerminalID)
}
