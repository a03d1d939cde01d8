package kitchen

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

func setup(t *testing.T) (*Service, *gorm.DB, uuid.UUID) {
	t.Helper()
	client, err := db.OpenLocal(context.Background(), config.LocalStoreConfig{Path: filepath.Join(t.TempDir(), "remote.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.DB().AutoMigrate(&models.Order{}, &models.OrderItem{}))

	company := uuid.New()
	svc, err := NewService(client.DB(), company.String(), logger.New(logger.Options{Output: io.Discard}))
	require.NoError(t, err)
	return svc, client.DB(), company
}

func seed(t *testing.T, conn *gorm.DB, company uuid.UUID, ticket int64, status enums.OrderStatus, at time.Time) models.Order {
	t.Helper()
	orderID := uuid.New()
	order := models.Order{
		ID:           orderID,
		CompanyID:    company,
		TicketNumber: ticket,
		ClientRef:    uuid.NewString(),
		OrderType:    enums.OrderTypeLocal,
		PaymentType:  enums.PaymentTypeCash,
		Status:       status,
		Subtotal:     decimal.NewFromInt(10),
		Discount:     decimal.Zero,
		Total:        decimal.NewFromInt(10),
		CapturedAt:   at,
		CreatedAt:    at,
		Items: []models.OrderItem{{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: uuid.New(),
			Name:      "Burger",
			Quantity:  1,
			UnitPrice: decimal.NewFromInt(10),
			Subtotal:  decimal.NewFromInt(10),
		}},
	}
	require.NoError(t, conn.Create(&order).Error)
	return order
}

func TestOpenListsPendingOldestFirst(t *testing.T) {
	svc, conn, company := setup(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	later := seed(t, conn, company, 2, enums.OrderStatusPending, base.Add(time.Minute))
	earlier := seed(t, conn, company, 1, enums.OrderStatusPending, base)
	seed(t, conn, company, 3, enums.OrderStatusCompleted, base)
	seed(t, conn, uuid.New(), 1, enums.OrderStatusPending, base)

	orders, err := svc.Open(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, earlier.ID, orders[0].ID)
	require.Equal(t, later.ID, orders[1].ID)
	require.Len(t, orders[0].Items, 1)
}

func TestCompleteAndCancelTransitions(t *testing.T) {
	svc, conn, company := setup(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := seed(t, conn, company, 1, enums.OrderStatusPending, now)
	second := seed(t, conn, company, 2, enums.OrderStatusPending, now)

	done, err := svc.Complete(context.Background(), first.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	cancelled, err := svc.Cancel(context.Background(), second.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, cancelled.Status)

	_, err = svc.Cancel(context.Background(), first.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = svc.Complete(context.Background(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	orders, err := svc.Open(context.Background())
	require.NoError(t, err)
	require.Empty(t, orders)
}
