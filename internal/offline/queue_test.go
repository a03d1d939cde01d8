package offline

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/fluxo-pos/pkg/config"
	"github.com/angelmondragon/fluxo-pos/pkg/db"
	"github.com/angelmondragon/fluxo-pos/pkg/db/models"
	"github.com/angelmondragon/fluxo-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/fluxo-pos/pkg/errors"
	"github.com/angelmondragon/fluxo-pos/pkg/types"
)

var pendingIDPattern = regexp.MustCompile(`^offline-\d+-[0-9a-f]{9}$`)

func openStore(t *testing.T, path string) *db.Client {
	t.Helper()
	client, err := db.OpenLocal(context.Background(), config.LocalStoreConfig{Path: path}, nil)
	require.NoError(t, err)
	require.NoError(t, Migrate(context.Background(), client.DB()))
	return client
}

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	client := openStore(t, filepath.Join(t.TempDir(), "offline.db"))
	t.Cleanup(func() { _ = client.Close() })
	return NewQueue(client.DB())
}

func sampleOrder(ref string) (types.OrderHeader, []types.OrderLine) {
	header := types.OrderHeader{
		CompanyID:   "company-1",
		ClientRef:   ref,
		OrderType:   enums.OrderTypeTakeaway,
		PaymentType: enums.PaymentTypeCash,
		Subtotal:    decimal.RequireFromString("14.5"),
		Discount:    decimal.Zero,
		Total:       decimal.RequireFromString("14.5"),
		AppliedDiscounts: types.AppliedDiscounts{
			{Name: "Combo", Amount: decimal.RequireFromString("1.25")},
		},
		CapturedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	lines := []types.OrderLine{
		{ProductID: "p-burger", Name: "Burger", Quantity: 1, UnitPrice: decimal.RequireFromString("10"), Subtotal: decimal.RequireFromString("10")},
		{ProductID: "p-fries", Name: "Fries", Quantity: 1, UnitPrice: decimal.RequireFromString("4.5"), Subtotal: decimal.RequireFromString("4.5")},
	}
	return header, lines
}

func TestEnqueueSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "offline.db")

	client := openStore(t, path)
	header, lines := sampleOrder("ref-1")
	id, err := NewQueue(client.DB()).Enqueue(ctx, header, lines)
	require.NoError(t, err)
	require.Regexp(t, pendingIDPattern, id)
	require.NoError(t, client.Close())

	reopened := openStore(t, path)
	defer reopened.Close()

	rows, err := NewQueue(reopened.DB()).ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := rows[0]
	require.Equal(t, id, got.ID)
	require.Equal(t, enums.SyncStatusPending, got.SyncStatus)
	require.Zero(t, got.RetryCount)
	require.Nil(t, got.ErrorMessage)
	require.Equal(t, "ref-1", got.OrderData.ClientRef)
	require.True(t, got.OrderData.Total.Equal(header.Total))
	require.Len(t, got.OrderData.AppliedDiscounts, 1)
	require.True(t, got.OrderData.CapturedAt.Equal(header.CapturedAt))
	require.Len(t, got.OrderItems, 2)
	require.Equal(t, "Fries", got.OrderItems[1].Name)
	require.True(t, got.OrderItems[1].UnitPrice.Equal(decimal.RequireFromString("4.5")))
}

func TestStatusTransitions(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	header, lines := sampleOrder("ref-1")
	id, err := q.Enqueue(ctx, header, lines)
	require.NoError(t, err)

	count, err := q.CountPending(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, q.MarkSyncing(ctx, id))
	count, err = q.CountPending(ctx)
	require.NoError(t, err)
	require.Zero(t, count, "syncing records are not pending")

	require.NoError(t, q.MarkError(ctx, id, "remote timeout"))
	row, err := q.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, enums.SyncStatusError, row.SyncStatus)
	require.Equal(t, 1, row.RetryCount)
	require.NotNil(t, row.ErrorMessage)
	require.Equal(t, "remote timeout", *row.ErrorMessage)
	require.NotNil(t, row.LastAttemptAt)

	require.NoError(t, q.MarkError(ctx, id, "again"))
	row, err = q.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 2, row.RetryCount)

	count, err = q.CountPending(ctx)
	require.NoError(t, err)
	require.Zero(t, count, "error records are not pending")

	require.NoError(t, q.Remove(ctx, id))
	rows, err := q.ListPending(ctx)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestMarkUnknownIDIsNoop(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	require.NoError(t, q.MarkSyncing(ctx, "offline-0-missing"))
	require.NoError(t, q.MarkError(ctx, "offline-0-missing", "x"))
	require.NoError(t, q.Remove(ctx, "offline-0-missing"))

	_, err := q.Get(ctx, "offline-0-missing")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListPendingOrderedByCreation(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	client := openStore(t, filepath.Join(t.TempDir(), "offline.db"))
	defer client.Close()
	q := NewQueue(client.DB(), WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}))

	var want []string
	for _, ref := range []string{"a", "b", "c"} {
		header, lines := sampleOrder(ref)
		id, err := q.Enqueue(ctx, header, lines)
		require.NoError(t, err)
		want = append(want, id)
	}

	rows, err := q.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i, row := range rows {
		require.Equal(t, want[i], row.ID)
	}
}

func TestRequeue(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	header, lines := sampleOrder("ref-1")
	id, err := q.Enqueue(ctx, header, lines)
	require.NoError(t, err)

	err = q.Requeue(ctx, id)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "pending records cannot be requeued: %v", err)

	require.NoError(t, q.MarkError(ctx, id, "boom"))
	require.NoError(t, q.Requeue(ctx, id))

	row, err := q.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, enums.SyncStatusPending, row.SyncStatus)
	require.Equal(t, 1, row.RetryCount)

	err = q.Requeue(ctx, "offline-0-missing")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestResetSyncingAndClearAll(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	for _, ref := range []string{"a", "b"} {
		header, lines := sampleOrder(ref)
		id, err := q.Enqueue(ctx, header, lines)
		require.NoError(t, err)
		require.NoError(t, q.MarkSyncing(ctx, id))
	}

	reset, err := q.ResetSyncing(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, reset)

	count, err := q.CountPending(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	require.NoError(t, q.ClearAll(ctx))
	rows, err := q.ListPending(ctx)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestReplaceAllIsWholesale(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)
	company := uuid.New()

	first := []models.Product{
		{ID: uuid.New(), CompanyID: company, Name: "Burger", Category: "mains", Price: decimal.RequireFromString("10"), Active: true},
		{ID: uuid.New(), CompanyID: company, Name: "Fries", Category: "sides", Price: decimal.RequireFromString("4.5"), Active: true},
	}
	require.NoError(t, q.ReplaceProducts(ctx, first))

	second := []models.Product{
		{ID: uuid.New(), CompanyID: company, Name: "Soda", Category: "drinks", Price: decimal.RequireFromString("2"), Active: true},
	}
	require.NoError(t, q.ReplaceProducts(ctx, second))

	got, err := q.Products(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Soda", got[0].Name)
	require.True(t, got[0].Price.Equal(decimal.RequireFromString("2")))
}

func TestReplaceAllRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)
	company := uuid.New()

	kept := []models.Customer{{ID: uuid.New(), CompanyID: company, Name: "Ana"}}
	require.NoError(t, q.ReplaceCustomers(ctx, kept))

	dup := uuid.New()
	broken := []models.Customer{
		{ID: dup, CompanyID: company, Name: "Luis"},
		{ID: dup, CompanyID: company, Name: "Luis again"},
	}
	err := q.ReplaceCustomers(ctx, broken)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStorage), "expected storage error, got %v", err)

	got, err := q.Customers(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Ana", got[0].Name)
}

func TestReplaceAllRejectsMismatchedRows(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	err := q.ReplaceAll(ctx, StorePromotions, []models.Product{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = q.ReplaceAll(ctx, StoreName("tables"), []models.Product{})
	require.Error(t, err)
}

func TestReplacePromotionsEmptyClears(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)
	product := uuid.New()

	require.NoError(t, q.ReplacePromotions(ctx, []models.Promotion{{
		ID:                 uuid.New(),
		CompanyID:          uuid.New(),
		Name:               "Burger 10",
		Product1ID:         &product,
		Type:               enums.PromotionTypePercent,
		DiscountPercentage: decimal.RequireFromString("10"),
		Active:             true,
	}}))
	got, err := q.Promotions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Product1ID)
	require.Equal(t, product, *got[0].Product1ID)

	require.NoError(t, q.ReplacePromotions(ctx, nil))
	got, err = q.Promotions(ctx)
	require.NoError(t, err)
	require.Empty(t, got)
}
