package payments

import (
	"context"
	"testing"
	"time"

	"table-order-api/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Payment{}))
	return NewRepository(db)
}

func newPayment(orderID string, status models.PaymentStatus, createdAt time.Time) *models.Payment {
	return &models.Payment{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		Amount:    100000,
		Method:    models.MethodMomo,
		Status:    status,
		CreatedAt: createdAt,
	}
}

func TestFindByOrderIDReturnsMostRecent(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	orderID := uuid.NewString()

	older := newPayment(orderID, models.PaymentFailed, time.Now().Add(-10*time.Minute))
	newer := newPayment(orderID, models.PaymentPending, time.Now())
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	got, err := repo.FindByOrderID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID, "the latest attempt is the active payment")

	_, err = repo.FindByOrderID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestUpdateStatusStampsUpdatedAt(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	p := newPayment(uuid.NewString(), models.PaymentPending, time.Now().Add(-time.Hour))
	p.UpdatedAt = p.CreatedAt
	require.NoError(t, repo.Create(ctx, p))

	errCode := 0
	require.NoError(t, repo.UpdateStatus(ctx, p.ID, models.PaymentSuccess, StatusUpdate{
		TransID:   "T1",
		ErrorCode: &errCode,
		Message:   "Success",
	}))

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentSuccess, got.Status)
	assert.Equal(t, "T1", got.MomoTransID)
	assert.Equal(t, "Success", got.MomoMessage)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestOlderThanFinders(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Now()

	stale := newPayment(uuid.NewString(), models.PaymentPending, now.Add(-6*time.Minute))
	fresh := newPayment(uuid.NewString(), models.PaymentPending, now.Add(-1*time.Minute))
	require.NoError(t, repo.Create(ctx, stale))
	require.NoError(t, repo.Create(ctx, fresh))

	pending, err := repo.FindPendingOlderThan(ctx, now.Add(-5*time.Minute))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, stale.ID, pending[0].ID)

	expiredAt := now.Add(-3 * time.Minute)
	require.NoError(t, repo.UpdateStatus(ctx, stale.ID, models.PaymentExpired, StatusUpdate{ExpiredAt: &expiredAt}))

	expired, err := repo.FindExpiredOlderThan(ctx, now.Add(-2*time.Minute))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, stale.ID, expired[0].ID)

	expired, err = repo.FindExpiredOlderThan(ctx, now.Add(-4*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func TestRemove(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	p := newPayment(uuid.NewString(), models.PaymentPending, time.Now())
	require.NoError(t, repo.Create(ctx, p))
	require.NoError(t, repo.Remove(ctx, p.ID))

	_, err := repo.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}
