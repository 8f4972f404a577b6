package subscriber

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/database"
)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, func()) {
	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:                 mockDB,
		DriverName:           "postgres",
		PreferSimpleProtocol: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	assert.NoError(t, err)

	originalDB := database.DB
	database.DB = db

	return mock, func() {
		database.DB = originalDB
		mockDB.Close()
	}
}

func TestUpsert(t *testing.T) {
	mock, teardown := setupMockDB(t)
	defer teardown()

	t.Run("writes on conflict of user_id with event_at guard", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO "subscribers" .* ON CONFLICT \("user_id"\) DO UPDATE SET .* WHERE subscribers\.event_at <= excluded\.event_at`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		status := "active"
		err := Upsert(&Subscriber{
			UserID:  "user-1",
			Email:   "user@example.com",
			Status:  &status,
			EventAt: time.Now(),
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fills id and event_at when missing", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO "subscribers"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		s := &Subscriber{UserID: "user-2", Email: "u2@example.com"}
		err := Upsert(s)
		assert.NoError(t, err)
		assert.NotEmpty(t, s.ID)
		assert.False(t, s.EventAt.IsZero())
	})

	t.Run("rejects missing user id", func(t *testing.T) {
		err := Upsert(&Subscriber{Email: "orphan@example.com"})
		assert.Error(t, err)
	})
}

func TestUpsertConfirmation(t *testing.T) {
	mock, teardown := setupMockDB(t)
	defer teardown()

	t.Run("updates only the confirmation columns", func(t *testing.T) {
		// The assignment list must not reach status, subscription id or the
		// period columns: a confirmation landing after the webhook passes the
		// event_at guard and would otherwise null them out.
		mock.ExpectExec(`ON CONFLICT \("user_id"\) DO UPDATE SET ` +
			`"email"=[^,]+,"stripe_customer_id"=[^,]+,"stripe_price_id"=[^,]+,` +
			`"plan_id"=[^,]+,"subscription_tier"=[^,]+,"billing_interval"=[^,]+,` +
			`"subscribed"=[^,]+,"subscription_end"=[^,]+,"event_at"=[^,]+,"updated_at"=[^,]+ ` +
			`WHERE subscribers\.event_at <= excluded\.event_at`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		priceID := "price_123"
		planID := "builder"
		err := UpsertConfirmation(&Subscriber{
			UserID:        "user-1",
			Email:         "user@example.com",
			StripePriceID: &priceID,
			PlanID:        &planID,
			Subscribed:    true,
			EventAt:       time.Now(),
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects missing user id", func(t *testing.T) {
		err := UpsertConfirmation(&Subscriber{Email: "orphan@example.com"})
		assert.Error(t, err)
	})
}

func TestFindByUserID(t *testing.T) {
	mock, teardown := setupMockDB(t)
	defer teardown()

	t.Run("row found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM "subscribers"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "email", "subscribed"}).
				AddRow("sub-1", "user-1", "user@example.com", true))

		sub, err := FindByUserID("user-1")
		assert.NoError(t, err)
		assert.NotNil(t, sub)
		assert.True(t, sub.Subscribed)
	})

	t.Run("no row means never subscribed", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM "subscribers"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}))

		sub, err := FindByUserID("user-unknown")
		assert.NoError(t, err)
		assert.Nil(t, sub)
	})
}
