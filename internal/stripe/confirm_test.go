package stripe

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/database"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/plan"
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

func postConfirm(body string, authed bool) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/checkout/confirm", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	if authed {
		c.Set("user_id", "user-1")
		c.Set("user_email", "user@example.com")
	}
	ConfirmPayment(c)
	return w
}

func TestConfirmPayment(t *testing.T) {
	t.Run("writes only the confirmation columns", func(t *testing.T) {
		mock, teardown := setupMockDB(t)
		defer teardown()

		mock.ExpectQuery(`SELECT .* FROM "plan_configurations"`).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "plan_id", "name",
				"stripe_price_id_monthly", "stripe_price_id_annual", "stripe_price_id_lifetime",
			}).AddRow("cfg-1", "builder", "Builder – Legacy Builder", "price_123", nil, nil))

		// A webhook row may already exist with status, subscription id and
		// periods; the confirmation's assignment list must leave those columns
		// untouched.
		mock.ExpectExec(`ON CONFLICT \("user_id"\) DO UPDATE SET ` +
			`"email"=[^,]+,"stripe_customer_id"=[^,]+,"stripe_price_id"=[^,]+,` +
			`"plan_id"=[^,]+,"subscription_tier"=[^,]+,"billing_interval"=[^,]+,` +
			`"subscribed"=[^,]+,"subscription_end"=[^,]+,"event_at"=[^,]+,"updated_at"=[^,]+ ` +
			`WHERE subscribers\.event_at <= excluded\.event_at`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		w := postConfirm(`{"customer_id":"cus_1","price_id":"price_123"}`, true)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown price is a 404", func(t *testing.T) {
		mock, teardown := setupMockDB(t)
		defer teardown()

		mock.ExpectQuery(`SELECT .* FROM "plan_configurations"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "plan_id", "name"}))

		w := postConfirm(`{"customer_id":"cus_1","price_id":"price_unknown"}`, true)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unauthenticated is rejected", func(t *testing.T) {
		w := postConfirm(`{"customer_id":"cus_1","price_id":"price_123"}`, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestPeriodEndFor(t *testing.T) {
	now := time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)

	end := periodEndFor(plan.IntervalMonth, now)
	assert.NotNil(t, end)
	assert.Equal(t, time.Date(2025, time.February, 15, 12, 0, 0, 0, time.UTC), *end)

	end = periodEndFor(plan.IntervalYear, now)
	assert.NotNil(t, end)
	assert.Equal(t, time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC), *end)

	assert.Nil(t, periodEndFor(plan.IntervalLifetime, now))
}
