package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/delivery"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
)

func TestDeliveriesRepo_TryStartFresh(t *testing.T) {
	mock := newMock(t)
	r := NewDeliveriesRepo(mock, nil)

	mock.ExpectExec("INSERT INTO notification_deliveries").
		WithArgs("account.welcome", "a1", "j1", "ada@example.com").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, r.TryStart(context.Background(), "account.welcome", "a1", "j1", "ada@example.com"))
}

func TestDeliveriesRepo_TryStartAlreadySent(t *testing.T) {
	mock := newMock(t)
	r := NewDeliveriesRepo(mock, nil)
	sentAt := time.Now().UTC()

	mock.ExpectExec("INSERT INTO notification_deliveries").
		WithArgs("account.welcome", "a1", "j2", "ada@example.com").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectExec("UPDATE notification_deliveries").
		WithArgs("account.welcome", "a1", "j2", "ada@example.com").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT status, sent_at").
		WithArgs("account.welcome", "a1").
		WillReturnRows(pgxmock.NewRows([]string{"status", "sent_at"}).AddRow("sent", &sentAt))

	err := r.TryStart(context.Background(), "account.welcome", "a1", "j2", "ada@example.com")
	assert.ErrorIs(t, err, delivery.ErrAlreadySent)
}

func TestDeliveriesRepo_TryStartReclaimsFailed(t *testing.T) {
	mock := newMock(t)
	r := NewDeliveriesRepo(mock, nil)

	mock.ExpectExec("INSERT INTO notification_deliveries").
		WithArgs("account.welcome", "a1", "j3", "ada@example.com").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectExec("UPDATE notification_deliveries").
		WithArgs("account.welcome", "a1", "j3", "ada@example.com").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, r.TryStart(context.Background(), "account.welcome", "a1", "j3", "ada@example.com"))
}
