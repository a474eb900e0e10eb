package utils

import (
	"context"
	"log"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gawwe-id/oknum/src/apperr"
	"github.com/gawwe-id/oknum/src/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	return gormDB, mock
}

func TestNewID(t *testing.T) {
	id := NewID(PREFIX_PAYMENT)
	assert.True(t, strings.HasPrefix(id, "pay_"))
	assert.Len(t, id, len("pay_")+32)
	assert.NotEqual(t, id, NewID(PREFIX_PAYMENT))
}

func TestClassSlug(t *testing.T) {
	assert.Regexp(t, `^go-for-backend-engineers-[0-9a-f]{8}$`, ClassSlug("Go for Backend Engineers!"))
	assert.Regexp(t, `^class-[0-9a-f]{8}$`, ClassSlug("!!!"))
}

func TestTicketVerificationURL(t *testing.T) {
	assert.Equal(t, "https://app.example.com/verify-ticket/bk_1", TicketVerificationURL("https://app.example.com/", "bk_1"))
	assert.Equal(t, "https://app.example.com/verify-ticket/bk_1", TicketVerificationURL("https://app.example.com", "bk_1"))
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []string{"sch_1", "sch_2"}, Unique([]string{"sch_1", " sch_2", "sch_1", ""}))
	assert.Empty(t, Unique(nil))
}

func TestPointers(t *testing.T) {
	assert.Nil(t, StringPtr(""))
	assert.Equal(t, "x", Deref(StringPtr("x")))
	assert.Equal(t, "", Deref(nil))
}

func TestCreateBookingRequiresSchedules(t *testing.T) {
	gdb, mock := NewMockDB()
	_, _, err := CreateBooking(context.Background(), gdb, "user_1", &types.CreateBookingRequestBody{ClassID: "cls_1", ScheduleIDs: []string{" "}})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingFullSchedule(t *testing.T) {
	gdb, mock := NewMockDB()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "classes" WHERE id = $1`)).
		WithArgs("cls_1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "price", "status"}).
			AddRow("cls_1", "Go for Backend Engineers", 150000, "published"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "schedules" WHERE class_id = $1 AND id IN ($2)`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "class_id", "capacity", "booked_seats"}).
			AddRow("sch_1", "cls_1", 10, 10))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "schedules" SET "booked_seats"=booked_seats + 1 WHERE id = $1 AND booked_seats + 1 <= capacity`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, _, err := CreateBooking(context.Background(), gdb, "user_1", &types.CreateBookingRequestBody{
		ClassID:       "cls_1",
		ScheduleIDs:   []string{"sch_1"},
		PaymentMethod: "BC",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	assert.Equal(t, 409, apperr.Status(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingUnpublishedClass(t *testing.T) {
	gdb, mock := NewMockDB()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "classes" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow("cls_1", "draft"))
	mock.ExpectRollback()

	_, _, err := CreateBooking(context.Background(), gdb, "user_1", &types.CreateBookingRequestBody{ClassID: "cls_1", ScheduleIDs: []string{"sch_1"}})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingForbidden(t *testing.T) {
	gdb, mock := NewMockDB()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "bookings" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "status"}).AddRow("bk_1", "user_2", "pending"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "booking_schedules" WHERE "booking_schedules"."booking_id" = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"booking_id", "schedule_id"}))
	mock.ExpectRollback()

	_, err := CancelBooking(context.Background(), gdb, "bk_1", "user_1", false)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingWithPaymentInProgress(t *testing.T) {
	gdb, mock := NewMockDB()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "bookings" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "status"}).AddRow("bk_1", "user_1", "pending"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "booking_schedules" WHERE "booking_schedules"."booking_id" = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"booking_id", "schedule_id"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "payments" WHERE booking_id = $1 AND status = $2`)).
		WithArgs("bk_1", "processing").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := CancelBooking(context.Background(), gdb, "bk_1", "user_1", false)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}
