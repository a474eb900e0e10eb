package utils

import (
	"context"
	"log"

	"github.com/gawwe-id/oknum/src/apperr"
	"github.com/gawwe-id/oknum/src/config"
	"github.com/gawwe-id/oknum/src/models"
	"github.com/gawwe-id/oknum/src/models/scopes"
	"github.com/gawwe-id/oknum/src/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateBooking reserves one seat on every selected schedule and creates the
// pending booking and its pending payment in a single transaction.
func CreateBooking(ctx context.Context, db *gorm.DB, studentID string, params *types.CreateBookingRequestBody) (*models.Booking, *models.Payment, error) {
	scheduleIDs := Unique(params.ScheduleIDs)
	if len(scheduleIDs) == 0 {
		return nil, nil, apperr.E(apperr.ErrValidation, "at least one schedule is required")
	}
	var booking models.Booking
	var payment models.Payment
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var class models.Class
		if err := tx.
			Model(&models.Class{}).
			Where("id = ?", params.ClassID).
			First(&class).
			Error; err != nil {
			return apperr.FromDB(err, "class")
		}
		if class.Status != types.CLASS_PUBLISHED {
			return apperr.E(apperr.ErrInvalidState, "class is not open for booking")
		}

		var schedules []*models.Schedule
		if err := tx.
			Model(&models.Schedule{}).
			Where("class_id = ?", class.ID).
			Scopes(scopes.WithIDs(scheduleIDs...)).
			Find(&schedules).
			Error; err != nil {
			return err
		}
		if len(schedules) != len(scheduleIDs) {
			return apperr.E(apperr.ErrValidation, "one or more schedules do not belong to this class")
		}

		for _, s := range schedules {
			res := tx.
				Model(&models.Schedule{}).
				Where("id = ?", s.ID).
				Where("booked_seats + 1 <= capacity").
				UpdateColumn("booked_seats", gorm.Expr("booked_seats + 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				log.Printf("[Booking] Schedule %s is full\n", s.ID)
				return apperr.Ef(apperr.ErrInvalidState, "schedule %s is fully booked", s.ID)
			}
		}

		booking = models.Booking{
			ID:          NewID(PREFIX_BOOKING),
			StudentID:   studentID,
			ClassID:     class.ID,
			TotalAmount: class.Price,
			Currency:    config.DEFAULT_CURRENCY,
			Status:      types.BOOKING_PENDING,
			Notes:       StringPtr(params.Notes),
			Schedules:   schedules,
		}
		if err := tx.Omit("Schedules.*").Create(&booking).Error; err != nil {
			log.Printf("Error in Booking transaction: %s\n", err.Error())
			return err
		}

		payment = models.Payment{
			ID:            NewID(PREFIX_PAYMENT),
			BookingID:     booking.ID,
			Amount:        class.Price,
			Currency:      config.DEFAULT_CURRENCY,
			PaymentMethod: params.PaymentMethod,
			Status:        types.PAYMENT_PENDING,
			Metadata:      types.JSONB{"createdFor": "booking"},
		}
		if err := tx.Create(&payment).Error; err != nil {
			log.Printf("Error in Payment transaction: %s\n", err.Error())
			return err
		}
		return nil
	})
	if err != nil {
		log.Printf("CreateBooking failed: %s\n", err.Error())
		return nil, nil, err
	}
	return &booking, &payment, nil
}

// CancelBooking cancels an open booking, frees its seats and expires its
// pending payments. A booking whose payment is processing at the gateway
// cannot be cancelled until that payment settles or expires.
func CancelBooking(ctx context.Context, db *gorm.DB, bookingID string, userID string, staff bool) (*models.Booking, error) {
	var booking models.Booking
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Model(&models.Booking{}).
			Where("id = ?", bookingID).
			Preload("Schedules").
			First(&booking).
			Error; err != nil {
			return apperr.FromDB(err, "booking")
		}
		if !staff && booking.StudentID != userID {
			return apperr.E(apperr.ErrForbidden, "booking does not belong to the current user")
		}
		if booking.Status != types.BOOKING_PENDING && booking.Status != types.BOOKING_CONFIRMED {
			return apperr.Ef(apperr.ErrInvalidState, "booking is already %s", booking.Status)
		}

		var inFlight int64
		if err := tx.
			Model(&models.Payment{}).
			Where("booking_id = ?", booking.ID).
			Where("status = ?", types.PAYMENT_PROCESSING).
			Count(&inFlight).
			Error; err != nil {
			return err
		}
		if inFlight > 0 {
			return apperr.E(apperr.ErrInvalidState, "a payment for this booking is in progress")
		}

		res := tx.
			Model(&models.Booking{}).
			Where("id = ?", booking.ID).
			Where(clause.IN{Column: "status", Values: []any{types.BOOKING_PENDING, types.BOOKING_CONFIRMED}}).
			Update("status", types.BOOKING_CANCELLED)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.E(apperr.ErrInvalidState, "booking changed while cancelling")
		}

		for _, s := range booking.Schedules {
			if err := tx.
				Model(&models.Schedule{}).
				Where("id = ?", s.ID).
				Where("booked_seats > 0").
				UpdateColumn("booked_seats", gorm.Expr("booked_seats - 1")).
				Error; err != nil {
				return err
			}
		}

		return tx.
			Model(&models.Payment{}).
			Where("booking_id = ?", booking.ID).
			Scopes(scopes.WithPendingStatus).
			Updates(map[string]any{
				"status":         types.PAYMENT_EXPIRED,
				"status_message": "Booking cancelled",
			}).
			Error
	})
	if err != nil {
		return nil, err
	}
	booking.Status = types.BOOKING_CANCELLED
	return &booking, nil
}
