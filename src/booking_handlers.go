package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gawwe-id/oknum/src/apperr"
	"github.com/gawwe-id/oknum/src/models"
	"github.com/gawwe-id/oknum/src/models/scopes"
	"github.com/gawwe-id/oknum/src/notify"
	"github.com/gawwe-id/oknum/src/types"
	"github.com/gawwe-id/oknum/src/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func (a *app) bookingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/bookings", func(ctx *gin.Context) {
			var body types.CreateBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			booking, payment, err := utils.CreateBooking(ctx.Request.Context(), a.db, ctx.GetString("id"), &body)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{
				"bookingId": booking.ID,
				"paymentId": payment.ID,
				"amount":    payment.Amount,
				"status":    booking.Status,
			})
		}).
		GET("/bookings", func(ctx *gin.Context) {
			var bookings []models.Booking
			if err := a.db.
				WithContext(ctx.Request.Context()).
				Model(&models.Booking{}).
				Scopes(scopes.OwnedBy("student_id", ctx.GetString("id"), ctx.GetBool("staff"))).
				Preload("Class").
				Preload("Schedules").
				Preload("Payments").
				Order("created_at DESC").
				Find(&bookings).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings, "count": len(bookings)})
		}).
		GET("/bookings/:id", func(ctx *gin.Context) {
			booking, err := a.loadBooking(ctx)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		PUT("/bookings/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			booking, err := utils.CancelBooking(ctx.Request.Context(), a.db, params.ID, ctx.GetString("id"), ctx.GetBool("staff"))
			if err != nil {
				log.Printf("[Booking] Cancel %s failed: %s\n", params.ID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"bookingId": booking.ID, "status": booking.Status})
		}).
		GET("/bookings/:id/invoice", func(ctx *gin.Context) {
			booking, err := a.loadBooking(ctx)
			if err != nil {
				respondError(ctx, err)
				return
			}
			payment := paidPayment(booking)
			if payment == nil {
				respondError(ctx, apperr.E(apperr.ErrInvalidState, "booking has no successful payment"))
				return
			}
			pdf, err := a.renderer.Invoice(ctx.Request.Context(), notify.InvoiceDocument(payment))
			if err != nil {
				log.Printf("[Booking] Invoice rendering failed for %s: %s\n", booking.ID, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not render invoice"})
				return
			}
			ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="invoice-%s.pdf"`, payment.ID))
			ctx.Data(http.StatusOK, "application/pdf", pdf)
		}).
		GET("/bookings/:id/ticket", func(ctx *gin.Context) {
			booking, err := a.loadBooking(ctx)
			if err != nil {
				respondError(ctx, err)
				return
			}
			if !booking.Ticketed() {
				respondError(ctx, apperr.Ef(apperr.ErrInvalidState, "booking is %s", booking.Status))
				return
			}
			pdf, err := a.renderer.Ticket(ctx.Request.Context(), notify.TicketDocument(booking, a.cfg.AppURL))
			if err != nil {
				log.Printf("[Booking] Ticket rendering failed for %s: %s\n", booking.ID, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not render ticket"})
				return
			}
			ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="ticket-%s.pdf"`, booking.ID))
			ctx.Data(http.StatusOK, "application/pdf", pdf)
		})
	return g
}

// loadBooking reads the :id booking with everything documents need, limited
// to the caller's own bookings unless they are staff.
func (a *app) loadBooking(ctx *gin.Context) (*models.Booking, error) {
	var params types.SimpleRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		return nil, apperr.Wrap(apperr.ErrValidation, "invalid booking id", err)
	}
	var booking models.Booking
	if err := a.db.
		WithContext(ctx.Request.Context()).
		Model(&models.Booking{}).
		Scopes(scopes.WithID(params.ID), scopes.OwnedBy("student_id", ctx.GetString("id"), ctx.GetBool("staff"))).
		Preload("Student").
		Preload("Class").
		Preload("Class.Expert").
		Preload("Schedules", func(db *gorm.DB) *gorm.DB {
			return db.Order("starts_at ASC")
		}).
		Preload("Payments").
		First(&booking).
		Error; err != nil {
		return nil, apperr.FromDB(err, "booking")
	}
	return &booking, nil
}

func paidPayment(b *models.Booking) *models.Payment {
	for i := range b.Payments {
		if b.Payments[i].Status == types.PAYMENT_SUCCESS {
			p := b.Payments[i]
			p.Booking = b
			return &p
		}
	}
	return nil
}
