package main

import (
	"log"
	"net/http"

	"github.com/gawwe-id/oknum/src/apperr"
	"github.com/gawwe-id/oknum/src/middlewares"
	"github.com/gawwe-id/oknum/src/models"
	"github.com/gawwe-id/oknum/src/payments"
	"github.com/gawwe-id/oknum/src/types"
	"github.com/gin-gonic/gin"
)

func respondError(ctx *gin.Context, err error) {
	ctx.JSON(apperr.Status(err), gin.H{"error": apperr.Message(err)})
}

func (a *app) paymentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/payments/initiate", func(ctx *gin.Context) {
			var body types.InitiatePaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("[Payments] Invalid initiate request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			res, err := a.payments.Initiate(ctx.Request.Context(), ctx.GetString("id"), ctx.GetBool("staff"), payments.InitiateRequest{
				PaymentID:     body.PaymentID,
				CustomerName:  body.CustomerName,
				CustomerEmail: body.CustomerEmail,
				CustomerPhone: body.CustomerPhone,
			})
			if err != nil {
				log.Printf("[Payments] Initiate %s failed: %s\n", body.PaymentID, err.Error())
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, res)
		}).
		GET("/payments/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var payment models.Payment
			if err := a.db.
				WithContext(ctx.Request.Context()).
				Model(&models.Payment{}).
				Where("id = ?", params.ID).
				Preload("Booking").
				First(&payment).
				Error; err != nil {
				respondError(ctx, apperr.FromDB(err, "payment"))
				return
			}
			if !ctx.GetBool("staff") && (payment.Booking == nil || payment.Booking.StudentID != ctx.GetString("id")) {
				respondError(ctx, apperr.E(apperr.ErrNotFound, "payment not found"))
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": payment})
		}).
		POST("/payments/:id/notify", middlewares.RequireRole(types.ROLE_ADMIN, types.ROLE_SUPPORT), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			outcome := a.notifier.PaymentSucceeded(ctx.Request.Context(), params.ID)
			ctx.JSON(http.StatusOK, outcome)
		})
	return g
}
