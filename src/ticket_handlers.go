package main

import (
	"net/http"
	"time"

	"github.com/gawwe-id/oknum/src/apperr"
	"github.com/gawwe-id/oknum/src/models"
	"github.com/gawwe-id/oknum/src/types"
	"github.com/gawwe-id/oknum/src/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type verifiedSchedule struct {
	StartsAt string `json:"startsAt"`
	EndsAt   string `json:"endsAt"`
	Location string `json:"location,omitempty"`
}

// ticketRoutes exposes the public endpoint a ticket's QR code points at.
func (a *app) ticketRoutes(g *gin.Engine) *gin.Engine {
	g.GET("/verify-ticket/:id", func(ctx *gin.Context) {
		var params types.SimpleRequestParams
		if err := ctx.ShouldBindUri(&params); err != nil {
			ctx.Status(http.StatusBadRequest)
			return
		}
		var booking models.Booking
		if err := a.db.
			WithContext(ctx.Request.Context()).
			Model(&models.Booking{}).
			Where("id = ?", params.ID).
			Preload("Student").
			Preload("Class").
			Preload("Schedules", func(db *gorm.DB) *gorm.DB {
				return db.Order("starts_at ASC")
			}).
			First(&booking).
			Error; err != nil {
			err = apperr.FromDB(err, "ticket")
			ctx.JSON(apperr.Status(err), gin.H{"valid": false, "error": apperr.Message(err)})
			return
		}

		loc := a.renderer.Location
		if loc == nil {
			loc = time.UTC
		}
		schedules := make([]verifiedSchedule, 0, len(booking.Schedules))
		for _, s := range booking.Schedules {
			schedules = append(schedules, verifiedSchedule{
				StartsAt: s.StartsAt.In(loc).Format("2006-01-02 15:04 MST"),
				EndsAt:   s.EndsAt.In(loc).Format("2006-01-02 15:04 MST"),
				Location: utils.Deref(s.Location),
			})
		}
		res := gin.H{
			"valid":     booking.Ticketed(),
			"bookingId": booking.ID,
			"status":    booking.Status,
			"schedules": schedules,
		}
		if booking.Class != nil {
			res["class"] = booking.Class.Title
		}
		if booking.Student != nil {
			res["student"] = booking.Student.Name
		}
		ctx.JSON(http.StatusOK, res)
	})
	return g
}
