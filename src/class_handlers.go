package main

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gawwe-id/oknum/src/apperr"
	"github.com/gawwe-id/oknum/src/config"
	"github.com/gawwe-id/oknum/src/middlewares"
	"github.com/gawwe-id/oknum/src/models"
	"github.com/gawwe-id/oknum/src/types"
	"github.com/gawwe-id/oknum/src/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func (a *app) classHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/classes", func(ctx *gin.Context) {
			var classes []models.Class
			if err := a.db.
				WithContext(ctx.Request.Context()).
				Model(&models.Class{}).
				Where("status = ?", types.CLASS_PUBLISHED).
				Preload("Expert").
				Order("created_at DESC").
				Find(&classes).
				Error; err != nil {
				log.Printf("[Classes] Error listing classes: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": classes, "count": len(classes)})
		}).
		GET("/classes/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var class models.Class
			if err := a.db.
				WithContext(ctx.Request.Context()).
				Model(&models.Class{}).
				Where("id = ?", params.ID).
				Preload("Expert").
				Preload("Schedules", func(db *gorm.DB) *gorm.DB {
					return db.Order("starts_at ASC")
				}).
				First(&class).
				Error; err != nil {
				respondError(ctx, apperr.FromDB(err, "class"))
				return
			}
			if class.Status != types.CLASS_PUBLISHED && class.ExpertID != ctx.GetString("id") && !ctx.GetBool("staff") {
				respondError(ctx, apperr.E(apperr.ErrNotFound, "class not found"))
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": class})
		}).
		POST("/classes", middlewares.RequireRole(types.ROLE_EXPERT, types.ROLE_ADMIN), func(ctx *gin.Context) {
			var body types.CreateClassRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			status := types.CLASS_DRAFT
			if body.Publish {
				status = types.CLASS_PUBLISHED
			}
			class := models.Class{
				ID:          utils.NewID(utils.PREFIX_CLASS),
				Title:       strings.TrimSpace(body.Title),
				Slug:        utils.ClassSlug(body.Title),
				Description: utils.StringPtr(body.Description),
				ExpertID:    ctx.GetString("id"),
				Price:       body.Price,
				Currency:    config.DEFAULT_CURRENCY,
				Status:      status,
			}
			if err := a.db.WithContext(ctx.Request.Context()).Create(&class).Error; err != nil {
				log.Printf("[Classes] Error creating class: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": class})
		}).
		POST("/classes/:id/schedules", middlewares.RequireRole(types.ROLE_EXPERT, types.ROLE_ADMIN), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.CreateScheduleRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var class models.Class
			if err := a.db.
				WithContext(ctx.Request.Context()).
				Model(&models.Class{}).
				Where("id = ?", params.ID).
				First(&class).
				Error; err != nil {
				respondError(ctx, apperr.FromDB(err, "class"))
				return
			}
			if class.ExpertID != ctx.GetString("id") && types.Role(ctx.GetString("role")) != types.ROLE_ADMIN {
				respondError(ctx, apperr.E(apperr.ErrForbidden, "only the class expert can add schedules"))
				return
			}
			startsAt, _ := time.Parse(config.TIME_PARSE_FORMAT, body.StartsAt)
			endsAt, _ := time.Parse(config.TIME_PARSE_FORMAT, body.EndsAt)
			schedule := models.Schedule{
				ID:       utils.NewID(utils.PREFIX_SCHEDULE),
				ClassID:  class.ID,
				StartsAt: startsAt,
				EndsAt:   endsAt,
				Location: utils.StringPtr(body.Location),
				Capacity: body.Capacity,
			}
			if err := a.db.WithContext(ctx.Request.Context()).Create(&schedule).Error; err != nil {
				log.Printf("[Classes] Error creating schedule for %s: %s\n", class.ID, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": schedule})
		})
	return g
}
