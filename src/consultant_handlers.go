package main

import (
	"log"
	"net/http"

	"github.com/gawwe-id/oknum/src/controllers"
	"github.com/gawwe-id/oknum/src/middlewares"
	"github.com/gawwe-id/oknum/src/types"
	"github.com/gin-gonic/gin"
)

func (a *app) consultantHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/consultant-requests", func(ctx *gin.Context) {
			req, status, err := controllers.CreateConsultantRequest(ctx, a.db)
			if err != nil {
				log.Printf("[CreateConsultantRequest] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": req})
		}).
		GET("/consultant-requests", func(ctx *gin.Context) {
			reqs, status, err := controllers.ListConsultantRequests(ctx, a.db)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reqs, "count": len(reqs)})
		}).
		GET("/consultant-requests/:id", func(ctx *gin.Context) {
			req, status, err := controllers.GetConsultantRequest(ctx, a.db)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": req})
		}).
		PATCH("/consultant-requests/:id", middlewares.RequireRole(types.ROLE_ADMIN, types.ROLE_SUPPORT), func(ctx *gin.Context) {
			req, status, err := controllers.UpdateConsultantRequest(ctx, a.db)
			if err != nil {
				log.Printf("[UpdateConsultantRequest] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": req})
		})
	return g
}
