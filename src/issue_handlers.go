package main

import (
	"log"
	"net/http"

	"github.com/gawwe-id/oknum/src/controllers"
	"github.com/gawwe-id/oknum/src/middlewares"
	"github.com/gawwe-id/oknum/src/types"
	"github.com/gin-gonic/gin"
)

func (a *app) issueHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/issues", func(ctx *gin.Context) {
			issue, status, err := controllers.CreateIssue(ctx, a.db)
			if err != nil {
				log.Printf("[CreateIssue] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"data": issue})
		}).
		GET("/issues", func(ctx *gin.Context) {
			issues, status, err := controllers.ListIssues(ctx, a.db)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": issues, "count": len(issues)})
		}).
		GET("/issues/:id", func(ctx *gin.Context) {
			issue, status, err := controllers.GetIssue(ctx, a.db)
			if err != nil {
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": issue})
		}).
		PATCH("/issues/:id", middlewares.RequireRole(types.ROLE_ADMIN, types.ROLE_SUPPORT), func(ctx *gin.Context) {
			issue, status, err := controllers.UpdateIssue(ctx, a.db)
			if err != nil {
				log.Printf("[UpdateIssue] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": issue})
		})
	return g
}
