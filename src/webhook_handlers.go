package main

import (
	"io"
	"log"
	"net/http"

	"github.com/gawwe-id/oknum/src/duitku"
	"github.com/gawwe-id/oknum/src/middlewares"
	"github.com/gin-gonic/gin"
)

func (a *app) webhookRoutes(g *gin.Engine) *gin.Engine {
	g.POST("/duitku-callback", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("[Duitku] Error reading request body: %s\n", err.Error())
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "could not read body"})
			return
		}
		cb, err := duitku.ParseCallback(ctx.GetHeader("Content-Type"), payload)
		if err != nil {
			log.Printf("[Duitku] Unreadable callback: %s\n", err.Error())
			respondError(ctx, err)
			return
		}
		res, err := a.payments.HandleCallback(ctx.Request.Context(), cb)
		if err != nil {
			respondError(ctx, err)
			return
		}
		log.Printf("[Duitku] Callback for %s done, status=%s applied=%v\n", res.PaymentID, res.Status, res.Applied)
		ctx.String(http.StatusOK, "SUCCESS")
	})

	g.POST("/clerk-webhook", middlewares.VerifySvix(a.cfg.ClerkWebhookSecret), func(ctx *gin.Context) {
		raw, _ := ctx.Get(middlewares.RawBodyKey)
		payload, _ := raw.([]byte)
		res, err := a.identity.HandleEvent(ctx.Request.Context(), ctx.GetHeader("svix-id"), payload)
		if err != nil {
			log.Printf("[Clerk] Webhook failed: %s\n", err.Error())
			respondError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, res)
	})
	return g
}
