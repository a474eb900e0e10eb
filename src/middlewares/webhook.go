package middlewares

import (
	"bytes"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	svix "github.com/svix/svix-webhooks/go"
)

const RawBodyKey = "rawBody"

// VerifySvix checks the svix-id, svix-timestamp and svix-signature headers
// against secret. With an empty secret requests pass unverified. The raw
// body is stored under RawBodyKey and the request body is restored.
func VerifySvix(secret string) gin.HandlerFunc {
	var wh *svix.Webhook
	if secret != "" {
		var err error
		wh, err = svix.NewWebhook(secret)
		if err != nil {
			log.Fatalf("[Webhook] Invalid signing secret: %s\n", err.Error())
		}
	} else {
		log.Println("[Webhook] No signing secret set, deliveries are not verified")
	}
	return func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("[Webhook] Error reading request body: %s\n", err.Error())
			ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "could not read body"})
			return
		}
		ctx.Request.Body = io.NopCloser(bytes.NewReader(payload))
		ctx.Set(RawBodyKey, payload)
		if wh == nil {
			return
		}
		if err := wh.Verify(payload, ctx.Request.Header); err != nil {
			log.Printf("[Webhook] Signature verification failed for %s: %s\n", ctx.GetHeader("svix-id"), err.Error())
			ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid webhook signature"})
			return
		}
	}
}

func SecureHeaders(ctx *gin.Context) {
	ctx.Header("X-Content-Type-Options", "nosniff")
	ctx.Header("X-Frame-Options", "DENY")
	ctx.Header("Referrer-Policy", "strict-origin-when-cross-origin")
	ctx.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
}
