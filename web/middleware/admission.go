// Package middleware holds the request-time guards of the panel. Per request
// the chain is: admission control, tenant resolution, authorization, handler.
package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"coupon-ui/logger"
	"coupon-ui/web/limiter"

	"github.com/gin-gonic/gin"
)

// LoginAdmission rejects login attempts from origins that are locked out.
// Counting happens in the login handler, which knows whether the credentials
// failed.
func LoginAdmission(adm *limiter.Admission) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.ClientIP()
		if ok, retry := adm.CheckLogin(origin); !ok {
			logger.Warningf("login locked out for %s, retry in %s", origin, retry)
			rejectRateLimited(c, retry)
			return
		}
		c.Next()
	}
}

// SubmissionAdmission counts every public submission attempt against the
// origin and, when present, the submitted email. Attempts count whether or
// not the submission is valid, to blunt scripted abuse of malformed requests.
func SubmissionAdmission(adm *limiter.Admission) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.ClientIP()
		email := submittedEmail(c)
		if ok, retry := adm.Submit(origin, email); !ok {
			logger.Warningf("submission locked out for %s, retry in %s", origin, retry)
			rejectRateLimited(c, retry)
			return
		}
		c.Next()
	}
}

// submittedEmail extracts the identity key from any body encoding the
// submission handlers accept. A JSON body is read and re-wrapped so the
// handler can still bind it; a client must not be able to dodge the identity
// limiter by switching content types.
func submittedEmail(c *gin.Context) string {
	if c.ContentType() != "application/json" {
		return c.PostForm("email")
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Email
}

// rejectRateLimited answers 429 with an actionable Retry-After; admission
// rejections are never silent drops.
func rejectRateLimited(c *gin.Context, retry time.Duration) {
	seconds := int(retry / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", fmt.Sprintf("%d", seconds))
	c.JSON(http.StatusTooManyRequests, gin.H{
		"success":    false,
		"msg":        "Too many attempts. Please try again later.",
		"retryAfter": seconds,
	})
	c.Abort()
}
