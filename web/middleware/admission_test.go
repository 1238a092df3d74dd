package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"coupon-ui/web/limiter"

	"github.com/gin-gonic/gin"
)

func newSubmissionEngine(adm *limiter.Admission) *gin.Engine {
	engine := gin.New()
	engine.POST("/claim", SubmissionAdmission(adm), func(c *gin.Context) {
		var form struct {
			Campaign string `json:"campaign" form:"campaign"`
			Email    string `json:"email" form:"email"`
		}
		if err := c.ShouldBind(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": form.Email})
	})
	return engine
}

func newSubmissionAdmission(emailMax int) *limiter.Admission {
	return limiter.NewAdmission(limiter.Config{
		Login:        limiter.Policy{Window: 10 * time.Minute, Max: 5, Lock: 15 * time.Minute},
		SubmitOrigin: limiter.Policy{Window: 10 * time.Minute, Max: 100, Lock: 30 * time.Minute},
		SubmitEmail:  limiter.Policy{Window: 10 * time.Minute, Max: emailMax, Lock: 30 * time.Minute},
		DailyCap:     50,
	})
}

func postSubmission(engine *gin.Engine, origin, contentType, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/claim", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	req.RemoteAddr = origin + ":4321"
	engine.ServeHTTP(w, req)
	return w
}

// The identity limiter must see the email no matter how the body is encoded.
// Submitting JSON from rotating origins must trip the per-email ceiling just
// like form submissions do.
func TestSubmissionIdentityLimitAppliesToJSONBodies(t *testing.T) {
	engine := newSubmissionEngine(newSubmissionAdmission(2))

	origins := []string{"10.1.0.1", "10.1.0.2", "10.1.0.3"}
	for i, origin := range origins[:2] {
		w := postSubmission(engine, origin, "application/json",
			`{"campaign":"SUMMER","email":"farmer@example.com"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("attempt %d: status = %d, want 200", i+1, w.Code)
		}
	}
	w := postSubmission(engine, origins[2], "application/json",
		`{"campaign":"SUMMER","email":"Farmer@Example.COM"}`)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("3rd submission for the same identity = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("rejection must carry a Retry-After header")
	}
}

// Form and JSON submissions for one email share a single window.
func TestSubmissionIdentityLimitSharedAcrossEncodings(t *testing.T) {
	engine := newSubmissionEngine(newSubmissionAdmission(2))

	w := postSubmission(engine, "10.2.0.1", "application/x-www-form-urlencoded",
		"campaign=SUMMER&email=mixed@example.com")
	if w.Code != http.StatusOK {
		t.Fatalf("form attempt: status = %d, want 200", w.Code)
	}
	w = postSubmission(engine, "10.2.0.2", "application/json",
		`{"campaign":"SUMMER","email":"mixed@example.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("json attempt: status = %d, want 200", w.Code)
	}
	w = postSubmission(engine, "10.2.0.3", "application/x-www-form-urlencoded",
		"campaign=SUMMER&email=mixed@example.com")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("3rd attempt across encodings = %d, want 429", w.Code)
	}
}

// Reading the email in the middleware must not consume the body: the handler
// still binds the same JSON payload.
func TestSubmissionBodySurvivesIdentityExtraction(t *testing.T) {
	engine := newSubmissionEngine(newSubmissionAdmission(5))

	w := postSubmission(engine, "10.3.0.1", "application/json",
		`{"campaign":"SUMMER","email":"intact@example.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "intact@example.com") {
		t.Fatalf("handler did not see the bound body: %s", w.Body.String())
	}
}

// A body with no email only counts against the origin.
func TestSubmissionWithoutIdentityFallsBackToOrigin(t *testing.T) {
	engine := newSubmissionEngine(newSubmissionAdmission(1))

	for i := 0; i < 3; i++ {
		w := postSubmission(engine, "10.4.0.1", "application/json", `{"campaign":"SUMMER"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("attempt %d without email: status = %d, want 200", i+1, w.Code)
		}
	}
}
