package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"go-gin-social/internal/core/auth"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthJWT(t *testing.T) {
	j := &auth.JWTer{Secret: []byte("0123456789abcdef"), Issuer: "t", TTL: time.Hour}
	userTok, _ := j.Issue("u1", "alice", "user")
	adminTok, _ := j.Issue("a1", "root", "admin")

	r := gin.New()
	r.GET("/me", AuthJWT(j, ""), func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxUserID)) })
	r.GET("/admin", AuthJWT(j, "admin"), func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	tests := []struct {
		path, auth string
		status     int
		body       string
	}{
		{"/me", "", http.StatusUnauthorized, ""},
		{"/me", "Bearer junk", http.StatusUnauthorized, ""},
		{"/me", "Bearer " + userTok, http.StatusOK, "u1"},
		{"/admin", "Bearer " + userTok, http.StatusForbidden, ""},
		{"/admin", "Bearer " + adminTok, http.StatusOK, "ok"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		if tt.auth != "" {
			req.Header.Set("Authorization", tt.auth)
		}
		w := serve(r, req)
		if w.Code != tt.status {
			t.Errorf("%s %q: status = %d, want %d", tt.path, tt.auth, w.Code, tt.status)
		}
		if tt.body != "" && w.Body.String() != tt.body {
			t.Errorf("%s: body = %q", tt.path, w.Body.String())
		}
	}
}

func TestRateLimitPerIP(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitPerIP(0.0001, 2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := func(ip string) int {
		rq := httptest.NewRequest(http.MethodGet, "/", nil)
		rq.RemoteAddr = ip + ":1234"
		return serve(r, rq).Code
	}
	if req("10.0.0.1") != http.StatusNoContent || req("10.0.0.1") != http.StatusNoContent {
		t.Fatal("burst should pass")
	}
	if code := req("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", code)
	}
	if code := req("10.0.0.2"); code != http.StatusNoContent {
		t.Fatalf("other ip = %d", code)
	}
}

func TestMaxBodyBytes(t *testing.T) {
	r := gin.New()
	r.Use(MaxBodyBytes(8))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", w.Code)
	}
	w = serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))
	r.GET("/", func(c *gin.Context) {
		<-c.Request.Context().Done()
		if c.Request.Context().Err() != context.DeadlineExceeded {
			t.Error("expected deadline")
		}
	})
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil)); w.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRecoveryAndRequestID(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := gin.New()
	r.Use(RequestID(), Recovery(zap.New(core)))
	r.GET("/", func(c *gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(KeyRequestID, "rid-1")
	w := serve(r, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get(KeyRequestID) != "rid-1" {
		t.Fatalf("request id not echoed: %q", w.Header().Get(KeyRequestID))
	}
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Fatal("panic not logged")
	}
}

func TestAccessLog_MasksSecrets(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(AccessLog(zap.New(core)))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodGet, "/x?token=abc&q=1", nil))
	entries := logs.FilterMessage("HTTP").All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	q, _ := entries[0].ContextMap()["query"].(map[string][]string)
	if q["token"][0] != "****" || q["q"][0] != "1" {
		t.Fatalf("query = %v", q)
	}
}

func TestMetrics_RouteLabel(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/users/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(httpReqTotal.WithLabelValues("/users/:id", http.MethodGet, "200"))
	beforeMiss := testutil.ToFloat64(httpReqTotal.WithLabelValues("unmatched", http.MethodGet, "404"))
	serve(r, httptest.NewRequest(http.MethodGet, "/users/1", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/users/2", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/random/abc", nil))

	if got := testutil.ToFloat64(httpReqTotal.WithLabelValues("/users/:id", http.MethodGet, "200")) - before; got != 2 {
		t.Fatalf("route count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(httpReqTotal.WithLabelValues("unmatched", http.MethodGet, "404")) - beforeMiss; got != 1 {
		t.Fatalf("unmatched count = %v, want 1", got)
	}
	if v := testutil.ToFloat64(httpInFlight); v != 0 {
		t.Fatalf("in flight = %v after requests", v)
	}
}
