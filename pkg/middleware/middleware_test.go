package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coffeeshop.com/pkg/common"
	"coffeeshop.com/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	return r
}

func TestReqId_GeneratesAndEchoes(t *testing.T) {
	r := newEngine(ReqId())
	var seen string
	r.GET("/x", func(c *gin.Context) {
		seen = common.RequestIDFromGin(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(common.HeaderRequestID))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(common.HeaderRequestID, "abc")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", seen)
}

func TestRecover_Returns500(t *testing.T) {
	r := newEngine(Recover())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRateLimit_Blocks(t *testing.T) {
	store := ratelimit.NewStore(1, 2, time.Minute)
	r := newEngine(RateLimit(store))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
