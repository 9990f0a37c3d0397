package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingController struct{}

func (pingController) MountRoutes(r gin.IRouter) {
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
}

func TestBuildMountsControllers(t *testing.T) {
	host := NewBuilder("test").
		AddControllers(pingController{}).
		Get("/health", func(c *gin.Context) { c.Status(http.StatusNoContent) }).
		Build()

	rec := httptest.NewRecorder()
	host.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())

	rec = httptest.NewRecorder()
	host.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHostStartStop(t *testing.T) {
	host := NewBuilder("inspector").UseAddr("127.0.0.1:0").AddControllers(pingController{}).Build()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- host.Start(ctx) }()

	require.Eventually(t, func() bool { return host.Address() != "" }, time.Second, 10*time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://%s/ping", host.Address()))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	require.NoError(t, host.Stop(context.Background()))
	assert.NoError(t, <-done)
}
