package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"edinetfetch/internal/domain"
	"edinetfetch/internal/metrics"
	"edinetfetch/internal/services"
)

type API struct {
	fetcher *services.FetchService
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewAPI(fetcher *services.FetchService, m *metrics.Metrics, logger *slog.Logger) *API {
	return &API{fetcher: fetcher, metrics: m, logger: logger}
}

func registerRoutes(r *gin.Engine, api *API) {
	r.POST("/edinetapi", api.handleFetch)

	r.GET("/api/health", api.handleHealth)
	r.GET("/metrics", gin.WrapH(api.metrics.Handler()))
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// handleFetch checks the configured secrets before reading the body and the
// token before validating the remaining fields, so a misconfigured process
// always answers 500 and a wrong token is rejected whatever else the payload
// holds.
func (a *API) handleFetch(c *gin.Context) {
	if err := a.fetcher.CheckConfig(); err != nil {
		a.respondFetchError(c, err)
		return
	}

	var req domain.FetchRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		a.respondFetch(c, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	if err := a.fetcher.Authorize(req.AccessToken); err != nil {
		a.respondFetchError(c, err)
		return
	}

	if err := binding.Validator.ValidateStruct(&req); err != nil {
		a.respondFetch(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := a.fetcher.Fetch(c.Request.Context(), req)
	if err != nil {
		a.respondFetchError(c, err)
		return
	}

	a.metrics.ObserveRequest(http.StatusOK)
	c.JSON(http.StatusOK, result)
}

func (a *API) respondFetchError(c *gin.Context, err error) {
	status := services.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("fetch failed", "error", err, "requestID", c.GetString(requestIDHeader))
	}
	a.respondFetch(c, status, err.Error())
}

func (a *API) respondFetch(c *gin.Context, status int, message string) {
	a.metrics.ObserveRequest(status)
	respondMessage(c, status, message)
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
