package controllers

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

const (
	metricsPath = "/metrics"
)

// NewMetricsController Factory for new MetricsController
func NewMetricsController(metricsHandler http.Handler) *MetricsController {
	metricsController := &MetricsController{metricsHandler: metricsHandler}
	return metricsController
}

// MetricsController is the controller for the `/metrics` scrape endpoint
type MetricsController struct {
	metricsHandler http.Handler
}

// GetPath returns the endpoint path
func (cont *MetricsController) GetPath() string {
	return metricsPath
}

// FormatAsRelativeLink Format as relative URL of this resource based on the params
func (cont *MetricsController) FormatAsRelativeLink(params ...httprouter.Param) string {
	return metricsPath
}

// Get is the GET /metrics endpoint controller
func (cont *MetricsController) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cont.metricsHandler.ServeHTTP(w, r)
}
