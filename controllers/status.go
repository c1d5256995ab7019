package controllers

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/newscred/task-broker/broker"
)

const (
	statusPath = "/status"
)

// StatsSource provides the queue statistics served by the status endpoint
type StatsSource interface {
	GetStats() (*broker.Stats, error)
}

// NewStatusController Factory for new StatusController
func NewStatusController(statsSource StatsSource) *StatusController {
	statusController := &StatusController{statsSource: statsSource}
	return statusController
}

// StatusController is the controller for `/status` endpoint
type StatusController struct {
	statsSource StatsSource
}

// GetPath returns the endpoint path
func (cont *StatusController) GetPath() string {
	return statusPath
}

// FormatAsRelativeLink Format as relative URL of this resource based on the params
func (cont *StatusController) FormatAsRelativeLink(params ...httprouter.Param) string {
	return statusPath
}

// Get is the GET /status endpoint controller
func (cont *StatusController) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stats, err := cont.statsSource.GetStats()
	if err != nil {
		// return error
		writeErr(w, err)
		return
	}
	writeJSON(w, stats)
}
