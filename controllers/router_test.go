package controllers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type ServerLifecycleListenerMockImpl struct {
	mock.Mock
	serverListener chan bool
}

func (m *ServerLifecycleListenerMockImpl) StartingServer()             { m.Called() }
func (m *ServerLifecycleListenerMockImpl) ServerStartFailed(err error) { m.Called(err) }
func (m *ServerLifecycleListenerMockImpl) ServerShutdownCompleted() {
	m.Called()
	m.serverListener <- true
}

var forceServerExiter = func(stop *chan os.Signal) {
	go func() {
		var client = &http.Client{Timeout: time.Second * 10}
		defer func() {
			client.CloseIdleConnections()
		}()
		for {
			response, err := client.Get("http://localhost:17654/status")
			if err == nil {
				if response.StatusCode == 200 {
					break
				}
			}
		}
		*stop <- os.Interrupt
	}()
}

func TestConfigureAPI(t *testing.T) {
	mListener := &ServerLifecycleListenerMockImpl{serverListener: make(chan bool)}
	mStatsSource := new(statsSourceMock)
	oldNotify := NotifyOnInterrupt
	NotifyOnInterrupt = forceServerExiter
	defer func() { NotifyOnInterrupt = oldNotify }()
	mListener.On("StartingServer").Return()
	mListener.On("ServerStartFailed", mock.Anything).Return()
	mListener.On("ServerShutdownCompleted").Return()
	mStatsSource.On("GetStats").Return(getSampleStats(), nil)
	ConfigureAPI(configuration, mListener, NewRouter(&Controllers{StatusController: NewStatusController(mStatsSource)}))
	<-mListener.serverListener
	mListener.AssertExpectations(t)
}

func TestGetRequestID(t *testing.T) {
	t.Run("FromHeader", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/status", nil)
		req.Header.Set(headerRequestID, "request-id-from-header")
		assert.Equal(t, "request-id-from-header", getRequestID(req))
	})
	t.Run("Generated", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/status", nil)
		assert.NotEmpty(t, getRequestID(req))
	})
}

func TestWriteStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	writeStatus(rr, http.StatusNotFound, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Empty(t, rr.Body.String())
}
