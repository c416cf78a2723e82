package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialStream(t *testing.T, h *Handler, query string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.SimulateStream))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/simulate?" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	return conn
}

func TestSimulateStreamSendsProgressThenResult(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	conn := dialStream(t, env.handler, "team=Arsenal&rank=4&trials=2000")

	var progress []StreamFrame
	var final StreamFrame
	for {
		var frame StreamFrame
		require.NoError(t, conn.ReadJSON(&frame))
		if frame.Type != FrameProgress {
			final = frame
			break
		}
		progress = append(progress, frame)
	}

	require.Equal(t, FrameResult, final.Type)
	require.NotNil(t, final.Result)
	assert.Equal(t, 2000, final.Result.Trials)
	assert.Equal(t, 1.0, final.Result.Probability)
	require.NotEmpty(t, progress)
	last := 0
	for _, frame := range progress {
		require.NotNil(t, frame.Progress)
		assert.Greater(t, frame.Progress.Completed, last)
		assert.Equal(t, 2000, frame.Progress.Trials)
		last = frame.Progress.Completed
	}

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "expected normal closure, got %v", err)
}

func TestSimulateStreamReportsRequestErrors(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	cases := map[string]string{
		"team=Arsenal&rank=first":              "rank must be a whole number",
		"team=Arsenal&rank=1&trials=many":      "trials must be a whole number",
		"team=Leeds&rank=1":                    `unknown team "Leeds"`,
		"team=Arsenal&rank=1&trials=999999999": "trials must be at most 5000",
	}
	for query, want := range cases {
		t.Run(query, func(t *testing.T) {
			conn := dialStream(t, env.handler, query)
			var frame StreamFrame
			require.NoError(t, conn.ReadJSON(&frame))
			assert.Equal(t, FrameError, frame.Type)
			assert.Contains(t, frame.Error, want)
			assert.Nil(t, frame.Result)
		})
	}
}

func TestSimulateStreamNoData(t *testing.T) {
	env := newTestEnv(t, envOptions{empty: true})
	conn := dialStream(t, env.handler, "team=Arsenal&rank=1")
	var frame StreamFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, FrameError, frame.Type)
	assert.Equal(t, "league data not loaded", frame.Error)
}

func TestSimulateStreamRejectsPlainHTTP(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rr := httptest.NewRecorder()
	env.handler.SimulateStream(rr, httptest.NewRequest(http.MethodGet, "/ws/simulate?team=Arsenal&rank=1", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
