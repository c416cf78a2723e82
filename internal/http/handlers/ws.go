package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	domainsims "github.com/preston-bernstein/league-sim-service/internal/domain/simulations"
	"github.com/preston-bernstein/league-sim-service/internal/logging"
)

const (
	wsWriteWait   = 10 * time.Second
	progressQueue = 32
)

// Frame types sent on the simulation stream.
const (
	FrameProgress = "progress"
	FrameResult   = "result"
	FrameError    = "error"
)

// StreamFrame is one message on the simulation websocket.
type StreamFrame struct {
	Type     string               `json:"type"`
	Progress *domainsims.Progress `json:"progress,omitempty"`
	Result   *domainsims.Result   `json:"result,omitempty"`
	Error    string               `json:"error,omitempty"`
}

type streamOutcome struct {
	result domainsims.Result
	err    error
}

// SimulateStream upgrades to a websocket and streams progress frames, then a result or error frame.
// Request errors are reported in-band so browser clients can read them.
func (h *Handler) SimulateStream(w http.ResponseWriter, r *http.Request) {
	logger := loggerFromContext(r, h.logger)
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn(logger, "websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	req, err := parseStreamRequest(r.URL.Query())
	if err != nil {
		closeStream(conn, StreamFrame{Type: FrameError, Error: err.Error()}, logger)
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()
	go readUntilClosed(conn, cancel, logger)

	updates := make(chan domainsims.Progress, progressQueue)
	done := make(chan streamOutcome, 1)
	go func() {
		result, err := h.sims.SimulateStream(ctx, req, func(p domainsims.Progress) {
			// Slow readers miss intermediate progress, never the result.
			select {
			case updates <- p:
			default:
			}
		})
		done <- streamOutcome{result: result, err: err}
	}()

	for {
		select {
		case p := <-updates:
			if err := writeFrame(conn, StreamFrame{Type: FrameProgress, Progress: &p}); err != nil {
				logging.Debug(logger, "stream write failed", "err", err)
				cancel()
				<-done
				return
			}
		case out := <-done:
			if !drainProgress(conn, updates) {
				return
			}
			if out.err != nil {
				_, message := statusFor(out.err)
				if ctx.Err() != nil {
					return
				}
				closeStream(conn, StreamFrame{Type: FrameError, Error: message}, logger)
				return
			}
			closeStream(conn, StreamFrame{Type: FrameResult, Result: &out.result}, logger)
			return
		}
	}
}

func parseStreamRequest(q url.Values) (domainsims.Request, error) {
	req := domainsims.Request{Team: strings.TrimSpace(q.Get("team"))}
	rank, err := strconv.Atoi(q.Get("rank"))
	if err != nil {
		return req, fmt.Errorf("%w: rank must be a whole number", domainsims.ErrInvalidRequest)
	}
	req.Rank = rank
	if raw := q.Get("trials"); raw != "" {
		trials, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("%w: trials must be a whole number", domainsims.ErrInvalidRequest)
		}
		req.Trials = trials
	}
	return req, req.Validate()
}

// readUntilClosed consumes client frames so close and ping control messages are processed.
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc, logger *slog.Logger) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug(logger, "stream client left", "err", err)
			}
			return
		}
	}
}

func drainProgress(conn *websocket.Conn, updates <-chan domainsims.Progress) bool {
	for {
		select {
		case p := <-updates:
			if err := writeFrame(conn, StreamFrame{Type: FrameProgress, Progress: &p}); err != nil {
				return false
			}
		default:
			return true
		}
	}
}

func writeFrame(conn *websocket.Conn, frame StreamFrame) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(frame)
}

func closeStream(conn *websocket.Conn, frame StreamFrame, logger *slog.Logger) {
	if err := writeFrame(conn, frame); err != nil {
		logging.Debug(logger, "stream write failed", "err", err)
		return
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait)); err != nil {
		logging.Debug(logger, "stream close failed", "err", err)
	}
}
