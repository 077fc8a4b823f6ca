package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/riskibarqy/prospect-auction/internal/interfaces/eventwire"
	"github.com/riskibarqy/prospect-auction/internal/usecase"
	"github.com/sourcegraph/conc"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
	streamReadLimit  = 512
)

// Stream upgrades to a WebSocket and pushes auction events until either side
// goes away. Clients only send control frames.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Stream")
	defer span.End()

	query := r.URL.Query()
	filter := usecase.SubscriptionFilter{
		AuctionID: strings.TrimSpace(query.Get("auction_id")),
		TeamID:    strings.TrimSpace(query.Get("team_id")),
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(ctx, "websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	sub := h.events.Subscribe(filter)
	h.logger.InfoContext(ctx, "stream subscribed",
		"remote_addr", r.RemoteAddr,
		"auction_id", filter.AuctionID,
		"team_id", filter.TeamID,
	)

	readerDone := make(chan struct{})
	var wg conc.WaitGroup
	wg.Go(func() {
		defer close(readerDone)
		h.streamReadPump(conn)
	})
	wg.Go(func() {
		h.streamWritePump(ctx, conn, sub, readerDone)
	})
	wg.Wait()

	sub.Close()
	h.logger.InfoContext(ctx, "stream closed",
		"remote_addr", r.RemoteAddr,
		"dropped", sub.Dropped(),
	)
}

func (h *Handler) streamReadPump(conn *websocket.Conn) {
	defer conn.Close()

	conn.SetReadLimit(streamReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// streamWritePump closes the connection on exit, which unblocks the reader.
func (h *Handler) streamWritePump(ctx context.Context, conn *websocket.Conn, sub *usecase.Subscription, readerDone <-chan struct{}) {
	ticker := time.NewTicker(streamPingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			writeClose(conn, websocket.CloseGoingAway, "server shutting down")
			return
		case <-readerDone:
			return
		case evt, ok := <-sub.Events():
			if !ok {
				writeClose(conn, websocket.CloseGoingAway, "stream closed")
				return
			}
			frame, err := eventwire.EncodeEvent(evt)
			if err != nil {
				h.logger.ErrorContext(ctx, "encode stream frame failed", "auction_id", evt.AuctionID, "error", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.logger.DebugContext(ctx, "stream write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeClose(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(streamWriteWait))
}
