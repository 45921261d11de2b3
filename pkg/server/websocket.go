package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// wsFrame is a client frame on the chat WebSocket.
type wsFrame struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// wsReply is a server frame: either SessionID and Reply, or Error and Kind.
type wsReply struct {
	SessionID string `json:"session_id,omitempty"`
	Reply     string `json:"reply,omitempty"`
	Error     string `json:"error,omitempty"`
	Kind      string `json:"kind,omitempty"`
}

// handleChatWS runs a chat loop on one connection. The first turn creates a
// conversation unless the client names one; later frames without a
// session_id continue it.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.originPatterns})
	if err != nil {
		s.logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer func() { _ = conn.CloseNow() }()

	conn.SetReadLimit(maxBodyBytes)

	ctx := r.Context()
	sessionID := r.URL.Query().Get("session_id")

	for {
		var in wsFrame
		if err := wsjson.Read(ctx, conn, &in); err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway &&
				!errors.Is(err, context.Canceled) {
				s.logger.Debug("websocket read ended", "error", err)
			}
			return
		}

		if in.SessionID != "" {
			sessionID = in.SessionID
		}

		out := s.wsTurn(ctx, sessionID, in.Message)
		if out.SessionID != "" {
			sessionID = out.SessionID
		}

		if err := wsjson.Write(ctx, conn, out); err != nil {
			s.logger.Debug("websocket write failed", "error", err)
			return
		}
	}
}

func (s *Server) wsTurn(ctx context.Context, sessionID, text string) wsReply {
	turn, err := s.eng.Converse(ctx, sessionID, text)
	if err != nil {
		_, kind := classify(err)
		msg := err.Error()
		if kind == "internal" {
			msg = "internal error"
		}
		return wsReply{SessionID: turn.SessionID, Error: msg, Kind: kind}
	}

	return wsReply{SessionID: turn.SessionID, Reply: turn.Reply}
}
