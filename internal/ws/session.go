package ws

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/convohq/messaging-service/internal/auth"
	"github.com/convohq/messaging-service/internal/cache"
	"github.com/convohq/messaging-service/internal/chat"
	"github.com/convohq/messaging-service/internal/live"
)

// command is what the client sends: select a conversation to follow its
// messages, or clear the selection.
type command struct {
	Action         string `json:"action"` // select | unselect
	ConversationID string `json:"conversation_id,omitempty"`
}

type outbound struct {
	Type           string `json:"type"` // conversations | messages
	ConversationID string `json:"conversation_id,omitempty"`
	Items          any    `json:"items"`
}

// Server runs one live session per websocket connection: a standing
// conversation-list subscription for the user, and a message-thread
// subscription that follows whichever conversation the client selects.
type Server struct {
	svc      *chat.Service
	feed     live.ChangeFeed
	presence *cache.Presence
	log      *zap.SugaredLogger
}

func NewServer(svc *chat.Service, feed live.ChangeFeed, presence *cache.Presence, log *zap.SugaredLogger) *Server {
	return &Server{svc: svc, feed: feed, presence: presence, log: log}
}

// Handle services one connection until the client goes away. The handler
// goroutine owns reads; a single writer goroutine owns all writes.
func (s *Server) Handle(conn *websocket.Conn) {
	userID, _ := conn.Locals(auth.LocalUserID).(string)
	if userID == "" {
		_ = conn.Close()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.presence.SetOnline(ctx, userID, true); err != nil {
		s.log.Warnw("presence online", "user_id", userID, "err", err)
	}
	defer func() {
		if err := s.presence.SetOnline(context.Background(), userID, false); err != nil {
			s.log.Warnw("presence offline", "user_id", userID, "err", err)
		}
	}()

	list := live.NewConversationList(s.svc.FetchConversations, s.feed, s.log, userID)
	go func() {
		if err := list.Run(ctx); err != nil {
			s.log.Errorw("conversation list", "user_id", userID, "err", err)
			cancel()
		}
	}()

	thread := live.NewMessageThread(s.svc.FetchMessages, s.feed, s.log)
	defer thread.Close()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writePump(ctx, conn, list, thread)
	}()

	s.readPump(ctx, conn, thread)
	cancel()
	<-writerDone
}

func (s *Server) readPump(ctx context.Context, conn *websocket.Conn, thread *live.MessageThread) {
	for {
		var cmd command
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		switch cmd.Action {
		case "select":
			thread.Select(ctx, cmd.ConversationID)
		case "unselect":
			thread.Select(ctx, "")
		default:
			s.log.Debugw("unknown ws action", "action", cmd.Action)
		}
	}
}

func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, list *live.ConversationList, thread *live.MessageThread) {
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close()
			return
		case convs, ok := <-list.Snapshots():
			if !ok {
				_ = conn.Close()
				return
			}
			if err := conn.WriteJSON(outbound{Type: "conversations", Items: convs}); err != nil {
				return
			}
		case snap := <-thread.Snapshots():
			out := outbound{Type: "messages", ConversationID: snap.ConversationID, Items: snap.Messages}
			if err := conn.WriteJSON(out); err != nil {
				return
			}
		}
	}
}
