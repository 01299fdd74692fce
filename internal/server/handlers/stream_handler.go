package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/legalchicks/coopnet/internal/domain/models"
	"github.com/legalchicks/coopnet/internal/metrics"
	"github.com/legalchicks/coopnet/internal/realtime"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// streamRequest is a client frame on the stream socket.
type streamRequest struct {
	Action string `json:"action"` // subscribe | unsubscribe
	Topic  string `json:"topic"`
}

// streamError is sent back when a frame is rejected. The connection stays up.
type streamError struct {
	Error string `json:"error"`
	Topic string `json:"topic,omitempty"`
}

// StreamHandler serves the realtime snapshot stream over a websocket. A client
// subscribes to topics and receives the current snapshot immediately, then a
// fresh one after every change.
type StreamHandler struct {
	broker *realtime.Broker
	logger *zap.Logger
}

// NewStreamHandler constructs the websocket adapter.
func NewStreamHandler(broker *realtime.Broker, logger *zap.Logger) *StreamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamHandler{broker: broker, logger: logger}
}

// Serve upgrades the request and pumps snapshots until the client disconnects.
// Every subscription is scoped to the connection: when it drops, all of its
// subscriptions are released.
func (h *StreamHandler) Serve(c *gin.Context) {
	profile, ok := CurrentProfile(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// The HTTP server's read/write deadlines carry over to the hijacked
	// connection and would cut the stream off mid-session.
	_ = conn.UnderlyingConn().SetDeadline(time.Time{})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sess := &streamSession{
		handler: h,
		profile: profile,
		ctx:     ctx,
		out:     make(chan any, 16),
		subs:    make(map[realtime.Topic]*realtime.Subscription),
	}

	h.logger.Info("stream connected", zap.String("uid", profile.UID))
	defer h.logger.Info("stream disconnected", zap.String("uid", profile.UID))

	// Single writer goroutine; gorilla connections allow one concurrent writer.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case frame := <-sess.out:
				if err := conn.WriteJSON(frame); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	for {
		var req streamRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("stream read ended", zap.Error(err))
			}
			break
		}
		sess.handle(req)
	}

	cancel()
	sess.closeAll()
	wg.Wait()
}

// streamSession tracks one connection's live subscriptions.
type streamSession struct {
	handler *StreamHandler
	profile models.Profile
	ctx     context.Context
	out     chan any

	mu   sync.Mutex
	subs map[realtime.Topic]*realtime.Subscription
}

func (s *streamSession) handle(req streamRequest) {
	topic := realtime.Topic(req.Topic)
	switch req.Action {
	case "subscribe":
		s.subscribe(topic)
	case "unsubscribe":
		s.unsubscribe(topic)
	default:
		s.send(streamError{Error: "unknown action"})
	}
}

// subscribe authorizes and opens a topic subscription. A member may read the
// shared topics and their own per-user topics; admin topics need an admin.
func (s *streamSession) subscribe(topic realtime.Topic) {
	if topic == "" {
		s.send(streamError{Error: "topic is required"})
		return
	}
	if !s.authorized(topic) {
		s.send(streamError{Error: "not authorized for this topic", Topic: string(topic)})
		return
	}

	s.mu.Lock()
	if _, exists := s.subs[topic]; exists {
		s.mu.Unlock()
		return
	}
	sub := s.handler.broker.Subscribe(s.ctx, topic)
	s.subs[topic] = sub
	s.mu.Unlock()

	metrics.IncStreamSubscriptions()

	go func() {
		defer metrics.DecStreamSubscriptions()
		for snap := range sub.C() {
			s.send(snap)
		}
	}()
}

func (s *streamSession) unsubscribe(topic realtime.Topic) {
	s.mu.Lock()
	sub, ok := s.subs[topic]
	if ok {
		delete(s.subs, topic)
	}
	s.mu.Unlock()

	if ok {
		sub.Close()
	}
}

func (s *streamSession) authorized(topic realtime.Topic) bool {
	if topic.AdminOnly() {
		return s.profile.Role.IsAdmin()
	}
	if owner := topic.Owner(); owner != "" {
		return owner == s.profile.UID || s.profile.Role.IsAdmin()
	}
	return true
}

func (s *streamSession) send(frame any) {
	select {
	case s.out <- frame:
	case <-s.ctx.Done():
	}
}

func (s *streamSession) closeAll() {
	s.mu.Lock()
	subs := make([]*realtime.Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.subs = make(map[realtime.Topic]*realtime.Subscription)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}
