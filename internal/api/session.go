package api

import (
	"log"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"sniper-duel/internal/game"
	"sniper-duel/internal/protocol"
	"sniper-duel/internal/telemetry"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 54 * time.Second // Must be less than wsReadTimeout
	wsWriteTimeout = 10 * time.Second
	sendBuffer     = 256
)

// MatchResolver looks up a live match by id.
type MatchResolver interface {
	Resolve(matchID string) *game.Match
}

// Session is one seated player's websocket connection.
type Session struct {
	conn     *websocket.Conn
	send     chan []byte
	matchID  string
	playerID string
	nickname string
	ip       string

	matches MatchResolver
	limiter *rate.Limiter
	maxSize int64
}

func newSession(conn *websocket.Conn, seat seatInfo, ip string, matches MatchResolver, limits sessionLimits) *Session {
	return &Session{
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		matchID:  seat.matchID,
		playerID: seat.playerID,
		nickname: seat.nickname,
		ip:       ip,
		matches:  matches,
		limiter:  rate.NewLimiter(rate.Limit(limits.messagesPerSecond), limits.burst),
		maxSize:  limits.maxMessageBytes,
	}
}

type seatInfo struct {
	matchID  string
	playerID string
	nickname string
}

type sessionLimits struct {
	messagesPerSecond float64
	burst             int
	maxMessageBytes   int64
}

// enqueue queues a frame for this session only. Returns false if the queue
// is full.
func (s *Session) enqueue(frame []byte) bool {
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

// readPump reads frames until the connection fails, dispatching each to the
// session's match.
func (s *Session) readPump() {
	if s.maxSize > 0 {
		s.conn.SetReadLimit(s.maxSize)
	}
	s.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("⚠️ WebSocket error from %s: %v", s.nickname, err)
			}
			return
		}
		received := time.Now()

		if !s.limiter.Allow() {
			telemetry.WSMessagesIn.WithLabelValues("throttled").Inc()
			continue // Drop excess frames silently
		}

		env, err := protocol.Decode(frame)
		if err != nil {
			telemetry.WSMessagesIn.WithLabelValues("invalid").Inc()
			continue
		}
		s.dispatch(env, received)
	}
}

// dispatch routes one inbound envelope. The match is resolved per message so
// a torn-down match is never touched.
func (s *Session) dispatch(env protocol.Envelope, received time.Time) {
	m := s.matches.Resolve(s.matchID)
	if m == nil {
		return
	}

	switch env.Event {
	case protocol.EventMovement:
		var mv protocol.Movement
		if err := env.Bind(&mv); err != nil {
			s.invalid(env.Event, err)
			return
		}
		m.UpdateMovement(s.playerID, mv.Input())

	case protocol.EventShoot:
		var sh protocol.Shoot
		if err := env.Bind(&sh); err != nil {
			s.invalid(env.Event, err)
			return
		}
		m.HandleShoot(sh.Shot(s.playerID, received))

	case protocol.EventReload:
		m.HandleReload(s.playerID)

	case protocol.EventScopeToggle:
		var st protocol.ScopeToggle
		if err := env.Bind(&st); err != nil {
			s.invalid(env.Event, err)
			return
		}
		m.HandleScopeToggle(s.playerID, st.Scoped)

	case protocol.EventRematchRequest:
		m.HandleRematchRequest(s.playerID)

	case protocol.EventSettingsUpdate:
		var patch protocol.SettingsUpdate
		if err := env.Bind(&patch); err != nil {
			s.invalid(env.Event, err)
			return
		}
		m.UpdateSettings(patch)

	default:
		telemetry.WSMessagesIn.WithLabelValues("invalid").Inc()
		return
	}
	telemetry.WSMessagesIn.WithLabelValues(env.Event).Inc()
}

func (s *Session) invalid(event string, err error) {
	telemetry.WSMessagesIn.WithLabelValues("invalid").Inc()
	log.Printf("⚠️ Bad %s payload from %s: %v", event, s.nickname, err)
}

// writePump drains the send queue and keeps the connection alive with pings.
// It exits once the hub closes the queue.
func (s *Session) writePump() {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
