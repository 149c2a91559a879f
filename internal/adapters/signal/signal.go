package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/vkoshev/relay/internal/app/orch"
	"github.com/vkoshev/relay/internal/core"
	"github.com/vkoshev/relay/internal/safety"
)

var ErrBackpressure = errors.New("backpressure")

type SignalWSController struct {
	Orch       *orch.Orchestrator
	Safety     safety.Classifier
	ReadLimit  int64
	PingPeriod time.Duration
}

func NewSignalWSController(o *orch.Orchestrator, cls safety.Classifier, readLimit int64, pingPeriod time.Duration) *SignalWSController {
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	return &SignalWSController{
		Orch:       o,
		Safety:     cls,
		ReadLimit:  readLimit,
		PingPeriod: pingPeriod,
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and registers the connection. Each
// websocket gets its own session id; two tabs never share membership.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(uuid.NewString())
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	user := ctl.Orch.Registry.GetOrCreateUser(sid)
	sess := core.NewMemberSession(user, conn)
	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Registry.Bind(sid, sess, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}
