package websocket

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/warmspace/signaler/pkg/logger"
)

const (
	maxMessageSize = 10 * 1024
	pingTime       = pongTime * 9 / 10
	pongTime       = 60 * time.Second
)

type WS struct {
	conn deadlinedConn
	log  *logger.Logger

	OnMessage MessageHandler

	pingPong bool
	once     sync.Once
	done     chan struct{}
}

type MessageHandler func(message []byte, err error)

type Upgrader struct {
	websocket.Upgrader
}

var DefaultUpgrader = Upgrader{
	Upgrader: websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		WriteBufferPool: &sync.Pool{},
		CheckOrigin:     func(r *http.Request) bool { return true },
	},
}

// NewUpgrader makes an upgrader with the allowed origin only.
func NewUpgrader(origin string) *Upgrader {
	u := DefaultUpgrader
	if origin != "" && origin != "*" {
		u.CheckOrigin = func(r *http.Request) bool { return r.Header.Get("Origin") == origin }
	}
	return &u
}

// NewServer upgrades an HTTP request to a server-side socket.
func NewServer(w http.ResponseWriter, r *http.Request, log *logger.Logger) (*WS, error) {
	conn, err := DefaultUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return NewServerWithConn(conn, log)
}

func NewServerWithConn(conn *websocket.Conn, log *logger.Logger) (*WS, error) {
	return newSocket(conn, true, log), nil
}

func NewClient(address url.URL, log *logger.Logger) (*WS, error) {
	conn, _, err := websocket.DefaultDialer.Dial(address.String(), nil)
	if err != nil {
		return nil, err
	}
	return newSocket(conn, false, log), nil
}

func newSocket(conn *websocket.Conn, pingPong bool, log *logger.Logger) *WS {
	return &WS{
		conn:     deadlinedConn{sock: conn, wt: writeWait},
		log:      log,
		pingPong: pingPong,
		done:     make(chan struct{}),
	}
}

func (ws *WS) SetMessageHandler(fn MessageHandler) { ws.OnMessage = fn }

// Listen starts the reader pump and returns a channel closed
// when the connection is gone.
func (ws *WS) Listen() chan struct{} {
	go ws.reader()
	if ws.pingPong {
		go ws.pinger()
	}
	return ws.done
}

// reader pumps messages from the socket to the OnMessage callback.
// Serializes all the reads.
func (ws *WS) reader() {
	defer ws.shut()
	ws.conn.setup(func(conn *websocket.Conn) {
		conn.SetReadLimit(maxMessageSize)
		if ws.pingPong {
			_ = conn.SetReadDeadline(time.Now().Add(pongTime))
			conn.SetPongHandler(func(string) error {
				_ = conn.SetReadDeadline(time.Now().Add(pongTime))
				return nil
			})
		}
	})
	for {
		message, err := ws.conn.read()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.log.Debug().Err(err).Msg("socket read fail")
			}
			return
		}
		if ws.OnMessage != nil {
			ws.OnMessage(message, err)
		}
	}
}

func (ws *WS) pinger() {
	ticker := time.NewTicker(pingTime)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := ws.conn.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ws.done:
			return
		}
	}
}

// Write sends one message down the socket.
// An error means the connection should be considered dead.
func (ws *WS) Write(data []byte) error { return ws.conn.write(websocket.TextMessage, data) }

func (ws *WS) Close() {
	_ = ws.conn.write(websocket.CloseMessage, []byte{})
	ws.shut()
}

func (ws *WS) shut() {
	ws.once.Do(func() {
		_ = ws.conn.close()
		close(ws.done)
	})
}
