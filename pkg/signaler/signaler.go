// Package signaler assembles the signaling server: the HTTP endpoint with
// the websocket and REST boundaries, plus an optional monitoring sidecar.
package signaler

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/warmspace/signaler/pkg/com"
	"github.com/warmspace/signaler/pkg/config"
	"github.com/warmspace/signaler/pkg/logger"
	"github.com/warmspace/signaler/pkg/monitoring"
	"github.com/warmspace/signaler/pkg/network/httpx"
	"github.com/warmspace/signaler/pkg/network/websocket"
	"github.com/warmspace/signaler/pkg/service"
	"github.com/warmspace/signaler/pkg/signal"
)

type Signaler struct {
	conf     config.Config
	log      *logger.Logger
	hub      *signal.Hub
	upgrader *websocket.Upgrader
	conns    com.Map[com.Uid, *websocket.WS]
	services service.Group
}

func New(conf config.Config, log *logger.Logger) *Signaler {
	s := &Signaler{
		conf:     conf,
		log:      log,
		hub:      signal.NewHub(log),
		upgrader: websocket.NewUpgrader(conf.Signaler.Origin),
		conns:    com.NewMap[com.Uid, *websocket.WS](),
	}
	s.services.AddIf(conf.Signaler.Monitoring.IsEnabled(),
		monitoring.New(conf.Signaler.Monitoring, "sig", log))
	return s
}

func (s *Signaler) Start() {
	conf := s.conf.Signaler.Server
	address := conf.Address
	if conf.Https {
		address = conf.Tls.Address
	}
	serv, err := httpx.NewServer(
		address,
		func(serv *httpx.Server) httpx.Handler {
			h := serv.Mux()
			h.HandleFunc("GET /ws/{user_id}", s.handleConnection)
			s.restRoutes(h)
			return withCORS(s.conf.Signaler.Origin, h)
		},
		httpx.WithServerConfig(conf),
		httpx.WithLogger(s.log),
	)
	if err != nil {
		s.log.Fatal().Err(err).Msg("couldn't init the signaling server")
	}
	s.services.Add(serv)
	s.services.Start()
}

// Shutdown closes the open sockets first so their loops can unwind
// before the HTTP servers stop.
func (s *Signaler) Shutdown(ctx context.Context) error {
	s.conns.ForEach(func(ws *websocket.WS) { ws.Close() })
	return s.services.Shutdown(ctx)
}

// handleConnection upgrades /ws/{user_id}, registers the user, and pumps
// their messages until the socket is gone. Registration happens before the
// read loop starts so no inbound message can observe an unknown sender.
func (s *Signaler) handleConnection(w httpx.ResponseWriter, r *httpx.Request) {
	userId := r.PathValue("user_id")
	if userId == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("couldn't upgrade the connection")
		return
	}
	log := s.log.Extend(s.log.With().Str("uid", userId))
	ws, err := websocket.NewServerWithConn(conn, log)
	if err != nil {
		log.Error().Err(err).Msg("couldn't init the socket")
		return
	}

	cid, stale := s.hub.Connect(userId, transport{ws})
	if stale != nil {
		stale.Close()
	}
	router := signal.NewRouter(s.hub, userId, log)
	ws.SetMessageHandler(router.Handle)
	s.conns.Put(cid, ws)
	log.Info().Str("cid", cid.Short()).Msg("connection opened")
	<-ws.Listen()
	s.conns.RemoveByKey(cid)
	s.hub.Disconnect(userId, cid)
	log.Info().Str("cid", cid.Short()).Msg("connection closed")
}

// transport adapts a websocket to the hub's outbound side.
type transport struct{ ws *websocket.WS }

func (t transport) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return t.ws.Write(data)
}

func (t transport) Close() { t.ws.Close() }
