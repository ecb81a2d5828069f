// Package server exposes the match engine over WebSocket. The gateway is a
// thin transport: it decodes client messages into engine calls and fans
// engine events and per-player views back out. All rule enforcement lives in
// the engine.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/hexturf/turf-server-go/internal/config"
	"github.com/hexturf/turf-server-go/internal/game"
	"github.com/hexturf/turf-server-go/internal/game/hex"
	"github.com/hexturf/turf-server-go/internal/game/match"
	"github.com/hexturf/turf-server-go/internal/game/rules"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the client host is fixed.
		return true
	},
}

// ClientMessage is the envelope for inbound messages.
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ServerMessage is the envelope for outbound messages.
type ServerMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type hexPayload struct {
	Q int `json:"q"`
	R int `json:"r"`
}

type targetPayload struct {
	TokenID  string      `json:"token_id,omitempty"`
	CardID   string      `json:"card_id,omitempty"`
	PlayerID string      `json:"player_id,omitempty"`
	At       *hexPayload `json:"at,omitempty"`
}

func (p targetPayload) toTarget() match.Target {
	t := match.Target{TokenID: p.TokenID, CardID: p.CardID, PlayerID: p.PlayerID}
	if p.At != nil {
		t.At = hex.New(p.At.Q, p.At.R)
		t.HasHex = true
	}
	return t
}

type seatPayload struct {
	PlayerID string   `json:"player_id"`
	Name     string   `json:"name"`
	LeaderID string   `json:"leader_id"`
	Deck     []string `json:"deck,omitempty"`
}

type createMatchRequest struct {
	MatchID string      `json:"match_id"`
	Seed    int64       `json:"seed"`
	PlayerA seatPayload `json:"player_a"`
	PlayerB seatPayload `json:"player_b"`
}

type joinMatchRequest struct {
	MatchID  string `json:"match_id"`
	PlayerID string `json:"player_id"`
}

type playCardRequest struct {
	CardID string        `json:"card_id"`
	Target targetPayload `json:"target"`
}

type advanceRequest struct {
	Delta float64 `json:"delta"`
}

type resultPayload struct {
	Action  string `json:"action"`
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
}

// Client is one WebSocket connection. playerID and matchID are written by
// join_match and read by the hub loop, so both sides go through Hub.mu.
type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	playerID string
	matchID  string
}

// Hub owns the connected clients and bridges engine events to them. Run must
// be started before the first connection is accepted.
type Hub struct {
	engine *game.Engine
	logger *zap.Logger

	register   chan *Client
	unregister chan *Client
	events     chan rules.Event

	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewHub creates a hub and subscribes it to the engine's event stream.
func NewHub(engine *game.Engine, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		engine:     engine,
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan rules.Event, 256),
		clients:    make(map[*Client]bool),
	}
	engine.Observe(func(event rules.Event) {
		select {
		case h.events <- event:
		default:
			h.logger.Warn("event channel full, dropping event",
				zap.String("type", string(event.Type)),
				zap.String("match_id", event.MatchID),
			)
		}
	})
	return h
}

// Run processes registrations and engine events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("client connected", zap.String("remote", client.conn.RemoteAddr().String()))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("client disconnected", zap.String("player_id", client.playerID))

		case event := <-h.events:
			h.dispatchEvent(event)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// dispatchEvent forwards the event to every client in the match, then pushes
// each of them a fresh personalized view so they never act on a stale board.
func (h *Hub) dispatchEvent(event rules.Event) {
	raw, err := json.Marshal(ServerMessage{Type: "event", Data: event})
	if err != nil {
		h.logger.Error("marshal event", zap.Error(err))
		return
	}

	type member struct {
		client   *Client
		playerID string
	}
	h.mu.RLock()
	members := make([]member, 0, len(h.clients))
	for client := range h.clients {
		if client.matchID == event.MatchID {
			members = append(members, member{client: client, playerID: client.playerID})
		}
	}
	h.mu.RUnlock()

	for _, m := range members {
		m.client.trySend(raw)
		h.sendView(m.client, event.MatchID, m.playerID)
	}
}

func (h *Hub) sendView(client *Client, matchID, playerID string) {
	if matchID == "" || playerID == "" {
		return
	}
	view, err := h.engine.View(matchID, playerID)
	if err != nil {
		h.logger.Warn("view unavailable",
			zap.String("match_id", matchID),
			zap.String("player_id", playerID),
			zap.Error(err),
		)
		return
	}
	client.sendMessage(ServerMessage{Type: "match_view", Data: view})
}

func (h *Hub) handleMessage(client *Client, msg ClientMessage) {
	h.logger.Debug("message received",
		zap.String("type", msg.Type),
		zap.String("player_id", client.playerID),
	)

	switch msg.Type {
	case "create_match":
		var req createMatchRequest
		if !decode(client, msg.Data, &req) {
			return
		}
		seatA := game.Seat{PlayerID: req.PlayerA.PlayerID, Name: req.PlayerA.Name, LeaderID: req.PlayerA.LeaderID, Deck: req.PlayerA.Deck}
		seatB := game.Seat{PlayerID: req.PlayerB.PlayerID, Name: req.PlayerB.Name, LeaderID: req.PlayerB.LeaderID, Deck: req.PlayerB.Deck}
		matchID, err := h.engine.CreateMatch(req.MatchID, seatA, seatB, req.Seed)
		if err != nil {
			client.sendError(err.Error())
			return
		}
		client.sendMessage(ServerMessage{Type: "match_created", Data: map[string]string{"match_id": matchID}})

	case "join_match":
		var req joinMatchRequest
		if !decode(client, msg.Data, &req) {
			return
		}
		h.mu.Lock()
		client.matchID = req.MatchID
		client.playerID = req.PlayerID
		h.mu.Unlock()
		h.sendView(client, req.MatchID, req.PlayerID)

	case "play_deploy_card":
		var req playCardRequest
		if !decode(client, msg.Data, &req) {
			return
		}
		if req.Target.At == nil {
			client.sendError("deploy requires a target hex")
			return
		}
		at := hex.New(req.Target.At.Q, req.Target.At.R)
		result, err := h.engine.SubmitPlayDeployCard(client.matchID, client.playerID, req.CardID, at)
		client.sendResult(msg.Type, result, err)

	case "play_event_card":
		var req playCardRequest
		if !decode(client, msg.Data, &req) {
			return
		}
		result, err := h.engine.SubmitPlayEventCard(client.matchID, client.playerID, req.CardID, req.Target.toTarget())
		client.sendResult(msg.Type, result, err)

	case "reactive_card":
		var req playCardRequest
		if !decode(client, msg.Data, &req) {
			return
		}
		result, err := h.engine.SubmitReactiveCard(client.matchID, client.playerID, req.CardID, req.Target.toTarget())
		client.sendResult(msg.Type, result, err)

	case "dismiss_reaction":
		result, err := h.engine.SubmitDismissReaction(client.matchID, client.playerID)
		client.sendResult(msg.Type, result, err)

	case "end_turn":
		result, err := h.engine.SubmitEndTurn(client.matchID, client.playerID)
		client.sendResult(msg.Type, result, err)

	case "use_leader_skill":
		var req playCardRequest
		if !decode(client, msg.Data, &req) {
			return
		}
		result, err := h.engine.SubmitUseLeaderSkill(client.matchID, client.playerID, req.Target.toTarget())
		client.sendResult(msg.Type, result, err)

	case "advance":
		var req advanceRequest
		if !decode(client, msg.Data, &req) {
			return
		}
		if err := h.engine.Advance(client.matchID, req.Delta); err != nil {
			client.sendError(err.Error())
		}

	case "get_view":
		h.sendView(client, client.matchID, client.playerID)

	default:
		client.sendError("unknown message type: " + msg.Type)
	}
}

func decode(client *Client, data json.RawMessage, out any) bool {
	if err := json.Unmarshal(data, out); err != nil {
		client.sendError("bad request payload: " + err.Error())
		return false
	}
	return true
}

func (c *Client) trySend(raw []byte) {
	select {
	case c.send <- raw:
	default:
		// Slow consumer; the write pump will notice the closed socket.
	}
}

func (c *Client) sendMessage(msg ServerMessage) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.trySend(raw)
}

func (c *Client) sendError(detail string) {
	c.sendMessage(ServerMessage{Type: "error", Data: map[string]string{"detail": detail}})
}

func (c *Client) sendResult(action string, result game.Result, err error) {
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.sendMessage(ServerMessage{Type: "result", Data: resultPayload{
		Action:  action,
		Applied: result.Applied,
		Reason:  string(result.Reason),
	}})
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("malformed message")
			continue
		}
		h.handleMessage(c, msg)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for raw := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			return
		}
	}
}

// ServeWS upgrades an HTTP request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
	}
	h.register <- client

	go client.writePump()
	go client.readPump(h)
}

// StartWebSocketServer blocks serving the gateway on the configured address.
func StartWebSocketServer(cfg config.WebSocketConfig, hub *Hub, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	logger.Info("starting WebSocket server", zap.String("address", cfg.Address))
	return http.ListenAndServe(cfg.Address, mux)
}
