package servers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wordgame/fictionary/pkg/game/types"
	"github.com/wordgame/fictionary/pkg/gateway"
	"github.com/wordgame/fictionary/pkg/identity"
	"github.com/wordgame/fictionary/pkg/log"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const wsWriteTimeout = 5 * time.Second

// WSGateway broadcasts round updates to websocket subscribers and delivers
// per-user error notices. It is the gateway.Gateway used in production.
type WSGateway struct {
	mu       sync.Mutex
	conns    map[*websocket.Conn]types.PlayerID
	identity identity.Lookup
}

func NewWSGateway(lookup identity.Lookup) *WSGateway {
	return &WSGateway{
		conns:    make(map[*websocket.Conn]types.PlayerID),
		identity: lookup,
	}
}

// envelope is the wire form of everything the gateway sends.
type envelope struct {
	ID     gateway.MessageHandle `json:"id"`
	Update *gateway.Update       `json:"update,omitempty"`
	Error  string                `json:"error,omitempty"`
	// Profiles resolves every participant mentioned in the update to
	// display metadata, so clients never render raw IDs.
	Profiles map[types.PlayerID]identity.Profile `json:"profiles,omitempty"`
}

// HandleConnection upgrades an HTTP request to a websocket subscription.
// The user query parameter attributes the connection for ephemeral errors;
// anonymous spectator connections are allowed.
func (g *WSGateway) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Warn("Failed to accept websocket connection: %v", err)
		return
	}

	user := types.PlayerID(r.URL.Query().Get("user"))
	g.mu.Lock()
	g.conns[conn] = user
	g.mu.Unlock()
	log.Debug("Websocket subscriber connected: %q", user)

	defer func() {
		g.mu.Lock()
		delete(g.conns, conn)
		g.mu.Unlock()
		conn.Close(websocket.StatusNormalClosure, "")
		log.Debug("Websocket subscriber disconnected: %q", user)
	}()

	// Subscribers are read-only; drain until the peer goes away.
	for {
		if _, _, err := conn.Read(r.Context()); err != nil {
			return
		}
	}
}

func (g *WSGateway) PostRoundUpdate(ctx context.Context, update gateway.Update) (gateway.MessageHandle, error) {
	handle := gateway.MessageHandle(uuid.NewString())
	env := envelope{
		ID:       handle,
		Update:   &update,
		Profiles: g.profilesFor(update),
	}
	g.broadcast(ctx, env, "")
	return handle, nil
}

func (g *WSGateway) PostEphemeralError(ctx context.Context, user types.PlayerID, text string) error {
	env := envelope{
		ID:    gateway.MessageHandle(uuid.NewString()),
		Error: text,
	}
	g.broadcast(ctx, env, user)
	return nil
}

// broadcast writes the envelope to every subscriber, or when only is set,
// to that user's connections alone. Slow or broken subscribers are logged
// and skipped.
func (g *WSGateway) broadcast(ctx context.Context, env envelope, only types.PlayerID) {
	g.mu.Lock()
	targets := make(map[*websocket.Conn]types.PlayerID, len(g.conns))
	for conn, user := range g.conns {
		if only != "" && user != only {
			continue
		}
		targets[conn] = user
	}
	g.mu.Unlock()

	for conn, user := range targets {
		writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
		if err := wsjson.Write(writeCtx, conn, env); err != nil {
			log.Warn("Failed to write to websocket subscriber %q: %v", user, err)
		}
		cancel()
	}
}

// profilesFor collects every participant the update mentions.
func (g *WSGateway) profilesFor(update gateway.Update) map[types.PlayerID]identity.Profile {
	users := make(map[types.PlayerID]bool)
	add := func(user types.PlayerID) {
		if user != "" {
			users[user] = true
		}
	}

	add(update.Author)
	add(update.Player)
	for _, user := range update.Registered {
		add(user)
	}
	for _, comment := range update.Comments {
		add(comment.Player)
	}
	for _, entry := range update.Stock {
		add(entry.Author)
	}
	if update.Results != nil {
		for _, user := range update.Results.CorrectBettors {
			add(user)
		}
		for _, card := range update.Results.Cards {
			add(card.Player)
			for _, bettor := range card.Bettors {
				add(bettor.Player)
			}
		}
	}
	if update.Ranking != nil {
		for _, entry := range update.Ranking.Ranked {
			add(entry.Player)
		}
		for _, entry := range update.Ranking.Low {
			add(entry.Player)
		}
	}

	if len(users) == 0 {
		return nil
	}
	profiles := make(map[types.PlayerID]identity.Profile, len(users))
	for user := range users {
		profiles[user] = identity.Profile{
			Name:    g.identity.DisplayName(user),
			IconURL: g.identity.IconURL(user),
		}
	}
	return profiles
}
