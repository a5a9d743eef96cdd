// file: realtime/gateway.go

package realtime

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"noxa-api/logger"
	"noxa-api/model"

	"github.com/gorilla/websocket"
)

// TokenVerifier checks an access token and returns its subject.
type TokenVerifier interface {
	Verify(token string, expected model.TokenKind) (string, error)
}

type GatewayOptions struct {
	AllowedOrigins []string
	SendBuffer     int
	PingInterval   time.Duration
	WriteTimeout   time.Duration
}

// Gateway upgrades HTTP requests to websockets and binds each socket to a principal, or to no one.
// A socket with a bad token is still accepted, as anonymous.
type Gateway struct {
	hub      *Hub
	verifier TokenVerifier
	opts     GatewayOptions
	upgrader websocket.Upgrader
}

func NewGateway(hub *Hub, verifier TokenVerifier, opts GatewayOptions) *Gateway {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 32
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	g := &Gateway{hub: hub, verifier: verifier, opts: opts}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     g.checkOrigin,
	}
	return g
}

func (g *Gateway) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range g.opts.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

// extractToken prefers the explicit token query field over the Authorization header.
func extractToken(r *http.Request) string {
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// authenticate resolves the principal for a connecting socket. An empty result means anonymous.
func (g *Gateway) authenticate(r *http.Request) string {
	token := extractToken(r)
	if token == "" || g.verifier == nil {
		return ""
	}
	principalID, err := g.verifier.Verify(token, model.TokenKindAccess)
	if err != nil {
		logger.Log.WithField("remote_addr", r.RemoteAddr).Info("Websocket token rejected, continuing as anonymous")
		return ""
	}
	return principalID
}

// ServeHTTP godoc
// @Summary      Realtime notifications
// @Description  Upgrades to a websocket. Pass an access token as ?token= or Authorization: Bearer to receive your own events.
// @Tags         realtime
// @Param        token query string false "Access token"
// @Success      101
// @Router       /ws [get]
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	c := newClient(conn, g.opts)
	c.bind(g.authenticate(r))
	g.hub.Register(c)
	c.log().WithField("state", c.State()).Info("Websocket connected")

	go c.writePump()
	go c.readPump(g.hub)
}
