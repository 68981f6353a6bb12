package handlers

import (
	"errors"
	"net/http"

	"collabcode/internal/auth"
	"collabcode/internal/ws"
	"collabcode/pkg/logger"

	"github.com/gorilla/websocket"
)

type WebSocketHandlers struct {
	authService *auth.Service
	registry    *ws.Registry
	router      *ws.Router
	upgrader    websocket.Upgrader
}

func NewWebSocketHandlers(authService *auth.Service, registry *ws.Registry, router *ws.Router) *WebSocketHandlers {
	return &WebSocketHandlers{
		authService: authService,
		registry:    registry,
		router:      router,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Configure for production
		},
	}
}

// HandleWebSocket is the connection handshake. Every check runs before the
// upgrade, so a rejected caller never holds a partially-authenticated
// session.
func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := tokenFromRequest(r)
	projectID := r.URL.Query().Get("projectId")

	identity, project, err := h.authService.AuthorizeConnection(r.Context(), token, projectID)
	if err != nil {
		logger.Error("Socket authentication error: %v", err)
		http.Error(w, err.Error(), handshakeStatus(err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	session := ws.NewSession(identity, project.ID)
	client := ws.NewClient(h.registry, h.router, conn, session)

	h.registry.Join(session.RoomID, client)
	logger.Info("User connected: %s to project %s", identity.Email, session.RoomID)

	go client.WritePump()
	go client.ReadPump()
}

func handshakeStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidProject):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrProjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
