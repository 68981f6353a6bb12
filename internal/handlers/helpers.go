package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"collabcode/internal/auth"
	"collabcode/internal/models"
)

// tokenFromRequest pulls the auth token from the token query parameter or an
// Authorization bearer header.
func tokenFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

func userFromRequest(authService *auth.Service, r *http.Request) (*models.User, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return nil, fmt.Errorf("missing token")
	}

	return authService.GetUserFromToken(r.Context(), token)
}
