package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"collabcode/internal/config"
	"collabcode/internal/database"
	"collabcode/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Handshake failure taxonomy. All four are connection-fatal: the transport
// refuses the upgrade and surfaces the reason to the caller only.
var (
	ErrInvalidProject  = errors.New("invalid projectId")
	ErrProjectNotFound = errors.New("project not found")
	ErrMissingToken    = errors.New("authentication error: no token provided")
	ErrInvalidToken    = errors.New("authentication error: invalid token")
)

type Service struct {
	db  database.Store
	cfg *config.Config
}

func NewService(db database.Store, cfg *config.Config) *Service {
	return &Service{
		db:  db,
		cfg: cfg,
	}
}

// AuthorizeConnection validates a websocket handshake and produces the
// identity and project for the session. The checks run in a fixed order:
// projectId syntax, project existence, token presence, token verification.
// A syntactically invalid projectId is rejected before any persistence read.
//
// Project membership is deliberately not checked here: any holder of a valid
// token may join any existing project's room.
func (s *Service) AuthorizeConnection(ctx context.Context, token, projectID string) (models.Identity, *models.Project, error) {
	if _, err := uuid.Parse(projectID); err != nil {
		return models.Identity{}, nil, ErrInvalidProject
	}

	project, err := s.db.GetProjectByID(ctx, projectID)
	if err != nil {
		return models.Identity{}, nil, ErrProjectNotFound
	}

	if token == "" {
		return models.Identity{}, nil, ErrMissingToken
	}

	identity, err := s.IdentityFromToken(token)
	if err != nil {
		return models.Identity{}, nil, ErrInvalidToken
	}

	return identity, project, nil
}

func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.LoginResponse, error) {
	if err := s.validateRegistrationRequest(req); err != nil {
		return nil, err
	}

	user, err := s.db.CreateUser(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.LoginResponse{
		Token: token,
		User:  *user,
	}, nil
}

func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.db.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	user.PasswordHash = ""

	return &models.LoginResponse{
		Token: token,
		User:  *user,
	}, nil
}

// IdentityFromToken verifies the token signature and decodes the principal.
func (s *Service) IdentityFromToken(tokenString string) (models.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.cfg.JWT.Secret, nil
	})
	if err != nil {
		return models.Identity{}, err
	}

	claims, ok := token.Claims.(*jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Identity{}, fmt.Errorf("invalid token")
	}

	id, ok := (*claims)["_id"].(string)
	if !ok || id == "" {
		return models.Identity{}, fmt.Errorf("invalid user ID in token")
	}
	email, _ := (*claims)["email"].(string)

	return models.Identity{ID: id, Email: email}, nil
}

func (s *Service) GetUserFromToken(ctx context.Context, tokenString string) (*models.User, error) {
	identity, err := s.IdentityFromToken(tokenString)
	if err != nil {
		return nil, err
	}

	return s.db.GetUserByID(ctx, identity.ID)
}

// ListUsers returns every registered user except the caller, for the
// collaborator picker.
func (s *Service) ListUsers(ctx context.Context, excludeID string) ([]*models.User, error) {
	users, err := s.db.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	filtered := users[:0]
	for _, u := range users {
		if u.ID != excludeID {
			filtered = append(filtered, u)
		}
	}
	return filtered, nil
}

func (s *Service) generateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"_id":   user.ID,
		"email": user.Email,
		"exp":   time.Now().Add(s.cfg.JWT.ExpiresIn).Unix(),
		"iat":   time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.cfg.JWT.Secret)
}

func (s *Service) validateRegistrationRequest(req *models.RegisterRequest) error {
	if req.Email == "" || req.Password == "" {
		return fmt.Errorf("missing required fields")
	}

	if !isValidEmail(req.Email) {
		return fmt.Errorf("invalid email format")
	}

	if len(req.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	return nil
}

func isValidEmail(email string) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(email)
}
