package database

import (
	"context"
	"encoding/json"

	"collabcode/internal/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
}

type ProjectRepository interface {
	CreateProject(ctx context.Context, name, ownerID string) (*models.Project, error)
	GetProjectByID(ctx context.Context, id string) (*models.Project, error)
	ListUserProjects(ctx context.Context, userID string) ([]*models.Project, error)
	AddProjectUsers(ctx context.Context, projectID string, userIDs []string) (*models.Project, error)
	UpdateFileTree(ctx context.Context, projectID string, fileTree json.RawMessage) error
}

type Store interface {
	UserRepository
	ProjectRepository
	Close() error
}
