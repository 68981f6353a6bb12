package service

import (
	"context"
	"fmt"

	"collabcode/internal/database"
	"collabcode/internal/models"
)

type ProjectService struct {
	db database.Store
}

func NewProjectService(db database.Store) *ProjectService {
	return &ProjectService{db: db}
}

func (s *ProjectService) CreateProject(ctx context.Context, req *models.CreateProjectRequest, ownerID string) (*models.Project, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("project name is required")
	}

	return s.db.CreateProject(ctx, req.Name, ownerID)
}

func (s *ProjectService) ListUserProjects(ctx context.Context, userID string) ([]*models.Project, error) {
	return s.db.ListUserProjects(ctx, userID)
}

func (s *ProjectService) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	return s.db.GetProjectByID(ctx, projectID)
}

func (s *ProjectService) AddUsers(ctx context.Context, req *models.AddUsersRequest, inviterID string) (*models.Project, error) {
	if req.ProjectID == "" || len(req.Users) == 0 {
		return nil, fmt.Errorf("projectId and users are required")
	}

	project, err := s.db.GetProjectByID(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("project not found")
	}

	if !isMember(project, inviterID) {
		return nil, fmt.Errorf("forbidden - not a member of this project")
	}

	return s.db.AddProjectUsers(ctx, req.ProjectID, req.Users)
}

func (s *ProjectService) UpdateFileTree(ctx context.Context, req *models.UpdateFileTreeRequest, userID string) error {
	if req.ProjectID == "" {
		return fmt.Errorf("projectId is required")
	}

	project, err := s.db.GetProjectByID(ctx, req.ProjectID)
	if err != nil {
		return fmt.Errorf("project not found")
	}

	if !isMember(project, userID) {
		return fmt.Errorf("forbidden - not a member of this project")
	}

	return s.db.UpdateFileTree(ctx, req.ProjectID, req.FileTree)
}

func isMember(project *models.Project, userID string) bool {
	for _, id := range project.Users {
		if id == userID {
			return true
		}
	}
	return false
}
