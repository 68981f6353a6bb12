package models

import (
	"encoding/json"
	"time"
)

type Project struct {
	ID        string          `json:"_id"`
	Name      string          `json:"name"`
	Users     []string        `json:"users"`
	FileTree  json.RawMessage `json:"fileTree,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type CreateProjectRequest struct {
	Name string `json:"name"`
}

type AddUsersRequest struct {
	ProjectID string   `json:"projectId"`
	Users     []string `json:"users"`
}

type UpdateFileTreeRequest struct {
	ProjectID string          `json:"projectId"`
	FileTree  json.RawMessage `json:"fileTree"`
}
