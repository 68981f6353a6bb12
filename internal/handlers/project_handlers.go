package handlers

import (
	"encoding/json"
	"net/http"

	"collabcode/internal/auth"
	"collabcode/internal/models"
	"collabcode/internal/service"
	"collabcode/pkg/logger"

	"github.com/gorilla/mux"
)

type ProjectHandlers struct {
	projectService *service.ProjectService
	authService    *auth.Service
}

func NewProjectHandlers(projectService *service.ProjectService, authService *auth.Service) *ProjectHandlers {
	return &ProjectHandlers{
		projectService: projectService,
		authService:    authService,
	}
}

func (h *ProjectHandlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	user, err := userFromRequest(h.authService, r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	project, err := h.projectService.CreateProject(r.Context(), &req, user.ID)
	if err != nil {
		logger.Error("Create project error: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"project": project})
}

func (h *ProjectHandlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	user, err := userFromRequest(h.authService, r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	projects, err := h.projectService.ListUserProjects(r.Context(), user.ID)
	if err != nil {
		logger.Error("List projects error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"projects": projects})
}

func (h *ProjectHandlers) GetProject(w http.ResponseWriter, r *http.Request) {
	if _, err := userFromRequest(h.authService, r); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	projectID := mux.Vars(r)["id"]
	project, err := h.projectService.GetProject(r.Context(), projectID)
	if err != nil {
		logger.Error("Get project error: %v", err)
		http.Error(w, "project not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"project": project})
}

func (h *ProjectHandlers) AddUsers(w http.ResponseWriter, r *http.Request) {
	user, err := userFromRequest(h.authService, r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.AddUsersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	project, err := h.projectService.AddUsers(r.Context(), &req, user.ID)
	if err != nil {
		logger.Error("Add users error: %v", err)
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"project": project})
}

func (h *ProjectHandlers) UpdateFileTree(w http.ResponseWriter, r *http.Request) {
	user, err := userFromRequest(h.authService, r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.UpdateFileTreeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := h.projectService.UpdateFileTree(r.Context(), &req, user.ID); err != nil {
		logger.Error("Update file tree error: %v", err)
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("file tree updated"))
}
