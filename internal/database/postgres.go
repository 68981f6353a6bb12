package database

import (
	"context"
	"encoding/json"
	"fmt"

	"collabcode/internal/models"
	"collabcode/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(databaseURL string) (*PostgresDB, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to database successfully")
	return &PostgresDB{pool: pool}, nil
}

func (db *PostgresDB) Close() error {
	db.pool.Close()
	return nil
}

// User Repository Implementation
func (db *PostgresDB) CreateUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (email, password_hash, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, email, created_at`

	user := &models.User{PasswordHash: string(hash)}
	err = db.pool.QueryRow(ctx, query, req.Email, string(hash)).Scan(
		&user.ID, &user.Email, &user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (db *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (db *PostgresDB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, email, created_at FROM users WHERE id = $1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (db *PostgresDB) ListUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT id, email, created_at FROM users ORDER BY email`

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.Email, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, nil
}

// Project Repository Implementation
func (db *PostgresDB) CreateProject(ctx context.Context, name, ownerID string) (*models.Project, error) {
	query := `
		INSERT INTO projects (name, users, file_tree, created_at)
		VALUES ($1, ARRAY[$2]::text[], '{}'::jsonb, NOW())
		RETURNING id, name, users, file_tree, created_at`

	project := &models.Project{}
	err := db.pool.QueryRow(ctx, query, name, ownerID).Scan(
		&project.ID, &project.Name, &project.Users, &project.FileTree, &project.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

func (db *PostgresDB) GetProjectByID(ctx context.Context, id string) (*models.Project, error) {
	query := `SELECT id, name, users, file_tree, created_at FROM projects WHERE id = $1`

	project := &models.Project{}
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&project.ID, &project.Name, &project.Users, &project.FileTree, &project.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return project, nil
}

func (db *PostgresDB) ListUserProjects(ctx context.Context, userID string) ([]*models.Project, error) {
	query := `
		SELECT id, name, users, file_tree, created_at
		FROM projects
		WHERE $1 = ANY(users)
		ORDER BY name`

	rows, err := db.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project := &models.Project{}
		if err := rows.Scan(&project.ID, &project.Name, &project.Users, &project.FileTree, &project.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}

	return projects, nil
}

func (db *PostgresDB) AddProjectUsers(ctx context.Context, projectID string, userIDs []string) (*models.Project, error) {
	query := `
		UPDATE projects
		SET users = (
			SELECT ARRAY(SELECT DISTINCT unnest(users || $2::text[]))
		)
		WHERE id = $1
		RETURNING id, name, users, file_tree, created_at`

	project := &models.Project{}
	err := db.pool.QueryRow(ctx, query, projectID, userIDs).Scan(
		&project.ID, &project.Name, &project.Users, &project.FileTree, &project.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add users to project: %w", err)
	}

	return project, nil
}

func (db *PostgresDB) UpdateFileTree(ctx context.Context, projectID string, fileTree json.RawMessage) error {
	query := `UPDATE projects SET file_tree = $2 WHERE id = $1`

	tag, err := db.pool.Exec(ctx, query, projectID, fileTree)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project not found")
	}

	return nil
}
