package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/inkboard/inkboard/backend-go/internal/board"
	"github.com/inkboard/inkboard/backend-go/internal/store"
	"github.com/inkboard/inkboard/backend-go/internal/typeid"
)

var (
	ErrNotFound        = errors.New("project not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidDocument = errors.New("invalid board document")
)

// Store is the slice of the storage layer the project service needs.
type Store interface {
	CreateProject(ctx context.Context, arg store.CreateProjectParams) (store.Project, error)
	GetProject(ctx context.Context, id string) (store.Project, error)
	ListProjectsForUser(ctx context.Context, ownerID string) ([]store.Project, error)
	RenameProject(ctx context.Context, arg store.RenameProjectParams) (store.Project, error)
	DeleteProject(ctx context.Context, id string) error
	CreateSnapshot(ctx context.Context, arg store.CreateSnapshotParams) (store.Snapshot, error)
	GetLatestSnapshot(ctx context.Context, projectID string) (store.Snapshot, error)
}

type Service struct {
	store Store
}

func NewService(s Store) *Service {
	return &Service{store: s}
}

type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func (s *Service) Create(ctx context.Context, name, ownerID string) (*Project, error) {
	projectID := typeid.NewProjectID()

	dbProj, err := s.store.CreateProject(ctx, store.CreateProjectParams{
		ID:      projectID,
		Name:    name,
		OwnerID: ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	// Seed an empty board so the first snapshot load always succeeds.
	docJSON, err := json.Marshal(board.NewEmptyProject(projectID, name))
	if err != nil {
		return nil, fmt.Errorf("marshal empty board: %w", err)
	}

	_, err = s.store.CreateSnapshot(ctx, store.CreateSnapshotParams{
		ID:        typeid.NewSnapshotID(),
		ProjectID: projectID,
		Version:   1,
		Document:  docJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return dbProjectToProject(dbProj), nil
}

func (s *Service) Get(ctx context.Context, projectID, userID string) (*Project, error) {
	dbProj, err := s.getOwned(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	return dbProjectToProject(dbProj), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Project, error) {
	dbProjects, err := s.store.ListProjectsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects := make([]Project, len(dbProjects))
	for i, p := range dbProjects {
		projects[i] = *dbProjectToProject(p)
	}

	return projects, nil
}

func (s *Service) Rename(ctx context.Context, projectID, userID, name string) (*Project, error) {
	if _, err := s.getOwned(ctx, projectID, userID); err != nil {
		return nil, err
	}

	dbProj, err := s.store.RenameProject(ctx, store.RenameProjectParams{ID: projectID, Name: name})
	if err != nil {
		return nil, fmt.Errorf("rename project: %w", err)
	}
	return dbProjectToProject(dbProj), nil
}

func (s *Service) Delete(ctx context.Context, projectID, userID string) error {
	if _, err := s.getOwned(ctx, projectID, userID); err != nil {
		return err
	}
	return s.store.DeleteProject(ctx, projectID)
}

// GetLatestSnapshot returns the most recent persisted board document.
func (s *Service) GetLatestSnapshot(ctx context.Context, projectID, userID string) (json.RawMessage, error) {
	if _, err := s.getOwned(ctx, projectID, userID); err != nil {
		return nil, err
	}

	snap, err := s.store.GetLatestSnapshot(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	return snap.Document, nil
}

// SaveSnapshot persists a new board version. The document must be a valid
// serialized board; anything else is rejected before it reaches storage.
func (s *Service) SaveSnapshot(ctx context.Context, projectID, userID string, doc json.RawMessage) error {
	if _, err := s.getOwned(ctx, projectID, userID); err != nil {
		return err
	}

	var parsed board.Project
	if err := json.Unmarshal(doc, &parsed); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	nextVersion := int32(1)
	if snap, err := s.store.GetLatestSnapshot(ctx, projectID); err == nil {
		nextVersion = snap.Version + 1
	}

	_, err := s.store.CreateSnapshot(ctx, store.CreateSnapshotParams{
		ID:        typeid.NewSnapshotID(),
		ProjectID: projectID,
		Version:   nextVersion,
		Document:  doc,
	})
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	return nil
}

func (s *Service) getOwned(ctx context.Context, projectID, userID string) (store.Project, error) {
	dbProj, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNoRows) {
			return store.Project{}, ErrNotFound
		}
		return store.Project{}, fmt.Errorf("get project: %w", err)
	}
	if dbProj.OwnerID != userID {
		return store.Project{}, ErrForbidden
	}
	return dbProj, nil
}

func dbProjectToProject(p store.Project) *Project {
	return &Project{
		ID:        p.ID,
		Name:      p.Name,
		OwnerID:   p.OwnerID,
		CreatedAt: p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt: p.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
