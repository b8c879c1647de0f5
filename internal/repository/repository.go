package repository

import (
	"github.com/qa-tracker/qa-tracker/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// List returns all users, newest first
	List() ([]models.User, error)

	// ListPending returns users awaiting admin approval
	ListPending() ([]models.User, error)

	// Save persists changes to a user
	Save(user *models.User) error

	// Delete removes a user
	Delete(id uint64) error

	// Count returns the total number of users
	Count() (int64, error)

	// CountByActive counts users filtered by activation state
	CountByActive(active bool) (int64, error)
}

// ProjectFilter holds filtering options for listing projects
type ProjectFilter struct {
	CreatedByID *uint64
	AnalystID   *uint64
	Status      *string
	Page        int
	PageSize    int
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a project, its analyst assignments, and the
	// creation log entry in a single transaction
	Create(project *models.Project, analystIDs []uint64, creationLog *models.ChangeLog) error

	// FindByID finds a project by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Project, error)

	// List retrieves projects with filtering and pagination
	List(filter ProjectFilter) ([]models.Project, int64, error)

	// UpdateWithLogs persists a mutated project and its change log rows
	// atomically. When replaceAnalysts is true the assignment set is
	// replaced with analystIDs in the same transaction.
	UpdateWithLogs(project *models.Project, analystIDs []uint64, replaceAnalysts bool, logs []models.ChangeLog) error

	// Delete removes a project and cascades to its assignments,
	// evidences, and logs
	Delete(id uint64) error

	// ListLogs returns a project's change history, newest first
	ListLogs(projectID uint64) ([]models.ChangeLog, error)

	// CountEligibleAnalysts counts how many of the given IDs are
	// active users with the Analyst role
	CountEligibleAnalysts(ids []uint64) (int64, error)

	// AddEvidence attaches an evidence record to a project
	AddEvidence(evidence *models.Evidence) error

	// ListEvidence returns a project's evidence records
	ListEvidence(projectID uint64) ([]models.Evidence, error)

	// Count returns the total number of projects
	Count() (int64, error)
}

// CatalogRepository defines the interface for catalog data access
type CatalogRepository interface {
	// List returns catalog entries for a category
	List(name string, activeOnly bool) ([]models.Catalog, error)

	// FindByID finds a catalog entry by ID
	FindByID(id uint64) (*models.Catalog, error)

	// FindByNameValue finds a catalog entry by category and value
	FindByNameValue(name, value string) (*models.Catalog, error)

	// Create creates a catalog entry
	Create(entry *models.Catalog) error

	// Save persists changes to a catalog entry
	Save(entry *models.Catalog) error

	// DeleteIfUnreferenced removes a catalog entry unless a project
	// still holds its value; the reference check and the delete run in
	// one transaction. Returns ErrCatalogInUse when blocked.
	DeleteIfUnreferenced(entry *models.Catalog) error

	// ExistsActive reports whether an active entry with the given
	// category and value exists
	ExistsActive(name, value string) (bool, error)
}
