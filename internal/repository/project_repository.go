package repository

import (
	"github.com/qa-tracker/qa-tracker/internal/database"
	"github.com/qa-tracker/qa-tracker/internal/models"
	"github.com/qa-tracker/qa-tracker/internal/policy"
	"github.com/qa-tracker/qa-tracker/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a project, its analyst assignments, and the creation
// log entry in a single transaction
func (r *GormProjectRepository) Create(project *models.Project, analystIDs []uint64, creationLog *models.ChangeLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(project).Error; err != nil {
			return err
		}

		for _, analystID := range analystIDs {
			assignment := models.ProjectAnalyst{
				ProjectID: project.ID,
				AnalystID: analystID,
			}
			if err := tx.Create(&assignment).Error; err != nil {
				return err
			}
		}

		if creationLog != nil {
			creationLog.ProjectID = project.ID
			if err := tx.Create(creationLog).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// FindByID finds a project by ID with optional preloading
func (r *GormProjectRepository) FindByID(id uint64, preload ...string) (*models.Project, error) {
	var project models.Project
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&project, id).Error; err != nil {
		return nil, err
	}

	return &project, nil
}

// List retrieves projects with filtering and pagination
func (r *GormProjectRepository) List(filter ProjectFilter) ([]models.Project, int64, error) {
	var projects []models.Project

	query := r.db.Model(&models.Project{})

	if filter.CreatedByID != nil {
		query = query.Where("projects.created_by_id = ?", *filter.CreatedByID)
	}
	if filter.AnalystID != nil {
		assignmentSubQuery := r.db.Model(&models.ProjectAnalyst{}).
			Select("1").
			Where("project_analysts.project_id = projects.id").
			Where("project_analysts.analyst_id = ?", *filter.AnalystID)
		query = query.Where("EXISTS (?)", assignmentSubQuery)
	}
	if filter.Status != nil {
		query = query.Where("projects.status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("projects.created_at DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{
			Page:   filter.Page,
			Limit:  filter.PageSize,
			Offset: (filter.Page - 1) * filter.PageSize,
		}))
	}

	if err := listQuery.Preload("Creator").Preload("Analysts").Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// UpdateWithLogs persists a mutated project and its change log rows
// atomically. The project row and its audit trail either both commit
// or neither does.
func (r *GormProjectRepository) UpdateWithLogs(project *models.Project, analystIDs []uint64, replaceAnalysts bool, logs []models.ChangeLog) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(project).Error; err != nil {
			return err
		}

		if replaceAnalysts {
			if err := tx.Where("project_id = ?", project.ID).Delete(&models.ProjectAnalyst{}).Error; err != nil {
				return err
			}
			for _, analystID := range analystIDs {
				assignment := models.ProjectAnalyst{
					ProjectID: project.ID,
					AnalystID: analystID,
				}
				if err := tx.Create(&assignment).Error; err != nil {
					return err
				}
			}
		}

		for i := range logs {
			logs[i].ProjectID = project.ID
			if err := tx.Create(&logs[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// Delete removes a project and cascades to its assignments, evidences, and logs
func (r *GormProjectRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectAnalyst{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.Evidence{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ChangeLog{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, id).Error
	})
}

// ListLogs returns a project's change history, newest first
func (r *GormProjectRepository) ListLogs(projectID uint64) ([]models.ChangeLog, error) {
	var logs []models.ChangeLog
	if err := r.db.Preload("User").
		Where("project_id = ?", projectID).
		Order("changed_at DESC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// CountEligibleAnalysts counts how many of the given IDs are active
// users with the Analyst role
func (r *GormProjectRepository) CountEligibleAnalysts(ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.User{}).
		Where("id IN ? AND role = ? AND active = ?", ids, policy.RoleAnalyst, true).
		Count(&count).Error
	return count, err
}

// AddEvidence attaches an evidence record to a project
func (r *GormProjectRepository) AddEvidence(evidence *models.Evidence) error {
	return r.db.Create(evidence).Error
}

// ListEvidence returns a project's evidence records
func (r *GormProjectRepository) ListEvidence(projectID uint64) ([]models.Evidence, error) {
	var evidences []models.Evidence
	if err := r.db.Preload("Uploader").
		Where("project_id = ?", projectID).
		Order("uploaded_at DESC").
		Find(&evidences).Error; err != nil {
		return nil, err
	}
	return evidences, nil
}

// Count returns the total number of projects
func (r *GormProjectRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Project{}).Count(&count).Error
	return count, err
}
