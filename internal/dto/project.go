package dto

import (
	"time"

	"github.com/qa-tracker/qa-tracker/internal/models"
)

// AssignmentDTO represents an analyst assignment in API responses
type AssignmentDTO struct {
	Analyst    UserDTO   `json:"analyst"`
	AssignedAt time.Time `json:"assigned_at"`
}

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID             uint64          `json:"id"`
	GSFCode        string          `json:"gsf_code"`
	InvgateCode    string          `json:"invgate_code"`
	Name           string          `json:"name"`
	Priority       *string         `json:"priority"`
	EstimatedHours *int            `json:"estimated_hours"`
	StartDate      *string         `json:"start_date"`
	EndDate        *string         `json:"end_date"`
	Status         string          `json:"status"`
	Progress       int             `json:"progress"`
	TestCases      int             `json:"test_cases"`
	ExecutedCases  int             `json:"executed_cases"`
	Observation    string          `json:"observation"`
	CreatedByID    uint64          `json:"created_by_id"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Creator        *UserDTO        `json:"creator,omitempty"`
	Analysts       []AssignmentDTO `json:"analysts,omitempty"`
	Evidences      []EvidenceDTO   `json:"evidences,omitempty"`
}

// ProjectListItemDTO represents a project in list responses (minimal data)
type ProjectListItemDTO struct {
	ID          uint64    `json:"id"`
	GSFCode     string    `json:"gsf_code"`
	InvgateCode string    `json:"invgate_code"`
	Name        string    `json:"name"`
	Priority    *string   `json:"priority"`
	Status      string    `json:"status"`
	Progress    int       `json:"progress"`
	CreatedByID uint64    `json:"created_by_id"`
	Creator     *UserDTO  `json:"creator,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProjectListResponse represents a paginated list of projects
type ProjectListResponse struct {
	Projects   []ProjectListItemDTO `json:"projects"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalCount int64                `json:"total_count"`
	TotalPages int                  `json:"total_pages"`
}

// ChangeLogDTO represents one history entry in API responses
type ChangeLogDTO struct {
	ID           uint64    `json:"id"`
	ChangedField string    `json:"changed_field"`
	OldValue     string    `json:"old_value"`
	NewValue     string    `json:"new_value"`
	ChangedAt    time.Time `json:"changed_at"`
	User         *UserDTO  `json:"user,omitempty"`
}

// EvidenceDTO represents attached evidence metadata in API responses
type EvidenceDTO struct {
	ID         uint64    `json:"id"`
	Filename   string    `json:"filename"`
	FilePath   string    `json:"file_path"`
	FileSize   int64     `json:"file_size"`
	UploadedAt time.Time `json:"uploaded_at"`
	Uploader   *UserDTO  `json:"uploader,omitempty"`
}

// Conversion functions

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:             project.ID,
		GSFCode:        project.GSFCode,
		InvgateCode:    project.InvgateCode,
		Name:           project.Name,
		Priority:       project.Priority,
		EstimatedHours: project.EstimatedHours,
		StartDate:      formatDate(project.StartDate),
		EndDate:        formatDate(project.EndDate),
		Status:         project.Status,
		Progress:       project.Progress,
		TestCases:      project.TestCases,
		ExecutedCases:  project.ExecutedCases,
		Observation:    project.Observation,
		CreatedByID:    project.CreatedByID,
		CreatedAt:      project.CreatedAt,
		UpdatedAt:      project.UpdatedAt,
	}

	// Include creator if preloaded
	if project.Creator.ID != 0 {
		creator := ToUserDTO(project.Creator)
		dto.Creator = &creator
	}

	// Include assignments if preloaded
	if len(project.Analysts) > 0 {
		dto.Analysts = make([]AssignmentDTO, len(project.Analysts))
		for i, assignment := range project.Analysts {
			dto.Analysts[i] = AssignmentDTO{
				Analyst:    ToUserDTO(assignment.Analyst),
				AssignedAt: assignment.AssignedAt,
			}
		}
	}

	// Include evidences if preloaded
	if len(project.Evidences) > 0 {
		dto.Evidences = make([]EvidenceDTO, len(project.Evidences))
		for i, evidence := range project.Evidences {
			dto.Evidences[i] = ToEvidenceDTO(evidence)
		}
	}

	return dto
}

// ToProjectListItemDTO converts a Project model to ProjectListItemDTO
func ToProjectListItemDTO(project models.Project) ProjectListItemDTO {
	dto := ProjectListItemDTO{
		ID:          project.ID,
		GSFCode:     project.GSFCode,
		InvgateCode: project.InvgateCode,
		Name:        project.Name,
		Priority:    project.Priority,
		Status:      project.Status,
		Progress:    project.Progress,
		CreatedByID: project.CreatedByID,
		CreatedAt:   project.CreatedAt,
	}

	if project.Creator.ID != 0 {
		creator := ToUserDTO(project.Creator)
		dto.Creator = &creator
	}

	return dto
}

// ToProjectListResponse converts a slice of projects to ProjectListResponse
func ToProjectListResponse(projects []models.Project, page, pageSize int, totalCount int64) ProjectListResponse {
	items := make([]ProjectListItemDTO, len(projects))
	for i, project := range projects {
		items[i] = ToProjectListItemDTO(project)
	}

	totalPages := int(totalCount) / pageSize
	if int(totalCount)%pageSize > 0 {
		totalPages++
	}

	return ProjectListResponse{
		Projects:   items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}

// ToChangeLogDTO converts a ChangeLog model to ChangeLogDTO
func ToChangeLogDTO(log models.ChangeLog) ChangeLogDTO {
	dto := ChangeLogDTO{
		ID:           log.ID,
		ChangedField: log.ChangedField,
		OldValue:     log.OldValue,
		NewValue:     log.NewValue,
		ChangedAt:    log.ChangedAt,
	}

	if log.User.ID != 0 {
		user := ToUserDTO(log.User)
		dto.User = &user
	}

	return dto
}

// ToChangeLogDTOs converts a slice of change logs
func ToChangeLogDTOs(logs []models.ChangeLog) []ChangeLogDTO {
	items := make([]ChangeLogDTO, len(logs))
	for i, log := range logs {
		items[i] = ToChangeLogDTO(log)
	}
	return items
}

// ToEvidenceDTOs converts a slice of evidences
func ToEvidenceDTOs(evidences []models.Evidence) []EvidenceDTO {
	items := make([]EvidenceDTO, len(evidences))
	for i, evidence := range evidences {
		items[i] = ToEvidenceDTO(evidence)
	}
	return items
}

// ToEvidenceDTO converts an Evidence model to EvidenceDTO
func ToEvidenceDTO(evidence models.Evidence) EvidenceDTO {
	dto := EvidenceDTO{
		ID:         evidence.ID,
		Filename:   evidence.Filename,
		FilePath:   evidence.FilePath,
		FileSize:   evidence.FileSize,
		UploadedAt: evidence.UploadedAt,
	}

	if evidence.Uploader.ID != 0 {
		uploader := ToUserDTO(evidence.Uploader)
		dto.Uploader = &uploader
	}

	return dto
}
