package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/qa-tracker/qa-tracker/internal/constants"
	"github.com/qa-tracker/qa-tracker/internal/models"
	"github.com/qa-tracker/qa-tracker/internal/policy"
	"github.com/qa-tracker/qa-tracker/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound         = errors.New("project not found")
	ErrProjectAccessDenied     = errors.New("you do not have access to this project")
	ErrProjectPermissionDenied = errors.New("you do not have permission to modify this project")
	ErrProjectDeleteDenied     = errors.New("you do not have permission to delete this project")
	ErrFieldNotEditable        = errors.New("field is not editable for your role")
	ErrRequiredProjectFields   = errors.New("gsf_code, invgate_code and name are required")
	ErrProgressOutOfRange      = errors.New("progress must be between 0 and 100")
	ErrNegativeCases           = errors.New("case counts cannot be negative")
	ErrExecutedExceedsTests    = errors.New("executed cases cannot exceed test cases")
	ErrInvalidAnalysts         = errors.New("one or more assignees are not active analysts")
)

// changeLogCreatedField marks the creation entry in a project's history.
const changeLogCreatedField = "PROYECTO CREADO"

// FieldChange is one entry of the diff produced by an update.
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// ProjectService owns the project lifecycle: authorization via the
// role policies, catalog-validated mutation, and the per-field audit
// trail written in the same transaction as the mutation.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	catalogs    *CatalogService
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository, catalogs *CatalogService) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		catalogs:    catalogs,
	}
}

// CreateProjectInput represents input for creating a project.
type CreateProjectInput struct {
	GSFCode        string
	InvgateCode    string
	Name           string
	Priority       *string
	EstimatedHours *int
	StartDate      *time.Time
	EndDate        *time.Time
	Status         string
	Progress       int
	TestCases      int
	ExecutedCases  int
	Observation    string
	AnalystIDs     []uint64
}

// Create creates a project owned by the acting supervisor (or admin),
// assigns the requested analysts, and records the creation log entry.
func (s *ProjectService) Create(actor *models.User, input CreateProjectInput) (*models.Project, error) {
	if !policy.For(actor.Role).CanCreate() {
		return nil, ErrProjectPermissionDenied
	}

	if strings.TrimSpace(input.GSFCode) == "" ||
		strings.TrimSpace(input.InvgateCode) == "" ||
		strings.TrimSpace(input.Name) == "" {
		return nil, ErrRequiredProjectFields
	}

	status := input.Status
	if status == "" {
		status = constants.DefaultStatus
	}

	project := &models.Project{
		GSFCode:        input.GSFCode,
		InvgateCode:    input.InvgateCode,
		Name:           input.Name,
		Priority:       input.Priority,
		EstimatedHours: input.EstimatedHours,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		Status:         status,
		Progress:       input.Progress,
		TestCases:      input.TestCases,
		ExecutedCases:  input.ExecutedCases,
		Observation:    input.Observation,
		CreatedByID:    actor.ID,
	}

	if err := s.validateProject(project); err != nil {
		return nil, err
	}

	analystIDs := uniqueUint64(input.AnalystIDs)
	if err := s.ensureEligibleAnalysts(analystIDs); err != nil {
		return nil, err
	}

	creationLog := &models.ChangeLog{
		UserID:       actor.ID,
		ChangedField: changeLogCreatedField,
		OldValue:     "",
		NewValue:     project.Name,
	}

	if err := s.projectRepo.Create(project, analystIDs, creationLog); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return s.projectRepo.FindByID(project.ID, "Creator", "Analysts", "Analysts.Analyst")
}

// List returns the projects visible to the actor: all for admins, own
// for supervisors, assigned for analysts.
func (s *ProjectService) List(actor *models.User, page, pageSize int) ([]models.Project, int64, error) {
	filter := repository.ProjectFilter{
		Page:     page,
		PageSize: pageSize,
	}

	switch actor.Role {
	case policy.RoleAdmin:
		// no filter
	case policy.RoleSupervisor:
		filter.CreatedByID = &actor.ID
	case policy.RoleAnalyst:
		filter.AnalystID = &actor.ID
	default:
		return []models.Project{}, 0, nil
	}

	projects, total, err := s.projectRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, total, nil
}

// Get returns a project with its relations and change history,
// enforcing view access.
func (s *ProjectService) Get(actor *models.User, projectID uint64) (*models.Project, []models.ChangeLog, error) {
	project, err := s.findProject(projectID, "Creator", "Analysts", "Analysts.Analyst", "Evidences")
	if err != nil {
		return nil, nil, err
	}

	if !policy.For(actor.Role).CanView(actor.ID, factsOf(project)) {
		return nil, nil, ErrProjectAccessDenied
	}

	logs, err := s.projectRepo.ListLogs(projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load change history: %w", err)
	}

	return project, logs, nil
}

// History returns the change log for a project the actor may view.
func (s *ProjectService) History(actor *models.User, projectID uint64) ([]models.ChangeLog, error) {
	_, logs, err := s.Get(actor, projectID)
	return logs, err
}

// UpdateProjectInput represents a full edit. Pointer fields are only
// applied when provided; Clear* flags null out the nullable fields.
type UpdateProjectInput struct {
	GSFCode        *string
	InvgateCode    *string
	Name           *string
	Priority       *string
	ClearPriority  bool
	EstimatedHours *int
	ClearEstimated bool
	StartDate      *time.Time
	ClearStartDate bool
	EndDate        *time.Time
	ClearEndDate   bool
	Status         *string
	Progress       *int
	TestCases      *int
	ExecutedCases  *int
	Observation    *string
	AnalystIDs     []uint64
	SetAnalysts    bool
}

// UpdateProgressInput is the restricted field set used by assigned
// analysts (and owners) for progress updates.
type UpdateProgressInput struct {
	Progress      *int
	Status        *string
	TestCases     *int
	ExecutedCases *int
	Observation   *string
}

// UpdateProgress applies a progress-only edit by delegating to Update
// with the restricted field set.
func (s *ProjectService) UpdateProgress(actor *models.User, projectID uint64, input UpdateProgressInput) (*models.Project, []FieldChange, error) {
	return s.Update(actor, projectID, UpdateProjectInput{
		Progress:      input.Progress,
		Status:        input.Status,
		TestCases:     input.TestCases,
		ExecutedCases: input.ExecutedCases,
		Observation:   input.Observation,
	})
}

// Update applies a field-level edit. Only fields the actor's role may
// touch are accepted; every validation runs before anything is
// persisted, and one change log row is written per changed field in
// the same transaction as the mutation.
func (s *ProjectService) Update(actor *models.User, projectID uint64, input UpdateProjectInput) (*models.Project, []FieldChange, error) {
	project, err := s.findProject(projectID, "Analysts")
	if err != nil {
		return nil, nil, err
	}

	pol := policy.For(actor.Role)
	if !pol.CanEdit(actor.ID, factsOf(project)) {
		return nil, nil, ErrProjectPermissionDenied
	}
	allowed := pol.EditableFields()

	updated := *project
	var changes []FieldChange

	record := func(field, oldValue, newValue string) {
		if oldValue != newValue {
			changes = append(changes, FieldChange{Field: field, Old: oldValue, New: newValue})
		}
	}
	touch := func(field string) error {
		if !allowed.Allows(field) {
			return fmt.Errorf("%w: %s", ErrFieldNotEditable, field)
		}
		return nil
	}

	if input.GSFCode != nil {
		if err := touch(policy.FieldGSFCode); err != nil {
			return nil, nil, err
		}
		record(policy.FieldGSFCode, updated.GSFCode, *input.GSFCode)
		updated.GSFCode = *input.GSFCode
	}
	if input.InvgateCode != nil {
		if err := touch(policy.FieldInvgateCode); err != nil {
			return nil, nil, err
		}
		record(policy.FieldInvgateCode, updated.InvgateCode, *input.InvgateCode)
		updated.InvgateCode = *input.InvgateCode
	}
	if input.Name != nil {
		if err := touch(policy.FieldName); err != nil {
			return nil, nil, err
		}
		if strings.TrimSpace(*input.Name) == "" {
			return nil, nil, ErrRequiredProjectFields
		}
		record(policy.FieldName, updated.Name, *input.Name)
		updated.Name = *input.Name
	}
	if input.Priority != nil || input.ClearPriority {
		if err := touch(policy.FieldPriority); err != nil {
			return nil, nil, err
		}
		record(policy.FieldPriority, stringOrEmpty(updated.Priority), stringOrEmpty(input.Priority))
		if input.ClearPriority {
			updated.Priority = nil
		} else {
			updated.Priority = input.Priority
		}
	}
	if input.EstimatedHours != nil || input.ClearEstimated {
		if err := touch(policy.FieldEstimatedHours); err != nil {
			return nil, nil, err
		}
		record(policy.FieldEstimatedHours, intPtrString(updated.EstimatedHours), intPtrString(input.EstimatedHours))
		if input.ClearEstimated {
			updated.EstimatedHours = nil
		} else {
			updated.EstimatedHours = input.EstimatedHours
		}
	}
	if input.StartDate != nil || input.ClearStartDate {
		if err := touch(policy.FieldStartDate); err != nil {
			return nil, nil, err
		}
		record(policy.FieldStartDate, dateString(updated.StartDate), dateString(input.StartDate))
		if input.ClearStartDate {
			updated.StartDate = nil
		} else {
			updated.StartDate = input.StartDate
		}
	}
	if input.EndDate != nil || input.ClearEndDate {
		if err := touch(policy.FieldEndDate); err != nil {
			return nil, nil, err
		}
		record(policy.FieldEndDate, dateString(updated.EndDate), dateString(input.EndDate))
		if input.ClearEndDate {
			updated.EndDate = nil
		} else {
			updated.EndDate = input.EndDate
		}
	}
	if input.Status != nil {
		if err := touch(policy.FieldStatus); err != nil {
			return nil, nil, err
		}
		record(policy.FieldStatus, updated.Status, *input.Status)
		updated.Status = *input.Status
	}
	if input.Progress != nil {
		if err := touch(policy.FieldProgress); err != nil {
			return nil, nil, err
		}
		record(policy.FieldProgress, strconv.Itoa(updated.Progress), strconv.Itoa(*input.Progress))
		updated.Progress = *input.Progress
	}
	if input.TestCases != nil {
		if err := touch(policy.FieldTestCases); err != nil {
			return nil, nil, err
		}
		record(policy.FieldTestCases, strconv.Itoa(updated.TestCases), strconv.Itoa(*input.TestCases))
		updated.TestCases = *input.TestCases
	}
	if input.ExecutedCases != nil {
		if err := touch(policy.FieldExecutedCases); err != nil {
			return nil, nil, err
		}
		record(policy.FieldExecutedCases, strconv.Itoa(updated.ExecutedCases), strconv.Itoa(*input.ExecutedCases))
		updated.ExecutedCases = *input.ExecutedCases
	}
	if input.Observation != nil {
		if err := touch(policy.FieldObservation); err != nil {
			return nil, nil, err
		}
		record(policy.FieldObservation, updated.Observation, *input.Observation)
		updated.Observation = *input.Observation
	}

	// Every check runs against the staged copy before anything is
	// written; a failure here leaves the stored project untouched.
	if err := s.validateUpdate(project, &updated); err != nil {
		return nil, nil, err
	}

	analystIDs := uniqueUint64(input.AnalystIDs)
	if input.SetAnalysts {
		if allowed != nil {
			return nil, nil, fmt.Errorf("%w: analysts", ErrFieldNotEditable)
		}
		if err := s.ensureEligibleAnalysts(analystIDs); err != nil {
			return nil, nil, err
		}
	}

	logs := make([]models.ChangeLog, 0, len(changes))
	for _, change := range changes {
		logs = append(logs, models.ChangeLog{
			UserID:       actor.ID,
			ChangedField: change.Field,
			OldValue:     change.Old,
			NewValue:     change.New,
		})
	}

	updated.Analysts = nil
	if err := s.projectRepo.UpdateWithLogs(&updated, analystIDs, input.SetAnalysts, logs); err != nil {
		return nil, nil, fmt.Errorf("failed to update project: %w", err)
	}

	result, err := s.projectRepo.FindByID(updated.ID, "Creator", "Analysts", "Analysts.Analyst")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reload project: %w", err)
	}

	return result, changes, nil
}

// Delete removes a project and everything attached to it.
func (s *ProjectService) Delete(actor *models.User, projectID uint64) error {
	project, err := s.findProject(projectID, "Analysts")
	if err != nil {
		return err
	}

	if !policy.For(actor.Role).CanDelete(actor.ID, factsOf(project)) {
		return ErrProjectDeleteDenied
	}

	if err := s.projectRepo.Delete(projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}

// EvidenceInput carries uploaded-file metadata; the file itself is
// handled outside this service.
type EvidenceInput struct {
	Filename string
	FilePath string
	FileSize int64
}

// AddEvidence attaches an evidence record to a project the actor can view.
func (s *ProjectService) AddEvidence(actor *models.User, projectID uint64, input EvidenceInput) (*models.Evidence, error) {
	project, err := s.findProject(projectID, "Analysts")
	if err != nil {
		return nil, err
	}

	if !policy.For(actor.Role).CanView(actor.ID, factsOf(project)) {
		return nil, ErrProjectAccessDenied
	}

	if strings.TrimSpace(input.Filename) == "" || strings.TrimSpace(input.FilePath) == "" {
		return nil, fmt.Errorf("filename and file_path are required")
	}

	evidence := &models.Evidence{
		Filename:     input.Filename,
		FilePath:     input.FilePath,
		FileSize:     input.FileSize,
		ProjectID:    project.ID,
		UploadedByID: actor.ID,
	}

	if err := s.projectRepo.AddEvidence(evidence); err != nil {
		return nil, fmt.Errorf("failed to add evidence: %w", err)
	}

	return evidence, nil
}

// ListEvidence returns a project's evidence records for an actor with
// view access.
func (s *ProjectService) ListEvidence(actor *models.User, projectID uint64) ([]models.Evidence, error) {
	project, err := s.findProject(projectID, "Analysts")
	if err != nil {
		return nil, err
	}

	if !policy.For(actor.Role).CanView(actor.ID, factsOf(project)) {
		return nil, ErrProjectAccessDenied
	}

	evidences, err := s.projectRepo.ListEvidence(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evidence: %w", err)
	}

	return evidences, nil
}

// validateProject checks the full invariant set on a project about to
// be written.
func (s *ProjectService) validateProject(p *models.Project) error {
	if p.Progress < constants.MinProgress || p.Progress > constants.MaxProgress {
		return ErrProgressOutOfRange
	}
	if p.TestCases < 0 || p.ExecutedCases < 0 {
		return ErrNegativeCases
	}
	if p.ExecutedCases > p.TestCases {
		return ErrExecutedExceedsTests
	}
	if err := s.catalogs.ValidateStatus(p.Status); err != nil {
		return err
	}
	return s.catalogs.ValidatePriority(p.Priority)
}

// validateUpdate checks invariants on the staged copy. Catalog checks
// only run for values that actually changed: deactivating a catalog
// entry never retroactively invalidates projects holding it.
func (s *ProjectService) validateUpdate(current, staged *models.Project) error {
	if staged.Progress < constants.MinProgress || staged.Progress > constants.MaxProgress {
		return ErrProgressOutOfRange
	}
	if staged.TestCases < 0 || staged.ExecutedCases < 0 {
		return ErrNegativeCases
	}
	if staged.ExecutedCases > staged.TestCases {
		return ErrExecutedExceedsTests
	}
	if staged.Status != current.Status {
		if err := s.catalogs.ValidateStatus(staged.Status); err != nil {
			return err
		}
	}
	if stringOrEmpty(staged.Priority) != stringOrEmpty(current.Priority) {
		if err := s.catalogs.ValidatePriority(staged.Priority); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProjectService) ensureEligibleAnalysts(ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	count, err := s.projectRepo.CountEligibleAnalysts(ids)
	if err != nil {
		return fmt.Errorf("failed to verify analysts: %w", err)
	}
	if int(count) != len(ids) {
		return ErrInvalidAnalysts
	}
	return nil
}

func (s *ProjectService) findProject(projectID uint64, preload ...string) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

// factsOf extracts the policy-relevant facts from a project loaded
// with its Analysts relation.
func factsOf(p *models.Project) policy.ProjectFacts {
	analystIDs := make([]uint64, 0, len(p.Analysts))
	for _, assignment := range p.Analysts {
		analystIDs = append(analystIDs, assignment.AnalystID)
	}
	return policy.ProjectFacts{
		OwnerID:    p.CreatedByID,
		AnalystIDs: analystIDs,
	}
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func intPtrString(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func dateString(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format("2006-01-02")
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
