package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qa-tracker/qa-tracker/internal/dto"
	apierrors "github.com/qa-tracker/qa-tracker/internal/errors"
	"github.com/qa-tracker/qa-tracker/internal/middleware"
	"github.com/qa-tracker/qa-tracker/internal/services"
	"github.com/qa-tracker/qa-tracker/internal/utils"
)

// ProjectHandler coordinates project-related HTTP handlers.
type ProjectHandler struct {
	projectService *services.ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

const dateLayout = "2006-01-02"

// List returns the projects visible to the current user.
func (h *ProjectHandler) List(c *gin.Context) {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	params := utils.GetPaginationParams(c)

	projects, total, err := h.projectService.List(&user, params.Page, params.Limit)
	if err != nil {
		apierrors.InternalError(c, "Failed to list projects")
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectListResponse(projects, params.Page, params.Limit, total))
}

// Create creates a new project.
func (h *ProjectHandler) Create(c *gin.Context) {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateProjectRequest struct {
		GSFCode        string   `json:"gsf_code" binding:"required"`
		InvgateCode    string   `json:"invgate_code" binding:"required"`
		Name           string   `json:"name" binding:"required"`
		Priority       *string  `json:"priority"`
		EstimatedHours *int     `json:"estimated_hours"`
		StartDate      *string  `json:"start_date"`
		EndDate        *string  `json:"end_date"`
		Status         string   `json:"status"`
		Progress       int      `json:"progress"`
		TestCases      int      `json:"test_cases"`
		ExecutedCases  int      `json:"executed_cases"`
		Observation    string   `json:"observation"`
		AnalystIDs     []uint64 `json:"analyst_ids"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		apierrors.BadRequest(c, "Invalid start_date, expected YYYY-MM-DD")
		return
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		apierrors.BadRequest(c, "Invalid end_date, expected YYYY-MM-DD")
		return
	}

	project, err := h.projectService.Create(&user, services.CreateProjectInput{
		GSFCode:        req.GSFCode,
		InvgateCode:    req.InvgateCode,
		Name:           req.Name,
		Priority:       req.Priority,
		EstimatedHours: req.EstimatedHours,
		StartDate:      startDate,
		EndDate:        endDate,
		Status:         req.Status,
		Progress:       req.Progress,
		TestCases:      req.TestCases,
		ExecutedCases:  req.ExecutedCases,
		Observation:    req.Observation,
		AnalystIDs:     req.AnalystIDs,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// Get returns a project with its relations and change history.
func (h *ProjectHandler) Get(c *gin.Context) {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}

	logs, err := h.projectService.History(&user, projectID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	// RequireProjectView already loaded the project with relations.
	if project, ok := middleware.GetContextProject(c); ok {
		c.JSON(http.StatusOK, gin.H{
			"project": dto.ToProjectDTO(project),
			"logs":    dto.ToChangeLogDTOs(logs),
		})
		return
	}

	project, _, err := h.projectService.Get(&user, projectID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project": dto.ToProjectDTO(*project),
		"logs":    dto.ToChangeLogDTOs(logs),
	})
}

// Update applies a field-level edit. Nullable fields are cleared by
// sending an explicit JSON null; absent keys are left untouched.
func (h *ProjectHandler) Update(c *gin.Context) {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}

	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input, ok := buildUpdateInput(c, raw)
	if !ok {
		return
	}

	project, changes, err := h.projectService.Update(&user, projectID, input)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project":        dto.ToProjectDTO(*project),
		"changed_fields": changedFieldNames(changes),
	})
}

// UpdateProgress applies the restricted progress edit used by analysts.
func (h *ProjectHandler) UpdateProgress(c *gin.Context) {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}

	type ProgressRequest struct {
		Progress      *int    `json:"progress"`
		Status        *string `json:"status"`
		TestCases     *int    `json:"test_cases"`
		ExecutedCases *int    `json:"executed_cases"`
		Observation   *string `json:"observation"`
	}

	var req ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, changes, err := h.projectService.UpdateProgress(&user, projectID, services.UpdateProgressInput{
		Progress:      req.Progress,
		Status:        req.Status,
		TestCases:     req.TestCases,
		ExecutedCases: req.ExecutedCases,
		Observation:   req.Observation,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project":        dto.ToProjectDTO(*project),
		"changed_fields": changedFieldNames(changes),
	})
}

// Delete removes a project.
func (h *ProjectHandler) Delete(c *gin.Context) {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}

	if err := h.projectService.Delete(&user, projectID); err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Project deleted",
	})
}

// ListHistory returns a project's change history.
func (h *ProjectHandler) ListHistory(c *gin.Context) {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}

	logs, err := h.projectService.History(&user, projectID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs": dto.ToChangeLogDTOs(logs),
	})
}

// AddEvidence attaches evidence metadata to a project.
func (h *ProjectHandler) AddEvidence(c *gin.Context) {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}

	type EvidenceRequest struct {
		Filename string `json:"filename" binding:"required"`
		FilePath string `json:"file_path" binding:"required"`
		FileSize int64  `json:"file_size"`
	}

	var req EvidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	evidence, err := h.projectService.AddEvidence(&user, projectID, services.EvidenceInput{
		Filename: req.Filename,
		FilePath: req.FilePath,
		FileSize: req.FileSize,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToEvidenceDTO(*evidence))
}

// ListEvidence returns a project's evidence records.
func (h *ProjectHandler) ListEvidence(c *gin.Context) {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}

	evidences, err := h.projectService.ListEvidence(&user, projectID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"evidences": dto.ToEvidenceDTOs(evidences),
	})
}

// buildUpdateInput translates a raw JSON object into an update input,
// distinguishing absent keys from explicit nulls.
func buildUpdateInput(c *gin.Context, raw map[string]json.RawMessage) (services.UpdateProjectInput, bool) {
	var input services.UpdateProjectInput

	fail := func(field string) (services.UpdateProjectInput, bool) {
		apierrors.BadRequest(c, "Invalid value for "+field)
		return services.UpdateProjectInput{}, false
	}

	if msg, present := raw["gsf_code"]; present {
		if err := json.Unmarshal(msg, &input.GSFCode); err != nil || input.GSFCode == nil {
			return fail("gsf_code")
		}
	}
	if msg, present := raw["invgate_code"]; present {
		if err := json.Unmarshal(msg, &input.InvgateCode); err != nil || input.InvgateCode == nil {
			return fail("invgate_code")
		}
	}
	if msg, present := raw["name"]; present {
		if err := json.Unmarshal(msg, &input.Name); err != nil || input.Name == nil {
			return fail("name")
		}
	}
	if msg, present := raw["priority"]; present {
		if err := json.Unmarshal(msg, &input.Priority); err != nil {
			return fail("priority")
		}
		input.ClearPriority = input.Priority == nil
	}
	if msg, present := raw["estimated_hours"]; present {
		if err := json.Unmarshal(msg, &input.EstimatedHours); err != nil {
			return fail("estimated_hours")
		}
		input.ClearEstimated = input.EstimatedHours == nil
	}
	if msg, present := raw["start_date"]; present {
		var value *string
		if err := json.Unmarshal(msg, &value); err != nil {
			return fail("start_date")
		}
		parsed, err := parseDate(value)
		if err != nil {
			return fail("start_date")
		}
		input.StartDate = parsed
		input.ClearStartDate = parsed == nil
	}
	if msg, present := raw["end_date"]; present {
		var value *string
		if err := json.Unmarshal(msg, &value); err != nil {
			return fail("end_date")
		}
		parsed, err := parseDate(value)
		if err != nil {
			return fail("end_date")
		}
		input.EndDate = parsed
		input.ClearEndDate = parsed == nil
	}
	if msg, present := raw["status"]; present {
		if err := json.Unmarshal(msg, &input.Status); err != nil || input.Status == nil {
			return fail("status")
		}
	}
	if msg, present := raw["progress"]; present {
		if err := json.Unmarshal(msg, &input.Progress); err != nil || input.Progress == nil {
			return fail("progress")
		}
	}
	if msg, present := raw["test_cases"]; present {
		if err := json.Unmarshal(msg, &input.TestCases); err != nil || input.TestCases == nil {
			return fail("test_cases")
		}
	}
	if msg, present := raw["executed_cases"]; present {
		if err := json.Unmarshal(msg, &input.ExecutedCases); err != nil || input.ExecutedCases == nil {
			return fail("executed_cases")
		}
	}
	if msg, present := raw["observation"]; present {
		if err := json.Unmarshal(msg, &input.Observation); err != nil || input.Observation == nil {
			return fail("observation")
		}
	}
	if msg, present := raw["analyst_ids"]; present {
		if err := json.Unmarshal(msg, &input.AnalystIDs); err != nil {
			return fail("analyst_ids")
		}
		input.SetAnalysts = true
	}

	return input, true
}

func changedFieldNames(changes []services.FieldChange) []string {
	names := make([]string, len(changes))
	for i, change := range changes {
		names[i] = change.Field
	}
	return names
}

func parseDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, *value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseProjectID(c *gin.Context) (uint64, bool) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid project ID")
		return 0, false
	}
	return projectID, true
}

func respondProjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrProjectAccessDenied):
		// Same body as a missing project so existence is not leaked
		apierrors.NotFound(c, "Project not found")
	case errors.Is(err, services.ErrProjectPermissionDenied),
		errors.Is(err, services.ErrProjectDeleteDenied),
		errors.Is(err, services.ErrFieldNotEditable):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrRequiredProjectFields),
		errors.Is(err, services.ErrInvalidAnalysts):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrProgressOutOfRange),
		errors.Is(err, services.ErrNegativeCases),
		errors.Is(err, services.ErrExecutedExceedsTests),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPriority):
		apierrors.ValidationFailed(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
