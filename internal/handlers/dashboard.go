package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qa-tracker/qa-tracker/internal/constants"
	"github.com/qa-tracker/qa-tracker/internal/dto"
	apierrors "github.com/qa-tracker/qa-tracker/internal/errors"
	"github.com/qa-tracker/qa-tracker/internal/middleware"
	"github.com/qa-tracker/qa-tracker/internal/models"
	"github.com/qa-tracker/qa-tracker/internal/policy"
	"github.com/qa-tracker/qa-tracker/internal/services"
)

// DashboardHandler serves the per-role landing summaries.
type DashboardHandler struct {
	userService    *services.UserService
	projectService *services.ProjectService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(userService *services.UserService, projectService *services.ProjectService) *DashboardHandler {
	return &DashboardHandler{
		userService:    userService,
		projectService: projectService,
	}
}

// Summary returns the dashboard for the current user's role: project
// counts by status for everyone, plus account statistics for admins.
func (h *DashboardHandler) Summary(c *gin.Context) {
	user, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	projects, total, err := h.projectService.List(&user, constants.MinPageSize, constants.MaxPageSize)
	if err != nil {
		apierrors.InternalError(c, "Failed to load dashboard")
		return
	}

	byStatus := make(map[string]int)
	progressSum := 0
	for _, project := range projects {
		byStatus[project.Status]++
		progressSum += project.Progress
	}
	averageProgress := 0
	if len(projects) > 0 {
		averageProgress = progressSum / len(projects)
	}

	response := gin.H{
		"role":             user.Role,
		"total_projects":   total,
		"by_status":        byStatus,
		"average_progress": averageProgress,
		"recent_projects":  recentProjects(projects),
	}

	if user.Role == policy.RoleAdmin {
		stats, err := h.userService.Stats()
		if err != nil {
			apierrors.InternalError(c, "Failed to load user statistics")
			return
		}
		response["users"] = gin.H{
			"total":   stats.TotalUsers,
			"pending": stats.PendingUsers,
			"active":  stats.ActiveUsers,
		}
		response["pending_users"] = dto.ToUserDetailDTOs(stats.Pending)
	}

	c.JSON(http.StatusOK, response)
}

func recentProjects(projects []models.Project) []dto.ProjectListItemDTO {
	limit := 5
	if len(projects) < limit {
		limit = len(projects)
	}
	items := make([]dto.ProjectListItemDTO, limit)
	for i := 0; i < limit; i++ {
		items[i] = dto.ToProjectListItemDTO(projects[i])
	}
	return items
}
