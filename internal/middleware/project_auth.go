package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/qa-tracker/qa-tracker/internal/constants"
	"github.com/qa-tracker/qa-tracker/internal/database"
	apierrors "github.com/qa-tracker/qa-tracker/internal/errors"
	"github.com/qa-tracker/qa-tracker/internal/models"
	"github.com/qa-tracker/qa-tracker/internal/policy"
)

// RequireProjectView checks if the user may see the project in the URL.
// Must run after RequireActiveUser.
func RequireProjectView() gin.HandlerFunc {
	return func(c *gin.Context) {
		projectIDStr := c.Param("id")
		projectID, err := strconv.ParseUint(projectIDStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project ID")
			c.Abort()
			return
		}

		user, ok := GetCurrentUser(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var project models.Project
		if err := database.GetDB().
			Preload("Creator").
			Preload("Analysts").
			Preload("Analysts.Analyst").
			First(&project, projectID).Error; err != nil {
			apierrors.NotFound(c, "Project not found")
			c.Abort()
			return
		}

		analystIDs := make([]uint64, 0, len(project.Analysts))
		for _, assignment := range project.Analysts {
			analystIDs = append(analystIDs, assignment.AnalystID)
		}
		facts := policy.ProjectFacts{
			OwnerID:    project.CreatedByID,
			AnalystIDs: analystIDs,
		}

		if !policy.For(user.Role).CanView(user.ID, facts) {
			// Return 404 instead of 403 to avoid leaking project existence
			apierrors.NotFound(c, "Project not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyProject, project)
		c.Next()
	}
}

// GetContextProject retrieves the project loaded by RequireProjectView
func GetContextProject(c *gin.Context) (models.Project, bool) {
	value, exists := c.Get(constants.ContextKeyProject)
	if !exists {
		return models.Project{}, false
	}
	project, ok := value.(models.Project)
	return project, ok
}
