package rest

import (
	"net/http"

	"git.sr.ht/~aondrejcak/finops-api/kernel"
	"git.sr.ht/~aondrejcak/finops-api/models"
	"github.com/gin-gonic/gin"
)

type SetCompanyEnabledDto struct {
	Enabled bool `json:"enabled"`
}

// SetCompanyEnabled toggles a company. Disabling does not revoke issued
// tokens; the authorization flow just refuses to mint new ones.
func SetCompanyEnabled(c *gin.Context) {
	art := kernel.LoadConfig()

	var dto SetCompanyEnabledDto
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var company models.Company
	if tx := art.DatabaseClient.First(&company, "id = ?", c.Param("id")); tx.Error != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "company not found"})
		return
	}

	company.Enabled = dto.Enabled
	if tx := art.DatabaseClient.Save(&company); tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": tx.Error.Error()})
		return
	}

	c.JSON(http.StatusOK, company)
}
