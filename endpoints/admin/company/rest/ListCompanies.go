package rest

import (
	"net/http"

	"git.sr.ht/~aondrejcak/finops-api/kernel"
	"git.sr.ht/~aondrejcak/finops-api/models"
	"github.com/gin-gonic/gin"
)

func ListCompanies(c *gin.Context) {
	art := kernel.LoadConfig()

	var companies []models.Company
	if tx := art.DatabaseClient.Find(&companies); tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": tx.Error.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"companies": companies})
}
