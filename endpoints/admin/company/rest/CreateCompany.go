package rest

import (
	"net/http"

	"git.sr.ht/~aondrejcak/finops-api/kernel"
	"git.sr.ht/~aondrejcak/finops-api/models"
	"github.com/gin-gonic/gin"
	val "github.com/go-ozzo/ozzo-validation"
)

type CreateCompanyDto struct {
	CompanyName    string `json:"companyName"`
	OrganizationId string `json:"organizationId"`
	Enabled        bool   `json:"enabled"`
}

func (dto CreateCompanyDto) Validate() error {
	return val.ValidateStruct(&dto,
		val.Field(&dto.CompanyName, val.Required),
		val.Field(&dto.OrganizationId, val.Required),
	)
}

// CreateCompany registers a company allowed to authorize against the
// finance backend. The short id doubles as the public company reference.
func CreateCompany(c *gin.Context) {
	art := kernel.LoadConfig()

	var dto CreateCompanyDto
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := dto.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company := &models.Company{
		ID:             kernel.RandString(8),
		CompanyName:    dto.CompanyName,
		Enabled:        dto.Enabled,
		OrganizationID: dto.OrganizationId,
	}

	if tx := art.DatabaseClient.Create(company); tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": tx.Error.Error()})
		return
	}

	c.JSON(http.StatusCreated, company)
}
