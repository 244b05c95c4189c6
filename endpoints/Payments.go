package endpoints

import (
	"git.sr.ht/~aondrejcak/finops-api/assert"
	"git.sr.ht/~aondrejcak/finops-api/kernel"
	"git.sr.ht/~aondrejcak/finops-api/models"
	"github.com/gin-gonic/gin"
)

// Payments returns the company's persisted per-bill payment history,
// newest first.
func Payments(c *gin.Context) {
	rt := c.MustGet("rt").(*kernel.RequestRuntime)
	rt.NewChildTracer("payments.handler").Advance()

	assert.NotNil(rt.Token, "token != nil")

	var records []models.PaymentRecord
	result := rt.DB.
		Where("company_id = ?", rt.Token.CompanyID).
		Order("created_at DESC").
		Limit(200).
		Find(&records)
	if result.Error != nil {
		rt.Ef(500, "failed to query payment history: %v", result.Error)
		return
	}

	c.JSON(200, gin.H{"payments": records})
	rt.EndBlock()
}
