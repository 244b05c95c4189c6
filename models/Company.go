package models

type Company struct {
	ID          string `gorm:"primaryKey;size:8"`
	CompanyName string
	Enabled     bool `gorm:"index"`

	// organization id at the finance-operations backend
	OrganizationID string `gorm:"index"`

	Tokens []Token
}
