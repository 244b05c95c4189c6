package models

import "gorm.io/gorm"

type Admin struct {
	gorm.Model

	FullName string
	Email    string `gorm:"index"`

	PasswordHash string
	Role         string // ro, admin
}
