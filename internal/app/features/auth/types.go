// internal/app/features/auth/types.go
package auth

import "github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"

type registerCompanyRequest struct {
	CompanyName  string `json:"company_name" validate:"required,min=2,max=120"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
	Phone        string `json:"phone" validate:"max=40"`
	Address      string `json:"address" validate:"max=300"`

	FullName string `json:"full_name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type registerClientRequest struct {
	FullName string `json:"full_name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type registerCompanyResponse struct {
	Token   string         `json:"token"`
	User    models.User    `json:"user"`
	Company models.Company `json:"company"`
}
