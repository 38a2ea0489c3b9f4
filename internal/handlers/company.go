package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/go-quotes/httpx"
	"github.com/diewo77/go-quotes/internal/models"
	"github.com/diewo77/go-quotes/validation"
	"gorm.io/gorm"
)

type CompanyHandler struct {
	db *gorm.DB
}

func NewCompanyHandler(db *gorm.DB) *CompanyHandler {
	return &CompanyHandler{db: db}
}

// Get returns the user's company settings; an empty profile if none saved yet.
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.db, r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	var settings models.CompanySettings
	err := h.db.Where("user_id = ?", user.ID).First(&settings).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	settings.UserID = user.ID
	httpx.JSON(w, http.StatusOK, settings)
}

type companyRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Website    string `json:"website"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	LogoURL    string `json:"logo_url"`
}

// Update upserts the user's company settings.
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(h.db, r)
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req companyRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}

	v := make(validation.Violations)
	validation.Required("name", req.Name, v)
	validation.MaxLen("name", req.Name, 255, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
		return
	}

	var settings models.CompanySettings
	err := h.db.Where("user_id = ?", user.ID).First(&settings).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	settings.UserID = user.ID
	settings.Name = req.Name
	settings.Email = req.Email
	settings.Phone = req.Phone
	settings.Website = req.Website
	settings.Address = req.Address
	settings.City = req.City
	settings.PostalCode = req.PostalCode
	settings.Country = req.Country
	settings.LogoURL = req.LogoURL

	if err := h.db.Save(&settings).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}
