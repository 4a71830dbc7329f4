package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lcmcoursier/courier-quote/internal/contactvault"
)

// ContactHandler exposes the remembered contact block.
type ContactHandler struct {
	vault        *contactvault.Vault
	secureCookie bool
}

func NewContactHandler(vault *contactvault.Vault, secureCookie bool) *ContactHandler {
	return &ContactHandler{vault: vault, secureCookie: secureCookie}
}

type contactResponse struct {
	Name  string `json:"nom"`
	Email string `json:"email"`
	Phone string `json:"tel"`
}

// Get handles GET /api/contact.
//
// @Summary      Recall the remembered contact
// @Tags         contact
// @Produce      json
// @Success      200  {object}  contactResponse
// @Success      204
// @Router       /api/contact [get]
func (h *ContactHandler) Get(c echo.Context) error {
	contact, ok := h.vault.Recall(h.store(c))
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, contactResponse{
		Name:  contact.Name,
		Email: contact.Email,
		Phone: contact.Phone,
	})
}

// Forget handles DELETE /api/contact.
//
// @Summary      Forget the remembered contact
// @Tags         contact
// @Success      204
// @Router       /api/contact [delete]
func (h *ContactHandler) Forget(c echo.Context) error {
	h.store(c).Clear()
	return c.NoContent(http.StatusNoContent)
}

func (h *ContactHandler) store(c echo.Context) cookieStore {
	return cookieStore{c: c, secure: h.secureCookie}
}
