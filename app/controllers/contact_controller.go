package controllers

import (
	"net/http"

	"github.com/herbveda/storefront/app/services"
	"github.com/herbveda/storefront/pkg/bind"
	"github.com/herbveda/storefront/pkg/middleware"
	"github.com/herbveda/storefront/pkg/response"
)

type ContactController struct {
	contact *services.ContactService
}

func NewContactController(contact *services.ContactService) *ContactController {
	return &ContactController{contact: contact}
}

// Send handles POST /api/contact. Sender identity comes from the session.
func (c *ContactController) Send(w http.ResponseWriter, r *http.Request) {
	claims := middleware.UserFromCtx(r.Context())

	var body struct {
		Subject string `json:"subject" validate:"nullable,max=200"`
		Message string `json:"message" validate:"required"`
	}
	if errs, err := bind.JSON(r, &body); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	if err := c.contact.Send(r.Context(), claims.Name, claims.Email, body.Subject, body.Message); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.Message(w, "Message sent successfully. We will get back to you soon.")
}
