package controllers

import (
	"net/http"

	"github.com/herbveda/storefront/app/services"
	"github.com/herbveda/storefront/pkg/bind"
	"github.com/herbveda/storefront/pkg/middleware"
	"github.com/herbveda/storefront/pkg/response"
	"github.com/herbveda/storefront/pkg/validate"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// Login handles POST /api/auth/login.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if errs, err := bind.JSON(r, &body); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	token, user, err := c.auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.Success(w, map[string]any{"token": token, "user": user.Safe()})
}

// Register handles POST /api/auth/register.
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}
	if errs, err := bind.JSON(r, &body); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	token, user, err := c.auth.Register(r.Context(), body.Name, body.Email, body.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.Created(w, map[string]any{"token": token, "user": user.Safe()})
}

// UpdateProfile handles PUT /api/auth/profile.
func (c *AuthController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := middleware.UserFromCtx(r.Context())

	var body struct {
		Name        string `json:"name" validate:"nullable"`
		Phone       string `json:"phone" validate:"nullable"`
		Address     string `json:"address" validate:"nullable"`
		City        string `json:"city" validate:"nullable"`
		State       string `json:"state" validate:"nullable"`
		Pincode     string `json:"pincode" validate:"nullable,digits=6"`
		DateOfBirth string `json:"dateOfBirth" validate:"nullable,date"`
		Gender      string `json:"gender" validate:"nullable,in=male,female,other"`
	}
	if errs, err := bind.JSON(r, &body); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	user, err := c.auth.UpdateProfile(r.Context(), claims.Subject, services.ProfileUpdate{
		Name:        body.Name,
		Phone:       body.Phone,
		Address:     body.Address,
		City:        body.City,
		State:       body.State,
		Pincode:     body.Pincode,
		DateOfBirth: body.DateOfBirth,
		Gender:      body.Gender,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.MessageData(w, "Profile updated successfully", map[string]any{"user": user.Safe()})
}

// ForgotPassword handles POST /api/auth/forgot-password. Malformed input
// gets the same generic answer as an unknown account.
func (c *AuthController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if _, err := bind.JSON(r, &body); err != nil || !validate.Email(body.Email) {
		response.Message(w, "If an account exists for this email, a reset link has been sent.")
		return
	}

	message, devURL, err := c.auth.ForgotPassword(r.Context(), body.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if devURL != "" {
		response.MessageData(w, message, map[string]any{"devResetUrl": devURL})
		return
	}
	response.Message(w, message)
}

// ResetPassword handles POST /api/auth/reset-password.
func (c *AuthController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token    string `json:"token" validate:"required"`
		Password string `json:"password" validate:"required,min=8"`
	}
	if errs, err := bind.JSON(r, &body); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	if err := c.auth.ResetPassword(r.Context(), body.Token, body.Password); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.Message(w, "Password has been reset successfully. You can now log in.")
}
