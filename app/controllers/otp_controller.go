package controllers

import (
	"net/http"

	"github.com/herbveda/storefront/app/services"
	"github.com/herbveda/storefront/pkg/bind"
	"github.com/herbveda/storefront/pkg/response"
)

type OtpController struct {
	otp *services.OtpService
}

func NewOtpController(otp *services.OtpService) *OtpController {
	return &OtpController{otp: otp}
}

// RequestLogin handles POST /api/otp/login/request.
func (c *OtpController) RequestLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email" validate:"required,email"`
	}
	if errs, err := bind.JSON(r, &body); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	if err := c.otp.RequestLoginCode(r.Context(), body.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.Message(w, "OTP sent to your email")
}

// VerifyLogin handles POST /api/otp/login/verify.
func (c *OtpController) VerifyLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email" validate:"required,email"`
		Code  string `json:"code" validate:"required,digits=6"`
	}
	if errs, err := bind.JSON(r, &body); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	token, user, err := c.otp.VerifyLoginCode(r.Context(), body.Email, body.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.Success(w, map[string]any{"token": token, "user": user.Safe()})
}

// RequestRegister handles POST /api/otp/register/request.
func (c *OtpController) RequestRegister(w http.ResponseWriter, r *http.Request) {
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

	if err := c.otp.RequestRegisterCode(r.Context(), body.Name, body.Email, body.Password); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.Message(w, "OTP sent to your email")
}

// VerifyRegister handles POST /api/otp/register/verify.
func (c *OtpController) VerifyRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email" validate:"required,email"`
		Code  string `json:"code" validate:"required,digits=6"`
	}
	if errs, err := bind.JSON(r, &body); err != nil {
		response.BadRequest(w, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	token, user, err := c.otp.VerifyRegisterCode(r.Context(), body.Email, body.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.Created(w, map[string]any{"token": token, "user": user.Safe()})
}
