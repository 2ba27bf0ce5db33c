package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"money-transfer/internal/errors"
	"money-transfer/internal/middleware"
	"money-transfer/internal/service"
)

type UserHandler struct {
	userService *service.UserService
	validate    *validator.Validate
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		validate:    validator.New(),
	}
}

type RegisterRequest struct {
	Username       string `json:"username" validate:"required,min=3,max=32"`
	FullName       string `json:"full_name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6"`
	ProfilePicture string `json:"profile_picture" validate:"required,url"`
}

type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type UpdateProfileRequest struct {
	FullName string `json:"full_name" validate:"required"`
}

type UpdateProfilePictureRequest struct {
	ProfilePicture string `json:"profile_picture" validate:"required,url"`
}

type AuthResponse struct {
	User         interface{} `json:"user,omitempty"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
}

func (h *UserHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "validation failed").WithDetails(err.Error()))
		return false
	}
	return true
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userService.Register(r.Context(), &service.RegisterRequest{
		Username:       req.Username,
		FullName:       req.FullName,
		Email:          req.Email,
		Password:       req.Password,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, tokens, err := h.userService.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	tokens, err := h.userService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.FromContext(r.Context())
	if !ok {
		writeError(w, errors.ErrUnauthorized)
		return
	}

	if err := h.userService.Logout(r.Context(), identity.UserID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the caller's profile together with the current balance.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.FromContext(r.Context())
	if !ok {
		writeError(w, errors.ErrUnauthorized)
		return
	}

	user, err := h.userService.GetUser(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	account, err := h.userService.GetAccount(r.Context(), identity.AccountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":    user,
		"account": account,
	})
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.FromContext(r.Context())
	if !ok {
		writeError(w, errors.ErrUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.userService.ChangePassword(r.Context(), identity.UserID, req.OldPassword, req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.FromContext(r.Context())
	if !ok {
		writeError(w, errors.ErrUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.userService.UpdateFullName(r.Context(), identity.UserID, req.FullName); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "profile updated"})
}

func (h *UserHandler) UpdateProfilePicture(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.FromContext(r.Context())
	if !ok {
		writeError(w, errors.ErrUnauthorized)
		return
	}

	var req UpdateProfilePictureRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.userService.UpdateProfilePicture(r.Context(), identity.UserID, req.ProfilePicture); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "profile picture updated"})
}
