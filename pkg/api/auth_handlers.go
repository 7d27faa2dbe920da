package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/pathfinders/auth-service/pkg/auth"
	"github.com/pathfinders/auth-service/pkg/httputil"
	"github.com/pathfinders/auth-service/pkg/middleware"
	"github.com/pathfinders/auth-service/pkg/service"
	"github.com/pathfinders/auth-service/pkg/validation"
)

// AuthHandlers handles authentication HTTP requests
type AuthHandlers struct {
	svc   *service.Service
	guard *middleware.SessionGuard
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(svc *service.Service, guard *middleware.SessionGuard) *AuthHandlers {
	return &AuthHandlers{svc: svc, guard: guard}
}

// RegisterRoutes registers authentication routes on the given router
func (h *AuthHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/register", h.register).Methods("POST")
	router.HandleFunc("/auth/login", h.login).Methods("POST")
	router.HandleFunc("/auth/refresh-token", h.refresh).Methods("POST")
	router.HandleFunc("/auth/forgot-password", h.forgotPassword).Methods("POST")
	router.HandleFunc("/auth/reset-password", h.resetPassword).Methods("POST")

	// Protected routes
	router.Handle("/auth/logout", h.guard.Handler(http.HandlerFunc(h.logout))).Methods("POST")
	router.Handle("/auth/me", h.guard.Handler(http.HandlerFunc(h.me))).Methods("GET")
}

// register handles POST /auth/register
func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		Name         string `json:"name"`
		MobileNumber string `json:"mobileNumber"`
		DateOfBirth  string `json:"dateOfBirth"`
		Gender       string `json:"gender"`
		Location     string `json:"location"`
	}

	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	req.Email = validation.NormalizeEmail(req.Email)
	if err := validation.ValidateEmail(req.Email); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}
	if req.MobileNumber != "" {
		if err := validation.ValidatePhone(req.MobileNumber); err != nil {
			httputil.WriteValidationError(w, err.Error())
			return
		}
	}

	var dob *time.Time
	if req.DateOfBirth != "" {
		parsed, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			httputil.WriteValidationError(w, "dateOfBirth must be YYYY-MM-DD")
			return
		}
		dob = &parsed
	}

	user, pair, err := h.svc.Register(r.Context(), service.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		Name:         req.Name,
		MobileNumber: req.MobileNumber,
		DateOfBirth:  dob,
		Gender:       req.Gender,
		Location:     req.Location,
	})
	if err != nil {
		httputil.WriteAuthError(w, err)
		return
	}

	httputil.WriteCreated(w, registerResponse{
		User:   user,
		Tokens: pair,
	})
}

// login handles POST /auth/login
func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}

	user, pair, err := h.svc.Login(r.Context(), validation.NormalizeEmail(req.Email), req.Password, httputil.ClientIP(r))
	if err != nil {
		httputil.WriteAuthError(w, err)
		return
	}

	httputil.WriteSuccess(w, loginResponse{
		User:   user,
		Tokens: pair,
	})
}

// refresh handles POST /auth/refresh
func (h *AuthHandlers) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}

	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.RefreshToken, "refreshToken") {
		return
	}

	pair, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httputil.WriteAuthError(w, err)
		return
	}

	httputil.WriteSuccess(w, pair)
}

// logout handles POST /auth/logout (protected)
func (h *AuthHandlers) logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r)

	if err := h.svc.Logout(r.Context(), session); err != nil {
		httputil.WriteAuthError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]string{"message": "logged out"})
}

// me handles GET /auth/me (protected)
func (h *AuthHandlers) me(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r)
	httputil.WriteSuccess(w, session.User)
}

// forgotPassword handles POST /auth/forgot-password. The response is the
// same whether or not the account exists.
func (h *AuthHandlers) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}

	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	email := validation.NormalizeEmail(req.Email)
	if err := validation.ValidateEmail(email); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), email); err != nil {
		httputil.WriteAuthError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]string{
		"message": "if the account exists, a reset link has been sent",
	})
}

// resetPassword handles POST /auth/reset-password
func (h *AuthHandlers) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token           string `json:"token"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}

	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Token, "token") {
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if req.Password != req.ConfirmPassword {
		httputil.WriteValidationError(w, "passwords do not match")
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		httputil.WriteAuthError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]string{"message": "password has been reset"})
}

type registerResponse struct {
	User   *auth.User     `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

type loginResponse struct {
	User   *auth.User     `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}
