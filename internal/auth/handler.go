package auth

import (
	"context"
	"net/http"
	"time"

	"staff-api/internal/apperr"
	"staff-api/internal/observability"
	"staff-api/internal/response"
	"staff-api/internal/validate"
)

type Handler struct {
	service *Service
	logger  *observability.Logger
}

func NewHandler(service *Service, logger *observability.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	Admin loginProfile `json:"admin"`
}

type loginProfile struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	LastLogin *time.Time `json:"lastLogin"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := response.DecodeJSON(w, r, &body); err != nil {
		response.Error(w, h.logger, err)
		return
	}

	v := validate.New()
	v.Required("username", body.Username)
	v.Required("password", body.Password)
	if err := v.Err(); err != nil {
		response.Error(w, h.logger, err)
		return
	}

	session, err := h.service.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			h.logger.Warn("login_rejected", map[string]any{
				"username": body.Username,
				"reason":   err.Error(),
				"ip":       observability.ClientIP(r),
			})
		}
		response.Error(w, h.logger, err)
		return
	}

	response.OK(w, "Login successful", loginResponse{
		Token: session.Token,
		Admin: loginProfile{
			ID:        session.Admin.ID,
			Username:  session.Admin.Username,
			Email:     session.Admin.Email,
			Role:      session.Admin.Role,
			LastLogin: session.Admin.LastLogin,
		},
	})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		response.Error(w, h.logger, ErrMissingToken)
		return
	}

	response.OK(w, "", admin.Profile())
}

// Logout only acknowledges; tokens are not tracked server-side.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if admin, ok := AdminFromContext(r.Context()); ok {
		h.logger.Info("admin_logout", map[string]any{"admin_id": admin.ID})
	}
	response.OK(w, "Logged out successfully", nil)
}

type ctxKey string

const adminKey ctxKey = "auth_admin"

func WithAdmin(ctx context.Context, admin Admin) context.Context {
	return context.WithValue(ctx, adminKey, admin)
}

func AdminFromContext(ctx context.Context) (Admin, bool) {
	admin, ok := ctx.Value(adminKey).(Admin)
	return admin, ok
}
