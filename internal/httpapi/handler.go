package httpapi

import (
	"net/http"

	"github.com/MrEthical07/credvault"
	"github.com/MrEthical07/credvault/identity"
	"github.com/MrEthical07/credvault/internal/flows"
	"github.com/MrEthical07/credvault/internal/httpx"
	"github.com/labstack/echo/v4"
)

const (
	ctxIdentityKey = "credvault.identity"
	ctxTokenKey    = "credvault.token"
)

// AuthHandler serves the /auth routes.
type AuthHandler struct {
	engine *credvault.Engine
}

// NewAuthHandler returns a handler over engine.
func NewAuthHandler(engine *credvault.Engine) *AuthHandler {
	return &AuthHandler{engine: engine}
}

// RegisterRoutes mounts the handlers on g. Each public route gets its own per-IP
// limiter from limits.
func (h *AuthHandler) RegisterRoutes(g *echo.Group, limits RateLimits) {
	authGroup := g.Group("/auth")

	authGroup.POST("/register", h.register, limits.middleware("register", limits.Register))
	authGroup.POST("/login", h.login, limits.middleware("login", limits.Login))
	authGroup.POST("/refresh", h.refresh, limits.middleware("refresh", limits.Refresh))

	authGroup.POST("/logout", h.logout, h.requireAuth)
	authGroup.GET("/profile", h.profile, h.requireAuth)
}

// RegisterRequest is the JSON body of POST /auth/register.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName" validate:"required,min=2,max=50"`
	LastName  string `json:"lastName" validate:"required,min=2,max=50"`
	Password  string `json:"password" validate:"required,min=8,max=128,password_policy"`
}

// LoginRequest is the JSON body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=128"`
}

// RefreshRequest is the JSON body of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// MessageResponse is returned by routes with no resource to show.
type MessageResponse struct {
	Message              string `json:"message"`
	RevokedRefreshTokens int64  `json:"revokedRefreshTokens"`
}

func (h *AuthHandler) register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.engine.Register(c.Request().Context(), credvault.RegisterInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}

	return httpx.SendSuccess(c, http.StatusCreated, res)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.engine.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return httpx.SendSuccess(c, http.StatusOK, res)
}

func (h *AuthHandler) refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.engine.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}

	return httpx.SendSuccess(c, http.StatusOK, res)
}

func (h *AuthHandler) logout(c echo.Context) error {
	user := c.Get(ctxIdentityKey).(identity.Public)
	token := c.Get(ctxTokenKey).(string)

	res, err := h.engine.Logout(c.Request().Context(), user.ID, token)
	if err != nil {
		return err
	}

	return httpx.SendSuccess(c, http.StatusOK, MessageResponse{
		Message:              "Logged out successfully",
		RevokedRefreshTokens: res.RevokedRefreshTokens,
	})
}

func (h *AuthHandler) profile(c echo.Context) error {
	return httpx.SendSuccess(c, http.StatusOK, c.Get(ctxIdentityKey).(identity.Public))
}

// requireAuth resolves the bearer envelope and stores the identity and envelope on
// the echo context.
func (h *AuthHandler) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := flows.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			return credvault.ErrUnauthorized
		}

		user, err := h.engine.Authenticate(c.Request().Context(), token)
		if err != nil {
			return err
		}

		c.Set(ctxIdentityKey, user)
		c.Set(ctxTokenKey, token)
		return next(c)
	}
}
