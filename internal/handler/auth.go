package handler

import (
    "encoding/json"
    "errors"
    "io"
    "log/slog"
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities
    "time"

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/cinema-reservation-api/internal/model"
    "github.com/iliyamo/cinema-reservation-api/internal/service"
)

// AuthHandler exposes registration, sign-in and token management.
type AuthHandler struct {
    base
    auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService, logger *slog.Logger, timeout time.Duration) *AuthHandler {
    return &AuthHandler{base: newBase(logger, timeout), auth: auth}
}

// ----- DTOs -----

type registerReq struct {
    Email       string  `json:"email" validate:"required,email,max=255"`
    Password    string  `json:"password" validate:"required,min=8,max=72"`
    FullName    string  `json:"full_name" validate:"required,min=1,max=100"`
    PhoneNumber *string `json:"phone_number" validate:"omitempty,max=32"`
}
type loginReq struct {
    Email    string `json:"email" validate:"required,email"`
    Password string `json:"password" validate:"required"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token" validate:"required"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type authResp struct {
    User    *model.User `json:"user"`
    Access  tokenPart   `json:"access"`
    Refresh tokenPart   `json:"refresh"`
}

func sessionResp(s *service.Session) authResp {
    return authResp{
        User:    s.User,
        Access:  tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
        Refresh: tokenPart{Token: s.Refresh.Raw, Expires: s.Refresh.Exp}, // raw back to client
    }
}

// Register: create a USER account and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := bindJSON(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    sess, err := h.auth.Register(ctx, service.RegisterInput{
        Email:       req.Email,
        Password:    req.Password,
        FullName:    strings.TrimSpace(req.FullName),
        PhoneNumber: req.PhoneNumber,
    })
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusCreated, sessionResp(sess))
}

// Login: verify credentials and return a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := bindJSON(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    sess, err := h.auth.Login(ctx, req.Email, req.Password)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, sessionResp(sess))
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := bindJSON(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    sess, err := h.auth.Refresh(ctx, req.RefreshToken)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, sessionResp(sess))
}

// RefreshAccess returns a new access token WITHOUT rotating the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
    var req refreshReq
    if err := bindJSON(c, &req); err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    access, err := h.auth.RefreshAccess(ctx, req.RefreshToken)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "access": tokenPart{Token: access.Token, Expires: access.Exp},
    })
}

// Logout revokes the refresh token in the body, or every refresh token
// of the bearer when the body carries none.  The route runs behind
// OptionalJWT so both modes share one endpoint.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req struct {
        RefreshToken string `json:"refresh_token"`
    }
    dec := json.NewDecoder(c.Request().Body)
    dec.DisallowUnknownFields()
    if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
        return h.fail(c, badRequest("invalid request body: "+err.Error()))
    }

    var uid uint64
    if p, err := principal(c); err == nil {
        uid = p.ID
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    if err := h.auth.Logout(ctx, req.RefreshToken, uid); err != nil {
        return h.fail(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated caller's account.
func (h *AuthHandler) Me(c echo.Context) error {
    p, err := principal(c)
    if err != nil {
        return h.fail(c, err)
    }
    ctx, cancel := h.ctx(c)
    defer cancel()

    u, err := h.auth.Me(ctx, p)
    if err != nil {
        return h.fail(c, err)
    }
    return c.JSON(http.StatusOK, u)
}
