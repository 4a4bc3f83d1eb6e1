package handler // handler defines http handlers

import (
    "context"       // per-request deadlines for store calls
    "encoding/json" // strict body decoding
    "errors"        // errors.Is / errors.As against the service taxonomy
    "log/slog"      // structured logging of internal failures
    "net/http"      // HTTP status codes
    "strconv"       // strconv converts path parameters
    "time"

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/iliyamo/cinema-reservation-api/internal/middleware"
    "github.com/iliyamo/cinema-reservation-api/internal/model"
    "github.com/iliyamo/cinema-reservation-api/internal/service"
    "github.com/iliyamo/cinema-reservation-api/internal/validator"
)

// base carries what every handler group needs: a logger for internal
// failures and the deadline applied to service calls.
type base struct {
    logger  *slog.Logger
    timeout time.Duration
}

func newBase(logger *slog.Logger, timeout time.Duration) base {
    if timeout <= 0 {
        timeout = 5 * time.Second
    }
    return base{logger: logger, timeout: timeout}
}

// ctx derives the request context bounded by the handler timeout.
func (b base) ctx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), b.timeout)
}

// requestError is a malformed or invalid request body or parameter.
type requestError struct {
    msg    string
    fields map[string]string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{msg: msg} }

// fail writes the JSON error response for err.  Classified service
// errors map to their status code; anything else is logged and
// reported as a 500 without details.
func (b base) fail(c echo.Context, err error) error {
    var reqErr *requestError
    if errors.As(err, &reqErr) {
        body := echo.Map{"error": reqErr.msg}
        if len(reqErr.fields) > 0 {
            body["fields"] = reqErr.fields
        }
        return c.JSON(http.StatusBadRequest, body)
    }

    status := http.StatusInternalServerError
    switch {
    case errors.Is(err, service.ErrNotFound):
        status = http.StatusNotFound
    case errors.Is(err, service.ErrConflict):
        status = http.StatusConflict
    case errors.Is(err, service.ErrInvalidArgument):
        status = http.StatusBadRequest
    case errors.Is(err, service.ErrForbidden):
        status = http.StatusForbidden
    case errors.Is(err, service.ErrUnauthorized):
        status = http.StatusUnauthorized
    }
    if status == http.StatusInternalServerError {
        b.logger.Error("request failed",
            "method", c.Request().Method,
            "uri", c.Request().RequestURI,
            "error", err,
        )
        return c.JSON(status, echo.Map{"error": "internal server error"})
    }
    msg := service.Message(err)
    if msg == "" {
        msg = err.Error()
    }
    return c.JSON(status, echo.Map{"error": msg})
}

// bindJSON decodes the request body into dst, rejecting unknown fields,
// and runs the registered validator on it.
func bindJSON(c echo.Context, dst any) error {
    dec := json.NewDecoder(c.Request().Body)
    dec.DisallowUnknownFields()
    if err := dec.Decode(dst); err != nil {
        return badRequest("invalid request body: " + err.Error())
    }
    if err := c.Validate(dst); err != nil {
        if fields := validator.Fields(err); fields != nil {
            return &requestError{msg: "validation failed", fields: fields}
        }
        return badRequest(err.Error())
    }
    return nil
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, badRequest("invalid " + name)
    }
    return id, nil
}

// queryUint reads an optional positive integer query parameter; absent
// yields 0.
func queryUint(c echo.Context, name string) (uint64, error) {
    raw := c.QueryParam(name)
    if raw == "" {
        return 0, nil
    }
    v, err := strconv.ParseUint(raw, 10, 64)
    if err != nil || v == 0 {
        return 0, badRequest("invalid " + name)
    }
    return v, nil
}

// queryDate reads an optional YYYY-MM-DD query parameter.
func queryDate(c echo.Context, name string) (*model.Date, error) {
    raw := c.QueryParam(name)
    if raw == "" {
        return nil, nil
    }
    d, err := model.ParseDate(raw)
    if err != nil {
        return nil, badRequest(name + " must be YYYY-MM-DD")
    }
    return &d, nil
}

// principal returns the authenticated caller set by JWTAuth.
func principal(c echo.Context) (model.Principal, error) {
    p, ok := middleware.PrincipalFrom(c)
    if !ok {
        return model.Principal{}, &service.Error{Kind: service.ErrUnauthorized, Msg: "unauthorized"}
    }
    return p, nil
}
