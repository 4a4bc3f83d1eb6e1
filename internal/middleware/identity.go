package middleware

// identity.go holds the helpers that store and read the authenticated
// caller on the Echo context.  JWTAuth writes the principal; handlers
// and the other middleware read it.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-reservation-api/internal/model"
)

const principalKey = "principal"

func setPrincipal(c echo.Context, p model.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the authenticated caller, if any.
func PrincipalFrom(c echo.Context) (model.Principal, bool) {
	p, ok := c.Get(principalKey).(model.Principal)
	return p, ok && p.ID != 0
}
