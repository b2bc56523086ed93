package http

import (
	"fmt"
	"regexp"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// OrgSchemaHeader carries the tenant's database schema, resolved by the
	// authenticating edge in front of the gateway.
	OrgSchemaHeader = "X-Org-Schema"
	UserIDHeader    = "X-User-Id"
)

// schemaPattern matches the schema names the control plane provisions.
// Anything else is rejected before it can reach a query.
var schemaPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

type tenant struct {
	Schema string
	UserID uuid.UUID
}

func tenantFromRequest(c *fiber.Ctx) (tenant, error) {
	schema := c.Get(OrgSchemaHeader)
	if !schemaPattern.MatchString(schema) {
		return tenant{}, fmt.Errorf("missing or invalid %s header", OrgSchemaHeader)
	}

	userID, err := uuid.Parse(c.Get(UserIDHeader))
	if err != nil {
		return tenant{}, fmt.Errorf("missing or invalid %s header", UserIDHeader)
	}

	return tenant{Schema: schema, UserID: userID}, nil
}
