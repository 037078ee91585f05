package middleware

import (
	"strings"

	"pms/internal/models"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const ActorKeyFiber string = "Actor"

// Actor is the authenticated caller with their role already normalized, so
// nothing downstream ever branches on raw role strings.
type Actor struct {
	UserID        uuid.UUID
	EffectiveRole models.Role
}

type accessClaims struct {
	OrgRole      string `json:"orgRole"`
	PropertyRole string `json:"propertyRole"`
	jwt.RegisteredClaims
}

// RequireAuth validates the bearer token and resolves the actor's effective
// role from the org-level and property-level role claims.
func (m *Middleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := logger.New("middleware").Function("RequireAuth")

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			log.Info("missing authorization header")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			log.Info("invalid authorization header format")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		claims := &accessClaims{}
		token, err := jwt.ParseWithClaims(
			tokenParts[1],
			claims,
			func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(m.Config.JWTSecret), nil
			},
		)
		if err != nil || !token.Valid {
			log.Info("token validation failed")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			log.Info("token subject is not a valid user id", "subject", claims.Subject)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token subject",
			})
		}

		actor := &Actor{
			UserID:        userID,
			EffectiveRole: models.EffectiveRole(claims.OrgRole, models.Role(claims.PropertyRole)),
		}

		c.Locals(ActorKeyFiber, actor)

		return c.Next()
	}
}

// GetActor extracts the authenticated actor from the Fiber context.
func GetActor(c *fiber.Ctx) *Actor {
	actor, ok := c.Locals(ActorKeyFiber).(*Actor)
	if !ok {
		return nil
	}
	return actor
}
