package middleware

import (
	"strings"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	basehdl "folk_academy/internal/api/base/handler"
	"folk_academy/internal/common"
	"folk_academy/internal/global"
	"folk_academy/internal/logger"
)

// AuthMiddleware xác thực Bearer token JWT (HS256) cho các route admin.
// Token hợp lệ → user_id được lưu vào Locals cho handler phía sau.
func AuthMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			logger.GetAppLogger().WithFields(logrus.Fields{
				"path":   c.Path(),
				"method": c.Method(),
			}).Warn("Thiếu Authorization header")
			basehdl.HandleResponse(c, nil, common.ErrTokenMissing)
			return nil
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			basehdl.HandleResponse(c, nil, common.ErrTokenInvalid)
			return nil
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, common.ErrTokenInvalid
			}
			return []byte(global.MongoDB_ServerConfig.JwtSecret), nil
		})
		if err != nil {
			if ve, ok := err.(*jwt.ValidationError); ok && ve.Errors&jwt.ValidationErrorExpired != 0 {
				basehdl.HandleResponse(c, nil, common.ErrTokenExpired)
				return nil
			}
			basehdl.HandleResponse(c, nil, common.ErrTokenInvalid)
			return nil
		}
		if !token.Valid {
			basehdl.HandleResponse(c, nil, common.ErrTokenInvalid)
			return nil
		}

		if sub, ok := claims["sub"].(string); ok {
			c.Locals("user_id", sub)
		}

		return c.Next()
	}
}
