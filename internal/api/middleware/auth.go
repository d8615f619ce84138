package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/d60-Lab/fitsocial/pkg/response"
)

const (
	userIDKey = "user_id"
	// DevUserHeader 仅在未配置 jwt.secret（debug/test 模式）时用于声明调用者身份
	DevUserHeader = "X-User-ID"
)

var errTokenInvalid = errors.New("token invalid")

// Auth 校验 Bearer token 并把 sub 作为 userId 放入上下文。
// 服务不签发 token，只做校验；secret 为空时退化为信任 X-User-ID 头。
func Auth(secret, issuer string) gin.HandlerFunc {
	if secret == "" {
		return func(c *gin.Context) {
			userID := strings.TrimSpace(c.GetHeader(DevUserHeader))
			if userID == "" {
				response.Unauthorized(c, "missing "+DevUserHeader+" header")
				return
			}
			c.Set(userIDKey, userID)
			c.Next()
		}
	}

	key := []byte(secret)
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithExpirationRequired()}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		token := bearerFromHeader(c.GetHeader("Authorization"))
		if token == "" {
			response.Unauthorized(c, "missing bearer token")
			return
		}
		userID, err := subject(parser, token, key)
		if err != nil {
			response.Unauthorized(c, err.Error())
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func subject(parser *jwt.Parser, token string, key []byte) (string, error) {
	var claims jwt.RegisteredClaims
	parsed, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", errTokenInvalid
	}
	return claims.Subject, nil
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// UserID 返回已认证的调用者 id，未经过 Auth 时为空
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
