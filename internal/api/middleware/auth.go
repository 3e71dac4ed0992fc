package middleware

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/hrsync_server/internal/pkg/jwt"
	"github.com/qs3c/hrsync_server/internal/pkg/response"
	"github.com/qs3c/hrsync_server/internal/pkg/session"
)

const (
	UserIDKey  = "userID"
	SessionKey = "session"
)

var (
	errNoBearer        = errors.New("missing authorization header")
	errMalformedBearer = errors.New("malformed authorization header")
)

// SessionLookup 按用户查询当前登录会话
type SessionLookup interface {
	Get(ctx context.Context, userID int64) (*session.Session, error)
}

// Auth 要求有效的 JWT，且该用户的会话仍然存在。登出后旧 token 立即失效
func Auth(jwtSecret string, sessions SessionLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if errors.Is(err, errNoBearer) {
			response.Error(c, response.CodeLoginRequired, "")
			c.Abort()
			return
		}
		if err != nil {
			response.AuthError(c, "Malformed authorization header")
			c.Abort()
			return
		}

		claims, err := jwt.ParseToken(token, jwtSecret)
		if err != nil {
			response.AuthError(c, "Session expired, please login again")
			c.Abort()
			return
		}

		sess, err := sessions.Get(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, session.ErrNoSession) {
				response.AuthError(c, "Session expired, please login again")
			} else {
				log.Printf("Auth: session lookup failed for user %d: %v", claims.UserID, err)
				response.ServerError(c, "")
			}
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(SessionKey, sess)
		c.Next()
	}
}

// OptionalAuth 有合法 token 时写入用户 ID，不查会话，也不拦截
func OptionalAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := bearerToken(c); err == nil {
			if claims, err := jwt.ParseToken(token, jwtSecret); err == nil {
				c.Set(UserIDKey, claims.UserID)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", errNoBearer
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header || token == "" {
		return "", errMalformedBearer
	}
	return token, nil
}

// GetUserID 从上下文获取用户 ID
func GetUserID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(int64)
	return id, ok
}

// GetSession 取 Auth 写入的会话
func GetSession(c *gin.Context) (*session.Session, bool) {
	v, exists := c.Get(SessionKey)
	if !exists {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok
}
