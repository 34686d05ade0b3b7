// File: internal/service/authentication.go
package service

import (
	"fmt"
	"time"

	"hours-ledger/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// swapped in tests
var (
	timeNow         = time.Now
	parseWithClaims = jwt.ParseWithClaims
)

// CustomClaims 定義 JWT 負載內容
type CustomClaims struct {
	UserID    string     `json:"uid"`
	Role      model.Role `json:"role"`
	ManagerID *string    `json:"manager_id,omitempty"`
	jwt.RegisteredClaims
}

// Identity 將 claims 轉為核心使用的身分
func (c CustomClaims) Identity() model.Identity {
	return model.Identity{UserID: c.UserID, Role: c.Role, ManagerID: c.ManagerID}
}

// IssueAccessToken 依據身分與 TTL 產生 HS256 JWT
func IssueAccessToken(secret string, id model.Identity, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("JWT_SECRET not set")
	}
	if !id.Valid() {
		return "", fmt.Errorf("%w: identity %q/%q", model.ErrInvalidInput, id.UserID, id.Role)
	}

	now := timeNow()
	claims := CustomClaims{
		UserID:    id.UserID,
		Role:      id.Role,
		ManagerID: id.ManagerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyAccessToken 驗證並解析 JWT 令牌
func VerifyAccessToken(secret, tokenString string) (*CustomClaims, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set")
	}

	token, err := parseWithClaims(tokenString, &CustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(timeNow))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if !claims.Identity().Valid() {
		return nil, fmt.Errorf("invalid token: missing identity")
	}

	return claims, nil
}
