package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v4"
)

// Имена JWT claims.
const (
	jwtClaimUserID = "user_id"
	jwtClaimRole   = "role"
)

const (
	RoleAdmin  = "admin"
	RolePlayer = "player"
)

func GetUserIDFromContext(ctx context.Context) (int, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return 0, errors.New("user claims not found in context or invalid type")
	}

	userIDClaim, ok := claims[jwtClaimUserID]
	if !ok {
		return 0, fmt.Errorf("missing '%s' claim in token", jwtClaimUserID)
	}

	var userID int
	switch v := userIDClaim.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("'%s' claim is not an integer: %f", jwtClaimUserID, v)
		}
		userID = int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("'%s' claim is not an integer: %q", jwtClaimUserID, v)
		}
		userID = n
	default:
		return 0, fmt.Errorf("invalid type for '%s' claim: expected float64 or string, got %T", jwtClaimUserID, userIDClaim)
	}

	if userID <= 0 {
		return 0, fmt.Errorf("invalid user ID value in '%s' claim: %d", jwtClaimUserID, userID)
	}
	return userID, nil
}

// GetUserRoleFromContext defaults to RolePlayer when the token carries no role.
func GetUserRoleFromContext(ctx context.Context) (string, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return "", errors.New("user claims not found in context or invalid type")
	}

	roleClaim, ok := claims[jwtClaimRole]
	if !ok {
		return RolePlayer, nil
	}
	role, ok := roleClaim.(string)
	if !ok {
		return "", fmt.Errorf("invalid type for '%s' claim: expected string, got %T", jwtClaimRole, roleClaim)
	}

	switch role {
	case RoleAdmin, RolePlayer:
		return role, nil
	default:
		return "", fmt.Errorf("invalid role value in claim: %q", role)
	}
}
