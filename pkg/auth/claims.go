package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/estatedesk-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      uuid.UUID
	DisplayName string
	Role        enums.MemberRole
	JTI         string
}

// AccessTokenClaims represents the typed JWT issued to staff clients.
type AccessTokenClaims struct {
	UserID      uuid.UUID        `json:"user_id"`
	DisplayName string           `json:"name"`
	Role        enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}
