package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mgastelum/storefront-backend/pkg/enums"
)

// AccessTokenClaims is the typed claim set embedded in every access token.
type AccessTokenClaims struct {
	UserID uuid.UUID        `json:"uid"`
	Role   enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}

// AccessTokenPayload carries the inputs for minting an access token.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.MemberRole
	JTI    string
}
