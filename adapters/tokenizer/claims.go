package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims binds a token to one wallet address
type SessionClaims struct {
	jwt.RegisteredClaims
	PublicAddress string `json:"publicAddress"`
}
