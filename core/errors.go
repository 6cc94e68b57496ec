package core

import "errors"

var (
	ErrBadRequest           = errors.New("bad request")
	ErrInvalidAddress       = errors.New("invalid address")
	ErrNoChallengePending   = errors.New("no challenge found")
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInvalidToken         = errors.New("invalid token")
	ErrTokenExpired         = errors.New("token has expired")
	ErrTokenRevoked         = errors.New("token has been revoked")
	ErrStoreOperationFailed = errors.New("store operation failed")
)
