// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/trickhouse/internal/seat"
)

// privateKey and publicKey are used for signing and verifying JWT tokens.
var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenExpire is how long a session token stays valid (0 => never).
	tokenExpire time.Duration
)

// Session identifies a player's seat in a room. The session id changes on every join;
// the seat does not.
type Session struct {
	ID   uuid.UUID
	Room uuid.UUID
	Seat seat.Seat
}

// Init generates a fresh ed25519 key pair at runtime and sets the token expiration.
func Init(expire time.Duration) error {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	tokenExpire = expire
	return nil
}

// InitFromPath reads raw ed25519 private/public keys from file and sets the token
// expiration, so tokens survive a restart.
func InitFromPath(privatePath, publicPath string, expire time.Duration) error {
	privateKeyData, err := os.ReadFile(privatePath)
	if err != nil {
		return fmt.Errorf("failed to read private key file: %w", err)
	}
	publicKeyData, err := os.ReadFile(publicPath)
	if err != nil {
		return fmt.Errorf("failed to read public key file: %w", err)
	}

	if len(privateKeyData) != ed25519.PrivateKeySize {
		return fmt.Errorf("private key must be %d raw bytes, got %d", ed25519.PrivateKeySize, len(privateKeyData))
	}
	if len(publicKeyData) != ed25519.PublicKeySize {
		return fmt.Errorf("public key must be %d raw bytes, got %d", ed25519.PublicKeySize, len(publicKeyData))
	}

	privateKey = ed25519.PrivateKey(privateKeyData)
	publicKey = ed25519.PublicKey(publicKeyData)
	tokenExpire = expire
	return nil
}

// CreateSessionToken signs a token with "sub" = session id plus the room and seat.
func CreateSessionToken(s Session) (string, error) {
	claims := jwt.MapClaims{
		"sub":  s.ID.String(),
		"room": s.Room.String(),
		"seat": s.Seat.String(),
		"iat":  time.Now().Unix(),
	}
	if tokenExpire > 0 {
		claims["exp"] = time.Now().Add(tokenExpire).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateSession verifies a token and returns the session it names.
func AuthenticateSession(tokenString string) (Session, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return Session{}, fmt.Errorf("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, fmt.Errorf("invalid jwt claims")
	}

	var s Session
	if s.ID, err = uuidClaim(claims, "sub"); err != nil {
		return Session{}, err
	}
	if s.Room, err = uuidClaim(claims, "room"); err != nil {
		return Session{}, err
	}
	seatStr, ok := claims["seat"].(string)
	if !ok {
		return Session{}, fmt.Errorf("missing seat in jwt")
	}
	if s.Seat, err = seat.Parse(seatStr); err != nil {
		return Session{}, fmt.Errorf("invalid seat in jwt: %w", err)
	}
	return s, nil
}

func uuidClaim(claims jwt.MapClaims, key string) (uuid.UUID, error) {
	str, ok := claims[key].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("missing %s in jwt", key)
	}
	id, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s in jwt: %w", key, err)
	}
	return id, nil
}
