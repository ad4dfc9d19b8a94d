package jwt

import (
	"fmt"
	"time"

	jwtgo "github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	AccessTokenType = "access_token"
	StateTokenType  = "oauth_state"

	DefaultTokenTTL = 24 * time.Hour
	stateTTL        = 10 * time.Minute
)

// UserClaims are carried in the access token handed out after sign-in.
type UserClaims struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	jwtgo.StandardClaims
}

// GenerateToken signs an HS256 access token for the user.
func GenerateToken(userID uint, email, name, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret key is missing")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	claims := UserClaims{
		ID:    userID,
		Email: email,
		Name:  name,
		Type:  AccessTokenType,
		StandardClaims: jwtgo.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
			Subject:   fmt.Sprint(userID),
		},
	}
	token := jwtgo.NewWithClaims(jwtgo.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func parse(tokenString, secret string) (jwtgo.MapClaims, error) {
	token, err := jwtgo.Parse(tokenString, func(token *jwtgo.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwtgo.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "invalid token")
	}
	claims, ok := token.Claims.(jwtgo.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ValidateAndGetClaims verifies an access token and returns its claims.
func ValidateAndGetClaims(tokenString, secret string) (jwtgo.MapClaims, error) {
	claims, err := parse(tokenString, secret)
	if err != nil {
		return nil, err
	}
	if claims["type"] != AccessTokenType {
		return nil, errors.New("not an access token")
	}
	return claims, nil
}

// UserIDFromClaims reads the numeric "id" claim.
func UserIDFromClaims(claims jwtgo.MapClaims) (uint, error) {
	id, ok := claims["id"].(float64)
	if !ok || id <= 0 {
		return 0, errors.New("token has no user id")
	}
	return uint(id), nil
}

// GenerateStateToken returns a short-lived signed value for the OAuth state
// parameter.
func GenerateStateToken(secret string) (string, error) {
	claims := jwtgo.MapClaims{
		"nonce": uuid.NewString(),
		"type":  StateTokenType,
		"exp":   time.Now().Add(stateTTL).Unix(),
	}
	token := jwtgo.NewWithClaims(jwtgo.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func VerifyStateToken(state, secret string) error {
	claims, err := parse(state, secret)
	if err != nil {
		return err
	}
	if claims["type"] != StateTokenType {
		return errors.New("not a state token")
	}
	return nil
}
