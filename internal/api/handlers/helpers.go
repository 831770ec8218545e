package handlers

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const playerTokenTTL = 24 * time.Hour

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

	errInvalidPlayerToken = errors.New("invalid player token")
)

// isDigits reports whether s is non-empty and all ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// validPIN accepts 4 to 6 digit PINs.
func validPIN(pin string) bool {
	return len(pin) >= 4 && len(pin) <= 6 && isDigits(pin)
}

// issuePlayerToken signs an HS256 bearer token for a player.
func issuePlayerToken(secret string, playerID int, username string, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"player_id": playerID,
		"username":  username,
		"iat":       now.Unix(),
		"exp":       now.Add(playerTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParsePlayerToken validates a bearer token and returns its player.
func ParsePlayerToken(secret, token string) (int, string, error) {
	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return 0, "", errInvalidPlayerToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errInvalidPlayerToken
	}
	playerIDf, ok := claims["player_id"].(float64)
	if !ok || playerIDf <= 0 {
		return 0, "", errInvalidPlayerToken
	}
	username, _ := claims["username"].(string)
	return int(playerIDf), username, nil
}

// pagination reads limit/offset query params, capping limit at 200.
func pagination(c *gin.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > 200 {
		limit = 200
	}
	offset, err := strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
