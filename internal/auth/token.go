package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrBadAuthorization     = errors.New("bad authorization header")
	ErrInvalidToken         = errors.New("invalid token")
)

// Verifier validates HS256 bearer tokens issued by the Auth Service.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

// SubjectFromHeader returns the "sub" claim of the bearer token in an
// Authorization header value.
func (v *Verifier) SubjectFromHeader(h string) (string, error) {
	if h == "" {
		return "", ErrMissingAuthorization
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrBadAuthorization
	}
	return v.Subject(strings.TrimSpace(token))
}

func (v *Verifier) Subject(token string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}

	if !claims.VerifyExpiresAt(time.Now().Unix(), true) {
		return "", errors.Join(ErrInvalidToken, errors.New("token expired"))
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.Join(ErrInvalidToken, errors.New("missing sub"))
	}
	return sub, nil
}

// Issue signs an access token for subject valid for ttl.
func (v *Verifier) Issue(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Expired reports whether a token's exp claim lies before now plus leeway.
// Tokens that cannot be decoded, or carry no exp, are treated as not expired
// and left for the server to judge.
func Expired(token string, now time.Time, leeway time.Duration) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Add(leeway).Before(claims.ExpiresAt.Time)
}
