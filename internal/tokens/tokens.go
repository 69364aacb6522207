package tokens

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidClaims means the caller asked to sign claims without a
	// subject. That is a bug in the caller, not a runtime condition.
	ErrInvalidClaims = errors.New("tokens: claims missing subject")
	ErrTokenExpired  = errors.New("tokens: token expired")
	ErrTokenInvalid  = errors.New("tokens: token invalid")
)

// Codec signs tokens with an RSA private key and verifies them with the
// matching public key. A verifier-only codec (nil private key) can be
// handed to components that must never hold signing material.
type Codec struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
	method  jwt.SigningMethod
}

func NewCodec(privatePEM, publicPEM []byte, alg string) (*Codec, error) {
	method, err := rsaMethod(alg)
	if err != nil {
		return nil, err
	}
	private, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("tokens: parse private key: %w", err)
	}
	public, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("tokens: parse public key: %w", err)
	}
	return &Codec{private: private, public: public, method: method}, nil
}

func NewVerifier(publicPEM []byte, alg string) (*Codec, error) {
	method, err := rsaMethod(alg)
	if err != nil {
		return nil, err
	}
	public, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("tokens: parse public key: %w", err)
	}
	return &Codec{public: public, method: method}, nil
}

func rsaMethod(alg string) (jwt.SigningMethod, error) {
	if alg == "" {
		alg = "RS256"
	}
	method := jwt.GetSigningMethod(strings.ToUpper(alg))
	if _, ok := method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("tokens: unsupported signing algorithm %q", alg)
	}
	return method, nil
}

// Encode signs {sub, exp} plus any extra claims. Extra entries cannot
// shadow sub or exp.
func (c *Codec) Encode(subject string, expiresAt time.Time, extra map[string]any) (string, error) {
	if subject == "" {
		return "", ErrInvalidClaims
	}
	if c.private == nil {
		return "", errors.New("tokens: codec has no signing key")
	}

	claims := jwt.MapClaims{}
	for k, v := range extra {
		claims[k] = v
	}
	claims["sub"] = subject
	claims["exp"] = jwt.NewNumericDate(expiresAt)

	return jwt.NewWithClaims(c.method, claims).SignedString(c.private)
}

// Decode verifies the signature and returns the claims. With
// verifyExpiry false an expired token still decodes; the signature is
// always checked.
func (c *Codec) Decode(token string, verifyExpiry bool) (jwt.MapClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{c.method.Alg()})}
	if !verifyExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.NewParser(opts...).ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return c.public, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Subject pulls the sub claim out of decoded claims; empty when absent.
func Subject(claims jwt.MapClaims) string {
	sub, _ := claims["sub"].(string)
	return sub
}
