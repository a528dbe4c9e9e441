package identity

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// JWTVerifier valida JWTs firmados por el identity provider.
// Soporta HS256 (secreto compartido) y EdDSA (public key del provider).
type JWTVerifier struct {
	alg    string
	secret []byte
	pubKey ed25519.PublicKey
	issuer string
	leeway time.Duration
}

// Config del verifier. Secret (hs256) o PublicKeyHex (eddsa) según Alg.
type Config struct {
	Alg          string // "hs256" | "eddsa"
	Secret       string
	PublicKeyHex string
	Issuer       string
	Leeway       time.Duration
}

// NewJWTVerifier construye el verifier a partir de la config.
func NewJWTVerifier(cfg Config) (*JWTVerifier, error) {
	v := &JWTVerifier{
		alg:    strings.ToLower(strings.TrimSpace(cfg.Alg)),
		issuer: cfg.Issuer,
		leeway: cfg.Leeway,
	}
	if v.leeway == 0 {
		v.leeway = 30 * time.Second
	}

	switch v.alg {
	case "hs256":
		if cfg.Secret == "" {
			return nil, fmt.Errorf("identity: hs256 requiere secret")
		}
		v.secret = []byte(cfg.Secret)
	case "eddsa":
		raw, err := hex.DecodeString(strings.TrimSpace(cfg.PublicKeyHex))
		if err != nil || len(raw) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("identity: public key ed25519 inválida")
		}
		v.pubKey = ed25519.PublicKey(raw)
	default:
		return nil, fmt.Errorf("identity: alg desconocido %q", cfg.Alg)
	}
	return v, nil
}

// Verify valida firma, iss y exp/nbf (con leeway) y retorna el claim "sub".
// Cualquier fallo colapsa en ErrInvalidToken.
func (v *JWTVerifier) Verify(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrInvalidToken
	}

	keyfunc := func(t *jwtv5.Token) (any, error) {
		switch v.alg {
		case "hs256":
			return v.secret, nil
		case "eddsa":
			return v.pubKey, nil
		}
		return nil, ErrInvalidToken
	}

	methods := []string{"HS256"}
	if v.alg == "eddsa" {
		methods = []string{"EdDSA"}
	}

	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods(methods),
		jwtv5.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(v.issuer))
	}

	tok, err := jwtv5.Parse(token, keyfunc, opts...)
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
