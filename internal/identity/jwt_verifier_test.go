package identity

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

const testSecret = "super-secreto-de-test"

func signHS256(t *testing.T, claims jwtv5.MapClaims, secret string) string {
	t.Helper()
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("firmar: %v", err)
	}
	return s
}

func newHS256(t *testing.T, issuer string) *JWTVerifier {
	t.Helper()
	v, err := NewJWTVerifier(Config{Alg: "hs256", Secret: testSecret, Issuer: issuer, Leeway: time.Second})
	if err != nil {
		t.Fatalf("NewJWTVerifier: %v", err)
	}
	return v
}

func TestVerify_HappyPath(t *testing.T) {
	v := newHS256(t, "idp.test")
	tok := signHS256(t, jwtv5.MapClaims{
		"sub": "u1",
		"iss": "idp.test",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	sub, err := v.Verify(context.Background(), tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sub != "u1" {
		t.Fatalf("sub = %q", sub)
	}
}

// Todos los fallos colapsan en el mismo error opaco.
func TestVerify_FailuresCollapse(t *testing.T) {
	v := newHS256(t, "idp.test")

	expired := signHS256(t, jwtv5.MapClaims{
		"sub": "u1", "iss": "idp.test", "exp": time.Now().Add(-time.Hour).Unix(),
	}, testSecret)
	wrongKey := signHS256(t, jwtv5.MapClaims{
		"sub": "u1", "iss": "idp.test", "exp": time.Now().Add(time.Hour).Unix(),
	}, "otro-secreto")
	wrongIssuer := signHS256(t, jwtv5.MapClaims{
		"sub": "u1", "iss": "otro-idp", "exp": time.Now().Add(time.Hour).Unix(),
	}, testSecret)
	noSub := signHS256(t, jwtv5.MapClaims{
		"iss": "idp.test", "exp": time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	for name, tok := range map[string]string{
		"vencido":     expired,
		"otra clave":  wrongKey,
		"otro issuer": wrongIssuer,
		"sin sub":     noSub,
		"basura":      "no.es.jwt",
		"vacío":       "",
	} {
		if _, err := v.Verify(context.Background(), tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: debería colapsar en ErrInvalidToken, got %v", name, err)
		}
	}
}

// El leeway tolera clock skew chico en exp.
func TestVerify_Leeway(t *testing.T) {
	v, err := NewJWTVerifier(Config{Alg: "hs256", Secret: testSecret, Leeway: time.Minute})
	if err != nil {
		t.Fatalf("NewJWTVerifier: %v", err)
	}
	justExpired := signHS256(t, jwtv5.MapClaims{
		"sub": "u1", "exp": time.Now().Add(-10 * time.Second).Unix(),
	}, testSecret)
	if _, err := v.Verify(context.Background(), justExpired); err != nil {
		t.Fatalf("exp dentro del leeway debería pasar: %v", err)
	}
}

// Un token HS256 jamás pasa contra un verifier eddsa (sin confusión de alg).
func TestVerify_AlgConfusion(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generar clave: %v", err)
	}
	v, err := NewJWTVerifier(Config{Alg: "eddsa", PublicKeyHex: hex.EncodeToString(pub)})
	if err != nil {
		t.Fatalf("NewJWTVerifier: %v", err)
	}
	hsToken := signHS256(t, jwtv5.MapClaims{
		"sub": "u1", "exp": time.Now().Add(time.Hour).Unix(),
	}, testSecret)
	if _, err := v.Verify(context.Background(), hsToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token HS256 contra verifier eddsa: got %v", err)
	}
}

func TestVerify_EdDSA(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generar clave: %v", err)
	}
	v, err := NewJWTVerifier(Config{Alg: "eddsa", PublicKeyHex: hex.EncodeToString(pub)})
	if err != nil {
		t.Fatalf("NewJWTVerifier: %v", err)
	}

	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, jwtv5.MapClaims{
		"sub": "u9", "exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString(priv)
	if err != nil {
		t.Fatalf("firmar: %v", err)
	}

	sub, err := v.Verify(context.Background(), signed)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sub != "u9" {
		t.Fatalf("sub = %q", sub)
	}
}

func TestNewJWTVerifier_BadConfig(t *testing.T) {
	if _, err := NewJWTVerifier(Config{Alg: "hs256"}); err == nil {
		t.Fatal("hs256 sin secret debería fallar")
	}
	if _, err := NewJWTVerifier(Config{Alg: "eddsa", PublicKeyHex: "zz"}); err == nil {
		t.Fatal("public key inválida debería fallar")
	}
	if _, err := NewJWTVerifier(Config{Alg: "rs256"}); err == nil {
		t.Fatal("alg desconocido debería fallar")
	}
}
