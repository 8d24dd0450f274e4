package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func newEdKeys(t testing.TB) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func signed(t *testing.T, method gjwt.SigningMethod, key any, claims AssertionClaims, kid string) string {
	t.Helper()
	tok := gjwt.NewWithClaims(method, claims)
	if kid != "" {
		tok.Header["kid"] = kid
	}
	s, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestCreateAndParseAssertion(t *testing.T) {
	pub, priv := newEdKeys(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	m, err := NewManager(Config{
		TTL:           2 * time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		Issuer:        "goGate",
		Now:           func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, exp, err := m.CreateAssertion("u1", "s1", "TOTP", now.Add(-time.Second))
	if err != nil {
		t.Fatalf("create assertion: %v", err)
	}
	if !exp.Equal(now.Add(2 * time.Minute)) {
		t.Fatalf("unexpected expiry %v", exp)
	}

	claims, err := m.ParseAssertion(token)
	if err != nil {
		t.Fatalf("parse assertion: %v", err)
	}
	if claims.Subject != "u1" || claims.SID != "s1" || len(claims.AMR) != 1 || claims.AMR[0] != "totp" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.VerifiedAt != now.Add(-time.Second).Unix() {
		t.Fatalf("unexpected vat %d", claims.VerifiedAt)
	}

	now = now.Add(3 * time.Minute)
	if _, err := m.ParseAssertion(token); err == nil {
		t.Fatal("expected expired assertion to fail")
	}
}

func TestParseAssertionRejectsWrongAlgorithm(t *testing.T) {
	pub, _ := newEdKeys(t)
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := AssertionClaims{SID: "s1", RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		IssuedAt:  gjwt.NewNumericDate(time.Now()),
	}}
	token := signed(t, gjwt.SigningMethodHS256, []byte("secret-secret-secret-secret"), claims, "")

	if _, err := m.ParseAssertion(token); err == nil {
		t.Fatal("expected wrong algorithm to be rejected")
	}
}

func TestParseAssertionIssuerAudienceAndLeeway(t *testing.T) {
	_, priv := newEdKeys(t)
	m, err := NewManager(Config{
		TTL:           time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     priv.Public().(ed25519.PublicKey),
		Issuer:        "goGate",
		Audience:      "api",
		Leeway:        30 * time.Second,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	base := func(iss, aud string, exp, iat time.Duration) AssertionClaims {
		return AssertionClaims{SID: "s1", RegisteredClaims: gjwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    iss,
			Audience:  gjwt.ClaimStrings{aud},
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(exp)),
			IssuedAt:  gjwt.NewNumericDate(time.Now().Add(iat)),
		}}
	}

	tests := []struct {
		name   string
		claims AssertionClaims
		valid  bool
	}{
		{"valid", base("goGate", "api", time.Minute, 0), true},
		{"wrong issuer", base("other", "api", time.Minute, 0), false},
		{"wrong audience", base("goGate", "other-api", time.Minute, 0), false},
		{"expired within leeway", base("goGate", "api", -15*time.Second, -time.Minute), true},
		{"expired", base("goGate", "api", -2*time.Minute, -3*time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := signed(t, gjwt.SigningMethodEdDSA, priv, tt.claims, "")
			_, err := m.ParseAssertion(token)
			if tt.valid && err != nil {
				t.Fatalf("expected token to parse: %v", err)
			}
			if !tt.valid && err == nil {
				t.Fatal("expected token to be rejected")
			}
		})
	}
}

func TestParseAssertionUnknownKidFails(t *testing.T) {
	pub1, priv1 := newEdKeys(t)
	m, err := NewManager(Config{
		TTL:           time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv1,
		PublicKey:     pub1,
		KeyID:         "k1",
		VerifyKeys:    map[string][]byte{"k1": pub1},
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := AssertionClaims{SID: "s1", RegisteredClaims: gjwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		IssuedAt:  gjwt.NewNumericDate(time.Now()),
	}}
	if _, err := m.ParseAssertion(signed(t, gjwt.SigningMethodEdDSA, priv1, claims, "k2")); err == nil {
		t.Fatal("expected unknown kid failure")
	}
	if _, err := m.ParseAssertion(signed(t, gjwt.SigningMethodEdDSA, priv1, claims, "k1")); err != nil {
		t.Fatalf("expected known kid token to pass: %v", err)
	}
}

func TestParseAssertionRequiresSubjectAndSession(t *testing.T) {
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("0123456789abcdef0123456789abcdef")})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	claims := AssertionClaims{RegisteredClaims: gjwt.RegisteredClaims{
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		IssuedAt:  gjwt.NewNumericDate(time.Now()),
	}}
	token := signed(t, gjwt.SigningMethodHS256, []byte("0123456789abcdef0123456789abcdef"), claims, "")
	if _, err := m.ParseAssertion(token); err == nil {
		t.Fatal("expected assertion without subject to fail")
	}
}

func TestNewManagerValidation(t *testing.T) {
	pub, _ := newEdKeys(t)
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero ttl", Config{SigningMethod: MethodEd25519, PublicKey: pub}},
		{"large leeway", Config{TTL: time.Minute, Leeway: time.Hour, SigningMethod: MethodEd25519, PublicKey: pub}},
		{"hs256 without key", Config{TTL: time.Minute, SigningMethod: MethodHS256}},
		{"ed25519 without public key", Config{TTL: time.Minute, SigningMethod: MethodEd25519}},
		{"bad ed25519 key", Config{TTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: []byte("short")}},
		{"unknown method", Config{TTL: time.Minute, SigningMethod: "rs256"}},
	}
	for _, tt := range tests {
		if _, err := NewManager(tt.cfg); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}
