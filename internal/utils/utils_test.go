package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTRoundTrip(t *testing.T) {
	tok, err := SignJWT("s3cret", "u1", "manager", time.Minute)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	c, err := ParseJWT("s3cret", tok)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if c.UserID != "u1" || c.Role != "manager" {
		t.Errorf("claims = %+v", c)
	}
	if _, err := ParseJWT("other", tok); err == nil {
		t.Error("wrong secret must fail")
	}
	expired, _ := SignJWT("s3cret", "u1", "client", -time.Minute)
	if _, err := ParseJWT("s3cret", expired); err == nil {
		t.Error("expired token must fail")
	}
}

func TestParseJWT_RejectsForeignTokens(t *testing.T) {
	now := time.Now()
	sign := func(c Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("s3cret"))
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
	exp := jwt.NewNumericDate(now.Add(time.Hour))

	otherIssuer := sign(Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{Issuer: "elsewhere", Subject: "u1", ExpiresAt: exp}})
	if _, err := ParseJWT("s3cret", otherIssuer); err == nil {
		t.Error("foreign issuer must fail")
	}
	noExpiry := sign(Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer, Subject: "u1"}})
	if _, err := ParseJWT("s3cret", noExpiry); err == nil {
		t.Error("token without expiry must fail")
	}
	noSubject := sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer, ExpiresAt: exp}})
	if _, err := ParseJWT("s3cret", noSubject); !errors.Is(err, ErrMissingSubject) {
		t.Errorf("expected ErrMissingSubject, got %v", err)
	}
}

func TestPasswordHash(t *testing.T) {
	BcryptCost = 4
	h, err := HashPassword("hunter22")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(h, "hunter22") || CheckPassword(h, "hunter23") {
		t.Error("CheckPassword mismatch")
	}
	if CheckPassword("", "") {
		t.Error("empty hash must never match")
	}
	if _, err := HashPassword("abc"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("short password: %v", err)
	}
	if _, err := HashPassword(strings.Repeat("x", 73)); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("long password: %v", err)
	}
}

func TestQueryInt(t *testing.T) {
	q := url.Values{"limit": {"25"}, "bad": {"x"}, "neg": {"-3"}}
	if QueryInt(q, "limit", 10) != 25 || QueryInt(q, "bad", 10) != 10 || QueryInt(q, "neg", 10) != 10 || QueryInt(q, "missing", 7) != 7 {
		t.Error("QueryInt mismatch")
	}
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusTeapot, "nope")
	if rec.Code != http.StatusTeapot || rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("code=%d headers=%v", rec.Code, rec.Header())
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["error"] != "nope" {
		t.Errorf("body = %v %v", body, err)
	}
}
