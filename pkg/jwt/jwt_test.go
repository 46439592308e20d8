package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/feelins/flask-admin/config"
)

func newTestManager(ttl time.Duration) *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret: "test-secret-key-for-unit-testing-2026",
		TokenTTL:  ttl,
	})
}

func TestGenerateAndParseSessionToken(t *testing.T) {
	m := newTestManager(time.Hour)

	token, err := m.GenerateSessionToken("admin")
	if err != nil {
		t.Fatalf("GenerateSessionToken 失败: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken 失败: %v", err)
	}

	if claims.Username != "admin" {
		t.Errorf("期望 Username=admin，实际=%s", claims.Username)
	}
	if claims.Issuer != "voice-admin" {
		t.Errorf("期望 Issuer=voice-admin，实际=%s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("JTI 不应为空")
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 59*time.Minute || ttl > 61*time.Minute {
		t.Errorf("TTL 期望约1h，实际=%v", ttl)
	}
}

func TestDefaultTTL(t *testing.T) {
	m := newTestManager(0)
	if m.TTL() != 12*time.Hour {
		t.Errorf("默认 TTL 期望 12h，实际=%v", m.TTL())
	}
}

func TestParseToken_Expired(t *testing.T) {
	m := newTestManager(-time.Minute)

	token, err := m.GenerateSessionToken("admin")
	if err != nil {
		t.Fatalf("GenerateSessionToken 失败: %v", err)
	}

	if _, err := m.ParseToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("期望 ErrTokenExpired，实际: %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	m := newTestManager(time.Hour)
	other := NewManager(&config.AuthConfig{JWTSecret: "another-secret-key-0123456789", TokenTTL: time.Hour})

	token, _ := other.GenerateSessionToken("admin")
	if _, err := m.ParseToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}
}

func TestParseToken_Garbage(t *testing.T) {
	m := newTestManager(time.Hour)
	if _, err := m.ParseToken("not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}
}
