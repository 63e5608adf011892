package auth

import (
	"strings"
	"testing"
	"time"

	"huchenghe/internal/entity"
)

func TestNewManagerAndTokenLifecycle(t *testing.T) {
	mgr, err := NewManager("test-secret", "issuer", time.Minute*30)
	if err != nil {
		t.Fatalf("unexpected error creating manager: %v", err)
	}

	user := &entity.DbUser{ID: 42, Phone: "13800000000", Role: entity.UserRoleAdmin}
	token, expiresAt, err := mgr.GenerateToken(user)
	if err != nil {
		t.Fatalf("unexpected error generating token: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if expiresAt.Before(time.Now()) {
		t.Fatal("expected future expiry time")
	}

	claims, err := mgr.ParseToken(token)
	if err != nil {
		t.Fatalf("unexpected error parsing token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id %d, got %d", user.ID, claims.UserID)
	}
	if !strings.EqualFold(claims.Phone, user.Phone) {
		t.Fatalf("expected phone %s, got %s", user.Phone, claims.Phone)
	}
	if claims.Role != user.Role {
		t.Fatalf("expected role %s, got %s", user.Role, claims.Role)
	}
}

func TestNewManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager("   ", "", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	issuer, err := NewManager("secret-a", "", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	verifier, err := NewManager("secret-b", "", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, _, err := issuer.GenerateToken(&entity.DbUser{ID: 1, Phone: "1", Role: entity.UserRoleUser})
	if err != nil {
		t.Fatalf("unexpected error generating token: %v", err)
	}
	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}

func TestParseTokenRejectsExpiredAndForeignIssuer(t *testing.T) {
	mgr, err := NewManager("secret", "huchenghe", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	issued := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	mgr.now = func() time.Time { return issued }

	token, expiresAt, err := mgr.GenerateToken(&entity.DbUser{ID: 7, Phone: "13800000000", Username: "admin", Role: entity.UserRoleAdmin})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !expiresAt.Equal(issued.Add(time.Minute)) {
		t.Errorf("unexpected expiry %v", expiresAt)
	}

	claims, err := mgr.ParseToken(token)
	if err != nil {
		t.Fatalf("parse within validity: %v", err)
	}
	if !claims.IsAdmin() || claims.Username != "admin" || claims.Subject != "7" {
		t.Errorf("unexpected claims %+v", claims)
	}

	// 超过有效期加上时钟容差
	mgr.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := mgr.ParseToken(token); err == nil {
		t.Error("expected expired token to be rejected")
	}

	other, err := NewManager("secret", "someone-else", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	other.now = func() time.Time { return issued }
	if _, err := other.ParseToken(token); err == nil {
		t.Error("expected token from another issuer to be rejected")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "标准格式", header: "Bearer abc.def", want: "abc.def"},
		{name: "大小写不敏感", header: "bearer   abc.def ", want: "abc.def"},
		{name: "缺少头", header: "  ", wantErr: ErrMissingToken},
		{name: "其他方案", header: "Basic dXNlcg==", wantErr: ErrMalformedHeader},
		{name: "只有方案", header: "Bearer", wantErr: ErrMalformedHeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BearerToken(tt.header)
			if err != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
