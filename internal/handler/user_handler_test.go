package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// --- モック定義 ---

// mockUserService はUserServiceInterfaceのモック実装。
type mockUserService struct {
	withdrawFn func(ctx context.Context, userID string) error
}

func (m *mockUserService) Withdraw(ctx context.Context, userID string) error {
	if m.withdrawFn != nil {
		return m.withdrawFn(ctx, userID)
	}
	return nil
}

// --- DELETE /api/users/me テスト ---

func TestUserHandler_Withdraw_Success(t *testing.T) {
	withdrawn := ""
	svc := &mockUserService{
		withdrawFn: func(ctx context.Context, userID string) error {
			withdrawn = userID
			return nil
		},
	}

	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/users/me", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Withdraw(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	if withdrawn != "user-123" {
		t.Errorf("withdrawn userID = %q, want %q", withdrawn, "user-123")
	}

	// 退会後はセッションCookieがクリアされること
	cookie := findCookie(t, resp, "session_id")
	if cookie == nil {
		t.Fatal("expected session_id cookie to be cleared")
	}
	if cookie.Value != "" || cookie.MaxAge != -1 {
		t.Errorf("cookie = (%q, MaxAge=%d), want cleared", cookie.Value, cookie.MaxAge)
	}
}

func TestUserHandler_Withdraw_NoUserID_ReturnsUnauthorized(t *testing.T) {
	called := false
	svc := &mockUserService{
		withdrawFn: func(ctx context.Context, userID string) error {
			called = true
			return nil
		},
	}

	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/users/me", nil)
	w := httptest.NewRecorder()

	h.Withdraw(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	if called {
		t.Error("Withdraw service must not be called without authentication")
	}
}

func TestUserHandler_Withdraw_ServiceError_ReturnsInternalServerError(t *testing.T) {
	svc := &mockUserService{
		withdrawFn: func(ctx context.Context, userID string) error {
			return errors.New("database connection lost")
		},
	}

	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/users/me", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Withdraw(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}

	errResp := parseAPIErrorResponse(t, w)
	if errResp["code"] != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want %q", errResp["code"], "INTERNAL_ERROR")
	}
}
