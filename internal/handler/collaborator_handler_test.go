package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/bookman/internal/model"
	"github.com/hitoshi/bookman/internal/repository"
)

// --- モック定義 ---

// mockCollaboratorService はCollaboratorServiceInterfaceのモック実装。
type mockCollaboratorService struct {
	listCollaboratorsFn  func(ctx context.Context, userID, bookID string) ([]repository.CollaboratorWithUser, error)
	addCollaboratorFn    func(ctx context.Context, userID, bookID, email string) (*repository.CollaboratorWithUser, error)
	removeCollaboratorFn func(ctx context.Context, userID, bookID, collaboratorID string) error
}

func (m *mockCollaboratorService) ListCollaborators(ctx context.Context, userID, bookID string) ([]repository.CollaboratorWithUser, error) {
	if m.listCollaboratorsFn != nil {
		return m.listCollaboratorsFn(ctx, userID, bookID)
	}
	return nil, nil
}

func (m *mockCollaboratorService) AddCollaborator(ctx context.Context, userID, bookID, email string) (*repository.CollaboratorWithUser, error) {
	if m.addCollaboratorFn != nil {
		return m.addCollaboratorFn(ctx, userID, bookID, email)
	}
	return nil, nil
}

func (m *mockCollaboratorService) RemoveCollaborator(ctx context.Context, userID, bookID, collaboratorID string) error {
	if m.removeCollaboratorFn != nil {
		return m.removeCollaboratorFn(ctx, userID, bookID, collaboratorID)
	}
	return nil
}

// --- テストヘルパー ---

func testCollaborator(id, bookID, collaboratorID, email, name string) repository.CollaboratorWithUser {
	return repository.CollaboratorWithUser{
		BookCollaborator: model.BookCollaborator{
			ID:             id,
			BookID:         bookID,
			CollaboratorID: collaboratorID,
			CreatedAt:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
		UserEmail: email,
		UserName:  name,
	}
}

// --- GET /api/books/:id/collaborators テスト ---

func TestCollaboratorHandler_ListCollaborators_Success(t *testing.T) {
	svc := &mockCollaboratorService{
		listCollaboratorsFn: func(ctx context.Context, userID, bookID string) ([]repository.CollaboratorWithUser, error) {
			if userID != "user-123" {
				t.Errorf("userID = %q, want %q", userID, "user-123")
			}
			if bookID != "book-1" {
				t.Errorf("bookID = %q, want %q", bookID, "book-1")
			}
			return []repository.CollaboratorWithUser{
				testCollaborator("bc-1", "book-1", "user-456", "bob@example.com", "bob"),
			}, nil
		},
	}

	h := NewCollaboratorHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/books/book-1/collaborators", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "book-1")
	w := httptest.NewRecorder()

	h.ListCollaborators(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var results []map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&results); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0]["email"] != "bob@example.com" {
		t.Errorf("email = %v, want %q", results[0]["email"], "bob@example.com")
	}
	if results[0]["name"] != "bob" {
		t.Errorf("name = %v, want %q", results[0]["name"], "bob")
	}
}

func TestCollaboratorHandler_ListCollaborators_NotOwner_ReturnsNotFound(t *testing.T) {
	// 著者以外からは共同編集者一覧を見せない
	svc := &mockCollaboratorService{
		listCollaboratorsFn: func(ctx context.Context, userID, bookID string) ([]repository.CollaboratorWithUser, error) {
			return nil, model.NewBookNotFoundError(bookID)
		},
	}

	h := NewCollaboratorHandler(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/books/book-1/collaborators", nil)
	req = withUserID(req, "not-the-author")
	req = withChiURLParam(req, "id", "book-1")
	w := httptest.NewRecorder()

	h.ListCollaborators(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

// --- POST /api/books/:id/collaborators テスト ---

func TestCollaboratorHandler_AddCollaborator_Success(t *testing.T) {
	svc := &mockCollaboratorService{
		addCollaboratorFn: func(ctx context.Context, userID, bookID, email string) (*repository.CollaboratorWithUser, error) {
			if email != "bob@example.com" {
				t.Errorf("email = %q, want %q", email, "bob@example.com")
			}
			added := testCollaborator("bc-1", bookID, "user-456", email, "bob")
			return &added, nil
		},
	}
	collector := &mockMetricsCollector{}

	h := NewCollaboratorHandler(svc, collector)

	body := `{"email": "bob@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/books/book-1/collaborators", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "book-1")
	w := httptest.NewRecorder()

	h.AddCollaborator(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["collaborator_id"] != "user-456" {
		t.Errorf("collaborator_id = %v, want %q", result["collaborator_id"], "user-456")
	}
	if result["book_id"] != "book-1" {
		t.Errorf("book_id = %v, want %q", result["book_id"], "book-1")
	}

	if collector.collaboratorsAdded != 1 {
		t.Errorf("collaboratorsAdded = %d, want 1", collector.collaboratorsAdded)
	}
}

func TestCollaboratorHandler_AddCollaborator_NoSuchUser_ReturnsBadRequest(t *testing.T) {
	svc := &mockCollaboratorService{
		addCollaboratorFn: func(ctx context.Context, userID, bookID, email string) (*repository.CollaboratorWithUser, error) {
			return nil, model.NewCollaboratorNoUserError()
		},
	}

	h := NewCollaboratorHandler(svc, nil)

	body := `{"email": "nobody@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/books/book-1/collaborators", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "book-1")
	w := httptest.NewRecorder()

	h.AddCollaborator(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	errResp := parseAPIErrorResponse(t, w)
	if errResp["code"] != model.ErrCodeCollaboratorNoUser {
		t.Errorf("code = %q, want %q", errResp["code"], model.ErrCodeCollaboratorNoUser)
	}
	if errResp["message"] != "User with this email does not exist." {
		t.Errorf("message = %q, want %q", errResp["message"], "User with this email does not exist.")
	}
}

func TestCollaboratorHandler_AddCollaborator_AlreadyExists_ReturnsBadRequest(t *testing.T) {
	svc := &mockCollaboratorService{
		addCollaboratorFn: func(ctx context.Context, userID, bookID, email string) (*repository.CollaboratorWithUser, error) {
			return nil, model.NewCollaboratorExistsError()
		},
	}

	h := NewCollaboratorHandler(svc, nil)

	body := `{"email": "bob@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/books/book-1/collaborators", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "book-1")
	w := httptest.NewRecorder()

	h.AddCollaborator(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	errResp := parseAPIErrorResponse(t, w)
	if errResp["code"] != model.ErrCodeCollaboratorExists {
		t.Errorf("code = %q, want %q", errResp["code"], model.ErrCodeCollaboratorExists)
	}
	if errResp["message"] != "User with this email is already a collaborator." {
		t.Errorf("message = %q, want %q", errResp["message"], "User with this email is already a collaborator.")
	}
}

func TestCollaboratorHandler_AddCollaborator_AuthorSelf_ReturnsBadRequest(t *testing.T) {
	svc := &mockCollaboratorService{
		addCollaboratorFn: func(ctx context.Context, userID, bookID, email string) (*repository.CollaboratorWithUser, error) {
			return nil, model.NewCollaboratorIsAuthorError()
		},
	}

	h := NewCollaboratorHandler(svc, nil)

	body := `{"email": "author@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/books/book-1/collaborators", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "book-1")
	w := httptest.NewRecorder()

	h.AddCollaborator(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	errResp := parseAPIErrorResponse(t, w)
	if errResp["code"] != model.ErrCodeCollaboratorIsAuthor {
		t.Errorf("code = %q, want %q", errResp["code"], model.ErrCodeCollaboratorIsAuthor)
	}
	if errResp["message"] != "The author of the book cannot be added as a collaborator." {
		t.Errorf("message = %q, want %q", errResp["message"], "The author of the book cannot be added as a collaborator.")
	}
}

func TestCollaboratorHandler_AddCollaborator_InvalidJSON_ReturnsBadRequest(t *testing.T) {
	h := NewCollaboratorHandler(&mockCollaboratorService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/books/book-1/collaborators", bytes.NewBufferString(`{broken`))
	req.Header.Set("Content-Type", "application/json")
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "book-1")
	w := httptest.NewRecorder()

	h.AddCollaborator(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

// --- DELETE /api/books/:id/collaborators/:collaboratorID テスト ---

func TestCollaboratorHandler_RemoveCollaborator_Success(t *testing.T) {
	removed := ""
	svc := &mockCollaboratorService{
		removeCollaboratorFn: func(ctx context.Context, userID, bookID, collaboratorID string) error {
			removed = collaboratorID
			return nil
		},
	}

	h := NewCollaboratorHandler(svc, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/books/book-1/collaborators/user-456", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "book-1")
	req = withChiURLParam(req, "collaboratorID", "user-456")
	w := httptest.NewRecorder()

	h.RemoveCollaborator(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	if removed != "user-456" {
		t.Errorf("removed = %q, want %q", removed, "user-456")
	}
}

func TestCollaboratorHandler_RemoveCollaborator_NotFound_ReturnsNotFound(t *testing.T) {
	svc := &mockCollaboratorService{
		removeCollaboratorFn: func(ctx context.Context, userID, bookID, collaboratorID string) error {
			return model.NewCollaboratorNotFoundError()
		},
	}

	h := NewCollaboratorHandler(svc, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/books/book-1/collaborators/user-999", nil)
	req = withUserID(req, "user-123")
	req = withChiURLParam(req, "id", "book-1")
	req = withChiURLParam(req, "collaboratorID", "user-999")
	w := httptest.NewRecorder()

	h.RemoveCollaborator(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}

	errResp := parseAPIErrorResponse(t, w)
	if errResp["code"] != model.ErrCodeCollaboratorNotFound {
		t.Errorf("code = %q, want %q", errResp["code"], model.ErrCodeCollaboratorNotFound)
	}
}
