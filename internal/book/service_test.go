package book

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/bookman/internal/cache"
	"github.com/hitoshi/bookman/internal/model"
	"github.com/hitoshi/bookman/internal/repository"
)

// --- モック ---

type mockBookRepo struct {
	findVisibleByIDFn   func(ctx context.Context, bookID, userID string) (*model.Book, error)
	findByIDAndAuthorFn func(ctx context.Context, bookID, authorID string) (*model.Book, error)
	listVisibleByUserFn func(ctx context.Context, userID string) ([]*model.Book, error)
	createFn            func(ctx context.Context, book *model.Book) error
	updateNameFn        func(ctx context.Context, bookID, name string) error
	deleteCascadeFn     func(ctx context.Context, bookID string) error
}

func (m *mockBookRepo) FindVisibleByID(ctx context.Context, bookID, userID string) (*model.Book, error) {
	if m.findVisibleByIDFn != nil {
		return m.findVisibleByIDFn(ctx, bookID, userID)
	}
	return nil, nil
}
func (m *mockBookRepo) FindByIDAndAuthor(ctx context.Context, bookID, authorID string) (*model.Book, error) {
	if m.findByIDAndAuthorFn != nil {
		return m.findByIDAndAuthorFn(ctx, bookID, authorID)
	}
	return nil, nil
}
func (m *mockBookRepo) ListVisibleByUser(ctx context.Context, userID string) ([]*model.Book, error) {
	if m.listVisibleByUserFn != nil {
		return m.listVisibleByUserFn(ctx, userID)
	}
	return nil, nil
}
func (m *mockBookRepo) ListByAuthor(ctx context.Context, authorID string) ([]*model.Book, error) {
	return nil, nil
}
func (m *mockBookRepo) Create(ctx context.Context, book *model.Book) error {
	if m.createFn != nil {
		return m.createFn(ctx, book)
	}
	return nil
}
func (m *mockBookRepo) UpdateName(ctx context.Context, bookID, name string) error {
	if m.updateNameFn != nil {
		return m.updateNameFn(ctx, bookID, name)
	}
	return nil
}
func (m *mockBookRepo) DeleteCascade(ctx context.Context, bookID string) error {
	if m.deleteCascadeFn != nil {
		return m.deleteCascadeFn(ctx, bookID)
	}
	return nil
}

type mockCollabRepo struct {
	listByBookWithUserInfoFn func(ctx context.Context, bookID string) ([]repository.CollaboratorWithUser, error)
}

func (m *mockCollabRepo) FindByBookAndUser(ctx context.Context, bookID, userID string) (*model.BookCollaborator, error) {
	return nil, nil
}
func (m *mockCollabRepo) ListByBookWithUserInfo(ctx context.Context, bookID string) ([]repository.CollaboratorWithUser, error) {
	if m.listByBookWithUserInfoFn != nil {
		return m.listByBookWithUserInfoFn(ctx, bookID)
	}
	return nil, nil
}
func (m *mockCollabRepo) Create(ctx context.Context, collab *model.BookCollaborator) error {
	return nil
}
func (m *mockCollabRepo) DeleteByBookAndUser(ctx context.Context, bookID, userID string) error {
	return nil
}
func (m *mockCollabRepo) DeleteByUser(ctx context.Context, userID string) error {
	return nil
}

func newTestCache(t *testing.T) (*cache.BookListCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return cache.NewBookListCache(client, time.Minute, logger), mr
}

// --- テスト ---

// TestService_ListBooks は可視ブック一覧の取得を検証する。
func TestService_ListBooks(t *testing.T) {
	now := time.Now()
	bookRepo := &mockBookRepo{
		listVisibleByUserFn: func(ctx context.Context, userID string) ([]*model.Book, error) {
			return []*model.Book{
				{ID: "book-1", Name: "My Novel", AuthorID: userID, CreatedAt: now},
				{ID: "book-2", Name: "Shared Draft", AuthorID: "user-other", CreatedAt: now},
			}, nil
		},
	}

	svc := NewService(bookRepo, &mockCollabRepo{}, nil)

	books, err := svc.ListBooks(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListBooks returned error: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected 2 books, got %d", len(books))
	}
	if books[1].AuthorID != "user-other" {
		t.Error("expected collaborated book to appear in the list")
	}
}

// TestService_ListBooks_CacheHit は2回目の一覧取得がキャッシュから
// 返り、リポジトリへ再問い合わせしないことを検証する。
func TestService_ListBooks_CacheHit(t *testing.T) {
	calls := 0
	bookRepo := &mockBookRepo{
		listVisibleByUserFn: func(ctx context.Context, userID string) ([]*model.Book, error) {
			calls++
			return []*model.Book{{ID: "book-1", Name: "My Novel", AuthorID: userID}}, nil
		},
	}
	listCache, _ := newTestCache(t)

	svc := NewService(bookRepo, &mockCollabRepo{}, listCache)

	for i := 0; i < 2; i++ {
		books, err := svc.ListBooks(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("ListBooks returned error: %v", err)
		}
		if len(books) != 1 || books[0].ID != "book-1" {
			t.Fatalf("unexpected books: %+v", books)
		}
	}
	if calls != 1 {
		t.Errorf("repository calls = %d, want 1", calls)
	}
}

// TestService_GetBook_NotVisible は可視範囲外のブックがNOT_FOUNDに
// なることを検証する。
func TestService_GetBook_NotVisible(t *testing.T) {
	svc := NewService(&mockBookRepo{}, &mockCollabRepo{}, nil)

	_, err := svc.GetBook(context.Background(), "user-1", "book-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeBookNotFound {
		t.Fatalf("expected BOOK_NOT_FOUND, got %v", err)
	}
}

// TestService_CreateBook はブック作成を検証する。
func TestService_CreateBook(t *testing.T) {
	var created *model.Book
	bookRepo := &mockBookRepo{
		createFn: func(ctx context.Context, book *model.Book) error {
			created = book
			return nil
		},
	}

	svc := NewService(bookRepo, &mockCollabRepo{}, nil)

	book, err := svc.CreateBook(context.Background(), "user-1", "  My Novel  ")
	if err != nil {
		t.Fatalf("CreateBook returned error: %v", err)
	}
	if created == nil {
		t.Fatal("expected book to be created")
	}
	if book.Name != "My Novel" {
		t.Errorf("Name = %q, want %q (trimmed)", book.Name, "My Novel")
	}
	if book.AuthorID != "user-1" {
		t.Errorf("AuthorID = %q, want %q", book.AuthorID, "user-1")
	}
}

// TestService_CreateBook_Validation はブック名の検証を確認する。
func TestService_CreateBook_Validation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode string
	}{
		{"空の名前", "   ", model.ErrCodeEmptyBookName},
		{"長すぎる名前", strings.Repeat("あ", model.BookNameMaxLength+1), model.ErrCodeBookNameTooLong},
	}

	svc := NewService(&mockBookRepo{}, &mockCollabRepo{}, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateBook(context.Background(), "user-1", tt.input)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", apiErr.Code, tt.wantCode)
			}
		})
	}
}

// TestService_CreateBook_MaxLengthName は上限ちょうどの名前が
// 受理されることを検証する。
func TestService_CreateBook_MaxLengthName(t *testing.T) {
	svc := NewService(&mockBookRepo{}, &mockCollabRepo{}, nil)

	if _, err := svc.CreateBook(context.Background(), "user-1", strings.Repeat("あ", model.BookNameMaxLength)); err != nil {
		t.Fatalf("CreateBook returned error: %v", err)
	}
}

// TestService_UpdateBook は著者によるブック名変更を検証する。
func TestService_UpdateBook(t *testing.T) {
	updatedName := ""
	bookRepo := &mockBookRepo{
		findByIDAndAuthorFn: func(ctx context.Context, bookID, authorID string) (*model.Book, error) {
			return &model.Book{ID: bookID, Name: "Old Name", AuthorID: authorID}, nil
		},
		updateNameFn: func(ctx context.Context, bookID, name string) error {
			updatedName = name
			return nil
		},
	}

	svc := NewService(bookRepo, &mockCollabRepo{}, nil)

	book, err := svc.UpdateBook(context.Background(), "user-1", "book-1", "New Name")
	if err != nil {
		t.Fatalf("UpdateBook returned error: %v", err)
	}
	if updatedName != "New Name" || book.Name != "New Name" {
		t.Errorf("updated name = %q / %q, want %q", updatedName, book.Name, "New Name")
	}
}

// TestService_UpdateBook_NotAuthor は共同編集者によるブック名変更が
// NOT_FOUNDになることを検証する。
func TestService_UpdateBook_NotAuthor(t *testing.T) {
	svc := NewService(&mockBookRepo{}, &mockCollabRepo{}, nil)

	_, err := svc.UpdateBook(context.Background(), "user-collab", "book-1", "New Name")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeBookNotFound {
		t.Fatalf("expected BOOK_NOT_FOUND, got %v", err)
	}
}

// TestService_DeleteBook は著者によるブック削除と、著者・共同編集者
// 双方のキャッシュが無効化されることを検証する。
func TestService_DeleteBook(t *testing.T) {
	deleted := ""
	bookRepo := &mockBookRepo{
		findByIDAndAuthorFn: func(ctx context.Context, bookID, authorID string) (*model.Book, error) {
			return &model.Book{ID: bookID, Name: "My Novel", AuthorID: authorID}, nil
		},
		deleteCascadeFn: func(ctx context.Context, bookID string) error {
			deleted = bookID
			return nil
		},
	}
	collabRepo := &mockCollabRepo{
		listByBookWithUserInfoFn: func(ctx context.Context, bookID string) ([]repository.CollaboratorWithUser, error) {
			return []repository.CollaboratorWithUser{
				{BookCollaborator: model.BookCollaborator{BookID: bookID, CollaboratorID: "user-collab"}},
			}, nil
		},
	}
	listCache, _ := newTestCache(t)
	listCache.Set(context.Background(), "user-1", []*model.Book{{ID: "book-1"}})
	listCache.Set(context.Background(), "user-collab", []*model.Book{{ID: "book-1"}})

	svc := NewService(bookRepo, collabRepo, listCache)

	if err := svc.DeleteBook(context.Background(), "user-1", "book-1"); err != nil {
		t.Fatalf("DeleteBook returned error: %v", err)
	}
	if deleted != "book-1" {
		t.Errorf("deleted book = %q, want %q", deleted, "book-1")
	}
	if _, ok := listCache.Get(context.Background(), "user-1"); ok {
		t.Error("expected author cache to be invalidated")
	}
	if _, ok := listCache.Get(context.Background(), "user-collab"); ok {
		t.Error("expected collaborator cache to be invalidated")
	}
}

// TestService_DeleteBook_NotAuthor は著者以外によるブック削除が
// NOT_FOUNDになることを検証する。
func TestService_DeleteBook_NotAuthor(t *testing.T) {
	svc := NewService(&mockBookRepo{}, &mockCollabRepo{}, nil)

	err := svc.DeleteBook(context.Background(), "user-collab", "book-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeBookNotFound {
		t.Fatalf("expected BOOK_NOT_FOUND, got %v", err)
	}
}
