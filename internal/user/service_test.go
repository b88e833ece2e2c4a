package user

import (
	"context"
	"testing"

	"github.com/hitoshi/bookman/internal/model"
)

// --- モック ---

type mockUserRepo struct {
	findByIDFn   func(ctx context.Context, id string) (*model.User, error)
	deleteByIDFn func(ctx context.Context, id string) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) FindByName(ctx context.Context, name string) (*model.User, error) {
	return nil, nil
}
func (m *mockUserRepo) CreateWithCredential(ctx context.Context, user *model.User, cred *model.Credential) error {
	return nil
}
func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	return m.deleteByIDFn(ctx, id)
}

type mockSessionRepo struct {
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	return nil
}
func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return nil, nil
}
func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	return nil
}
func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	return m.deleteByUserIDFn(ctx, userID)
}
func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

type mockBookDeleter struct {
	listByAuthorFn  func(ctx context.Context, authorID string) ([]*model.Book, error)
	deleteCascadeFn func(ctx context.Context, bookID string) error
}

func (m *mockBookDeleter) ListByAuthor(ctx context.Context, authorID string) ([]*model.Book, error) {
	return m.listByAuthorFn(ctx, authorID)
}
func (m *mockBookDeleter) DeleteCascade(ctx context.Context, bookID string) error {
	return m.deleteCascadeFn(ctx, bookID)
}

type mockCollabDeleter struct {
	deleteByUserFn func(ctx context.Context, userID string) error
}

func (m *mockCollabDeleter) DeleteByUser(ctx context.Context, userID string) error {
	return m.deleteByUserFn(ctx, userID)
}

// --- テスト ---

// TestService_Withdraw は退会処理が全関連データを削除することを検証する。
func TestService_Withdraw(t *testing.T) {
	userDeleteCalled := false
	sessionDeleteCalled := false
	collabDeleteCalled := false
	deletedBooks := []string{}

	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Email: "test@example.com"}, nil
		},
		deleteByIDFn: func(ctx context.Context, id string) error {
			userDeleteCalled = true
			return nil
		},
	}
	sessionRepo := &mockSessionRepo{
		deleteByUserIDFn: func(ctx context.Context, userID string) error {
			sessionDeleteCalled = true
			return nil
		},
	}
	bookDeleter := &mockBookDeleter{
		listByAuthorFn: func(ctx context.Context, authorID string) ([]*model.Book, error) {
			return []*model.Book{
				{ID: "book-1", AuthorID: authorID},
				{ID: "book-2", AuthorID: authorID},
			}, nil
		},
		deleteCascadeFn: func(ctx context.Context, bookID string) error {
			deletedBooks = append(deletedBooks, bookID)
			return nil
		},
	}
	collabDeleter := &mockCollabDeleter{
		deleteByUserFn: func(ctx context.Context, userID string) error {
			collabDeleteCalled = true
			return nil
		},
	}

	svc := NewService(userRepo, sessionRepo, bookDeleter, collabDeleter)

	err := svc.Withdraw(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Withdraw returned error: %v", err)
	}
	if len(deletedBooks) != 2 {
		t.Errorf("deleted books = %v, want 2 books", deletedBooks)
	}
	if !collabDeleteCalled {
		t.Error("expected collaborator rows DeleteByUser to be called")
	}
	if !sessionDeleteCalled {
		t.Error("expected sessions DeleteByUserID to be called")
	}
	if !userDeleteCalled {
		t.Error("expected user DeleteByID to be called")
	}
}

// TestService_Withdraw_UserNotFound は存在しないユーザーの退会がエラーになることを検証する。
func TestService_Withdraw_UserNotFound(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, nil
		},
	}

	svc := NewService(userRepo, nil, nil, nil)

	err := svc.Withdraw(context.Background(), "nonexistent-user")
	if err == nil {
		t.Fatal("expected error for nonexistent user, got nil")
	}
}
