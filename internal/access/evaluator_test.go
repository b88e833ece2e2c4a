package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/bookman/internal/model"
)

// --- モック ---

type mockCollabFinder struct {
	findFn func(ctx context.Context, bookID, userID string) (*model.BookCollaborator, error)
}

func (m *mockCollabFinder) FindByBookAndUser(ctx context.Context, bookID, userID string) (*model.BookCollaborator, error) {
	if m.findFn != nil {
		return m.findFn(ctx, bookID, userID)
	}
	return nil, nil
}

func testBook(authorID string) *model.Book {
	now := time.Now()
	return &model.Book{
		ID:        "book-1",
		Name:      "Novel",
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// --- テスト ---

// 著者本人のみがIsOwnerで真になることを検証
func TestEvaluator_IsOwner(t *testing.T) {
	e := NewEvaluator(&mockCollabFinder{})
	book := testBook("owner-1")

	if !e.IsOwner("owner-1", book) {
		t.Error("IsOwner(owner) = false, want true")
	}
	if e.IsOwner("other-1", book) {
		t.Error("IsOwner(other) = true, want false")
	}
	if e.IsOwner("owner-1", nil) {
		t.Error("IsOwner(nil book) = true, want false")
	}
}

// 共同編集者行の有無でIsCollaboratorが判定されることを検証
func TestEvaluator_IsCollaborator(t *testing.T) {
	e := NewEvaluator(&mockCollabFinder{
		findFn: func(ctx context.Context, bookID, userID string) (*model.BookCollaborator, error) {
			if userID == "collab-1" {
				return &model.BookCollaborator{ID: "bc-1", BookID: bookID, CollaboratorID: userID}, nil
			}
			return nil, nil
		},
	})
	book := testBook("owner-1")

	got, err := e.IsCollaborator(context.Background(), "collab-1", book)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got {
		t.Error("IsCollaborator(collab) = false, want true")
	}

	got, err = e.IsCollaborator(context.Background(), "stranger-1", book)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got {
		t.Error("IsCollaborator(stranger) = true, want false")
	}
}

// CanViewが著者と共同編集者の両方で真になることを検証
func TestEvaluator_CanView(t *testing.T) {
	e := NewEvaluator(&mockCollabFinder{
		findFn: func(ctx context.Context, bookID, userID string) (*model.BookCollaborator, error) {
			if userID == "collab-1" {
				return &model.BookCollaborator{ID: "bc-1"}, nil
			}
			return nil, nil
		},
	})
	book := testBook("owner-1")

	cases := []struct {
		userID string
		want   bool
	}{
		{"owner-1", true},
		{"collab-1", true},
		{"stranger-1", false},
	}
	for _, tc := range cases {
		got, err := e.CanView(context.Background(), tc.userID, book)
		if err != nil {
			t.Fatalf("CanView(%s): unexpected error: %v", tc.userID, err)
		}
		if got != tc.want {
			t.Errorf("CanView(%s) = %v, want %v", tc.userID, got, tc.want)
		}
	}
}

// CanEditSectionsがCanViewと同じ範囲を許可することを検証
func TestEvaluator_CanEditSections_SameAsCanView(t *testing.T) {
	e := NewEvaluator(&mockCollabFinder{
		findFn: func(ctx context.Context, bookID, userID string) (*model.BookCollaborator, error) {
			if userID == "collab-1" {
				return &model.BookCollaborator{ID: "bc-1"}, nil
			}
			return nil, nil
		},
	})
	book := testBook("owner-1")

	for _, userID := range []string{"owner-1", "collab-1", "stranger-1"} {
		view, err := e.CanView(context.Background(), userID, book)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		edit, err := e.CanEditSections(context.Background(), userID, book)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if view != edit {
			t.Errorf("CanEditSections(%s) = %v, CanView = %v, want equal", userID, edit, view)
		}
	}
}

// CanManageBookが著者のみに許可されることを検証
func TestEvaluator_CanManageBook_OwnerOnly(t *testing.T) {
	e := NewEvaluator(&mockCollabFinder{
		findFn: func(ctx context.Context, bookID, userID string) (*model.BookCollaborator, error) {
			return &model.BookCollaborator{ID: "bc-1"}, nil
		},
	})
	book := testBook("owner-1")

	if !e.CanManageBook("owner-1", book) {
		t.Error("CanManageBook(owner) = false, want true")
	}
	// 共同編集者であってもブック管理はできない
	if e.CanManageBook("collab-1", book) {
		t.Error("CanManageBook(collab) = true, want false")
	}
}

// 永続化層のエラーが呼び出し側に伝播することを検証
func TestEvaluator_IsCollaborator_RepoError(t *testing.T) {
	e := NewEvaluator(&mockCollabFinder{
		findFn: func(ctx context.Context, bookID, userID string) (*model.BookCollaborator, error) {
			return nil, errors.New("connection refused")
		},
	})

	_, err := e.IsCollaborator(context.Background(), "user-1", testBook("owner-1"))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
