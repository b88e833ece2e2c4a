package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hitoshi/bookman/internal/model"
)

func newCollaboratorRepoMock(t *testing.T) (*PostgresCollaboratorRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresCollaboratorRepo(db), mock
}

func TestPostgresCollaboratorRepo_FindByBookAndUser_Found(t *testing.T) {
	repo, mock := newCollaboratorRepoMock(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "book_id", "collaborator_id", "created_at", "updated_at"}).
		AddRow("collab-1", "book-1", "user-2", now, now)

	mock.ExpectQuery(`FROM book_collaborators WHERE book_id = \$1 AND collaborator_id = \$2`).
		WithArgs("book-1", "user-2").
		WillReturnRows(rows)

	got, err := repo.FindByBookAndUser(context.Background(), "book-1", "user-2")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got == nil || got.ID != "collab-1" || got.CollaboratorID != "user-2" {
		t.Errorf("got %+v, want collab-1/user-2", got)
	}
}

func TestPostgresCollaboratorRepo_FindByBookAndUser_NotFound_ReturnsNil(t *testing.T) {
	repo, mock := newCollaboratorRepoMock(t)

	mock.ExpectQuery(`FROM book_collaborators WHERE book_id = \$1 AND collaborator_id = \$2`).
		WithArgs("book-1", "stranger").
		WillReturnRows(sqlmock.NewRows([]string{"id", "book_id", "collaborator_id", "created_at", "updated_at"}))

	got, err := repo.FindByBookAndUser(context.Background(), "book-1", "stranger")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing row, got %+v", got)
	}
}

// 共同編集者一覧がusersテーブルとJOINしてメール・ユーザー名を返すこと
func TestPostgresCollaboratorRepo_ListByBookWithUserInfo(t *testing.T) {
	repo, mock := newCollaboratorRepoMock(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "book_id", "collaborator_id", "created_at", "updated_at", "email", "name"}).
		AddRow("collab-1", "book-1", "user-2", now, now, "hanako@example.com", "hanako").
		AddRow("collab-2", "book-1", "user-3", now.Add(time.Minute), now, "jiro@example.com", "jiro")

	mock.ExpectQuery(`JOIN users u ON c.collaborator_id = u.id`).
		WithArgs("book-1").
		WillReturnRows(rows)

	got, err := repo.ListByBookWithUserInfo(context.Background(), "book-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want %d", len(got), 2)
	}
	if got[0].UserEmail != "hanako@example.com" || got[0].UserName != "hanako" {
		t.Errorf("got[0] = %+v, want hanako@example.com/hanako", got[0])
	}
}

func TestPostgresCollaboratorRepo_Create(t *testing.T) {
	repo, mock := newCollaboratorRepoMock(t)

	now := time.Now()
	collab := &model.BookCollaborator{
		ID:             "collab-1",
		BookID:         "book-1",
		CollaboratorID: "user-2",
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	mock.ExpectExec(`INSERT INTO book_collaborators`).
		WithArgs(collab.ID, collab.BookID, collab.CollaboratorID, collab.CreatedAt, collab.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), collab); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresCollaboratorRepo_DeleteByBookAndUser_NotFound_ReturnsError(t *testing.T) {
	repo, mock := newCollaboratorRepoMock(t)

	mock.ExpectExec(`DELETE FROM book_collaborators WHERE book_id = \$1 AND collaborator_id = \$2`).
		WithArgs("book-1", "stranger").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeleteByBookAndUser(context.Background(), "book-1", "stranger"); err == nil {
		t.Fatal("expected error for missing row, got nil")
	}
}

func TestPostgresCollaboratorRepo_DeleteByUser(t *testing.T) {
	repo, mock := newCollaboratorRepoMock(t)

	mock.ExpectExec(`DELETE FROM book_collaborators WHERE collaborator_id = \$1`).
		WithArgs("user-2").
		WillReturnResult(sqlmock.NewResult(0, 3))

	if err := repo.DeleteByUser(context.Background(), "user-2"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

// --- インターフェース適合の検証 ---

func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
	var _ CredentialRepository = (*PostgresCredentialRepo)(nil)
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
	var _ BookRepository = (*PostgresBookRepo)(nil)
	var _ SectionRepository = (*PostgresSectionRepo)(nil)
	var _ CollaboratorRepository = (*PostgresCollaboratorRepo)(nil)
}
