// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/bookman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByName はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
	FindByName(ctx context.Context, name string) (*model.User, error)

	// CreateWithCredential はユーザーと認証情報を同一トランザクションで作成する。
	CreateWithCredential(ctx context.Context, user *model.User, credential *model.Credential) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するcredentialsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// CredentialRepository はパスワード認証情報の永続化インターフェース。
type CredentialRepository interface {
	// FindByUserID は指定ユーザーの認証情報を取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.Credential, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// BookRepository はブックデータの永続化インターフェース。
// 可視範囲（著者または共同編集者）のスコープはクエリレベルで適用する。
type BookRepository interface {
	// FindVisibleByID は指定ユーザーから可視のブックを取得する。
	// 著者でも共同編集者でもない場合は、ブックが存在してもnilを返す。
	FindVisibleByID(ctx context.Context, bookID, userID string) (*model.Book, error)

	// FindByIDAndAuthor は指定ユーザーが著者であるブックを取得する。
	// 著者でない場合は、ブックが存在してもnilを返す。
	FindByIDAndAuthor(ctx context.Context, bookID, authorID string) (*model.Book, error)

	// ListVisibleByUser はユーザーから可視のブック一覧
	// （著者のブック ∪ 共同編集者のブック）を作成日時順で返す。
	ListVisibleByUser(ctx context.Context, userID string) ([]*model.Book, error)

	// ListByAuthor は指定ユーザーが著者であるブック一覧を返す。
	ListByAuthor(ctx context.Context, authorID string) ([]*model.Book, error)

	// Create はブックを作成する。
	Create(ctx context.Context, book *model.Book) error

	// UpdateName はブック名を更新する。
	UpdateName(ctx context.Context, bookID, name string) error

	// DeleteCascade はブックと、その全セクションおよび共同編集者行を
	// 同一トランザクションで削除する。
	DeleteCascade(ctx context.Context, bookID string) error
}

// SectionRepository はセクションデータの永続化インターフェース。
type SectionRepository interface {
	// FindByID は指定IDのセクションを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Section, error)

	// FindByBookAndID は指定ブックに属するセクションを取得する。
	// 別ブックのセクションIDを指定した場合はnilを返す。
	FindByBookAndID(ctx context.Context, bookID, sectionID string) (*model.Section, error)

	// ListByBook はブックの全セクションを作成日時順で返す。
	ListByBook(ctx context.Context, bookID string) ([]*model.Section, error)

	// ListByParent は指定セクションの直下の子セクションを作成日時順で返す。
	ListByParent(ctx context.Context, parentID string) ([]*model.Section, error)

	// Create はセクションを作成する。
	Create(ctx context.Context, section *model.Section) error

	// Update はセクションのタイトル・本文・親を上書き更新する。
	Update(ctx context.Context, section *model.Section) error

	// DeleteSubtree は指定セクションを根とする部分木全体を削除し、
	// 削除した行数を返す。親子関係の連鎖はSQL側で明示的に辿る。
	DeleteSubtree(ctx context.Context, sectionID string) (int64, error)
}

// CollaboratorRepository は共同編集者データの永続化インターフェース。
type CollaboratorRepository interface {
	// FindByBookAndUser はブックIDとユーザーIDで共同編集者行を検索する。
	// 見つからない場合はnilを返す。
	FindByBookAndUser(ctx context.Context, bookID, userID string) (*model.BookCollaborator, error)

	// ListByBookWithUserInfo はブックの共同編集者一覧をユーザー情報付きで返す。
	ListByBookWithUserInfo(ctx context.Context, bookID string) ([]CollaboratorWithUser, error)

	// Create は共同編集者行を作成する。
	Create(ctx context.Context, collab *model.BookCollaborator) error

	// DeleteByBookAndUser はブックIDとユーザーIDで共同編集者行を削除する。
	DeleteByBookAndUser(ctx context.Context, bookID, userID string) error

	// DeleteByUser は指定ユーザーが共同編集者である全ての行を削除する。
	DeleteByUser(ctx context.Context, userID string) error
}

// CollaboratorWithUser は共同編集者行とユーザー情報を結合した構造体。
type CollaboratorWithUser struct {
	model.BookCollaborator
	UserEmail string
	UserName  string
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
