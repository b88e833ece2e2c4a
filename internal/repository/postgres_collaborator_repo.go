package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bookman/internal/model"
)

// PostgresCollaboratorRepo はPostgreSQLを使用した共同編集者リポジトリ。
// (book_id, collaborator_id) の一意性はスキーマ側のUNIQUE制約でも保証される。
type PostgresCollaboratorRepo struct {
	db *sql.DB
}

// NewPostgresCollaboratorRepo はPostgresCollaboratorRepoを生成する。
func NewPostgresCollaboratorRepo(db *sql.DB) *PostgresCollaboratorRepo {
	return &PostgresCollaboratorRepo{db: db}
}

// FindByBookAndUser はブックIDとユーザーIDで共同編集者行を検索する。
// 見つからない場合はnilを返す。
func (r *PostgresCollaboratorRepo) FindByBookAndUser(ctx context.Context, bookID, userID string) (*model.BookCollaborator, error) {
	collab := &model.BookCollaborator{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, book_id, collaborator_id, created_at, updated_at
		 FROM book_collaborators WHERE book_id = $1 AND collaborator_id = $2`,
		bookID, userID,
	).Scan(&collab.ID, &collab.BookID, &collab.CollaboratorID, &collab.CreatedAt, &collab.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("共同編集者行の検索に失敗しました: %w", err)
	}

	return collab, nil
}

// ListByBookWithUserInfo はブックの共同編集者一覧をユーザー情報付きで返す。
func (r *PostgresCollaboratorRepo) ListByBookWithUserInfo(ctx context.Context, bookID string) ([]CollaboratorWithUser, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.book_id, c.collaborator_id, c.created_at, c.updated_at,
		        u.email, u.name
		 FROM book_collaborators c
		 JOIN users u ON c.collaborator_id = u.id
		 WHERE c.book_id = $1
		 ORDER BY c.created_at ASC`,
		bookID,
	)
	if err != nil {
		return nil, fmt.Errorf("共同編集者一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var results []CollaboratorWithUser
	for rows.Next() {
		var info CollaboratorWithUser
		if err := rows.Scan(
			&info.ID, &info.BookID, &info.CollaboratorID, &info.CreatedAt, &info.UpdatedAt,
			&info.UserEmail, &info.UserName,
		); err != nil {
			return nil, fmt.Errorf("共同編集者行の読み取りに失敗しました: %w", err)
		}
		results = append(results, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("共同編集者一覧の走査に失敗しました: %w", err)
	}
	return results, nil
}

// Create は共同編集者行を作成する。
func (r *PostgresCollaboratorRepo) Create(ctx context.Context, collab *model.BookCollaborator) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO book_collaborators (id, book_id, collaborator_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		collab.ID, collab.BookID, collab.CollaboratorID, collab.CreatedAt, collab.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("共同編集者行の作成に失敗しました: %w", err)
	}
	return nil
}

// DeleteByBookAndUser はブックIDとユーザーIDで共同編集者行を削除する。
func (r *PostgresCollaboratorRepo) DeleteByBookAndUser(ctx context.Context, bookID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM book_collaborators WHERE book_id = $1 AND collaborator_id = $2`,
		bookID, userID,
	)
	if err != nil {
		return fmt.Errorf("共同編集者行の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("共同編集者行が見つかりません: book=%s user=%s", bookID, userID)
	}
	return nil
}

// DeleteByUser は指定ユーザーが共同編集者である全ての行を削除する。
// 退会処理で使用する。
func (r *PostgresCollaboratorRepo) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM book_collaborators WHERE collaborator_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("ユーザーの共同編集者行の削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CollaboratorRepository = (*PostgresCollaboratorRepo)(nil)
