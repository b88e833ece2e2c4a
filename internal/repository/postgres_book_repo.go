package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bookman/internal/model"
)

// PostgresBookRepo はPostgreSQLを使用したブックリポジトリ。
// 可視範囲（著者または共同編集者）のスコープをクエリレベルで適用し、
// 範囲外のブックは存在しないものとして扱う。
type PostgresBookRepo struct {
	db *sql.DB
}

// NewPostgresBookRepo はPostgresBookRepoを生成する。
func NewPostgresBookRepo(db *sql.DB) *PostgresBookRepo {
	return &PostgresBookRepo{db: db}
}

// FindVisibleByID は指定ユーザーから可視のブックを取得する。
// 著者でも共同編集者でもない場合は、ブックが存在してもnilを返す。
func (r *PostgresBookRepo) FindVisibleByID(ctx context.Context, bookID, userID string) (*model.Book, error) {
	book := &model.Book{}
	err := r.db.QueryRowContext(ctx,
		`SELECT b.id, b.name, b.author_id, b.created_at, b.updated_at
		 FROM books b
		 WHERE b.id = $1
		   AND (b.author_id = $2
		        OR EXISTS (SELECT 1 FROM book_collaborators c
		                   WHERE c.book_id = b.id AND c.collaborator_id = $2))`,
		bookID, userID,
	).Scan(&book.ID, &book.Name, &book.AuthorID, &book.CreatedAt, &book.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("可視ブックの取得に失敗しました: %w", err)
	}

	return book, nil
}

// FindByIDAndAuthor は指定ユーザーが著者であるブックを取得する。
// 著者でない場合は、ブックが存在してもnilを返す。
func (r *PostgresBookRepo) FindByIDAndAuthor(ctx context.Context, bookID, authorID string) (*model.Book, error) {
	book := &model.Book{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, author_id, created_at, updated_at
		 FROM books WHERE id = $1 AND author_id = $2`,
		bookID, authorID,
	).Scan(&book.ID, &book.Name, &book.AuthorID, &book.CreatedAt, &book.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("著者スコープのブック取得に失敗しました: %w", err)
	}

	return book, nil
}

// ListVisibleByUser はユーザーから可視のブック一覧
// （著者のブック ∪ 共同編集者のブック）を作成日時順で返す。
// 順序はUIの安定表示のため created_at, id で固定する。
func (r *PostgresBookRepo) ListVisibleByUser(ctx context.Context, userID string) ([]*model.Book, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id, b.name, b.author_id, b.created_at, b.updated_at
		 FROM books b
		 WHERE b.author_id = $1
		    OR EXISTS (SELECT 1 FROM book_collaborators c
		               WHERE c.book_id = b.id AND c.collaborator_id = $1)
		 ORDER BY b.created_at ASC, b.id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ブック一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var books []*model.Book
	for rows.Next() {
		book := &model.Book{}
		if err := rows.Scan(&book.ID, &book.Name, &book.AuthorID, &book.CreatedAt, &book.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ブック行の読み取りに失敗しました: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ブック一覧の走査に失敗しました: %w", err)
	}
	return books, nil
}

// ListByAuthor は指定ユーザーが著者であるブック一覧を返す。
func (r *PostgresBookRepo) ListByAuthor(ctx context.Context, authorID string) ([]*model.Book, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, author_id, created_at, updated_at
		 FROM books WHERE author_id = $1 ORDER BY created_at ASC, id ASC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("著者ブック一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var books []*model.Book
	for rows.Next() {
		book := &model.Book{}
		if err := rows.Scan(&book.ID, &book.Name, &book.AuthorID, &book.CreatedAt, &book.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ブック行の読み取りに失敗しました: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("著者ブック一覧の走査に失敗しました: %w", err)
	}
	return books, nil
}

// Create はブックを作成する。
func (r *PostgresBookRepo) Create(ctx context.Context, book *model.Book) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO books (id, name, author_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		book.ID, book.Name, book.AuthorID, book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ブックの作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateName はブック名を更新する。
func (r *PostgresBookRepo) UpdateName(ctx context.Context, bookID, name string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE books SET name = $2, updated_at = now() WHERE id = $1`,
		bookID, name,
	)
	if err != nil {
		return fmt.Errorf("ブック名の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("ブックが見つかりません: %s", bookID)
	}
	return nil
}

// DeleteCascade はブックと、その全セクションおよび共同編集者行を
// 同一トランザクションで削除する。全て成功するか、全て取り消されるかのどちらか。
func (r *PostgresBookRepo) DeleteCascade(ctx context.Context, bookID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	// セクションはツリー全体を削除する。book_idで全行消えるため親子の順序は問わない。
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM sections WHERE book_id = $1`, bookID,
	); err != nil {
		return fmt.Errorf("セクションの削除に失敗しました: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM book_collaborators WHERE book_id = $1`, bookID,
	); err != nil {
		return fmt.Errorf("共同編集者行の削除に失敗しました: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM books WHERE id = $1`, bookID,
	)
	if err != nil {
		return fmt.Errorf("ブックの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("ブックが見つかりません: %s", bookID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return nil
}

// compile-time interface check
var _ BookRepository = (*PostgresBookRepo)(nil)
