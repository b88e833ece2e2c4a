package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bookman/internal/model"
)

// PostgresSectionRepo はPostgreSQLを使用したセクションリポジトリ。
type PostgresSectionRepo struct {
	db *sql.DB
}

// NewPostgresSectionRepo はPostgresSectionRepoを生成する。
func NewPostgresSectionRepo(db *sql.DB) *PostgresSectionRepo {
	return &PostgresSectionRepo{db: db}
}

const sectionColumns = `id, title, content, book_id, parent_id, author_id, created_at, updated_at`

// scanSection は1行分のセクションを読み取る。
func scanSection(row interface{ Scan(dest ...any) error }) (*model.Section, error) {
	section := &model.Section{}
	err := row.Scan(
		&section.ID, &section.Title, &section.Content, &section.BookID,
		&section.ParentID, &section.AuthorID, &section.CreatedAt, &section.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return section, nil
}

// FindByID は指定IDのセクションを取得する。見つからない場合はnilを返す。
func (r *PostgresSectionRepo) FindByID(ctx context.Context, id string) (*model.Section, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sectionColumns+` FROM sections WHERE id = $1`, id,
	)
	section, err := scanSection(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("セクションの取得に失敗しました: %w", err)
	}
	return section, nil
}

// FindByBookAndID は指定ブックに属するセクションを取得する。
// 別ブックのセクションIDを指定した場合はnilを返す。
func (r *PostgresSectionRepo) FindByBookAndID(ctx context.Context, bookID, sectionID string) (*model.Section, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sectionColumns+` FROM sections WHERE id = $1 AND book_id = $2`,
		sectionID, bookID,
	)
	section, err := scanSection(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ブック内セクションの取得に失敗しました: %w", err)
	}
	return section, nil
}

// ListByBook はブックの全セクションを作成日時順で返す。
func (r *PostgresSectionRepo) ListByBook(ctx context.Context, bookID string) ([]*model.Section, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sectionColumns+` FROM sections
		 WHERE book_id = $1 ORDER BY created_at ASC, id ASC`,
		bookID,
	)
	if err != nil {
		return nil, fmt.Errorf("セクション一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectSections(rows)
}

// ListByParent は指定セクションの直下の子セクションを作成日時順で返す。
func (r *PostgresSectionRepo) ListByParent(ctx context.Context, parentID string) ([]*model.Section, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sectionColumns+` FROM sections
		 WHERE parent_id = $1 ORDER BY created_at ASC, id ASC`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("子セクション一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return collectSections(rows)
}

// collectSections はクエリ結果の全行をセクションのスライスに読み取る。
func collectSections(rows *sql.Rows) ([]*model.Section, error) {
	var sections []*model.Section
	for rows.Next() {
		section, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("セクション行の読み取りに失敗しました: %w", err)
		}
		sections = append(sections, section)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("セクション一覧の走査に失敗しました: %w", err)
	}
	return sections, nil
}

// Create はセクションを作成する。
func (r *PostgresSectionRepo) Create(ctx context.Context, section *model.Section) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sections (id, title, content, book_id, parent_id, author_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		section.ID, section.Title, section.Content, section.BookID,
		section.ParentID, section.AuthorID, section.CreatedAt, section.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("セクションの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はセクションのタイトル・本文・親を上書き更新する。履歴は保持しない。
func (r *PostgresSectionRepo) Update(ctx context.Context, section *model.Section) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sections
		 SET title = $2, content = $3, parent_id = $4, updated_at = now()
		 WHERE id = $1`,
		section.ID, section.Title, section.Content, section.ParentID,
	)
	if err != nil {
		return fmt.Errorf("セクションの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("セクションが見つかりません: %s", section.ID)
	}
	return nil
}

// DeleteSubtree は指定セクションを根とする部分木全体を削除し、削除した行数を返す。
// 外部キーのCASCADEに頼らず、再帰CTEで親子関係を明示的に辿って削除対象を求める。
func (r *PostgresSectionRepo) DeleteSubtree(ctx context.Context, sectionID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sections
		 WHERE id IN (
		     WITH RECURSIVE subtree AS (
		         SELECT id FROM sections WHERE id = $1
		         UNION ALL
		         SELECT s.id FROM sections s
		         JOIN subtree t ON s.parent_id = t.id
		     )
		     SELECT id FROM subtree
		 )`,
		sectionID,
	)
	if err != nil {
		return 0, fmt.Errorf("部分木の削除に失敗しました: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return deleted, nil
}

// compile-time interface check
var _ SectionRepository = (*PostgresSectionRepo)(nil)
