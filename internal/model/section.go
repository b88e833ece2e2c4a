// Package model はドメインモデルを定義する。
package model

import "time"

// SectionTitleMaxLength はセクションタイトルの最大文字数。
const SectionTitleMaxLength = 100

// Section はブック内のツリー構造を成すセクション（節）を表す。
// ParentIDが設定されている場合、親セクションは必ず同じブックに属する。
// BookIDのNULL許容は旧データ互換のための仕様で、
// 現在の作成フローでは必ずブックに紐付けられる。
type Section struct {
	ID        string
	Title     string
	Content   *string
	BookID    *string
	ParentID  *string
	AuthorID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InBook はセクションが指定ブックに属するかを返す。
func (s *Section) InBook(bookID string) bool {
	return s.BookID != nil && *s.BookID == bookID
}
