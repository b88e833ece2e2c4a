// Package model はドメインモデルを定義する。
package model

import "time"

// BookNameMaxLength はブック名の最大文字数。
const BookNameMaxLength = 100

// Book はユーザーが執筆するブック（トップレベル文書）を表す。
// AuthorIDは作成時に確定し、以後変更されない。
type Book struct {
	ID        string
	Name      string
	AuthorID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BookCollaborator はブックと共同編集者ユーザーの多対多関係を表す。
// 同一の (BookID, CollaboratorID) の組は一意。
// 共同編集者はブックのセクションを編集できるが、
// ブック自体の更新・削除・共同編集者管理はできない。
type BookCollaborator struct {
	ID             string
	BookID         string
	CollaboratorID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
