// Package notify は共同編集者追加などのドメインイベントを
// メッセージブローカー経由で外部の通知系へ受け渡す。
//
// 通知の配送は完全にベストエフォートであり、発行の失敗が
// 元の変更をロールバックさせることはない。
package notify

import "time"

// CollaboratorAddedEvent は共同編集者が追加されたときに発行されるイベント。
// 下流のコンシューマ（メール通知など）が主データベースへ問い合わせずに
// 処理できるだけの情報を含める。
type CollaboratorAddedEvent struct {
	BookID            string    `json:"book_id"`
	BookName          string    `json:"book_name"`
	AuthorID          string    `json:"author_id"`
	CollaboratorID    string    `json:"collaborator_id"`
	CollaboratorEmail string    `json:"collaborator_email"`
	AddedAt           time.Time `json:"added_at"`
}
