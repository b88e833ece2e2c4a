// Package access はブックとセクションに対するアクセス制御の判定を提供する。
//
// 判定は副作用のない述語として実装し、全サービスが変更・取得の前に必ず通す。
// 可視範囲外のブックは「存在しない」ものとして扱い、NOT_FOUNDに解決する。
// 存在の有無を漏らさないため、FORBIDDENは可視リソースに対してのみ使う。
package access

import (
	"context"
	"fmt"

	"github.com/hitoshi/bookman/internal/model"
)

// CollaboratorFinder は共同編集者行の存在確認に必要なインターフェース。
// repository.CollaboratorRepositoryの部分集合として定義する。
type CollaboratorFinder interface {
	FindByBookAndUser(ctx context.Context, bookID, userID string) (*model.BookCollaborator, error)
}

// Evaluator はブックに対するユーザーの権限を判定する。
// 所有判定はブック構造体のみから、共同編集者判定は行の存在から導く。
// 判定は常に現在の永続化状態から再導出し、呼び出し側の主張を信用しない。
type Evaluator struct {
	collabs CollaboratorFinder
}

// NewEvaluator はEvaluatorを生成する。
func NewEvaluator(collabs CollaboratorFinder) *Evaluator {
	return &Evaluator{collabs: collabs}
}

// IsOwner はユーザーがブックの著者であるかを返す。
func (e *Evaluator) IsOwner(userID string, book *model.Book) bool {
	return book != nil && book.AuthorID == userID
}

// IsCollaborator はユーザーがブックの共同編集者であるかを返す。
func (e *Evaluator) IsCollaborator(ctx context.Context, userID string, book *model.Book) (bool, error) {
	if book == nil {
		return false, nil
	}
	collab, err := e.collabs.FindByBookAndUser(ctx, book.ID, userID)
	if err != nil {
		return false, fmt.Errorf("共同編集者の判定に失敗しました: %w", err)
	}
	return collab != nil, nil
}

// CanView はユーザーがブックを閲覧できるかを返す。
// 著者または共同編集者のみ閲覧できる。
func (e *Evaluator) CanView(ctx context.Context, userID string, book *model.Book) (bool, error) {
	if e.IsOwner(userID, book) {
		return true, nil
	}
	return e.IsCollaborator(ctx, userID, book)
}

// CanEditSections はユーザーがブックのセクションを作成・更新・削除できるかを返す。
// このモデルでは閲覧できるユーザーは全員セクションを編集できる。
func (e *Evaluator) CanEditSections(ctx context.Context, userID string, book *model.Book) (bool, error) {
	return e.CanView(ctx, userID, book)
}

// CanManageBook はユーザーがブック自体の更新・削除・共同編集者管理を行えるかを返す。
// 著者のみが許可される。
func (e *Evaluator) CanManageBook(userID string, book *model.Book) bool {
	return e.IsOwner(userID, book)
}
