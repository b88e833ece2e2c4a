// Package collaborator はブックの共同編集者管理に関するビジネスロジックを提供する。
package collaborator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bookman/internal/access"
	"github.com/hitoshi/bookman/internal/cache"
	"github.com/hitoshi/bookman/internal/model"
	"github.com/hitoshi/bookman/internal/notify"
	"github.com/hitoshi/bookman/internal/repository"
)

// notifyTimeout は追加通知の発行に許す時間。
const notifyTimeout = 10 * time.Second

// Service は共同編集者管理に関するビジネスロジックを提供する。
// 全操作は著者スコープでブックを解決するため、著者以外（共同編集者
// 本人を含む）にはブックの存在有無を漏らさずNOT_FOUNDを返す。
type Service struct {
	bookRepo   repository.BookRepository
	collabRepo repository.CollaboratorRepository
	userRepo   repository.UserRepository
	evaluator  *access.Evaluator
	notifier   notify.Notifier      // nilの場合通知は無効
	listCache  *cache.BookListCache // nilの場合キャッシュは無効
}

// NewService はServiceを生成する。notifierとlistCacheはnil可。
func NewService(
	bookRepo repository.BookRepository,
	collabRepo repository.CollaboratorRepository,
	userRepo repository.UserRepository,
	notifier notify.Notifier,
	listCache *cache.BookListCache,
) *Service {
	return &Service{
		bookRepo:   bookRepo,
		collabRepo: collabRepo,
		userRepo:   userRepo,
		evaluator:  access.NewEvaluator(collabRepo),
		notifier:   notifier,
		listCache:  listCache,
	}
}

// ListCollaborators はブックの共同編集者一覧をユーザー情報付きで返す。
// 著者のみ実行できる。
func (s *Service) ListCollaborators(ctx context.Context, userID, bookID string) ([]repository.CollaboratorWithUser, error) {
	if _, err := s.resolveOwnedBook(ctx, userID, bookID); err != nil {
		return nil, err
	}

	collabs, err := s.collabRepo.ListByBookWithUserInfo(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("共同編集者一覧の取得に失敗: %w", err)
	}
	return collabs, nil
}

// AddCollaborator はメールアドレスで指定したユーザーを共同編集者に追加する。
// 著者のみ実行できる。追加されたユーザーには通知を発行する。
func (s *Service) AddCollaborator(ctx context.Context, userID, bookID, email string) (*repository.CollaboratorWithUser, error) {
	book, err := s.resolveOwnedBook(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}

	email = strings.TrimSpace(email)
	target, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗: %w", err)
	}
	if target == nil {
		return nil, model.NewCollaboratorNoUserError()
	}

	// 著者自身は既に全権限を持つため追加対象にしない
	if s.evaluator.IsOwner(target.ID, book) {
		return nil, model.NewCollaboratorIsAuthorError()
	}

	already, err := s.evaluator.IsCollaborator(ctx, target.ID, book)
	if err != nil {
		return nil, fmt.Errorf("共同編集者の検索に失敗: %w", err)
	}
	if already {
		return nil, model.NewCollaboratorExistsError()
	}

	now := time.Now()
	collab := &model.BookCollaborator{
		ID:             uuid.New().String(),
		BookID:         bookID,
		CollaboratorID: target.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.collabRepo.Create(ctx, collab); err != nil {
		return nil, fmt.Errorf("共同編集者の追加に失敗: %w", err)
	}

	if s.listCache != nil {
		s.listCache.Invalidate(ctx, target.ID)
	}

	s.notifyAdded(book, target)

	slog.Info("collaborator added",
		slog.String("book_id", bookID),
		slog.String("collaborator_id", target.ID),
	)
	return &repository.CollaboratorWithUser{
		BookCollaborator: *collab,
		UserEmail:        target.Email,
		UserName:         target.Name,
	}, nil
}

// RemoveCollaborator は共同編集者をブックから外す。著者のみ実行できる。
// 削除されるのは関連行のみで、ユーザー自体には影響しない。
func (s *Service) RemoveCollaborator(ctx context.Context, userID, bookID, collaboratorID string) error {
	book, err := s.resolveOwnedBook(ctx, userID, bookID)
	if err != nil {
		return err
	}

	isCollab, err := s.evaluator.IsCollaborator(ctx, collaboratorID, book)
	if err != nil {
		return fmt.Errorf("共同編集者の検索に失敗: %w", err)
	}
	if !isCollab {
		return model.NewCollaboratorNotFoundError()
	}

	if err := s.collabRepo.DeleteByBookAndUser(ctx, bookID, collaboratorID); err != nil {
		return fmt.Errorf("共同編集者の削除に失敗: %w", err)
	}

	if s.listCache != nil {
		s.listCache.Invalidate(ctx, collaboratorID)
	}

	slog.Info("collaborator removed",
		slog.String("book_id", bookID),
		slog.String("collaborator_id", collaboratorID),
	)
	return nil
}

// resolveOwnedBook は著者スコープでブックを解決する。著者でなければNOT_FOUND。
func (s *Service) resolveOwnedBook(ctx context.Context, userID, bookID string) (*model.Book, error) {
	book, err := s.bookRepo.FindByIDAndAuthor(ctx, bookID, userID)
	if err != nil {
		return nil, fmt.Errorf("ブックの取得に失敗: %w", err)
	}
	if book == nil {
		return nil, model.NewBookNotFoundError(bookID)
	}
	return book, nil
}

// notifyAdded は追加通知を非同期で発行する。失敗はログに残すだけで
// 呼び出し元の操作は成功のまま返す。
func (s *Service) notifyAdded(book *model.Book, target *model.User) {
	if s.notifier == nil {
		return
	}

	event := notify.CollaboratorAddedEvent{
		BookID:            book.ID,
		BookName:          book.Name,
		AuthorID:          book.AuthorID,
		CollaboratorID:    target.ID,
		CollaboratorEmail: target.Email,
		AddedAt:           time.Now(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := s.notifier.CollaboratorAdded(ctx, event); err != nil {
			slog.Error("failed to publish collaborator added event",
				slog.String("book_id", event.BookID),
				slog.String("collaborator_id", event.CollaboratorID),
				slog.String("error", err.Error()),
			)
		}
	}()
}
