// Package book はブックに関するビジネスロジックを提供する。
package book

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bookman/internal/cache"
	"github.com/hitoshi/bookman/internal/model"
	"github.com/hitoshi/bookman/internal/repository"
)

// Service はブックに関するビジネスロジックを提供する。
// 更新系の操作は著者スコープでブックを解決するため、
// 著者以外にはブックの存在有無を漏らさずNOT_FOUNDを返す。
type Service struct {
	bookRepo   repository.BookRepository
	collabRepo repository.CollaboratorRepository
	listCache  *cache.BookListCache // nilの場合キャッシュは無効
}

// NewService はServiceを生成する。listCacheはnil可。
func NewService(
	bookRepo repository.BookRepository,
	collabRepo repository.CollaboratorRepository,
	listCache *cache.BookListCache,
) *Service {
	return &Service{
		bookRepo:   bookRepo,
		collabRepo: collabRepo,
		listCache:  listCache,
	}
}

// ListBooks はユーザーから可視のブック一覧
// （著者のブック ∪ 共同編集者として参加しているブック）を作成日時順で返す。
func (s *Service) ListBooks(ctx context.Context, userID string) ([]*model.Book, error) {
	if s.listCache != nil {
		if books, ok := s.listCache.Get(ctx, userID); ok {
			return books, nil
		}
	}

	books, err := s.bookRepo.ListVisibleByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ブック一覧の取得に失敗: %w", err)
	}

	if s.listCache != nil {
		s.listCache.Set(ctx, userID, books)
	}

	return books, nil
}

// GetBook は可視範囲のブックを取得する。
// 著者でも共同編集者でもない場合はブックが存在してもNOT_FOUNDを返す。
func (s *Service) GetBook(ctx context.Context, userID, bookID string) (*model.Book, error) {
	book, err := s.bookRepo.FindVisibleByID(ctx, bookID, userID)
	if err != nil {
		return nil, fmt.Errorf("ブックの取得に失敗: %w", err)
	}
	if book == nil {
		return nil, model.NewBookNotFoundError(bookID)
	}
	return book, nil
}

// CreateBook はブックを作成する。作成者が著者になる。
func (s *Service) CreateBook(ctx context.Context, userID, name string) (*model.Book, error) {
	name, err := validateBookName(name)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	book := &model.Book{
		ID:        uuid.New().String(),
		Name:      name,
		AuthorID:  userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("ブックの作成に失敗: %w", err)
	}

	if s.listCache != nil {
		s.listCache.Invalidate(ctx, userID)
	}

	slog.Info("book created",
		slog.String("book_id", book.ID),
		slog.String("author_id", userID),
	)
	return book, nil
}

// UpdateBook はブック名を変更する。著者のみ実行できる。
func (s *Service) UpdateBook(ctx context.Context, userID, bookID, name string) (*model.Book, error) {
	book, err := s.bookRepo.FindByIDAndAuthor(ctx, bookID, userID)
	if err != nil {
		return nil, fmt.Errorf("ブックの取得に失敗: %w", err)
	}
	if book == nil {
		return nil, model.NewBookNotFoundError(bookID)
	}

	name, err = validateBookName(name)
	if err != nil {
		return nil, err
	}

	if err := s.bookRepo.UpdateName(ctx, bookID, name); err != nil {
		return nil, fmt.Errorf("ブック名の更新に失敗: %w", err)
	}

	s.invalidateViewerCaches(ctx, book)

	book.Name = name
	book.UpdatedAt = time.Now()
	return book, nil
}

// DeleteBook はブックを削除する。著者のみ実行できる。
// 配下の全セクションと共同編集者行も同一トランザクションで削除される。
func (s *Service) DeleteBook(ctx context.Context, userID, bookID string) error {
	book, err := s.bookRepo.FindByIDAndAuthor(ctx, bookID, userID)
	if err != nil {
		return fmt.Errorf("ブックの取得に失敗: %w", err)
	}
	if book == nil {
		return model.NewBookNotFoundError(bookID)
	}

	// キャッシュ無効化の対象は削除前に確定させる
	viewerIDs := s.viewerIDs(ctx, book)

	if err := s.bookRepo.DeleteCascade(ctx, bookID); err != nil {
		return fmt.Errorf("ブックの削除に失敗: %w", err)
	}

	if s.listCache != nil {
		s.listCache.Invalidate(ctx, viewerIDs...)
	}

	slog.Info("book deleted",
		slog.String("book_id", bookID),
		slog.String("author_id", userID),
	)
	return nil
}

// viewerIDs はブック一覧にこのブックが現れる全ユーザー
// （著者と共同編集者）のIDを返す。
func (s *Service) viewerIDs(ctx context.Context, book *model.Book) []string {
	ids := []string{book.AuthorID}

	collabs, err := s.collabRepo.ListByBookWithUserInfo(ctx, book.ID)
	if err != nil {
		slog.Warn("failed to list collaborators for cache invalidation",
			slog.String("book_id", book.ID),
			slog.String("error", err.Error()),
		)
		return ids
	}
	for _, c := range collabs {
		ids = append(ids, c.CollaboratorID)
	}
	return ids
}

func (s *Service) invalidateViewerCaches(ctx context.Context, book *model.Book) {
	if s.listCache == nil {
		return
	}
	s.listCache.Invalidate(ctx, s.viewerIDs(ctx, book)...)
}

// validateBookName はブック名を検証し、前後の空白を除去して返す。
func validateBookName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", model.NewEmptyBookNameError()
	}
	if len([]rune(name)) > model.BookNameMaxLength {
		return "", model.NewBookNameTooLongError()
	}
	return name, nil
}
