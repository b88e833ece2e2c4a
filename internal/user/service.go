// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/bookman/internal/model"
	"github.com/hitoshi/bookman/internal/repository"
)

// BookDeleter は著者ブックの列挙と連鎖削除のインターフェース。
type BookDeleter interface {
	ListByAuthor(ctx context.Context, authorID string) ([]*model.Book, error)
	DeleteCascade(ctx context.Context, bookID string) error
}

// CollaborationDeleter は共同編集者行の一括削除インターフェース。
type CollaborationDeleter interface {
	DeleteByUser(ctx context.Context, userID string) error
}

// Service はユーザー管理のサービス層。
// 退会処理のビジネスロジックを提供する。
type Service struct {
	userRepo      repository.UserRepository
	sessionRepo   repository.SessionRepository
	bookDeleter   BookDeleter
	collabDeleter CollaborationDeleter
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	bookDeleter BookDeleter,
	collabDeleter CollaborationDeleter,
) *Service {
	return &Service{
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		bookDeleter:   bookDeleter,
		collabDeleter: collabDeleter,
	}
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: 著者ブック（セクション・共同編集者行ごと連鎖削除）
// → 他ブックでの共同編集者行 → sessions → user（+ CASCADE: credentials）
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	// ユーザー存在確認
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	// 1. 著者であるブックを連鎖削除
	if s.bookDeleter != nil {
		books, err := s.bookDeleter.ListByAuthor(ctx, userID)
		if err != nil {
			return fmt.Errorf("著者ブック一覧の取得に失敗しました: %w", err)
		}
		for _, book := range books {
			if err := s.bookDeleter.DeleteCascade(ctx, book.ID); err != nil {
				return fmt.Errorf("ブックの削除に失敗しました: %w", err)
			}
		}
	}

	// 2. 他ユーザーのブックでの共同編集者行を削除
	if s.collabDeleter != nil {
		if err := s.collabDeleter.DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("共同編集者行の削除に失敗しました: %w", err)
		}
	}

	// 3. セッションを削除
	if s.sessionRepo != nil {
		if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("セッションの削除に失敗しました: %w", err)
		}
	}

	// 4. ユーザーを削除（credentialsはCASCADE削除）
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)

	return nil
}
