// Package section はセクション階層に関するビジネスロジックを提供する。
package section

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bookman/internal/model"
	"github.com/hitoshi/bookman/internal/repository"
	"github.com/hitoshi/bookman/internal/security"
)

// Service はセクションに関するビジネスロジックを提供する。
// 全操作はまず可視範囲でブックを解決するため、著者でも共同編集者でも
// ないユーザーにはブック・セクションの存在有無を漏らさない。
type Service struct {
	bookRepo    repository.BookRepository
	sectionRepo repository.SectionRepository
	sanitizer   security.ContentSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	bookRepo repository.BookRepository,
	sectionRepo repository.SectionRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		bookRepo:    bookRepo,
		sectionRepo: sectionRepo,
		sanitizer:   sanitizer,
	}
}

// CreateParams はセクション作成の入力。
type CreateParams struct {
	Title    string
	Content  *string
	ParentID *string
}

// UpdateParams はセクション更新の入力。
type UpdateParams struct {
	Title    string
	Content  *string
	ParentID *string
}

// ListSections はブックの全セクションを作成日時順で返す。
func (s *Service) ListSections(ctx context.Context, userID, bookID string) ([]*model.Section, error) {
	if _, err := s.resolveBook(ctx, userID, bookID); err != nil {
		return nil, err
	}

	sections, err := s.sectionRepo.ListByBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("セクション一覧の取得に失敗: %w", err)
	}
	return sections, nil
}

// GetSection はブックに属するセクションを、直下の子セクション一覧と
// 合わせて取得する。別ブックのセクションIDを指定した場合はNOT_FOUNDを返す。
func (s *Service) GetSection(ctx context.Context, userID, bookID, sectionID string) (*model.Section, []*model.Section, error) {
	if _, err := s.resolveBook(ctx, userID, bookID); err != nil {
		return nil, nil, err
	}

	section, err := s.resolveSection(ctx, bookID, sectionID)
	if err != nil {
		return nil, nil, err
	}

	subsections, err := s.sectionRepo.ListByParent(ctx, sectionID)
	if err != nil {
		return nil, nil, fmt.Errorf("子セクション一覧の取得に失敗: %w", err)
	}

	return section, subsections, nil
}

// CreateSection はセクションを作成する。著者と共同編集者が実行できる。
// 親セクションを指定する場合、親は同じブックに属していなければならない。
func (s *Service) CreateSection(ctx context.Context, userID, bookID string, params CreateParams) (*model.Section, error) {
	if _, err := s.resolveBook(ctx, userID, bookID); err != nil {
		return nil, err
	}

	title, err := validateSectionTitle(params.Title)
	if err != nil {
		return nil, err
	}

	if params.ParentID != nil {
		parent, err := s.sectionRepo.FindByBookAndID(ctx, bookID, *params.ParentID)
		if err != nil {
			return nil, fmt.Errorf("親セクションの取得に失敗: %w", err)
		}
		if parent == nil {
			return nil, model.NewParentMismatchError()
		}
	}

	now := time.Now()
	section := &model.Section{
		ID:        uuid.New().String(),
		Title:     title,
		Content:   s.sanitizeContent(params.Content),
		BookID:    &bookID,
		ParentID:  params.ParentID,
		AuthorID:  userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.sectionRepo.Create(ctx, section); err != nil {
		return nil, fmt.Errorf("セクションの作成に失敗: %w", err)
	}

	slog.Info("section created",
		slog.String("section_id", section.ID),
		slog.String("book_id", bookID),
		slog.String("user_id", userID),
	)
	return section, nil
}

// UpdateSection はセクションのタイトル・本文・親を更新する。
// 親の変更では同一ブック検査に加え、自分自身や子孫を親に指定する
// 循環を拒否する。
func (s *Service) UpdateSection(ctx context.Context, userID, bookID, sectionID string, params UpdateParams) (*model.Section, error) {
	if _, err := s.resolveBook(ctx, userID, bookID); err != nil {
		return nil, err
	}

	section, err := s.resolveSection(ctx, bookID, sectionID)
	if err != nil {
		return nil, err
	}

	title, err := validateSectionTitle(params.Title)
	if err != nil {
		return nil, err
	}

	if params.ParentID != nil {
		parent, err := s.sectionRepo.FindByBookAndID(ctx, bookID, *params.ParentID)
		if err != nil {
			return nil, fmt.Errorf("親セクションの取得に失敗: %w", err)
		}
		if parent == nil {
			return nil, model.NewParentMismatchError()
		}
		if err := s.checkCycle(ctx, sectionID, parent); err != nil {
			return nil, err
		}
	}

	section.Title = title
	section.Content = s.sanitizeContent(params.Content)
	section.ParentID = params.ParentID
	section.UpdatedAt = time.Now()

	if err := s.sectionRepo.Update(ctx, section); err != nil {
		return nil, fmt.Errorf("セクションの更新に失敗: %w", err)
	}

	return section, nil
}

// DeleteSection はセクションを部分木ごと削除し、削除した件数を返す。
func (s *Service) DeleteSection(ctx context.Context, userID, bookID, sectionID string) (int64, error) {
	if _, err := s.resolveBook(ctx, userID, bookID); err != nil {
		return 0, err
	}

	if _, err := s.resolveSection(ctx, bookID, sectionID); err != nil {
		return 0, err
	}

	deleted, err := s.sectionRepo.DeleteSubtree(ctx, sectionID)
	if err != nil {
		return 0, fmt.Errorf("セクションの削除に失敗: %w", err)
	}

	slog.Info("section subtree deleted",
		slog.String("section_id", sectionID),
		slog.String("book_id", bookID),
		slog.Int64("deleted_count", deleted),
	)
	return deleted, nil
}

// resolveBook は可視範囲でブックを解決する。可視でなければNOT_FOUND。
func (s *Service) resolveBook(ctx context.Context, userID, bookID string) (*model.Book, error) {
	book, err := s.bookRepo.FindVisibleByID(ctx, bookID, userID)
	if err != nil {
		return nil, fmt.Errorf("ブックの取得に失敗: %w", err)
	}
	if book == nil {
		return nil, model.NewBookNotFoundError(bookID)
	}
	return book, nil
}

// resolveSection はブックに属するセクションを解決する。
func (s *Service) resolveSection(ctx context.Context, bookID, sectionID string) (*model.Section, error) {
	section, err := s.sectionRepo.FindByBookAndID(ctx, bookID, sectionID)
	if err != nil {
		return nil, fmt.Errorf("セクションの取得に失敗: %w", err)
	}
	if section == nil {
		return nil, model.NewSectionNotFoundError(sectionID)
	}
	return section, nil
}

// checkCycle は新しい親から根まで親リンクを辿り、途中でsectionIDに
// 到達した場合（自分自身または子孫を親に指定した場合）にエラーを返す。
func (s *Service) checkCycle(ctx context.Context, sectionID string, newParent *model.Section) error {
	current := newParent
	for current != nil {
		if current.ID == sectionID {
			return model.NewParentCycleError()
		}
		if current.ParentID == nil {
			return nil
		}
		next, err := s.sectionRepo.FindByID(ctx, *current.ParentID)
		if err != nil {
			return fmt.Errorf("親セクションの取得に失敗: %w", err)
		}
		current = next
	}
	return nil
}

func (s *Service) sanitizeContent(content *string) *string {
	if content == nil {
		return nil
	}
	cleaned := s.sanitizer.Sanitize(*content)
	return &cleaned
}

// validateSectionTitle はセクションタイトルを検証し、前後の空白を除去して返す。
func validateSectionTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", model.NewEmptySectionTitleError()
	}
	if len([]rune(title)) > model.SectionTitleMaxLength {
		return "", model.NewSectionTitleTooLongError()
	}
	return title, nil
}
