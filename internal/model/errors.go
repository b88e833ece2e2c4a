// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// メッセージはプロダクトのUI言語に合わせて英語で保持する。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, book, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeBookNotFound         = "BOOK_NOT_FOUND"
	ErrCodeSectionNotFound      = "SECTION_NOT_FOUND"
	ErrCodeCollaboratorNotFound = "COLLABORATOR_NOT_FOUND"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeEmptyBookName        = "EMPTY_BOOK_NAME"
	ErrCodeBookNameTooLong      = "BOOK_NAME_TOO_LONG"
	ErrCodeEmptySectionTitle    = "EMPTY_SECTION_TITLE"
	ErrCodeSectionTitleTooLong  = "SECTION_TITLE_TOO_LONG"
	ErrCodeParentMismatch       = "PARENT_SECTION_MISMATCH"
	ErrCodeParentCycle          = "PARENT_SECTION_CYCLE"
	ErrCodeCollaboratorExists   = "COLLABORATOR_EXISTS"
	ErrCodeCollaboratorIsAuthor = "COLLABORATOR_IS_AUTHOR"
	ErrCodeCollaboratorNoUser   = "COLLABORATOR_EMAIL_NOT_FOUND"
	ErrCodeInvalidEmail         = "INVALID_EMAIL"
	ErrCodeEmptyUserName        = "EMPTY_USER_NAME"
	ErrCodeWeakPassword         = "WEAK_PASSWORD"
	ErrCodeEmailTaken           = "EMAIL_TAKEN"
	ErrCodeNameTaken            = "NAME_TAKEN"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeForbidden            = "FORBIDDEN"
)

// NewBookNotFoundError はブック未検出エラーを生成する。
// 可視範囲外のブックに対しても同じエラーを返し、存在の有無を漏らさない。
func NewBookNotFoundError(bookID string) *APIError {
	return &APIError{
		Code:     ErrCodeBookNotFound,
		Message:  fmt.Sprintf("Book not found: %s", bookID),
		Category: "book",
		Action:   "Check the book ID, or ask the author for access.",
	}
}

// NewSectionNotFoundError はセクション未検出エラーを生成する。
func NewSectionNotFoundError(sectionID string) *APIError {
	return &APIError{
		Code:     ErrCodeSectionNotFound,
		Message:  fmt.Sprintf("Section not found: %s", sectionID),
		Category: "book",
		Action:   "Check the section ID.",
	}
}

// NewCollaboratorNotFoundError は共同編集者未検出エラーを生成する。
func NewCollaboratorNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeCollaboratorNotFound,
		Message:  "This user is not a collaborator of the book.",
		Category: "book",
		Action:   "Check the collaborator list of the book.",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found.",
		Category: "auth",
		Action:   "Log in again.",
	}
}

// NewEmptyBookNameError はブック名が空の場合のエラーを生成する。
func NewEmptyBookNameError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyBookName,
		Message:  "Book name must not be empty.",
		Category: "validation",
		Action:   "Enter a book name.",
	}
}

// NewBookNameTooLongError はブック名が最大長を超えた場合のエラーを生成する。
func NewBookNameTooLongError() *APIError {
	return &APIError{
		Code:     ErrCodeBookNameTooLong,
		Message:  fmt.Sprintf("Book name must be at most %d characters.", BookNameMaxLength),
		Category: "validation",
		Action:   "Use a shorter book name.",
	}
}

// NewEmptySectionTitleError はセクションタイトルが空の場合のエラーを生成する。
func NewEmptySectionTitleError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptySectionTitle,
		Message:  "Section title must not be empty.",
		Category: "validation",
		Action:   "Enter a section title.",
	}
}

// NewSectionTitleTooLongError はセクションタイトルが最大長を超えた場合のエラーを生成する。
func NewSectionTitleTooLongError() *APIError {
	return &APIError{
		Code:     ErrCodeSectionTitleTooLong,
		Message:  fmt.Sprintf("Section title must be at most %d characters.", SectionTitleMaxLength),
		Category: "validation",
		Action:   "Use a shorter section title.",
	}
}

// NewParentMismatchError は親セクションが別ブックに属する場合のエラーを生成する。
func NewParentMismatchError() *APIError {
	return &APIError{
		Code:     ErrCodeParentMismatch,
		Message:  "Parent section is not from this book.",
		Category: "validation",
		Action:   "Choose a parent section from the same book.",
	}
}

// NewParentCycleError は親の付け替えで循環が生じる場合のエラーを生成する。
func NewParentCycleError() *APIError {
	return &APIError{
		Code:     ErrCodeParentCycle,
		Message:  "A section cannot be its own ancestor.",
		Category: "validation",
		Action:   "Choose a parent section outside this section's subtree.",
	}
}

// NewCollaboratorExistsError は既に共同編集者のユーザーを再追加した場合のエラーを生成する。
func NewCollaboratorExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeCollaboratorExists,
		Message:  "User with this email is already a collaborator.",
		Category: "validation",
		Action:   "Check the collaborator list of the book.",
	}
}

// NewCollaboratorIsAuthorError は著者自身のメールアドレスを指定した場合のエラーを生成する。
func NewCollaboratorIsAuthorError() *APIError {
	return &APIError{
		Code:     ErrCodeCollaboratorIsAuthor,
		Message:  "The author of the book cannot be added as a collaborator.",
		Category: "validation",
		Action:   "The author already has full access to the book.",
	}
}

// NewCollaboratorNoUserError は未登録メールアドレスを指定した場合のエラーを生成する。
func NewCollaboratorNoUserError() *APIError {
	return &APIError{
		Code:     ErrCodeCollaboratorNoUser,
		Message:  "User with this email does not exist.",
		Category: "validation",
		Action:   "Ask the user to sign up first, then add them by email.",
	}
}

// NewInvalidEmailError はメールアドレス形式が不正な場合のエラーを生成する。
func NewInvalidEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  "Invalid email address.",
		Category: "validation",
		Action:   "Enter a valid email address.",
	}
}

// NewEmptyUserNameError はユーザー名が空の場合のエラーを生成する。
func NewEmptyUserNameError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyUserName,
		Message:  "Username must not be empty.",
		Category: "validation",
		Action:   "Enter a username.",
	}
}

// NewWeakPasswordError はパスワードが最低文字数に満たない場合のエラーを生成する。
func NewWeakPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeWeakPassword,
		Message:  "Password must be at least 8 characters.",
		Category: "validation",
		Action:   "Choose a longer password.",
	}
}

// NewEmailTakenError は登録済みメールアドレスで再登録しようとした場合のエラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "This email is already registered.",
		Category: "validation",
		Action:   "Log in instead, or use a different email.",
	}
}

// NewNameTakenError は使用中のユーザー名で登録しようとした場合のエラーを生成する。
func NewNameTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeNameTaken,
		Message:  "This username is already taken.",
		Category: "validation",
		Action:   "Choose a different username.",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// メールアドレスの存在有無を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid email or password.",
		Category: "auth",
		Action:   "Check your email and password.",
	}
}

// NewForbiddenError は可視のリソースに対して許可されない操作を行った場合のエラーを生成する。
// 所有者限定の操作は通常、所有者スコープの解決によりNOT_FOUNDに畳み込まれるため、
// 現状このエラーを返す経路はないが、エラー体系としては定義しておく。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "You are not the author of this book.",
		Category: "book",
		Action:   "Only the book author can perform this action.",
	}
}
