package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bookman/internal/metrics"
	"github.com/hitoshi/bookman/internal/middleware"
	"github.com/hitoshi/bookman/internal/model"
)

// BookServiceInterface はブックハンドラーが必要とするサービスインターフェース。
type BookServiceInterface interface {
	// ListBooks はユーザーから可視のブック一覧を返す。
	ListBooks(ctx context.Context, userID string) ([]*model.Book, error)
	// GetBook は可視範囲のブックを取得する。
	GetBook(ctx context.Context, userID, bookID string) (*model.Book, error)
	// CreateBook はブックを作成する。
	CreateBook(ctx context.Context, userID, name string) (*model.Book, error)
	// UpdateBook はブック名を変更する。著者のみ。
	UpdateBook(ctx context.Context, userID, bookID, name string) (*model.Book, error)
	// DeleteBook はブックを連鎖削除する。著者のみ。
	DeleteBook(ctx context.Context, userID, bookID string) error
}

// BookHandler はブック管理のHTTPハンドラー。
type BookHandler struct {
	service BookServiceInterface
	metrics metrics.MetricsCollector // nil可
}

// NewBookHandler はBookHandlerを生成する。
func NewBookHandler(service BookServiceInterface, collector metrics.MetricsCollector) *BookHandler {
	return &BookHandler{
		service: service,
		metrics: collector,
	}
}

// bookRequest はブック作成・更新リクエストのボディ。
type bookRequest struct {
	Name string `json:"name"`
}

// bookResponse はブック情報のAPIレスポンス。
type bookResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// ListBooks は可視ブック一覧を返す。
// GET /api/books
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	books, err := h.service.ListBooks(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]bookResponse, len(books))
	for i, b := range books {
		results[i] = toBookResponse(b)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// CreateBook はブック作成を処理する。
// POST /api/books
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	book, err := h.service.CreateBook(r.Context(), userID, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordBookCreated()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toBookResponse(book))
}

// GetBook はブック詳細を取得する。
// GET /api/books/:id
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	bookID := chi.URLParam(r, "id")

	book, err := h.service.GetBook(r.Context(), userID, bookID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toBookResponse(book))
}

// UpdateBook はブック名を変更する。
// PUT /api/books/:id
func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	bookID := chi.URLParam(r, "id")

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	book, err := h.service.UpdateBook(r.Context(), userID, bookID, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toBookResponse(book))
}

// DeleteBook はブックを連鎖削除する。
// DELETE /api/books/:id
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	bookID := chi.URLParam(r, "id")

	if err := h.service.DeleteBook(r.Context(), userID, bookID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toBookResponse はドメインのBookをhandlerのレスポンス型に変換する。
func toBookResponse(book *model.Book) bookResponse {
	return bookResponse{
		ID:        book.ID,
		Name:      book.Name,
		AuthorID:  book.AuthorID,
		CreatedAt: book.CreatedAt,
		UpdatedAt: book.UpdatedAt,
	}
}

// requireUserID はリクエストコンテキストからユーザーIDを取り出す。
// 見つからない場合は401を書き込み、falseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     "UNAUTHORIZED",
			Message:  "Authentication required.",
			Category: "auth",
			Action:   "Log in and try again.",
		})
		return "", false
	}
	return userID, true
}

// newInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func newInvalidRequestError() *model.APIError {
	return &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "Failed to parse the request body.",
		Category: "validation",
		Action:   "Send a valid JSON request body.",
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "An internal error occurred.",
		Category: "system",
		Action:   "Please wait a moment and try again.",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeBookNotFound, model.ErrCodeSectionNotFound,
		model.ErrCodeCollaboratorNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeEmptyBookName, model.ErrCodeBookNameTooLong,
		model.ErrCodeEmptySectionTitle, model.ErrCodeSectionTitleTooLong,
		model.ErrCodeParentMismatch, model.ErrCodeParentCycle,
		model.ErrCodeCollaboratorExists, model.ErrCodeCollaboratorIsAuthor,
		model.ErrCodeCollaboratorNoUser,
		model.ErrCodeInvalidEmail, model.ErrCodeEmptyUserName,
		model.ErrCodeWeakPassword, model.ErrCodeEmailTaken, model.ErrCodeNameTaken:
		return http.StatusBadRequest
	case model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
