package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bookman/internal/metrics"
	"github.com/hitoshi/bookman/internal/repository"
)

// CollaboratorServiceInterface は共同編集者ハンドラーが必要とするサービスインターフェース。
type CollaboratorServiceInterface interface {
	// ListCollaborators はブックの共同編集者一覧を返す。著者のみ。
	ListCollaborators(ctx context.Context, userID, bookID string) ([]repository.CollaboratorWithUser, error)
	// AddCollaborator はメールアドレスで指定したユーザーを追加する。著者のみ。
	AddCollaborator(ctx context.Context, userID, bookID, email string) (*repository.CollaboratorWithUser, error)
	// RemoveCollaborator は共同編集者をブックから外す。著者のみ。
	RemoveCollaborator(ctx context.Context, userID, bookID, collaboratorID string) error
}

// CollaboratorHandler は共同編集者管理のHTTPハンドラー。
type CollaboratorHandler struct {
	service CollaboratorServiceInterface
	metrics metrics.MetricsCollector // nil可
}

// NewCollaboratorHandler はCollaboratorHandlerを生成する。
func NewCollaboratorHandler(service CollaboratorServiceInterface, collector metrics.MetricsCollector) *CollaboratorHandler {
	return &CollaboratorHandler{
		service: service,
		metrics: collector,
	}
}

// addCollaboratorRequest は共同編集者追加リクエストのボディ。
type addCollaboratorRequest struct {
	Email string `json:"email"`
}

// collaboratorResponse は共同編集者情報のAPIレスポンス。
type collaboratorResponse struct {
	ID             string    `json:"id"`
	BookID         string    `json:"book_id"`
	CollaboratorID string    `json:"collaborator_id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
}

// ListCollaborators はブックの共同編集者一覧を返す。
// GET /api/books/:id/collaborators
func (h *CollaboratorHandler) ListCollaborators(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	bookID := chi.URLParam(r, "id")

	collabs, err := h.service.ListCollaborators(r.Context(), userID, bookID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]collaboratorResponse, len(collabs))
	for i, c := range collabs {
		results[i] = toCollaboratorResponse(&c)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// AddCollaborator は共同編集者の追加を処理する。
// POST /api/books/:id/collaborators
func (h *CollaboratorHandler) AddCollaborator(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	bookID := chi.URLParam(r, "id")

	var req addCollaboratorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	added, err := h.service.AddCollaborator(r.Context(), userID, bookID, req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordCollaboratorAdded()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toCollaboratorResponse(added))
}

// RemoveCollaborator は共同編集者をブックから外す。
// DELETE /api/books/:id/collaborators/:collaboratorID
func (h *CollaboratorHandler) RemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	bookID := chi.URLParam(r, "id")
	collaboratorID := chi.URLParam(r, "collaboratorID")

	if err := h.service.RemoveCollaborator(r.Context(), userID, bookID, collaboratorID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toCollaboratorResponse は共同編集者行をhandlerのレスポンス型に変換する。
func toCollaboratorResponse(c *repository.CollaboratorWithUser) collaboratorResponse {
	return collaboratorResponse{
		ID:             c.ID,
		BookID:         c.BookID,
		CollaboratorID: c.CollaboratorID,
		Email:          c.UserEmail,
		Name:           c.UserName,
		CreatedAt:      c.CreatedAt,
	}
}
