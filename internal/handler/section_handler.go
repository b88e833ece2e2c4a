package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bookman/internal/metrics"
	"github.com/hitoshi/bookman/internal/model"
	"github.com/hitoshi/bookman/internal/section"
)

// SectionServiceInterface はセクションハンドラーが必要とするサービスインターフェース。
type SectionServiceInterface interface {
	// ListSections はブックの全セクションを返す。
	ListSections(ctx context.Context, userID, bookID string) ([]*model.Section, error)
	// GetSection はブックに属するセクションと直下の子セクション一覧を取得する。
	GetSection(ctx context.Context, userID, bookID, sectionID string) (*model.Section, []*model.Section, error)
	// CreateSection はセクションを作成する。
	CreateSection(ctx context.Context, userID, bookID string, params section.CreateParams) (*model.Section, error)
	// UpdateSection はセクションのタイトル・本文・親を更新する。
	UpdateSection(ctx context.Context, userID, bookID, sectionID string, params section.UpdateParams) (*model.Section, error)
	// DeleteSection はセクションを部分木ごと削除し、削除件数を返す。
	DeleteSection(ctx context.Context, userID, bookID, sectionID string) (int64, error)
}

// SectionHandler はセクション管理のHTTPハンドラー。
type SectionHandler struct {
	service SectionServiceInterface
	metrics metrics.MetricsCollector // nil可
}

// NewSectionHandler はSectionHandlerを生成する。
func NewSectionHandler(service SectionServiceInterface, collector metrics.MetricsCollector) *SectionHandler {
	return &SectionHandler{
		service: service,
		metrics: collector,
	}
}

// sectionRequest はセクション作成・更新リクエストのボディ。
type sectionRequest struct {
	Title    string  `json:"title"`
	Content  *string `json:"content"`
	ParentID *string `json:"parent_id"`
}

// sectionResponse はセクション情報のAPIレスポンス。
type sectionResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   *string   `json:"content"`
	BookID    *string   `json:"book_id"`
	ParentID  *string   `json:"parent_id"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// sectionDetailResponse はセクション詳細のAPIレスポンス。
// 直下の子セクション一覧を含む。
type sectionDetailResponse struct {
	sectionResponse
	Subsections []sectionResponse `json:"subsections"`
}

// ListSections はブックのセクション一覧を返す。
// GET /api/books/:id/sections
func (h *SectionHandler) ListSections(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	bookID := chi.URLParam(r, "id")

	sections, err := h.service.ListSections(r.Context(), userID, bookID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]sectionResponse, len(sections))
	for i, s := range sections {
		results[i] = toSectionResponse(s)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

// CreateSection はセクション作成を処理する。
// POST /api/books/:id/sections
func (h *SectionHandler) CreateSection(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	bookID := chi.URLParam(r, "id")

	var req sectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	created, err := h.service.CreateSection(r.Context(), userID, bookID, section.CreateParams{
		Title:    req.Title,
		Content:  req.Content,
		ParentID: req.ParentID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordSectionCreated()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toSectionResponse(created))
}

// GetSection はセクション詳細を取得する。
// GET /api/books/:id/sections/:sectionID
func (h *SectionHandler) GetSection(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	bookID := chi.URLParam(r, "id")
	sectionID := chi.URLParam(r, "sectionID")

	found, subsections, err := h.service.GetSection(r.Context(), userID, bookID, sectionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := sectionDetailResponse{
		sectionResponse: toSectionResponse(found),
		Subsections:     make([]sectionResponse, len(subsections)),
	}
	for i, sub := range subsections {
		resp.Subsections[i] = toSectionResponse(sub)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// UpdateSection はセクションを更新する。
// PUT /api/books/:id/sections/:sectionID
func (h *SectionHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	bookID := chi.URLParam(r, "id")
	sectionID := chi.URLParam(r, "sectionID")

	var req sectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, newInvalidRequestError())
		return
	}

	updated, err := h.service.UpdateSection(r.Context(), userID, bookID, sectionID, section.UpdateParams{
		Title:    req.Title,
		Content:  req.Content,
		ParentID: req.ParentID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toSectionResponse(updated))
}

// DeleteSection はセクションを部分木ごと削除する。
// DELETE /api/books/:id/sections/:sectionID
func (h *SectionHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	bookID := chi.URLParam(r, "id")
	sectionID := chi.URLParam(r, "sectionID")

	deleted, err := h.service.DeleteSection(r.Context(), userID, bookID, sectionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordSectionsDeleted(int(deleted))
	}

	w.WriteHeader(http.StatusNoContent)
}

// toSectionResponse はドメインのSectionをhandlerのレスポンス型に変換する。
func toSectionResponse(s *model.Section) sectionResponse {
	return sectionResponse{
		ID:        s.ID,
		Title:     s.Title,
		Content:   s.Content,
		BookID:    s.BookID,
		ParentID:  s.ParentID,
		AuthorID:  s.AuthorID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
