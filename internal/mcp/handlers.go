package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hpungsan/snip/internal/config"
	"github.com/hpungsan/snip/internal/errors"
	"github.com/hpungsan/snip/internal/filter"
	"github.com/hpungsan/snip/internal/ops"
	"github.com/hpungsan/snip/internal/session"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	session *session.Session
	cfg     *config.Config
	logger  *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(s *session.Session, cfg *config.Config, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{session: s, cfg: cfg, logger: logger}
}

// Request types for each tool

// AddRequest represents the arguments for snippet_add.
type AddRequest struct {
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	PromptText string   `json:"prompt_text"`
	Labels     []string `json:"labels,omitempty"`
	Exclusive  bool     `json:"exclusive,omitempty"`
}

// UpdateRequest represents the arguments for snippet_update.
type UpdateRequest struct {
	ID         string    `json:"id"`
	Name       *string   `json:"name,omitempty"`
	Category   *string   `json:"category,omitempty"`
	PromptText *string   `json:"prompt_text,omitempty"`
	Labels     *[]string `json:"labels,omitempty"`
	Exclusive  *bool     `json:"exclusive,omitempty"`
}

// IDsRequest represents tool arguments that name several snippets.
type IDsRequest struct {
	IDs []string `json:"ids"`
}

// IDRequest represents tool arguments that name one snippet.
type IDRequest struct {
	ID string `json:"id"`
}

// CloneRequest represents the arguments for snippet_clone.
type CloneRequest struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// ListRequest represents the arguments for snippet_list.
type ListRequest struct {
	Category string `json:"category,omitempty"`
	Label    string `json:"label,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// SearchRequest represents the arguments for snippet_search.
type SearchRequest struct {
	Query      string   `json:"query,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Labels     []string `json:"labels,omitempty"`
	Mode       string   `json:"mode,omitempty"`
	Limit      int      `json:"limit,omitempty"`
	Offset     int      `json:"offset,omitempty"`
}

// ComposeRequest represents the arguments for snippet_compose.
type ComposeRequest struct {
	IDs    []string `json:"ids,omitempty"`
	Format string   `json:"format,omitempty"`
}

// ExportRequest represents the arguments for snippet_export.
type ExportRequest struct {
	Path     string `json:"path,omitempty"`
	Category string `json:"category,omitempty"`
}

// ImportRequest represents the arguments for snippet_import.
type ImportRequest struct {
	Path string `json:"path"`
}

// CleanupRequest represents the arguments for metadata_cleanup.
type CleanupRequest struct {
	RemoveUnused bool `json:"remove_unused,omitempty"`
}

// RefreshRequest represents the arguments for metadata_refresh.
type RefreshRequest struct {
	Reload bool `json:"reload,omitempty"`
}

// FilterRequest represents the arguments for filter_set.
type FilterRequest struct {
	Query      string   `json:"query,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Labels     []string `json:"labels,omitempty"`
	Mode       string   `json:"mode,omitempty"`
}

// ViewResult is returned by the selection and filter tools.
type ViewResult struct {
	Rows    []session.Row   `json:"rows"`
	Summary session.Summary `json:"summary"`
}

// DeleteConfirmResult is returned by selection_delete_confirm.
type DeleteConfirmResult struct {
	Deleted int `json:"deleted"`
	ViewResult
}

// PreviewResult is returned by selection_preview.
type PreviewResult struct {
	Preview       string `json:"preview"`
	SelectedCount int    `json:"selected_count"`
}

// HandleAdd handles the snippet_add tool call.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Add(h.session, ops.AddInput{
		Name:       input.Name,
		Category:   input.Category,
		PromptText: input.PromptText,
		Labels:     input.Labels,
		Exclusive:  input.Exclusive,
	})
	if err != nil {
		return h.fail("snippet_add", err), nil
	}

	return successResult(result)
}

// HandleUpdate handles the snippet_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Update(h.session, ops.UpdateInput{
		ID:         input.ID,
		Name:       input.Name,
		Category:   input.Category,
		PromptText: input.PromptText,
		Labels:     input.Labels,
		Exclusive:  input.Exclusive,
	})
	if err != nil {
		return h.fail("snippet_update", err), nil
	}

	return successResult(result)
}

// HandleDelete handles the snippet_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Delete(h.session, ops.DeleteInput{IDs: input.IDs})
	if err != nil {
		return h.fail("snippet_delete", err), nil
	}

	return successResult(result)
}

// HandleClone handles the snippet_clone tool call.
func (h *Handlers) HandleClone(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CloneRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Clone(h.session, ops.CloneInput{ID: input.ID, Name: input.Name})
	if err != nil {
		return h.fail("snippet_clone", err), nil
	}

	return successResult(result)
}

// HandleFetch handles the snippet_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Fetch(h.session, ops.FetchInput{ID: input.ID})
	if err != nil {
		return h.fail("snippet_fetch", err), nil
	}

	return successResult(result)
}

// HandleList handles the snippet_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(h.session, ops.ListInput{
		Category: input.Category,
		Label:    input.Label,
		Limit:    input.Limit,
		Offset:   input.Offset,
	})
	if err != nil {
		return h.fail("snippet_list", err), nil
	}

	return successResult(result)
}

// HandleSearch handles the snippet_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Search(h.session, ops.SearchInput{
		Query:      input.Query,
		Categories: input.Categories,
		Labels:     input.Labels,
		Mode:       input.Mode,
		Limit:      input.Limit,
		Offset:     input.Offset,
	})
	if err != nil {
		return h.fail("snippet_search", err), nil
	}

	return successResult(result)
}

// HandleCompose handles the snippet_compose tool call.
func (h *Handlers) HandleCompose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ComposeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Compose(h.session, ops.ComposeInput{IDs: input.IDs, Format: input.Format})
	if err != nil {
		return h.fail("snippet_compose", err), nil
	}

	return successResult(result)
}

// HandleExport handles the snippet_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(h.session, h.cfg, ops.ExportInput{Path: input.Path, Category: input.Category})
	if err != nil {
		return h.fail("snippet_export", err), nil
	}

	return successResult(result)
}

// HandleImport handles the snippet_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(h.session, h.cfg, ops.ImportInput{Path: input.Path})
	if err != nil {
		return h.fail("snippet_import", err), nil
	}

	return successResult(result)
}

// HandleCategoryList handles the category_list tool call.
func (h *Handlers) HandleCategoryList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Categories(h.session)
	if err != nil {
		return h.fail("category_list", err), nil
	}
	return successResult(result)
}

// HandleLabelList handles the label_list tool call.
func (h *Handlers) HandleLabelList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Labels(h.session)
	if err != nil {
		return h.fail("label_list", err), nil
	}
	return successResult(result)
}

// HandleCleanup handles the metadata_cleanup tool call.
func (h *Handlers) HandleCleanup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CleanupRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Cleanup(h.session, ops.CleanupInput{RemoveUnused: input.RemoveUnused})
	if err != nil {
		return h.fail("metadata_cleanup", err), nil
	}

	return successResult(result)
}

// HandleRefresh handles the metadata_refresh tool call.
func (h *Handlers) HandleRefresh(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RefreshRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Refresh(h.session, ops.RefreshInput{Reload: input.Reload})
	if err != nil {
		return h.fail("metadata_refresh", err), nil
	}

	return successResult(result)
}

// HandleSelect handles the selection_select tool call.
func (h *Handlers) HandleSelect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := h.session.Select(input.ID); err != nil {
		return h.fail("selection_select", err), nil
	}
	return h.viewResult("selection_select")
}

// HandleDeselect handles the selection_deselect tool call.
func (h *Handlers) HandleDeselect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if err := h.session.Deselect(input.ID); err != nil {
		return h.fail("selection_deselect", err), nil
	}
	return h.viewResult("selection_deselect")
}

// HandleSelectionClear handles the selection_clear tool call.
func (h *Handlers) HandleSelectionClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.session.ClearSelections(); err != nil {
		return h.fail("selection_clear", err), nil
	}
	return h.viewResult("selection_clear")
}

// HandleSelectionView handles the selection_view tool call.
func (h *Handlers) HandleSelectionView(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.viewResult("selection_view")
}

// HandleSelectionPreview handles the selection_preview tool call.
func (h *Handlers) HandleSelectionPreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	selected, err := h.session.Selected()
	if err != nil {
		return h.fail("selection_preview", err), nil
	}
	return successResult(PreviewResult{
		Preview:       session.PreviewText(selected),
		SelectedCount: len(selected),
	})
}

// HandleDeleteBegin handles the selection_delete_begin tool call.
func (h *Handlers) HandleDeleteBegin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.session.BeginDelete(); err != nil {
		return h.fail("selection_delete_begin", err), nil
	}
	return h.viewResult("selection_delete_begin")
}

// HandleDeleteMark handles the selection_delete_mark tool call.
func (h *Handlers) HandleDeleteMark(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if _, err := h.session.MarkForDelete(input.ID); err != nil {
		return h.fail("selection_delete_mark", err), nil
	}
	return h.viewResult("selection_delete_mark")
}

// HandleDeleteConfirm handles the selection_delete_confirm tool call.
func (h *Handlers) HandleDeleteConfirm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	deleted, err := h.session.ConfirmDelete()
	if err != nil {
		return h.fail("selection_delete_confirm", err), nil
	}
	rows, err := h.session.View()
	if err != nil {
		return h.fail("selection_delete_confirm", err), nil
	}
	summary, err := h.session.Summary()
	if err != nil {
		return h.fail("selection_delete_confirm", err), nil
	}
	return successResult(DeleteConfirmResult{
		Deleted:    deleted,
		ViewResult: ViewResult{Rows: rows, Summary: summary},
	})
}

// HandleDeleteCancel handles the selection_delete_cancel tool call.
func (h *Handlers) HandleDeleteCancel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.session.CancelDelete()
	return h.viewResult("selection_delete_cancel")
}

// HandleFilterSet handles the filter_set tool call.
func (h *Handlers) HandleFilterSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FilterRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	err = h.session.SetCriteria(filter.Criteria{
		Query:      input.Query,
		Categories: input.Categories,
		Labels:     input.Labels,
		Mode:       filter.Mode(input.Mode),
	})
	if err != nil {
		return h.fail("filter_set", err), nil
	}
	return h.viewResult("filter_set")
}

// HandleFilterClear handles the filter_clear tool call.
func (h *Handlers) HandleFilterClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.session.ClearFilters(); err != nil {
		return h.fail("filter_clear", err), nil
	}
	return h.viewResult("filter_clear")
}

func (h *Handlers) viewResult(tool string) (*mcp.CallToolResult, error) {
	rows, err := h.session.View()
	if err != nil {
		return h.fail(tool, err), nil
	}
	summary, err := h.session.Summary()
	if err != nil {
		return h.fail(tool, err), nil
	}
	return successResult(ViewResult{Rows: rows, Summary: summary})
}

// fail logs server-side failures and converts err into a tool error result.
func (h *Handlers) fail(tool string, err error) *mcp.CallToolResult {
	if se, ok := errors.As(err); !ok || se.Status >= 500 {
		h.logger.Error("tool call failed", zap.String("tool", tool), zap.Error(err))
	} else {
		h.logger.Debug("tool call rejected", zap.String("tool", tool), zap.String("code", string(se.Code)))
	}
	return errorResult(err)
}

// errorResult creates an MCP error result from a SnipError or generic error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if snipErr, ok := errors.As(err); ok {
		errorObj := map[string]any{
			"code":    snipErr.Code,
			"message": snipErr.Message,
			"status":  snipErr.Status,
		}
		// Internal errors carry no details; they may hold file paths.
		if snipErr.Code != errors.ErrInternal && snipErr.Details != nil {
			errorObj["details"] = snipErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
