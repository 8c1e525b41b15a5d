package mcp

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hpungsan/snip/internal/config"
	"github.com/hpungsan/snip/internal/session"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"snippet", "category", "label", "metadata", "selection", "filter"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"snippet_add": {
		def:     addToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAdd },
	},
	"snippet_update": {
		def:     updateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUpdate },
	},
	"snippet_delete": {
		def:     deleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"snippet_clone": {
		def:     cloneToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleClone },
	},
	"snippet_fetch": {
		def:     fetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFetch },
	},
	"snippet_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"snippet_search": {
		def:     searchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"snippet_compose": {
		def:     composeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCompose },
	},
	"snippet_export": {
		def:     exportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"snippet_import": {
		def:     importToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport },
	},
	"category_list": {
		def:     categoryListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCategoryList },
	},
	"label_list": {
		def:     labelListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLabelList },
	},
	"metadata_cleanup": {
		def:     cleanupToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCleanup },
	},
	"metadata_refresh": {
		def:     refreshToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRefresh },
	},
	"selection_select": {
		def:     selectToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSelect },
	},
	"selection_deselect": {
		def:     deselectToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeselect },
	},
	"selection_clear": {
		def:     selectionClearToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSelectionClear },
	},
	"selection_view": {
		def:     selectionViewToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSelectionView },
	},
	"selection_preview": {
		def:     selectionPreviewToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSelectionPreview },
	},
	"selection_delete_begin": {
		def:     deleteBeginToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeleteBegin },
	},
	"selection_delete_mark": {
		def:     deleteMarkToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeleteMark },
	},
	"selection_delete_confirm": {
		def:     deleteConfirmToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeleteConfirm },
	},
	"selection_delete_cancel": {
		def:     deleteCancelToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeleteCancel },
	},
	"filter_set": {
		def:     filterSetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFilterSet },
	},
	"filter_clear": {
		def:     filterClearToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFilterClear },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "snippet_add" → "snippet").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with snip tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration.
func NewServer(s *session.Session, cfg *config.Config, version string, logger *zap.Logger) *server.MCPServer {
	srv := server.NewMCPServer(
		"snip",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(s, cfg, logger)

	// Build set of disabled tools: first expand types, then add individual tools
	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	registered := 0
	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		srv.AddTool(entry.def, entry.handler(h))
		registered++
	}
	h.logger.Debug("mcp tools registered", zap.Int("count", registered), zap.Int("disabled", len(disabled)))

	return srv
}

// Run starts the MCP server using stdio transport.
func Run(s *session.Session, cfg *config.Config, version string, logger *zap.Logger) error {
	return server.ServeStdio(NewServer(s, cfg, version, logger))
}
