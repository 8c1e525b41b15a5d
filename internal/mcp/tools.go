package mcp

import "github.com/mark3labs/mcp-go/mcp"

var stringItems = mcp.Items(map[string]any{"type": "string"})

var addToolDef = mcp.NewTool("snippet_add",
	mcp.WithDescription("Create a prompt snippet. The category and labels are created on first use. prompt_text must not contain ';'."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Display name")),
	mcp.WithString("category", mcp.Required(), mcp.Description("Category name; lowercased, spaces and hyphens become underscores")),
	mcp.WithString("prompt_text", mcp.Required(), mcp.Description("The prompt fragment")),
	mcp.WithArray("labels", stringItems, mcp.Description("Label names")),
	mcp.WithBoolean("exclusive", mcp.Description("At most one exclusive snippet per category can be selected")),
)

var updateToolDef = mcp.NewTool("snippet_update",
	mcp.WithDescription("Update a snippet. Omitted fields keep their value; labels replaces the whole list."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Snippet id")),
	mcp.WithString("name", mcp.Description("New display name")),
	mcp.WithString("category", mcp.Description("New category name")),
	mcp.WithString("prompt_text", mcp.Description("New prompt text")),
	mcp.WithArray("labels", stringItems, mcp.Description("Replacement label list")),
	mcp.WithBoolean("exclusive", mcp.Description("New exclusive flag")),
)

var deleteToolDef = mcp.NewTool("snippet_delete",
	mcp.WithDescription("Delete snippets by id. Unknown ids are skipped."),
	mcp.WithArray("ids", mcp.Required(), stringItems, mcp.Description("Snippet ids")),
)

var cloneToolDef = mcp.NewTool("snippet_clone",
	mcp.WithDescription("Copy a snippet under a new id."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Source snippet id")),
	mcp.WithString("name", mcp.Description("Name for the copy (default: \"<name> (Copy)\")")),
)

var fetchToolDef = mcp.NewTool("snippet_fetch",
	mcp.WithDescription("Fetch one snippet with resolved category and label names."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Snippet id")),
)

var listToolDef = mcp.NewTool("snippet_list",
	mcp.WithDescription("List snippets in collection order."),
	mcp.WithString("category", mcp.Description("Only this category")),
	mcp.WithString("label", mcp.Description("Only snippets carrying this label")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 50, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Page offset")),
)

var searchToolDef = mcp.NewTool("snippet_search",
	mcp.WithDescription("Search snippets by free text and category/label bubbles. Does not change the session filter."),
	mcp.WithString("query", mcp.Description("Case-insensitive text matched against name, category, labels and prompt text")),
	mcp.WithArray("categories", stringItems, mcp.Description("Category bubbles")),
	mcp.WithArray("labels", stringItems, mcp.Description("Label bubbles")),
	mcp.WithString("mode", mcp.Enum("AND", "OR"), mcp.Description("How bubbles combine (default AND)")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 50, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Page offset")),
)

var composeToolDef = mcp.NewTool("snippet_compose",
	mcp.WithDescription("Assemble snippets into one prompt. Without ids the current selection is used."),
	mcp.WithArray("ids", stringItems, mcp.Description("Snippet ids in bundle order")),
	mcp.WithString("format", mcp.Enum("text", "markdown", "html"), mcp.Description("Bundle format (default text)")),
)

var exportToolDef = mcp.NewTool("snippet_export",
	mcp.WithDescription("Export snippets to a sample-format JSON file."),
	mcp.WithString("path", mcp.Description("Destination .json file directly in <data dir>/exports or an allowed_paths directory (default: <data dir>/exports/snippets-<timestamp>.json)")),
	mcp.WithString("category", mcp.Description("Only this category")),
)

var importToolDef = mcp.NewTool("snippet_import",
	mcp.WithDescription("Import snippets from a sample-format JSON file. Each record gets a new id."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Source .json file directly in <data dir>/exports or an allowed_paths directory")),
)

var categoryListToolDef = mcp.NewTool("category_list",
	mcp.WithDescription("List categories with sort order, color and usage count."),
)

var labelListToolDef = mcp.NewTool("label_list",
	mcp.WithDescription("List labels with usage count."),
)

var cleanupToolDef = mcp.NewTool("metadata_cleanup",
	mcp.WithDescription("Report categories and labels no snippet uses, optionally removing them."),
	mcp.WithBoolean("remove_unused", mcp.Description("Delete unused records")),
)

var refreshToolDef = mcp.NewTool("metadata_refresh",
	mcp.WithDescription("Heal orphan references and recount usage from the snippet collection."),
	mcp.WithBoolean("reload", mcp.Description("Re-read metadata.json first")),
)

var selectToolDef = mcp.NewTool("selection_select",
	mcp.WithDescription("Select a snippet. Fails with CONFLICT if another exclusive snippet holds its category."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Snippet id")),
)

var deselectToolDef = mcp.NewTool("selection_deselect",
	mcp.WithDescription("Deselect a snippet."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Snippet id")),
)

var selectionClearToolDef = mcp.NewTool("selection_clear",
	mcp.WithDescription("Deselect every snippet."),
)

var selectionViewToolDef = mcp.NewTool("selection_view",
	mcp.WithDescription("Show the visible snippets with their selection status and the active filter."),
)

var selectionPreviewToolDef = mcp.NewTool("selection_preview",
	mcp.WithDescription("Show the selected prompt texts joined with \"; \"."),
)

var deleteBeginToolDef = mcp.NewTool("selection_delete_begin",
	mcp.WithDescription("Enter bulk delete mode. Every selection is cleared; selection, filter and edit tools fail with CONFLICT until the delete is confirmed or cancelled."),
)

var deleteMarkToolDef = mcp.NewTool("selection_delete_mark",
	mcp.WithDescription("Toggle a snippet in the pending delete set."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Snippet id")),
)

var deleteConfirmToolDef = mcp.NewTool("selection_delete_confirm",
	mcp.WithDescription("Delete every marked snippet and leave bulk delete mode."),
)

var deleteCancelToolDef = mcp.NewTool("selection_delete_cancel",
	mcp.WithDescription("Leave bulk delete mode without deleting anything."),
)

var filterSetToolDef = mcp.NewTool("filter_set",
	mcp.WithDescription("Replace the session filter. Selections hidden by the filter stay selected."),
	mcp.WithString("query", mcp.Description("Free text")),
	mcp.WithArray("categories", stringItems, mcp.Description("Category bubbles")),
	mcp.WithArray("labels", stringItems, mcp.Description("Label bubbles")),
	mcp.WithString("mode", mcp.Enum("AND", "OR"), mcp.Description("How bubbles combine (default AND)")),
)

var filterClearToolDef = mcp.NewTool("filter_clear",
	mcp.WithDescription("Drop the query and every bubble. The mode and selections are kept."),
)
