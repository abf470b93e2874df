package mcp

import "github.com/vmtabs/vmtabs/internal/registry"

// ListTabsInput is the input for the list_tabs tool.
type ListTabsInput struct{}

// ListTabsOutput is the output for the list_tabs tool.
type ListTabsOutput struct {
	Tabs []registry.TabInfo `json:"tabs"`
}

// StatusInput is the input for the get_status tool.
type StatusInput struct{}

// StatusOutput is the output for the get_status tool.
type StatusOutput struct {
	TabCount      int   `json:"tab_count"`
	AttachedCount int   `json:"attached_count"`
	UptimeSeconds int64 `json:"uptime_seconds"`
	DaemonRunning bool  `json:"daemon_running"`
}

// WindowInput identifies a tracked window by its native handle.
type WindowInput struct {
	ID uint32 `json:"id" jsonschema:"required,Native window handle of the target tab"`
}

// RefreshInput is the input for the refresh tool.
type RefreshInput struct{}

// AttachAllInput is the input for the attach_all tool.
type AttachAllInput struct{}

// RenameTabInput is the input for the rename_tab tool.
type RenameTabInput struct {
	ID    uint32 `json:"id" jsonschema:"required,Native window handle of the target tab"`
	Title string `json:"title" jsonschema:"required,New display title for the tab"`
}

// CloseAllInput is the input for the close_all tool.
type CloseAllInput struct{}

// CloseTabOutput is the output for the close_tab tool.
type CloseTabOutput struct {
	Terminated bool `json:"terminated"`
}

// CloseAllOutput is the output for the close_all tool.
type CloseAllOutput struct {
	Closed int `json:"closed"`
}
