// Package mcp exposes the tab daemon over the Model Context Protocol so
// assistants can inspect and drive embedded windows through the same IPC
// surface the CLI uses.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vmtabs/vmtabs/internal/ipc"
	"github.com/vmtabs/vmtabs/internal/registry"
)

const (
	ServerName    = "vmtabs"
	ServerVersion = "0.1.0"
)

// daemonClient is the subset of the IPC client the tools need. Tests swap
// in a fake.
type daemonClient interface {
	GetStatus() (*ipc.StatusData, error)
	ListTabs() ([]registry.TabInfo, error)
	Refresh() ([]registry.TabInfo, error)
	AttachAll() ([]registry.TabInfo, error)
	Attach(id uint32) ([]registry.TabInfo, error)
	Detach(id uint32) ([]registry.TabInfo, error)
	RenameTab(id uint32, title string) ([]registry.TabInfo, error)
	CloseTab(id uint32) (bool, error)
	CloseAll() (int, error)
}

// Server is the MCP server bridging tools to the running daemon.
type Server struct {
	mcpServer *mcpsdk.Server
	client    daemonClient
}

// NewServer creates an MCP server that talks to the daemon over its
// unix socket.
func NewServer() *Server {
	return newServer(ipc.NewClient())
}

func newServer(client daemonClient) *Server {
	s := &Server{client: client}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report daemon status: total tracked tabs, attached tabs, and uptime.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_tabs",
		Description: "List all tracked windows with their titles, categories, and attachment state.",
	}, s.handleListTabs)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "refresh",
		Description: "Trigger an immediate rescan of the desktop for candidate windows and reconcile the tab set.",
	}, s.handleRefresh)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "attach_all",
		Description: "Attach every tracked window, including ones the user manually detached earlier.",
	}, s.handleAttachAll)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "attach_window",
		Description: "Attach a specific tracked window into the tab container by its native handle.",
	}, s.handleAttach)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "detach_window",
		Description: "Detach a window from the container, restoring its original frame. The window stays detached across future rescans until reattached explicitly.",
	}, s.handleDetach)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "rename_tab",
		Description: "Override the display title of a tracked tab.",
	}, s.handleRename)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_tab",
		Description: "Close a tab: detach the window and terminate its owning process.",
	}, s.handleCloseTab)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_all",
		Description: "Close every tracked tab, terminating the owning processes. Also stops the companion service process when configured.",
	}, s.handleCloseAll)
}
