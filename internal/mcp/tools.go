package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ StatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	status, err := s.client.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{
		TabCount:      status.TabCount,
		AttachedCount: status.AttachedCount,
		UptimeSeconds: status.UptimeSeconds,
		DaemonRunning: status.DaemonRunning,
	}, nil
}

func (s *Server) handleListTabs(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListTabsInput) (*mcpsdk.CallToolResult, ListTabsOutput, error) {
	tabs, err := s.client.ListTabs()
	if err != nil {
		return nil, ListTabsOutput{}, err
	}
	return nil, ListTabsOutput{Tabs: tabs}, nil
}

func (s *Server) handleRefresh(_ context.Context, _ *mcpsdk.CallToolRequest, _ RefreshInput) (*mcpsdk.CallToolResult, ListTabsOutput, error) {
	tabs, err := s.client.Refresh()
	if err != nil {
		return nil, ListTabsOutput{}, err
	}
	return nil, ListTabsOutput{Tabs: tabs}, nil
}

func (s *Server) handleAttachAll(_ context.Context, _ *mcpsdk.CallToolRequest, _ AttachAllInput) (*mcpsdk.CallToolResult, ListTabsOutput, error) {
	tabs, err := s.client.AttachAll()
	if err != nil {
		return nil, ListTabsOutput{}, err
	}
	return nil, ListTabsOutput{Tabs: tabs}, nil
}

func (s *Server) handleAttach(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, ListTabsOutput, error) {
	tabs, err := s.client.Attach(args.ID)
	if err != nil {
		return nil, ListTabsOutput{}, err
	}
	return nil, ListTabsOutput{Tabs: tabs}, nil
}

func (s *Server) handleDetach(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, ListTabsOutput, error) {
	tabs, err := s.client.Detach(args.ID)
	if err != nil {
		return nil, ListTabsOutput{}, err
	}
	return nil, ListTabsOutput{Tabs: tabs}, nil
}

func (s *Server) handleRename(_ context.Context, _ *mcpsdk.CallToolRequest, args RenameTabInput) (*mcpsdk.CallToolResult, ListTabsOutput, error) {
	tabs, err := s.client.RenameTab(args.ID, args.Title)
	if err != nil {
		return nil, ListTabsOutput{}, err
	}
	return nil, ListTabsOutput{Tabs: tabs}, nil
}

func (s *Server) handleCloseTab(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, CloseTabOutput, error) {
	terminated, err := s.client.CloseTab(args.ID)
	if err != nil {
		return nil, CloseTabOutput{}, err
	}
	return nil, CloseTabOutput{Terminated: terminated}, nil
}

func (s *Server) handleCloseAll(_ context.Context, _ *mcpsdk.CallToolRequest, _ CloseAllInput) (*mcpsdk.CallToolResult, CloseAllOutput, error) {
	closed, err := s.client.CloseAll()
	if err != nil {
		return nil, CloseAllOutput{}, err
	}
	return nil, CloseAllOutput{Closed: closed}, nil
}
