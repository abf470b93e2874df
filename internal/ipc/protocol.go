package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/vmtabs/vmtabs/internal/registry"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus CommandType = "GET_STATUS"
	CommandListTabs  CommandType = "LIST_TABS"
	CommandRefresh   CommandType = "REFRESH"
	CommandAttach    CommandType = "ATTACH"
	CommandAttachAll CommandType = "ATTACH_ALL"
	CommandDetach    CommandType = "DETACH"
	CommandPick      CommandType = "PICK"
	CommandCloseTab  CommandType = "CLOSE_TAB"
	CommandCloseAll  CommandType = "CLOSE_ALL"
	CommandRenameTab CommandType = "RENAME_TAB"
	CommandRaiseTab  CommandType = "RAISE_TAB"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData is the data returned by GET_STATUS.
type StatusData struct {
	TabCount      int   `json:"tab_count"`
	AttachedCount int   `json:"attached_count"`
	UptimeSeconds int64 `json:"uptime_seconds"`
	DaemonRunning bool  `json:"daemon_running"`
}

// TabsData is the data returned by commands that yield a tab list.
type TabsData struct {
	Tabs []registry.TabInfo `json:"tabs"`
}

// WindowPayload addresses a single tracked window.
type WindowPayload struct {
	ID uint32 `json:"id"`
}

// RenamePayload is the payload for RENAME_TAB.
type RenamePayload struct {
	ID    uint32 `json:"id"`
	Title string `json:"title"`
}

// PickPayload is the payload for PICK.
type PickPayload struct {
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

// PickData is the data returned by PICK.
type PickData struct {
	Tab registry.TabInfo `json:"tab"`
}

// CloseData is the data returned by CLOSE_TAB and CLOSE_ALL.
type CloseData struct {
	Terminated bool `json:"terminated"`
	Closed     int  `json:"closed,omitempty"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
