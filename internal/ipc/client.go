package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/vmtabs/vmtabs/internal/registry"
	"github.com/vmtabs/vmtabs/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request, timeout time.Duration) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) tabsCommand(cmd CommandType, payload interface{}) ([]registry.TabInfo, error) {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		req.Payload = data
	}

	resp, err := c.sendRequest(req, c.timeout)
	if err != nil {
		return nil, err
	}

	var tabs TabsData
	if err := json.Unmarshal(resp.Data, &tabs); err != nil {
		return nil, fmt.Errorf("failed to parse tab list: %w", err)
	}
	return tabs.Tabs, nil
}

// GetStatus fetches daemon status.
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus}, c.timeout)
	if err != nil {
		return nil, err
	}
	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status: %w", err)
	}
	return &status, nil
}

// ListTabs returns the daemon's current tab list.
func (c *Client) ListTabs() ([]registry.TabInfo, error) {
	return c.tabsCommand(CommandListTabs, nil)
}

// Refresh triggers an on-demand reconciliation pass.
func (c *Client) Refresh() ([]registry.TabInfo, error) {
	return c.tabsCommand(CommandRefresh, nil)
}

// AttachAll forces attachment of every found window, clearing manual-detach
// suppression.
func (c *Client) AttachAll() ([]registry.TabInfo, error) {
	return c.tabsCommand(CommandAttachAll, nil)
}

// Attach embeds one tracked window.
func (c *Client) Attach(id uint32) ([]registry.TabInfo, error) {
	return c.tabsCommand(CommandAttach, WindowPayload{ID: id})
}

// Detach restores one tracked window.
func (c *Client) Detach(id uint32) ([]registry.TabInfo, error) {
	return c.tabsCommand(CommandDetach, WindowPayload{ID: id})
}

// RenameTab sets a tab's display title.
func (c *Client) RenameTab(id uint32, title string) ([]registry.TabInfo, error) {
	return c.tabsCommand(CommandRenameTab, RenamePayload{ID: id, Title: title})
}

// RaiseTab raises a tab's host surface.
func (c *Client) RaiseTab(id uint32) ([]registry.TabInfo, error) {
	return c.tabsCommand(CommandRaiseTab, WindowPayload{ID: id})
}

// CloseTab terminates a window's owning process and removes its tab.
func (c *Client) CloseTab(id uint32) (bool, error) {
	resp, err := c.sendRequest(&Request{
		Command: CommandCloseTab,
		Payload: mustMarshal(WindowPayload{ID: id}),
	}, c.timeout)
	if err != nil {
		return false, err
	}
	var data CloseData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return false, fmt.Errorf("failed to parse close result: %w", err)
	}
	return data.Terminated, nil
}

// CloseAll terminates every tab's owning process and clears the registry.
func (c *Client) CloseAll() (int, error) {
	resp, err := c.sendRequest(&Request{Command: CommandCloseAll}, c.timeout)
	if err != nil {
		return 0, err
	}
	var data CloseData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return 0, fmt.Errorf("failed to parse close result: %w", err)
	}
	return data.Closed, nil
}

// Pick blocks while the daemon runs the pick-by-click flow. The IPC timeout
// is extended to cover the pick timeout.
func (c *Client) Pick(timeoutSeconds int) (*registry.TabInfo, error) {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	resp, err := c.sendRequest(&Request{
		Command: CommandPick,
		Payload: mustMarshal(PickPayload{TimeoutSeconds: timeoutSeconds}),
	}, time.Duration(timeoutSeconds+5)*time.Second)
	if err != nil {
		return nil, err
	}
	var data PickData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse pick result: %w", err)
	}
	return &data.Tab, nil
}

func mustMarshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
