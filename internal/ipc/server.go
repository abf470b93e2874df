package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/vmtabs/vmtabs/internal/platform"
	"github.com/vmtabs/vmtabs/internal/registry"
	"github.com/vmtabs/vmtabs/internal/runtimepath"
)

// Controller is the daemon surface the IPC server drives. Implemented by
// the daemon service.
type Controller interface {
	Tabs() []registry.TabInfo
	Refresh(trigger registry.Trigger) []registry.TabInfo
	Attach(id platform.WindowID) error
	Detach(id platform.WindowID) error
	Rename(id platform.WindowID, title string) error
	Raise(id platform.WindowID) error
	CloseTab(id platform.WindowID) (bool, error)
	CloseAll() int
	Pick(ctx context.Context, timeout time.Duration) (registry.TabInfo, error)
	Uptime() time.Duration
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	ctrl         Controller
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server
func NewServer(ctrl Controller) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		ctrl:       ctrl,
	}, nil
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	go s.acceptLoop()

	return nil
}

// Stop shuts the server down and removes the socket.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListTabs:
		return tabsResponse(s.ctrl.Tabs())
	case CommandRefresh:
		return tabsResponse(s.ctrl.Refresh(registry.TriggerRefresh))
	case CommandAttachAll:
		return tabsResponse(s.ctrl.Refresh(registry.TriggerAttachAll))
	case CommandAttach:
		return s.handleWindowOp(req.Payload, s.ctrl.Attach)
	case CommandDetach:
		return s.handleWindowOp(req.Payload, s.ctrl.Detach)
	case CommandRaiseTab:
		return s.handleWindowOp(req.Payload, s.ctrl.Raise)
	case CommandRenameTab:
		return s.handleRename(req.Payload)
	case CommandCloseTab:
		return s.handleCloseTab(req.Payload)
	case CommandCloseAll:
		closed := s.ctrl.CloseAll()
		resp, _ := NewOKResponse(CloseData{Terminated: closed > 0, Closed: closed})
		return resp
	case CommandPick:
		return s.handlePick(req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleGetStatus() *Response {
	tabs := s.ctrl.Tabs()
	attached := 0
	for _, t := range tabs {
		if t.State == registry.StateAttached {
			attached++
		}
	}

	status := StatusData{
		TabCount:      len(tabs),
		AttachedCount: attached,
		UptimeSeconds: int64(s.ctrl.Uptime().Seconds()),
		DaemonRunning: true,
	}

	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleWindowOp(payload json.RawMessage, op func(platform.WindowID) error) *Response {
	var p WindowPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	if err := op(platform.WindowID(p.ID)); err != nil {
		return NewErrorResponse(err.Error())
	}
	return tabsResponse(s.ctrl.Tabs())
}

func (s *Server) handleRename(payload json.RawMessage) *Response {
	var p RenamePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	if p.Title == "" {
		return NewErrorResponse("title must not be empty")
	}
	if err := s.ctrl.Rename(platform.WindowID(p.ID), p.Title); err != nil {
		return NewErrorResponse(err.Error())
	}
	return tabsResponse(s.ctrl.Tabs())
}

func (s *Server) handleCloseTab(payload json.RawMessage) *Response {
	var p WindowPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	terminated, err := s.ctrl.CloseTab(platform.WindowID(p.ID))
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(CloseData{Terminated: terminated})
	return resp
}

func (s *Server) handlePick(payload json.RawMessage) *Response {
	timeout := 30 * time.Second
	if len(payload) > 0 {
		var p PickPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
		}
		if p.TimeoutSeconds > 0 {
			timeout = time.Duration(p.TimeoutSeconds) * time.Second
		}
	}

	tab, err := s.ctrl.Pick(context.Background(), timeout)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(PickData{Tab: tab})
	return resp
}

func tabsResponse(tabs []registry.TabInfo) *Response {
	resp, err := NewOKResponse(TabsData{Tabs: tabs})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) sendError(conn net.Conn, msg string) {
	resp := NewErrorResponse(msg)
	data, err := resp.Marshal()
	if err != nil {
		return
	}
	data = append(data, '\n')
	conn.Write(data)
}
