package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/vmtabs/vmtabs/internal/config"
	"github.com/vmtabs/vmtabs/internal/daemon"
	"github.com/vmtabs/vmtabs/internal/hotkeys"
	"github.com/vmtabs/vmtabs/internal/ipc"
	"github.com/vmtabs/vmtabs/internal/platform"
	"github.com/vmtabs/vmtabs/internal/registry"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: vmtabs daemon")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Usage: vmtabs daemon")
			os.Exit(2)
		}
		runDaemon()
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "tabs":
		os.Exit(runTabs(os.Args[2:]))
	case "refresh":
		os.Exit(runRefresh(os.Args[2:]))
	case "attach":
		os.Exit(runAttach(os.Args[2:]))
	case "attach-all":
		os.Exit(runAttachAll(os.Args[2:]))
	case "detach":
		os.Exit(runDetach(os.Args[2:]))
	case "pick":
		os.Exit(runPick(os.Args[2:]))
	case "rename":
		os.Exit(runRename(os.Args[2:]))
	case "raise":
		os.Exit(runRaise(os.Args[2:]))
	case "close":
		os.Exit(runClose(os.Args[2:]))
	case "close-all":
		os.Exit(runCloseAll(os.Args[2:]))
	case "manager":
		os.Exit(runManager(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: vmtabs <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the vmtabs daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  tabs                List tracked windows")
	fmt.Fprintln(w, "  refresh             Rescan the desktop for candidate windows")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  attach <id>         Attach a tracked window into the container")
	fmt.Fprintln(w, "  attach-all          Attach every tracked window")
	fmt.Fprintln(w, "  detach <id>         Detach a window, restoring its frame")
	fmt.Fprintln(w, "  pick                Click a window on screen to add it as a tab")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  rename <id> <title> Override a tab's display title")
	fmt.Fprintln(w, "  raise <id>          Bring a tab's container surface to the front")
	fmt.Fprintln(w, "  close <id>          Detach a window and terminate its process")
	fmt.Fprintln(w, "  close-all           Close every tab and the companion service")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  manager             Launch the management application")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print effective configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'vmtabs <command> --help' for command-specific options.")
}

// parseWindowID parses a native window handle from a CLI argument.
// Accepts decimal and 0x-prefixed hex.
func parseWindowID(arg string) (uint32, error) {
	id, err := strconv.ParseUint(arg, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q", arg)
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid window id %q", arg)
	}
	return uint32(id), nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runDaemon() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Configuration loaded (poll interval: %s, container: %dx%d)",
		cfg.PollInterval(), cfg.ContainerWidth, cfg.ContainerHeight)

	backend, err := platform.NewX11Backend()
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer backend.Disconnect()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))

	svc := daemon.NewService(cfg, backend, backend, logger)

	if _, err := backend.CreateContainer(cfg.ContainerTitle, cfg.ContainerWidth, cfg.ContainerHeight); err != nil {
		log.Fatalf("Failed to create container window: %v", err)
	}
	svc.Registry().SetHostArea(cfg.ContainerWidth, cfg.ContainerHeight)
	backend.OnContainerResize(func(width, height int) {
		svc.Registry().SetHostArea(width, height)
	})

	hotkeyHandler := hotkeys.NewHandler(backend, svc)
	if cfg.Hotkeys.Refresh != "" {
		if err := hotkeyHandler.RegisterRefresh(cfg.Hotkeys.Refresh); err != nil {
			log.Printf("Warning: Failed to register refresh hotkey: %v", err)
		} else {
			log.Printf("Refresh hotkey registered: %s", cfg.Hotkeys.Refresh)
		}
	}
	if cfg.Hotkeys.AttachAll != "" {
		if err := hotkeyHandler.RegisterAttachAll(cfg.Hotkeys.AttachAll); err != nil {
			log.Printf("Warning: Failed to register attach-all hotkey: %v", err)
		} else {
			log.Printf("Attach-all hotkey registered: %s", cfg.Hotkeys.AttachAll)
		}
	}

	ipcServer, err := ipc.NewServer(svc)
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	svcCtx, svcCancel := context.WithCancel(context.Background())
	defer svcCancel()
	go svc.Run(svcCtx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down vmtabs daemon...")
		svcCancel()
		svc.Shutdown()
		ipcServer.Stop()
		backend.Disconnect()
		os.Exit(0)
	}()

	log.Println("vmtabs daemon started successfully")
	backend.EventLoop()
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: vmtabs status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("tab_count:      %d\n", status.TabCount)
	fmt.Printf("attached_count: %d\n", status.AttachedCount)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func printTabs(tabs []registry.TabInfo) {
	if len(tabs) == 0 {
		fmt.Println("no tracked windows")
		return
	}
	for _, tab := range tabs {
		fmt.Printf("%d\t%-18s\t%-10s\t%s\n", tab.ID, tab.State, tab.Category, tab.Title)
	}
}

func runTabs(args []string) int {
	fs := flag.NewFlagSet("tabs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: vmtabs tabs")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List tracked windows with their attachment state.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "tabs takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	tabs, err := client.ListTabs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printTabs(tabs)
	return 0
}

func runRefresh(args []string) int {
	fs := flag.NewFlagSet("refresh", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: vmtabs refresh")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Rescan the desktop now instead of waiting for the next poll.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client := ipc.NewClient()
	tabs, err := client.Refresh()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printTabs(tabs)
	return 0
}

// windowCommand runs a single-window IPC command taking one <id> argument.
func windowCommand(name, usage string, args []string, fn func(client *ipc.Client, id uint32) ([]registry.TabInfo, error)) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: vmtabs "+name+" <id>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, usage)
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, name+" requires <id>")
		fs.Usage()
		return 2
	}
	id, err := parseWindowID(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	tabs, err := fn(ipc.NewClient(), id)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printTabs(tabs)
	return 0
}

func runAttach(args []string) int {
	return windowCommand("attach", "Attach a tracked window into the container by its handle.", args,
		func(client *ipc.Client, id uint32) ([]registry.TabInfo, error) {
			return client.Attach(id)
		})
}

func runDetach(args []string) int {
	return windowCommand("detach", "Detach a window from the container, restoring its original frame.", args,
		func(client *ipc.Client, id uint32) ([]registry.TabInfo, error) {
			return client.Detach(id)
		})
}

func runRaise(args []string) int {
	return windowCommand("raise", "Bring a tab's container surface to the front.", args,
		func(client *ipc.Client, id uint32) ([]registry.TabInfo, error) {
			return client.RaiseTab(id)
		})
}

func runAttachAll(args []string) int {
	fs := flag.NewFlagSet("attach-all", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: vmtabs attach-all")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Attach every tracked window, including manually detached ones.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client := ipc.NewClient()
	tabs, err := client.AttachAll()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printTabs(tabs)
	return 0
}

func runPick(args []string) int {
	fs := flag.NewFlagSet("pick", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: vmtabs pick [--timeout N]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Wait for a mouse click and add the clicked window as a tab.")
		fmt.Fprintln(os.Stderr, "Press Escape to cancel.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	timeoutSeconds := fs.Int("timeout", 30, "Seconds to wait for a click before giving up")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client := ipc.NewClient()
	tab, err := client.Pick(*timeoutSeconds)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("added %d\t%s\n", tab.ID, tab.Title)
	return 0
}

func runRename(args []string) int {
	fs := flag.NewFlagSet("rename", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: vmtabs rename <id> <title>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Override the display title of a tracked tab.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "rename requires <id> and <title>")
		fs.Usage()
		return 2
	}
	id, err := parseWindowID(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	client := ipc.NewClient()
	tabs, err := client.RenameTab(id, fs.Arg(1))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printTabs(tabs)
	return 0
}

func runClose(args []string) int {
	fs := flag.NewFlagSet("close", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: vmtabs close <id>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Detach a window and terminate its owning process.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "close requires <id>")
		fs.Usage()
		return 2
	}
	id, err := parseWindowID(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	client := ipc.NewClient()
	terminated, err := client.CloseTab(id)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if !terminated {
		fmt.Println("tab removed; process did not terminate")
	}
	return 0
}

func runCloseAll(args []string) int {
	fs := flag.NewFlagSet("close-all", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: vmtabs close-all")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Close every tracked tab and stop the companion service process.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client := ipc.NewClient()
	closed, err := client.CloseAll()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("closed %d tab(s)\n", closed)
	return 0
}

func runManager(args []string) int {
	fs := flag.NewFlagSet("manager", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: vmtabs manager")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Launch the management application configured as manager_path.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if cfg.ManagerPath == "" {
		fmt.Fprintln(os.Stderr, "manager_path is not configured")
		return 1
	}

	cmd := exec.Command(cfg.ManagerPath)
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to launch %s: %v\n", cfg.ManagerPath, err)
		return 1
	}
	go cmd.Wait()
	return 0
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  vmtabs config validate")
	fmt.Fprintln(w, "  vmtabs config print")
}

func runConfig(args []string) int {
	if len(args) == 0 {
		printConfigUsage(os.Stderr)
		return 2
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printConfigUsage(os.Stdout)
		return 0
	}

	switch args[0] {
	case "validate":
		if _, err := config.Load(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		path, _ := config.DefaultConfigPath()
		fmt.Printf("configuration valid (%s)\n", path)
		return 0

	case "print":
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		os.Stdout.Write(out)
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config command: %s\n\n", args[0])
		printConfigUsage(os.Stderr)
		return 2
	}
}
