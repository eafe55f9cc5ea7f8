// Command blueblock starts the Blue Block puzzle solver.
//
// It supports three commands:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "solve" – solves one puzzle from the library or a JSON file and prints the path
//
// Flags control host/port, puzzle and run directories, the search budget,
// debug logging, and optional ngrok tunneling for external access during
// development. Every flag can also be set through the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/blueblock/api"
	"github.com/wricardo/blueblock/game/config"
	"github.com/wricardo/blueblock/game/engine"
	"github.com/wricardo/blueblock/game/runs"
	"github.com/wricardo/blueblock/game/service"
	"github.com/wricardo/blueblock/game/solver"
	"github.com/wricardo/blueblock/transport/mcp"
	"github.com/wricardo/blueblock/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Blue Block Solver"
)

// Run retention
const (
	cleanupInterval = 1 * time.Hour
	runMaxAge       = 24 * time.Hour
	syncInterval    = 5 * time.Second
)

// appConfig is the resolved command-line and environment configuration.
type appConfig struct {
	Host           string
	Port           int
	PuzzleDir      string
	RunsDir        string
	MaxNodes       int
	Debug          bool
	NgrokEnabled   bool
	NgrokAuthToken string
	NgrokDomain    string
}

func (c appConfig) addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// services holds everything initializeServices wires together.
type services struct {
	solver      service.SolverService
	puzzles     *config.Manager
	runs        *runs.Manager
	persistence runs.RunPersistence
}

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("error loading .env file", "error", err)
	}

	cmd := newRootCommand()
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// newRootCommand builds the CLI. The root action runs the HTTP server.
func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:    "blueblock",
		Usage:   "Shortest-path solver for 6x6 sliding-block puzzles",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "puzzle-dir",
				Value:   "puzzles",
				Usage:   "Directory containing puzzle files",
				Sources: cli.EnvVars("PUZZLE_DIR"),
			},
			&cli.StringFlag{
				Name:    "runs-dir",
				Value:   "runs",
				Usage:   "Directory where solve runs are persisted",
				Sources: cli.EnvVars("RUNS_DIR"),
			},
			&cli.IntFlag{
				Name:    "max-nodes",
				Value:   2_000_000,
				Usage:   "Abort a search after expanding this many states",
				Sources: cli.EnvVars("MAX_NODES"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: serverAction,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action:  serverAction,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg := setup(cmd)
					svc, err := initializeServices(cfg)
					if err != nil {
						return fmt.Errorf("failed to initialize services: %w", err)
					}
					ctx, cancel := context.WithCancel(ctx)
					defer cancel()
					startBackgroundRoutines(ctx, svc)
					return runStdioMCPWithInternalServer(cfg, svc.solver)
				},
			},
			{
				Name:      "solve",
				Usage:     "Solve a puzzle and print the move path",
				ArgsUsage: "[puzzle-id | file.json]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg := setup(cmd)
					return runSolve(ctx, cmd.Root().Writer, cfg, cmd.Args().First())
				},
			},
		},
	}
}

func serverAction(ctx context.Context, cmd *cli.Command) error {
	cfg := setup(cmd)
	slog.Info("starting", "app", AppName, "version", Version)

	svc, err := initializeServices(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	slog.Info("puzzle library loaded", "dir", cfg.PuzzleDir, "default", svc.puzzles.GetDefault().Name)
	return runHTTPServer(ctx, cfg, svc)
}

// setup resolves flags and installs the default logger.
func setup(cmd *cli.Command) appConfig {
	cfg := appConfig{
		Host:           cmd.String("host"),
		Port:           int(cmd.Int("port")),
		PuzzleDir:      cmd.String("puzzle-dir"),
		RunsDir:        cmd.String("runs-dir"),
		MaxNodes:       int(cmd.Int("max-nodes")),
		Debug:          cmd.Bool("debug"),
		NgrokEnabled:   cmd.Bool("ngrok"),
		NgrokAuthToken: cmd.String("ngrok-auth"),
		NgrokDomain:    cmd.String("ngrok-domain"),
	}

	slog.SetDefault(newLogger(os.Stderr, cfg.Debug))
	slog.Debug("configuration loaded",
		"puzzle_dir", cfg.PuzzleDir,
		"runs_dir", cfg.RunsDir,
		"max_nodes", cfg.MaxNodes,
	)
	return cfg
}

func newLogger(output io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := tint.NewHandler(output, &tint.Options{
		Level:      level,
		AddSource:  debug,
		TimeFormat: "2006-01-02 15:04:05.000Z07:00",
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Value.Kind() == slog.KindAny {
				if _, ok := a.Value.Any().(error); ok {
					return tint.Attr(9, a)
				}
			}
			return a
		},
	})
	return slog.New(handler)
}

// initializeServices wires the puzzle library, the run store and the solver service.
func initializeServices(cfg appConfig) (*services, error) {
	puzzles, err := config.NewManager(cfg.PuzzleDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create puzzle manager: %w", err)
	}

	persistence, err := runs.NewFilePersistence(cfg.RunsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create run persistence: %w", err)
	}

	runManager := runs.NewManagerWithPersistence(persistence)

	// Load persisted runs on startup
	if err := runManager.LoadPersistedRuns(); err != nil {
		slog.Warn("failed to load persisted runs", "error", err)
	}

	solverService := service.NewSolverService(runManager, puzzles,
		service.WithDefaultMaxNodes(cfg.MaxNodes),
		service.WithLogger(slog.Default()),
	)

	return &services{
		solver:      solverService,
		puzzles:     puzzles,
		runs:        runManager,
		persistence: persistence,
	}, nil
}

// startBackgroundRoutines starts run expiry and filesystem sync until ctx is done.
func startBackgroundRoutines(ctx context.Context, svc *services) {
	go runCleanupRoutine(ctx, svc.runs, cleanupInterval, runMaxAge)
	go filesystemSyncRoutine(ctx, svc.runs, svc.persistence, syncInterval)
}

// runCleanupRoutine periodically removes runs that have not been accessed
// within maxAge.
func runCleanupRoutine(ctx context.Context, manager *runs.Manager, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredRuns(maxAge); removed > 0 {
				slog.Info("cleaned up expired runs", "count", removed, "remaining", manager.Count())
			}
		}
	}
}

// filesystemSyncRoutine periodically prunes in-memory runs whose files were
// deleted from the runs directory.
func filesystemSyncRoutine(ctx context.Context, manager *runs.Manager, persistence runs.RunPersistence, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			syncWithFilesystem(manager, persistence)
		}
	}
}

func syncWithFilesystem(manager *runs.Manager, persistence runs.RunPersistence) int {
	if persistence == nil {
		return 0
	}

	pruned := 0
	for _, run := range manager.List() {
		if persistence.Exists(run.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(run.ID); err == nil {
			pruned++
			slog.Debug("pruned run from memory (file deleted)", "run", run.ID)
		}
	}

	if pruned > 0 {
		slog.Info("filesystem sync pruned orphaned runs", "count", pruned, "remaining", manager.Count())
	}
	return pruned
}

// newMainRouter mounts the REST API at the root and the MCP JSON-RPC endpoint at /mcp.
func newMainRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))
	return mainRouter
}

func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled, it also provisions a public tunnel. It returns after a shutdown signal.
func runHTTPServer(ctx context.Context, cfg appConfig, svc *services) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	startBackgroundRoutines(ctx, svc)

	hub := websocket.NewHub()
	go hub.Run()

	apiServer := api.NewServer(svc.solver, hub)

	addr := cfg.addr()
	mcpClient := mcp.NewClient("http://" + addr)
	mainRouter := newMainRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // hard searches hold the response
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	serverErr := make(chan error, 1)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		slog.Info("HTTP server listening", "addr", addr)
		slog.Info("endpoints",
			"api", fmt.Sprintf("http://%s/api", addr),
			"websocket", fmt.Sprintf("ws://%s/ws?topic=runs", addr),
			"mcp", fmt.Sprintf("http://%s/mcp", addr),
		)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if cfg.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cfg, mainRouter)
		}()
	}

	var runErr error
	select {
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
	case err := <-serverErr:
		runErr = fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	wg.Wait()
	slog.Info("server stopped")
	return runErr
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is done.
func runNgrokTunnel(ctx context.Context, cfg appConfig, handler http.Handler) {
	if cfg.NgrokAuthToken == "" {
		slog.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	slog.Info("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
		slog.Info("using custom ngrok domain", "domain", cfg.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.NgrokAuthToken))
	if err != nil {
		slog.Error("failed to start ngrok tunnel", "error", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			slog.Warn("failed to close ngrok tunnel", "error", err)
		}
	}()

	ngrokURL := tun.URL()
	slog.Info("ngrok tunnel established",
		"url", ngrokURL,
		"api", ngrokURL+"/api",
		"mcp", ngrokURL+"/mcp",
	)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		slog.Error("ngrok server error", "error", err)
	}
	slog.Info("ngrok tunnel closed")
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at the configured address; if unavailable, it
// starts a minimal internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(cfg appConfig, solverService service.SolverService) error {
	externalURL := "http://" + cfg.addr()
	slog.Info("checking for external API server", "url", externalURL)

	baseURL := externalURL
	if !apiAvailable(externalURL) {
		slog.Info("no external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		hub := websocket.NewHub()
		go hub.Run()

		httpServer := &http.Server{Handler: api.NewServer(solverService, hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("internal HTTP server error", "error", err)
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
		slog.Info("internal HTTP server started", "url", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	slog.Info("MCP stdio server ready", "api", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// runSolve solves one puzzle without starting any server. The argument is a
// library puzzle ID, a path to a puzzle file, or empty for the default puzzle.
func runSolve(ctx context.Context, w io.Writer, cfg appConfig, arg string) error {
	puzzle, id, err := resolvePuzzle(cfg, arg)
	if err != nil {
		return err
	}

	board, err := puzzle.Board()
	if err != nil {
		return fmt.Errorf("puzzle %s: %w", id, err)
	}

	fmt.Fprintf(w, "Puzzle: %s (%s)\n\n%s\n", puzzle.Name, id, engine.Render(board))

	res, err := solver.Solve(ctx, board,
		solver.WithMaxNodes(cfg.MaxNodes),
		solver.WithLogger(slog.Default()),
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Path:       %s\n", res.String())
	fmt.Fprintf(w, "Compressed: %s\n", res.Compressed())
	fmt.Fprintf(w, "Moves: %d, explored %d states in %s\n", len(res.Path), res.Explored, res.Elapsed.Round(time.Microsecond))
	return nil
}

func resolvePuzzle(cfg appConfig, arg string) (*engine.PuzzleConfig, string, error) {
	if strings.HasSuffix(arg, ".json") {
		if _, err := os.Stat(arg); err == nil {
			puzzle, err := engine.LoadPuzzleConfig(arg)
			if err != nil {
				return nil, "", err
			}
			return puzzle, arg, nil
		}
	}

	puzzles, err := config.NewManager(cfg.PuzzleDir)
	if err != nil {
		return nil, "", err
	}
	if arg == "" {
		return puzzles.GetDefault(), "default", nil
	}

	puzzle, err := puzzles.LoadPuzzle(arg)
	if err != nil {
		return nil, "", err
	}
	return puzzle, strings.TrimSuffix(arg, ".json"), nil
}
