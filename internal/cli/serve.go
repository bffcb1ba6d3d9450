package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/trawl/internal/api"
	"github.com/sprite-ai/trawl/internal/checklist"
	"github.com/sprite-ai/trawl/internal/config"
	"github.com/sprite-ai/trawl/internal/repo"
)

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Start the HTTP API server over a directory",
	Long: `Expose a directory tree for remote review sessions.

Endpoints:
  GET   /health         — Health check
  GET   /api/search     — Search the tree
  GET   /api/file       — Read a file with its version token
  POST  /api/file       — Save a file (version-checked)
  GET   /api/checklist  — List review status records
  PATCH /api/checklist  — Update one review status record
  GET   /api/ws         — WebSocket for change notifications`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "", "address to listen on (default from config)")
	serveCmd.Flags().IntP("port", "p", 0, "port to listen on (default from config)")
	serveCmd.Flags().Bool("no-watch", false, "disable filesystem change notifications")
}

func runServe(cmd *cobra.Command, args []string) error {
	root := rootDir(args)
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.ListenAddr = addr
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.ListenPort = port
	}

	r, err := repo.New(root, repo.Options{
		ExcludeDirs: cfg.ExcludeDirs,
		ResultCap:   cfg.ResultCap,
	})
	if err != nil {
		return err
	}

	list, err := checklist.Open(checklist.DefaultPath(root))
	if err != nil {
		return err
	}
	defer list.Close()

	srv := api.New(cfg.Listen(), r, list)

	noWatch, _ := cmd.Flags().GetBool("no-watch")
	if !noWatch {
		if err := srv.Watch(cfg.Debounce); err != nil {
			fmt.Fprintf(os.Stderr, "file watching disabled: %v\n", err)
		}
	}
	defer srv.Close()

	fmt.Fprintf(os.Stderr, "trawl serving %s on http://%s\n", root, cfg.Listen())
	return srv.ListenAndServe()
}
