package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/slidegrid/internal/config"
	"github.com/matzehuels/slidegrid/internal/server"
	"github.com/matzehuels/slidegrid/pkg/cache"
	"github.com/matzehuels/slidegrid/pkg/httputil"
	"github.com/matzehuels/slidegrid/pkg/imageprobe"
	"github.com/matzehuels/slidegrid/pkg/observability"
	"github.com/matzehuels/slidegrid/pkg/pipeline"
	"github.com/matzehuels/slidegrid/pkg/store"
)

// cleanupInterval is how often the server prunes expired generations.
const cleanupInterval = time.Hour

// serveOpts holds the flags of the serve command.
type serveOpts struct {
	port    int
	uploads string
	remote  bool
	trace   bool
}

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var o serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

The server accepts payloads on POST /api/generate and answers with the rendered
document. Image references resolve against the upload folder, which is also
served under /uploads/.

Settings come from the config file and the PORT, UPLOAD_FOLDER and
SLIDEGRID_* environment variables; flags override both.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), o)
		},
	}

	cmd.Flags().IntVarP(&o.port, "port", "p", 0, fmt.Sprintf("listen port (default %d)", config.DefaultPort))
	cmd.Flags().StringVar(&o.uploads, "uploads", "", "upload folder images resolve against")
	cmd.Flags().BoolVar(&o.remote, "remote", false, "allow http(s) image references")
	cmd.Flags().BoolVar(&o.trace, "trace", false, "log pipeline, cache and fetch events")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, o serveOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if o.port > 0 {
		cfg.Server.Port = o.port
	}
	if o.uploads != "" {
		cfg.Server.UploadFolder = o.uploads
	}
	cfg.Server.AllowRemote = cfg.Server.AllowRemote || o.remote
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Server.UploadFolder, 0o755); err != nil {
		return fmt.Errorf("create upload folder: %w", err)
	}

	if o.trace {
		observability.NewLogHooks(c.Logger).Register()
	}

	runner, err := c.newServerRunner(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	st, err := cfg.Store.OpenStore(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if st != nil {
		defer st.Close()
		go c.cleanupLoop(ctx, st)
	}

	c.Logger.Info("starting server",
		"addr", cfg.Addr(),
		"env", cfg.Server.Env,
		"uploads", cfg.Server.UploadFolder,
		"cache", cfg.Cache.Backend,
		"store", cfg.Store.Backend,
	)
	return server.New(cfg, runner, st, c.Logger).ListenAndServe(ctx)
}

// newServerRunner builds the runner behind the HTTP API. Image references
// resolve against the upload folder.
func (c *CLI) newServerRunner(ctx context.Context, cfg config.Config) (*pipeline.Runner, error) {
	ch, err := cfg.Cache.OpenCache(ctx)
	if err != nil {
		return nil, err
	}
	ch = cache.NewInstrumented(ch)

	var client *httputil.Client
	if cfg.Server.AllowRemote {
		client = httputil.NewClient(ch, cache.TTLImage, nil)
	}
	src := imageprobe.NewRouter(cfg.Server.UploadFolder, client)
	return pipeline.NewRunner(ch, cfg.Cache.Keyer(), c.Logger, src), nil
}

// cleanupLoop prunes expired generations until ctx is done.
func (c *CLI) cleanupLoop(ctx context.Context, st store.Store) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			err := st.Cleanup(ctx)
			observability.Store().OnCleanup(ctx, time.Since(start), err)
			if err != nil {
				c.Logger.Warn("store cleanup", "err", err)
			}
		}
	}
}
