package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackdiagram/pkg/api"
	"github.com/matzehuels/stackdiagram/pkg/cache"
	"github.com/matzehuels/stackdiagram/pkg/observability"
	"github.com/matzehuels/stackdiagram/pkg/render"
	"github.com/matzehuels/stackdiagram/pkg/store"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr      string
	redisURL  string // artifact cache; file cache when empty
	prefix    string // key prefix in the shared Redis database
	mongoURI  string // render history; in-memory when empty
	mongoDB   string
	timeout   time.Duration
	noCache   bool
	bodyLimit int64
}

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the rendering HTTP API",
		Long: `Serve the HTTP API for rendering definitions and built-in diagrams.

Rendered artifacts are cached in Redis when --redis is set, otherwise in the
local file cache. Render history is kept in MongoDB when --mongo is set,
otherwise in memory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&opts.redisURL, "redis", "", "Redis URL for the artifact cache (redis://host:6379/0)")
	cmd.Flags().StringVar(&opts.prefix, "cache-prefix", appName+":", "key prefix for the Redis artifact cache")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo", "", "MongoDB URI for render history")
	cmd.Flags().StringVar(&opts.mongoDB, "mongo-db", appName, "MongoDB database name")
	cmd.Flags().DurationVar(&opts.timeout, "render-timeout", api.DefaultRenderTimeout, "per-request render timeout")
	cmd.Flags().Int64Var(&opts.bodyLimit, "max-body", api.DefaultMaxBodyBytes, "maximum request body size in bytes")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	logger := loggerFromContext(ctx)

	cc, err := c.serveCache(ctx, opts)
	if err != nil {
		return err
	}
	defer cc.Close()

	st, err := c.serveStore(ctx, opts)
	if err != nil {
		return err
	}
	defer st.Close()

	hooks := &logHooks{logger: logger}
	observability.SetRenderHooks(hooks)
	observability.SetCacheHooks(hooks)

	renderer := render.NewGraphviz(cc, logger)
	if opts.redisURL != "" {
		renderer.Keyer = cache.NewPrefixKeyer(renderer.Keyer, opts.prefix)
	}

	handler := api.New(api.Config{
		Store:         st,
		Renderer:      renderer,
		Logger:        logger,
		MaxBodyBytes:  opts.bodyLimit,
		RenderTimeout: opts.timeout,
	})

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	printSuccess("Listening on %s", StyleLink.Render(opts.addr))
	printNextStep("Try", fmt.Sprintf("curl -X POST localhost%s/api/v1/catalog/biteswipe/render", opts.addr))

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (c *CLI) serveCache(ctx context.Context, opts serveOpts) (cache.Cache, error) {
	if opts.redisURL == "" || opts.noCache {
		return newCache(opts.noCache)
	}
	rc, err := cache.NewRedisCache(ctx, opts.redisURL)
	if err != nil {
		return nil, err
	}
	printKeyValue("cache", "redis")
	return rc, nil
}

func (c *CLI) serveStore(ctx context.Context, opts serveOpts) (store.Store, error) {
	if opts.mongoURI == "" {
		printKeyValue("history", "memory")
		return store.NewMemoryStore(), nil
	}
	ms, err := store.NewMongoStore(ctx, opts.mongoURI, opts.mongoDB)
	if err != nil {
		return nil, err
	}
	printKeyValue("history", "mongodb/"+opts.mongoDB)
	return ms, nil
}
