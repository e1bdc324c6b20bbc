// Command solrdex is a small administration CLI for a Solr node, driven by
// the solrdex client library. It also bundles a mock node for local
// development.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	solrdex "github.com/kailas-cloud/solrdex"
	"github.com/kailas-cloud/solrdex/internal/config"
	logpkg "github.com/kailas-cloud/solrdex/internal/logger"
	"github.com/kailas-cloud/solrdex/internal/solrtest"
	"github.com/kailas-cloud/solrdex/internal/version"
)

const usage = `usage: solrdex <command> [flags]

commands:
  ping                      check node reachability
  collections               list collections
  create <name>             create a collection
  delete <name>             delete a collection
  search <collection> <q>   run a select query
  mock                      run a local mock node
  version                   print build information
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if os.Args[1] == "version" {
		fmt.Printf("solrdex %s (%s, built %s)\n", version.Version, version.Commit, version.Date)
		return
	}

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "solrdex: %v\n", err)
		os.Exit(1)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "solrdex: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger, os.Args[1], os.Args[2:]); err != nil {
		logger.Fatal("command failed", zap.String("command", os.Args[1]), zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger, command string, args []string) error {
	if command == "mock" {
		return runMock(ctx, cfg, logger)
	}

	client, err := solrdex.New(cfg.Solr.Scheme, cfg.Solr.Host, cfg.Solr.Port)
	if err != nil {
		return err
	}
	logger.Debug("client ready", zap.String("base_url", client.BaseURL()))

	switch command {
	case "ping":
		return runPing(ctx, client, logger)
	case "collections":
		return runCollections(ctx, client)
	case "create":
		return runCreate(ctx, client, logger, args)
	case "delete":
		return runDelete(ctx, client, logger, args)
	case "search":
		return runSearch(ctx, client, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func runPing(ctx context.Context, client *solrdex.Client, logger *zap.Logger) error {
	start := time.Now()
	if err := client.Ping(ctx); err != nil {
		return err
	}
	logger.Info("node is up",
		zap.String("base_url", client.BaseURL()),
		zap.Duration("rtt", time.Since(start)),
	)
	return nil
}

func runCollections(ctx context.Context, client *solrdex.Client) error {
	cols, err := client.Collections().List(ctx)
	if err != nil {
		return err
	}
	for _, c := range cols {
		fmt.Println(c.Name())
	}
	return nil
}

func runCreate(ctx context.Context, client *solrdex.Client, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	shards := fs.Int("shards", 0, "number of shards")
	maxPerNode := fs.Int("max-shards-per-node", 0, "shard-per-node cap")
	replicas := fs.Int("replicas", 0, "replication factor")
	routerField := fs.String("router-field", "", "routing hash field")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("create: expected exactly one collection name")
	}
	name := fs.Arg(0)

	b := client.Collections().Create(name)
	if *shards > 0 {
		b.NumShards(*shards)
	}
	if *maxPerNode > 0 {
		b.MaxShardsPerNode(*maxPerNode)
	}
	if *replicas > 0 {
		b.ReplicationFactor(*replicas)
	}
	if *routerField != "" {
		b.RouterField(*routerField)
	}

	col, err := b.Commit(ctx)
	if err != nil {
		return err
	}
	logger.Info("collection created", zap.String("name", col.Name()))
	return nil
}

func runDelete(ctx context.Context, client *solrdex.Client, logger *zap.Logger, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("delete: expected exactly one collection name")
	}
	if err := client.Collections().Delete(ctx, args[0]); err != nil {
		return err
	}
	logger.Info("collection deleted", zap.String("name", args[0]))
	return nil
}

func runSearch(ctx context.Context, client *solrdex.Client, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	fl := fs.String("fl", "", "comma-separated field list")
	sort := fs.String("sort", "", "sort specification")
	rows := fs.Int("rows", 10, "maximum rows")
	start := fs.Int("start", 0, "result offset")
	_ = fs.Parse(args)

	if fs.NArg() != 2 {
		return fmt.Errorf("search: expected <collection> <query>")
	}

	b := solrdex.NewCollection(client, fs.Arg(0)).Search().
		Query(fs.Arg(1)).
		Rows(*rows).
		Start(*start)
	if *fl != "" {
		b.Fields(*fl)
	}
	if *sort != "" {
		b.Sort(*sort)
	}

	res, err := b.Commit(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("numFound=%d start=%d\n", res.NumFound, res.Start)
	for _, doc := range res.Docs {
		out, _ := json.Marshal(doc)
		fmt.Println(string(out))
	}
	return nil
}

func runMock(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	node := solrtest.NewDetached()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Mock.Port),
		Handler:      node.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("mock node listening", zap.Int("port", cfg.Mock.Port))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("mock node stopped")
	return nil
}
