package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/wiki-export/pkg/export"
	"github.com/Sternrassler/wiki-export/pkg/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run wires configuration and executes the export. The XML document
// goes to out; logs always go to stderr.
func run(args []string, out io.Writer) int {
	logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: os.Getenv("LOG_PRETTY") == "true",
	})

	opts, err := parseOptions(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisClient, err := connectRedis(redisURL)
		if err != nil {
			log.Error().Err(err).Str("redis", redisURL).Msg("Redis connection failed")
			return 1
		}
		defer redisClient.Close()
		opts.Redis = redisClient
		log.Info().Str("redis", redisURL).Msg("Response cache enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exporter, err := export.New(opts, out)
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return 1
	}

	summary, err := exporter.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Export failed")
		return 1
	}
	if summary.Failed() {
		return 2
	}
	return 0
}

func parseOptions(args []string) (export.Options, error) {
	fs := flag.NewFlagSet("wiki-export", flag.ContinueOnError)
	history := fs.Bool("history", false, "export the full revision history instead of only the latest revision")
	saveDir := fs.String("savedir", "", "download wiki files into this directory")
	limit := fs.Int("limit", export.DefaultLimit, "maximum simultaneous batch downloads")
	batchSize := fs.Int("batchsize", export.DefaultBatchSize, "titles per batch")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: wiki-export [flags] <wiki page URL>\n\n")
		fmt.Fprintf(fs.Output(), "Exports a remote MediaWiki as an XML dump on stdout.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return export.Options{}, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return export.Options{}, fmt.Errorf("exactly one wiki page URL is required")
	}
	if *limit < 1 {
		return export.Options{}, fmt.Errorf("--limit must be a positive integer")
	}
	if *batchSize < 1 {
		return export.Options{}, fmt.Errorf("--batchsize must be a positive integer")
	}

	return export.Options{
		WikiURL:   fs.Arg(0),
		History:   *history,
		SaveDir:   *saveDir,
		Limit:     *limit,
		BatchSize: *batchSize,
		UserAgent: getEnv("USER_AGENT", export.DefaultUserAgent),
	}, nil
}

// connectRedis accepts both redis:// URLs and plain host:port addresses.
func connectRedis(rawURL string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(rawURL, "://") {
		parsed, err := redis.ParseURL(rawURL)
		if err != nil {
			return nil, err
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: rawURL}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
