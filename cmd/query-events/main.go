package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/patrickwarner/identrelay/internal/analytics"
	"github.com/patrickwarner/identrelay/internal/config"
	"github.com/patrickwarner/identrelay/internal/observability"
)

func main() {
	logger, err := observability.InitLogger("query-events")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	var visitorID, dsn string
	var limit int
	flag.StringVar(&visitorID, "visitor", "", "visitor ID")
	flag.StringVar(&dsn, "dsn", "", "ClickHouse DSN (defaults to CLICKHOUSE_DSN)")
	flag.IntVar(&limit, "limit", 50, "maximum number of events")
	flag.Parse()

	if visitorID == "" {
		fmt.Fprintln(os.Stderr, "visitor required")
		os.Exit(1)
	}
	if dsn == "" {
		dsn = config.Load().ClickHouseDSN
	}
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "dsn required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ch, err := analytics.InitClickHouse(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect clickhouse: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = ch.Close() }()

	events, err := ch.EventsByVisitor(ctx, visitorID, limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query events: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(events); err != nil {
		fmt.Fprintf(os.Stderr, "encode events: %v\n", err)
		os.Exit(1)
	}
}
