package analytics

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	_ "github.com/ClickHouse/clickhouse-go/v2"

	"github.com/patrickwarner/identrelay/internal/models"
)

const createEventsTable = `CREATE TABLE IF NOT EXISTS identification_events (
       timestamp           DateTime64(3),
       relay_request_id    String,
       request_id          String,
       visitor_id          String,
       mode                LowCardinality(String),
       client_ip           String,
       ip_fallback         Bool,
       country             Nullable(String),
       region              Nullable(String),
       device_type         LowCardinality(String),
       is_bot_ua           Bool,
       upstream_latency_ms Float64,
       backend_latency_ms  Float64
   ) ENGINE=MergeTree() ORDER BY (timestamp, visitor_id)`

const insertEvent = `INSERT INTO identification_events (timestamp, relay_request_id, request_id, visitor_id, mode, client_ip, ip_fallback, country, region, device_type, is_bot_ua, upstream_latency_ms, backend_latency_ms) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// ClickHouseRecorder writes one row per identification.
type ClickHouseRecorder struct {
	DB *sql.DB
}

// InitClickHouse connects to ClickHouse through an otelsql-instrumented
// driver and ensures the events table exists.
func InitClickHouse(ctx context.Context, dsn string) (*ClickHouseRecorder, error) {
	driverName, err := otelsql.Register("clickhouse",
		otelsql.WithAttributes(attribute.String("db.system", "clickhouse")),
	)
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(25)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, createEventsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse create table: %w", err)
	}

	zap.L().Info("Connected to ClickHouse")
	return &ClickHouseRecorder{DB: db}, nil
}

func (c *ClickHouseRecorder) Name() string { return "clickhouse" }

// Record inserts ev. ErrUnavailable is returned when no DB is configured.
func (c *ClickHouseRecorder) Record(ctx context.Context, ev models.IdentificationEvent) error {
	if c == nil || c.DB == nil {
		return ErrUnavailable
	}
	_, err := c.DB.ExecContext(ctx, insertEvent,
		ev.Timestamp, ev.RelayRequestID, ev.RequestID, ev.VisitorID, ev.Mode,
		ev.ClientIP, ev.IPFallback, nullString(ev.Country), nullString(ev.Region),
		ev.DeviceType, ev.IsBotUA, ev.UpstreamLatencyMs, ev.BackendLatencyMs,
	)
	if err != nil {
		return fmt.Errorf("insert identification event: %w", err)
	}
	return nil
}

func (c *ClickHouseRecorder) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

const selectByVisitor = `SELECT timestamp, relay_request_id, request_id, visitor_id, mode, client_ip, ip_fallback, country, region, device_type, is_bot_ua, upstream_latency_ms, backend_latency_ms
FROM identification_events WHERE visitor_id = ? ORDER BY timestamp DESC LIMIT ?`

// EventsByVisitor returns the most recent events recorded for visitorID,
// newest first.
func (c *ClickHouseRecorder) EventsByVisitor(ctx context.Context, visitorID string, limit int) ([]models.IdentificationEvent, error) {
	if c == nil || c.DB == nil {
		return nil, ErrUnavailable
	}
	rows, err := c.DB.QueryContext(ctx, selectByVisitor, visitorID, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []models.IdentificationEvent
	for rows.Next() {
		var ev models.IdentificationEvent
		var country, region sql.NullString
		if err := rows.Scan(&ev.Timestamp, &ev.RelayRequestID, &ev.RequestID, &ev.VisitorID, &ev.Mode,
			&ev.ClientIP, &ev.IPFallback, &country, &region, &ev.DeviceType, &ev.IsBotUA,
			&ev.UpstreamLatencyMs, &ev.BackendLatencyMs); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Country = country.String
		ev.Region = region.String
		events = append(events, ev)
	}
	return events, rows.Err()
}
