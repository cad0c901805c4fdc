package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpTypedError(t *testing.T) {
	err := Wrap(CodeUpstreamTimeout, fmt.Errorf("dial: i/o timeout"), "get_cart timed out").
		WithDetails(map[string]any{"operation": "get_cart"})
	d := Dump(fmt.Errorf("add item: %w", err))

	if d.Code != CodeUpstreamTimeout {
		t.Fatalf("expected code %s got %s", CodeUpstreamTimeout, d.Code)
	}
	if !d.Retryable {
		t.Fatalf("expected timeout to be retryable")
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected wrapped chain, got %v", d.Chain)
	}
	if d.PG != nil {
		t.Fatalf("unexpected pg info")
	}
	fields := d.Fields()
	if fields["error_details"] == nil || fields["retryable"] != true {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestDumpPostgresDrivers(t *testing.T) {
	pgx := &pgconn.PgError{Code: "42P01", Message: "relation does not exist", TableName: "wp_posts"}
	d := Dump(Wrap(CodeDependency, pgx, "owner lookup"))
	if d.PG == nil || d.PG.Code != "42P01" || d.PG.Table != "wp_posts" {
		t.Fatalf("unexpected pgx info %+v", d.PG)
	}

	pqErr := &pq.Error{Code: "42703", Message: "column does not exist", Column: "post_author"}
	d = Dump(fmt.Errorf("query: %w", pqErr))
	if d.PG == nil || d.PG.Code != "42703" || d.PG.Column != "post_author" {
		t.Fatalf("unexpected pq info %+v", d.PG)
	}
	if d.Fields()["pg_code"] != "42703" {
		t.Fatalf("expected pg_code field")
	}
}

func TestDumpNil(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" || d.Chain != nil {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}
