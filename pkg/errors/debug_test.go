package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpExtractsPgxDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "shops_slug_key", TableName: "shops", Message: "duplicate key value violates unique constraint"}
	err := Wrap(CodeDependency, fmt.Errorf("insert shop: %w", pgErr), "create shop")

	d := Dump(err)
	if d.Code != CodeDependency || !d.Retryable {
		t.Fatalf("unexpected code/retryable %s/%v", d.Code, d.Retryable)
	}
	if d.Postgres == nil || d.Postgres.Code != "23505" || d.Postgres.Constraint != "shops_slug_key" || d.Postgres.Table != "shops" {
		t.Fatalf("unexpected pg details %+v", d.Postgres)
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected 3 chain entries got %d", len(d.Chain))
	}

	fields := d.Fields()
	if fields["pg_constraint"] != "shops_slug_key" || fields["retryable"] != true {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestDumpExtractsPqDetails(t *testing.T) {
	err := fmt.Errorf("goose up: %w", &pq.Error{Code: "42P07", Table: "orders", Message: "relation already exists"})

	d := Dump(err)
	if d.Postgres == nil || d.Postgres.Code != "42P07" || d.Postgres.Table != "orders" {
		t.Fatalf("unexpected pq details %+v", d.Postgres)
	}
	if d.Code != "" {
		t.Fatalf("untyped errors carry no code, got %s", d.Code)
	}
}

func TestDumpWithoutPostgresError(t *testing.T) {
	d := Dump(errors.New("plain"))
	if d.Postgres != nil {
		t.Fatalf("expected no postgres detail, got %+v", d.Postgres)
	}
	if _, ok := d.Fields()["pg_code"]; ok {
		t.Fatal("pg_code should be omitted")
	}
}

func TestDumpNil(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" || len(d.Chain) != 0 {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}
