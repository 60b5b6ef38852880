package db

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/abelkene001/mini-biz/pkg/logger"
)

func newBufferedQueryLogger(slow time.Duration) (gormlogger.Interface, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.DebugLevel, Format: logger.FormatJSON, Output: buf})
	return newQueryLogger(logg, slow), buf
}

func statement() (string, int64) {
	return "SELECT * FROM shops", 0
}

func TestQueryLoggerReportsFailures(t *testing.T) {
	ql, buf := newBufferedQueryLogger(0)

	ql.Trace(context.Background(), time.Now(), statement, errors.New("connection reset"))
	if !bytes.Contains(buf.Bytes(), []byte(`"db.query.failed"`)) {
		t.Fatalf("expected failure entry, got %s", buf.String())
	}
}

func TestQueryLoggerSkipsExpectedErrors(t *testing.T) {
	ql, buf := newBufferedQueryLogger(0)

	ql.Trace(context.Background(), time.Now(), statement, gorm.ErrRecordNotFound)
	ql.Trace(context.Background(), time.Now(), statement, &pgconn.PgError{Code: "23505", ConstraintName: "shops_slug_key"})
	if buf.Len() != 0 {
		t.Fatalf("expected no entries, got %s", buf.String())
	}
}

func TestQueryLoggerReportsSlowStatements(t *testing.T) {
	ql, buf := newBufferedQueryLogger(time.Millisecond)

	ql.Trace(context.Background(), time.Now().Add(-time.Second), statement, nil)
	if !bytes.Contains(buf.Bytes(), []byte(`"db.query.slow"`)) {
		t.Fatalf("expected slow entry, got %s", buf.String())
	}

	buf.Reset()
	ql.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now().Add(-time.Second), statement, nil)
	if buf.Len() != 0 {
		t.Fatalf("silent mode should not log, got %s", buf.String())
	}
}
