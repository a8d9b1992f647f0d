package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
)

func TestWithConnRunsFunction(t *testing.T) {
	db := Wrap(nil)

	ran := false
	err := db.WithConn(context.Background(), func(q *sqlx.DB) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("WithConn returned error: %v", err)
	}
	if !ran {
		t.Fatal("function was not invoked")
	}
}

func TestWithConnPropagatesError(t *testing.T) {
	db := Wrap(nil)

	want := errors.New("query failed")
	err := db.WithConn(context.Background(), func(q *sqlx.DB) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("got %v, want %v", err, want)
	}
}

func TestWithConnHonorsCancelledContext(t *testing.T) {
	db := Wrap(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := db.WithConn(ctx, func(q *sqlx.DB) error {
		t.Fatal("function must not run after cancellation")
		return nil
	})
	if err == nil {
		t.Fatal("expected an error from a cancelled context")
	}
}
