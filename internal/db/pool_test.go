package db

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsNoRows(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("query latest dedupe run: %w", ErrNoRows)
	if !IsNoRows(wrapped) {
		t.Error("wrapped ErrNoRows not recognized")
	}
	if IsNoRows(nil) {
		t.Error("nil error reported as no rows")
	}
	if IsNoRows(errors.New("boom")) {
		t.Error("unrelated error reported as no rows")
	}
}

func TestNilPoolScanReturnsNoRows(t *testing.T) {
	t.Parallel()

	var row *Row
	var x int
	if err := row.Scan(&x); !IsNoRows(err) {
		t.Errorf("scan on nil row = %v, want ErrNoRows", err)
	}
}
