package core

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

type countingCloser struct {
	name  string
	order *[]string
	calls int
	err   error
}

func (c *countingCloser) Close() error {
	c.calls++
	*c.order = append(*c.order, c.name)
	return c.err
}

func TestResourceGuardClosesEachHandleOnce(t *testing.T) {
	var logs bytes.Buffer
	guard := NewResourceGuard(slog.New(slog.NewTextHandler(&logs, nil)))

	var order []string
	input := &countingCloser{name: "input", order: &order}
	rejects := &countingCloser{name: "rejects", order: &order, err: errors.New("flush failed")}
	output := &countingCloser{name: "output", order: &order}

	guard.Track("input", input)
	guard.Track("rejects", rejects)
	guard.Track("output", output)

	err := guard.Close()
	if err == nil || !strings.Contains(err.Error(), "flush failed") {
		t.Errorf("Close() error = %v, want the rejects failure", err)
	}
	if err := guard.Close(); err != nil {
		t.Errorf("second Close() error = %v, want nil", err)
	}

	for _, c := range []*countingCloser{input, rejects, output} {
		if c.calls != 1 {
			t.Errorf("%s closed %d times, want 1", c.name, c.calls)
		}
	}
	if want := []string{"output", "rejects", "input"}; !reflect.DeepEqual(order, want) {
		t.Errorf("close order = %v, want %v", order, want)
	}
	if !strings.Contains(logs.String(), "error closing resource") {
		t.Errorf("close failure was not logged:\n%s", logs.String())
	}
}

func TestResourceGuardTrackAfterClose(t *testing.T) {
	guard := NewResourceGuard(nil)
	guard.Close()

	var order []string
	late := &countingCloser{name: "late", order: &order}
	guard.Track("late", late)

	if late.calls != 1 {
		t.Errorf("handle tracked after Close was closed %d times, want 1", late.calls)
	}
}

func TestResourceGuardOpenCreate(t *testing.T) {
	dir := t.TempDir()
	guard := NewResourceGuard(nil)
	defer guard.Close()

	if _, err := guard.Open(filepath.Join(dir, "missing.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open(missing) error = %v, want os.ErrNotExist", err)
	}

	path := filepath.Join(dir, "out.csv")
	f, err := guard.Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := f.WriteString("Name,Price\n"); err != nil {
		t.Fatalf("WriteString() error = %v", err)
	}
	if err := guard.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := f.WriteString("more"); err == nil {
		t.Error("file still writable after guard closed it")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "Name,Price\n" {
		t.Errorf("file contents = %q", data)
	}
}
