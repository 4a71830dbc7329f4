// Package filestore persists orders to a JSON array on local disk.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lcmcoursier/courier-quote/internal/core/domain"
)

// OrderLog appends orders to a JSON array file. Every append rewrites the
// whole file through a temp file and a rename, so a failed append leaves the
// previous content intact.
type OrderLog struct {
	path string
	mu   sync.Mutex
}

func NewOrderLog(path string) *OrderLog {
	return &OrderLog{path: path}
}

// Append adds o to the log. A missing file counts as an empty log; a file
// that is not a JSON array is an error and is left untouched.
func (l *OrderLog) Append(ctx context.Context, o *domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	orders, err := l.read()
	if err != nil {
		return err
	}

	rec, err := json.Marshal(record(o))
	if err != nil {
		return fmt.Errorf("encode order %s: %w", o.ID, err)
	}
	orders = append(orders, rec)

	data, err := json.MarshalIndent(orders, "", "  ")
	if err != nil {
		return fmt.Errorf("encode orders: %w", err)
	}
	return l.write(data)
}

func (l *OrderLog) read() ([]json.RawMessage, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}
	var orders []json.RawMessage
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("parse %s: %w", l.path, err)
	}
	return orders, nil
}

func (l *OrderLog) write(data []byte) error {
	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return fmt.Errorf("replace %s: %w", l.path, err)
	}
	return nil
}

// record flattens an order the way it is stored: every form field at the
// top level (single values as strings, repeated values as arrays) plus the
// order id and receipt time.
func record(o *domain.Order) map[string]any {
	m := make(map[string]any, len(o.Fields)+2)
	for k, v := range o.Fields {
		switch len(v) {
		case 0:
			m[k] = ""
		case 1:
			m[k] = v[0]
		default:
			m[k] = v
		}
	}
	m["id"] = o.ID
	m["receivedAt"] = o.ReceivedAt.UTC().Format(time.RFC3339Nano)
	return m
}
