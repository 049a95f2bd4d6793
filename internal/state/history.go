package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const historyKeyPrefix = "resolution:"

// Resolution is the last recorded selection for one base path.
type Resolution struct {
	BasePath   string    `json:"base_path"`
	Requested  string    `json:"requested"`
	Selected   string    `json:"selected"`
	OutputPath string    `json:"output_path"`
	Fallback   bool      `json:"fallback"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// History records what each base path resolved to. It is write-mostly: the
// resolver never consults it when selecting.
type History struct {
	kv  *KVStore
	now func() time.Time
}

func NewHistory(kv *KVStore) *History {
	return &History{kv: kv, now: time.Now}
}

func historyKey(basePath string) KVStoreKey {
	return KVStoreKey(historyKeyPrefix + basePath)
}

// Record stores r as the latest resolution of r.BasePath. changed reports
// whether a previous record existed and selected a different directory.
func (h *History) Record(ctx context.Context, r Resolution) (previous *Resolution, changed bool, err error) {
	if r.ResolvedAt.IsZero() {
		r.ResolvedAt = h.now().UTC()
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, false, fmt.Errorf("history: encode: %w", err)
	}

	key := historyKey(r.BasePath)
	err = h.kv.db.WithTx(ctx, func(tx *sql.Tx) error {
		entry, found, err := getEntry(ctx, tx, key)
		if err != nil {
			return err
		}
		if found {
			prev, err := decodeResolution(entry)
			if err != nil {
				return err
			}
			previous = &prev
			changed = prev.OutputPath != r.OutputPath
		}
		return upsertEntry(ctx, tx, key, string(data))
	})
	if err != nil {
		return nil, false, fmt.Errorf("history: record %s: %w", r.BasePath, err)
	}
	return previous, changed, nil
}

// Last returns the latest recorded resolution for basePath.
func (h *History) Last(ctx context.Context, basePath string) (Resolution, bool, error) {
	entry, found, err := h.kv.Get(ctx, historyKey(basePath))
	if err != nil || !found {
		return Resolution{}, found, err
	}
	r, err := decodeResolution(entry)
	if err != nil {
		return Resolution{}, false, err
	}
	return r, true, nil
}

// All returns every recorded resolution ordered by base path.
func (h *History) All(ctx context.Context) ([]Resolution, error) {
	entries, err := h.kv.List(ctx, historyKeyPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]Resolution, 0, len(entries))
	for _, e := range entries {
		r, err := decodeResolution(e)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func decodeResolution(e Entry) (Resolution, error) {
	var r Resolution
	if err := json.Unmarshal([]byte(e.Value), &r); err != nil {
		return Resolution{}, fmt.Errorf("history: decode %s: %w", strings.TrimPrefix(string(e.Key), historyKeyPrefix), err)
	}
	return r, nil
}
