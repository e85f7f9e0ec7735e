package folio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/etnz/folio/date"
	"github.com/google/uuid"
)

// StateVersion is the version of the persisted state record.
const StateVersion = 0

// State is the persisted part of a Store.
type State struct {
	Assets      []Asset
	LastUpdated time.Time // zero if prices were never refreshed.
}

// record is the persisted form of a State.
type record struct {
	State struct {
		Assets      []Asset `json:"assets"`
		LastUpdated *int64  `json:"lastUpdated"` // unix milliseconds
	} `json:"state"`
	Version int `json:"version"`
}

func (s State) MarshalJSON() ([]byte, error) {
	var r record
	r.State.Assets = s.Assets
	if r.State.Assets == nil {
		r.State.Assets = []Asset{}
	}
	if !s.LastUpdated.IsZero() {
		ms := s.LastUpdated.UnixMilli()
		r.State.LastUpdated = &ms
	}
	r.Version = StateVersion
	return json.Marshal(r)
}

func (s *State) UnmarshalJSON(data []byte) error {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	if r.Version != StateVersion {
		return fmt.Errorf("unsupported state version %d", r.Version)
	}
	s.Assets = r.State.Assets
	s.LastUpdated = time.Time{}
	if r.State.LastUpdated != nil {
		s.LastUpdated = time.UnixMilli(*r.State.LastUpdated)
	}
	return nil
}

// LoadState reads the store persisted at path.
// If the file does not exist the error wraps fs.ErrNotExist.
func LoadState(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read state: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("cannot decode state %q: %w", path, err)
	}
	s, err := NewStore()
	if err != nil {
		return nil, err
	}
	if err := s.Replace(st.Assets, st.LastUpdated); err != nil {
		return nil, fmt.Errorf("invalid state %q: %w", path, err)
	}
	return s, nil
}

// SaveState persists the store at path. The file is replaced atomically.
func SaveState(path string, s *Store) error {
	data, err := json.Marshal(s.State())
	if err != nil {
		return fmt.Errorf("cannot encode state: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create state directory: %w", err)
		}
	}
	f, err := os.CreateTemp(filepath.Dir(path), ".folio-*.json")
	if err != nil {
		return fmt.Errorf("cannot save state: %w", err)
	}
	tmp := f.Name()
	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, path)
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cannot save state %q: %w", path, err)
	}
	return nil
}

// ClearState deletes the state persisted at path. A missing file is not an error.
func ClearState(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot clear state: %w", err)
	}
	return nil
}

// ImportAssets decodes a backup: either an array of assets, as written by ExportAssets, or a
// whole state record. Assets without an id get a new one. Every asset is validated; on error
// nothing is returned.
func ImportAssets(r io.Reader) ([]Asset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cannot read backup: %w", err)
	}
	var assets []Asset
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		if err := json.Unmarshal(data, &assets); err != nil {
			return nil, fmt.Errorf("invalid backup: %w", err)
		}
	} else {
		var st State
		if err := json.Unmarshal(data, &st); err != nil {
			return nil, fmt.Errorf("invalid backup: %w", err)
		}
		assets = st.Assets
	}

	var errs error
	for i, a := range assets {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		a = a.normalize()
		if err := a.Validate(); err != nil {
			errs = errors.Join(errs, err)
		}
		assets[i] = a
	}
	if errs != nil {
		return nil, fmt.Errorf("invalid backup: %w", errs)
	}
	return assets, nil
}

// ExportAssets writes assets as an indented JSON array.
func ExportAssets(w io.Writer, assets []Asset) error {
	if assets == nil {
		assets = []Asset{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(assets)
}

// ExportFilename returns the conventional name of a backup made on day.
func ExportFilename(day date.Date) string {
	return fmt.Sprintf("portfolio-backup-%s.json", day)
}
