package filterstate

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/AdguardTeam/AdGuardFilters/internal/agd"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/google/renameio/v2"
)

// FileConfig is the configuration structure for the file-based storage.
type FileConfig struct {
	// Logger is used for logging the operation of the storage.  It must not
	// be nil.
	Logger *slog.Logger

	// Path is the path to the JSON file holding the state.  It must not be
	// empty.  The file is created on the first write.
	Path string
}

// File is a [Storage] that keeps the state in a single JSON file.  Every
// mutation is written through atomically.
type File struct {
	logger *slog.Logger

	// mu protects doc and the file at path.
	mu  *sync.Mutex
	doc *fileDoc

	path string
}

// fileDoc is the on-disk layout of the state file.
type fileDoc struct {
	Filters map[agd.FilterID]*filterRecord `json:"filters"`
	Groups  map[agd.GroupID]*GroupState    `json:"groups"`
}

// filterRecord is the on-disk record of a single filter.  Either field may be
// nil when the corresponding part has never been set.
type filterRecord struct {
	State   *FilterState `json:"state,omitempty"`
	Version *VersionInfo `json:"version,omitempty"`
}

// NewFile returns a new file-based storage.  If the file at c.Path exists,
// its contents are loaded; otherwise the storage starts empty.  c must not be
// nil.
func NewFile(c *FileConfig) (f *File, err error) {
	f = &File{
		logger: c.Logger,
		mu:     &sync.Mutex{},
		doc: &fileDoc{
			Filters: map[agd.FilterID]*filterRecord{},
			Groups:  map[agd.GroupID]*GroupState{},
		},
		path: c.Path,
	}

	err = f.load()
	if err != nil {
		return nil, fmt.Errorf("loading state from %q: %w", c.Path, err)
	}

	return f, nil
}

// load reads the state file into f.doc.  A missing file is not an error.
func (f *File) load() (err error) {
	// #nosec G304 -- Trust the path from the configuration.
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		// Don't wrap the error, because it's informative enough as is.
		return err
	}

	doc := &fileDoc{}
	err = json.Unmarshal(data, doc)
	if err != nil {
		return fmt.Errorf("decoding: %w", err)
	}

	if doc.Filters == nil {
		doc.Filters = map[agd.FilterID]*filterRecord{}
	}

	if doc.Groups == nil {
		doc.Groups = map[agd.GroupID]*GroupState{}
	}

	f.doc = doc

	return nil
}

// flush writes f.doc through to the file atomically.  f.mu is expected to be
// locked.
func (f *File) flush() (err error) {
	data, err := json.Marshal(f.doc)
	if err != nil {
		return fmt.Errorf("encoding: %w", err)
	}

	err = renameio.WriteFile(f.path, data, 0o600)
	if err != nil {
		return fmt.Errorf("writing %q: %w", f.path, err)
	}

	return nil
}

// type check
var _ Storage = (*File)(nil)

// FiltersVersion implements the [Storage] interface for *File.
func (f *File) FiltersVersion() (vers map[agd.FilterID]*VersionInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()

	vers = make(map[agd.FilterID]*VersionInfo, len(f.doc.Filters))
	for id, rec := range f.doc.Filters {
		if rec.Version == nil {
			continue
		}

		v := *rec.Version
		vers[id] = &v
	}

	return vers
}

// FiltersState implements the [Storage] interface for *File.
func (f *File) FiltersState() (states map[agd.FilterID]*FilterState) {
	f.mu.Lock()
	defer f.mu.Unlock()

	states = make(map[agd.FilterID]*FilterState, len(f.doc.Filters))
	for id, rec := range f.doc.Filters {
		if rec.State == nil {
			continue
		}

		st := *rec.State
		states[id] = &st
	}

	return states
}

// GroupsState implements the [Storage] interface for *File.
func (f *File) GroupsState() (states map[agd.GroupID]*GroupState) {
	f.mu.Lock()
	defer f.mu.Unlock()

	states = make(map[agd.GroupID]*GroupState, len(f.doc.Groups))
	for id, st := range f.doc.Groups {
		v := *st
		states[id] = &v
	}

	return states
}

// SetFilterVersion implements the [Storage] interface for *File.
func (f *File) SetFilterVersion(id agd.FilterID, v *VersionInfo) (err error) {
	defer func() { err = errors.Annotate(err, "setting version of filter %d: %w", id) }()

	f.mu.Lock()
	defer f.mu.Unlock()

	rec := f.doc.Filters[id]
	if rec == nil {
		rec = &filterRecord{}
		f.doc.Filters[id] = rec
	}

	clone := *v
	rec.Version = &clone

	return f.flush()
}

// SetFilterState implements the [Storage] interface for *File.
func (f *File) SetFilterState(id agd.FilterID, st *FilterState) (err error) {
	defer func() { err = errors.Annotate(err, "setting state of filter %d: %w", id) }()

	f.mu.Lock()
	defer f.mu.Unlock()

	rec := f.doc.Filters[id]
	if rec == nil {
		rec = &filterRecord{}
		f.doc.Filters[id] = rec
	}

	clone := *st
	rec.State = &clone

	return f.flush()
}

// SetGroupState implements the [Storage] interface for *File.
func (f *File) SetGroupState(id agd.GroupID, st *GroupState) (err error) {
	defer func() { err = errors.Annotate(err, "setting state of group %d: %w", id) }()

	f.mu.Lock()
	defer f.mu.Unlock()

	clone := *st
	f.doc.Groups[id] = &clone

	return f.flush()
}
