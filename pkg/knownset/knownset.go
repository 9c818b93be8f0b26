// Package knownset implements the Known-Set: the persisted pair of remote
// path sets (files, dirs) the Crash Harvester uses to avoid re-downloading
// artifacts and re-treating directories as files across sessions.
package knownset

import (
	"github.com/nop-infra/imonitor-go/pkg/persistence"
)

// KnownSet tracks which remote crash-service paths have already been
// downloaded (files) and which are known to be directories (dirs).
// Invariant: files and dirs are disjoint. Not safe for concurrent use by
// more than one goroutine: the Crash Harvester is the set's sole writer.
type KnownSet struct {
	files map[string]struct{}
	dirs  map[string]struct{}

	filesStore *persistence.Store[[]string]
	dirsStore  *persistence.Store[[]string]
}

// New creates an empty KnownSet persisted at filesPath/dirsPath.
func New(filesPath, dirsPath string) *KnownSet {
	return &KnownSet{
		files:      map[string]struct{}{},
		dirs:       map[string]struct{}{},
		filesStore: persistence.NewStore[[]string](filesPath),
		dirsStore:  persistence.NewStore[[]string](dirsPath),
	}
}

// Load reads the persisted files/dirs sets from disk, seeding the
// in-memory state so previously captured crashes are not re-fetched.
// Missing files yield empty sets.
func (k *KnownSet) Load() error {
	files, ok, err := k.filesStore.Load()
	if err != nil {
		return err
	}
	if ok {
		k.files = toSet(files)
	}

	dirs, ok, err := k.dirsStore.Load()
	if err != nil {
		return err
	}
	if ok {
		k.dirs = toSet(dirs)
	}

	return nil
}

// Save persists the current files/dirs sets to disk.
func (k *KnownSet) Save() error {
	if err := k.filesStore.Save(toSlice(k.files)); err != nil {
		return err
	}
	return k.dirsStore.Save(toSlice(k.dirs))
}

// IsFile reports whether path is already known to be a downloaded file.
func (k *KnownSet) IsFile(path string) bool {
	_, ok := k.files[path]
	return ok
}

// IsDir reports whether path is already known to be a directory.
func (k *KnownSet) IsDir(path string) bool {
	_, ok := k.dirs[path]
	return ok
}

// MarkFile records path as a successfully downloaded file, removing it
// from dirs if present (files and dirs stay disjoint).
func (k *KnownSet) MarkFile(path string) {
	delete(k.dirs, path)
	k.files[path] = struct{}{}
}

// MarkDir records path as a directory, removing it from files if present.
func (k *KnownSet) MarkDir(path string) {
	delete(k.files, path)
	k.dirs[path] = struct{}{}
}

// ForgetDir removes path from dirs, used when listing a previously known
// directory fails, on the assumption the remote deleted it.
func (k *KnownSet) ForgetDir(path string) {
	delete(k.dirs, path)
}

// Dirs returns a snapshot of the known directory paths.
func (k *KnownSet) Dirs() []string {
	return toSlice(k.dirs)
}

// Files returns a snapshot of the known file paths.
func (k *KnownSet) Files() []string {
	return toSlice(k.files)
}

// SetFiles replaces the files set wholesale. The Crash Harvester uses this
// to persist, per iteration, `candidates - give_up` restricted to paths
// already marked via MarkFile (see package pkg/crashes).
func (k *KnownSet) SetFiles(paths []string) {
	k.files = toSet(paths)
}

func toSet(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return set
}

func toSlice(set map[string]struct{}) []string {
	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	return paths
}
