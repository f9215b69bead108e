package snapshot

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"tile-timelapse/internal/common"
	"tile-timelapse/internal/fileutil"
	"tile-timelapse/internal/palette"
	"tile-timelapse/internal/utils/naming"
)

// ErrExists is returned when a snapshot with the same timestamp is already stored
var ErrExists = errors.New("snapshot already exists")

// Snapshot is one stored frame of a region's timelapse
type Snapshot struct {
	Name  string
	Path  string
	Taken time.Time
}

// Store is the append-only snapshot directory of one region.
// Snapshots are ordered by file name, which sorts chronologically.
type Store struct {
	dir    string
	region string
	loc    *time.Location
}

// Open ensures the region directory under root exists
func Open(root, region string, loc *time.Location) (*Store, error) {
	dir, err := naming.RegionDir(root, region)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Store{dir: dir, region: region, loc: loc}, nil
}

// Dir returns the region directory
func (s *Store) Dir() string {
	return s.dir
}

// AnimationPath returns where the region's animation lives
func (s *Store) AnimationPath() string {
	return filepath.Join(s.dir, naming.AnimationFilename(s.region))
}

// Append stores img as a new snapshot named after taken in the store's time zone.
// An existing snapshot is never overwritten.
func (s *Store) Append(img *image.Paletted, taken time.Time) (Snapshot, error) {
	if img == nil {
		return Snapshot{}, fmt.Errorf("snapshot image is nil")
	}
	taken = taken.In(s.loc).Truncate(time.Second)
	filename := naming.SnapshotFilename(taken)
	path := filepath.Join(s.dir, filename)

	encoder := png.Encoder{CompressionLevel: png.BestCompression}
	err := fileutil.WriteNew(path, 0o644, func(w io.Writer) error {
		return encoder.Encode(w, img)
	})
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return Snapshot{}, fmt.Errorf("%s: %w", filename, ErrExists)
		}
		return Snapshot{}, fmt.Errorf("write snapshot: %w", err)
	}

	name, _ := naming.SnapshotName(filename)
	return Snapshot{Name: name, Path: path, Taken: taken}, nil
}

// List returns every stored snapshot, oldest first
func (s *Store) List() ([]Snapshot, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot directory: %w", err)
	}

	snapshots := make([]Snapshot, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name, ok := naming.SnapshotName(entry.Name())
		if !ok {
			continue
		}
		snap := Snapshot{Name: name, Path: filepath.Join(s.dir, entry.Name())}
		if taken, err := common.ParseSnapshot(name, s.loc); err == nil {
			snap.Taken = taken
		}
		snapshots = append(snapshots, snap)
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Name < snapshots[j].Name
	})
	return snapshots, nil
}

// Latest returns the most recent snapshot, or nil when the store is empty
func (s *Store) Latest() (*Snapshot, error) {
	snapshots, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, nil
	}
	latest := snapshots[len(snapshots)-1]
	return &latest, nil
}

// Load decodes a stored snapshot. Files that were not written as paletted
// PNGs are quantized on the way in.
func (s *Store) Load(snap Snapshot) (*image.Paletted, error) {
	f, err := os.Open(snap.Path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", snap.Name, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", snap.Name, err)
	}
	if p, ok := img.(*image.Paletted); ok {
		return p, nil
	}
	return palette.Quantize(img, palette.DefaultColors), nil
}
