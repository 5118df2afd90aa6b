// Package datastore persists raw and normalized game histories as
// zstd-compressed JSON files.
package datastore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/ramonehamilton/preordain/internal/games"
)

// ErrNotFound is returned when a referenced file does not exist.
var ErrNotFound = errors.New("dataset not found")

const (
	rawSuffix   = "_raw.json.zst"
	gamesSuffix = "_games.json.zst"
)

// Refs names the pair of files written for one sync.
type Refs struct {
	Raw        string
	Normalized string
}

// NewRefs returns fresh file references for an identity key.
func NewRefs(key string) Refs {
	id := uuid.NewString()
	return Refs{
		Raw:        key + "_" + id + rawSuffix,
		Normalized: key + "_" + id + gamesSuffix,
	}
}

// Store reads and writes dataset files inside a directory.
type Store struct {
	dir     string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewStore creates the directory if needed and prepares the codecs.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &Store{dir: dir, encoder: encoder, decoder: decoder}, nil
}

// Dir returns the directory files are stored in.
func (s *Store) Dir() string {
	return s.dir
}

// Close releases the decoder's resources.
func (s *Store) Close() {
	s.decoder.Close()
}

// WriteRaw stores the raw records under ref.
func (s *Store) WriteRaw(ref string, records []games.RawRecord) error {
	if records == nil {
		records = []games.RawRecord{}
	}
	return s.write(ref, records)
}

// ReadRaw loads raw records stored under ref.
func (s *Store) ReadRaw(ref string) ([]games.RawRecord, error) {
	var records []games.RawRecord
	if err := s.read(ref, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// WriteDataset stores a normalized dataset under ref.
func (s *Store) WriteDataset(ref string, ds *games.Dataset) error {
	if ds == nil {
		return fmt.Errorf("dataset cannot be nil")
	}
	return s.write(ref, ds)
}

// ReadDataset loads a normalized dataset stored under ref.
func (s *Store) ReadDataset(ref string) (*games.Dataset, error) {
	ds := &games.Dataset{}
	if err := s.read(ref, ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// Remove deletes the file for ref. Removing a missing file is not an error.
func (s *Store) Remove(ref string) error {
	path, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", ref, err)
	}
	return nil
}

// write encodes v and atomically replaces the file for ref.
func (s *Store) write(ref string, v any) (err error) {
	path, err := s.path(ref)
	if err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", ref, err)
	}
	compressed := s.encoder.EncodeAll(data, make([]byte, 0, len(data)/4))

	tmp, err := os.CreateTemp(s.dir, ".tmp-"+ref+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(compressed); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", ref, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", ref, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", ref, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", ref, err)
	}

	return nil
}

func (s *Store) read(ref string, v any) error {
	path, err := s.path(ref)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", ref, err)
	}
	defer f.Close()

	compressed, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", ref, err)
	}

	data, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return fmt.Errorf("failed to decompress %s: %w", ref, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", ref, err)
	}
	return nil
}

// path resolves ref inside the store directory. Refs are plain file names.
func (s *Store) path(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return "", fmt.Errorf("invalid dataset reference %q", ref)
	}
	return filepath.Join(s.dir, ref), nil
}
