// Package backup provides tar.gz-based backup and restore for the editor's
// favorites database, config file and data directory.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/skeletor601/BL4-SaveEditor/internal/store"
	"github.com/skeletor601/BL4-SaveEditor/internal/version"
)

// Archive member names. Data files keep their base name under data/.
const (
	manifestMember = "manifest.json"
	dbMember       = "database.db"
	configPrefix   = "config"
	dataPrefix     = "data/"
)

// ErrExists is returned by Restore when a target file exists and force is
// not set. Nothing is written in that case.
var ErrExists = errors.New("restore target exists")

// Paths locates the files a backup covers. ConfigPath and DataDir may be
// empty.
type Paths struct {
	DBPath     string
	ConfigPath string
	DataDir    string
}

// Manifest is the first archive member and lists every other member.
type Manifest struct {
	CreatedAt time.Time `json:"createdAt"`
	Version   string    `json:"version"`
	Files     []string  `json:"files"`
}

// Backup creates a tar.gz archive containing the SQLite database, the
// config file if it exists, and the regular files at the top of the data
// directory. It performs a WAL checkpoint before copying the database to
// ensure consistency.
func Backup(ctx context.Context, p Paths, outputPath string) (*Manifest, error) {
	if _, err := os.Stat(p.DBPath); err != nil {
		return nil, fmt.Errorf("database file not found: %w", err)
	}
	if err := checkpointWAL(ctx, p.DBPath); err != nil {
		return nil, fmt.Errorf("WAL checkpoint failed: %w", err)
	}

	sources := map[string]string{dbMember: p.DBPath}
	if p.ConfigPath != "" {
		if _, err := os.Stat(p.ConfigPath); err == nil {
			sources[configPrefix+filepath.Ext(p.ConfigPath)] = p.ConfigPath
		}
	}
	if p.DataDir != "" {
		files, err := dataFiles(p.DataDir)
		if err != nil {
			return nil, fmt.Errorf("listing data directory: %w", err)
		}
		for _, name := range files {
			sources[dataPrefix+name] = filepath.Join(p.DataDir, name)
		}
	}

	m := &Manifest{CreatedAt: time.Now().UTC(), Version: version.Short()}
	for name := range sources {
		m.Files = append(m.Files, name)
	}
	sort.Strings(m.Files)

	if err := writeArchive(ctx, outputPath, m, sources); err != nil {
		os.Remove(outputPath)
		return nil, err
	}
	return m, nil
}

func writeArchive(ctx context.Context, outputPath string, m *Manifest, sources map[string]string) (err error) {
	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	gw := gzip.NewWriter(outFile)
	tw := tar.NewWriter(gw)
	defer func() {
		// Close in order; each flushes into the next.
		for _, c := range []io.Closer{tw, gw, outFile} {
			if cerr := c.Close(); err == nil && cerr != nil {
				err = fmt.Errorf("finalizing archive: %w", cerr)
			}
		}
	}()

	manifest, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := tw.WriteHeader(&tar.Header{
		Name:    manifestMember,
		Mode:    0o644,
		Size:    int64(len(manifest)),
		ModTime: m.CreatedAt,
	}); err != nil {
		return fmt.Errorf("adding manifest to archive: %w", err)
	}
	if _, err := tw.Write(manifest); err != nil {
		return fmt.Errorf("adding manifest to archive: %w", err)
	}

	for _, name := range m.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := addFileToTar(tw, sources[name], name); err != nil {
			return fmt.Errorf("adding %s to archive: %w", name, err)
		}
	}
	return nil
}

// checkpointWAL runs a TRUNCATE checkpoint to flush the WAL into the main
// database file.
func checkpointWAL(ctx context.Context, dbPath string) error {
	s, err := store.New(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Checkpoint(ctx)
}

func dataFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// addFileToTar adds a single file to the tar archive under the given name.
func addFileToTar(tw *tar.Writer, filePath, archiveName string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = archiveName

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	_, err = io.Copy(tw, f)
	return err
}

// Restore extracts an archive written by Backup onto p. Members without a
// destination (a config member when p.ConfigPath is empty) are skipped.
// Unless force is set, Restore fails with ErrExists before writing if any
// destination already exists.
func Restore(ctx context.Context, inputPath string, p Paths, force bool) (*Manifest, error) {
	inFile, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer inFile.Close()

	gr, err := gzip.NewReader(inFile)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	defer gr.Close()
	tr := tar.NewReader(gr)

	m, err := readManifest(tr)
	if err != nil {
		return nil, err
	}

	targets := make(map[string]string, len(m.Files))
	for _, name := range m.Files {
		dst, err := destination(name, p)
		if err != nil {
			return nil, err
		}
		if dst == "" {
			continue
		}
		if !force {
			if _, err := os.Stat(dst); err == nil {
				return nil, fmt.Errorf("%w: %s", ErrExists, dst)
			}
		}
		targets[name] = dst
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading archive: %w", err)
		}
		dst, ok := targets[hdr.Name]
		if !ok || hdr.Typeflag != tar.TypeReg {
			continue
		}
		if err := extractFile(tr, dst, os.FileMode(hdr.Mode).Perm()); err != nil {
			return nil, fmt.Errorf("restoring %s: %w", hdr.Name, err)
		}
		if hdr.Name == dbMember {
			// A stale WAL from the replaced database would be replayed.
			os.Remove(dst + "-wal")
			os.Remove(dst + "-shm")
		}
	}
	return m, nil
}

func readManifest(tr *tar.Reader) (*Manifest, error) {
	hdr, err := tr.Next()
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	if hdr.Name != manifestMember {
		return nil, fmt.Errorf("not a backup archive: first member is %q", hdr.Name)
	}
	var m Manifest
	if err := json.NewDecoder(io.LimitReader(tr, 1<<20)).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &m, nil
}

// destination maps an archive member to its restore path. Data members must
// be plain file names.
func destination(name string, p Paths) (string, error) {
	switch {
	case name == dbMember:
		return p.DBPath, nil
	case strings.HasPrefix(name, dataPrefix):
		base := strings.TrimPrefix(name, dataPrefix)
		if base == "" || base != path.Base(base) || base == ".." || strings.ContainsAny(base, `/\`) {
			return "", fmt.Errorf("unsafe archive member %q", name)
		}
		if p.DataDir == "" {
			return "", nil
		}
		return filepath.Join(p.DataDir, base), nil
	case strings.HasPrefix(name, configPrefix) && !strings.Contains(name, "/"):
		return p.ConfigPath, nil
	}
	return "", fmt.Errorf("unknown archive member %q", name)
}

func extractFile(r io.Reader, dst string, mode os.FileMode) error {
	if mode == 0 {
		mode = 0o600
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".restore-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
