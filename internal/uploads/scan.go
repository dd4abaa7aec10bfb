package uploads

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// ScannedFile is a file found by Scan.
type ScannedFile struct {
	RelPath string // Relative path from the scan root, forward slashes
	AbsPath string
}

// Scan walks root on the local disk. See ScanFs.
func Scan(ctx context.Context, root string, keep func(name string) bool) ([]ScannedFile, error) {
	return ScanFs(ctx, afero.NewOsFs(), root, keep)
}

// ScanFs walks root and returns every regular file accepted by keep, sorted
// by relative path. Hidden directories (".git", ".obsidian") are skipped.
func ScanFs(ctx context.Context, fs afero.Fs, root string, keep func(name string) bool) ([]ScannedFile, error) {
	var files []ScannedFile

	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if info.IsDir() {
			if path != root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() || !keep(info.Name()) {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}
		files = append(files, ScannedFile{
			RelPath: filepath.ToSlash(relPath),
			AbsPath: path,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}
