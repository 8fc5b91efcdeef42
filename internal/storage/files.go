package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

const (
	maxFilerNameRunes = 50
	archiveExt        = ".zip"
)

// FileManager writes document archives below a default directory or the
// directory a request names.
type FileManager struct {
	defaultDir string
}

func NewFileManager(defaultDir string) *FileManager {
	return &FileManager{defaultDir: defaultDir}
}

// ResolveDir returns dir, or the default directory when dir is empty.
func (fm *FileManager) ResolveDir(dir string) string {
	if strings.TrimSpace(dir) == "" {
		return fm.defaultDir
	}
	return dir
}

// SaveArchive writes r to dir under the archive name of (filerName, docID),
// creating dir if needed and replacing any existing file. It returns the
// written path and byte count.
func (fm *FileManager) SaveArchive(dir, filerName, docID string, r io.Reader) (string, int64, error) {
	if err := checkDocID(docID); err != nil {
		return "", 0, err
	}

	dir = fm.ResolveDir(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, ArchiveFileName(filerName, docID))
	out, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create archive file: %w", err)
	}

	written, err := io.Copy(out, r)
	if err != nil {
		out.Close()
		os.Remove(path)
		return "", 0, fmt.Errorf("write archive file: %w", err)
	}

	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("close archive file: %w", err)
	}

	return path, written, nil
}

// checkDocID rejects identifiers that would place the archive outside its
// directory.
func checkDocID(docID string) error {
	if docID == "" || docID == "." || docID == ".." || strings.ContainsAny(docID, `/\`) || strings.ContainsRune(docID, 0) {
		return fmt.Errorf("invalid document id %q", docID)
	}
	return nil
}

// ArchiveFileName builds "<sanitized filer name>_<docID>.zip".
func ArchiveFileName(filerName, docID string) string {
	return SanitizeFilerName(filerName) + "_" + docID + archiveExt
}

// SanitizeFilerName keeps letters, numbers, spaces, underscores and hyphens
// and cuts the result to its first 50 runes.
func SanitizeFilerName(name string) string {
	var b strings.Builder
	kept := 0
	for _, r := range name {
		if kept == maxFilerNameRunes {
			break
		}
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == ' ' || r == '_' || r == '-' {
			b.WriteRune(r)
			kept++
		}
	}
	return b.String()
}
