package normalize

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/gyeh/rxmargin/internal/model"
)

// FileHash computes the hex-encoded SHA-256 of the file at path.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for hash: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// Fingerprint computes a stable SHA-256 over a set of named values.
// Fields are sorted by key name then concatenated with null separators.
func Fingerprint(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(fields[k]))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// TableHash computes a SHA-256 over a table's name, header and cells.
// Row and cell counts are mixed in so shifted cells never collide.
func TableHash(t *model.Table) []byte {
	h := sha256.New()
	buf := make([]byte, 8)
	h.Write([]byte(t.Name))
	h.Write([]byte{0})
	if t.Err != nil {
		h.Write([]byte(t.Err.Error()))
		h.Write([]byte{0})
	}
	for _, c := range t.Columns {
		h.Write([]byte(c))
		h.Write([]byte{0})
	}
	binary.LittleEndian.PutUint64(buf, uint64(len(t.Rows)))
	h.Write(buf)
	for _, row := range t.Rows {
		binary.LittleEndian.PutUint64(buf, uint64(len(row)))
		h.Write(buf)
		for _, v := range row {
			h.Write([]byte(v))
			h.Write([]byte{0})
		}
	}
	return h.Sum(nil)
}

// DatasetVersion derives a version string from every loaded table. Two loads
// of identical content yield the same version regardless of map order.
func DatasetVersion(tables model.Tables) string {
	names := make([]string, 0, len(tables))
	for name, t := range tables {
		if t != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write(TableHash(tables[name]))
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}
