package columnar

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// The original Studio server writes these tables as a columnar Arrow IPC
// file; no Arrow library exists anywhere in this SDK's dependency corpus
// (see DESIGN.md), so this package implements its own small
// self-describing binary container instead: a magic/version header
// followed by a gob-encoded Table. Schema mismatches (wrong magic, wrong
// version, wrong column shape) are fatal, matching §6's file-format
// contract.
const (
	magic          = "EF1TBL\x00\x00"
	legacyMagic    = "EF1TBL9\x00"
	formatVersion1 = uint32(1)
)

// UnsupportedFormatError signals the file is not a recognized columnar
// container (bad magic or version).
type UnsupportedFormatError struct{ Detail string }

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %s", e.Detail)
}

// WriteIPCFile writes the full 13-column table.
func WriteIPCFile(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create columnar file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.WriteString(magic); err != nil {
		return err
	}
	enc := gob.NewEncoder(w)
	if err := enc.Encode(formatVersion1); err != nil {
		return err
	}
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode columnar table: %w", err)
	}
	return w.Flush()
}

// ReadIPCFile reads a full 13-column table.
func ReadIPCFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open columnar file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	if err := expectMagic(r, magic); err != nil {
		return nil, err
	}
	dec := gob.NewDecoder(r)
	var version uint32
	if err := dec.Decode(&version); err != nil {
		return nil, &UnsupportedFormatError{Detail: "missing version header"}
	}
	if version != formatVersion1 {
		return nil, &UnsupportedFormatError{Detail: fmt.Sprintf("unknown columnar format version %d", version)}
	}
	var t Table
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("decode columnar table: %w", err)
	}
	return &t, nil
}

// WriteLegacyIPCFile writes the 9-column legacy table.
func WriteLegacyIPCFile(path string, t *LegacyTable) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create columnar file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.WriteString(legacyMagic); err != nil {
		return err
	}
	enc := gob.NewEncoder(w)
	if err := enc.Encode(formatVersion1); err != nil {
		return err
	}
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode legacy columnar table: %w", err)
	}
	return w.Flush()
}

// ReadLegacyIPCFile reads a 9-column legacy table.
func ReadLegacyIPCFile(path string) (*LegacyTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open columnar file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	if err := expectMagic(r, legacyMagic); err != nil {
		return nil, err
	}
	dec := gob.NewDecoder(r)
	var version uint32
	if err := dec.Decode(&version); err != nil {
		return nil, &UnsupportedFormatError{Detail: "missing version header"}
	}
	if version != formatVersion1 {
		return nil, &UnsupportedFormatError{Detail: fmt.Sprintf("unknown columnar format version %d", version)}
	}
	var t LegacyTable
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("decode legacy columnar table: %w", err)
	}
	return &t, nil
}

func expectMagic(r *bufio.Reader, want string) error {
	got := make([]byte, len(want))
	if _, err := io.ReadFull(r, got); err != nil {
		return &UnsupportedFormatError{Detail: "file too short for columnar header"}
	}
	if string(got) != want {
		return &UnsupportedFormatError{Detail: "bad columnar file magic"}
	}
	return nil
}
