// Package snapshot persists a built index together with its evaluation in a
// single file: a fixed little-endian header followed by a JSON payload whose
// CRC32 is recorded in the header.
package snapshot

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/evaluator"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
)

// MagicBytes identifies a snapshot file ("VSSX").
const (
	MagicBytes    uint32 = 0x56535358
	FormatVersion uint32 = 1
	HeaderSize    int    = 40
)

// Header is the fixed-size header written at the start of every snapshot.
type Header struct {
	Magic        uint32
	Version      uint32
	TermCount    uint32
	DocCount     uint32
	PostingCount uint32
	Checksum     uint32
	CreatedAt    int64 // unix nanoseconds
	PayloadSize  int64
}

func (h Header) encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.TermCount)
	binary.LittleEndian.PutUint32(buf[12:16], h.DocCount)
	binary.LittleEndian.PutUint32(buf[16:20], h.PostingCount)
	binary.LittleEndian.PutUint32(buf[20:24], h.Checksum)
	binary.LittleEndian.PutUint64(buf[24:32], uint64(h.CreatedAt))
	binary.LittleEndian.PutUint64(buf[32:40], uint64(h.PayloadSize))
	return buf
}

func decodeHeader(buf []byte) Header {
	return Header{
		Magic:        binary.LittleEndian.Uint32(buf[0:4]),
		Version:      binary.LittleEndian.Uint32(buf[4:8]),
		TermCount:    binary.LittleEndian.Uint32(buf[8:12]),
		DocCount:     binary.LittleEndian.Uint32(buf[12:16]),
		PostingCount: binary.LittleEndian.Uint32(buf[16:20]),
		Checksum:     binary.LittleEndian.Uint32(buf[20:24]),
		CreatedAt:    int64(binary.LittleEndian.Uint64(buf[24:32])),
		PayloadSize:  int64(binary.LittleEndian.Uint64(buf[32:40])),
	}
}

// payload is the JSON body of a snapshot.
type payload struct {
	Index      index.Parts           `json:"index"`
	Evaluation *evaluator.Evaluation `json:"evaluation"`
}

// Writer writes snapshots into a directory.
type Writer struct {
	dataDir string
}

// NewWriter creates a Writer that writes snapshots into dataDir.
func NewWriter(dataDir string) *Writer {
	return &Writer{dataDir: dataDir}
}

// Write atomically replaces dataDir/name with a snapshot of ix and eval. The
// file is written to name.tmp, synced, and renamed into place.
func (w *Writer) Write(name string, ix *index.Index, eval *evaluator.Evaluation) (string, error) {
	if ix == nil || eval == nil {
		return "", fmt.Errorf("cannot write snapshot without index and evaluation")
	}
	finalPath := filepath.Join(w.dataDir, name)
	tmpPath := finalPath + ".tmp"

	if err := os.MkdirAll(w.dataDir, 0755); err != nil {
		return "", fmt.Errorf("creating snapshot directory: %w", err)
	}
	body, err := json.Marshal(payload{Index: ix.Parts(), Evaluation: eval})
	if err != nil {
		return "", fmt.Errorf("marshaling snapshot payload: %w", err)
	}
	stats := ix.Stats()
	header := Header{
		Magic:        MagicBytes,
		Version:      FormatVersion,
		TermCount:    uint32(stats.Terms),
		DocCount:     uint32(stats.Documents),
		PostingCount: uint32(stats.Postings),
		Checksum:     crc32.ChecksumIEEE(body),
		CreatedAt:    time.Now().UnixNano(),
		PayloadSize:  int64(len(body)),
	}

	if err := writeFile(tmpPath, header, body); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming snapshot file: %w", err)
	}
	return finalPath, nil
}

func writeFile(path string, header Header, body []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating temp snapshot file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(header.encode()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := f.Write(body); err != nil {
		return fmt.Errorf("writing payload: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing snapshot file: %w", err)
	}
	return f.Close()
}
