package snapshot

import (
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/evaluator"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

// Snapshot is a loaded index with its evaluation.
type Snapshot struct {
	Header     Header
	Index      *index.Index
	Evaluation *evaluator.Evaluation
}

// Read loads and verifies the snapshot at path. A bad magic, an unknown
// version, a size or checksum mismatch, or an inconsistent index all report
// ErrCorruptIndex.
func Read(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("snapshot %s is %d bytes, shorter than its header: %w", path, len(data), apperrors.ErrCorruptIndex)
	}
	header := decodeHeader(data[:HeaderSize])
	if header.Magic != MagicBytes {
		return nil, fmt.Errorf("invalid snapshot file: bad magic bytes %x: %w", header.Magic, apperrors.ErrCorruptIndex)
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d: %w", header.Version, apperrors.ErrCorruptIndex)
	}
	body := data[HeaderSize:]
	if int64(len(body)) != header.PayloadSize {
		return nil, fmt.Errorf("snapshot payload is %d bytes, header says %d: %w", len(body), header.PayloadSize, apperrors.ErrCorruptIndex)
	}
	if sum := crc32.ChecksumIEEE(body); sum != header.Checksum {
		return nil, fmt.Errorf("snapshot checksum %08x, header says %08x: %w", sum, header.Checksum, apperrors.ErrCorruptIndex)
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("parsing snapshot payload: %w: %w", err, apperrors.ErrCorruptIndex)
	}
	ix, err := index.FromParts(p.Index)
	if err != nil {
		return nil, fmt.Errorf("restoring index: %w", err)
	}
	stats := ix.Stats()
	if uint32(stats.Terms) != header.TermCount || uint32(stats.Documents) != header.DocCount || uint32(stats.Postings) != header.PostingCount {
		return nil, fmt.Errorf("snapshot counts disagree with header: %w", apperrors.ErrCorruptIndex)
	}
	if p.Evaluation == nil {
		return nil, fmt.Errorf("snapshot has no evaluation: %w", apperrors.ErrCorruptIndex)
	}
	if p.Evaluation.IDF == nil {
		p.Evaluation.IDF = make(map[string]float64)
	}
	if p.Evaluation.Norms == nil {
		p.Evaluation.Norms = make(map[int]float64)
	}
	return &Snapshot{Header: header, Index: ix, Evaluation: p.Evaluation}, nil
}
