package corpus

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/logger"
)

// FileSource reads a collection from the local filesystem. A regular file is
// parsed as JSON Lines, one {"name", "body"} object per line. A directory
// contributes every *.txt file, named after the file without its extension,
// in lexical order.
type FileSource struct {
	path   string
	logger *slog.Logger
}

func NewFileSource(path string) *FileSource {
	return &FileSource{
		path:   path,
		logger: logger.Component("corpus-file"),
	}
}

func (s *FileSource) Load(ctx context.Context) ([]Document, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	var docs []Document
	if info.IsDir() {
		docs, err = s.loadDir(ctx)
	} else {
		docs, err = s.loadJSONL(ctx)
	}
	if err != nil {
		return nil, err
	}
	if err := validate(docs, s.path); err != nil {
		return nil, err
	}
	s.logger.Info("corpus loaded", "path", s.path, "documents", len(docs))
	return docs, nil
}

func (s *FileSource) loadJSONL(ctx context.Context) ([]Document, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	defer f.Close()

	var docs []Document
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var doc Document
		if err := json.Unmarshal([]byte(text), &doc); err != nil {
			return nil, fmt.Errorf("%s:%d: %v: %w", s.path, line, err, apperrors.ErrInvalidInput)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	return docs, nil
}

func (s *FileSource) loadDir(ctx context.Context) ([]Document, error) {
	entries, err := os.ReadDir(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".txt") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	docs := make([]Document, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, err := os.ReadFile(filepath.Join(s.path, name))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		docs = append(docs, Document{
			Name: strings.TrimSuffix(name, ".txt"),
			Body: string(body),
		})
		s.logger.Debug("document read", "file", name, "bytes", len(body))
	}
	return docs, nil
}

func (s *FileSource) Close() error {
	return nil
}
