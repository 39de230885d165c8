// Package storage exports raw participant statistics to rotating JSONL files so a
// run's inputs can be replayed or used as training data.
package storage

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	// Rotation triggers
	MaxRecordsPerFile = 5000
	MaxFileAge        = 1 * time.Hour
)

// FileRotator writes StatsRecords to rotating JSONL files. Files are written in
// hot/, moved to warm/ when closed and gzipped into cold/ on request.
type FileRotator struct {
	mu     sync.Mutex
	logger *zap.SugaredLogger

	hotDir  string
	warmDir string
	coldDir string

	currentFile   *os.File
	currentWriter *bufio.Writer
	currentPath   string
	recordCount   int
	fileOpenedAt  time.Time
	sequence      int
}

// NewFileRotator creates a rotator under baseDir. The first file is opened lazily.
func NewFileRotator(baseDir string, logger *zap.Logger) (*FileRotator, error) {
	r := &FileRotator{
		hotDir:  filepath.Join(baseDir, "hot"),
		warmDir: filepath.Join(baseDir, "warm"),
		coldDir: filepath.Join(baseDir, "cold"),
		logger:  zap.NewNop().Sugar(),
	}
	if logger != nil {
		r.logger = logger.Sugar()
	}

	for _, dir := range []string{r.hotDir, r.warmDir, r.coldDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return r, nil
}

// WarmDir returns the directory closed files are moved to
func (r *FileRotator) WarmDir() string {
	return r.warmDir
}

// ColdDir returns the directory compressed files are moved to
func (r *FileRotator) ColdDir() string {
	return r.coldDir
}

// Write appends records to the current file and flushes, rotating when the file is
// full or too old.
func (r *FileRotator) Write(records []StatsRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range records {
		if r.shouldRotate() {
			if err := r.rotate(); err != nil {
				return err
			}
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		if _, err := r.currentWriter.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
		r.recordCount++
	}

	if r.currentWriter == nil {
		return nil
	}
	if err := r.currentWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

func (r *FileRotator) shouldRotate() bool {
	if r.currentFile == nil {
		return true
	}
	if r.recordCount >= MaxRecordsPerFile {
		return true
	}
	return time.Since(r.fileOpenedAt) >= MaxFileAge
}

// rotate closes the current file into warm/ and opens a new one in hot/
func (r *FileRotator) rotate() error {
	if err := r.closeCurrent(); err != nil {
		return err
	}

	r.sequence++
	filename := fmt.Sprintf("stats_%s_%03d.jsonl", time.Now().Format("2006-01-02_15-04-05"), r.sequence)
	r.currentPath = filepath.Join(r.hotDir, filename)

	file, err := os.Create(r.currentPath)
	if err != nil {
		return fmt.Errorf("failed to create new file: %w", err)
	}

	r.currentFile = file
	r.currentWriter = bufio.NewWriterSize(file, 64*1024)
	r.recordCount = 0
	r.fileOpenedAt = time.Now()

	r.logger.Debugw("opened export file", "file", filename)
	return nil
}

// closeCurrent moves a non-empty current file to warm/ and removes an empty one
func (r *FileRotator) closeCurrent() error {
	if r.currentFile == nil {
		return nil
	}

	if err := r.currentWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush before rotation: %w", err)
	}
	if err := r.currentFile.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	r.currentFile = nil
	r.currentWriter = nil

	if r.recordCount == 0 {
		return os.Remove(r.currentPath)
	}

	warmPath := filepath.Join(r.warmDir, filepath.Base(r.currentPath))
	if err := os.Rename(r.currentPath, warmPath); err != nil {
		return fmt.Errorf("failed to move to warm storage: %w", err)
	}
	r.logger.Infow("export file closed", "file", filepath.Base(warmPath), "records", r.recordCount)
	return nil
}

// Close flushes the current file and moves it to warm/
func (r *FileRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeCurrent()
}

// Stats returns current rotator statistics
func (r *FileRotator) Stats() (recordsInCurrentFile int, currentFileName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.currentFile == nil {
		return 0, ""
	}
	return r.recordCount, filepath.Base(r.currentPath)
}

// CompressWarm gzips every warm file into cold/ and returns the compressed paths
func (r *FileRotator) CompressWarm() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(r.warmDir, "*.jsonl"))
	if err != nil {
		return nil, err
	}

	var out []string
	for _, warmPath := range matches {
		coldPath, err := CompressToCold(warmPath, r.coldDir)
		if err != nil {
			return out, fmt.Errorf("compress %s: %w", filepath.Base(warmPath), err)
		}
		r.logger.Debugw("compressed export file", "file", filepath.Base(coldPath))
		out = append(out, coldPath)
	}
	return out, nil
}

// CompressToCold gzips a warm file into coldDir and removes the original
func CompressToCold(warmPath, coldDir string) (string, error) {
	src, err := os.Open(warmPath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	coldPath := filepath.Join(coldDir, filepath.Base(warmPath)+".gz")
	dst, err := os.Create(coldPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	gzWriter := gzip.NewWriter(dst)
	if _, err := io.Copy(gzWriter, src); err != nil {
		return "", err
	}
	if err := gzWriter.Close(); err != nil {
		return "", err
	}

	if err := os.Remove(warmPath); err != nil {
		return "", err
	}
	return coldPath, nil
}

// ReadFile reads every record of a JSONL export, gzipped or not
func ReadFile(path string) ([]StatsRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var src io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip %s: %w", path, err)
		}
		defer gz.Close()
		src = gz
	}

	var records []StatsRecord
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(strings.TrimSpace(scanner.Text())) == 0 {
			continue
		}
		var rec StatsRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
