package patient

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// fileRepo stores one record per line in a flat text file. Appends go to the
// end of the file; updates and deletes rewrite it through a temp file and a
// rename. A mutex makes this process the single writer.
type fileRepo struct {
	path string
	mu   sync.Mutex
}

// NewFileRepo returns a file-backed Repository, creating an empty data file
// (and its directory) if none exists.
func NewFileRepo(path string) (Repository, error) {
	if err := ensureDataFile(path); err != nil {
		return nil, err
	}
	return &fileRepo{path: path}, nil
}

func ensureDataFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data directory %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create data file %s: %w", path, err)
	}
	return f.Close()
}

func (r *fileRepo) Create(_ context.Context, p *Patient) error {
	line, err := p.MarshalLine()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	// Never glue a new record onto a last line that lacks its newline.
	needsNewline, err := missingTrailingNewline(f)
	if err != nil {
		return err
	}
	if needsNewline {
		line = "\n" + line
	}

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("append patient %s: %w", p.CI, err)
	}
	return nil
}

func (r *fileRepo) List(_ context.Context) ([]*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	patients, err := r.readAll()
	if err != nil {
		return nil, err
	}
	if len(patients) == 0 {
		return nil, ErrEmptyList
	}
	return patients, nil
}

func (r *fileRepo) GetByCI(_ context.Context, ci string) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	patients, err := r.readAll()
	if err != nil {
		return nil, err
	}
	i := findByCI(patients, ci)
	if i < 0 {
		return nil, notFound(ci)
	}
	return patients[i], nil
}

func (r *fileRepo) Update(_ context.Context, ci, name, lastName string) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	patients, err := r.readAll()
	if err != nil {
		return nil, err
	}
	i := findByCI(patients, ci)
	if i < 0 {
		return nil, notFound(ci)
	}

	patients[i].Name = name
	patients[i].LastName = lastName
	if err := r.rewrite(patients); err != nil {
		return nil, err
	}
	return patients[i], nil
}

func (r *fileRepo) Delete(_ context.Context, ci string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	patients, err := r.readAll()
	if err != nil {
		return err
	}
	if findByCI(patients, ci) < 0 {
		return notFound(ci)
	}
	return r.rewrite(withoutCI(patients, ci))
}

// readAll parses the whole data file. Blank lines are skipped.
func (r *fileRepo) readAll() ([]*Patient, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(bufio.NewReader(f))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var patients []*Patient
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
		}
		p, err := fromFields(fields)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		patients = append(patients, p)
	}
	return patients, nil
}

// rewrite replaces the data file with patients, writing to a sibling temp
// file first so readers never see a partial file.
func (r *fileRepo) rewrite(patients []*Patient) error {
	dir, base := filepath.Split(r.path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp data file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	w := bufio.NewWriter(tmp)
	for _, p := range patients {
		line, err := p.MarshalLine()
		if err != nil {
			tmp.Close()
			return err
		}
		if _, err := w.WriteString(line + "\n"); err != nil {
			tmp.Close()
			return fmt.Errorf("write temp data file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush temp data file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp data file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp data file: %w", err)
	}
	// Keep whatever permissions the operator gave the data file.
	mode := os.FileMode(0o644)
	if info, err := os.Stat(r.path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod temp data file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

func missingTrailingNewline(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("stat data file: %w", err)
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, fmt.Errorf("read data file: %w", err)
	}
	return last[0] != '\n', nil
}
