// Package filestate implements the LSNP file-transfer state machine
// (spec.md §4.6): pending/accepted transfers, the chunk buffer,
// reassembly and persistence. Directly grounded on the teacher's
// internal/iomeshage Transfer type (Parts map[int64]bool, NumParts) and
// its os.MkdirAll-then-sequential-write persistence path, narrowed from
// iomeshage's mesh-wide multi-peer directory listing down to LSNP's
// single-sender, single-file OFFER/CHUNK/RECEIVED exchange.
package filestate

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrIncompleteTransfer is returned (wrapped) by AcceptFile and
// CompleteTransfers when persisting a transfer finds a chunk index
// missing from an otherwise "complete" transfer.
var ErrIncompleteTransfer = errors.New("incomplete transfer")

// Transfer describes one in-flight or completed file transfer, keyed by
// the originating FILE_OFFER's FILEID.
type Transfer struct {
	Filename      string
	Filesize      int64
	Filetype      string
	TotalChunks   int
	Chunks        [][]byte // nil slot == not yet received
	ReceivedCount int
}

func newTransfer(filename, filetype string, filesize int64, totalChunks int) *Transfer {
	return &Transfer{
		Filename:    filename,
		Filesize:    filesize,
		Filetype:    filetype,
		TotalChunks: totalChunks,
		Chunks:      make([][]byte, totalChunks),
	}
}

// Complete reports whether every chunk has been received.
func (t *Transfer) Complete() bool {
	return t.TotalChunks > 0 && t.ReceivedCount == t.TotalChunks
}

// State is the file-transfer singleton.
type State struct {
	mu sync.Mutex

	baseDir string

	pending  map[string]*Transfer // FILEID -> transfer
	accepted map[string]struct{}  // FILEID set
	recent   string               // most recently offered FILEID
}

// New returns a State that persists completed transfers under baseDir.
func New(baseDir string) *State {
	return &State{
		baseDir:  baseDir,
		pending:  map[string]*Transfer{},
		accepted: map[string]struct{}{},
	}
}

// AddPendingTransfer records a new offer and sets it as the "recent" one
// for one-touch accept/reject.
func (s *State) AddPendingTransfer(fileID, filename, filetype string, filesize int64, totalChunks int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[fileID] = newTransfer(filename, filetype, filesize, totalChunks)
	s.recent = fileID
}

// resolveID returns fileID, or the most recently offered id if fileID is
// empty.
func (s *State) resolveID(fileID string) string {
	if fileID != "" {
		return fileID
	}
	return s.recent
}

// AcceptFile marks a transfer accepted. If fileID is "", the most
// recently offered transfer is used. If the transfer is already fully
// received, it is persisted immediately.
func (s *State) AcceptFile(fileID string) error {
	s.mu.Lock()
	id := s.resolveID(fileID)
	t, ok := s.pending[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("filestate: no pending transfer %q", id)
	}
	s.accepted[id] = struct{}{}
	complete := t.Complete()
	s.mu.Unlock()

	if complete {
		return s.persistAndRemove(id)
	}
	return nil
}

// RejectFile removes a pending transfer. If fileID is "", the most
// recently offered transfer is used.
func (s *State) RejectFile(fileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.resolveID(fileID)
	delete(s.pending, id)
	delete(s.accepted, id)
}

// AddChunk stores chunk idx (base64-encoded in dataB64) for transfer
// fileID. If this is the first chunk seen and totalChunks disagrees with
// what OFFER declared, the chunk buffer is reinitialized around the
// value carried on the chunk (spec.md §4.6, §9 Open Question #2: the
// first received CHUNK's TOTAL_CHUNKS is authoritative). Returns whether
// the transfer is now complete.
func (s *State) AddChunk(fileID string, idx, totalChunks int, dataB64 string) (bool, error) {
	data, err := base64.StdEncoding.DecodeString(dataB64)
	if err != nil {
		return false, fmt.Errorf("filestate: decode chunk %d of %q: %w", idx, fileID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.pending[fileID]
	if !ok {
		return false, fmt.Errorf("filestate: no pending transfer %q", fileID)
	}

	if t.ReceivedCount == 0 && t.TotalChunks != totalChunks {
		t.TotalChunks = totalChunks
		t.Chunks = make([][]byte, totalChunks)
	}

	if idx < 0 || idx >= len(t.Chunks) {
		return false, fmt.Errorf("filestate: chunk index %d out of range for %q", idx, fileID)
	}

	if t.Chunks[idx] == nil {
		t.Chunks[idx] = data
		t.ReceivedCount++
	}

	return t.Complete(), nil
}

// CompleteTransfers persists and removes every accepted transfer that
// has received all of its chunks.
func (s *State) CompleteTransfers() error {
	s.mu.Lock()
	var ready []string
	for id := range s.accepted {
		if t, ok := s.pending[id]; ok && t.Complete() {
			ready = append(ready, id)
		}
	}
	s.mu.Unlock()

	var firstErr error
	for _, id := range ready {
		if err := s.persistAndRemove(id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RemoveTransfers purges the named transfers, used by the cleanup loop
// to drop transfers whose originating FILE_OFFER token has expired.
func (s *State) RemoveTransfers(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.pending, id)
		delete(s.accepted, id)
	}
}

func (s *State) persistAndRemove(id string) error {
	s.mu.Lock()
	t, ok := s.pending[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("filestate: no pending transfer %q", id)
	}

	buf := make([]byte, 0, t.Filesize)
	for i, chunk := range t.Chunks {
		if chunk == nil {
			s.mu.Unlock()
			return fmt.Errorf("filestate: persist %q: %w (missing chunk %d)", id, ErrIncompleteTransfer, i)
		}
		buf = append(buf, chunk...)
	}
	filename := t.Filename
	s.mu.Unlock()

	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return fmt.Errorf("filestate: mkdir %q: %w", s.baseDir, err)
	}

	path := filepath.Join(s.baseDir, filepath.Base(filename))
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("filestate: write %q: %w", path, err)
	}

	s.mu.Lock()
	delete(s.pending, id)
	delete(s.accepted, id)
	s.mu.Unlock()

	return nil
}

// Pending returns the FILEIDs of every pending transfer, for the REPL's
// "pending" command.
func (s *State) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.pending))
	for id := range s.pending {
		out = append(out, id)
	}
	return out
}

// ReceivedCount returns the number of chunks received so far for
// fileID, or -1 if no such pending transfer exists.
func (s *State) ReceivedCount(fileID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.pending[fileID]
	if !ok {
		return -1
	}
	return t.ReceivedCount
}
