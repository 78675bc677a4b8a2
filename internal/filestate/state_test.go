package filestate

import (
	"crypto/sha256"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
)

func chunkB64(data []byte, start, size int) string {
	end := start + size
	if end > len(data) {
		end = len(data)
	}
	return base64.StdEncoding.EncodeToString(data[start:end])
}

func TestReassembleAnyPermutationNoDuplicates(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	data := make([]byte, 700)
	for i := range data {
		data[i] = byte(i % 251)
	}
	const chunkSize = 256
	const total = 3 // ceil(700/256)

	s.AddPendingTransfer("fid1", "image.png", "image/png", int64(len(data)), total)
	if err := s.AcceptFile("fid1"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	order := []int{2, 0, 1}
	var complete bool
	var err error
	for _, idx := range order {
		b64 := chunkB64(data, idx*chunkSize, chunkSize)
		complete, err = s.AddChunk("fid1", idx, total, b64)
		if err != nil {
			t.Fatalf("add chunk %d: %v", idx, err)
		}
	}
	if !complete {
		t.Fatal("expected transfer to be complete after all chunks")
	}

	if err := s.CompleteTransfers(); err != nil {
		t.Fatalf("complete transfers: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "image.png"))
	if err != nil {
		t.Fatalf("read persisted file: %v", err)
	}

	wantSum := sha256.Sum256(data)
	gotSum := sha256.Sum256(got)
	if wantSum != gotSum {
		t.Fatal("persisted bytes do not match source")
	}
}

func TestDuplicateChunkDoesNotDoubleCount(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	data := []byte("hello world, this is chunked data")
	s.AddPendingTransfer("fid2", "x.bin", "application/octet-stream", int64(len(data)), 2)

	b64 := base64.StdEncoding.EncodeToString(data[:10])
	if _, err := s.AddChunk("fid2", 0, 2, b64); err != nil {
		t.Fatalf("add chunk: %v", err)
	}
	if s.ReceivedCount("fid2") != 1 {
		t.Fatalf("expected 1 received chunk")
	}

	if _, err := s.AddChunk("fid2", 0, 2, b64); err != nil {
		t.Fatalf("add duplicate chunk: %v", err)
	}
	if s.ReceivedCount("fid2") != 1 {
		t.Fatalf("expected duplicate chunk not to increment count")
	}
}

func TestAcceptAfterCompletionPersistsImmediately(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	data := []byte("abcdef")
	s.AddPendingTransfer("fid3", "small.txt", "text/plain", int64(len(data)), 1)

	b64 := base64.StdEncoding.EncodeToString(data)
	complete, err := s.AddChunk("fid3", 0, 1, b64)
	if err != nil {
		t.Fatalf("add chunk: %v", err)
	}
	if !complete {
		t.Fatal("expected complete")
	}

	if err := s.AcceptFile("fid3"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "small.txt"))
	if err != nil {
		t.Fatalf("read persisted file: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("got %q, want %q", got, data)
	}
}

func TestRemoveTransfersPurgesExpiredOffer(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	s.AddPendingTransfer("fid4", "x.bin", "application/octet-stream", 10, 1)
	s.RemoveTransfers([]string{"fid4"})

	if s.ReceivedCount("fid4") != -1 {
		t.Fatal("expected transfer to be purged")
	}
}

func TestChunkSizeMismatchReinitializes(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	// OFFER declared 5 chunks, but the first CHUNK disagrees.
	s.AddPendingTransfer("fid5", "x.bin", "application/octet-stream", 4, 5)

	b64 := base64.StdEncoding.EncodeToString([]byte("data"))
	complete, err := s.AddChunk("fid5", 0, 1, b64)
	if err != nil {
		t.Fatalf("add chunk: %v", err)
	}
	if !complete {
		t.Fatal("expected transfer to be complete after reinit to 1 total chunk")
	}
}
