package library

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/DesigningLevers0/tab-to-notes/core/errors"
)

func openTestLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := Open(context.Background(), filepath.Join(t.TempDir(), "songs.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { lib.Close() })
	return lib
}

func TestOpenCreatesParentDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "deeper")
	path := filepath.Join(dir, "songs.db")

	lib, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer lib.Close()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("parent directory not created: %v", err)
	}
}

func TestAddGetRoundTrip(t *testing.T) {
	lib := openTestLibrary(t)
	ctx := context.Background()
	source := []byte("e|--0--|\n")
	result := []byte("|E4|\n")

	song, err := lib.Add(ctx, "Open E", 2, true, source, result)
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if _, err := uuid.Parse(song.ID); err != nil {
		t.Errorf("song ID %q is not a UUID", song.ID)
	}
	if song.SourceHash == song.ResultHash {
		t.Error("distinct contents share a hash")
	}

	entry, err := lib.Get(ctx, song.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if entry.Song.Title != "Open E" || entry.Song.Transpose != 2 || !entry.Song.Flats {
		t.Errorf("Get metadata = %+v", entry.Song)
	}
	if !entry.Song.CreatedAt.Equal(song.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", entry.Song.CreatedAt, song.CreatedAt)
	}
	if !bytes.Equal(entry.Source, source) {
		t.Errorf("Source = %q, want %q", entry.Source, source)
	}
	if !bytes.Equal(entry.Result, result) {
		t.Errorf("Result = %q, want %q", entry.Result, result)
	}
}

func TestListInsertionOrder(t *testing.T) {
	lib := openTestLibrary(t)
	ctx := context.Background()

	first, err := lib.Add(ctx, "First", 0, false, []byte("a"), []byte("b"))
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	second, err := lib.Add(ctx, "Second", 0, false, []byte("c"), []byte("d"))
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}

	songs, err := lib.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(songs) != 2 {
		t.Fatalf("List returned %d songs, want 2", len(songs))
	}
	if songs[0].ID != first.ID || songs[1].ID != second.ID {
		t.Errorf("List order = [%s, %s], want [%s, %s]",
			songs[0].Title, songs[1].Title, first.Title, second.Title)
	}
}

func TestGetUnknownSong(t *testing.T) {
	lib := openTestLibrary(t)

	_, err := lib.Get(context.Background(), "no-such-id")
	if err == nil {
		t.Fatal("Get unknown id: want error, got nil")
	}
	var nf *errors.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("Get unknown id error = %v, want NotFoundError", err)
	}
}

func TestRemove(t *testing.T) {
	lib := openTestLibrary(t)
	ctx := context.Background()

	song, err := lib.Add(ctx, "Gone soon", 0, false, []byte("x"), []byte("y"))
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if err := lib.Remove(ctx, song.ID); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if _, err := lib.Get(ctx, song.ID); err == nil {
		t.Error("Get after Remove: want error, got nil")
	}

	err = lib.Remove(ctx, song.ID)
	var nf *errors.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("second Remove error = %v, want NotFoundError", err)
	}
}

func TestBlobDeduplication(t *testing.T) {
	lib := openTestLibrary(t)
	ctx := context.Background()
	source := []byte("e|--5--|\n")

	a, err := lib.Add(ctx, "Take one", 0, false, source, []byte("|A4|\n"))
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	b, err := lib.Add(ctx, "Take two", 0, false, source, []byte("|A4|\n"))
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if a.SourceHash != b.SourceHash {
		t.Errorf("same content hashed differently: %s vs %s", a.SourceHash, b.SourceHash)
	}

	var count int
	err = lib.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blobs WHERE hash = ?`, a.SourceHash).Scan(&count)
	if err != nil {
		t.Fatalf("count blobs: %v", err)
	}
	if count != 1 {
		t.Errorf("blob stored %d times, want 1", count)
	}
}

func TestGetDetectsCorruption(t *testing.T) {
	lib := openTestLibrary(t)
	ctx := context.Background()

	song, err := lib.Add(ctx, "Fragile", 0, false, []byte("original"), []byte("out"))
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}

	// Swap the stored bytes for validly compressed different content.
	forged, err := compress([]byte("tampered"))
	if err != nil {
		t.Fatalf("compress error: %v", err)
	}
	_, err = lib.db.ExecContext(ctx,
		`UPDATE blobs SET data = ? WHERE hash = ?`, forged, song.SourceHash)
	if err != nil {
		t.Fatalf("corrupt blob: %v", err)
	}

	_, err = lib.Get(ctx, song.ID)
	if err == nil {
		t.Fatal("Get corrupted blob: want error, got nil")
	}
	var ioErr *errors.IOError
	if !errors.As(err, &ioErr) {
		t.Errorf("Get corrupted blob error = %v, want IOError", err)
	}
}

func TestCompressRoundTrip(t *testing.T) {
	for _, data := range [][]byte{
		{},
		[]byte("x"),
		[]byte("e|--0--3--5--|\nB|--1--1--1--|\n"),
		bytes.Repeat([]byte("riff "), 4096),
	} {
		packed, err := compress(data)
		if err != nil {
			t.Fatalf("compress error: %v", err)
		}
		got, err := decompress(packed)
		if err != nil {
			t.Fatalf("decompress error: %v", err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("round trip mismatch for %d bytes", len(data))
		}
	}
}

func TestDriverType(t *testing.T) {
	if dt := DriverType(); dt != "purego" && dt != "cgo" {
		t.Errorf("DriverType() = %q", dt)
	}
}
