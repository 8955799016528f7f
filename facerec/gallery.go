package facerec

import (
	"errors"
	"fmt"
	"log"
	"sync"
)

// ErrSourceUnavailable reports that the student repository could not be
// reached during a gallery refresh. The previous gallery is kept as-is.
var ErrSourceUnavailable = errors.New("facerec: student source unavailable")

// EnrolledStudent is the raw enrollment row the student repository hands
// to the gallery: an identity plus its stored face encoding. ImagePath is
// the stable reference the decoded-encoding cache is keyed by.
type EnrolledStudent struct {
	StudentId   string
	RawEncoding []byte
	ImagePath   string
}

// StudentRepository lists every enrolled student that has a face encoding
// on file.
type StudentRepository interface {
	ListEnrolled() ([]EnrolledStudent, error)
}

// Gallery holds the in-memory search space of enrolled embeddings.
//
// Refresh rebuilds the gallery wholesale and swaps it in atomically, so a
// match pass running off Entries never observes a half-built gallery.
// Decoded encodings are cached per enrollment image path so repeated
// refreshes do not re-decode blobs that have not moved.
type Gallery struct {
	mu      sync.RWMutex
	entries []GalleryEntry
	decoded map[string]Embedding
}

func NewGallery() *Gallery {
	return &Gallery{decoded: make(map[string]Embedding)}
}

// Refresh replaces the gallery with the current enrollment set.
//
// Entries with an empty or undecodable encoding are logged and skipped;
// a corrupt row must not take down the whole gallery. If the repository
// itself fails, the previous gallery is retained so matching degrades to
// stale data instead of going empty.
func (g *Gallery) Refresh(repo StudentRepository) error {
	students, err := repo.ListEnrolled()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	fresh := make([]GalleryEntry, 0, len(students))
	for _, s := range students {
		if len(s.RawEncoding) == 0 {
			continue
		}

		emb, ok := g.cachedEmbedding(s.ImagePath)
		if !ok {
			emb, err = DecodeEncoding(s.RawEncoding)
			if err != nil {
				log.Printf("facerec: skipping student %s: %v", s.StudentId, err)
				continue
			}
			g.cacheEmbedding(s.ImagePath, emb)
		}

		fresh = append(fresh, GalleryEntry{StudentId: s.StudentId, Embedding: emb})
	}

	g.mu.Lock()
	g.entries = fresh
	g.mu.Unlock()

	log.Printf("facerec: loaded %d known faces", len(fresh))
	return nil
}

// Entries returns the current gallery snapshot. The returned slice is
// replaced, never mutated, on Refresh; callers must treat it as read-only.
func (g *Gallery) Entries() []GalleryEntry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.entries
}

// Size reports how many enrolled faces the gallery currently holds.
func (g *Gallery) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

func (g *Gallery) cachedEmbedding(path string) (Embedding, bool) {
	if path == "" {
		return nil, false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	emb, ok := g.decoded[path]
	return emb, ok
}

func (g *Gallery) cacheEmbedding(path string, emb Embedding) {
	if path == "" {
		return
	}
	g.mu.Lock()
	g.decoded[path] = emb
	g.mu.Unlock()
}
