package facestore

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/coder/hnsw"

	"github.com/kozaktomas/face-attendance/internal/matcher"
)

// maxNeighbors is the HNSW M parameter.
const maxNeighbors = 16

// searchWidth is how many neighbors a lookup requests before filtering
// out removed entries.
const searchWidth = 8

// Index is an approximate nearest-neighbor index over the enrolled
// encodings. The graph cannot truly delete nodes, so removed ids are
// filtered out of search results; callers verify the returned candidate
// against the authoritative store vector anyway.
type Index struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[string]
	saved *hnsw.SavedGraph[string]
	live  map[string]struct{}
	path  string
}

func newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = maxNeighbors
	g.Ml = 1.0 / float64(maxNeighbors)
	g.Distance = hnsw.EuclideanDistance
	return g
}

// indexMetadata validates a cached index file against the store contents.
type indexMetadata struct {
	Count    int    `json:"count"`
	Checksum string `json:"checksum"`
	Version  int    `json:"version"`
}

const indexMetadataVersion = 1

func metaPath(indexPath string) string {
	return indexPath + ".meta"
}

// encodingsChecksum fingerprints the id-to-vector mapping. Ids are
// hashed in sorted order so the result is deterministic.
func encodingsChecksum(encodings map[string][]float32) string {
	ids := make([]string, 0, len(encodings))
	for id := range encodings {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	h := sha256.New()
	var buf [4]byte
	for _, id := range ids {
		io.WriteString(h, id)
		h.Write([]byte{0})
		for _, v := range encodings[id] {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
			h.Write(buf[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// indexFileFresh reports whether the cached index still matches the
// encoding store. A missing or unreadable sidecar counts as stale; the
// graph file alone cannot be trusted after enrollments it never saw.
func indexFileFresh(indexPath string, encodings map[string][]float32) bool {
	data, err := os.ReadFile(metaPath(indexPath))
	if err != nil {
		return false
	}
	var meta indexMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return false
	}
	return meta.Version == indexMetadataVersion &&
		meta.Count == len(encodings) &&
		meta.Checksum == encodingsChecksum(encodings)
}

// EnableIndex builds (or loads from indexPath, when non-empty) the HNSW
// index over the current encodings. A cached file is only trusted when
// its sidecar fingerprint matches the store; otherwise the index is
// rebuilt from the map, so every stored encoding is searchable. Search
// stays linear until this is called.
func (s *Store) EnableIndex(indexPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ix := &Index{path: indexPath, live: make(map[string]struct{}, len(s.encodings))}
	for id := range s.encodings {
		ix.live[id] = struct{}{}
	}

	if indexPath != "" {
		if _, err := os.Stat(indexPath); err == nil {
			if indexFileFresh(indexPath, s.encodings) {
				saved, err := hnsw.LoadSavedGraph[string](indexPath)
				if err != nil {
					return fmt.Errorf("loading face index: %w", err)
				}
				ix.saved = saved
				s.index = ix
				return nil
			}
			log.Printf("Warning: face index %s does not match the encoding store, rebuilding", indexPath)
		}
	}

	g := newGraph()
	for id, vec := range s.encodings {
		g.Add(hnsw.MakeNode(id, vec))
	}
	ix.graph = g
	s.index = ix
	return nil
}

// Index returns the HNSW index, or nil when linear scan is in use.
func (s *Store) Index() *Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// SaveIndex persists the index graph together with the sidecar
// fingerprint of the encodings it covers. No-op without an index or a
// configured path.
func (s *Store) SaveIndex() error {
	s.mu.Lock()
	ix := s.index
	var meta *indexMetadata
	if ix != nil && ix.path != "" {
		meta = &indexMetadata{
			Count:    len(s.encodings),
			Checksum: encodingsChecksum(s.encodings),
			Version:  indexMetadataVersion,
		}
	}
	s.mu.Unlock()

	if ix == nil {
		return nil
	}
	return ix.save(meta)
}

// Put adds or replaces an entry in the index. A replaced id may keep its
// previous node reachable in the graph, so a search can report the old
// vector's distance; callers treat results as candidate proposals and
// verify against the authoritative store vector.
func (ix *Index) Put(id string, vec []float32) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.live[id] = struct{}{}
	if ix.saved != nil {
		ix.saved.Add(hnsw.MakeNode(id, vec))
		return
	}
	if ix.graph == nil {
		ix.graph = newGraph()
	}
	ix.graph.Add(hnsw.MakeNode(id, vec))
}

// Remove marks an entry as deleted. The node stays in the graph but is
// filtered out of search results.
func (ix *Index) Remove(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.live, id)
}

// Search returns the nearest live entry to the query, or ok=false when
// the index is empty. The distance is measured against the indexed
// vector, which can lag the store after a re-enrollment.
func (ix *Index) Search(query []float32) (string, float64, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.live) == 0 {
		return "", 0, false
	}

	var neighbors []hnsw.Node[string]
	switch {
	case ix.saved != nil:
		neighbors = ix.saved.Search(query, searchWidth)
	case ix.graph != nil:
		neighbors = ix.graph.Search(query, searchWidth)
	default:
		return "", 0, false
	}

	for _, n := range neighbors {
		if _, ok := ix.live[n.Key]; !ok {
			continue
		}
		return n.Key, matcher.EuclideanDistance(query, n.Value), true
	}
	return "", 0, false
}

// Count returns the number of live indexed entries.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.live)
}

// save writes the graph and, when meta is non-nil, the sidecar next to it.
func (ix *Index) save(meta *indexMetadata) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.path == "" {
		return nil
	}

	if ix.saved != nil {
		if err := ix.saved.Save(); err != nil {
			return fmt.Errorf("saving face index: %w", err)
		}
	} else {
		if ix.graph == nil {
			return nil
		}
		f, err := os.Create(ix.path)
		if err != nil {
			return fmt.Errorf("creating face index file: %w", err)
		}
		defer f.Close()

		if err := ix.graph.Export(f); err != nil {
			return fmt.Errorf("exporting face index: %w", err)
		}
	}

	if meta == nil {
		return nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding face index metadata: %w", err)
	}
	if err := os.WriteFile(metaPath(ix.path), data, 0o644); err != nil {
		return fmt.Errorf("writing face index metadata: %w", err)
	}
	return nil
}
