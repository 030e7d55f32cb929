package database

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/coder/hnsw"
)

const sampleIndexVersion = 1

// ErrIndexNotTrained is returned when searching an index that has no samples.
var ErrIndexNotTrained = errors.New("sample index not trained")

// sampleLabel is the per-node payload persisted next to the graph.
type sampleLabel struct {
	ID         int64
	EmployeeID string
}

// SampleIndex wraps an HNSW graph over enrolled face samples.
type SampleIndex struct {
	graph    *hnsw.Graph[int64]
	labels   map[int64]string // sample ID -> employee ID
	metadata SampleIndexMetadata
	mu       sync.RWMutex
}

// Neighbor is a sample returned by a search.
type Neighbor struct {
	SampleID   int64
	EmployeeID string
	Distance   float64
}

// NewSampleIndex creates a new empty index.
func NewSampleIndex() *SampleIndex {
	return &SampleIndex{labels: make(map[int64]string)}
}

func newGraph() *hnsw.Graph[int64] {
	g := hnsw.NewGraph[int64]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.EfSearch = HNSWEfSearch
	g.Distance = hnsw.CosineDistance
	return g
}

// Build replaces the index contents with the given samples.
func (s *SampleIndex) Build(samples []FaceSample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.labels = make(map[int64]string, len(samples))
	if len(samples) == 0 {
		s.graph = nil
		s.metadata = SampleIndexMetadata{}
		return
	}

	g := newGraph()
	employees := make(map[string]struct{})
	var maxID int64
	for i := range samples {
		sample := &samples[i]
		if len(sample.Embedding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(sample.ID, sample.Embedding))
		s.labels[sample.ID] = sample.EmployeeID
		employees[sample.EmployeeID] = struct{}{}
		if sample.ID > maxID {
			maxID = sample.ID
		}
	}

	s.graph = g
	s.metadata = SampleIndexMetadata{
		SampleCount:   int64(len(s.labels)),
		MaxSampleID:   maxID,
		EmployeeCount: len(employees),
		Version:       sampleIndexVersion,
	}
}

// Search returns up to k nearest samples within maxDistance, closest first.
func (s *SampleIndex) Search(query []float32, k int, maxDistance float64) ([]Neighbor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.graph == nil || len(s.labels) == 0 {
		return nil, ErrIndexNotTrained
	}

	nodes := s.graph.Search(query, k*HNSWSearchMultiplier)
	result := make([]Neighbor, 0, k)
	for _, n := range nodes {
		employeeID, ok := s.labels[n.Key]
		if !ok {
			continue
		}
		// Recompute in float64 so thresholds compare consistently with stored distances.
		d := CosineDistance(query, n.Value)
		if d > maxDistance {
			continue
		}
		result = append(result, Neighbor{SampleID: n.Key, EmployeeID: employeeID, Distance: d})
	}

	sortNeighbors(result)
	if len(result) > k {
		result = result[:k]
	}
	return result, nil
}

func sortNeighbors(ns []Neighbor) {
	for i := 1; i < len(ns); i++ {
		for j := i; j > 0 && ns[j].Distance < ns[j-1].Distance; j-- {
			ns[j], ns[j-1] = ns[j-1], ns[j]
		}
	}
}

// Count returns the number of indexed samples.
func (s *SampleIndex) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.labels)
}

// Metadata returns the metadata of the current contents.
func (s *SampleIndex) Metadata() SampleIndexMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metadata
}

// Stale reports whether the index no longer matches the stored sample set.
func (s *SampleIndex) Stale(sampleCount, maxSampleID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metadata.SampleCount != sampleCount || s.metadata.MaxSampleID != maxSampleID
}

// Save writes the graph to path, metadata to path.meta and labels to path.samples.
func (s *SampleIndex) Save(path string, metadata SampleIndexMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.graph == nil {
		// Remove existing files if index is empty (best-effort cleanup).
		_ = os.Remove(path)
		_ = os.Remove(path + ".meta")
		_ = os.Remove(path + ".samples")
		return nil
	}

	f, err := os.Create(path) //nolint:gosec // path is from trusted config
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := s.graph.Export(w); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to export HNSW graph: %w", err)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing index file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing index file: %w", err)
	}

	metadata.Version = sampleIndexVersion
	metaData, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(path+".meta", metaData, 0600); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	labels := make([]sampleLabel, 0, len(s.labels))
	for id, employeeID := range s.labels {
		labels = append(labels, sampleLabel{ID: id, EmployeeID: employeeID})
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(labels); err != nil {
		return fmt.Errorf("failed to encode sample labels: %w", err)
	}
	if err := os.WriteFile(path+".samples", buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write sample labels: %w", err)
	}

	s.metadata = metadata
	return nil
}

// LoadSampleIndexMetadata reads path.meta.
func LoadSampleIndexMetadata(path string) (SampleIndexMetadata, error) {
	var metadata SampleIndexMetadata
	data, err := os.ReadFile(path + ".meta") //nolint:gosec // path is from trusted config
	if err != nil {
		return metadata, fmt.Errorf("failed to read metadata file: %w", err)
	}
	if err := json.Unmarshal(data, &metadata); err != nil {
		return metadata, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	if metadata.Version != sampleIndexVersion {
		return metadata, fmt.Errorf("unsupported index version %d", metadata.Version)
	}
	return metadata, nil
}

// LoadSampleIndex loads a saved index with its labels and metadata.
func LoadSampleIndex(path string) (*SampleIndex, error) {
	metadata, err := LoadSampleIndexMetadata(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path) //nolint:gosec // path is from trusted config
	if err != nil {
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()

	// Import reads with io.ByteReader.
	g := newGraph()
	if err := g.Import(bufio.NewReader(f)); err != nil {
		return nil, fmt.Errorf("failed to import HNSW graph: %w", err)
	}

	data, err := os.ReadFile(path + ".samples") //nolint:gosec // path is from trusted config
	if err != nil {
		return nil, fmt.Errorf("failed to read sample labels: %w", err)
	}
	var labels []sampleLabel
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&labels); err != nil {
		return nil, fmt.Errorf("failed to decode sample labels: %w", err)
	}

	idx := &SampleIndex{
		graph:    g,
		labels:   make(map[int64]string, len(labels)),
		metadata: metadata,
	}
	for _, l := range labels {
		idx.labels[l.ID] = l.EmployeeID
	}
	return idx, nil
}
