// Package history keeps a local JSONL log of answered questions.
// Question text is only stored when the caller opts in.
package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Entry is one answered question.
type Entry struct {
	Timestamp  time.Time `json:"ts"`
	Intent     string    `json:"intent"`
	Kind       string    `json:"kind"`
	DurationMs int64     `json:"ms"`
	OK         bool      `json:"ok"`
	Question   string    `json:"q,omitempty"`
}

// IntentCount is one row of the per-intent breakdown.
type IntentCount struct {
	Intent string `json:"intent"`
	Count  int    `json:"count"`
}

// Stats holds aggregated history statistics.
type Stats struct {
	Total       int           `json:"total"`
	Intents     []IntentCount `json:"intents"`
	AvgDuration float64       `json:"avg_duration_ms"`
	Errors      int           `json:"errors"`
	First       time.Time     `json:"first,omitempty"`
	Last        time.Time     `json:"last,omitempty"`
}

// Store manages the history file (~/.sheetchat/history.jsonl).
type Store struct {
	Path          string
	MaxSize       int64 // default 5MB
	KeepQuestions bool

	mu sync.Mutex
}

// NewStore returns a store writing to history.jsonl inside dir.
func NewStore(dir string) *Store {
	return &Store{
		Path:    filepath.Join(dir, "history.jsonl"),
		MaxSize: 5 * 1024 * 1024,
	}
}

// Record appends an entry. Best-effort: failures to write are ignored so a
// read-only home directory never breaks answering.
func (s *Store) Record(e Entry) {
	if !s.KeepQuestions {
		e.Question = ""
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_ = os.MkdirAll(filepath.Dir(s.Path), 0755)
	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = f.Write(data)
}

// Entries returns every readable entry, oldest first. Corrupt lines are skipped.
func (s *Store) Entries() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readEntries()
}

func (s *Store) readEntries() ([]Entry, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, sc.Err()
}

// Recent returns up to n of the newest entries, newest last.
func (s *Store) Recent(n int) ([]Entry, error) {
	entries, err := s.Entries()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// Summary returns aggregated stats from the store.
func (s *Store) Summary() (*Stats, error) {
	entries, err := s.Entries()
	if err != nil {
		return nil, err
	}

	stats := &Stats{Intents: []IntentCount{}}
	counts := make(map[string]int)
	var totalDuration int64

	for _, e := range entries {
		stats.Total++
		counts[e.Intent]++
		totalDuration += e.DurationMs
		if !e.OK {
			stats.Errors++
		}
		if stats.First.IsZero() || e.Timestamp.Before(stats.First) {
			stats.First = e.Timestamp
		}
		if e.Timestamp.After(stats.Last) {
			stats.Last = e.Timestamp
		}
	}

	for intent, n := range counts {
		stats.Intents = append(stats.Intents, IntentCount{Intent: intent, Count: n})
	}
	sort.Slice(stats.Intents, func(i, j int) bool {
		if stats.Intents[i].Count != stats.Intents[j].Count {
			return stats.Intents[i].Count > stats.Intents[j].Count
		}
		return stats.Intents[i].Intent < stats.Intents[j].Intent
	})

	if stats.Total > 0 {
		stats.AvgDuration = float64(totalDuration) / float64(stats.Total)
	}
	return stats, nil
}

// Size returns the size of the store in bytes.
func (s *Store) Size() int64 {
	info, err := os.Stat(s.Path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Rotate drops the oldest half of the entries once the file exceeds MaxSize.
func (s *Store) Rotate() error {
	if s.MaxSize <= 0 || s.Size() <= s.MaxSize {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.readEntries()
	if err != nil {
		return err
	}
	keep := entries[len(entries)/2:]

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range keep {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path)
}

// Clear removes all history.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.Path); os.IsNotExist(err) {
		return nil
	}
	return os.Truncate(s.Path, 0)
}
