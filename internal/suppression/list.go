package suppression

import (
	"sync"
	"time"

	"github.com/ignite/emailtype/internal/emailaddr"
)

// List is a loaded suppression list with two-layer lookup.
type List struct {
	ID     string
	Name   string
	filter *BloomFilter
	addrs  []emailaddr.Address // sorted domain-major, unique

	loadedAt time.Time
	source   string
	skipped  int
	mu       sync.RWMutex
}

// ListStats describes a loaded list.
type ListStats struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	RecordCount        uint64    `json:"record_count"`
	Domains            int       `json:"domains"`
	SkippedLines       int       `json:"skipped_lines"`
	BloomMemoryBytes   uint64    `json:"bloom_memory_bytes"`
	AddressMemoryBytes uint64    `json:"address_memory_bytes"`
	TotalMemoryBytes   uint64    `json:"total_memory_bytes"`
	EstimatedFPRate    float64   `json:"estimated_false_positive_rate"`
	LoadedAt           time.Time `json:"loaded_at"`
	Source             string    `json:"source"`
}

// NewList builds a list from addrs. The slice is sorted and deduplicated
// in place and retained.
func NewList(id, name, source string, addrs []emailaddr.Address) (*List, error) {
	unique := make([]emailaddr.Address, 0, len(addrs))
	for _, a := range addrs {
		if !a.IsZero() {
			unique = append(unique, a)
		}
	}
	if len(unique) == 0 {
		return nil, ErrEmptyList
	}
	unique = emailaddr.SortedUnique(unique)

	filter := NewBloomFilter(DefaultBloomConfig(uint64(len(unique))))
	for _, a := range unique {
		filter.Add(a)
	}

	return &List{
		ID:       id,
		Name:     name,
		filter:   filter,
		addrs:    unique,
		loadedAt: time.Now(),
		source:   source,
	}, nil
}

// Contains reports whether a is on the list.
func (l *List) Contains(a emailaddr.Address) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.contains(a)
}

func (l *List) contains(a emailaddr.Address) bool {
	if a.IsZero() || !l.filter.MayContain(a) {
		return false
	}
	_, found := emailaddr.Search(l.addrs, a)
	return found
}

// ContainsEmail parses raw and checks membership. Invalid input is never
// suppressed.
func (l *List) ContainsEmail(raw string) bool {
	a, err := emailaddr.Parse(raw)
	if err != nil {
		return false
	}
	return l.Contains(a)
}

// DomainMembers returns the listed addresses whose domain equals domain
// (case-insensitive), in local-part order. The result is a copy.
func (l *List) DomainMembers(domain string) []emailaddr.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	lo, hi := emailaddr.DomainRange(l.addrs, domain)
	if lo == hi {
		return nil
	}
	out := make([]emailaddr.Address, hi-lo)
	copy(out, l.addrs[lo:hi])
	return out
}

// Addresses returns a copy of every address in domain-major order.
func (l *List) Addresses() []emailaddr.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]emailaddr.Address, len(l.addrs))
	copy(out, l.addrs)
	return out
}

// Count returns the number of entries in the list.
func (l *List) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.addrs)
}

// Stats returns statistics about the list.
func (l *List) Stats() ListStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var addrMem uint64
	domains := 0
	for i, a := range l.addrs {
		addrMem += 24 + uint64(len(a.String()))
		if i == 0 || a.NotSameDomain(l.addrs[i-1]) {
			domains++
		}
	}
	bloomMem := l.filter.MemoryBytes()

	return ListStats{
		ID:                 l.ID,
		Name:               l.Name,
		RecordCount:        uint64(len(l.addrs)),
		Domains:            domains,
		SkippedLines:       l.skipped,
		BloomMemoryBytes:   bloomMem,
		AddressMemoryBytes: addrMem,
		TotalMemoryBytes:   bloomMem + addrMem,
		EstimatedFPRate:    l.filter.EstimatedFalsePositiveRate(),
		LoadedAt:           l.loadedAt,
		Source:             l.source,
	}
}
