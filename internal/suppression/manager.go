package suppression

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ignite/emailtype/internal/emailaddr"
)

var (
	// ErrListNotFound is returned when a suppression list isn't loaded.
	ErrListNotFound = errors.New("suppression list not found")

	// ErrEmptyList is returned when a list would contain no addresses.
	ErrEmptyList = errors.New("suppression list is empty")
)

// maxLineBytes bounds a single text line. Anything longer cannot be a
// valid address and is skipped.
const maxLineBytes = 64 * 1024

// Manager holds loaded suppression lists by id. Each id is built at most
// once; concurrent loaders of the same id wait for the first.
type Manager struct {
	lists   map[string]*List
	loading map[string]*loadState
	mu      sync.RWMutex

	checksTotal      atomic.Uint64
	checksSuppressed atomic.Uint64
	bloomHits        atomic.Uint64
}

type loadState struct {
	wg   sync.WaitGroup
	err  error
	list *List
}

// ManagerStats contains aggregate statistics for the manager.
type ManagerStats struct {
	Lists            []ListStats `json:"lists"`
	TotalRecords     uint64      `json:"total_records"`
	TotalMemoryBytes uint64      `json:"total_memory_bytes"`
	ChecksTotal      uint64      `json:"checks_total"`
	ChecksSuppressed uint64      `json:"checks_suppressed"`
	BloomHits        uint64      `json:"bloom_hits"`
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		lists:   make(map[string]*List),
		loading: make(map[string]*loadState),
	}
}

// load returns the list for id, calling build only if no list is loaded and
// no other goroutine is building one.
func (m *Manager) load(id string, build func() (*List, error)) (*List, error) {
	m.mu.RLock()
	if list, ok := m.lists[id]; ok {
		m.mu.RUnlock()
		return list, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	if list, ok := m.lists[id]; ok {
		m.mu.Unlock()
		return list, nil
	}
	if state, loading := m.loading[id]; loading {
		m.mu.Unlock()
		state.wg.Wait()
		return state.list, state.err
	}
	state := &loadState{}
	state.wg.Add(1)
	m.loading[id] = state
	m.mu.Unlock()

	list, err := build()

	m.mu.Lock()
	state.err = err
	state.list = list
	if err == nil {
		m.lists[id] = list
	}
	delete(m.loading, id)
	m.mu.Unlock()

	state.wg.Done()
	return list, err
}

// LoadList loads addrs as list id. If id is already loaded the existing
// list is returned unchanged.
func (m *Manager) LoadList(id, name, source string, addrs []emailaddr.Address) (*List, error) {
	return m.load(id, func() (*List, error) {
		return NewList(id, name, source, addrs)
	})
}

// LoadListFromStrings parses raw addresses. Invalid entries are skipped and
// counted in the list's stats.
func (m *Manager) LoadListFromStrings(id, name, source string, raw []string) (*List, error) {
	return m.load(id, func() (*List, error) {
		addrs := make([]emailaddr.Address, 0, len(raw))
		skipped := 0
		for _, r := range raw {
			a, err := emailaddr.Parse(strings.TrimSpace(r))
			if err != nil {
				skipped++
				continue
			}
			addrs = append(addrs, a)
		}
		return newListWithSkipped(id, name, source, addrs, skipped)
	})
}

// LoadListFromReader loads a list from text with one address per line.
// Blank lines and lines starting with '#' are ignored; lines that do not
// parse are skipped and counted.
func (m *Manager) LoadListFromReader(id, name, source string, r io.Reader) (*List, error) {
	return m.load(id, func() (*List, error) {
		addrs := make([]emailaddr.Address, 0, 1024)
		skipped := 0

		br := bufio.NewReader(r)
		for {
			line, err := readLine(br)
			if line != "" && !strings.HasPrefix(line, "#") {
				if a, perr := emailaddr.Parse(line); perr == nil {
					addrs = append(addrs, a)
				} else {
					skipped++
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("read list %s: %w", id, err)
			}
		}
		return newListWithSkipped(id, name, source, addrs, skipped)
	})
}

// LoadListFromEncoded loads a list from a binary stream of encoded
// addresses. Any corrupt frame fails the whole load.
func (m *Manager) LoadListFromEncoded(id, name, source string, r io.Reader) (*List, error) {
	return m.load(id, func() (*List, error) {
		addrs, err := emailaddr.NewReader(r).ReadAll()
		if err != nil {
			return nil, fmt.Errorf("decode list %s: %w", id, err)
		}
		return NewList(id, name, source, addrs)
	})
}

func newListWithSkipped(id, name, source string, addrs []emailaddr.Address, skipped int) (*List, error) {
	list, err := NewList(id, name, source, addrs)
	if err != nil {
		return nil, err
	}
	list.skipped = skipped
	return list, nil
}

// readLine returns the next trimmed line. Lines past maxLineBytes are
// consumed whole but truncated, so they fail to parse.
func readLine(br *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		chunk, isPrefix, err := br.ReadLine()
		if sb.Len() <= maxLineBytes {
			sb.Write(chunk)
		}
		if err != nil {
			return strings.TrimSpace(sb.String()), err
		}
		if !isPrefix {
			return strings.TrimSpace(sb.String()), nil
		}
	}
}

// GetList returns a loaded suppression list by ID.
func (m *Manager) GetList(id string) (*List, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if list, ok := m.lists[id]; ok {
		return list, nil
	}
	return nil, ErrListNotFound
}

// ReplaceList installs list under its ID, replacing any loaded list.
func (m *Manager) ReplaceList(list *List) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[list.ID] = list
}

// UnloadList removes a suppression list from memory.
func (m *Manager) UnloadList(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lists, id)
}

// IsSuppressed reports whether a is on any of the given lists. Unknown
// list ids are ignored.
func (m *Manager) IsSuppressed(a emailaddr.Address, listIDs []string) bool {
	m.checksTotal.Add(1)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range listIDs {
		list, ok := m.lists[id]
		if !ok || a.IsZero() {
			continue
		}
		if !list.filter.MayContain(a) {
			continue
		}
		m.bloomHits.Add(1)
		if _, found := emailaddr.Search(list.addrs, a); found {
			m.checksSuppressed.Add(1)
			return true
		}
	}
	return false
}

// IsSuppressedEmail parses raw and checks it. Invalid input is reported as
// not suppressed.
func (m *Manager) IsSuppressedEmail(raw string, listIDs []string) bool {
	a, err := emailaddr.Parse(strings.TrimSpace(raw))
	if err != nil {
		m.checksTotal.Add(1)
		return false
	}
	return m.IsSuppressed(a, listIDs)
}

// FilterAddresses returns the addresses not on any of the lists, in input
// order, and how many were removed.
func (m *Manager) FilterAddresses(addrs []emailaddr.Address, listIDs []string) (deliverable []emailaddr.Address, suppressedCount int) {
	deliverable = make([]emailaddr.Address, 0, len(addrs))
	for _, a := range addrs {
		if m.IsSuppressed(a, listIDs) {
			suppressedCount++
			continue
		}
		deliverable = append(deliverable, a)
	}
	return deliverable, suppressedCount
}

// Stats returns statistics about all loaded lists, ordered by list id.
func (m *Manager) Stats() ManagerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := ManagerStats{
		Lists:            make([]ListStats, 0, len(m.lists)),
		ChecksTotal:      m.checksTotal.Load(),
		ChecksSuppressed: m.checksSuppressed.Load(),
		BloomHits:        m.bloomHits.Load(),
	}
	for _, list := range m.lists {
		ls := list.Stats()
		stats.Lists = append(stats.Lists, ls)
		stats.TotalRecords += ls.RecordCount
		stats.TotalMemoryBytes += ls.TotalMemoryBytes
	}
	sort.Slice(stats.Lists, func(i, j int) bool { return stats.Lists[i].ID < stats.Lists[j].ID })
	return stats
}

// ListIDs returns the sorted IDs of all loaded lists.
func (m *Manager) ListIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.lists))
	for id := range m.lists {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
