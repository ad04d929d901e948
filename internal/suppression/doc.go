// Package suppression provides an in-memory suppression matching engine
// for high-volume sends.
//
// Architecture Overview:
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                    SUPPRESSION ENGINE                           │
//	├─────────────────────────────────────────────────────────────────┤
//	│  Layer 1: Bloom Filter (RAM)                                    │
//	│    - O(k) probabilistic membership test                         │
//	│    - double hashing seeded from Address.Hash                    │
//	│                                                                 │
//	│  Layer 2: Sorted []emailaddr.Address (domain-major)             │
//	│    - O(log n) binary search for verification                    │
//	│    - same-domain members are contiguous (DomainMembers)         │
//	│                                                                 │
//	│  Manager:                                                       │
//	│    - one load per list id, concurrent callers wait for it       │
//	│    - safe for concurrent use (RWMutex)                          │
//	└─────────────────────────────────────────────────────────────────┘
//
// Lists are loaded from plain text (one address per line) or from the
// binary frame stream written by emailaddr.Writer.
package suppression
