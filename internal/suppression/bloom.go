package suppression

import (
	"hash/fnv"
	"math"

	"github.com/ignite/emailtype/internal/emailaddr"
)

// BloomFilter is a space-efficient probabilistic set of addresses.
// False positives are possible, false negatives are not.
type BloomFilter struct {
	bits      []uint64
	size      uint64
	hashCount uint
	count     uint64
}

// BloomFilterConfig contains parameters for bloom filter creation.
type BloomFilterConfig struct {
	ExpectedElements  uint64
	FalsePositiveRate float64
}

// DefaultBloomConfig returns a 0.1% false-positive configuration.
func DefaultBloomConfig(expectedElements uint64) BloomFilterConfig {
	return BloomFilterConfig{
		ExpectedElements:  expectedElements,
		FalsePositiveRate: 0.001,
	}
}

// NewBloomFilter sizes a filter for the given parameters:
// m = -n*ln(p)/ln(2)^2 bits and k = (m/n)*ln(2) hashes.
func NewBloomFilter(cfg BloomFilterConfig) *BloomFilter {
	if cfg.ExpectedElements == 0 {
		cfg.ExpectedElements = 1000
	}
	if cfg.FalsePositiveRate <= 0 || cfg.FalsePositiveRate >= 1 {
		cfg.FalsePositiveRate = 0.001
	}

	n := float64(cfg.ExpectedElements)
	m := uint64(math.Ceil(-n * math.Log(cfg.FalsePositiveRate) / (math.Ln2 * math.Ln2)))
	if m < 64 {
		m = 64
	}
	m = ((m + 63) / 64) * 64

	k := uint(math.Round(float64(m) / n * math.Ln2))
	if k < 1 {
		k = 1
	}
	if k > 16 {
		k = 16
	}

	return &BloomFilter{
		bits:      make([]uint64, m/64),
		size:      m,
		hashCount: k,
	}
}

// Add inserts an address.
func (bf *BloomFilter) Add(a emailaddr.Address) {
	h1, h2 := baseHashes(a)
	for i := uint(0); i < bf.hashCount; i++ {
		pos := (h1 + uint64(i)*h2) % bf.size
		bf.bits[pos/64] |= 1 << (pos % 64)
	}
	bf.count++
}

// MayContain reports false if a is definitely absent.
func (bf *BloomFilter) MayContain(a emailaddr.Address) bool {
	h1, h2 := baseHashes(a)
	for i := uint(0); i < bf.hashCount; i++ {
		pos := (h1 + uint64(i)*h2) % bf.size
		if bf.bits[pos/64]&(1<<(pos%64)) == 0 {
			return false
		}
	}
	return true
}

// Count returns the number of elements added to the filter.
func (bf *BloomFilter) Count() uint64 { return bf.count }

// HashCount returns k.
func (bf *BloomFilter) HashCount() uint { return bf.hashCount }

// MemoryBytes returns the memory used by the bit array in bytes.
func (bf *BloomFilter) MemoryBytes() uint64 { return uint64(len(bf.bits)) * 8 }

// EstimatedFalsePositiveRate returns (1 - e^(-kn/m))^k for the current fill.
func (bf *BloomFilter) EstimatedFalsePositiveRate() float64 {
	if bf.count == 0 {
		return 0
	}
	k := float64(bf.hashCount)
	n := float64(bf.count)
	m := float64(bf.size)
	return math.Pow(1-math.Exp(-k*n/m), k)
}

// baseHashes returns the double-hashing seeds h_i = h1 + i*h2: the address
// hash and an odd 64-bit FNV-1a of the canonical text.
func baseHashes(a emailaddr.Address) (uint64, uint64) {
	h := fnv.New64a()
	h.Write([]byte(a.String()))
	return uint64(a.Hash()), h.Sum64() | 1
}
