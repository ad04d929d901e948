package emailaddr

import "slices"

// Sort orders addrs in place, domain first.
func Sort(addrs []Address) {
	slices.SortFunc(addrs, Compare)
}

// SortedUnique sorts addrs and drops duplicates, returning the shortened
// slice. The backing array is reused.
func SortedUnique(addrs []Address) []Address {
	Sort(addrs)
	return slices.CompactFunc(addrs, Address.Equal)
}

// Search returns the index of target in the sorted slice addrs and whether
// it is present.
func Search(addrs []Address, target Address) (int, bool) {
	return slices.BinarySearchFunc(addrs, target, Compare)
}

// DomainRange returns the half-open interval [lo, hi) of sorted addrs whose
// domain equals domain, compared case-insensitively. Domain-major ordering
// keeps them contiguous.
func DomainRange(addrs []Address, domain string) (lo, hi int) {
	domain = Canonicalize(domain)
	lo, _ = slices.BinarySearchFunc(addrs, domain, func(a Address, d string) int {
		if a.Domain() < d {
			return -1
		}
		return 1
	})
	hi, _ = slices.BinarySearchFunc(addrs, domain, func(a Address, d string) int {
		if a.Domain() <= d {
			return -1
		}
		return 1
	})
	return lo, hi
}
