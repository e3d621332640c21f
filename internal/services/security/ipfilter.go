package security

import (
	"sort"
	"sync"
)

// IPFilter admits or rejects client IPs. The blacklist always wins; an
// empty whitelist admits everyone else.
type IPFilter struct {
	mu        sync.RWMutex
	whitelist map[string]struct{}
	blacklist map[string]struct{}
}

// IPLists is a snapshot of both lists
type IPLists struct {
	Whitelist []string `json:"whitelist"`
	Blacklist []string `json:"blacklist"`
}

// NewIPFilter creates a filter seeded with the given lists
func NewIPFilter(whitelist, blacklist []string) *IPFilter {
	f := &IPFilter{
		whitelist: make(map[string]struct{}),
		blacklist: make(map[string]struct{}),
	}
	for _, ip := range whitelist {
		f.whitelist[ip] = struct{}{}
	}
	for _, ip := range blacklist {
		f.blacklist[ip] = struct{}{}
	}
	return f
}

// IsAllowed reports whether ip may reach the server
func (f *IPFilter) IsAllowed(ip string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if _, blocked := f.blacklist[ip]; blocked {
		return false
	}
	if len(f.whitelist) == 0 {
		return true
	}
	_, ok := f.whitelist[ip]
	return ok
}

func (f *IPFilter) AddToWhitelist(ip string) {
	f.mu.Lock()
	f.whitelist[ip] = struct{}{}
	f.mu.Unlock()
}

func (f *IPFilter) RemoveFromWhitelist(ip string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.whitelist[ip]
	delete(f.whitelist, ip)
	return ok
}

func (f *IPFilter) AddToBlacklist(ip string) {
	f.mu.Lock()
	f.blacklist[ip] = struct{}{}
	f.mu.Unlock()
}

func (f *IPFilter) RemoveFromBlacklist(ip string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.blacklist[ip]
	delete(f.blacklist, ip)
	return ok
}

// Lists returns both lists sorted
func (f *IPFilter) Lists() IPLists {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return IPLists{
		Whitelist: sortedKeys(f.whitelist),
		Blacklist: sortedKeys(f.blacklist),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
