package dns

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

type cacheEntry struct {
	names     []string
	timestamp time.Time
}

// lookupFunc matches net.Resolver.LookupAddr.
type lookupFunc func(ctx context.Context, ip string) ([]string, error)

// CachedResolver resolves source IPs to their PTR names and caches the
// answers so every IP is only looked up once per cache period.
type CachedResolver struct {
	ctx          context.Context
	timeout      time.Duration
	cacheTimeout time.Duration
	lookup       lookupFunc
	mutex        sync.RWMutex
	cache        map[string]cacheEntry
	logger       *log.Logger
}

// NewCachedResolver uses the system resolver unless server (host:port) is set.
func NewCachedResolver(ctx context.Context, server string, connectTimeout, timeout, cacheTimeout time.Duration, logger *log.Logger) *CachedResolver {
	resolver := net.DefaultResolver
	if server != "" {
		resolver = &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
				d := net.Dialer{
					Timeout: connectTimeout,
				}
				return d.DialContext(ctx, network, server)
			},
		}
	}
	return &CachedResolver{
		ctx:          ctx,
		timeout:      timeout,
		cacheTimeout: cacheTimeout,
		lookup:       resolver.LookupAddr,
		cache:        make(map[string]cacheEntry),
		logger:       logger,
	}
}

// LookupAddr performs a reverse lookup and caches the result to
// not hammer your DNS server. Failed lookups are cached as empty.
func (r *CachedResolver) LookupAddr(ip string) ([]string, error) {
	if val, ok := r.getCacheEntry(ip); ok {
		return val, nil
	}
	r.logger.Debug("resolving", "ip", ip)

	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	names, err := r.lookup(ctx, ip)
	if err != nil {
		// store dummy entry so we do not reresolve the ip
		r.updateCache(ip, []string{})
		return nil, err
	}

	// remove trailing dot from names
	for i := range names {
		names[i] = strings.TrimSuffix(names[i], ".")
	}
	r.updateCache(ip, names)
	return names, nil
}

func (r *CachedResolver) updateCache(ip string, names []string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.cache[ip] = cacheEntry{
		names:     names,
		timestamp: time.Now(),
	}
}

func (r *CachedResolver) getCacheEntry(ip string) ([]string, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if val, ok := r.cache[ip]; ok {
		// check if the cache expired
		if time.Now().Add(-1 * r.cacheTimeout).After(val.timestamp) {
			r.logger.Debug("deleting stale DNS entry", "ip", ip, "stored", val.timestamp)
			delete(r.cache, ip)
			return nil, false
		}
		return val.names, true
	}
	return nil, false
}
