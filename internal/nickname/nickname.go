// Package nickname looks up players' in-game display names from public
// profile endpoints.
package nickname

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const maxBodySize = 64 << 10

type cacheItem struct {
	nickname string
	expires  time.Time
}

// Resolver queries the configured sources in order and caches hits.
type Resolver struct {
	sources []string
	client  *http.Client
	timeout time.Duration
	ttl     time.Duration

	mu    sync.RWMutex
	cache map[string]cacheItem
	now   func() time.Time
}

// New creates a Resolver. Each source is a URL template with one %s that
// receives the game id.
func New(sources []string, timeout, ttl time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Resolver{
		sources: sources,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		ttl:     ttl,
		cache:   make(map[string]cacheItem),
		now:     time.Now,
	}
}

// Lookup returns the nickname for gameID. Failures are logged and reported
// as not found.
func (r *Resolver) Lookup(ctx context.Context, gameID string) (string, bool) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return "", false
	}
	if name, ok := r.cached(gameID); ok {
		return name, true
	}

	for _, src := range r.sources {
		name, err := r.fetch(ctx, src, gameID)
		if err != nil {
			log.Warn().Err(err).Str("game_id", gameID).Str("source", src).Msg("Nickname lookup failed")
			continue
		}
		if name == "" {
			continue
		}
		r.store(gameID, name)
		return name, true
	}
	return "", false
}

func (r *Resolver) cached(gameID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.cache[gameID]
	if !ok || r.now().After(item.expires) {
		return "", false
	}
	return item.nickname, true
}

func (r *Resolver) store(gameID, name string) {
	if r.ttl <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[gameID] = cacheItem{nickname: name, expires: r.now().Add(r.ttl)}
}

func (r *Resolver) fetch(ctx context.Context, source, gameID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	url := fmt.Sprintf(source, gameID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to query source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return extract(body)
}

type profile struct {
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Name     string `json:"name"`
	Result   *struct {
		Nickname string `json:"nickname"`
		Name     string `json:"name"`
	} `json:"result"`
}

// extract picks the first non-empty name field of a profile response.
func extract(body []byte) (string, error) {
	var p profile
	if err := json.Unmarshal(body, &p); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	candidates := []string{p.Username, p.Nickname, p.Name}
	if p.Result != nil {
		candidates = append(candidates, p.Result.Nickname, p.Result.Name)
	}
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c, nil
		}
	}
	return "", nil
}
