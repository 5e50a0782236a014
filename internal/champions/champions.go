// Package champions is the registry of champions a draft may ban or pick.
package champions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

const DefaultDataDragonURL = "https://ddragon.leagueoflegends.com"

var ErrNoVersions = errors.New("data dragon returned no versions")

type championData struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Registry maps champion keys to display names. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	names   map[int]string
	ids     []int
	version string
}

// NewRegistry returns a registry seeded with the built-in roster.
func NewRegistry() *Registry {
	r := &Registry{}
	r.replace(builtin, "builtin")
	return r
}

func (r *Registry) replace(names map[int]string, version string) {
	ids := make([]int, 0, len(names))
	for id := range names {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	r.mu.Lock()
	r.names, r.ids, r.version = names, ids, version
	r.mu.Unlock()
}

func (r *Registry) Contains(id int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.names[id]
	return ok
}

// IDs returns the sorted champion keys. The slice must not be modified.
func (r *Registry) IDs() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ids
}

func (r *Registry) Name(id int) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name, ok := r.names[id]; ok {
		return name
	}
	return fmt.Sprintf("Champion %d", id)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ids)
}

func (r *Registry) Version() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Loader refreshes a Registry from Data Dragon.
type Loader struct {
	BaseURL string
	Client  *http.Client
	Log     *zap.Logger
}

// Refresh replaces the registry contents with the latest Data Dragon roster.
// The registry is left untouched on any error.
func (l Loader) Refresh(ctx context.Context, r *Registry) error {
	base := l.BaseURL
	if base == "" {
		base = DefaultDataDragonURL
	}
	client := l.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	var versions []string
	if err := getJSON(ctx, client, base+"/api/versions.json", &versions); err != nil {
		return fmt.Errorf("fetch versions: %w", err)
	}
	if len(versions) == 0 {
		return ErrNoVersions
	}
	latest := versions[0]

	var payload struct {
		Data map[string]championData `json:"data"`
	}
	url := fmt.Sprintf("%s/cdn/%s/data/en_US/champion.json", base, latest)
	if err := getJSON(ctx, client, url, &payload); err != nil {
		return fmt.Errorf("fetch champions: %w", err)
	}

	names := make(map[int]string, len(payload.Data))
	for _, c := range payload.Data {
		key, err := strconv.Atoi(c.Key)
		if err != nil {
			continue
		}
		names[key] = c.Name
	}
	if len(names) == 0 {
		return fmt.Errorf("data dragon %s: empty champion list", latest)
	}
	r.replace(names, latest)
	if l.Log != nil {
		l.Log.Info("champion registry refreshed", zap.String("version", latest), zap.Int("champions", len(names)))
	}
	return nil
}

func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
