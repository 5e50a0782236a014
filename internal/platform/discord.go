package platform

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
)

const (
	DefaultDiscordAPI = "https://discord.com/api/v10"

	channelTypeVoice    = 2
	channelTypeCategory = 4

	defaultRequestTimeout = 10 * time.Second
	maxRetries            = 3
)

type channelRequest struct {
	Name      string `json:"name"`
	Type      int    `json:"type"`
	ParentID  string `json:"parent_id,omitempty"`
	UserLimit int    `json:"user_limit,omitempty"`
}

type channelResponse struct {
	ID string `json:"id"`
}

// Discord manages a category with one voice channel per team for every match.
type Discord struct {
	baseURL    string
	token      string
	guildID    string
	httpClient *http.Client
	log        *zap.Logger

	mu       sync.Mutex
	channels map[string][]string // match id -> channel ids, category last
}

func NewDiscord(baseURL, token, guildID string, log *zap.Logger) *Discord {
	if baseURL == "" {
		baseURL = DefaultDiscordAPI
	}
	return &Discord{
		baseURL:    baseURL,
		token:      token,
		guildID:    guildID,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		log:        log,
		channels:   make(map[string][]string),
	}
}

func (d *Discord) CreateMatchChannels(ctx context.Context, matchID string, rec *match.Record) error {
	short := matchID
	if len(short) > 8 {
		short = short[:8]
	}
	category, err := d.createChannel(ctx, channelRequest{Name: "Inhouse " + short, Type: channelTypeCategory})
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	created := []string{category}

	teams := []struct {
		name string
		size int
	}{
		{"Blue Team", len(rec.Team1)},
		{"Red Team", len(rec.Team2)},
	}
	for _, team := range teams {
		id, err := d.createChannel(ctx, channelRequest{
			Name:      team.name,
			Type:      channelTypeVoice,
			ParentID:  category,
			UserLimit: team.size,
		})
		if err != nil {
			// roll back what exists so the guild does not collect orphans
			_, rollbackErr := d.deleteAll(ctx, created)
			return multierr.Append(fmt.Errorf("create %s: %w", team.name, err), rollbackErr)
		}
		created = append([]string{id}, created...)
	}

	d.mu.Lock()
	d.channels[matchID] = created
	d.mu.Unlock()
	d.log.Info("created match channels", zap.String("match", matchID), zap.Int("channels", len(created)))
	return nil
}

// TeardownMatchChannels deletes the match's channels. Channels whose delete
// failed stay tracked so a later call can retry them.
func (d *Discord) TeardownMatchChannels(ctx context.Context, matchID string) error {
	d.mu.Lock()
	ids := d.channels[matchID]
	d.mu.Unlock()
	if len(ids) == 0 {
		return nil
	}

	remaining, err := d.deleteAll(ctx, ids)

	d.mu.Lock()
	if len(remaining) == 0 {
		delete(d.channels, matchID)
	} else {
		d.channels[matchID] = remaining
	}
	d.mu.Unlock()
	return err
}

// deleteAll returns the ids it could not delete.
func (d *Discord) deleteAll(ctx context.Context, ids []string) ([]string, error) {
	var (
		err       error
		remaining []string
	)
	for _, id := range ids {
		if delErr := d.do(ctx, http.MethodDelete, "/channels/"+id, nil, nil); delErr != nil {
			remaining = append(remaining, id)
			err = multierr.Append(err, delErr)
		}
	}
	return remaining, err
}

func (d *Discord) createChannel(ctx context.Context, body channelRequest) (string, error) {
	var out channelResponse
	if err := d.do(ctx, http.MethodPost, "/guilds/"+d.guildID+"/channels", body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// do sends one API request, waiting out rate limits.
func (d *Discord) do(ctx context.Context, method, path string, body, out any) error {
	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bot "+d.token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := d.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			wait := retryAfter(resp.Header.Get("Retry-After"))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			defer resp.Body.Close()
			if out == nil || resp.StatusCode == http.StatusNoContent {
				return nil
			}
			return json.NewDecoder(resp.Body).Decode(out)
		default:
			resp.Body.Close()
			return fmt.Errorf("%s %s failed with status %d", method, path, resp.StatusCode)
		}
	}
	return fmt.Errorf("%s %s failed after %d retries", method, path, maxRetries)
}

func retryAfter(h string) time.Duration {
	if h == "" {
		return time.Second
	}
	secs, err := strconv.ParseFloat(h, 64)
	if err != nil || secs < 0 {
		return time.Second
	}
	return time.Duration(secs * float64(time.Second))
}
