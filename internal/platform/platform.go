// Package platform integrates with the community chat platform that hosts
// team voice channels.
package platform

import (
	"context"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
)

// Community creates and tears down per-match channels. Failures are reported
// but never block the match lifecycle.
type Community interface {
	CreateMatchChannels(ctx context.Context, matchID string, rec *match.Record) error
	TeardownMatchChannels(ctx context.Context, matchID string) error
}

type Nop struct{}

func (Nop) CreateMatchChannels(context.Context, string, *match.Record) error { return nil }
func (Nop) TeardownMatchChannels(context.Context, string) error            { return nil }
