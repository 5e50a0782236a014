package store

import (
	"time"

	"gorm.io/datatypes"
)

type queueEntryRow struct {
	Identifier       string    `gorm:"primaryKey;size:64"`
	MMR              int       `gorm:"not null"`
	PrimaryLane      string    `gorm:"size:16;not null;default:fill"`
	SecondaryLane    string    `gorm:"size:16;not null;default:fill"`
	Kind             string    `gorm:"size:8;not null;default:human"`
	AcceptanceStatus int       `gorm:"not null;default:0"`
	JoinedAt         time.Time `gorm:"index;not null"`
}

func (queueEntryRow) TableName() string { return "queue_players" }

type matchRow struct {
	ID          string         `gorm:"type:uuid;primaryKey"`
	Status      string         `gorm:"size:16;index;not null"`
	Team1       datatypes.JSON `gorm:"type:jsonb;not null"`
	Team2       datatypes.JSON `gorm:"type:jsonb;not null"`
	AverageMMR1 float64
	AverageMMR2 float64
	WinnerTeam  *int
	DurationSec *int
	Reason      string `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

func (matchRow) TableName() string { return "custom_matches" }

type draftActionRow struct {
	ID          uint   `gorm:"primaryKey"`
	MatchID     string `gorm:"type:uuid;not null;uniqueIndex:idx_draft_action"`
	ActionIndex int    `gorm:"not null;uniqueIndex:idx_draft_action"`
	Side        string `gorm:"size:8;not null"`
	Actor       string `gorm:"size:64;not null"`
	ChampionID  int    `gorm:"not null"`
	ActionType  string `gorm:"size:8;not null"`
	ActionTime  time.Time
}

func (draftActionRow) TableName() string { return "draft_actions" }

type playerRow struct {
	Identifier string `gorm:"primaryKey;size:64"`
	Rating     int    `gorm:"not null"`
	UpdatedAt  time.Time
}

func (playerRow) TableName() string { return "players" }

type gameSummaryRow struct {
	MatchID       string `gorm:"type:uuid;primaryKey"`
	Status        string `gorm:"size:16;not null"`
	StartedAt     time.Time
	EndedAt       time.Time
	WinnerTeam    *int
	DurationSec   *int
	EndReason     string         `gorm:"size:16"`
	Events        datatypes.JSON `gorm:"type:jsonb"`
	RatingChanges datatypes.JSON `gorm:"type:jsonb"`
}

func (gameSummaryRow) TableName() string { return "game_sessions" }
