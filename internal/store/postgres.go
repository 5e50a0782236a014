package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/lol-inhouse-backend/internal/match"
	"github.com/DoyleJ11/lol-inhouse-backend/internal/session"
)

const uniqueViolation = "23505"

// Postgres is a Store backed by gorm and the pgx driver.
type Postgres struct {
	db  *gorm.DB
	log *zap.Logger
}

// OpenPostgres connects to dsn and migrates the schema.
func OpenPostgres(dsn string, log *zap.Logger) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&queueEntryRow{}, &matchRow{}, &draftActionRow{}, &playerRow{}, &gameSummaryRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Postgres{db: db, log: log}, nil
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}

func (p *Postgres) ListQueueEntries(ctx context.Context) ([]match.QueueEntry, error) {
	var rows []queueEntryRow
	if err := p.db.WithContext(ctx).Order("joined_at ASC, identifier ASC").Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	out := make([]match.QueueEntry, 0, len(rows))
	for _, r := range rows {
		var kind match.Kind
		if err := kind.UnmarshalText([]byte(r.Kind)); err != nil {
			p.log.Warn("skipping queue row with unknown kind", zap.String("identifier", r.Identifier), zap.Error(err))
			continue
		}
		out = append(out, match.QueueEntry{
			ID:         match.Identifier(r.Identifier),
			MMR:        r.MMR,
			Primary:    match.Lane(r.PrimaryLane),
			Secondary:  match.Lane(r.SecondaryLane),
			Kind:       kind,
			Acceptance: match.AcceptanceFlag(r.AcceptanceStatus),
			JoinedAt:   r.JoinedAt,
		})
	}
	return out, nil
}

func (p *Postgres) AddQueueEntry(ctx context.Context, e match.QueueEntry) error {
	row := queueEntryRow{
		Identifier:       string(e.ID),
		MMR:              e.MMR,
		PrimaryLane:      string(e.Primary),
		SecondaryLane:    string(e.Secondary),
		Kind:             e.Kind.String(),
		AcceptanceStatus: int(e.Acceptance),
		JoinedAt:         e.JoinedAt,
	}
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identifier"}},
		DoUpdates: clause.AssignmentColumns([]string{"mmr", "primary_lane", "secondary_lane", "kind", "acceptance_status", "joined_at"}),
	}).Create(&row).Error
	return translate(err)
}

func (p *Postgres) RemoveQueueEntry(ctx context.Context, id match.Identifier) error {
	return translate(p.db.WithContext(ctx).Delete(&queueEntryRow{}, "identifier = ?", string(id)).Error)
}

func (p *Postgres) SetAcceptanceFlag(ctx context.Context, id match.Identifier, flag match.AcceptanceFlag) error {
	res := p.db.WithContext(ctx).Model(&queueEntryRow{}).
		Where("identifier = ?", string(id)).
		Update("acceptance_status", int(flag))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ResetAcceptanceFlags(ctx context.Context, ids []match.Identifier) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = string(id)
	}
	return translate(p.db.WithContext(ctx).Model(&queueEntryRow{}).
		Where("identifier IN ?", keys).
		Update("acceptance_status", int(match.FlagNeutral)).Error)
}

func (p *Postgres) CreateMatch(ctx context.Context, rec *match.Record) error {
	team1, err := json.Marshal(rec.Team1)
	if err != nil {
		return err
	}
	team2, err := json.Marshal(rec.Team2)
	if err != nil {
		return err
	}
	row := matchRow{
		ID:          rec.ID,
		Status:      string(rec.Status),
		Team1:       team1,
		Team2:       team2,
		AverageMMR1: rec.AverageMMR[0],
		AverageMMR2: rec.AverageMMR[1],
		CreatedAt:   rec.CreatedAt,
	}
	return translate(p.db.WithContext(ctx).Create(&row).Error)
}

func (p *Postgres) GetMatch(ctx context.Context, id string) (*match.Record, error) {
	var row matchRow
	if err := p.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	recs, err := p.withActions(ctx, []matchRow{row})
	if err != nil {
		return nil, err
	}
	return recs[0], nil
}

// ListMatchesByStatus returns every match in status, oldest first.
func (p *Postgres) ListMatchesByStatus(ctx context.Context, status match.Status) ([]*match.Record, error) {
	var rows []matchRow
	if err := p.db.WithContext(ctx).Where("status = ?", string(status)).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, translate(err)
	}
	return p.withActions(ctx, rows)
}

// withActions decodes rows and attaches their draft actions in index order.
func (p *Postgres) withActions(ctx context.Context, rows []matchRow) ([]*match.Record, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	ids := make([]string, len(rows))
	recs := make([]*match.Record, len(rows))
	byID := make(map[string]*match.Record, len(rows))
	for i, row := range rows {
		rec, err := decodeMatch(row)
		if err != nil {
			return nil, err
		}
		ids[i] = row.ID
		recs[i] = rec
		byID[row.ID] = rec
	}

	var actions []draftActionRow
	if err := p.db.WithContext(ctx).Where("match_id IN ?", ids).Order("match_id, action_index ASC").Find(&actions).Error; err != nil {
		return nil, translate(err)
	}
	for _, a := range actions {
		rec := byID[a.MatchID]
		if rec.Draft == nil {
			rec.Draft = &match.DraftState{}
		}
		rec.Draft.Actions = append(rec.Draft.Actions, match.DraftAction{
			ActionIndex: a.ActionIndex,
			Side:        match.Side(a.Side),
			Actor:       match.Identifier(a.Actor),
			ChampionID:  a.ChampionID,
			Type:        match.ActionType(a.ActionType),
			At:          a.ActionTime,
		})
	}
	return recs, nil
}

func decodeMatch(row matchRow) (*match.Record, error) {
	rec := &match.Record{
		ID:         row.ID,
		Status:     match.Status(row.Status),
		AverageMMR: [2]float64{row.AverageMMR1, row.AverageMMR2},
		CreatedAt:  row.CreatedAt,
	}
	if err := json.Unmarshal(row.Team1, &rec.Team1); err != nil {
		return nil, fmt.Errorf("decode team1: %w", err)
	}
	if err := json.Unmarshal(row.Team2, &rec.Team2); err != nil {
		return nil, fmt.Errorf("decode team2: %w", err)
	}
	return rec, nil
}

func (p *Postgres) UpdateMatchStatus(ctx context.Context, id string, status match.Status, f Fields) error {
	updates := map[string]any{"status": string(status)}
	if f.Team1 != nil {
		b, err := json.Marshal(f.Team1)
		if err != nil {
			return err
		}
		updates["team1"] = datatypes.JSON(b)
	}
	if f.Team2 != nil {
		b, err := json.Marshal(f.Team2)
		if err != nil {
			return err
		}
		updates["team2"] = datatypes.JSON(b)
	}
	if f.WinnerTeam != nil {
		updates["winner_team"] = *f.WinnerTeam
	}
	if f.Duration > 0 {
		updates["duration_sec"] = int(f.Duration / time.Second)
	}
	if f.Reason != "" {
		updates["reason"] = f.Reason
	}
	if status.Terminal() {
		updates["completed_at"] = time.Now()
	}
	res := p.db.WithContext(ctx).Model(&matchRow{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteMatch(ctx context.Context, id string) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&draftActionRow{}, "match_id = ?", id).Error; err != nil {
			return translate(err)
		}
		return translate(tx.Delete(&matchRow{}, "id = ?", id).Error)
	})
}

func (p *Postgres) AppendDraftAction(ctx context.Context, matchID string, a match.DraftAction) error {
	row := draftActionRow{
		MatchID:     matchID,
		ActionIndex: a.ActionIndex,
		Side:        string(a.Side),
		Actor:       string(a.Actor),
		ChampionID:  a.ChampionID,
		ActionType:  string(a.Type),
		ActionTime:  a.At,
	}
	return translate(p.db.WithContext(ctx).Create(&row).Error)
}

func (p *Postgres) Rating(ctx context.Context, id match.Identifier) (int, error) {
	var row playerRow
	if err := p.db.WithContext(ctx).First(&row, "identifier = ?", string(id)).Error; err != nil {
		return 0, translate(err)
	}
	return row.Rating, nil
}

// AdjustRating applies delta atomically, seeding unknown players with base.
func (p *Postgres) AdjustRating(ctx context.Context, id match.Identifier, base, delta int) (int, error) {
	row := playerRow{Identifier: string(id), Rating: floor0(base + delta), UpdatedAt: time.Now()}
	err := p.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "identifier"}},
			DoUpdates: clause.Assignments(map[string]any{
				"rating":     gorm.Expr("GREATEST(players.rating + ?, 0)", delta),
				"updated_at": row.UpdatedAt,
			}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "rating"}}},
	).Create(&row).Error
	if err != nil {
		return 0, translate(err)
	}
	return row.Rating, nil
}

func (p *Postgres) SaveGameSummary(ctx context.Context, sum session.Summary) error {
	events, err := json.Marshal(sum.Events)
	if err != nil {
		return err
	}
	changes, err := json.Marshal(sum.RatingChanges)
	if err != nil {
		return err
	}
	row := gameSummaryRow{
		MatchID:       sum.MatchID,
		Status:        string(sum.Status),
		StartedAt:     sum.StartedAt,
		EndedAt:       sum.EndedAt,
		Events:        events,
		RatingChanges: changes,
	}
	if sum.Result != nil {
		winner := sum.Result.WinnerTeam
		secs := int(sum.Result.Duration / time.Second)
		row.WinnerTeam = &winner
		row.DurationSec = &secs
		row.EndReason = string(sum.Result.EndReason)
	}
	return translate(p.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error)
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
