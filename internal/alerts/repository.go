package alerts

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/burnwatch/burnwatch/internal/predictions"
	"github.com/burnwatch/burnwatch/pkg/repository"
)

// Store defines persistence for alert history.
type Store interface {
	// Insert appends an alert record. History is never updated or deleted.
	Insert(ctx context.Context, r Record) error

	// LastTriggered returns when the given rule last fired for the user, or
	// false if it never has.
	LastTriggered(ctx context.Context, userID, ruleID string) (time.Time, bool, error)

	// ListForUser returns the user's alert history, newest first.
	ListForUser(ctx context.Context, userID string) ([]Record, error)
}

type store struct {
	db *sql.DB
}

// NewStore creates an alert history store.
func NewStore(db *sql.DB) Store {
	return &store{db: db}
}

const recordColumns = `user_id_hash, rule_id, triggered_at, risk_band, channel_status`

func (s *store) Insert(ctx context.Context, r Record) error {
	status, err := json.Marshal(r.ChannelStatus)
	if err != nil {
		return fmt.Errorf("marshal channel status: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO alert_history (user_id_hash, rule_id, triggered_at, risk_band, channel_status)
		VALUES ($1, $2, $3, $4, $5)`,
		r.UserID, r.RuleID, r.TriggeredAt.UnixMilli(), string(r.RiskBand), string(status),
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w",
			repository.MapError(err, ErrDuplicate, ErrDuplicate))
	}
	return nil
}

func (s *store) LastTriggered(ctx context.Context, userID, ruleID string) (time.Time, bool, error) {
	var at sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(triggered_at) FROM alert_history
		WHERE user_id_hash = $1 AND rule_id = $2`,
		userID, ruleID,
	).Scan(&at)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query last alert: %w", err)
	}

	if !at.Valid {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(at.Int64).UTC(), true, nil
}

func (s *store) ListForUser(ctx context.Context, userID string) ([]Record, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM alert_history
		WHERE user_id_hash = $1
		ORDER BY triggered_at DESC`, recordColumns)

	records, err := repository.QueryMany(ctx, s.db, q, []any{userID}, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return records, nil
}

func scanRecord(sc repository.Scanner) (Record, error) {
	var (
		r           Record
		triggeredAt int64
		band        string
		status      string
	)

	if err := sc.Scan(&r.UserID, &r.RuleID, &triggeredAt, &band, &status); err != nil {
		return Record{}, err
	}

	if err := json.Unmarshal([]byte(status), &r.ChannelStatus); err != nil {
		return Record{}, fmt.Errorf("unmarshal channel status: %w", err)
	}

	r.TriggeredAt = time.UnixMilli(triggeredAt).UTC()
	r.RiskBand = predictions.Band(band)
	return r, nil
}
