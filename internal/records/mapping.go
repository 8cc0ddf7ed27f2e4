package records

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/burnwatch/burnwatch/pkg/repository"
)

func scanRaw(s repository.Scanner) (RawRecord, error) {
	var (
		rec        RawRecord
		recordedAt int64
		ingestedAt int64
	)

	if err := s.Scan(&rec.UserID, &recordedAt, &rec.Source, &rec.Content, &ingestedAt); err != nil {
		return RawRecord{}, err
	}

	rec.RecordedAt = time.UnixMilli(recordedAt).UTC()
	rec.IngestedAt = time.UnixMilli(ingestedAt).UTC()
	return rec, nil
}

func scanScored(s repository.Scanner) (ScoredRecord, error) {
	var (
		rec        ScoredRecord
		recordedAt int64
		scoredAt   int64
		keywords   string
	)

	if err := s.Scan(
		&rec.UserID, &recordedAt, &rec.Source,
		&rec.Score, &rec.Label, &keywords, &rec.Scorer, &scoredAt,
	); err != nil {
		return ScoredRecord{}, err
	}

	if err := json.Unmarshal([]byte(keywords), &rec.Keywords); err != nil {
		return ScoredRecord{}, fmt.Errorf("unmarshal keywords: %w", err)
	}

	rec.RecordedAt = time.UnixMilli(recordedAt).UTC()
	rec.ScoredAt = time.UnixMilli(scoredAt).UTC()
	return rec, nil
}

func scanActivity(s repository.Scanner) (UserActivity, error) {
	var (
		activity UserActivity
		scoredAt int64
	)

	if err := s.Scan(&activity.UserID, &activity.RecordCount, &scoredAt); err != nil {
		return UserActivity{}, err
	}

	activity.LastScoredAt = time.UnixMilli(scoredAt).UTC()
	return activity, nil
}
