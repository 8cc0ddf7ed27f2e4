package records

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/burnwatch/burnwatch/pkg/anonymize"
)

// SampleOptions controls synthetic survey-record generation.
type SampleOptions struct {
	// Users is the number of distinct synthetic users.
	Users int
	// RecordsPerUser is the number of records generated for each user.
	RecordsPerUser int
	// Days is the span of time the records cover, ending at End.
	Days int
	// NegativeUsers is the count of users whose records skew consistently
	// negative; they are the first NegativeUsers generated users.
	NegativeUsers int
	// End anchors the most recent record timestamp. Zero means now.
	End time.Time
	// Seed makes generation deterministic.
	Seed int64
}

var positiveTexts = []string{
	"Had a productive week, feeling good about the project",
	"Great session with the team today, lots of energy",
	"Finished the sprint early and took a proper break",
	"Really enjoying the new work, learning a lot",
	"Good balance this week, slept well and stayed focused",
}

var neutralTexts = []string{
	"Regular week, nothing special to report",
	"Meetings took most of the day, usual workload",
	"Working through the backlog at a steady pace",
	"Same as last week, keeping up with tasks",
}

var negativeTexts = []string{
	"Feeling exhausted and drained, can't keep up with the workload",
	"Another sleepless night worrying about deadlines, so stressed",
	"Completely burned out, everything feels overwhelming and hopeless",
	"Anxious all day, tired and unable to focus on anything",
	"Worn out and empty, dreading another overworked week",
}

// GenerateSample produces deterministic synthetic survey records with user
// identifiers anonymized through the given hasher. Negative users draw only
// from negative texts; the rest mix positive and neutral.
func GenerateSample(opts SampleOptions, hasher *anonymize.Hasher) []RawRecord {
	end := opts.End
	if end.IsZero() {
		end = time.Now().UTC()
	}
	end = end.UTC()

	rng := rand.New(rand.NewSource(opts.Seed))
	span := time.Duration(opts.Days) * 24 * time.Hour

	recs := make([]RawRecord, 0, opts.Users*opts.RecordsPerUser)
	for u := 0; u < opts.Users; u++ {
		userID := hasher.UserID(fmt.Sprintf("sample-user-%03d", u))
		negative := u < opts.NegativeUsers

		for i := 0; i < opts.RecordsPerUser; i++ {
			// Spread records evenly across the span with a little jitter so
			// natural keys never collide.
			offset := span * time.Duration(i) / time.Duration(opts.RecordsPerUser)
			jitter := time.Duration(rng.Intn(3600)) * time.Second
			recordedAt := end.Add(-span + offset + jitter)

			recs = append(recs, RawRecord{
				UserID:     userID,
				RecordedAt: recordedAt,
				Source:     "survey",
				Content:    sampleText(rng, negative),
				IngestedAt: end,
			})
		}
	}

	return recs
}

func sampleText(rng *rand.Rand, negative bool) string {
	if negative {
		return negativeTexts[rng.Intn(len(negativeTexts))]
	}
	if rng.Intn(3) == 0 {
		return neutralTexts[rng.Intn(len(neutralTexts))]
	}
	return positiveTexts[rng.Intn(len(positiveTexts))]
}
