package domain

import (
	"math"
	"time"
)

// Lead scoring thresholds.
const (
	MinRating      = 4.0
	MinReviewCount = 10

	recentDays     = 60
	veryRecentDays = 30
)

// Score rates how attractive a place is as an outreach lead. It is pure apart
// from now, which is only used for review recency. Places failing the hard
// gate score 0; penalties may push other places below zero.
func Score(p Place, now time.Time) int {
	rating := 0.0
	if p.Rating != nil {
		rating = *p.Rating
	}
	reviews := 0
	if p.UserRatingCount != nil {
		reviews = *p.UserRatingCount
	}

	if p.BusinessStatus != StatusOperational || rating < MinRating || reviews < MinReviewCount {
		return 0
	}

	score := 0

	switch {
	case rating >= 4.3 && rating <= 4.8:
		score += 2
	case rating > 4.8:
		score++
	}

	switch {
	case reviews >= 30 && reviews <= 300:
		score += 2
	case reviews > 300:
		score++
	}

	if days, ok := DaysSinceLastReview(p, now); ok {
		if days <= recentDays {
			score += 2
		}
		if days <= veryRecentDays {
			score++
		}
	}

	if p.WebsiteURI != "" {
		score++
	}

	// too big / too perfect
	if reviews > 500 {
		score--
	}
	if rating == 5.0 && reviews > 80 {
		score--
	}

	return score
}

// DaysSinceLastReview returns the whole number of days (rounded) between now
// and the newest parseable review publish time. ok is false when no review
// carries a usable timestamp, which callers treat as "infinitely old".
func DaysSinceLastReview(p Place, now time.Time) (days int, ok bool) {
	var latest time.Time
	for _, r := range p.Reviews {
		if r.PublishTime == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, r.PublishTime)
		if err != nil {
			continue
		}
		if !ok || t.After(latest) {
			latest, ok = t, true
		}
	}
	if !ok {
		return 0, false
	}
	return int(math.Round(now.Sub(latest).Hours() / 24)), true
}
