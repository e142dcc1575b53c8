package services

import (
	"time"

	"voicemail-backend/internal/models"
)

// DailyLetterLimitPerFriend is the maximum number of letters one sender may
// send to one specific friend within a single calendar day.
const DailyLetterLimitPerFriend = 2

// limitDateLayout is the calendar-day key stored in the bucket.
const limitDateLayout = "2006-01-02"

// LimitDate returns the bucket date key for the given time.
func LimitDate(t time.Time) string {
	return t.Format(limitDateLayout)
}

// ApplyDailyLimits computes the sender's next daily limit bucket after
// sending one letter to each listed recipient. The stored bucket is treated
// as all-zero when its date is not today. Every recipient is checked before
// any count is taken, so a multi-recipient send either fits entirely or is
// rejected entirely; on rejection the id of the first over-limit recipient
// is returned and the stored bucket is left untouched by the caller.
//
// The input bucket is never mutated; the caller persists the returned bucket
// as a whole replacement.
func ApplyDailyLimits(bucket models.DailyLimits, today string, recipientIDs []string) (models.DailyLimits, string, bool) {
	counts := make(map[string]int)
	if bucket.Date == today {
		for id, n := range bucket.Counts {
			counts[id] = n
		}
	}

	for _, recipientID := range recipientIDs {
		current := counts[recipientID]
		if current >= DailyLetterLimitPerFriend {
			return models.DailyLimits{}, recipientID, false
		}
		counts[recipientID] = current + 1
	}

	return models.DailyLimits{Date: today, Counts: counts}, "", true
}
