package services

import (
	"testing"
	"time"

	"voicemail-backend/internal/models"

	"github.com/google/go-cmp/cmp"
)

func TestApplyDailyLimits(t *testing.T) {
	today := "2026-08-28"

	tests := []struct {
		name       string
		bucket     models.DailyLimits
		recipients []string
		wantBucket models.DailyLimits
		wantOverID string
		wantOK     bool
	}{
		{
			name:       "FirstSendOfDay",
			bucket:     models.DailyLimits{},
			recipients: []string{"r1"},
			wantBucket: models.DailyLimits{Date: today, Counts: map[string]int{"r1": 1}},
			wantOK:     true,
		},
		{
			name:       "SecondSendAllowed",
			bucket:     models.DailyLimits{Date: today, Counts: map[string]int{"r1": 1}},
			recipients: []string{"r1"},
			wantBucket: models.DailyLimits{Date: today, Counts: map[string]int{"r1": 2}},
			wantOK:     true,
		},
		{
			name:       "ThirdSendRejected",
			bucket:     models.DailyLimits{Date: today, Counts: map[string]int{"r1": 2}},
			recipients: []string{"r1"},
			wantOverID: "r1",
			wantOK:     false,
		},
		{
			name:       "StaleBucketTreatedAsZero",
			bucket:     models.DailyLimits{Date: "2026-08-27", Counts: map[string]int{"r1": 2, "r2": 2}},
			recipients: []string{"r1"},
			wantBucket: models.DailyLimits{Date: today, Counts: map[string]int{"r1": 1}},
			wantOK:     true,
		},
		{
			name:       "FanOutAllWithinLimit",
			bucket:     models.DailyLimits{Date: today, Counts: map[string]int{"r1": 1}},
			recipients: []string{"r1", "r2"},
			wantBucket: models.DailyLimits{Date: today, Counts: map[string]int{"r1": 2, "r2": 1}},
			wantOK:     true,
		},
		{
			name:       "FanOutRejectedWhenAnyRecipientOver",
			bucket:     models.DailyLimits{Date: today, Counts: map[string]int{"r1": 1, "r2": 2}},
			recipients: []string{"r1", "r2"},
			wantOverID: "r2",
			wantOK:     false,
		},
		{
			name:       "DuplicateRecipientCountsTwice",
			bucket:     models.DailyLimits{Date: today, Counts: map[string]int{"r1": 1}},
			recipients: []string{"r1", "r1"},
			wantOverID: "r1",
			wantOK:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, overID, ok := ApplyDailyLimits(tt.bucket, today, tt.recipients)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if overID != tt.wantOverID {
				t.Errorf("over-limit recipient = %q, want %q", overID, tt.wantOverID)
			}
			if tt.wantOK {
				if diff := cmp.Diff(tt.wantBucket, next); diff != "" {
					t.Errorf("bucket mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestApplyDailyLimitsDoesNotMutateInput(t *testing.T) {
	today := "2026-08-28"
	bucket := models.DailyLimits{Date: today, Counts: map[string]int{"r1": 1}}

	if _, _, ok := ApplyDailyLimits(bucket, today, []string{"r1", "r2"}); !ok {
		t.Fatal("expected send to be allowed")
	}

	want := models.DailyLimits{Date: today, Counts: map[string]int{"r1": 1}}
	if diff := cmp.Diff(want, bucket); diff != "" {
		t.Errorf("input bucket was mutated (-want +got):\n%s", diff)
	}
}

func TestLimitDate(t *testing.T) {
	ts := time.Date(2026, 8, 28, 23, 59, 0, 0, time.UTC)
	if got := LimitDate(ts); got != "2026-08-28" {
		t.Errorf("LimitDate = %q, want %q", got, "2026-08-28")
	}
}
