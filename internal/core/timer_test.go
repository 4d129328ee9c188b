package core

import (
	"testing"
	"time"
)

func TestFormatTime(t *testing.T) {
	ts := time.Date(2024, 6, 15, 12, 30, 45, 123000000, time.UTC)
	got := FormatTime(ts)
	want := "2024-06-15T12:30:45.123Z"
	if got != want {
		t.Errorf("FormatTime() = %q, want %q", got, want)
	}
}

func TestFormatTime_NonUTC(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	ts := time.Date(2024, 6, 15, 12, 0, 0, 0, loc)
	got := FormatTime(ts)
	// Should be converted to UTC: 17:00
	want := "2024-06-15T17:00:00.000Z"
	if got != want {
		t.Errorf("FormatTime(non-UTC) = %q, want %q", got, want)
	}
}

func TestComputeFireAt(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		hours, minutes, seconds int
		want                    int64
	}{
		{0, 0, 5, 1_700_000_005},
		{0, 1, 0, 1_700_000_060},
		{1, 0, 0, 1_700_003_600},
		{2, 30, 15, 1_700_009_015},
	}

	for _, tt := range tests {
		got := ComputeFireAt(now, tt.hours, tt.minutes, tt.seconds)
		if got != tt.want {
			t.Errorf("ComputeFireAt(%d, %d, %d) = %d, want %d",
				tt.hours, tt.minutes, tt.seconds, got, tt.want)
		}
	}
}

func TestTimerTimeLeft(t *testing.T) {
	timer := &Timer{FireAt: 100}

	if got := timer.TimeLeft(40); got != 60 {
		t.Errorf("TimeLeft(40) = %d, want 60", got)
	}
	if got := timer.TimeLeft(100); got != 0 {
		t.Errorf("TimeLeft(100) = %d, want 0", got)
	}
	if got := timer.TimeLeft(200); got != 0 {
		t.Errorf("TimeLeft(past deadline) = %d, want 0", got)
	}
}

func TestValidateCreateTimerRequest_Valid(t *testing.T) {
	req := &CreateTimerRequest{Seconds: 5, URL: "https://example.com/hook"}
	if err := ValidateCreateTimerRequest(req); err != nil {
		t.Errorf("ValidateCreateTimerRequest() unexpected error: %v", err)
	}
}

func TestValidateCreateTimerRequest_NegativeComponent(t *testing.T) {
	tests := []CreateTimerRequest{
		{Hours: -1, URL: "https://example.com"},
		{Minutes: -1, URL: "https://example.com"},
		{Seconds: -1, URL: "https://example.com"},
	}
	for _, req := range tests {
		err := ValidateCreateTimerRequest(&req)
		if err == nil {
			t.Errorf("expected error for %+v", req)
			continue
		}
		if err.Code != ErrCodeValidation {
			t.Errorf("error code = %q, want %q", err.Code, ErrCodeValidation)
		}
	}
}

func TestValidateCreateTimerRequest_ZeroDelay(t *testing.T) {
	req := &CreateTimerRequest{URL: "https://example.com"}
	if err := ValidateCreateTimerRequest(req); err == nil {
		t.Fatal("expected error for all-zero delay")
	}
}

func TestValidateCreateTimerRequest_BadURL(t *testing.T) {
	tests := []string{
		"",
		"not a url",
		"example.com/no-scheme",
		"ftp://example.com/wrong-scheme",
		"http://",
	}
	for _, u := range tests {
		req := &CreateTimerRequest{Seconds: 1, URL: u}
		if err := ValidateCreateTimerRequest(req); err == nil {
			t.Errorf("ValidateCreateTimerRequest(url=%q) expected error", u)
		}
	}
}

func TestValidateCreateTimerRequest_ValidURLs(t *testing.T) {
	tests := []string{
		"http://example.com",
		"https://example.com/path?x=1",
		"http://localhost:8080/hook",
	}
	for _, u := range tests {
		req := &CreateTimerRequest{Minutes: 1, URL: u}
		if err := ValidateCreateTimerRequest(req); err != nil {
			t.Errorf("ValidateCreateTimerRequest(url=%q) unexpected error: %v", u, err)
		}
	}
}

func TestCreateTimerRequestDelay(t *testing.T) {
	req := &CreateTimerRequest{Hours: 1, Minutes: 2, Seconds: 3}
	want := time.Hour + 2*time.Minute + 3*time.Second
	if got := req.Delay(); got != want {
		t.Errorf("Delay() = %v, want %v", got, want)
	}
}
