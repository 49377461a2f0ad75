package cache

import (
	"net/http"
	"testing"
	"time"
)

func TestTTLFromHeaders(t *testing.T) {
	tests := []struct {
		name     string
		headers  http.Header
		fallback time.Duration
		wantMin  time.Duration
		wantMax  time.Duration
	}{
		{
			name:     "no headers uses fallback",
			headers:  http.Header{},
			fallback: 10 * time.Minute,
			wantMin:  10 * time.Minute,
			wantMax:  10 * time.Minute,
		},
		{
			name:     "nil headers uses fallback",
			headers:  nil,
			fallback: 10 * time.Minute,
			wantMin:  10 * time.Minute,
			wantMax:  10 * time.Minute,
		},
		{
			name:     "zero fallback means default",
			headers:  http.Header{},
			fallback: 0,
			wantMin:  DefaultTTL,
			wantMax:  DefaultTTL,
		},
		{
			name: "max-age wins",
			headers: http.Header{
				"Cache-Control": []string{"public, max-age=300"},
			},
			fallback: 10 * time.Minute,
			wantMin:  5 * time.Minute,
			wantMax:  5 * time.Minute,
		},
		{
			name: "max-age zero falls through",
			headers: http.Header{
				"Cache-Control": []string{"private, must-revalidate, max-age=0"},
			},
			fallback: 10 * time.Minute,
			wantMin:  10 * time.Minute,
			wantMax:  10 * time.Minute,
		},
		{
			name: "expires header",
			headers: http.Header{
				"Expires": []string{time.Now().Add(1 * time.Hour).UTC().Format(http.TimeFormat)},
			},
			fallback: 10 * time.Minute,
			wantMin:  59 * time.Minute,
			wantMax:  61 * time.Minute,
		},
		{
			name: "expires in the past falls through",
			headers: http.Header{
				"Expires": []string{time.Now().Add(-1 * time.Hour).UTC().Format(http.TimeFormat)},
			},
			fallback: 10 * time.Minute,
			wantMin:  10 * time.Minute,
			wantMax:  10 * time.Minute,
		},
		{
			name: "unparseable expires falls through",
			headers: http.Header{
				"Expires": []string{"not a date"},
			},
			fallback: 10 * time.Minute,
			wantMin:  10 * time.Minute,
			wantMax:  10 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TTLFromHeaders(tt.headers, tt.fallback)
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("TTLFromHeaders() = %v, want between %v and %v", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestParseMaxAge(t *testing.T) {
	tests := []struct {
		name string
		cc   string
		want time.Duration
	}{
		{
			name: "plain max-age",
			cc:   "max-age=600",
			want: 10 * time.Minute,
		},
		{
			name: "max-age among directives",
			cc:   "public, max-age=300, s-maxage=600",
			want: 5 * time.Minute,
		},
		{
			name: "zero max-age",
			cc:   "max-age=0",
			want: 0,
		},
		{
			name: "no max-age",
			cc:   "no-store",
			want: 0,
		},
		{
			name: "garbage value",
			cc:   "max-age=soon",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseMaxAge(tt.cc); got != tt.want {
				t.Errorf("parseMaxAge(%q) = %v, want %v", tt.cc, got, tt.want)
			}
		})
	}
}
