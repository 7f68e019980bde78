package main

import "testing"

func TestParseLatLng(t *testing.T) {
	tests := []struct {
		in      string
		lat     float64
		lng     float64
		wantOK  bool
	}{
		{"37.7749,-122.4194", 37.7749, -122.4194, true},
		{" 37.7749 , -122.4194 ", 37.7749, -122.4194, true},
		{"San Jose", 0, 0, false},
		{"1,2,3", 0, 0, false},
		{"abc,def", 0, 0, false},
	}
	for _, tt := range tests {
		loc, ok := parseLatLng(tt.in)
		if ok != tt.wantOK {
			t.Errorf("parseLatLng(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if ok && (loc.Lat != tt.lat || loc.Lng != tt.lng) {
			t.Errorf("parseLatLng(%q) = %v, want %v,%v", tt.in, loc, tt.lat, tt.lng)
		}
	}
}

func TestEstimateTasks(t *testing.T) {
	tests := []struct {
		start, end string
		interval   int
		want       int
	}{
		{"07:00", "09:00", 30, 10}, // 5 points x 2 models
		{"07:00", "07:00", 15, 2},
		{"09:00", "07:00", 15, 0}, // inverted window: size unknown here
		{"bad", "09:00", 15, 0},
		{"07:00", "09:00", 0, 0},
	}
	for _, tt := range tests {
		if got := estimateTasks(tt.start, tt.end, tt.interval); got != tt.want {
			t.Errorf("estimateTasks(%s, %s, %d) = %d, want %d",
				tt.start, tt.end, tt.interval, got, tt.want)
		}
	}
}
