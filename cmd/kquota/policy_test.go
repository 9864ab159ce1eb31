package main

import "testing"

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"0", 0, false},
		{"5400", 5400, false},
		{"1h30m", 5400, false},
		{"90s", 90, false},
		{"1500ms", 1, false},
		{"-5m", 0, true},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		got, err := parseSeconds(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("parseSeconds(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseSeconds(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("parseSeconds(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestValidKeysCoverDefaults(t *testing.T) {
	keys := validKeys()
	for _, key := range []string{"engine.poll_interval", "storage.redis.key", "executor.terminate_blocked", "control.url"} {
		if !keys[key] {
			t.Fatalf("expected %s to be a valid key", key)
		}
	}
}
