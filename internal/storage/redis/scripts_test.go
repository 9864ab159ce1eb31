package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a miniredis instance for testing Lua scripts
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, mr
}

func TestApplyBatchScript(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer client.Close()

	ctx := context.Background()
	mr.HSet("kquota:settings", "kquota.timer_last_reset", "1700000000000")

	tests := []struct {
		name      string
		args      []interface{}
		wantField map[string]string
		wantGone  []string
	}{
		{
			name: "sets only",
			args: []interface{}{2, "kquota.remaining_seconds", "60", "kquota.used_today_seconds", "0"},
			wantField: map[string]string{
				"kquota.remaining_seconds":  "60",
				"kquota.used_today_seconds": "0",
			},
		},
		{
			name:      "set and delete",
			args:      []interface{}{1, "kquota.timer_first_choice_made", "false", "kquota.timer_last_reset"},
			wantField: map[string]string{"kquota.timer_first_choice_made": "false"},
			wantGone:  []string{"kquota.timer_last_reset"},
		},
		{
			name:     "delete only",
			args:     []interface{}{0, "kquota.remaining_seconds"},
			wantGone: []string{"kquota.remaining_seconds"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := client.Eval(ctx, applyBatchScript, []string{"kquota:settings"}, tt.args...)
			if err := result.Err(); err != nil {
				t.Fatalf("script failed: %v", err)
			}

			for field, want := range tt.wantField {
				if got := mr.HGet("kquota:settings", field); got != want {
					t.Errorf("field %s: expected %q, got %q", field, want, got)
				}
			}
			for _, field := range tt.wantGone {
				if mr.HGet("kquota:settings", field) != "" {
					t.Errorf("field %s: expected deleted", field)
				}
			}
		})
	}
}
