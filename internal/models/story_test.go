package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStoryActiveBoundary(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"expired one second ago", now.Add(-time.Second), false},
		{"expires in one second", now.Add(time.Second), true},
		{"expires exactly now", now, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Story{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, s.Active(now))
		})
	}
}

func TestStoryTTLIsDay(t *testing.T) {
	assert.Equal(t, 24*time.Hour, StoryTTL)
}
