package model

import (
	"testing"
	"time"
)

func TestShareIsGone(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	maxViews := int64(10)

	cases := []struct {
		name  string
		share ConversationShare
		want  bool
	}{
		{"live share", ConversationShare{}, false},
		{"revoked", ConversationShare{RevokedAt: &past}, true},
		{"expired", ConversationShare{ExpiresAt: &past}, true},
		{"not yet expired", ConversationShare{ExpiresAt: &future}, false},
		{"views exhausted", ConversationShare{ViewCount: 10, MaxViews: &maxViews}, true},
		{"views remaining", ConversationShare{ViewCount: 9, MaxViews: &maxViews}, false},
		{"unlimited views", ConversationShare{ViewCount: 1000000}, false},
	}

	for _, tc := range cases {
		if got := tc.share.IsGone(now); got != tc.want {
			t.Errorf("%s: IsGone = %v, want %v", tc.name, got, tc.want)
		}
	}
}
