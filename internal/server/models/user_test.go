package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_Summary(t *testing.T) {
	u := &User{ID: 7, UserName: "alice", DisplayName: "Alice A", Email: "alice@example.com", Enabled: true}

	assert.Equal(t, UserSummary{UserID: "alice", Name: "Alice A", Email: "alice@example.com"}, u.Summary())
}

func TestSummaries(t *testing.T) {
	assert.NotNil(t, Summaries(nil))
	assert.Empty(t, Summaries(nil))

	got := Summaries([]*User{{UserName: "a"}, {UserName: "b"}, {UserName: "a"}})
	assert.Equal(t, []UserSummary{{UserID: "a"}, {UserID: "b"}, {UserID: "a"}}, got)
}
