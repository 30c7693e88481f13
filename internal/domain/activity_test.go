package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightFor(t *testing.T) {
	weight, ok := WeightFor(ActivityMessage)
	assert.True(t, ok)
	assert.Equal(t, 1.0, weight)

	weight, ok = WeightFor(ActivityReaction)
	assert.True(t, ok)
	assert.Equal(t, 0.5, weight)

	_, ok = WeightFor("thread_create")
	assert.False(t, ok)
	_, ok = WeightFor("")
	assert.False(t, ok)
}

func TestValidMemberEventKind(t *testing.T) {
	assert.True(t, ValidMemberEventKind(MemberJoin))
	assert.True(t, ValidMemberEventKind(MemberLeave))
	assert.False(t, ValidMemberEventKind("ban"))
}
