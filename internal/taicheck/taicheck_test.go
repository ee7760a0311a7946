package taicheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportMismatches(t *testing.T) {
	r := &Report{Transitions: []Transition{
		{Day: 1, Table: 11, System: 11},
		{Day: 2, Table: 13, System: 12},
	}}
	assert.False(t, r.OK())
	assert.Equal(t, []Transition{{Day: 2, Table: 13, System: 12}}, r.Mismatches())

	r.Transitions = r.Transitions[:1]
	assert.True(t, r.OK())
}
