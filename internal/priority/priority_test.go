package priority

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/leapcal/internal/calendar"
)

func TestBuildClasses(t *testing.T) {
	tbl := Build(1958, 2016)

	tests := []struct {
		name string
		day  calendar.Day
		want Class
	}{
		{"IERS beats solstice", calendar.FromYMD(1972, 6, 30), ClassIERS},
		{"IERS december", calendar.FromYMD(2016, 12, 31), ClassIERS},
		{"Finch", calendar.FromYMD(1964, 12, 31), ClassFinch},
		{"solstice", calendar.FromYMD(2000, 6, 30), ClassSolstice},
		{"december solstice", calendar.FromYMD(2001, 12, 31), ClassSolstice},
		{"equinox", calendar.FromYMD(2000, 3, 31), ClassEquinox},
		{"september", calendar.FromYMD(2000, 9, 30), ClassEquinox},
		{"leap february", calendar.FromYMD(2000, 2, 29), ClassMonthEnd},
		{"plain february", calendar.FromYMD(2001, 2, 28), ClassMonthEnd},
		{"mid month", calendar.FromYMD(2000, 2, 15), ClassMidMonth},
		{"ordinary day", calendar.FromYMD(2000, 2, 14), ClassDefault},
		{"outside range", calendar.FromYMD(2050, 6, 30), ClassDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tbl.Class(tt.day))
			assert.Equal(t, int(tt.want), tbl.Get(tt.day))
		})
	}
}

func TestDaysFiltersAndSorts(t *testing.T) {
	tbl := Build(1958, 2016)

	official := tbl.Days(ClassFinch)
	require.Len(t, official, 37)
	assert.Equal(t, calendar.FromYMD(1959, 6, 30), official[0])
	assert.Equal(t, calendar.FromYMD(2016, 12, 31), official[len(official)-1])
	for i := 1; i < len(official); i++ {
		assert.Less(t, official[i-1], official[i])
	}

	assert.Len(t, tbl.Days(ClassIERS), 27)
	assert.Len(t, tbl.Days(ClassDefault), tbl.Len())
}

func TestBuildEmptyRange(t *testing.T) {
	tbl := Build(2000, 1999)
	// only the fixed lists are ranked
	assert.Equal(t, 37, tbl.Len())
	assert.Equal(t, ClassDefault, tbl.Class(calendar.FromYMD(2000, 6, 30)))
}

func TestLenCountsEachDayOnce(t *testing.T) {
	tbl := Build(2001, 2001)
	// 12 month ends + 12 mid-months, none of them official in 2001
	assert.Equal(t, 37+24, tbl.Len())
}
