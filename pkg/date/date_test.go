package date_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jlzm/MoneyNotes/pkg/date"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndString(t *testing.T) {
	d, err := date.Parse("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, time.March, d.Month())
	assert.Equal(t, 1, d.Day())
	assert.Equal(t, "2024-03-01", d.String())

	_, err = date.Parse("01/03/2024")
	assert.Error(t, err)
}

func TestAddDaysNormalizes(t *testing.T) {
	d := date.MustParse("2024-02-28")
	assert.Equal(t, "2024-02-29", d.AddDays(1).String()) // leap year
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())
	assert.Equal(t, "2023-12-31", date.MustParse("2024-01-01").AddDays(-1).String())
}

func TestCompare(t *testing.T) {
	a := date.MustParse("2024-01-01")
	b := date.MustParse("2024-01-02")

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 0, a.Compare(date.New(2024, time.January, 1)))
}

func TestCalendarBoundaries(t *testing.T) {
	d := date.MustParse("2024-03-15") // a Friday
	assert.Equal(t, "2024-03-11", d.StartOfWeek().String())
	assert.Equal(t, "2024-03-01", d.StartOfMonth().String())
	assert.Equal(t, "2024-01-01", d.StartOfYear().String())

	// Week starts Monday even when the day is a Sunday.
	sun := date.MustParse("2024-03-17")
	assert.Equal(t, "2024-03-11", sun.StartOfWeek().String())
}

func TestISOWeek(t *testing.T) {
	// 2024-12-30 belongs to ISO week 1 of 2025.
	y, w := date.MustParse("2024-12-30").ISOWeek()
	assert.Equal(t, 2025, y)
	assert.Equal(t, 1, w)
}

func TestJSONRoundTrip(t *testing.T) {
	type payload struct {
		BillDate date.Date `json:"billDate"`
	}

	data, err := json.Marshal(payload{BillDate: date.MustParse("2024-03-01")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"billDate":"2024-03-01"}`, string(data))

	var decoded payload
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2024-03-01", decoded.BillDate.String())
}
