package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHouse() *House {
	return &House{
		Name: "Khanapara",
		Rates: HouseRates{
			FR:       PlayRates{Direct: decimal.NewFromInt(80), House: decimal.NewFromInt(8), Ending: decimal.NewFromInt(8)},
			SR:       PlayRates{Direct: decimal.NewFromInt(60), House: decimal.NewFromInt(7), Ending: decimal.NewFromInt(7)},
			Forecast: PlayRates{Direct: decimal.NewFromInt(4000), House: decimal.NewFromInt(40), Ending: decimal.NewFromInt(40)},
		},
		DeadlineTime: "15:30",
		Timezone:     "Asia/Kolkata",
		Weekdays:     []int{1, 2, 3, 4, 5, 6},
		Active:       true,
		AutoCreate:   true,
	}
}

func TestHouseRateLookup(t *testing.T) {
	house := newTestHouse()

	rate, err := house.Rate(SubGameFR, PlayTypeDirect)
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(80)))

	rate, err = house.Rate(SubGameForecast, PlayTypeEnding)
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(40)))

	_, err = house.Rate(SubGameFR, PlayType("TRIPLE"))
	assert.Error(t, err)
}

func TestHouseRateRejectsNonPositive(t *testing.T) {
	house := newTestHouse()
	house.Rates.SR.House = decimal.Zero

	_, err := house.Rate(SubGameSR, PlayTypeHouse)
	assert.Error(t, err)
}

func TestHouseDeadlineOn(t *testing.T) {
	house := newTestHouse()

	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, loc)
	deadline, err := house.DeadlineOn(date)
	require.NoError(t, err)

	// 15:30 IST is 10:00 UTC
	assert.Equal(t, time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC), deadline)
	assert.Equal(t, time.UTC, deadline.Location())
}

func TestHouseDeadlineOnBadConfig(t *testing.T) {
	house := newTestHouse()
	house.Timezone = "Mars/Olympus"
	_, err := house.DeadlineOn(time.Now())
	assert.Error(t, err)

	house = newTestHouse()
	house.DeadlineTime = "25:99"
	_, err = house.DeadlineOn(time.Now())
	assert.Error(t, err)
}

func TestHouseOperatesOn(t *testing.T) {
	house := newTestHouse() // Mon-Sat

	assert.True(t, house.OperatesOn(time.Monday))
	assert.True(t, house.OperatesOn(time.Saturday))
	assert.False(t, house.OperatesOn(time.Sunday))
}
