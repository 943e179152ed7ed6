package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryWinsPlayTypes(t *testing.T) {
	round := newTestRound(time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC))
	round.FRResult = intPtr(34)
	round.SRResult = intPtr(53)

	cases := []struct {
		name  string
		entry BetEntry
		want  bool
	}{
		{"direct exact match", BetEntry{SubGame: SubGameFR, PlayType: PlayTypeDirect, Number: 34}, true},
		{"direct mismatch", BetEntry{SubGame: SubGameFR, PlayType: PlayTypeDirect, Number: 43}, false},
		{"house first digit", BetEntry{SubGame: SubGameFR, PlayType: PlayTypeHouse, Number: 39}, true},
		{"house wrong first digit", BetEntry{SubGame: SubGameFR, PlayType: PlayTypeHouse, Number: 44}, false},
		{"ending last digit", BetEntry{SubGame: SubGameFR, PlayType: PlayTypeEnding, Number: 94}, true},
		{"ending wrong last digit", BetEntry{SubGame: SubGameFR, PlayType: PlayTypeEnding, Number: 43}, false},
		{"sr direct", BetEntry{SubGame: SubGameSR, PlayType: PlayTypeDirect, Number: 53}, true},
		{"forecast direct both match", BetEntry{SubGame: SubGameForecast, PlayType: PlayTypeDirect, Number: 34, SecondNumber: intPtr(53)}, true},
		{"forecast direct one mismatch", BetEntry{SubGame: SubGameForecast, PlayType: PlayTypeDirect, Number: 34, SecondNumber: intPtr(35)}, false},
		{"forecast house both first digits", BetEntry{SubGame: SubGameForecast, PlayType: PlayTypeHouse, Number: 31, SecondNumber: intPtr(59)}, true},
		{"forecast ending both last digits", BetEntry{SubGame: SubGameForecast, PlayType: PlayTypeEnding, Number: 4, SecondNumber: intPtr(13)}, true},
		{"forecast ending one wrong", BetEntry{SubGame: SubGameForecast, PlayType: PlayTypeEnding, Number: 4, SecondNumber: intPtr(14)}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EntryWins(&tc.entry, round)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEntryWinsZeroPadding(t *testing.T) {
	// single digit results behave as their two-digit zero-padded form
	round := newTestRound(time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC))
	round.FRResult = intPtr(7) // "07"

	house, err := EntryWins(&BetEntry{SubGame: SubGameFR, PlayType: PlayTypeHouse, Number: 5}, round)
	require.NoError(t, err)
	assert.True(t, house, "05 and 07 share the house digit 0")

	ending, err := EntryWins(&BetEntry{SubGame: SubGameFR, PlayType: PlayTypeEnding, Number: 97}, round)
	require.NoError(t, err)
	assert.True(t, ending)
}

func TestEntryWinsRequiresResult(t *testing.T) {
	round := newTestRound(time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC))
	round.FRResult = intPtr(34)

	_, err := EntryWins(&BetEntry{SubGame: SubGameSR, PlayType: PlayTypeDirect, Number: 10}, round)
	assert.Error(t, err)

	_, err = EntryWins(&BetEntry{SubGame: SubGameForecast, PlayType: PlayTypeDirect, Number: 34, SecondNumber: intPtr(10)}, round)
	assert.Error(t, err, "forecast needs both results")
}

func TestDigits(t *testing.T) {
	first, last := Digits(34)
	assert.Equal(t, 3, first)
	assert.Equal(t, 4, last)

	first, last = Digits(7)
	assert.Equal(t, 0, first)
	assert.Equal(t, 7, last)
}
