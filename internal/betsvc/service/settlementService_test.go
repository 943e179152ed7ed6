package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtsant123/myteer-backend/internal/betsvc/models"
)

func testBet(entries ...models.BetEntry) *models.Bet {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return &models.Bet{
		Entries:     entries,
		TotalAmount: total,
		Status:      models.BetPending,
		TotalWin:    decimal.Zero,
	}
}

func frDirectEntry(number int, amount, rate int64) models.BetEntry {
	return models.BetEntry{
		SubGame:  models.SubGameFR,
		PlayType: models.PlayTypeDirect,
		Number:   number,
		Amount:   decimal.NewFromInt(amount),
		Rate:     decimal.NewFromInt(rate),
	}
}

func TestEvaluateBetDirectWin(t *testing.T) {
	house := testHouse()
	round := testRound(house, time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))
	round.FRResult = intPtr(34)
	round.SRResult = intPtr(12)

	bet := testBet(frDirectEntry(34, 10, 80))

	outcome, done, err := EvaluateBet(bet, round)
	require.NoError(t, err)
	require.True(t, done)

	assert.Equal(t, models.BetWon, outcome.Status)
	assert.True(t, outcome.TotalWin.Equal(decimal.NewFromInt(800)), "10 at rate 80 pays 800, got %s", outcome.TotalWin)
	require.Len(t, outcome.Entries, 1)
	assert.True(t, outcome.Entries[0].IsWinner)
	assert.True(t, outcome.Entries[0].WinAmount.Equal(decimal.NewFromInt(800)))
}

func TestEvaluateBetDirectLoss(t *testing.T) {
	house := testHouse()
	round := testRound(house, time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))
	round.FRResult = intPtr(12)
	round.SRResult = intPtr(45)

	bet := testBet(frDirectEntry(34, 10, 80))

	outcome, done, err := EvaluateBet(bet, round)
	require.NoError(t, err)
	require.True(t, done)

	assert.Equal(t, models.BetLost, outcome.Status)
	assert.True(t, outcome.TotalWin.IsZero())
	assert.False(t, outcome.Entries[0].IsWinner)
}

func TestEvaluateBetMixedEntries(t *testing.T) {
	house := testHouse()
	round := testRound(house, time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))
	round.FRResult = intPtr(34) // digits 3 and 4
	round.SRResult = intPtr(78)

	bet := testBet(
		frDirectEntry(34, 10, 80), // wins 800
		models.BetEntry{ // first digit 3 matches, wins 5*8=40
			SubGame:  models.SubGameFR,
			PlayType: models.PlayTypeHouse,
			Number:   3,
			Amount:   decimal.NewFromInt(5),
			Rate:     decimal.NewFromInt(8),
		},
		models.BetEntry{ // SR ending is 8, entry picked 9, loses
			SubGame:  models.SubGameSR,
			PlayType: models.PlayTypeEnding,
			Number:   9,
			Amount:   decimal.NewFromInt(5),
			Rate:     decimal.NewFromInt(7),
		},
	)

	outcome, done, err := EvaluateBet(bet, round)
	require.NoError(t, err)
	require.True(t, done)

	assert.Equal(t, models.BetWon, outcome.Status)
	assert.True(t, outcome.TotalWin.Equal(decimal.NewFromInt(840)), "expected 840, got %s", outcome.TotalWin)
	assert.True(t, outcome.Entries[0].IsWinner)
	assert.True(t, outcome.Entries[1].IsWinner)
	assert.False(t, outcome.Entries[2].IsWinner)
}

func TestEvaluateBetForecastWaitsForBothResults(t *testing.T) {
	house := testHouse()
	round := testRound(house, time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))
	round.FRResult = intPtr(34)

	bet := testBet(models.BetEntry{
		SubGame:      models.SubGameForecast,
		PlayType:     models.PlayTypeDirect,
		Number:       34,
		SecondNumber: intPtr(53),
		Amount:       decimal.NewFromInt(1),
		Rate:         decimal.NewFromInt(4000),
	})

	_, done, err := EvaluateBet(bet, round)
	require.NoError(t, err)
	assert.False(t, done, "forecast bets stay pending until the SR result arrives")

	round.SRResult = intPtr(53)
	outcome, done, err := EvaluateBet(bet, round)
	require.NoError(t, err)
	require.True(t, done)
	assert.Equal(t, models.BetWon, outcome.Status)
	assert.True(t, outcome.TotalWin.Equal(decimal.NewFromInt(4000)))
}

func TestEvaluateBetFRResultAloneSettlesFROnlyBet(t *testing.T) {
	house := testHouse()
	round := testRound(house, time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))
	round.FRResult = intPtr(34)

	bet := testBet(frDirectEntry(34, 10, 80))

	outcome, done, err := EvaluateBet(bet, round)
	require.NoError(t, err)
	require.True(t, done, "an FR-only bet settles as soon as the FR result is out")
	assert.Equal(t, models.BetWon, outcome.Status)
}

func TestEvaluateBetMixedWithMissingSRStaysPending(t *testing.T) {
	house := testHouse()
	round := testRound(house, time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))
	round.FRResult = intPtr(34)

	bet := testBet(
		frDirectEntry(34, 10, 80),
		models.BetEntry{
			SubGame:  models.SubGameSR,
			PlayType: models.PlayTypeDirect,
			Number:   53,
			Amount:   decimal.NewFromInt(10),
			Rate:     decimal.NewFromInt(60),
		},
	)

	_, done, err := EvaluateBet(bet, round)
	require.NoError(t, err)
	assert.False(t, done, "a bet settles whole or not at all")
}

func TestEvaluateBetRoundsWinToTwoDecimals(t *testing.T) {
	house := testHouse()
	round := testRound(house, time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))
	round.FRResult = intPtr(34)
	round.SRResult = intPtr(12)

	bet := testBet(models.BetEntry{
		SubGame:  models.SubGameFR,
		PlayType: models.PlayTypeDirect,
		Number:   34,
		Amount:   decimal.NewFromFloat(1.11),
		Rate:     decimal.NewFromFloat(8.5),
	})

	outcome, done, err := EvaluateBet(bet, round)
	require.NoError(t, err)
	require.True(t, done)
	// 1.11 * 8.5 = 9.435, paid as 9.44
	assert.True(t, outcome.TotalWin.Equal(decimal.NewFromFloat(9.44)), "got %s", outcome.TotalWin)
}
