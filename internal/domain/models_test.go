package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	n, err := ParseLevel("Level 3")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = ParseLevel("  Level 12  ")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = ParseLevel("level 3")
	assert.Error(t, err)

	_, err = ParseLevel("Level 0")
	assert.Error(t, err)

	_, err = ParseLevel("Level x")
	assert.Error(t, err)
}

func TestLevelLabel(t *testing.T) {
	assert.Equal(t, "Level 5", LevelLabel(5))
}

func TestParseMoney(t *testing.T) {
	v, err := ParseMoney("$26,350")
	require.NoError(t, err)
	assert.Equal(t, 26350.0, v)

	v, err = ParseMoney("13175")
	require.NoError(t, err)
	assert.Equal(t, 13175.0, v)

	_, err = ParseMoney("")
	assert.Error(t, err)

	_, err = ParseMoney("$abc")
	assert.Error(t, err)
}

func TestParseOptionalNumber(t *testing.T) {
	v, err := ParseOptionalNumber("  ")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = ParseOptionalNumber("4411.55")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 4411.55, *v)

	_, err = ParseOptionalNumber("nope")
	assert.Error(t, err)
}

func TestStrikesValidate(t *testing.T) {
	valid := Strikes{SellPut: 4400, BuyPut: 4395, SellCall: 4480, BuyCall: 4485}
	assert.NoError(t, valid.Validate())
	assert.Equal(t, 5.0, valid.PutWidth())
	assert.Equal(t, 5.0, valid.CallWidth())

	// Ordering violation
	bad := Strikes{SellPut: 4395, BuyPut: 4400, SellCall: 4480, BuyCall: 4485}
	assert.Error(t, bad.Validate())

	// Unequal widths
	uneven := Strikes{SellPut: 4400, BuyPut: 4395, SellCall: 4480, BuyCall: 4490}
	assert.Error(t, uneven.Validate())
}

func validTrade() *Trade {
	return &Trade{
		UserEmail:        "trader@example.com",
		TradeType:        TradeTypeIronCondor,
		Level:            "Level 2",
		Matrix:           MatrixStandard,
		Strikes:          Strikes{SellPut: 4400, BuyPut: 4395, SellCall: 4480, BuyCall: 4485},
		ContractQuantity: 1,
		EntryPremium:     1.75,
		Fees:             6.56,
		Status:           TradeStatusOpen,
		TradeDate:        time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestTradeValidate(t *testing.T) {
	assert.NoError(t, validTrade().Validate())

	missing := validTrade()
	missing.UserEmail = ""
	assert.Error(t, missing.Validate())

	badLevel := validTrade()
	badLevel.Level = "Tier 2"
	assert.Error(t, badLevel.Validate())

	badMatrix := validTrade()
	badMatrix.Matrix = "diagonal"
	assert.Error(t, badMatrix.Validate())

	badQty := validTrade()
	badQty.ContractQuantity = 0
	assert.Error(t, badQty.Validate())

	badPremium := validTrade()
	badPremium.EntryPremium = 0
	assert.Error(t, badPremium.Validate())

	badStatus := validTrade()
	badStatus.Status = "PENDING"
	assert.Error(t, badStatus.Validate())
}

func TestTradeDay(t *testing.T) {
	trade := validTrade()
	trade.TradeDate = time.Date(2024, 3, 15, 21, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), trade.TradeDay())
}

func TestTradeLevelNumber(t *testing.T) {
	trade := validTrade()
	trade.Level = "Level 4"
	assert.Equal(t, 4, trade.LevelNumber())

	trade.Level = "garbage"
	assert.Equal(t, 0, trade.LevelNumber())
}
