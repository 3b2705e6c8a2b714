package httpapi

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgermint/lendingcore/native/lending"
)

func TestMemoryLedgerTransferMovesBalance(t *testing.T) {
	ledger := NewMemoryLedger()
	from := testID(0x01)
	to := testID(0x02)
	ledger.Credit(from, 100)

	require.NoError(t, ledger.Transfer(from, to, 40))

	fromBalance, err := ledger.Balance(from)
	require.NoError(t, err)
	require.Equal(t, uint64(60), fromBalance)

	toBalance, err := ledger.Balance(to)
	require.NoError(t, err)
	require.Equal(t, uint64(40), toBalance)
}

func TestMemoryLedgerTransferRejectsInsufficientBalance(t *testing.T) {
	ledger := NewMemoryLedger()
	from := testID(0x01)
	to := testID(0x02)

	err := ledger.Transfer(from, to, 1)
	require.ErrorIs(t, err, lending.ErrInsufficientLiquidity)
}

func TestPushedPriceFeedRoundTrips(t *testing.T) {
	feed := NewPushedPriceFeed()
	account := testID(0x11)
	price := lending.Price{Price: 100, Conf: 1, Expo: -2, PublishTime: 1}
	feed.SetPrice(account, price)

	got, err := feed.FetchPythPrice(account)
	require.NoError(t, err)
	require.Equal(t, price, got)

	got, err = feed.FetchChainlinkPrice(account)
	require.NoError(t, err)
	require.Equal(t, price, got)
}

func TestPushedPriceFeedMissingAccountFails(t *testing.T) {
	feed := NewPushedPriceFeed()
	_, err := feed.FetchPythPrice(testID(0x99))
	require.ErrorIs(t, err, lending.ErrAllOraclesFailed)
}
