package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCode(t *testing.T) {
	c, err := ParseCode("52013")
	require.NoError(t, err)
	require.Equal(t, 5, c.Rarity)
	require.Equal(t, DomainPersonal, c.Domain)
	require.Equal(t, FlowPermanent, c.Flow)
	require.Equal(t, 13, c.Number)

	for _, bad := range []string{"", "310", "3a001", "23001", "33001", "31201"} {
		_, err := ParseCode(bad)
		require.Error(t, err, "code %q", bad)
	}
}

func TestPropAndStockRouteIdentically(t *testing.T) {
	gold, err := NewProp("31000", "Gold", "#FFD700", "", "")
	require.NoError(t, err)
	card, err := NewProp("72001", "Diamond Card", "#00FFFF", "", "")
	require.NoError(t, err)
	share := &Stock{ID: "g1", Name: "Clover"}

	u := NewUser("u1")
	require.NoError(t, u.Deal("g1", gold, 10))
	require.NoError(t, u.Deal("g1", share, 4))
	require.NoError(t, u.Deal("g1", card, 1))

	acct := u.Accounts["g1"]
	require.Equal(t, 10, acct.Bank["31000"])
	require.Equal(t, 4, acct.Bank["g1"])
	require.Equal(t, Bank{"72001": 1}, u.Bank)
	require.Equal(t, 1, u.Holding("g1", card))
}

func TestConnectingIsIdempotent(t *testing.T) {
	u := NewUser("u1")
	u.Name = "alice"
	a := u.Connecting("g1")
	require.Same(t, a, u.Connecting("g1"))
	require.Equal(t, "alice", a.Nickname)
	u.Connect = "g1"
	require.Same(t, a, u.Connecting(""))
}
