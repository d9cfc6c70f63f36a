package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGroupQuotaDefaults(t *testing.T) {
	g := NewGroup("g1")
	q := g.Quota("g2", 1000)
	require.Equal(t, 1000, q.Limit)
	q.Record = 400
	require.Same(t, q, g.Quota("g2", 5))
	require.Equal(t, 600, q.Remaining())

	q.Limit = 0
	require.Equal(t, 5, g.Quota("g2", 5).Limit)
}

func TestGroupNameAndResets(t *testing.T) {
	g := NewGroup("1234")
	require.Equal(t, "1234", g.Name())
	g.Stock = &Stock{ID: "1234", Name: "Clover"}
	require.Equal(t, "Clover", g.Name())

	g.RecordReset("a")
	g.RecordReset("a")
	g.RecordReset("b")
	require.Equal(t, 3, g.ResetCount())
}

func TestLedgerJSONRoundTripNormalizes(t *testing.T) {
	raw := `{"user_dict":{"u1":{"accounts":{"g1":{"bank":{"31000":5}}}}},"group_dict":{"g1":{"namelist":["u2","u1"]}}}`
	var l Ledger
	require.NoError(t, json.Unmarshal([]byte(raw), &l))
	l.Normalize()

	u := l.Users["u1"]
	require.Equal(t, "u1", u.ID)
	require.NotNil(t, u.Bank)
	require.NotNil(t, u.Accounts["g1"].Invest)
	g := l.Groups["g1"]
	require.Equal(t, 1, g.Level)
	require.True(t, g.Namelist.Has("u2"))

	b, err := json.Marshal(g.Namelist)
	require.NoError(t, err)
	require.JSONEq(t, `["u1","u2"]`, string(b))
}
