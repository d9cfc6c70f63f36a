package commands

import (
	"math/rand"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"

	"leafgame/internal/ledger/catalog"
	"leafgame/internal/ledger/gacha"
	"leafgame/internal/ledger/market"
	"leafgame/internal/ledger/model"
	"leafgame/internal/ledger/store"
	"leafgame/internal/ledger/tuning"
	"leafgame/internal/protocol"
)

const (
	goldCode    = "31000"
	diamondCode = "62001"
	vipCode     = "72001"
	airPackCode = "31001"
)

type fixture struct {
	h     *Handler
	s     *store.Store
	cat   *catalog.Catalog
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat, err := catalog.Load("../../../configs")
	require.NoError(t, err)
	tu := tuning.Defaults()
	s := store.New(nil)
	m := market.New(s, tu, cat)
	g := gacha.New(tu.GachaProbabilities, cat)
	f := &fixture{s: s, cat: cat, clock: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
	f.h = New(s, m, g, cat, tu, rand.New(rand.NewSource(3)))
	f.h.Now = func() time.Time { return f.clock }
	m.Now = f.h.Now
	return f
}

func member(id, group string, args ...string) protocol.Actor {
	return protocol.Actor{UserID: id, GroupID: group, Nickname: id, Args: args}
}

func (f *fixture) gold(t *testing.T, userID, groupID string) int {
	t.Helper()
	u, ok := f.s.User(userID)
	if !ok {
		return 0
	}
	return u.Holding(groupID, f.cat.Gold())
}

func (f *fixture) fund(t *testing.T, userID, groupID string, n int) {
	t.Helper()
	_, _, a := f.s.LocateAccount(userID, groupID)
	require.NoError(t, a.Bank.Deal(goldCode, n))
}

func TestDispatch_UnknownAndGates(t *testing.T) {
	f := newFixture(t)

	_, handled := f.h.Dispatch("fly", member("u1", "g1"))
	require.False(t, handled)

	res, handled := f.h.Dispatch("sign_in", member("u1", ""))
	require.True(t, handled)
	require.Equal(t, protocol.ErrBadRequest, res.Code)

	res, _ = f.h.Dispatch("grant_gold", member("u1", "g1", "100"))
	require.Equal(t, protocol.ErrNoPermission, res.Code)

	res, _ = f.h.Dispatch("gift_gold", member("u1", "g1", "10"))
	require.Equal(t, protocol.ErrBadRequest, res.Code)

	require.Contains(t, f.h.Commands(), "transfer_gold")
	require.NotContains(t, f.h.Commands(), "checkin")
}

func TestSignIn_OncePerDayScaledByGap(t *testing.T) {
	f := newFixture(t)

	res, _ := f.h.Dispatch("checkin", member("u1", "g1"))
	require.True(t, res.OK, res.Text)
	first := f.gold(t, "u1", "g1")
	require.GreaterOrEqual(t, first, 200)
	require.LessOrEqual(t, first, 500)

	res, _ = f.h.Dispatch("sign_in", member("u1", "g1"))
	require.Equal(t, protocol.ErrCooldown, res.Code)

	f.clock = f.clock.Add(48 * time.Hour)
	res, _ = f.h.Dispatch("sign_in", member("u1", "g1"))
	require.True(t, res.OK)
	got := f.gold(t, "u1", "g1") - first
	require.GreaterOrEqual(t, got, 400)
	require.LessOrEqual(t, got, 1000)
}

func TestClaimResetBonus(t *testing.T) {
	f := newFixture(t)
	res, _ := f.h.Dispatch("claim_reset_bonus", member("u1", "g1"))
	require.True(t, res.OK)
	n := f.gold(t, "u1", "g1")
	require.GreaterOrEqual(t, n, 1000)
	require.LessOrEqual(t, n, 2000)

	res, _ = f.h.Dispatch("claim_reset_bonus", member("u1", "g1"))
	require.Equal(t, protocol.ErrCondition, res.Code)
	require.Equal(t, n, f.gold(t, "u1", "g1"))
}

func TestGiftGold_TaxAndDirection(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "u1", "g1", 1000)
	f.fund(t, "u2", "g1", 50)

	a := member("u1", "g1", "100")
	a.At = []string{"u2"}
	res, _ := f.h.Dispatch("gift_gold", a)
	require.True(t, res.OK, res.Text)
	require.Equal(t, 900, f.gold(t, "u1", "g1"))
	require.Equal(t, 148, f.gold(t, "u2", "g1"))
	require.Equal(t, 2, f.s.LocateGroup("g1").Bank[goldCode])

	// Taking from someone else needs privileged permission.
	a.Args = []string{"-40"}
	res, _ = f.h.Dispatch("gift_gold", a)
	require.Equal(t, protocol.ErrNoPermission, res.Code)
	require.Equal(t, 900, f.gold(t, "u1", "g1"))

	a.Permission = 2
	res, _ = f.h.Dispatch("gift_gold", a)
	require.True(t, res.OK, res.Text)
	require.Equal(t, 108, f.gold(t, "u2", "g1"))
	require.Equal(t, 900+40, f.gold(t, "u1", "g1"))

	// Shortfall reports what the payer holds and changes nothing.
	a.Args = []string{"-500"}
	res, _ = f.h.Dispatch("gift_gold", a)
	require.Equal(t, protocol.ErrInsufficient, res.Code)
	require.Equal(t, map[string]int{"have": 108}, res.Data)
	require.Equal(t, 108, f.gold(t, "u2", "g1"))
}

func TestGiftGold_FeeWaiver(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "u1", "g1", 1000)
	require.NoError(t, f.s.LocateUser("u1").Bank.Deal(vipCode, 1))

	a := member("u1", "g1", "500")
	a.At = []string{"u2"}
	res, _ := f.h.Dispatch("gift_gold", a)
	require.True(t, res.OK, res.Text)
	require.Equal(t, 500, f.gold(t, "u2", "g1"))
	require.Zero(t, f.s.LocateGroup("g1").Bank[goldCode])
}

func TestGiftProp(t *testing.T) {
	f := newFixture(t)
	u1 := f.s.LocateUser("u1")
	require.NoError(t, u1.Bank.Deal(diamondCode, 10))

	a := member("u1", "g1", "Diamond", "10")
	a.At = []string{"u2"}
	res, _ := f.h.Dispatch("gift_prop", a)
	require.True(t, res.OK, res.Text)
	require.Zero(t, u1.Bank[diamondCode])
	require.Equal(t, 9, f.s.LocateUser("u2").Bank[diamondCode])
	require.Equal(t, 1, f.s.LocateGroup("g1").Bank[diamondCode])

	a.Args = []string{"Unobtainium", "1"}
	res, _ = f.h.Dispatch("gift_prop", a)
	require.Equal(t, protocol.ErrNotFound, res.Code)
}

func TestDraw_ChargesAndCredits(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "u1", "g1", 1000)

	a := member("u1", "g1", "10")
	a.ToMe = true
	res, _ := f.h.Dispatch("draw", a)
	require.True(t, res.OK, res.Text)
	rep := res.Data.(drawReport)
	require.Equal(t, 10, rep.N)
	require.Equal(t, 500, rep.Cost)
	require.Equal(t, 10, rep.PropN+rep.AirN)

	u := f.s.LocateUser("u1")
	credited := 0
	for _, it := range rep.Items {
		p := f.cat.ByCode[it.Code]
		require.NotEqual(t, model.DomainVoid, p.Domain())
		require.GreaterOrEqual(t, u.Holding("g1", p), it.N)
		credited += it.N
	}
	require.Equal(t, rep.PropN, credited)
	if rep.Refunded {
		require.Equal(t, 1000, f.gold(t, "u1", "g1"))
	} else {
		require.Equal(t, 500, f.gold(t, "u1", "g1"))
	}
}

func TestDraw_AllAirIsRefunded(t *testing.T) {
	f := newFixture(t)
	f.h.gacha = gacha.New(nil, f.cat)
	f.fund(t, "u1", "g1", 100)

	a := member("u1", "g1", "500")
	a.ToMe = true
	res, _ := f.h.Dispatch("draw", a)
	// Clamped to 200 draws, which costs more than the balance.
	require.Equal(t, protocol.ErrInsufficient, res.Code)

	a.Args = []string{"2"}
	res, _ = f.h.Dispatch("draw", a)
	require.True(t, res.OK, res.Text)
	rep := res.Data.(drawReport)
	require.True(t, rep.Refunded)
	require.Equal(t, 2, rep.AirN)
	require.Equal(t, 100, f.gold(t, "u1", "g1"))
	require.Equal(t, 1, f.s.LocateUser("u1").Accounts["g1"].Bank[airPackCode])
}

func TestRegisterAndTransfer(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "u1", "g1", 20000)
	f.fund(t, "u2", "g2", 20000)

	a := member("u1", "g1", "Clover")
	a.ToMe = true
	res, _ := f.h.Dispatch("register", a)
	require.Equal(t, protocol.ErrNoPermission, res.Code)

	a.Permission = 1
	res, _ = f.h.Dispatch("register", a)
	require.True(t, res.OK, res.Text)

	b := member("u2", "g2", "Clover")
	b.ToMe, b.Permission = true, 1
	res, _ = f.h.Dispatch("register", b)
	require.Equal(t, protocol.ErrInvalidName, res.Code)

	res, _ = f.h.Dispatch("transfer_gold", member("u2", "g2", "Clover", "1500"))
	require.True(t, res.OK, res.Text)
	tr := res.Data.(market.TransferResult)
	require.Equal(t, 1000, tr.Out)
	require.Equal(t, 19000, f.gold(t, "u2", "g2"))
	require.Equal(t, 1000, f.gold(t, "u2", "g1"))

	res, _ = f.h.Dispatch("transfer_gold", member("u2", "g2", "Clover", "10"))
	require.Equal(t, protocol.ErrQuota, res.Code)
}

func TestVault(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "u1", "g1", 300)

	res, _ := f.h.Dispatch("vault", member("u1", "g1", "deposit", "Gold", "200"))
	require.True(t, res.OK, res.Text)
	require.Equal(t, 100, f.gold(t, "u1", "g1"))
	require.Equal(t, 200, f.s.LocateGroup("g1").Bank[goldCode])

	res, _ = f.h.Dispatch("vault", member("u1", "g1", "withdraw", "Gold", "50"))
	require.Equal(t, protocol.ErrNoPermission, res.Code)

	admin := member("u1", "g1", "withdraw", "Gold", "500")
	admin.Permission = 1
	res, _ = f.h.Dispatch("vault", admin)
	require.Equal(t, protocol.ErrInsufficient, res.Code)

	admin.Args = []string{"withdraw", "Gold", "50"}
	res, _ = f.h.Dispatch("vault", admin)
	require.True(t, res.OK, res.Text)
	require.Equal(t, 150, f.gold(t, "u1", "g1"))

	res, _ = f.h.Dispatch("vault", member("u1", "g1", "view"))
	require.True(t, res.OK)
	require.Equal(t, 150, res.Data.(vaultView).Bank[goldCode])
}

func TestRanking_Gold(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "a", "g1", 50)
	f.fund(t, "b", "g1", 0)
	f.fund(t, "c", "g1", 120)

	res, _ := f.h.Dispatch("ranking", member("a", "g1", "gold"))
	require.True(t, res.OK, res.Text)
	rows := res.Data.([]rankRow)
	require.Len(t, rows, 2)
	require.Equal(t, "c", rows[0].UserID)
	require.Equal(t, 120.0, rows[0].Score)
	require.Equal(t, "a", rows[1].UserID)

	res, _ = f.h.Dispatch("ranking", member("a", "g1", "karma"))
	require.Equal(t, protocol.ErrBadRequest, res.Code)
	res, _ = f.h.Dispatch("ranking", member("a", "g1", "gold", "nowhere"))
	require.Equal(t, protocol.ErrNotFound, res.Code)
}

func TestMyGold_PrivateListsAccounts(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "u1", "g1", 10)
	f.fund(t, "u1", "g2", 20)

	res, _ := f.h.Dispatch("my_gold", member("u1", ""))
	require.True(t, res.OK)
	rows := res.Data.([]holding)
	require.Len(t, rows, 2)
	require.Equal(t, 10, rows[0].N)
	require.Equal(t, 20, rows[1].N)

	res, _ = f.h.Dispatch("my_gold", member("u1", "g2"))
	require.Equal(t, map[string]int{"gold": 20}, res.Data)
}

func TestGrants(t *testing.T) {
	f := newFixture(t)
	root := member("root", "g1", "Diamond", "3")
	root.Permission = 3
	res, _ := f.h.Dispatch("grant_prop", root)
	require.True(t, res.OK, res.Text)
	require.Equal(t, 3, f.s.LocateUser("root").Bank[diamondCode])

	root.Args = []string{"-5"}
	res, _ = f.h.Dispatch("grant_gold", root)
	require.Equal(t, protocol.ErrInsufficient, res.Code)
	require.Equal(t, map[string]int{"have": -1}, res.Data)
}

func TestSignIn_DaylightSavingDay(t *testing.T) {
	f := newFixture(t)
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	f.clock = time.Date(2026, 3, 8, 12, 0, 0, 0, ny)
	res, _ := f.h.Dispatch("sign_in", member("u1", "g1"))
	require.True(t, res.OK, res.Text)

	// The local day of the spring-forward change is only 23 hours long.
	f.clock = time.Date(2026, 3, 9, 12, 0, 0, 0, ny)
	res, _ = f.h.Dispatch("sign_in", member("u1", "g1"))
	require.True(t, res.OK, res.Text)
	require.Equal(t, 1, res.Data.(map[string]int)["days"])

	f.clock = time.Date(2026, 11, 1, 12, 0, 0, 0, ny)
	res, _ = f.h.Dispatch("sign_in", member("u1", "g1"))
	require.True(t, res.OK, res.Text)
	f.clock = time.Date(2026, 11, 2, 0, 30, 0, 0, ny)
	res, _ = f.h.Dispatch("sign_in", member("u1", "g1"))
	require.True(t, res.OK, res.Text)
	require.Equal(t, 1, res.Data.(map[string]int)["days"])
}

func TestTransferGold_NumericCommunityID(t *testing.T) {
	f := newFixture(t)
	f.fund(t, "u1", "111111", 20000)
	f.fund(t, "u2", "222222", 20000)

	a := member("u1", "111111", "Clover")
	a.ToMe, a.Permission = true, 1
	res, _ := f.h.Dispatch("register", a)
	require.True(t, res.OK, res.Text)

	res, _ = f.h.Dispatch("transfer_gold", member("u2", "222222", "111111", "100"))
	require.True(t, res.OK, res.Text)
	tr := res.Data.(market.TransferResult)
	require.Equal(t, "111111", tr.To)
	require.Equal(t, 100, tr.Out)
	require.Equal(t, 19900, f.gold(t, "u2", "222222"))
}

func TestGiftProp_ByItemCode(t *testing.T) {
	f := newFixture(t)
	u1 := f.s.LocateUser("u1")
	require.NoError(t, u1.Bank.Deal(diamondCode, 10))

	a := member("u1", "g1", diamondCode, "10")
	a.At = []string{"u2"}
	res, _ := f.h.Dispatch("gift_prop", a)
	require.True(t, res.OK, res.Text)
	require.Equal(t, diamondCode, res.Data.(giftReport).Item)
	require.Equal(t, 10, res.Data.(giftReport).N)
	require.Zero(t, u1.Bank[diamondCode])
	require.Equal(t, 9, f.s.LocateUser("u2").Bank[diamondCode])
}

func TestVault_DepositByItemCode(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.s.LocateUser("u1").Bank.Deal(diamondCode, 2))

	res, _ := f.h.Dispatch("vault", member("u1", "g1", "deposit", diamondCode))
	require.True(t, res.OK, res.Text)
	require.Equal(t, 1, f.s.LocateUser("u1").Bank[diamondCode])
	require.Equal(t, 1, f.s.LocateGroup("g1").Bank[diamondCode])
}

func TestPrivateCommandsNeedACommunity(t *testing.T) {
	f := newFixture(t)

	draw := member("u1", "", "1")
	draw.ToMe = true
	res, _ := f.h.Dispatch("draw", draw)
	require.Equal(t, protocol.ErrCondition, res.Code)

	root := member("root", "", "100")
	root.Permission = 3
	res, _ = f.h.Dispatch("grant_gold", root)
	require.Equal(t, protocol.ErrCondition, res.Code)
	root.Args = []string{"Diamond", "3"}
	res, _ = f.h.Dispatch("grant_prop", root)
	require.Equal(t, protocol.ErrCondition, res.Code)

	for _, id := range []string{"u1", "root"} {
		if u, ok := f.s.User(id); ok {
			require.NotContains(t, u.Accounts, "")
		}
	}

	// Once connected, a private request lands in the connected community.
	res, _ = f.h.Dispatch("my_gold", member("root", "g1"))
	require.True(t, res.OK, res.Text)
	root.Args = []string{"100"}
	res, _ = f.h.Dispatch("grant_gold", root)
	require.True(t, res.OK, res.Text)
	require.Equal(t, 100, f.gold(t, "root", "g1"))
	u, ok := f.s.User("root")
	require.True(t, ok)
	require.NotContains(t, u.Accounts, "")
}
