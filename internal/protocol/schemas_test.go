package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"leafgame/internal/protocol"
)

func TestValidateCmd(t *testing.T) {
	ok := []string{
		`{"type":"CMD","protocol_version":"1.0","command":"sign_in","user_id":"u1","permission":0}`,
		`{"type":"CMD","protocol_version":"1.0","id":"c1","command":"gift_gold","user_id":"u1","group_id":"g1",
		  "nickname":"Alice","permission":2,"to_me":true,"at":["u2"],"args":["-50"]}`,
	}
	for _, s := range ok {
		require.NoError(t, protocol.ValidateCmd([]byte(s)), s)
	}

	bad := []string{
		`{"type":"ACT","protocol_version":"1.0","command":"x","user_id":"u1","permission":0}`,
		`{"type":"CMD","protocol_version":"1.0","command":"x","permission":0}`,
		`{"type":"CMD","protocol_version":"1.0","command":"x","user_id":"u1","permission":"high"}`,
		`{"type":"CMD","protocol_version":"1.0","command":"x","user_id":"u1","permission":0,"extra":1}`,
		`not json`,
	}
	for _, s := range bad {
		require.Error(t, protocol.ValidateCmd([]byte(s)), s)
	}
}

func TestArgsParse(t *testing.T) {
	p := protocol.ArgsParse([]string{"Diamond", "3", "0.5", "extra"})
	require.Equal(t, protocol.ParsedArgs{Name: "Diamond", N: 3, HasN: true, Limit: 0.5, HasLimit: true, Rest: []string{"extra"}}, p)

	p = protocol.ArgsParse([]string{"111111", "100"})
	require.Equal(t, protocol.ParsedArgs{Name: "111111", N: 100, HasN: true}, p)

	p = protocol.ArgsParse([]string{" 62001 "})
	require.Equal(t, protocol.ParsedArgs{Name: "62001"}, p)

	p = protocol.ArgsParse([]string{"Diamond", "many", "3"})
	require.Equal(t, "Diamond", p.Name)
	require.False(t, p.HasN)
	require.Equal(t, []string{"many", "3"}, p.Rest)

	require.Equal(t, protocol.ParsedArgs{}, protocol.ArgsParse([]string{"", " "}))
}

func TestArgsCount(t *testing.T) {
	n, ok := protocol.ArgsCount([]string{"please", "-20"})
	require.True(t, ok)
	require.Equal(t, -20, n)

	_, ok = protocol.ArgsCount([]string{"some"})
	require.False(t, ok)
}

func TestActorAccessors(t *testing.T) {
	a := protocol.CmdMsg{UserID: "u", At: []string{"v"}, Args: []string{"x", "7"}}.Actor()
	id, ok := a.Mentioned()
	require.True(t, ok)
	require.Equal(t, "v", id)
	n, ok := a.ArgInt(1)
	require.True(t, ok)
	require.Equal(t, 7, n)
	require.True(t, a.Private())
}
