package tuning

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTuning(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	tu, err := Load(writeTuning(t, "company_public_gold: 40000\nsign_gold: [10, 20]\n"))
	require.NoError(t, err)
	require.Equal(t, 40000, tu.CompanyPublicGold)
	require.Equal(t, 2000, tu.DefaultTransferLimit())
	require.Equal(t, Range{10, 20}, tu.SignGold)
	require.Equal(t, 0.56, tu.RegisterGiniCeiling)
}

func TestLoad_EmptyFileIsDefaults(t *testing.T) {
	tu, err := Load(writeTuning(t, ""))
	require.NoError(t, err)
	require.Equal(t, Defaults(), tu)
}

func TestLoad_RejectsBadProbabilities(t *testing.T) {
	_, err := Load(writeTuning(t, "gacha_probabilities: [0.9, 0.2]\n"))
	require.Error(t, err)
}

func TestLoad_RejectsUnreadKeys(t *testing.T) {
	_, err := Load(writeTuning(t, "sign_gold: [10, 20]\nsecurity_gold: [100, 300]\n"))
	require.ErrorContains(t, err, "security_gold")
}

func TestLoad_RepoConfig(t *testing.T) {
	tu, err := Load("../../../configs/tuning.yaml")
	require.NoError(t, err)
	require.NoError(t, tu.Validate())
}

func TestRangeRoll(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	r := Range{200, 500}
	for i := 0; i < 1000; i++ {
		n := r.Roll(rng)
		require.GreaterOrEqual(t, n, 200)
		require.LessOrEqual(t, n, 500)
	}
	require.Equal(t, 7, Range{7, 7}.Roll(rng))
}
