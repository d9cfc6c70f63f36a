package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(commands.WithLabelValues("sign_in", "OK"))
	RecordCommand("sign_in", "", time.Millisecond)
	require.Equal(t, before+1, testutil.ToFloat64(commands.WithLabelValues("sign_in", "OK")))

	RecordTransfer(134, 400)
	require.GreaterOrEqual(t, testutil.ToFloat64(transferGold.WithLabelValues("in")), 400.0)

	RecordSave(true, 3, 2)
	require.Equal(t, 3.0, testutil.ToFloat64(ledgerUsers))
	require.Equal(t, 2.0, testutil.ToFloat64(ledgerGroups))
}

func TestHandlerExposesNamespace(t *testing.T) {
	RecordDraw(0)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "leafgame_gacha_draws_total"))
}
