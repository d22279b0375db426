package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ValidationFailed("friend")
	m.ValidationFailed("friend")
	m.SnapshotPublished(StreamWishlist)
	m.Mutation("create", nil)
	m.Mutation("create", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.validationFailures.WithLabelValues("friend")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshots.WithLabelValues(StreamWishlist)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("create", "error")))
}

func TestSubscriptionGauge(t *testing.T) {
	m := New()

	doneA := m.SubscriptionOpened(StreamProfile)
	doneB := m.SubscriptionOpened(StreamProfile)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.subscriptions.WithLabelValues(StreamProfile)))

	doneA()
	doneB()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.subscriptions.WithLabelValues(StreamProfile)))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ValidationFailed("user")
		m.SnapshotPublished(StreamProfile)
		m.SubscriptionOpened(StreamProfile)()
		m.Mutation("delete", nil)
		m.ObserveRPC("/x", "ok", time.Second)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRPC("/wishlist.v1.WishlistService/CreateItem", "ok", 10*time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "wishlist_rpc_duration_seconds_count"))
}
