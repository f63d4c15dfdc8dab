package records_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/airrecord-go/airrecord/pkg/airrecord"
	"github.com/airrecord-go/airrecord/pkg/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_RequiresConfig(t *testing.T) {
	t.Parallel()

	reg, err := records.NewRegistry(nil)
	require.ErrorIs(t, err, airrecord.ErrRegistryConfigNeeded)
	assert.True(t, airrecord.IsUsageError(err))
	assert.Nil(t, reg)
}

func TestRegistry_ClientPerCredential(t *testing.T) {
	t.Parallel()

	reg, err := records.NewRegistry(&airrecord.Config{APIKey: "keyA", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	first := reg.Client("keyA")
	assert.Same(t, first, reg.Client("keyA"))
	assert.Same(t, first.RateLimiter(), reg.Client("keyA").RateLimiter())

	other := reg.Client("keyB")
	assert.NotSame(t, first, other)
	assert.NotSame(t, first.RateLimiter(), other.RateLimiter())

	assert.Equal(t, 5, first.RateLimiter().Burst())
}

func TestRegistry_ThrottleSettings(t *testing.T) {
	t.Parallel()

	reg, err := records.NewRegistry(&airrecord.Config{DisableThrottle: true, BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	assert.Nil(t, reg.Client("key").RateLimiter())

	reg, err = records.NewRegistry(&airrecord.Config{RequestsPerSecond: 2, BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Client("key").RateLimiter().Burst())
}

func TestTable_IdentityInheritance(t *testing.T) {
	t.Parallel()

	reg, err := records.NewRegistry(&airrecord.Config{APIKey: "defaultKey", BaseID: "appDefault"})
	require.NoError(t, err)

	t.Run("registry defaults", func(t *testing.T) {
		t.Parallel()

		table := reg.Table("", "Tea")
		assert.Equal(t, "appDefault", table.BaseID())
		assert.Equal(t, "defaultKey", table.APIKey())
		assert.Equal(t, "Tea", table.TableName())
		assert.Equal(t, "Tea", table.Name())
	})

	t.Run("own values win", func(t *testing.T) {
		t.Parallel()

		table := reg.NewTable(records.TableConfig{Name: "Teas", BaseID: "appOwn", TableName: "Tea", APIKey: "ownKey"})
		assert.Equal(t, "appOwn", table.BaseID())
		assert.Equal(t, "ownKey", table.APIKey())
		assert.Equal(t, "Teas", table.Name())
	})

	t.Run("nearest ancestor wins", func(t *testing.T) {
		t.Parallel()

		root := reg.NewTable(records.TableConfig{BaseID: "appRoot", TableName: "Tea", APIKey: "rootKey"})
		middle := reg.NewTable(records.TableConfig{Parent: root, BaseID: "appMiddle"})
		leaf := middle.Variant("Green")

		assert.Same(t, middle, leaf.Parent())
		assert.Equal(t, "appMiddle", leaf.BaseID())
		assert.Equal(t, "rootKey", leaf.APIKey())
		assert.Equal(t, "Tea", leaf.TableName())
		assert.Equal(t, "Green", leaf.Name())
	})
}

func TestTable_MissingIdentity(t *testing.T) {
	t.Parallel()

	store := newFakeStore(t, func(call int, req recordedRequest) (int, interface{}) {
		return http.StatusOK, row("rec1", nil)
	})

	t.Run("no base", func(t *testing.T) {
		reg, err := records.NewRegistry(&airrecord.Config{APIKey: "key", BaseURL: store.server.URL, DisableThrottle: true})
		require.NoError(t, err)

		_, err = reg.Table("", "Tea").Find(context.Background(), "rec1")
		require.ErrorIs(t, err, airrecord.ErrMissingBaseID)
	})

	t.Run("no table name", func(t *testing.T) {
		reg, err := records.NewRegistry(&airrecord.Config{APIKey: "key", BaseID: "app", BaseURL: store.server.URL, DisableThrottle: true})
		require.NoError(t, err)

		_, err = reg.Table("", "").Find(context.Background(), "rec1")
		require.ErrorIs(t, err, airrecord.ErrMissingTableName)
	})

	t.Run("no api key", func(t *testing.T) {
		reg, err := records.NewRegistry(&airrecord.Config{BaseID: "app", BaseURL: store.server.URL, DisableThrottle: true})
		require.NoError(t, err)

		_, err = reg.Table("", "Tea").Find(context.Background(), "rec1")
		require.ErrorIs(t, err, airrecord.ErrMissingAPIKey)
	})

	assert.Empty(t, store.calls())
}

func TestRegistry_Metrics(t *testing.T) {
	t.Parallel()

	store := newFakeStore(t, func(call int, req recordedRequest) (int, interface{}) {
		return okJSON(row("rec1", map[string]interface{}{"Name": "Assam"}))
	})

	collector := airrecord.NewMetricsCollector()
	reg, err := records.NewRegistry(&airrecord.Config{
		APIKey:          "key",
		BaseID:          "appTest",
		BaseURL:         store.server.URL,
		DisableThrottle: true,
		Metrics:         collector,
	})
	require.NoError(t, err)

	_, err = reg.Table("", "Tea").Find(context.Background(), "rec1")
	require.NoError(t, err)

	metrics, found := collector.GetMetrics("GET /v0/appTest/Tea/rec1")
	require.True(t, found)
	assert.Equal(t, int64(1), metrics.TotalRequests)
}
