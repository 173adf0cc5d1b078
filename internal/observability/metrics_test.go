package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type probe struct {
	ID   uint
	Name string
}

func TestRegisterQueryMetrics_ObservesStatements(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, RegisterQueryMetrics(db))
	require.NoError(t, db.AutoMigrate(&probe{}))

	require.NoError(t, db.Create(&probe{Name: "a"}).Error)
	var got []probe
	require.NoError(t, db.Find(&got).Error)

	assert.Len(t, got, 1)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(DatabaseQueryLatency), 2)
}

func TestLikeToggles_CountsByResult(t *testing.T) {
	before := testutil.ToFloat64(LikeToggles.WithLabelValues("liked"))
	LikeToggles.WithLabelValues("liked").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(LikeToggles.WithLabelValues("liked")))
}
