package cfg

import (
	"testing"
	"time"

	"github.com/DRSN-tech/catalog-categories/pkg/e"
	"github.com/DRSN-tech/catalog-categories/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("POSTGRES_USER", "catalog")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "categories")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("KAFKA_TOPIC", "category-events")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	c, err := Load(logger.Nop{})

	require.NoError(t, err)
	assert.Equal(t, "8080", c.Http.Port)
	assert.Equal(t, 5*time.Second, c.Http.ReadTimeout)
	assert.Equal(t, "8091", c.Grpc.Port)
	assert.Equal(t, "localhost", c.Db.Host)
	assert.Equal(t, "file://db/migrations", c.Db.MigrationsURL)
	assert.Equal(t, 5*time.Minute, c.Redis.CategoryTTL)
	assert.Equal(t, 3*time.Second, c.Redis.Timeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, 3, c.Kafka.Partitions)
	assert.Equal(t, 10*time.Second, c.App.ShutdownTimeout)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("CATEGORY_TTL", "30s")
	t.Setenv("WRITE_TIMEOUT", "7s")
	t.Setenv("KAFKA_PARTITIONS", "6")

	c, err := Load(logger.Nop{})

	require.NoError(t, err)
	assert.Equal(t, "9000", c.Http.Port)
	assert.Equal(t, 30*time.Second, c.Redis.CategoryTTL)
	assert.Equal(t, 7*time.Second, c.Redis.Timeout)
	assert.Equal(t, 6, c.Kafka.Partitions)
}

func TestLoadMissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("POSTGRES_USER", "")

	_, err := Load(logger.Nop{})
	assert.Error(t, err)
}

func TestLoadInvalidValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("KAFKA_PARTITIONS", "many")

	_, err := Load(logger.Nop{})
	assert.ErrorIs(t, err, e.ErrIncorrectEnvVariable)

	setRequiredEnv(t)
	t.Setenv("KAFKA_PARTITIONS", "")
	t.Setenv("HTTP_READ_TIMEOUT", "soon")

	_, err = Load(logger.Nop{})
	assert.Error(t, err)
}
