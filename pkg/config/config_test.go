package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ServiceName, cfg.ServiceName)
	assert.Equal(t, "memory", cfg.DB.Driver)
	assert.Equal(t, int64(10*1024*1024), cfg.Storage.MaxImageBytes)
	assert.Equal(t, "product-images", cfg.Storage.Folder)
	assert.Equal(t, 32, cfg.Realtime.ClientBuffer)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_CONN_MAX_LIFETIME", "5m")
	t.Setenv("DB_LOG_LEVEL", "silent")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORAGE_MAX_IMAGE_BYTES", "2048")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.DB.ConnMaxLifetime)
	assert.Equal(t, logger.Silent, cfg.DB.LogLevel)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, int64(2048), cfg.Storage.MaxImageBytes)
}

func TestLoadRejectsCloudinaryWithoutURL(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "cloudinary")
	t.Setenv("CLOUDINARY_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetDSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", c.GetDSN())
}
