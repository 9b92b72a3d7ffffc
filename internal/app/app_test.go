package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cars/internal/config"
	"cars/internal/domain"
	"cars/internal/handler"
	"cars/internal/middleware"
	"cars/internal/migrations"
	"cars/internal/repository/memory"
	"cars/internal/repository/sqlite"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(driver string, sqlitePath string) *config.Config {
	return &config.Config{
		Store: config.StoreConfig{
			Driver:      driver,
			SQLitePath:  sqlitePath,
			AutoMigrate: true,
		},
	}
}

func TestOpenStore_Memory(t *testing.T) {
	store, err := OpenStore(context.Background(), testConfig(config.DriverMemory, ""), nil, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	assert.Nil(t, store.DB)
	assert.IsType(t, &memory.CarRepository{}, store.Cars)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestOpenStore_SQLiteMigratesAndPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cars.db")

	store, err := OpenStore(ctx, testConfig(config.DriverSQLite, path), nil, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, migrations.DialectSQLite, store.Dialect)
	assert.IsType(t, &sqlite.CarRepository{}, store.Cars)

	saved, err := store.Cars.Save(ctx, &domain.Car{Make: "Volvo", Model: "240", Year: 1988, Color: "blue"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := OpenStore(ctx, testConfig(config.DriverSQLite, path), nil, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	found, err := reopened.Cars.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "240", found.Model)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), testConfig("mongo", ""), nil, zap.NewNop())
	assert.ErrorContains(t, err, `unknown store driver "mongo"`)
}

func TestOpenDatabase_MemoryHasNoDatabase(t *testing.T) {
	_, _, err := OpenDatabase(context.Background(), testConfig(config.DriverMemory, ""), nil)
	assert.ErrorIs(t, err, ErrNoDatabase)
}

func TestNewRouter_HealthRoutes(t *testing.T) {
	cars := memory.NewCarRepository()
	_, err := cars.Save(context.Background(), &domain.Car{Make: "Polestar"})
	require.NoError(t, err)

	store := &Store{Driver: config.DriverMemory, Cars: cars}
	router := NewRouter(RouterDeps{
		HealthHandler: handler.NewHealthHandler(store.Driver, store, store.Cars),
		Logger:        zap.NewNop(),
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp handler.ReadyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Cars)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/cars", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
