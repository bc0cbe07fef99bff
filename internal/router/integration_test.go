//go:build integration

package router_test

// Runs the HTTP API against real PostgreSQL and Redis containers.
//   go test -tags integration ./internal/router/...

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"gorm.io/gorm"

	"github.com/fernandosserra/unython/internal/config"
	"github.com/fernandosserra/unython/internal/infra"
	"github.com/fernandosserra/unython/internal/middleware"
	"github.com/fernandosserra/unython/internal/router"
	"github.com/fernandosserra/unython/internal/testutil"
	"github.com/fernandosserra/unython/internal/worker"
)

type pgEnv struct {
	api *api
	rdb *redis.Client
	db  *gorm.DB
}

func setupPostgres(t *testing.T, revalidar bool) *pgEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("unython_test"),
		tcPostgres.WithUsername("unython"),
		tcPostgres.WithPassword("unython"),
		testcontainers.WithWaitStrategy(tcPostgres.BasicWaitStrategies()...),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })
	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })
	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := infra.NewDatabase(pgURL)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))
	// Second run is a no-op
	require.NoError(t, infra.RunMigrations(db))

	rdb, err := infra.NewRedis(rdURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: secret, RateLimitPerMinute: 10000, VendaRevalidarEstoque: revalidar}
	appCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	engine := router.New(appCtx, cfg, db, rdb, infra.NewCircuitBreaker(infra.DefaultCBConfig("redis-jobs")))

	return &pgEnv{api: &api{t: t, engine: engine, db: db}, rdb: rdb, db: db}
}

func TestPostgresVendaEnfileiraJobs(t *testing.T) {
	env := setupPostgres(t, false)
	ctx := context.Background()
	vendedor := token(t, "7", middleware.RoleVendedor)
	cola := testutil.SeedItem(t, env.db, "Cola", "2.50", "5.00")
	r1 := testutil.SeedCaixa(t, env.db, "R1")

	w := env.api.do(http.MethodPost, "/v1/caixas/"+itoa(r1.ID)+"/abrir", vendedor, map[string]interface{}{"valor_abertura": "100.00"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	movID := int64(decode(t, w)["id"].(float64))

	w = env.api.do(http.MethodPost, "/v1/estoque/movimentos", vendedor, map[string]interface{}{
		"item_id": cola.ID, "quantidade": 18, "tipo_movimento": "Entrada",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.api.do(http.MethodPost, "/v1/vendas", vendedor, map[string]interface{}{
		"movimento_caixa_id": movID,
		"evento_id":          1,
		"chave_idempotencia": "pdv-1-0001",
		"itens":              []map[string]interface{}{{"item_id": cola.ID, "quantidade": 2, "valor_unitario": "5.00"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.api.do(http.MethodGet, "/v1/estoque/saldo/"+itoa(cola.ID), vendedor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(16), decode(t, w)["saldo_atual"])

	n, err := env.rdb.LLen(ctx, worker.QueueRecibo).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = env.rdb.LLen(ctx, worker.QueueEstoque).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	w = env.api.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "connected", decode(t, w)["redis"])
}

func TestPostgresUmMovimentoAbertoPorCaixa(t *testing.T) {
	env := setupPostgres(t, false)
	r1 := testutil.SeedCaixa(t, env.db, "R1")

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[float64]int{}
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(u int) {
			defer wg.Done()
			w := env.api.do(http.MethodPost, "/v1/caixas/"+itoa(r1.ID)+"/abrir",
				token(t, itoa(int64(u+1)), middleware.RoleVendedor), map[string]interface{}{"valor_abertura": "0"})
			if w.Code != http.StatusCreated {
				return
			}
			mu.Lock()
			ids[decode(t, w)["id"].(float64)]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Len(t, ids, 1)
	assert.Equal(t, int64(1), testutil.Count(t, env.db, "movimentos_caixa"))
}

func TestPostgresRevalidacaoImpedeSaldoNegativo(t *testing.T) {
	env := setupPostgres(t, true)
	vendedor := token(t, "7", middleware.RoleVendedor)
	vela := testutil.SeedItem(t, env.db, "Vela", "1.00", "3.00")
	r1 := testutil.SeedCaixa(t, env.db, "R1")

	w := env.api.do(http.MethodPost, "/v1/caixas/"+itoa(r1.ID)+"/abrir", vendedor, map[string]interface{}{"valor_abertura": "0"})
	require.Equal(t, http.StatusCreated, w.Code)
	movID := int64(decode(t, w)["id"].(float64))
	w = env.api.do(http.MethodPost, "/v1/estoque/movimentos", vendedor, map[string]interface{}{
		"item_id": vela.ID, "quantidade": 3, "tipo_movimento": "Entrada",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		statuses = map[int]int{}
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := env.api.do(http.MethodPost, "/v1/vendas", vendedor, map[string]interface{}{
				"movimento_caixa_id": movID,
				"evento_id":          1,
				"itens":              []map[string]interface{}{{"item_id": vela.ID, "quantidade": 1, "valor_unitario": "3.00"}},
			})
			mu.Lock()
			statuses[w.Code]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, statuses[http.StatusCreated])
	assert.Equal(t, 7, statuses[http.StatusConflict])

	w = env.api.do(http.MethodGet, "/v1/estoque/saldo/"+itoa(vela.ID), vendedor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["saldo_atual"])
}
