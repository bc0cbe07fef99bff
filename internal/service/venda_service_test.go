package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fernandosserra/unython/internal/model"
	"github.com/fernandosserra/unython/internal/repository"
	"github.com/fernandosserra/unython/internal/service"
	"github.com/fernandosserra/unython/internal/testutil"
	"github.com/fernandosserra/unython/internal/worker"
)

// ── fixture ───────────────────────────────────────────────────────────────────

type cenario struct {
	db        *gorm.DB
	estoque   service.EstoqueService
	caixa     service.CaixaService
	vendaRepo repository.VendaRepository
	itemRepo  repository.ItemRepository
	movimento int64
}

func novoCenario(t *testing.T) *cenario {
	t.Helper()
	db := testutil.NewDB(t)
	c := &cenario{
		db:        db,
		vendaRepo: repository.NewVendaRepository(db),
		itemRepo:  repository.NewItemRepository(db),
		caixa:     service.NewCaixaService(repository.NewCaixaRepository(db)),
	}
	c.estoque = service.NewEstoqueService(db, repository.NewEstoqueRepository(db), c.itemRepo)

	r1 := testutil.SeedCaixa(t, db, "R1")
	id, err := c.caixa.AbrirMovimento(context.Background(), r1.ID, 7, decimal.RequireFromString("100.00"), ptr(3))
	require.NoError(t, err)
	c.movimento = id
	return c
}

func (c *cenario) venda(opts service.VendaOpcoes) service.VendaService {
	return service.NewVendaService(c.db, c.vendaRepo, c.itemRepo, c.estoque, c.caixa, nil, opts)
}

func (c *cenario) cabecalho() model.Venda {
	return model.Venda{ResponsavelID: 7, EventoID: 3, MovimentoCaixaID: c.movimento}
}

// cola seeds the item used across these tests with a balance of 18.
func (c *cenario) cola(t *testing.T) *model.Item {
	t.Helper()
	item := testutil.SeedItem(t, c.db, "Cola", "2.50", "5.00")
	_, err := c.estoque.Entrada(context.Background(), item.ID, 20, "", nil, nil)
	require.NoError(t, err)
	_, err = c.estoque.Saida(context.Background(), item.ID, 2, nil, nil)
	require.NoError(t, err)
	return item
}

func linha(itemID int64, qtd int, preco string) model.ItemVenda {
	return model.ItemVenda{ItemID: itemID, Quantidade: qtd, ValorUnitario: decimal.RequireFromString(preco)}
}

type contagem struct{ vendas, itens, movimentos int64 }

func (c *cenario) contar(t *testing.T) contagem {
	t.Helper()
	return contagem{
		vendas:     testutil.Count(t, c.db, "vendas"),
		itens:      testutil.Count(t, c.db, "itens_venda"),
		movimentos: testutil.Count(t, c.db, "movimentos_estoque"),
	}
}

// ── failure injection ─────────────────────────────────────────────────────────

type falhaVendaRepo struct {
	repository.VendaRepository
	falharCabecalho bool
	semID           bool
	falharItemNo    int
	itens           int
}

func (r *falhaVendaRepo) CreateTx(tx *gorm.DB, v *model.Venda) error {
	if r.falharCabecalho {
		return errors.New("disk full")
	}
	if r.semID {
		return nil
	}
	return r.VendaRepository.CreateTx(tx, v)
}

func (r *falhaVendaRepo) CreateItemTx(tx *gorm.DB, it *model.ItemVenda) error {
	r.itens++
	if r.itens == r.falharItemNo {
		return errors.New("constraint violated")
	}
	return r.VendaRepository.CreateItemTx(tx, it)
}

type falhaEstoque struct {
	service.EstoqueService
	falharBaixaNo int
	baixas        int
	falharSaldo   bool
	saldoTx       *int64
}

func (e *falhaEstoque) RegistrarMovimentoTx(ctx context.Context, tx *gorm.DB, m *model.MovimentoEstoque) error {
	e.baixas++
	if e.baixas == e.falharBaixaNo {
		return errors.New("ledger write failed")
	}
	return e.EstoqueService.RegistrarMovimentoTx(ctx, tx, m)
}

func (e *falhaEstoque) Saldo(ctx context.Context, itemID int64) (int64, error) {
	if e.falharSaldo {
		return 0, errors.New("connection refused")
	}
	return e.EstoqueService.Saldo(ctx, itemID)
}

func (e *falhaEstoque) SaldoTx(ctx context.Context, tx *gorm.DB, itemID int64) (int64, error) {
	if e.saldoTx != nil {
		return *e.saldoTx, nil
	}
	return e.EstoqueService.SaldoTx(ctx, tx, itemID)
}

// ── RegistrarVenda ────────────────────────────────────────────────────────────

func TestRegistrarVendaBaixaEstoque(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	cola := c.cola(t)
	svc := c.venda(service.VendaOpcoes{})

	id, err := svc.RegistrarVenda(ctx, c.cabecalho(), []model.ItemVenda{linha(cola.ID, 2, "5.00")})
	require.NoError(t, err)
	assert.Positive(t, id)

	saldo, err := c.estoque.Saldo(ctx, cola.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(16), saldo)

	v, err := svc.BuscarVenda(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.ResponsavelID)
	assert.Equal(t, int64(3), v.EventoID)
	assert.Equal(t, c.movimento, v.MovimentoCaixaID)
	require.Len(t, v.Itens, 1)
	assert.Equal(t, 2, v.Itens[0].Quantidade)
	assert.True(t, v.Itens[0].ValorUnitario.Equal(decimal.RequireFromString("5.00")))
	require.NotNil(t, v.Itens[0].Item)
	assert.Equal(t, "Cola", v.Itens[0].Item.Nome)
	assert.Equal(t, "10.00", v.Total().StringFixed(2))

	movs, err := c.estoque.MovimentosPorItem(ctx, cola.ID)
	require.NoError(t, err)
	baixa := movs[len(movs)-1]
	assert.Equal(t, model.Saida, baixa.TipoMovimento)
	assert.Equal(t, model.OrigemVenda, baixa.OrigemRecurso)
	assert.Equal(t, 2, baixa.Quantidade)
	require.NotNil(t, baixa.UsuarioID)
	assert.Equal(t, int64(7), *baixa.UsuarioID)
	require.NotNil(t, baixa.EventoID)
	assert.Equal(t, int64(3), *baixa.EventoID)
}

func TestRegistrarVendaEstoqueInsuficienteNaoGrava(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	cola := c.cola(t)
	svc := c.venda(service.VendaOpcoes{})
	antes := c.contar(t)

	_, err := svc.RegistrarVenda(ctx, c.cabecalho(), []model.ItemVenda{linha(cola.ID, 100, "5.00")})
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrEstoqueInsuficiente)
	assert.NotErrorIs(t, err, service.ErrVendaNaoRegistrada)

	var insuf *service.EstoqueInsuficienteError
	require.ErrorAs(t, err, &insuf)
	assert.Equal(t, cola.ID, insuf.ItemID)
	assert.Equal(t, int64(100), insuf.Solicitado)
	assert.Equal(t, int64(18), insuf.Disponivel)

	assert.Equal(t, antes, c.contar(t))
	saldo, _ := c.estoque.Saldo(ctx, cola.ID)
	assert.Equal(t, int64(18), saldo)
}

func TestRegistrarVendaSomaLinhasDoMesmoItem(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	item := testutil.SeedItem(t, c.db, "Livro", "10.00", "25.00")
	_, err := c.estoque.Entrada(ctx, item.ID, 5, "", nil, nil)
	require.NoError(t, err)
	svc := c.venda(service.VendaOpcoes{})

	// 3 + 3 > 5 even though each line alone fits
	_, err = svc.RegistrarVenda(ctx, c.cabecalho(), []model.ItemVenda{
		linha(item.ID, 3, "25.00"),
		linha(item.ID, 3, "20.00"),
	})
	var insuf *service.EstoqueInsuficienteError
	require.ErrorAs(t, err, &insuf)
	assert.Equal(t, int64(6), insuf.Solicitado)
	assert.Equal(t, int64(5), insuf.Disponivel)

	// Two lines of the same item, fitting: two exits
	id, err := svc.RegistrarVenda(ctx, c.cabecalho(), []model.ItemVenda{
		linha(item.ID, 2, "25.00"),
		linha(item.ID, 3, "20.00"),
	})
	require.NoError(t, err)
	v, err := svc.BuscarVenda(ctx, id)
	require.NoError(t, err)
	assert.Len(t, v.Itens, 2)
	saldo, _ := c.estoque.Saldo(ctx, item.ID)
	assert.Equal(t, int64(0), saldo)
}

func TestRegistrarVendaPrimeiraFaltaNaOrdemDasLinhas(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	a := testutil.SeedItem(t, c.db, "A", "1.00", "2.00")
	b := testutil.SeedItem(t, c.db, "B", "1.00", "2.00")
	svc := c.venda(service.VendaOpcoes{})

	_, err := svc.RegistrarVenda(ctx, c.cabecalho(), []model.ItemVenda{linha(b.ID, 1, "2.00"), linha(a.ID, 1, "2.00")})
	var insuf *service.EstoqueInsuficienteError
	require.ErrorAs(t, err, &insuf)
	assert.Equal(t, b.ID, insuf.ItemID)
	assert.Equal(t, int64(0), insuf.Disponivel)
}

func TestRegistrarVendaPrecondicoes(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	cola := c.cola(t)
	svc := c.venda(service.VendaOpcoes{})
	antes := c.contar(t)

	tests := []struct {
		name  string
		cab   model.Venda
		itens []model.ItemVenda
		err   error
		linha int
	}{
		{"sem itens", c.cabecalho(), nil, service.ErrVendaSemItens, -1},
		{"quantidade zero", c.cabecalho(), []model.ItemVenda{linha(cola.ID, 1, "5.00"), linha(cola.ID, 0, "5.00")}, service.ErrQuantidadeInvalida, 1},
		{"quantidade negativa", c.cabecalho(), []model.ItemVenda{linha(cola.ID, -2, "5.00")}, service.ErrQuantidadeInvalida, 0},
		{"preço negativo", c.cabecalho(), []model.ItemVenda{linha(cola.ID, 1, "-0.01")}, service.ErrValorUnitarioInvalido, 0},
		{"movimento inexistente", model.Venda{ResponsavelID: 7, EventoID: 3, MovimentoCaixaID: 999}, []model.ItemVenda{linha(cola.ID, 1, "5.00")}, service.ErrSemCaixaAberto, -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RegistrarVenda(ctx, tc.cab, tc.itens)
			require.ErrorIs(t, err, tc.err)
			var pe *service.PrecondicaoError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.linha, pe.Linha)
			assert.Equal(t, antes, c.contar(t))
		})
	}
}

func TestRegistrarVendaQuantidadeAcimaDoLimite(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	cola := c.cola(t)
	svc := c.venda(service.VendaOpcoes{RevalidarEstoque: true})
	antes := c.contar(t)

	tests := []struct {
		name  string
		itens []model.ItemVenda
		linha int
	}{
		{"linha única acima do limite", []model.ItemVenda{linha(cola.ID, service.QuantidadeMaxima+1, "5.00")}, 0},
		// would wrap the per-item total negative and slip past the balance check
		{"soma que estouraria int64", []model.ItemVenda{linha(cola.ID, math.MaxInt64, "0"), linha(cola.ID, 2, "0")}, 0},
		{"segunda linha acima do limite", []model.ItemVenda{linha(cola.ID, 2, "5.00"), linha(cola.ID, math.MaxInt64, "0")}, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, err := svc.RegistrarVenda(ctx, c.cabecalho(), tc.itens)
			require.ErrorIs(t, err, service.ErrQuantidadeExcessiva)
			assert.Zero(t, id)
			var pe *service.PrecondicaoError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.linha, pe.Linha)
			assert.Equal(t, antes, c.contar(t))

			saldo, err := c.estoque.Saldo(ctx, cola.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(18), saldo)
		})
	}
}

func TestRegistrarVendaMovimentoFechado(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	cola := c.cola(t)
	svc := c.venda(service.VendaOpcoes{})

	ok, err := c.caixa.FecharMovimento(ctx, c.movimento)
	require.NoError(t, err)
	require.True(t, ok)

	antes := c.contar(t)
	_, err = svc.RegistrarVenda(ctx, c.cabecalho(), []model.ItemVenda{linha(cola.ID, 1, "5.00")})
	assert.ErrorIs(t, err, service.ErrSemCaixaAberto)
	assert.Equal(t, antes, c.contar(t))
}

func TestRegistrarVendaPrecoZeroAceito(t *testing.T) {
	c := novoCenario(t)
	cola := c.cola(t)

	_, err := c.venda(service.VendaOpcoes{}).RegistrarVenda(context.Background(), c.cabecalho(),
		[]model.ItemVenda{linha(cola.ID, 1, "0.00")})
	require.NoError(t, err)
}

// ── rollback ──────────────────────────────────────────────────────────────────

func TestRegistrarVendaFalhaNaSegundaLinhaDesfazTudo(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	cola := c.cola(t)
	vela := testutil.SeedItem(t, c.db, "Vela", "1.00", "3.00")
	_, err := c.estoque.Entrada(ctx, vela.ID, 10, "", nil, nil)
	require.NoError(t, err)

	repo := &falhaVendaRepo{VendaRepository: c.vendaRepo, falharItemNo: 2}
	svc := service.NewVendaService(c.db, repo, c.itemRepo, c.estoque, c.caixa, nil, service.VendaOpcoes{})
	antes := c.contar(t)

	_, err = svc.RegistrarVenda(ctx, c.cabecalho(), []model.ItemVenda{linha(cola.ID, 2, "5.00"), linha(vela.ID, 1, "3.00")})
	require.Error(t, err)
	assert.Equal(t, "venda não registrada", err.Error())
	assert.ErrorIs(t, err, service.ErrVendaNaoRegistrada)
	assert.ErrorIs(t, err, service.ErrItemVenda)
	assert.NotErrorIs(t, err, service.ErrCabecalhoVenda)

	assert.Equal(t, antes, c.contar(t))
	saldo, _ := c.estoque.Saldo(ctx, cola.ID)
	assert.Equal(t, int64(18), saldo)
}

func TestRegistrarVendaFalhaNaBaixaDesfazTudo(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	cola := c.cola(t)
	estoque := &falhaEstoque{EstoqueService: c.estoque, falharBaixaNo: 2}
	svc := service.NewVendaService(c.db, c.vendaRepo, c.itemRepo, estoque, c.caixa, nil, service.VendaOpcoes{})
	antes := c.contar(t)

	_, err := svc.RegistrarVenda(ctx, c.cabecalho(), []model.ItemVenda{linha(cola.ID, 1, "5.00"), linha(cola.ID, 1, "5.00")})
	assert.ErrorIs(t, err, service.ErrItemVenda)

	var falha *service.FalhaVendaError
	require.ErrorAs(t, err, &falha)
	assert.Contains(t, falha.Causa.Error(), "ledger write failed")
	assert.Equal(t, antes, c.contar(t))
}

func TestRegistrarVendaFalhaNoCabecalho(t *testing.T) {
	c := novoCenario(t)
	cola := c.cola(t)

	for name, repo := range map[string]*falhaVendaRepo{
		"erro do banco": {VendaRepository: c.vendaRepo, falharCabecalho: true},
		"id inválido":   {VendaRepository: c.vendaRepo, semID: true},
	} {
		t.Run(name, func(t *testing.T) {
			svc := service.NewVendaService(c.db, repo, c.itemRepo, c.estoque, c.caixa, nil, service.VendaOpcoes{})
			antes := c.contar(t)

			_, err := svc.RegistrarVenda(context.Background(), c.cabecalho(), []model.ItemVenda{linha(cola.ID, 1, "5.00")})
			assert.ErrorIs(t, err, service.ErrCabecalhoVenda)
			assert.ErrorIs(t, err, service.ErrVendaNaoRegistrada)
			assert.Equal(t, antes, c.contar(t))
		})
	}
}

func TestRegistrarVendaBancoIndisponivelNaLeitura(t *testing.T) {
	c := novoCenario(t)
	cola := c.cola(t)
	estoque := &falhaEstoque{EstoqueService: c.estoque, falharSaldo: true}
	svc := service.NewVendaService(c.db, c.vendaRepo, c.itemRepo, estoque, c.caixa, nil, service.VendaOpcoes{})

	_, err := svc.RegistrarVenda(context.Background(), c.cabecalho(), []model.ItemVenda{linha(cola.ID, 1, "5.00")})
	assert.ErrorIs(t, err, service.ErrPersistenciaIndisponivel)
	assert.ErrorIs(t, err, service.ErrVendaNaoRegistrada)
	assert.NotErrorIs(t, err, service.ErrEstoqueInsuficiente)
}

// ── strict mode ───────────────────────────────────────────────────────────────

func TestRegistrarVendaRevalidaDentroDaTransacao(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	cola := c.cola(t)

	// Normal strict sale on SQLite: the lock is a no-op, the recheck passes
	_, err := c.venda(service.VendaOpcoes{RevalidarEstoque: true}).
		RegistrarVenda(ctx, c.cabecalho(), []model.ItemVenda{linha(cola.ID, 2, "5.00")})
	require.NoError(t, err)

	// Another terminal drained the stock between the two reads
	restante := int64(1)
	estoque := &falhaEstoque{EstoqueService: c.estoque, saldoTx: &restante}
	svc := service.NewVendaService(c.db, c.vendaRepo, c.itemRepo, estoque, c.caixa, nil,
		service.VendaOpcoes{RevalidarEstoque: true})
	antes := c.contar(t)

	_, err = svc.RegistrarVenda(ctx, c.cabecalho(), []model.ItemVenda{linha(cola.ID, 2, "5.00")})
	var insuf *service.EstoqueInsuficienteError
	require.ErrorAs(t, err, &insuf)
	assert.Equal(t, int64(1), insuf.Disponivel)
	assert.Equal(t, antes, c.contar(t))

	// Without strict mode the inner read never happens
	svc = service.NewVendaService(c.db, c.vendaRepo, c.itemRepo, estoque, c.caixa, nil, service.VendaOpcoes{})
	_, err = svc.RegistrarVenda(ctx, c.cabecalho(), []model.ItemVenda{linha(cola.ID, 2, "5.00")})
	require.NoError(t, err)
}

// ── idempotency ───────────────────────────────────────────────────────────────

func TestRegistrarVendaChaveIdempotencia(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	cola := c.cola(t)
	svc := c.venda(service.VendaOpcoes{})

	chave := "pdv-1-0001"
	cab := c.cabecalho()
	cab.ChaveIdempotencia = &chave

	a, err := svc.RegistrarVenda(ctx, cab, []model.ItemVenda{linha(cola.ID, 2, "5.00")})
	require.NoError(t, err)
	b, err := svc.RegistrarVenda(ctx, cab, []model.ItemVenda{linha(cola.ID, 2, "5.00")})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, int64(1), testutil.Count(t, c.db, "vendas"))
	saldo, _ := c.estoque.Saldo(ctx, cola.ID)
	assert.Equal(t, int64(16), saldo)
}

// ── ledger consistency ────────────────────────────────────────────────────────

func TestSaldoConfereComVendasEMovimentos(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	cola := c.cola(t)
	vela := testutil.SeedItem(t, c.db, "Vela", "1.00", "3.00")
	_, err := c.estoque.Entrada(ctx, vela.ID, 7, "", nil, nil)
	require.NoError(t, err)
	svc := c.venda(service.VendaOpcoes{})

	pedidos := [][]model.ItemVenda{
		{linha(cola.ID, 3, "5.00"), linha(vela.ID, 2, "3.00")},
		{linha(cola.ID, 50, "5.00")}, // rejected
		{linha(vela.ID, 5, "3.00")},
		{linha(vela.ID, 1, "3.00")}, // rejected: vela is exhausted
		{linha(cola.ID, 1, "4.50")},
	}
	for _, p := range pedidos {
		_, _ = svc.RegistrarVenda(ctx, c.cabecalho(), p)
	}

	for _, item := range []*model.Item{cola, vela} {
		var entradas, saidas, vendido int64
		require.NoError(t, c.db.Raw(`SELECT COALESCE(SUM(quantidade),0) FROM movimentos_estoque WHERE item_id = ? AND tipo_movimento = 'Entrada'`, item.ID).Scan(&entradas).Error)
		require.NoError(t, c.db.Raw(`SELECT COALESCE(SUM(quantidade),0) FROM movimentos_estoque WHERE item_id = ? AND tipo_movimento = 'Saida' AND origem_recurso = 'Venda'`, item.ID).Scan(&saidas).Error)
		require.NoError(t, c.db.Raw(`SELECT COALESCE(SUM(quantidade),0) FROM itens_venda WHERE item_id = ?`, item.ID).Scan(&vendido).Error)

		assert.Equal(t, vendido, saidas, item.Nome)
		saldo, err := c.estoque.Saldo(ctx, item.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, saldo, int64(0), item.Nome)
	}

	saldoCola, _ := c.estoque.Saldo(ctx, cola.ID)
	saldoVela, _ := c.estoque.Saldo(ctx, vela.ID)
	assert.Equal(t, int64(14), saldoCola)
	assert.Equal(t, int64(0), saldoVela)
	assert.Equal(t, int64(3), testutil.Count(t, c.db, "vendas"))
}

// ── post-commit jobs ──────────────────────────────────────────────────────────

func TestRegistrarVendaEnfileiraReciboEAlertas(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	cola := c.cola(t)
	vela := testutil.SeedItem(t, c.db, "Vela", "1.00", "3.00")
	_, err := c.estoque.Entrada(ctx, vela.ID, 4, "", nil, nil)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	svc := service.NewVendaService(c.db, c.vendaRepo, c.itemRepo, c.estoque, c.caixa,
		worker.NewDispatcher(rdb, nil), service.VendaOpcoes{})

	cab := c.cabecalho()
	cab.EmailRecibo = "ana@example.org"
	id, err := svc.RegistrarVenda(ctx, cab, []model.ItemVenda{
		linha(cola.ID, 1, "5.00"), linha(vela.ID, 1, "3.00"), linha(cola.ID, 1, "5.00"),
	})
	require.NoError(t, err)

	recibos, err := rdb.LRange(ctx, worker.QueueRecibo, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, recibos, 1)
	var job worker.Job
	require.NoError(t, json.Unmarshal([]byte(recibos[0]), &job))
	var payload worker.ReciboJobPayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, id, payload.VendaID)
	assert.Equal(t, "ana@example.org", payload.Email)

	// One check per distinct item
	n, err := rdb.LLen(ctx, worker.QueueEstoque).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestRegistrarVendaRedisForaNaoAfetaResultado(t *testing.T) {
	c := novoCenario(t)
	cola := c.cola(t)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), DialTimeout: 100 * time.Millisecond})
	defer rdb.Close()
	mr.Close()

	svc := service.NewVendaService(c.db, c.vendaRepo, c.itemRepo, c.estoque, c.caixa,
		worker.NewDispatcher(rdb, nil), service.VendaOpcoes{})
	id, err := svc.RegistrarVenda(context.Background(), c.cabecalho(), []model.ItemVenda{linha(cola.ID, 1, "5.00")})
	require.NoError(t, err)
	assert.Positive(t, id)
}

// ── queries ───────────────────────────────────────────────────────────────────

func TestBuscarListarEReciboDeVendas(t *testing.T) {
	c := novoCenario(t)
	ctx := context.Background()
	cola := c.cola(t)
	svc := c.venda(service.VendaOpcoes{})

	a, err := svc.RegistrarVenda(ctx, c.cabecalho(), []model.ItemVenda{linha(cola.ID, 1, "5.00")})
	require.NoError(t, err)
	outroEvento := c.cabecalho()
	outroEvento.EventoID = 4
	_, err = svc.RegistrarVenda(ctx, outroEvento, []model.ItemVenda{linha(cola.ID, 1, "5.00")})
	require.NoError(t, err)

	_, err = svc.BuscarVenda(ctx, 9999)
	assert.ErrorIs(t, err, service.ErrVendaNaoEncontrada)

	vendas, total, err := svc.ListarVendas(ctx, repository.VendaFilter{EventoID: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, vendas, 1)
	assert.Equal(t, a, vendas[0].ID)
	assert.Len(t, vendas[0].Itens, 1)

	_, total, err = svc.ListarVendas(ctx, repository.VendaFilter{MovimentoCaixaID: c.movimento})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	pdf, err := svc.GerarRecibo(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))

	_, err = svc.GerarRecibo(ctx, 9999)
	assert.ErrorIs(t, err, service.ErrVendaNaoEncontrada)
}
