package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fernandosserra/unython/internal/model"
	"github.com/fernandosserra/unython/internal/repository"
	"github.com/fernandosserra/unython/internal/service"
	"github.com/fernandosserra/unython/internal/testutil"
)

func novoEstoque(t *testing.T) (*gorm.DB, service.EstoqueService) {
	t.Helper()
	db := testutil.NewDB(t)
	return db, service.NewEstoqueService(db, repository.NewEstoqueRepository(db), repository.NewItemRepository(db))
}

func ptr(v int64) *int64 { return &v }

func TestSaldoSemMovimentosEZero(t *testing.T) {
	db, svc := novoEstoque(t)
	item := testutil.SeedItem(t, db, "Cola", "2.50", "5.00")

	saldo, err := svc.Saldo(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), saldo)

	// Unknown item: still zero, not an error
	saldo, err = svc.Saldo(context.Background(), 9999)
	require.NoError(t, err)
	assert.Equal(t, int64(0), saldo)
}

func TestSaldoEntradasMenosSaidas(t *testing.T) {
	db, svc := novoEstoque(t)
	ctx := context.Background()
	item := testutil.SeedItem(t, db, "Cola", "2.50", "5.00")

	_, err := svc.Entrada(ctx, item.ID, 20, "", ptr(1), ptr(1))
	require.NoError(t, err)
	_, err = svc.Saida(ctx, item.ID, 2, ptr(1), ptr(1))
	require.NoError(t, err)

	saldo, err := svc.Saldo(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(18), saldo)
}

func TestSaldoPodeFicarNegativo(t *testing.T) {
	db, svc := novoEstoque(t)
	ctx := context.Background()
	item := testutil.SeedItem(t, db, "Vela", "1.00", "3.00")

	// The ledger records facts; it does not police them.
	_, err := svc.Saida(ctx, item.ID, 4, nil, nil)
	require.NoError(t, err)

	saldo, err := svc.Saldo(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-4), saldo)
}

func TestRegistrarMovimentoQuantidadeInvalida(t *testing.T) {
	db, svc := novoEstoque(t)
	item := testutil.SeedItem(t, db, "Cola", "2.50", "5.00")

	for _, qtd := range []int{0, -3} {
		_, err := svc.RegistrarMovimento(context.Background(), service.NovoMovimento{
			ItemID: item.ID, Quantidade: qtd, Tipo: model.Entrada, Origem: model.OrigemDoacao,
		})
		assert.ErrorIs(t, err, service.ErrQuantidadeInvalida)
	}
	assert.Equal(t, int64(0), testutil.Count(t, db, "movimentos_estoque"))
}

func TestRegistrarMovimentoQuantidadeAcimaDoLimite(t *testing.T) {
	db, svc := novoEstoque(t)
	item := testutil.SeedItem(t, db, "Cola", "2.50", "5.00")

	_, err := svc.RegistrarMovimento(context.Background(), service.NovoMovimento{
		ItemID: item.ID, Quantidade: service.QuantidadeMaxima + 1, Tipo: model.Saida, Origem: model.OrigemConsumoInterno,
	})
	assert.ErrorIs(t, err, service.ErrQuantidadeExcessiva)
	assert.Equal(t, int64(0), testutil.Count(t, db, "movimentos_estoque"))
}

func TestRegistrarMovimentoTipoInvalido(t *testing.T) {
	db, svc := novoEstoque(t)
	item := testutil.SeedItem(t, db, "Cola", "2.50", "5.00")

	_, err := svc.RegistrarMovimento(context.Background(), service.NovoMovimento{
		ItemID: item.ID, Quantidade: 1, Tipo: "Transferencia", Origem: "x",
	})
	assert.ErrorIs(t, err, service.ErrTipoMovimentoInvalido)
	assert.Equal(t, int64(0), testutil.Count(t, db, "movimentos_estoque"))
}

func TestRegistrarMovimentoItemInexistente(t *testing.T) {
	db, svc := novoEstoque(t)

	_, err := svc.RegistrarMovimento(context.Background(), service.NovoMovimento{
		ItemID: 424242, Quantidade: 1, Tipo: model.Entrada, Origem: model.OrigemDoacao,
	})
	assert.ErrorIs(t, err, service.ErrPersistencia)
	assert.Equal(t, int64(0), testutil.Count(t, db, "movimentos_estoque"))
}

func TestMovimentosPorItemEmOrdemCronologica(t *testing.T) {
	db, svc := novoEstoque(t)
	ctx := context.Background()
	item := testutil.SeedItem(t, db, "Cola", "2.50", "5.00")
	outro := testutil.SeedItem(t, db, "Incenso", "1.00", "2.00")

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	// Posted out of chronological order on purpose
	for _, m := range []service.NovoMovimento{
		{ItemID: item.ID, Quantidade: 5, Tipo: model.Saida, Origem: model.OrigemVenda, Data: base.Add(2 * time.Hour)},
		{ItemID: item.ID, Quantidade: 30, Tipo: model.Entrada, Origem: model.OrigemDoacao, Data: base},
		{ItemID: outro.ID, Quantidade: 9, Tipo: model.Entrada, Origem: model.OrigemDoacao, Data: base},
		{ItemID: item.ID, Quantidade: 1, Tipo: model.Saida, Origem: model.OrigemConsumoInterno, Data: base.Add(time.Hour)},
	} {
		_, err := svc.RegistrarMovimento(ctx, m)
		require.NoError(t, err)
	}

	movs, err := svc.MovimentosPorItem(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, movs, 3)
	assert.Equal(t, 30, movs[0].Quantidade)
	assert.Equal(t, 1, movs[1].Quantidade)
	assert.Equal(t, 5, movs[2].Quantidade)
	for _, m := range movs {
		assert.Equal(t, item.ID, m.ItemID)
	}
}

func TestEntradaOrigemPadraoESaidaConsumoInterno(t *testing.T) {
	db, svc := novoEstoque(t)
	ctx := context.Background()
	item := testutil.SeedItem(t, db, "Cola", "2.50", "5.00")

	_, err := svc.Entrada(ctx, item.ID, 3, "", ptr(5), nil)
	require.NoError(t, err)
	_, err = svc.Entrada(ctx, item.ID, 2, "Compra", ptr(5), nil)
	require.NoError(t, err)
	_, err = svc.Saida(ctx, item.ID, 1, ptr(5), ptr(8))
	require.NoError(t, err)

	movs, err := svc.MovimentosPorItem(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, movs, 3)
	assert.Equal(t, model.OrigemDoacao, movs[0].OrigemRecurso)
	assert.Equal(t, "Compra", movs[1].OrigemRecurso)
	assert.Equal(t, model.OrigemConsumoInterno, movs[2].OrigemRecurso)
	assert.Equal(t, model.Saida, movs[2].TipoMovimento)
	require.NotNil(t, movs[2].EventoID)
	assert.Equal(t, int64(8), *movs[2].EventoID)
}

func TestAjustarPostaDiferencaDaContagem(t *testing.T) {
	db, svc := novoEstoque(t)
	ctx := context.Background()
	item := testutil.SeedItem(t, db, "Cola", "2.50", "5.00")
	_, err := svc.Entrada(ctx, item.ID, 10, "", nil, nil)
	require.NoError(t, err)

	// Counted 7: three units went missing
	id, err := svc.Ajustar(ctx, item.ID, 7, ptr(1), nil)
	require.NoError(t, err)
	assert.Positive(t, id)
	saldo, _ := svc.Saldo(ctx, item.ID)
	assert.Equal(t, int64(7), saldo)

	// Recount agrees: nothing posted
	id, err = svc.Ajustar(ctx, item.ID, 7, ptr(1), nil)
	require.NoError(t, err)
	assert.Zero(t, id)

	// Found five more
	_, err = svc.Ajustar(ctx, item.ID, 12, ptr(1), nil)
	require.NoError(t, err)
	saldo, _ = svc.Saldo(ctx, item.ID)
	assert.Equal(t, int64(12), saldo)

	movs, err := svc.MovimentosPorItem(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, movs, 3)
	assert.Equal(t, model.Saida, movs[1].TipoMovimento)
	assert.Equal(t, 3, movs[1].Quantidade)
	assert.Equal(t, model.OrigemAjuste, movs[1].OrigemRecurso)
	assert.Equal(t, model.Entrada, movs[2].TipoMovimento)
	assert.Equal(t, 5, movs[2].Quantidade)

	_, err = svc.Ajustar(ctx, item.ID, -1, nil, nil)
	assert.ErrorIs(t, err, service.ErrQuantidadeInvalida)
}

func TestPosicao(t *testing.T) {
	db, svc := novoEstoque(t)
	ctx := context.Background()
	item := testutil.SeedItem(t, db, "Cola", "2.50", "5.00")
	_, err := svc.Entrada(ctx, item.ID, 16, "", nil, nil)
	require.NoError(t, err)

	p, err := svc.Posicao(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cola", p.Nome)
	assert.Equal(t, int64(16), p.Saldo)
	assert.True(t, p.CustoTotal.Equal(decimal.RequireFromString("40.00")), p.CustoTotal.String())
	assert.True(t, p.ValorVenda.Equal(decimal.RequireFromString("5.00")))

	_, err = svc.Posicao(ctx, 9999)
	assert.ErrorIs(t, err, service.ErrItemNaoEncontrado)
}
