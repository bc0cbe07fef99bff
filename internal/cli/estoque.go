package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/fernandosserra/unython/internal/infra"
	"github.com/fernandosserra/unython/internal/repository"
	"github.com/fernandosserra/unython/internal/service"
)

// NewEstoqueCommand groups stock ledger commands.
func NewEstoqueCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estoque",
		Short: "Livro de movimentos de estoque",
	}
	cmd.AddCommand(newEstoqueEntradaCommand(opts))
	cmd.AddCommand(newEstoqueSaldoCommand(opts))
	cmd.AddCommand(newEstoqueExportarCommand(opts))
	return cmd
}

func estoqueService(db *gorm.DB) service.EstoqueService {
	return service.NewEstoqueService(db, repository.NewEstoqueRepository(db), repository.NewItemRepository(db))
}

func parseItemID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("item_id inválido: %q", s)
	}
	return id, nil
}

func newEstoqueEntradaCommand(opts *RootOptions) *cobra.Command {
	var origem string
	cmd := &cobra.Command{
		Use:   "entrada <item_id> <quantidade>",
		Short: "Registra uma entrada (doação por padrão)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			qtd, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantidade inválida: %q", args[1])
			}
			return opts.withDB(func(db *gorm.DB) error {
				id, err := estoqueService(db).Entrada(cmd.Context(), itemID, qtd, origem, optID(opts.UsuarioID), optID(opts.EventoID))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "movimento %d registrado\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&origem, "origem", "", "provenance (default Doacao)")
	return cmd
}

func newEstoqueSaldoCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "saldo <item_id>",
		Short: "Mostra o saldo e o custo em estoque de um item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return opts.withDB(func(db *gorm.DB) error {
				p, err := estoqueService(db).Posicao(cmd.Context(), itemID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: saldo %d, custo total %s, valor de venda %s\n",
					p.Nome, p.Saldo, p.CustoTotal.StringFixed(2), p.ValorVenda.StringFixed(2))
				return nil
			})
		},
	}
}

func newEstoqueExportarCommand(opts *RootOptions) *cobra.Command {
	var saida string
	cmd := &cobra.Command{
		Use:   "exportar <item_id>",
		Short: "Exporta os movimentos de um item para uma planilha .xlsx",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			if saida == "" {
				saida = fmt.Sprintf("movimentos_item_%d.xlsx", itemID)
			}
			return opts.withDB(func(db *gorm.DB) error {
				ctx := cmd.Context()
				item, err := repository.NewItemRepository(db).FindByID(ctx, itemID)
				if err != nil {
					return service.ErrItemNaoEncontrado
				}
				svc := estoqueService(db)
				movs, err := svc.MovimentosPorItem(ctx, itemID)
				if err != nil {
					return err
				}
				saldo, err := svc.Saldo(ctx, itemID)
				if err != nil {
					return err
				}
				data, err := infra.ExportarMovimentosXLSX(item, movs, saldo)
				if err != nil {
					return err
				}
				if err := os.WriteFile(saida, data, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d movimentos exportados para %s\n", len(movs), saida)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&saida, "saida", "o", "", "output file")
	return cmd
}
