package cli

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/fernandosserra/unython/internal/repository"
	"github.com/fernandosserra/unython/internal/service"
)

// NewCaixaCommand groups register administration commands.
func NewCaixaCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "caixa",
		Short: "Caixas físicos e seus movimentos",
	}
	cmd.AddCommand(newCaixaCriarCommand(opts))
	cmd.AddCommand(newCaixaAbrirCommand(opts))
	cmd.AddCommand(newCaixaFecharCommand(opts))
	return cmd
}

func caixaService(db *gorm.DB) service.CaixaService {
	return service.NewCaixaService(repository.NewCaixaRepository(db))
}

func newCaixaCriarCommand(opts *RootOptions) *cobra.Command {
	var descricao string
	cmd := &cobra.Command{
		Use:   "criar <nome>",
		Short: "Registra um caixa (devolve o id existente se o nome já existir)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var desc *string
			if descricao != "" {
				desc = &descricao
			}
			return opts.withDB(func(db *gorm.DB) error {
				id, err := caixaService(db).RegistrarCaixa(cmd.Context(), args[0], desc)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "caixa %d\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&descricao, "descricao", "", "free-text description")
	return cmd
}

func newCaixaAbrirCommand(opts *RootOptions) *cobra.Command {
	var valor string
	cmd := &cobra.Command{
		Use:   "abrir <caixa_id>",
		Short: "Abre um movimento de caixa (idempotente)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caixaID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("caixa_id inválido: %q", args[0])
			}
			abertura, err := decimal.NewFromString(valor)
			if err != nil {
				return fmt.Errorf("valor inválido: %q", valor)
			}
			return opts.withDB(func(db *gorm.DB) error {
				id, err := caixaService(db).AbrirMovimento(cmd.Context(), caixaID, opts.UsuarioID, abertura, optID(opts.EventoID))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "movimento %d aberto\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&valor, "valor", "0.00", "opening float")
	return cmd
}

func newCaixaFecharCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fechar <movimento_id>",
		Short: "Fecha um movimento de caixa",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("movimento_id inválido: %q", args[0])
			}
			return opts.withDB(func(db *gorm.DB) error {
				ok, err := caixaService(db).FecharMovimento(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("movimento %d não está aberto", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "movimento %d fechado\n", id)
				return nil
			})
		},
	}
}
