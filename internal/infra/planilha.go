package infra

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/fernandosserra/unython/internal/model"
)

// ExportarMovimentosXLSX writes one row per ledger movement (oldest first)
// plus a closing balance row, for the NGO's monthly stock reconciliation.
func ExportarMovimentosXLSX(item *model.Item, movimentos []model.MovimentoEstoque, saldo int64) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{"ID", "Data", "Tipo", "Quantidade", "Origem", "Usuário", "Evento"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("xlsx: header: %w", err)
	}

	row := 2
	for _, m := range movimentos {
		linha := []interface{}{
			m.ID,
			m.DataMovimento.Format("2006-01-02 15:04:05"),
			string(m.TipoMovimento),
			m.Quantidade,
			m.OrigemRecurso,
			optInt(m.UsuarioID),
			optInt(m.EventoID),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &linha); err != nil {
			return nil, fmt.Errorf("xlsx: row %d: %w", row, err)
		}
		row++
	}

	nome := ""
	if item != nil {
		nome = item.Nome
	}
	rodape := []interface{}{"", "Saldo atual", nome, saldo}
	cell, err := excelize.CoordinatesToCellName(1, row+1)
	if err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheet, cell, &rodape); err != nil {
		return nil, fmt.Errorf("xlsx: footer: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("xlsx: write: %w", err)
	}
	return buf.Bytes(), nil
}

func optInt(v *int64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
