package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fernandosserra/unython/internal/dto"
	"github.com/fernandosserra/unython/internal/model"
	"github.com/fernandosserra/unython/internal/service"
)

type EstoqueHandler struct{ svc service.EstoqueService }

func NewEstoqueHandler(svc service.EstoqueService) *EstoqueHandler { return &EstoqueHandler{svc: svc} }

// RegistrarMovimento posts a manual entry (donation, purchase) or exit
// (internal consumption). Sales never come through here.
func (h *EstoqueHandler) RegistrarMovimento(c *gin.Context) {
	var req dto.MovimentoEstoqueRequest
	if !bindAndValidate(c, &req) {
		return
	}

	usuario := usuarioID(c)
	ctx := c.Request.Context()
	var (
		id  int64
		err error
	)
	switch model.TipoMovimento(req.TipoMovimento) {
	case model.Entrada:
		id, err = h.svc.Entrada(ctx, req.ItemID, req.Quantidade, req.Origem, &usuario, req.EventoID)
	default:
		origem := req.Origem
		if origem == "" {
			origem = model.OrigemConsumoInterno
		}
		id, err = h.svc.RegistrarMovimento(ctx, service.NovoMovimento{
			ItemID:     req.ItemID,
			Quantidade: req.Quantidade,
			Tipo:       model.TipoMovimento(req.TipoMovimento),
			Origem:     origem,
			UsuarioID:  &usuario,
			EventoID:   req.EventoID,
		})
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MovimentoCriadoResponse{ID: id})
}

// Ajustar records a physical recount. id is 0 when nothing had to change.
func (h *EstoqueHandler) Ajustar(c *gin.Context) {
	var req dto.AjusteEstoqueRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuario := usuarioID(c)
	id, err := h.svc.Ajustar(c.Request.Context(), req.ItemID, *req.Contado, &usuario, req.EventoID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MovimentoCriadoResponse{ID: id})
}

func (h *EstoqueHandler) Saldo(c *gin.Context) {
	itemID, ok := paramID(c, "item_id")
	if !ok {
		return
	}
	p, err := h.svc.Posicao(c.Request.Context(), itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SaldoResponse{
		ItemID:            p.ItemID,
		Nome:              p.Nome,
		SaldoAtual:        p.Saldo,
		CustoTotalEstoque: p.CustoTotal,
		ValorVenda:        p.ValorVenda,
	})
}

func (h *EstoqueHandler) Movimentos(c *gin.Context) {
	itemID, ok := paramID(c, "item_id")
	if !ok {
		return
	}
	movs, err := h.svc.MovimentosPorItem(c.Request.Context(), itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]dto.MovimentoEstoqueResponse, 0, len(movs))
	for _, m := range movs {
		resp = append(resp, dto.MovimentoEstoqueResponse{
			ID:            m.ID,
			ItemID:        m.ItemID,
			Quantidade:    m.Quantidade,
			TipoMovimento: string(m.TipoMovimento),
			OrigemRecurso: m.OrigemRecurso,
			UsuarioID:     m.UsuarioID,
			EventoID:      m.EventoID,
			DataMovimento: m.DataMovimento,
		})
	}
	c.JSON(http.StatusOK, resp)
}
