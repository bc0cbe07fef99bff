package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fernandosserra/unython/internal/apierror"
	"github.com/fernandosserra/unython/internal/dto"
	"github.com/fernandosserra/unython/internal/model"
	"github.com/fernandosserra/unython/internal/repository"
	"github.com/fernandosserra/unython/internal/service"
)

type VendasHandler struct{ svc service.VendaService }

func NewVendasHandler(svc service.VendaService) *VendasHandler { return &VendasHandler{svc: svc} }

// RegistrarVenda godoc
// @Summary      Registrar venda
// @Description  Grava cabeçalho, itens e baixas de estoque numa única transação.
// @Tags         vendas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RegistrarVendaRequest true "Venda"
// @Success      201  {object} dto.RegistrarVendaResponse
// @Failure      409  {object} apierror.EstoqueError
// @Failure      422  {object} apierror.APIError
// @Failure      500  {object} apierror.APIError
// @Router       /v1/vendas [post]
func (h *VendasHandler) RegistrarVenda(c *gin.Context) {
	var req dto.RegistrarVendaRequest
	if !bindAndValidate(c, &req) {
		return
	}

	cab := model.Venda{
		PessoaID:          req.PessoaID,
		ResponsavelID:     usuarioID(c),
		EventoID:          req.EventoID,
		MovimentoCaixaID:  req.MovimentoCaixaID,
		ChaveIdempotencia: req.ChaveIdempotencia,
	}
	if req.EmailRecibo != nil {
		cab.EmailRecibo = *req.EmailRecibo
	}
	itens := make([]model.ItemVenda, 0, len(req.Itens))
	for _, it := range req.Itens {
		itens = append(itens, model.ItemVenda{
			ItemID:        it.ItemID,
			Quantidade:    it.Quantidade,
			ValorUnitario: it.ValorUnitario,
		})
	}

	id, err := h.svc.RegistrarVenda(c.Request.Context(), cab, itens)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.RegistrarVendaResponse{ID: id})
}

// ListarVendas godoc
// @Summary      Listar vendas
// @Tags         vendas
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object} dto.VendaListResponse
// @Router       /v1/vendas [get]
func (h *VendasHandler) ListarVendas(c *gin.Context) {
	var q dto.VendaFilter
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parâmetros inválidos"))
		return
	}
	if !validateStruct(c, &q) {
		return
	}

	filtro := repository.VendaFilter{
		MovimentoCaixaID: q.MovimentoCaixaID,
		EventoID:         q.EventoID,
		Page:             q.Page,
		Limit:            q.Limit,
	}
	if q.Data != "" {
		dia, err := time.Parse("2006-01-02", q.Data)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("data deve estar no formato AAAA-MM-DD"))
			return
		}
		ate := dia.AddDate(0, 0, 1)
		filtro.Desde, filtro.Ate = &dia, &ate
	}

	vendas, total, err := h.svc.ListarVendas(c.Request.Context(), filtro)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.VendaListResponse{Data: make([]dto.VendaResponse, 0, len(vendas)), Total: total, Page: q.Page, Limit: q.Limit}
	for i := range vendas {
		resp.Data = append(resp.Data, vendaToResponse(&vendas[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// BuscarVenda godoc
// @Summary      Buscar venda
// @Tags         vendas
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     int  true "ID da venda"
// @Success      200  {object} dto.VendaResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/vendas/{id} [get]
func (h *VendasHandler) BuscarVenda(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.BuscarVenda(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vendaToResponse(v))
}

// Recibo streams the PDF receipt of a sale.
func (h *VendasHandler) Recibo(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	pdf, err := h.svc.GerarRecibo(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", "inline; filename=recibo.pdf")
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func vendaToResponse(v *model.Venda) dto.VendaResponse {
	resp := dto.VendaResponse{
		ID:               v.ID,
		PessoaID:         v.PessoaID,
		ResponsavelID:    v.ResponsavelID,
		EventoID:         v.EventoID,
		MovimentoCaixaID: v.MovimentoCaixaID,
		DataVenda:        v.DataVenda,
		Total:            v.Total(),
		Itens:            make([]dto.ItemVendaResponse, 0, len(v.Itens)),
	}
	for _, it := range v.Itens {
		r := dto.ItemVendaResponse{
			ItemID:        it.ItemID,
			Quantidade:    it.Quantidade,
			ValorUnitario: it.ValorUnitario,
			Subtotal:      it.Subtotal(),
		}
		if it.Item != nil {
			r.Nome = it.Item.Nome
		}
		resp.Itens = append(resp.Itens, r)
	}
	return resp
}
