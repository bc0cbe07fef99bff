package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fernandosserra/unython/internal/apierror"
	"github.com/fernandosserra/unython/internal/dto"
	"github.com/fernandosserra/unython/internal/model"
	"github.com/fernandosserra/unython/internal/service"
)

type CaixasHandler struct{ svc service.CaixaService }

func NewCaixasHandler(svc service.CaixaService) *CaixasHandler { return &CaixasHandler{svc: svc} }

// RegistrarCaixa godoc
// @Summary Registra um caixa físico (retorna o existente se o nome já estiver em uso)
// @Tags caixas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RegistrarCaixaRequest true "Caixa"
// @Success 201 {object} dto.CaixaResponse
// @Router /v1/caixas [post]
func (h *CaixasHandler) RegistrarCaixa(c *gin.Context) {
	var req dto.RegistrarCaixaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	id, err := h.svc.RegistrarCaixa(c.Request.Context(), req.Nome, req.Descricao)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CaixaResponse{ID: id, Nome: req.Nome, Descricao: req.Descricao, Status: model.CaixaAtivo})
}

func (h *CaixasHandler) ListarCaixas(c *gin.Context) {
	cs, err := h.svc.ListarCaixas(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]dto.CaixaResponse, 0, len(cs))
	for _, cx := range cs {
		resp = append(resp, dto.CaixaResponse{ID: cx.ID, Nome: cx.Nome, Descricao: cx.Descricao, Status: cx.Status})
	}
	c.JSON(http.StatusOK, resp)
}

// AbrirMovimento godoc
// @Summary Abre (ou devolve o já aberto) movimento de caixa
// @Tags caixas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID do caixa"
// @Param body body dto.AbrirMovimentoRequest true "Abertura"
// @Success 201 {object} dto.MovimentoCaixaResponse
// @Router /v1/caixas/{id}/abrir [post]
func (h *CaixasHandler) AbrirMovimento(c *gin.Context) {
	caixaID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.AbrirMovimentoRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := c.Request.Context()
	movID, err := h.svc.AbrirMovimento(ctx, caixaID, usuarioID(c), req.ValorAbertura, req.EventoID)
	if err != nil {
		respondError(c, err)
		return
	}
	mov, err := h.svc.MovimentoAtivo(ctx, caixaID)
	if err != nil || mov == nil || mov.ID != movID {
		// Closed between open and read: the id is still the answer.
		c.JSON(http.StatusCreated, dto.MovimentoCaixaResponse{ID: movID, CaixaID: caixaID})
		return
	}
	c.JSON(http.StatusCreated, movimentoToResponse(mov))
}

func (h *CaixasHandler) MovimentoAtivo(c *gin.Context) {
	caixaID, ok := paramID(c, "id")
	if !ok {
		return
	}
	mov, err := h.svc.MovimentoAtivo(c.Request.Context(), caixaID)
	if err != nil {
		respondError(c, err)
		return
	}
	if mov == nil {
		c.JSON(http.StatusNotFound, apierror.New("Nenhum movimento aberto para este caixa"))
		return
	}
	c.JSON(http.StatusOK, movimentoToResponse(mov))
}

// FecharMovimento godoc
// @Summary Fecha um movimento de caixa; fechado=false se já estava fechado
// @Tags caixas
// @Produce json
// @Security BearerAuth
// @Param movimento_id path int true "ID do movimento"
// @Success 200 {object} dto.FecharMovimentoResponse
// @Router /v1/caixas/movimentos/{movimento_id}/fechar [post]
func (h *CaixasHandler) FecharMovimento(c *gin.Context) {
	id, ok := paramID(c, "movimento_id")
	if !ok {
		return
	}
	fechado, err := h.svc.FecharMovimento(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FecharMovimentoResponse{Fechado: fechado})
}

func movimentoToResponse(m *model.MovimentoCaixa) dto.MovimentoCaixaResponse {
	return dto.MovimentoCaixaResponse{
		ID:                m.ID,
		CaixaID:           m.CaixaID,
		UsuarioAberturaID: m.UsuarioAberturaID,
		ValorAbertura:     m.ValorAbertura,
		Status:            m.Status,
		EventoID:          m.EventoID,
		AbertoEm:          m.AbertoEm,
		FechadoEm:         m.FechadoEm,
	}
}
