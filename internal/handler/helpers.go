package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/fernandosserra/unython/internal/apierror"
	"github.com/fernandosserra/unython/internal/middleware"
	"github.com/fernandosserra/unython/internal/service"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// paramID parses a positive int64 path parameter, answering 400 otherwise.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return 0, false
	}
	return id, true
}

// usuarioID returns the authenticated user's id (JWTAuth guarantees it).
func usuarioID(c *gin.Context) int64 {
	if claims := middleware.GetClaims(c); claims != nil {
		if id, ok := claims.UsuarioID(); ok {
			return id
		}
	}
	return 0
}

// respondError maps service errors to HTTP. Unknown errors become an opaque
// 500 through the ErrorHandler middleware.
func respondError(c *gin.Context, err error) {
	var (
		insuf *service.EstoqueInsuficienteError
		pre   *service.PrecondicaoError
	)
	switch {
	case errors.As(err, &insuf):
		c.JSON(http.StatusConflict, apierror.NewEstoque(insuf.ItemID, insuf.Solicitado, insuf.Disponivel))
	case errors.As(err, &pre):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(pre.Error()))
	case errors.Is(err, service.ErrVendaNaoRegistrada):
		// Opaque on purpose: the cause is in the service log.
		c.JSON(http.StatusInternalServerError, apierror.New(service.ErrVendaNaoRegistrada.Error()))
	case errors.Is(err, service.ErrVendaNaoEncontrada),
		errors.Is(err, service.ErrCaixaNaoEncontrado),
		errors.Is(err, service.ErrItemNaoEncontrado):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrCaixaInativo):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, service.ErrQuantidadeInvalida),
		errors.Is(err, service.ErrQuantidadeExcessiva),
		errors.Is(err, service.ErrTipoMovimentoInvalido),
		errors.Is(err, service.ErrValorAberturaInvalido),
		errors.Is(err, service.ErrNomeCaixaObrigatorio):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	default:
		_ = c.Error(err)
	}
}
