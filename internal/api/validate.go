package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Spok95/school-supply/internal/domain/requests"
	"github.com/Spok95/school-supply/internal/domain/users"
)

var registerOnce sync.Once

func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if ok {
			registerTags(v)
		}
	})
}

func registerTags(v *validator.Validate) {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return users.Role(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		return requests.Priority(fl.Field().String()).Valid()
	})
}

// bind decodes the JSON body into dst and reports the first problem in Portuguese.
func (h *handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.badRequest(c, bindMessage(err))
		return false
	}
	return true
}

func bindMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "corpo da requisição inválido"
	}
	fe := ve[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s é obrigatório", field)
	case "email":
		return fmt.Sprintf("%s deve ser um e-mail válido", field)
	case "gt":
		return fmt.Sprintf("%s deve ser maior que %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s deve ser maior ou igual a %s", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s deve ter ao menos %s item", field, fe.Param())
		}
		return fmt.Sprintf("%s deve ter ao menos %s caracteres", field, fe.Param())
	case "role":
		return fmt.Sprintf("%s inválido: use solicitante, despachante ou administrador", field)
	case "priority":
		return fmt.Sprintf("%s inválida: use baixa, media ou alta", field)
	}
	return fmt.Sprintf("%s inválido", field)
}
