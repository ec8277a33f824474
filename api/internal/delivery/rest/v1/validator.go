package v1

import (
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"checkout/api/internal/domain"
	"checkout/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"
	"github.com/shopspring/decimal"
)


var MAX_AMOUNT = decimal.NewFromInt(10 << 20)

type NewInvoiceMethod struct {
	MethodID    string          `json:"method_id" validate:"required,max=32"`
	Address     string          `json:"address" validate:"required,max=2048"`
	Amount      decimal.Decimal `json:"amount" validate:"omitempty,amount"`
	PaymentURL  string          `json:"payment_url" validate:"max=4096"`
	IsLightning bool            `json:"is_lightning"`
	PeerInfo    string          `json:"peer_info" validate:"max=256"`
}

type NewInvoiceData struct {
	Price         decimal.Decimal    `json:"price" validate:"required,amount"`
	Currency      string             `json:"currency" validate:"required,alpha,max=8"`
	Lifetime      int                `json:"lifetime" validate:"gte=0,lte=4320"` // minutes, 0 - default lifetime
	Webhook       string             `json:"webhook" validate:"webhook,max=2048"`
	EmailRequired bool               `json:"email_required"`
	Methods       []NewInvoiceMethod `json:"methods" validate:"required,min=1,max=8,dive"`
}

type SetStatusData struct {
	InvoiceId string `json:"invoice_id" validate:"required,uuid"`
	Status    string `json:"status" validate:"required,status"`
}

type ConvertData struct {
	Fiat           string          `json:"fiat" validate:"required,alpha,max=8"`
	Cryptocurrency string          `json:"cryptocurrency" validate:"required,alpha,max=8"`
	Amount         decimal.Decimal `json:"amount" validate:"required,amount"`
}

type RatesData struct {
	Fiat string `json:"fiat" validate:"required,alpha,max=8"`
}

func newValidator() *validator.Validate {
	v := validator.New()

	// decimals are validated as numbers
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	v.RegisterValidation("amount", validateAmount)
	v.RegisterValidation("webhook", validateWebhook)
	v.RegisterValidation("status", validateStatus)
	return v
}

var validate = newValidator()

// binds the json body into data and validates it
// returns false if there is an error, the response is already written
func bindAndValidate[T any](c *gin.Context, data *T) bool {
	if err := c.ShouldBindJSON(data); err != nil {
		responseErr(c, http.StatusBadRequest, domain.ErrMsgBadRequest, "")
		return false
	}

	err := validate.Struct(data)
	if err == nil {
		return true
	}

	validationErrs, err := utils.SafeCast[validator.ValidationErrors](err)
	if err != nil || len(validationErrs) == 0 {
		responseErr(c, http.StatusBadRequest, domain.ErrMsgBadRequest, "")
		return false
	}

	responseErr(c, http.StatusBadRequest, formatValidationErr(*data, validationErrs[0]), "")
	return false
}

func validateAmount(fl validator.FieldLevel) bool {
	amount := decimal.NewFromFloat(fl.Field().Float())
	return amount.GreaterThan(decimal.Zero) && amount.LessThanOrEqual(MAX_AMOUNT)
}

func validateStatus(fl validator.FieldLevel) bool {
	_, ok := domain.StrToStatus(fl.Field().String())
	return ok
}

func validateWebhook(fl validator.FieldLevel) bool {
	webhook := fl.Field().String()
	if webhook == "" { // webhook is not set
		return true
	}

	if !strings.HasPrefix(webhook, "https://") && !strings.HasPrefix(webhook, "http://") {
		return false
	}
	if !strings.Contains(webhook, ".") { // has dot
		return false
	}

	_, err := url.ParseRequestURI(webhook)
	return err == nil
}

func formatValidationErr(data any, err validator.FieldError) string {
	jsonTag := getJSONTag(data, err.StructField())

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", jsonTag)
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of '%s'", jsonTag, err.Param())
	case "min":
		return fmt.Sprintf("field '%s' must have at least %s items", jsonTag, err.Param())
	case "max":
		return fmt.Sprintf("field '%s' is too long, max %s", jsonTag, err.Param())
	case "gte":
		return fmt.Sprintf("field '%s' must be greater than or equal to %s", jsonTag, err.Param())
	case "lte":
		return fmt.Sprintf("field '%s' must be less than or equal to %s", jsonTag, err.Param())
	case "alpha":
		return fmt.Sprintf("field '%s' must contain letters only", jsonTag)
	case "uuid":
		return fmt.Sprintf("field '%s' must be a uuid", jsonTag)
	//  custom tags
	case "webhook":
		return fmt.Sprintf("field '%s' must be a valid http(s) url", jsonTag)
	case "amount":
		return fmt.Sprintf("field '%s' must be greater than 0 and at most %s", jsonTag, MAX_AMOUNT)
	case "status":
		return fmt.Sprintf("field '%s' must be one of '%s'", jsonTag, strings.Join(domain.Statuses[:], " "))

	default:
		return fmt.Sprintf("invalid field '%s'", jsonTag)
	}
}

// json name of the field, nested fields of dive are looked up in the element type
func getJSONTag(structType any, fieldName string) string {
	typ := reflect.TypeOf(structType)
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	field, ok := typ.FieldByName(fieldName)
	if !ok {
		for i := 0; i < typ.NumField(); i++ {
			elem := typ.Field(i).Type
			if elem.Kind() != reflect.Slice || elem.Elem().Kind() != reflect.Struct {
				continue
			}
			if field, ok = elem.Elem().FieldByName(fieldName); ok {
				break
			}
		}
	}

	tag, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if tag == "" {
		return fieldName
	}
	return tag
}
