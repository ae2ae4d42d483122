// Package handler exposes the deposit engine over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/segyhp/deposit-engine/internal/domain"
	customError "github.com/segyhp/deposit-engine/pkg/errors"
	"github.com/segyhp/deposit-engine/pkg/interest"
	"github.com/segyhp/deposit-engine/pkg/utils"
	"github.com/shopspring/decimal"
)

// UserIDHeader carries the identity of the caller. Authentication happens
// upstream of this service.
const UserIDHeader = "X-User-ID"

// NewValidator returns a validator that understands decimal.Decimal fields
// through the decimal_gt and decimal_gte tags. It panics when a tag cannot be
// registered.
func NewValidator() *validator.Validate {
	v := validator.New()

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	for tag, fn := range map[string]validator.Func{
		"decimal_gt":  decimalBound(func(cmp int) bool { return cmp > 0 }),
		"decimal_gte": decimalBound(func(cmp int) bool { return cmp >= 0 }),
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}

	return v
}

func decimalBound(accept func(cmp int) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		bound, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return accept(value.Cmp(bound))
	}
}

// decodeAndValidate reads a JSON body into dst. With allowEmpty an absent body
// leaves dst at its zero value.
func decodeAndValidate(r *http.Request, v *validator.Validate, dst interface{}, allowEmpty bool) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return customError.WrapInvalidArgument("invalid request body: " + err.Error())
		}
	}
	if err := v.Struct(dst); err != nil {
		return customError.WrapInvalidArgument(err.Error())
	}
	return nil
}

func userID(r *http.Request) (string, error) {
	id := r.Header.Get(UserIDHeader)
	if id == "" {
		return "", customError.WrapInvalidArgument(UserIDHeader + " header is required")
	}
	return id, nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, customError.WrapInvalidArgument("invalid " + name)
	}
	return id, nil
}

// calculationConfig reads method, rounding and decimals from the query. Unset
// values are left for the calculator defaults.
func calculationConfig(r *http.Request) (domain.CalculationConfig, error) {
	q := r.URL.Query()

	var cfg domain.CalculationConfig
	if s := q.Get("method"); s != "" {
		method, err := interest.ParseMethod(s)
		if err != nil {
			return cfg, customError.WrapInvalidArgument(err.Error())
		}
		cfg.Method = method
	}

	if s := q.Get("rounding"); s != "" {
		rounding, err := interest.ParseRounding(s)
		if err != nil {
			return cfg, customError.WrapInvalidArgument(err.Error())
		}
		cfg.Rounding = interest.Policy{Method: rounding, Places: interest.DefaultDecimalPlaces}
	}

	if s := q.Get("decimals"); s != "" {
		places, err := strconv.ParseInt(s, 10, 32)
		if err != nil || places < 0 {
			return cfg, customError.WrapInvalidArgument("decimals must be a non-negative integer")
		}
		if cfg.Rounding.Method == "" {
			cfg.Rounding.Method = interest.DefaultRounding
		}
		cfg.Rounding.Places = int32(places)
	}

	return cfg, nil
}

// queryDate parses a YYYY-MM-DD query value. An absent value yields the zero time.
func queryDate(r *http.Request, key string) (time.Time, error) {
	t, err := utils.ParseDate(r.URL.Query().Get(key), time.Time{})
	if err != nil {
		return time.Time{}, customError.WrapInvalidArgument(key + " must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, customError.WrapInvalidArgument(key + " must be a non-negative integer")
	}
	return n, nil
}
