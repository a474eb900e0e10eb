package types

import (
	"regexp"
	"time"

	"github.com/gawwe-id/oknum/src/config"
	"github.com/go-playground/validator/v10"
)

var idPhonePattern = regexp.MustCompile(`^(\+62|62|0)8[1-9][0-9]{6,11}$`)

// Indonesian mobile number: 08xx, 628xx or +628xx.
var idPhone validator.Func = func(fl validator.FieldLevel) bool {
	phone, ok := fl.Field().Interface().(string)
	return ok && idPhonePattern.MatchString(phone)
}

var futureDate validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	datetime, err := time.Parse(config.TIME_PARSE_FORMAT, date)
	if err != nil {
		return false
	}
	return datetime.After(time.Now())
}

// gtdate=Other passes when the field is later than the sibling field Other.
var gtDate validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	datetime, err := time.Parse(config.TIME_PARSE_FORMAT, date)
	if err != nil {
		return false
	}
	other, ok := fl.Parent().FieldByName(fl.Param()).Interface().(string)
	if !ok {
		return false
	}
	otherdatetime, err := time.Parse(config.TIME_PARSE_FORMAT, other)
	if err != nil {
		return false
	}
	return datetime.After(otherdatetime)
}

func RegisterValidators(v *validator.Validate) {
	v.RegisterValidation("idphone", idPhone)
	v.RegisterValidation("futuredate", futureDate)
	v.RegisterValidation("gtdate", gtDate)
}
