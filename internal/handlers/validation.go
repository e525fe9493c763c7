package handlers

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/bossing/basket-service/internal/optimizer"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding rules:
//
//	prioritize  one of price, distance, balanced
//	notblank    a string with at least one non-space character
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("prioritize", func(fl validator.FieldLevel) bool {
			return optimizer.IsValidPrioritize(fl.Field().String())
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
}
