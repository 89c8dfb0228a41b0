package handlers

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/orris-inc/coinpayable/internal/shared/utils"
)

var (
	bindingOnce sync.Once
	bindingErr  error
)

// RegisterBindingValidations installs the custom tags on gin's binding validator
func RegisterBindingValidations() error {
	bindingOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			bindingErr = utils.RegisterValidations(v)
		}
	})
	return bindingErr
}
