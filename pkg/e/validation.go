package e

import "errors"

// ErrEntityValidation позволяет проверять ошибки валидации через errors.Is.
var ErrEntityValidation = errors.New("entity validation error")

// EntityValidationError сообщает, что данные сущности нарушают один из её инвариантов.
type EntityValidationError struct {
	Message string
}

func NewEntityValidationError(message string) *EntityValidationError {
	return &EntityValidationError{Message: message}
}

func (v *EntityValidationError) Error() string {
	return v.Message
}

func (v *EntityValidationError) Is(target error) bool {
	return target == ErrEntityValidation
}

// ValidationMessage возвращает сообщение первой ошибки валидации в цепочке.
func ValidationMessage(err error) (string, bool) {
	var vErr *EntityValidationError
	if errors.As(err, &vErr) {
		return vErr.Message, true
	}

	return "", false
}
