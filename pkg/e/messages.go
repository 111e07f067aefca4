package e

import "fmt"

// EmptyOrNullMessage формирует сообщение для пустого значения.
func EmptyOrNullMessage(property string) string {
	return fmt.Sprintf("%s should not be empty or null", property)
}

// MinLengthMessage формирует сообщение для слишком короткого значения.
func MinLengthMessage(property string, length int) string {
	return fmt.Sprintf("%s should have a minimum of %d characters long", property, length)
}

// MaxLengthMessage формирует сообщение для слишком длинного значения.
func MaxLengthMessage(property string, length int) string {
	return fmt.Sprintf("%s should have a maximum of %d characters long", property, length)
}

// ShouldNotBeNullMessage формирует сообщение для отсутствующего значения.
func ShouldNotBeNullMessage(property string) string {
	return fmt.Sprintf("%s should not be null", property)
}
