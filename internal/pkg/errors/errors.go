package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда предмет, экзамен, вопрос или попытка не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidFormat используется, когда импортируемый документ синтаксически сломан.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrConflict используется для конфликтов состояния
	// (например, повторная отправка уже завершённой сессии).
	ErrConflict = errors.New("resource state conflict")

	// ErrSessionClosed используется, когда операция пришла в уже завершённую сессию викторины.
	ErrSessionClosed = errors.New("quiz session already closed")
)
