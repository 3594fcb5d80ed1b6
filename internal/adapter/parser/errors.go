package parser

import "fmt"

// StructuralError сообщает, что последовательность событий не соответствует
// ожидаемой грамматике ленты: неверный корневой или закрывающий тег,
// преждевременный конец документа, лишнее содержимое после корня.
type StructuralError struct {
	Expected string
	Got      string
	Err      error
}

func (e *StructuralError) Error() string {
	msg := fmt.Sprintf("unexpected %s, expected %s", e.Got, e.Expected)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StructuralError) Unwrap() error { return e.Err }

// ValueFormatError сообщает, что текст элемента не удалось преобразовать
// в тип поля (дата или целое число).
type ValueFormatError struct {
	Field string
	Text  string
	Err   error
}

func (e *ValueFormatError) Error() string {
	return fmt.Sprintf("invalid %s value %q: %v", e.Field, e.Text, e.Err)
}

func (e *ValueFormatError) Unwrap() error { return e.Err }
