// Пакет codec — форматно-зависимые кодеки: изображения, документы,
// книги Excel, табличный текст (CSV/TSV) и структурированные данные.
//
// Конвертеры используют кодеки как непрозрачные функции
// bytes → значение → bytes. Любая ошибка кодека оборачивается в *Error
// с указанием подсистемы, по которой вызывающая сторона подбирает
// подсказку пользователю.
package codec

import (
	"errors"
	"fmt"
)

// Subsystem — подсистема кодека, в которой произошла ошибка.
type Subsystem string

const (
	SubsystemImage       Subsystem = "image"
	SubsystemDocument    Subsystem = "document"
	SubsystemSpreadsheet Subsystem = "spreadsheet"
	SubsystemData        Subsystem = "data"
)

// ErrUnsupported — кодек не умеет читать данный формат.
var ErrUnsupported = errors.New("формат не поддерживается")

// Error — ошибка кодека с привязкой к подсистеме.
type Error struct {
	Subsystem Subsystem
	Op        string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Subsystem, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(sub Subsystem, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Subsystem: sub, Op: op, Err: err}
}
