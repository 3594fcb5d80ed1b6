package parser

import "fmt"

// envelope описывает элемент, содержимое которого обходит walk.
type envelope struct {
	tag string
	// start вызывается на каждом открывающем теге глубины 1. Обработчик
	// может разобрать вложенную запись целиком, тогда текущим событием
	// после возврата становится ее закрывающий тег.
	start func(src EventSource) error
	// text сопоставляет имя открытого элемента глубины 1 с обработчиком текста.
	text map[string]func(text string) error
}

// nameStack хранит имя открытого элемента для каждой глубины.
// Пустая строка означает, что на этой глубине элемент закрыт.
type nameStack []string

func (s *nameStack) set(depth int, name string) {
	switch {
	case depth < len(*s):
		(*s)[depth] = name
	case depth == len(*s):
		*s = append(*s, name)
	default:
		panic(fmt.Sprintf("parser: name stack of size %d cannot hold depth %d", len(*s), depth))
	}
}

func (s nameStack) at(depth int) string {
	if depth < len(s) {
		return s[depth]
	}
	return ""
}

func (s nameStack) clear(depth int) {
	if depth < len(s) {
		s[depth] = ""
	}
}

// walk обходит содержимое элемента env.tag, начиная с его открывающего тега
// (текущее событие src), и завершается на парном закрывающем теге.
// Глубина считается относительно env.tag: 1 - прямые потомки.
func walk(src EventSource, env envelope) error {
	if src.Kind() != StartTag || src.Name() != env.tag {
		return unexpected(src, "<"+env.tag+">")
	}
	var names nameStack
	depth := 0
	kind, err := src.Next()
	if err != nil {
		return err
	}
	for !(kind == EndTag && depth == 0) {
		switch kind {
		case StartTag:
			names.set(depth, src.Name())
			depth++
			if depth == 1 && env.start != nil {
				if err := env.start(src); err != nil {
					return err
				}
				kind = src.Kind()
			}
		case Text:
			if depth == 1 {
				if handle, ok := env.text[names.at(0)]; ok {
					if err := handle(src.Text()); err != nil {
						return err
					}
				}
			}
		case EndDocument:
			return unexpected(src, "</"+env.tag+">")
		}
		if kind == EndTag {
			names.clear(depth - 1)
			depth--
		}
		if kind, err = src.Next(); err != nil {
			return err
		}
	}
	if src.Name() != env.tag {
		return unexpected(src, "</"+env.tag+">")
	}
	return nil
}

func unexpected(src EventSource, expected string) *StructuralError {
	return &StructuralError{Expected: expected, Got: describe(src)}
}

func describe(src EventSource) string {
	switch src.Kind() {
	case StartTag:
		return "<" + src.Name() + ">"
	case EndTag:
		return "</" + src.Name() + ">"
	case Text:
		text := src.Text()
		if len(text) > 32 {
			text = text[:32] + "..."
		}
		return fmt.Sprintf("text %q", text)
	default:
		return src.Kind().String()
	}
}
