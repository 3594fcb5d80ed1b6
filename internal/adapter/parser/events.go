package parser

// EventKind - тип события потокового разбора XML.
type EventKind int

const (
	StartDocument EventKind = iota
	StartTag
	EndTag
	Text
	EndDocument
)

func (k EventKind) String() string {
	switch k {
	case StartDocument:
		return "start of document"
	case StartTag:
		return "start tag"
	case EndTag:
		return "end tag"
	case Text:
		return "text"
	case EndDocument:
		return "end of document"
	default:
		return "unknown event"
	}
}

// EventSource - однонаправленный поток событий разбора XML.
// Kind, Name, Attr и Text относятся к текущему событию; Next сдвигает
// поток на одно событие вперед и возвращает тип нового события.
type EventSource interface {
	Kind() EventKind
	Next() (EventKind, error)
	// Name возвращает имя элемента для StartTag и EndTag.
	Name() string
	// Attr возвращает значение атрибута без пространства имен; доступно только на StartTag.
	Attr(name string) (string, bool)
	// Text возвращает содержимое события Text.
	Text() string
}
