package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

const (
	AtomNamespace = "http://www.w3.org/2005/Atom"
	RankNamespace = "http://purl.org/atompub/rank/1.0"
)

// Пространства имен, для которых известен префикс. Элемент из пространства
// с пустым префиксом получает локальное имя без префикса.
var knownPrefixes = map[string]string{
	AtomNamespace: "",
	RankNamespace: "re",
}

// XMLEventSource реализует EventSource поверх encoding/xml.Decoder.
// Имена элементов возвращаются в квалифицированном виде (prefix:local),
// комментарии и инструкции обработки пропускаются, соседние фрагменты
// текста склеиваются в одно событие Text.
type XMLEventSource struct {
	dec     *xml.Decoder
	pending xml.Token
	depth   int

	kind  EventKind
	name  string
	attrs []xml.Attr
	text  string
}

// NewXMLEventSource создает источник событий для потока r в кодировке encoding.
// Пустая кодировка или UTF-8 означают чтение потока как есть; кодировка,
// объявленная в прологе документа, обрабатывается декодером.
func NewXMLEventSource(r io.Reader, encoding string) (*XMLEventSource, error) {
	converted := false
	if encoding != "" && !isUTF8(encoding) {
		cr, err := charset.NewReaderLabel(encoding, r)
		if err != nil {
			return nil, fmt.Errorf("unsupported encoding %q: %w", encoding, err)
		}
		r = cr
		converted = true
	}
	dec := xml.NewDecoder(r)
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		if converted {
			return input, nil
		}
		return charset.NewReaderLabel(label, input)
	}
	return &XMLEventSource{dec: dec, kind: StartDocument}, nil
}

func isUTF8(label string) bool {
	return strings.EqualFold(label, "utf-8") || strings.EqualFold(label, "utf8")
}

func (s *XMLEventSource) Kind() EventKind { return s.kind }

func (s *XMLEventSource) Name() string { return s.name }

func (s *XMLEventSource) Text() string { return s.text }

func (s *XMLEventSource) Attr(name string) (string, bool) {
	if s.kind != StartTag {
		return "", false
	}
	for _, a := range s.attrs {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Next сдвигает поток к следующему событию. После EndDocument
// повторные вызовы возвращают EndDocument.
func (s *XMLEventSource) Next() (EventKind, error) {
	if s.kind == EndDocument {
		return EndDocument, nil
	}
	var text strings.Builder
	hasText := false
	for {
		tok, err := s.token()
		if errors.Is(err, io.EOF) {
			if s.reportText(hasText, text.String()) {
				return s.kind, nil
			}
			s.set(EndDocument, "", nil)
			return s.kind, nil
		}
		if err != nil {
			return s.kind, s.wrap(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
			hasText = true
		case xml.StartElement:
			if s.reportText(hasText, text.String()) {
				s.pending = t
				return s.kind, nil
			}
			s.set(StartTag, s.qualify(t.Name), t.Attr)
			s.depth++
			return s.kind, nil
		case xml.EndElement:
			if s.reportText(hasText, text.String()) {
				s.pending = t
				return s.kind, nil
			}
			s.set(EndTag, s.qualify(t.Name), nil)
			s.depth--
			return s.kind, nil
		}
	}
}

// reportText делает накопленный текст текущим событием. Пробельный текст
// вне корневого элемента не сообщается.
func (s *XMLEventSource) reportText(hasText bool, text string) bool {
	if !hasText {
		return false
	}
	if s.depth == 0 && strings.TrimSpace(text) == "" {
		return false
	}
	s.set(Text, "", nil)
	s.text = text
	return true
}

func (s *XMLEventSource) set(kind EventKind, name string, attrs []xml.Attr) {
	s.kind = kind
	s.name = name
	s.attrs = attrs
	s.text = ""
}

func (s *XMLEventSource) token() (xml.Token, error) {
	if s.pending != nil {
		tok := s.pending
		s.pending = nil
		return tok, nil
	}
	return s.dec.Token()
}

func (s *XMLEventSource) qualify(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	prefix, ok := knownPrefixes[name.Space]
	if !ok {
		// несвязанный префикс декодер оставляет как есть
		prefix = name.Space
	}
	if prefix == "" {
		return name.Local
	}
	return prefix + ":" + name.Local
}

func (s *XMLEventSource) wrap(err error) error {
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &StructuralError{
			Expected: "well-formed XML",
			Got:      fmt.Sprintf("syntax error at line %d", syntaxErr.Line),
			Err:      err,
		}
	}
	return fmt.Errorf("failed to read XML token: %w", err)
}
