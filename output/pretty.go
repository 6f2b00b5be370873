package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/nojima/apicall-go/request"
	"github.com/pkg/errors"
)

const indentUnit = "    "

type PrettyPrinter struct {
	writer        io.Writer
	plain         Printer
	aurora        aurora.Aurora
	enableFormat  bool
	headerPalette *HeaderPalette
	jsonPalette   *JSONPalette
}

type PrettyPrinterConfig struct {
	Writer       io.Writer
	EnableColor  bool
	EnableFormat bool
}

type HeaderPalette struct {
	Method         aurora.Color
	URL            aurora.Color
	Proto          aurora.Color
	Status         aurora.Color
	StatusError    aurora.Color
	FieldName      aurora.Color
	FieldValue     aurora.Color
	FieldSeparator aurora.Color
}

var defaultHeaderPalette = HeaderPalette{
	Method:         aurora.GreenFg | aurora.BoldFm,
	URL:            aurora.CyanFg | aurora.UnderlineFm,
	Proto:          aurora.BlueFg,
	Status:         aurora.BrownFg | aurora.BoldFm,
	StatusError:    aurora.RedFg | aurora.BoldFm,
	FieldName:      aurora.WhiteFg,
	FieldValue:     aurora.CyanFg,
	FieldSeparator: aurora.WhiteFg,
}

type JSONPalette struct {
	Name    aurora.Color
	String  aurora.Color
	Number  aurora.Color
	Boolean aurora.Color
	Null    aurora.Color
	Symbol  aurora.Color
}

var defaultJSONPalette = JSONPalette{
	Name:    aurora.BlueFg,
	String:  aurora.BrownFg,
	Number:  aurora.CyanFg,
	Boolean: aurora.MagentaFg,
	Null:    aurora.RedFg,
	Symbol:  aurora.WhiteFg,
}

func NewPrettyPrinter(config PrettyPrinterConfig) Printer {
	return &PrettyPrinter{
		writer:        config.Writer,
		plain:         NewPlainPrinter(config.Writer),
		aurora:        aurora.NewAurora(config.EnableColor),
		enableFormat:  config.EnableFormat,
		headerPalette: &defaultHeaderPalette,
		jsonPalette:   &defaultJSONPalette,
	}
}

func (p *PrettyPrinter) PrintRequestLine(req *request.Built) error {
	fmt.Fprintf(p.writer, "%s %s\n",
		p.aurora.Colorize(string(req.Method), p.headerPalette.Method),
		p.aurora.Colorize(req.URL.String(), p.headerPalette.URL))
	return nil
}

func (p *PrettyPrinter) PrintStatusLine(proto string, status string, statusCode int) error {
	color := p.headerPalette.Status
	if statusCode >= 400 {
		color = p.headerPalette.StatusError
	}
	fmt.Fprintf(p.writer, "%s %s\n",
		p.aurora.Colorize(proto, p.headerPalette.Proto),
		p.aurora.Colorize(status, color))
	return nil
}

func (p *PrettyPrinter) PrintHeader(header http.Header) error {
	for _, name := range sortedNames(header) {
		for _, value := range header[name] {
			fmt.Fprintf(p.writer, "%s%s %s\n",
				p.aurora.Colorize(name, p.headerPalette.FieldName),
				p.aurora.Colorize(":", p.headerPalette.FieldSeparator),
				p.aurora.Colorize(value, p.headerPalette.FieldValue))
		}
	}
	fmt.Fprintln(p.writer)
	return nil
}

func isJSON(contentType string) bool {
	contentType = strings.TrimSpace(contentType)

	semicolon := strings.Index(contentType, ";")
	if semicolon != -1 {
		contentType = strings.TrimSpace(contentType[:semicolon])
	}

	return contentType == "application/json" || strings.HasSuffix(contentType, "+json")
}

func (p *PrettyPrinter) PrintBody(body io.Reader, contentType string) error {
	// Fallback to PlainPrinter when the body is not JSON
	if !p.enableFormat || !isJSON(contentType) {
		return p.plain.PrintBody(body, contentType)
	}

	data, err := ioutil.ReadAll(body)
	if err != nil {
		return errors.Wrap(err, "reading body")
	}

	var buf bytes.Buffer
	if err := p.formatJSON(&buf, data); err != nil {
		// Not a single well-formed JSON value; show it as it is
		_, err := p.writer.Write(data)
		return errors.Wrap(err, "printing body")
	}
	_, err = buf.WriteTo(p.writer)
	return errors.Wrap(err, "printing body")
}

func (p *PrettyPrinter) formatJSON(w *bytes.Buffer, data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	token, err := dec.Token()
	if err != nil {
		return err
	}
	if err := p.formatValue(w, dec, token, 0); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("trailing data after JSON value")
	}
	w.WriteString("\n")
	return nil
}

func (p *PrettyPrinter) formatValue(w *bytes.Buffer, dec *json.Decoder, token json.Token, depth int) error {
	switch v := token.(type) {
	case json.Delim:
		switch v {
		case '{':
			return p.formatObject(w, dec, depth)
		case '[':
			return p.formatArray(w, dec, depth)
		default:
			return errors.Errorf("unexpected delimiter: %v", v)
		}
	case string:
		w.WriteString(p.colorize(quote(v), p.jsonPalette.String))
	case json.Number:
		w.WriteString(p.colorize(v.String(), p.jsonPalette.Number))
	case bool:
		w.WriteString(p.colorize(fmt.Sprint(v), p.jsonPalette.Boolean))
	case nil:
		w.WriteString(p.colorize("null", p.jsonPalette.Null))
	default:
		return errors.Errorf("unexpected token: %v", v)
	}
	return nil
}

func (p *PrettyPrinter) formatObject(w *bytes.Buffer, dec *json.Decoder, depth int) error {
	w.WriteString(p.colorize("{", p.jsonPalette.Symbol))
	n := 0
	for dec.More() {
		if n > 0 {
			w.WriteString(p.colorize(",", p.jsonPalette.Symbol))
		}
		w.WriteString("\n")
		w.WriteString(strings.Repeat(indentUnit, depth+1))

		key, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := key.(string)
		if !ok {
			return errors.Errorf("unexpected object key: %v", key)
		}
		w.WriteString(p.colorize(quote(name), p.jsonPalette.Name))
		w.WriteString(p.colorize(":", p.jsonPalette.Symbol))
		w.WriteString(" ")

		value, err := dec.Token()
		if err != nil {
			return err
		}
		if err := p.formatValue(w, dec, value, depth+1); err != nil {
			return err
		}
		n++
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	if n > 0 {
		w.WriteString("\n")
		w.WriteString(strings.Repeat(indentUnit, depth))
	}
	w.WriteString(p.colorize("}", p.jsonPalette.Symbol))
	return nil
}

func (p *PrettyPrinter) formatArray(w *bytes.Buffer, dec *json.Decoder, depth int) error {
	w.WriteString(p.colorize("[", p.jsonPalette.Symbol))
	n := 0
	for dec.More() {
		if n > 0 {
			w.WriteString(p.colorize(",", p.jsonPalette.Symbol))
		}
		w.WriteString("\n")
		w.WriteString(strings.Repeat(indentUnit, depth+1))

		value, err := dec.Token()
		if err != nil {
			return err
		}
		if err := p.formatValue(w, dec, value, depth+1); err != nil {
			return err
		}
		n++
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	if n > 0 {
		w.WriteString("\n")
		w.WriteString(strings.Repeat(indentUnit, depth))
	}
	w.WriteString(p.colorize("]", p.jsonPalette.Symbol))
	return nil
}

func (p *PrettyPrinter) colorize(s string, color aurora.Color) string {
	return p.aurora.Colorize(s, color).String()
}

func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}
