package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ANSI escape sequences for terminal output.
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorBlue  = "\033[34m"
	colorCyan  = "\033[36m"
	colorWhite = "\033[37m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

var colorEnabled = true

// DisableColors turns off ANSI sequences in Format and PrintError.
func DisableColors() {
	colorEnabled = false
}

// EnableColors turns ANSI sequences back on.
func EnableColors() {
	colorEnabled = true
}

// ColorsEnabled reports whether terminal output may use ANSI sequences.
func ColorsEnabled() bool {
	return colorEnabled
}

func color(code, text string) string {
	if !colorEnabled {
		return text
	}
	return code + text + colorReset
}

func red(text string) string   { return color(colorRed, text) }
func blue(text string) string  { return color(colorBlue, text) }
func cyan(text string) string  { return color(colorCyan, text) }
func white(text string) string { return color(colorWhite, text) }
func gray(text string) string  { return color(colorGray, text) }
func bold(text string) string  { return color(colorBold, text) }

// printer accumulates an indented terminal report.
type printer struct {
	strings.Builder
}

func (p *printer) line(indent int, parts ...string) {
	p.WriteString(strings.Repeat(" ", indent))
	for _, s := range parts {
		p.WriteString(s)
	}
	p.WriteByte('\n')
}

func (p *printer) blank() { p.WriteByte('\n') }

func (p *printer) header(e *Error) {
	if e.Code == "" {
		p.line(0, red(bold("ERROR: ")), white(e.Message))
	} else {
		p.line(0, red(bold("ERROR ")), white(bold(e.Code+": ")), white(e.Message))
	}
	p.blank()
}

// cause prints the wrapped error. Runtime errors with a code get it
// appended in brackets.
func (p *printer) cause(err error) {
	if err == nil {
		return
	}
	msg := err.Error()
	var coded interface{ Code() string }
	if stderrors.As(err, &coded) {
		msg += gray(" [" + coded.Code() + "]")
	}
	p.line(2, gray("Cause: "), msg)
	p.blank()
}

// source prints the location and the surrounding lines, marking the
// offending line and column.
func (p *printer) source(loc *Location, context []string) {
	if loc == nil {
		return
	}
	p.line(2, cyan(loc.String()))
	p.blank()
	if len(context) == 0 {
		return
	}

	first := loc.Line - len(context)/2
	for i, text := range context {
		n := first + i
		if n != loc.Line {
			p.line(4, fmt.Sprintf("%4d", n), gray(" │ "), text)
			continue
		}
		p.line(2, red("→ "), fmt.Sprintf("%4d", n), gray(" │ "), text)
		if loc.Column > 0 {
			p.line(7, gray("│ "), strings.Repeat(" ", loc.Column-1), red("^"))
		}
	}
	p.blank()
}

func (p *printer) paragraph(text string) {
	if text == "" {
		return
	}
	for _, l := range wrapText(text, 70) {
		p.line(2, l)
	}
	p.blank()
}

func (p *printer) example(code string) {
	if code == "" {
		return
	}
	p.line(2, cyan("Example:"))
	for _, l := range strings.Split(code, "\n") {
		p.line(4, l)
	}
	p.blank()
}

// Format renders the error for a terminal: header, cause, source
// excerpt, detail, hint, example and documentation link.
func (e *Error) Format() string {
	var p printer
	p.blank()
	p.header(e)
	p.cause(e.Wrapped)
	p.source(e.Location, e.Context)
	p.paragraph(e.Detail)
	if e.Suggestion != "" {
		p.line(2, cyan("Hint: "), e.Suggestion)
		p.blank()
	}
	p.example(e.Example)
	if e.DocURL != "" {
		p.line(2, gray("Learn more: "), blue(e.DocURL))
	}
	return p.String()
}

// FormatCompact returns "file:line:col: CODE: message: cause".
func (e *Error) FormatCompact() string {
	var parts []string
	if e.Location != nil {
		parts = append(parts, e.Location.String())
	}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	parts = append(parts, e.Message)
	if e.Wrapped != nil {
		parts = append(parts, e.Wrapped.Error())
	}
	return strings.Join(parts, ": ")
}

type jsonLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

type jsonError struct {
	Code       string        `json:"code,omitempty"`
	Category   Category      `json:"category"`
	Message    string        `json:"message"`
	Detail     string        `json:"detail,omitempty"`
	Cause      string        `json:"cause,omitempty"`
	Location   *jsonLocation `json:"location,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
	DocURL     string        `json:"docUrl,omitempty"`
}

// FormatJSON returns the error as a JSON object.
func (e *Error) FormatJSON() string {
	out := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Suggestion: e.Suggestion,
		DocURL:     e.DocURL,
	}
	if e.Wrapped != nil {
		out.Cause = e.Wrapped.Error()
	}
	if e.Location != nil {
		out.Location = &jsonLocation{File: e.Location.File, Line: e.Location.Line, Column: e.Location.Column}
	}
	data, _ := json.Marshal(out)
	return string(data)
}

// wrapText breaks text into lines of at most width bytes, splitting on
// whitespace. A single word longer than width gets its own line.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	var (
		lines   []string
		current []string
		n       int
	)
	for _, w := range words {
		if n > 0 && n+1+len(w) > width {
			lines = append(lines, strings.Join(current, " "))
			current, n = nil, 0
		}
		if n > 0 {
			n++
		}
		current = append(current, w)
		n += len(w)
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}
	return lines
}

// Style selects how PrintError renders errors.
type Style int

const (
	// StyleTerminal is the multi-line report from Format.
	StyleTerminal Style = iota
	// StyleCompact is the single line from FormatCompact.
	StyleCompact
	// StyleJSON is the object from FormatJSON, one per line.
	StyleJSON
)

var printStyle = StyleTerminal

// SetStyle changes how PrintError and FprintError render errors.
func SetStyle(s Style) {
	printStyle = s
}

// PrintError prints a formatted error to stderr.
func PrintError(err error) {
	FprintError(os.Stderr, err)
}

// FprintError writes err to w in the style chosen with SetStyle. Errors
// that are not *Error are rendered as uncoded messages.
func FprintError(w io.Writer, err error) {
	var e *Error
	if !stderrors.As(err, &e) {
		e = &Error{Category: CategoryCLI, Message: err.Error()}
	}
	switch printStyle {
	case StyleCompact:
		fmt.Fprintln(w, e.FormatCompact())
	case StyleJSON:
		fmt.Fprintln(w, e.FormatJSON())
	default:
		fmt.Fprint(w, e.Format())
	}
}
