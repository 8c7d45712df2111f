package writer

import (
	"fmt"
	"strings"
)

// Writer builds generated source text with indentation and comment helpers.
// The comment prefix defaults to "//" and can be switched for languages such
// as Python.
type Writer struct {
	sb            strings.Builder
	indentLevel   int
	indentString  string
	linePrefix    string
	needsIndent   bool
	commentPrefix string
}

// NewWriter creates a new code writer with specified indentation string
func NewWriter(indentString string) *Writer {
	return &Writer{
		indentString:  indentString,
		needsIndent:   true,
		commentPrefix: "//",
	}
}

// WithCommentPrefix sets the line comment marker, e.g. "#"
func (w *Writer) WithCommentPrefix(prefix string) *Writer {
	w.commentPrefix = prefix
	return w
}

// Indent increases the indentation level
func (w *Writer) Indent() {
	w.indentLevel++
	w.updatePrefix()
}

// Dedent decreases the indentation level
func (w *Writer) Dedent() {
	if w.indentLevel > 0 {
		w.indentLevel--
		w.updatePrefix()
	}
}

// Write writes a string without adding a newline
func (w *Writer) Write(s string) {
	if w.needsIndent && s != "" {
		w.sb.WriteString(w.linePrefix)
		w.needsIndent = false
	}
	w.sb.WriteString(s)
}

// WriteLine writes a string and adds a newline
func (w *Writer) WriteLine(s string) {
	w.Write(s)
	w.Newline()
}

// WriteLinef writes a formatted string and adds a newline
func (w *Writer) WriteLinef(format string, args ...any) {
	w.Write(fmt.Sprintf(format, args...))
	w.Newline()
}

// Newline adds a newline character
func (w *Writer) Newline() {
	w.sb.WriteString("\n")
	w.needsIndent = true
}

// BlankLine adds an empty line unless the output already ends with one
func (w *Writer) BlankLine() {
	if w.sb.Len() > 0 && !strings.HasSuffix(w.sb.String(), "\n\n") {
		w.Newline()
	}
}

// String returns the generated code as a string
func (w *Writer) String() string {
	return w.sb.String()
}

// Reset clears the writer's content and resets indentation
func (w *Writer) Reset() {
	w.sb.Reset()
	w.indentLevel = 0
	w.linePrefix = ""
	w.needsIndent = true
}

func (w *Writer) updatePrefix() {
	w.linePrefix = strings.Repeat(w.indentString, w.indentLevel)
}

// WriteBlock writes content inside a block with proper indentation
// Example: WriteBlock("export interface Pet {", "}", func() { w.WriteLine("name: string;") })
func (w *Writer) WriteBlock(opener, closer string, content func()) {
	w.WriteLine(opener)
	w.Indent()
	content()
	w.Dedent()
	w.WriteLine(closer)
}

func (w *Writer) writeComment(comment string) {
	if comment == "" {
		w.WriteLine(w.commentPrefix)
		return
	}
	w.WriteLinef("%s %s", w.commentPrefix, comment)
}

// WriteDocComment writes a documentation comment block
func (w *Writer) WriteDocComment(doc string) {
	for _, line := range docLines(doc) {
		w.writeComment(line)
	}
}

// WriteJSDoc writes a /** ... */ block, collapsed to one line for single-line docs
func (w *Writer) WriteJSDoc(doc string) {
	lines := docLines(doc)
	switch len(lines) {
	case 0:
		return
	case 1:
		w.WriteLinef("/** %s */", escapeJSDoc(lines[0]))
		return
	}
	w.WriteLine("/**")
	for _, line := range lines {
		if line == "" {
			w.WriteLine(" *")
			continue
		}
		w.WriteLinef(" * %s", escapeJSDoc(line))
	}
	w.WriteLine(" */")
}

// WriteDocstring writes a Python triple-quoted docstring
func (w *Writer) WriteDocstring(doc string) {
	lines := docLines(doc)
	for i := range lines {
		lines[i] = strings.ReplaceAll(lines[i], `"""`, `\"\"\"`)
	}
	switch len(lines) {
	case 0:
		return
	case 1:
		w.WriteLinef(`"""%s"""`, lines[0])
		return
	}
	w.WriteLinef(`"""%s`, lines[0])
	for _, line := range lines[1:] {
		if line == "" {
			w.Newline()
			continue
		}
		w.WriteLine(line)
	}
	w.WriteLine(`"""`)
}

func docLines(doc string) []string {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return nil
	}
	lines := strings.Split(doc, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines
}

func escapeJSDoc(s string) string {
	return strings.ReplaceAll(s, "*/", "*\\/")
}
