package geojson

import (
	"bytes"
	"errors"
	"strings"
)

const (
	scriptOpen  = "JSON.parse('"
	scriptClose = "');"
)

// WrapScript embeds JSON text in a JavaScript assignment
//
//	var <name> = JSON.parse('<line> \
//	<line> \
//	');
//
// so the result can be loaded with a plain script tag. Backslashes and single
// quotes in the JSON are escaped; every line ends in a line continuation.
func WrapScript(name string, data []byte) []byte {
	var b bytes.Buffer
	b.WriteString("var ")
	b.WriteString(name)
	b.WriteString(" = ")
	b.WriteString(scriptOpen)

	lines := strings.Split(strings.TrimRight(string(data), "\r\n"), "\n")
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		for i := 0; i < len(line); i++ {
			switch c := line[i]; c {
			case '\\', '\'':
				b.WriteByte('\\')
				b.WriteByte(c)
			default:
				b.WriteByte(c)
			}
		}
		b.WriteString(" \\\n")
	}

	b.WriteString(scriptClose)
	b.WriteByte('\n')
	return b.Bytes()
}

// UnwrapScript reverses WrapScript. Input that does not look like a script
// assignment is returned unchanged.
func UnwrapScript(data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if !bytes.HasPrefix(trimmed, []byte("var ")) {
		return data, nil
	}

	start := bytes.Index(trimmed, []byte(scriptOpen))
	end := bytes.LastIndex(trimmed, []byte(scriptClose))
	if start < 0 || end < start+len(scriptOpen) {
		return nil, errors.New("malformed script wrapper")
	}
	body := trimmed[start+len(scriptOpen) : end]

	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 == len(body) {
			out = append(out, c)
			continue
		}
		i++
		switch next := body[i]; next {
		case '\r':
			if i+1 < len(body) && body[i+1] == '\n' {
				i++
			}
			out = append(out, '\n')
		default:
			out = append(out, next)
		}
	}
	return out, nil
}
