// Package trailer reads and writes "key: value" metadata lines at the end of commit messages.
package trailer

import (
	"strings"
)

// Reserved keys of the embedded-project protocol.
const (
	KeyDir      = "embedded-dir"
	KeySplit    = "embedded-split"
	KeyMainline = "embedded-mainline"
)

type Trailer struct {
	Key   string
	Value string
}

func (t Trailer) String() string { return t.Key + ": " + t.Value }

// Trailers is an ordered trailer block.
type Trailers []Trailer

// Get returns the value of the last trailer with key.
func (ts Trailers) Get(key string) (string, bool) {
	for i := len(ts) - 1; i >= 0; i-- {
		if strings.EqualFold(ts[i].Key, key) {
			return ts[i].Value, true
		}
	}
	return "", false
}

// Has reports whether any trailer carries key.
func (ts Trailers) Has(key string) bool {
	_, ok := ts.Get(key)
	return ok
}

// Format renders the block, one trailer per line.
func (ts Trailers) Format() string {
	var sb strings.Builder
	for _, t := range ts {
		sb.WriteString(t.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Parse extracts the trailer block of message. Only the final paragraph is
// considered, only when it is not also the subject paragraph, and only when
// every line in it is a trailer or a continuation of one.
func Parse(message string) Trailers {
	paras := paragraphs(message)
	if len(paras) < 2 {
		return nil
	}

	var out Trailers
	for _, line := range paras[len(paras)-1] {
		if (line[0] == ' ' || line[0] == '\t') && len(out) > 0 {
			out[len(out)-1].Value += " " + strings.TrimSpace(line)
			continue
		}
		t, ok := parseLine(line)
		if !ok {
			return nil
		}
		out = append(out, t)
	}
	return out
}

// Append adds trailers to message, joining an existing trailer block when
// there is one. The result ends with a newline.
func Append(message string, ts ...Trailer) string {
	if len(ts) == 0 {
		return message
	}
	body := strings.TrimRight(message, " \t\r\n")
	block := Trailers(ts).Format()
	switch {
	case body == "":
		return block
	case Parse(body) != nil:
		return body + "\n" + block
	default:
		return body + "\n\n" + block
	}
}

func parseLine(line string) (Trailer, bool) {
	key, value, ok := strings.Cut(line, ":")
	if !ok || !validKey(key) {
		return Trailer{}, false
	}
	return Trailer{Key: key, Value: strings.TrimSpace(value)}, true
}

func validKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// paragraphs splits message into blank-line separated groups of non-empty lines.
func paragraphs(message string) [][]string {
	var (
		out [][]string
		cur []string
	)
	for _, line := range strings.Split(strings.ReplaceAll(message, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, strings.TrimRight(line, " \t"))
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
