package alias

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Descriptor is the parsed content of one alias file.
type Descriptor struct {
	// Path is the alias file the descriptor was read from.
	Path string

	Title    string
	HasTitle bool
	DBList   []string
	GIList   string
	OIDList  string
	FirstOID *uint32
	LastOID  *uint32
	Length   uint64
	NumSeqs  uint64
	MaxLen   uint32
	MembBit  uint32
}

// HasRange reports whether FIRST_OID or LAST_OID is set.
func (d *Descriptor) HasRange() bool {
	return d.FirstOID != nil || d.LastOID != nil
}

// Parse reads an alias file. Unknown keys are ignored.
func Parse(r io.Reader, path string) (*Descriptor, error) {
	d := &Descriptor{Path: path}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		key, value := text, ""
		if i := strings.IndexAny(text, " \t"); i >= 0 {
			key, value = text[:i], strings.TrimSpace(text[i+1:])
		}

		if err := d.set(strings.ToUpper(key), value); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func (d *Descriptor) set(key, value string) error {
	var err error
	switch key {
	case "TITLE":
		d.Title = unquote(value)
		d.HasTitle = true
	case "DBLIST":
		d.DBList = splitList(value)
	case "GILIST":
		d.GIList = unquote(value)
	case "OIDLIST":
		d.OIDList = unquote(value)
	case "FIRST_OID":
		d.FirstOID, err = parseOptional(key, value)
	case "LAST_OID":
		d.LastOID, err = parseOptional(key, value)
	case "LENGTH":
		d.Length, err = strconv.ParseUint(value, 10, 64)
	case "NSEQ":
		d.NumSeqs, err = strconv.ParseUint(value, 10, 64)
	case "MAXLEN":
		var v uint64
		v, err = strconv.ParseUint(value, 10, 32)
		d.MaxLen = uint32(v)
	case "MEMB_BIT":
		var v uint64
		v, err = strconv.ParseUint(value, 10, 32)
		d.MembBit = uint32(v)
	}
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return nil
}

func parseOptional(key, value string) (*uint32, error) {
	v, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return nil, err
	}
	u := uint32(v)
	return &u, nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// splitList splits on whitespace, keeping double-quoted names intact.
func splitList(s string) []string {
	var out []string
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return out
		}
		if s[0] == '"' {
			end := strings.IndexByte(s[1:], '"')
			if end < 0 {
				out = append(out, s[1:])
				return out
			}
			out = append(out, s[1:end+1])
			s = s[end+2:]
			continue
		}
		end := strings.IndexAny(s, " \t")
		if end < 0 {
			return append(out, s)
		}
		out = append(out, s[:end])
		s = s[end:]
	}
}
