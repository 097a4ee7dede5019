package gps

import (
	"strconv"
	"strings"
)

// DefaultGSVPrefix selects GPS satellites-in-view sentences.
const DefaultGSVPrefix = "$GPGSV"

// GSV header: message id, total sentences, this sentence's index, total
// satellites in view. Satellite blocks of four fields follow.
const (
	gsvIndexField  = 2
	gsvHeaderLen   = 4
	gsvBlockFields = 4
)

// Parser applies GSV sentences to the Table it owns. Blocks keep counting
// across the sentences of one broadcast group, so the second sentence of
// a group fills slots 4-7.
type Parser struct {
	prefix string
	table  Table
	// data fields already applied in the current broadcast group
	cursor int
}

type ParserOption func(*Parser)

// WithPrefix overrides the talker+type prefix, e.g. "$GNGSV".
func WithPrefix(prefix string) ParserOption {
	return func(p *Parser) {
		p.prefix = prefix
	}
}

func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{prefix: DefaultGSVPrefix}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Parser) Table() *Table { return &p.table }

func (p *Parser) Snapshot() []Satellite { return p.table.Snapshot() }

func (p *Parser) Count() int { return p.table.Count() }

// Parse applies one sentence. It reports false, leaving the table alone,
// when the sentence is not a GSV sentence for this parser's prefix.
func (p *Parser) Parse(sentence string) bool {
	if !strings.HasPrefix(sentence, p.prefix) {
		return false
	}
	// The checksum is not checked, only stripped off the last field.
	if star := strings.IndexByte(sentence, '*'); star != -1 {
		sentence = sentence[:star]
	}
	fields := strings.Split(sentence, ",")
	if len(fields) > gsvIndexField && atoi(fields[gsvIndexField]) == 1 {
		p.table.Reset()
		p.cursor = 0
	}
	if len(fields) <= gsvHeaderLen {
		return true
	}

	for _, f := range fields[gsvHeaderLen:] {
		slot := p.cursor / gsvBlockFields
		v := atoi(f)
		switch p.cursor % gsvBlockFields {
		case 0:
			p.table.SetID(slot, v)
		case 1:
			p.table.UpdateElevation(slot, v)
		case 2:
			p.table.UpdateAzimuth(slot, v)
		case 3:
			p.table.UpdateSNR(slot, v)
		}
		p.cursor++
	}
	return true
}

// atoi is best effort: blank or garbled fields read as zero.
func atoi(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}
