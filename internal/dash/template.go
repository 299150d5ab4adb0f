package dash

import (
	"strconv"
	"strings"
)

const (
	representationIDIdentifier = "RepresentationID"
	numberIdentifier           = "Number"
	bandwidthIdentifier        = "Bandwidth"
	timeIdentifier             = "Time"
)

type templateIdentifier int

const (
	identRepresentationID templateIdentifier = iota
	identNumber
	identBandwidth
	identTime
)

// numberFormat is a compiled %0<width><conv> format tag.
type numberFormat struct {
	width int
	base  int
	upper bool
}

var defaultNumberFormat = numberFormat{width: 1, base: 10}

type templatePiece struct {
	identifier templateIdentifier
	format     numberFormat
}

// URLTemplate is a compiled SegmentTemplate media or initialization
// attribute. Literal text and identifiers alternate, so rendering never
// parses the template again.
type URLTemplate struct {
	source      string
	literals    []string // len(literals) == len(identifiers)+1
	identifiers []templatePiece
}

// CompileURLTemplate compiles a template containing $RepresentationID$,
// $Number$, $Bandwidth$ and $Time$ identifiers. Numeric identifiers may carry
// a %0Nd, %0Nx or %0NX format tag; $$ is a literal dollar sign.
func CompileURLTemplate(template string) (*URLTemplate, error) {
	t := &URLTemplate{source: template}
	var literal strings.Builder
	i := 0
	for i < len(template) {
		dollar := strings.IndexByte(template[i:], '$')
		switch {
		case dollar < 0:
			literal.WriteString(template[i:])
			i = len(template)
		case dollar > 0:
			literal.WriteString(template[i : i+dollar])
			i += dollar
		case strings.HasPrefix(template[i:], "$$"):
			literal.WriteByte('$')
			i += 2
		default:
			end := strings.IndexByte(template[i+1:], '$')
			if end < 0 {
				return nil, &TemplateError{Template: template, Pos: i, Reason: "unterminated identifier"}
			}
			piece, err := parseIdentifier(template, i, template[i+1:i+1+end])
			if err != nil {
				return nil, err
			}
			t.literals = append(t.literals, literal.String())
			literal.Reset()
			t.identifiers = append(t.identifiers, piece)
			i += end + 2
		}
	}
	t.literals = append(t.literals, literal.String())
	return t, nil
}

// MustCompileURLTemplate is like CompileURLTemplate but panics on error.
func MustCompileURLTemplate(template string) *URLTemplate {
	t, err := CompileURLTemplate(template)
	if err != nil {
		panic(err)
	}
	return t
}

func parseIdentifier(template string, pos int, identifier string) (templatePiece, error) {
	if identifier == representationIDIdentifier {
		return templatePiece{identifier: identRepresentationID}, nil
	}
	format := defaultNumberFormat
	if tagIndex := strings.Index(identifier, "%0"); tagIndex >= 0 {
		f, ok := parseNumberFormat(identifier[tagIndex+2:])
		if !ok {
			return templatePiece{}, &TemplateError{Template: template, Pos: pos, Reason: "invalid format tag " + identifier[tagIndex:]}
		}
		format = f
		identifier = identifier[:tagIndex]
	}
	switch identifier {
	case numberIdentifier:
		return templatePiece{identifier: identNumber, format: format}, nil
	case bandwidthIdentifier:
		return templatePiece{identifier: identBandwidth, format: format}, nil
	case timeIdentifier:
		return templatePiece{identifier: identTime, format: format}, nil
	default:
		return templatePiece{}, &TemplateError{Template: template, Pos: pos, Reason: "unknown identifier " + identifier}
	}
}

// parseNumberFormat parses the part of a format tag after "%0". A missing
// conversion character means decimal.
func parseNumberFormat(tag string) (numberFormat, bool) {
	digits := tag
	f := numberFormat{base: 10}
	if n := len(tag); n > 0 {
		switch tag[n-1] {
		case 'd':
			digits = tag[:n-1]
		case 'x':
			digits, f.base = tag[:n-1], 16
		case 'X':
			digits, f.base, f.upper = tag[:n-1], 16, true
		}
	}
	if digits == "" {
		f.width = 0
		return f, true
	}
	width, err := strconv.Atoi(digits)
	if err != nil || width < 0 {
		return numberFormat{}, false
	}
	f.width = width
	return f, true
}

// Render substitutes the identifiers present in the template. Arguments for
// identifiers the template does not contain are ignored.
func (t *URLTemplate) Render(representationID string, segmentNumber int64, bandwidth int64, time uint64) string {
	var sb strings.Builder
	for i, piece := range t.identifiers {
		sb.WriteString(t.literals[i])
		switch piece.identifier {
		case identRepresentationID:
			sb.WriteString(representationID)
		case identNumber:
			sb.WriteString(piece.format.formatSigned(segmentNumber))
		case identBandwidth:
			sb.WriteString(piece.format.formatSigned(bandwidth))
		case identTime:
			sb.WriteString(piece.format.formatUnsigned(time))
		}
	}
	sb.WriteString(t.literals[len(t.literals)-1])
	return sb.String()
}

// String returns the source template.
func (t *URLTemplate) String() string {
	return t.source
}

func (f numberFormat) formatSigned(v int64) string {
	if f.base == 16 {
		// Hex renders the two's complement bit pattern.
		return f.formatUnsigned(uint64(v))
	}
	if v < 0 {
		return "-" + f.pad(strconv.FormatUint(uint64(-v), 10), 1)
	}
	return f.pad(strconv.FormatInt(v, 10), 0)
}

func (f numberFormat) formatUnsigned(v uint64) string {
	s := strconv.FormatUint(v, f.base)
	if f.upper {
		s = strings.ToUpper(s)
	}
	return f.pad(s, 0)
}

// pad left-pads s with zeros to the format width, minus reserved characters.
func (f numberFormat) pad(s string, reserved int) string {
	if n := f.width - reserved - len(s); n > 0 {
		return strings.Repeat("0", n) + s
	}
	return s
}
