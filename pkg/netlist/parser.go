// Package netlist parses .cir circuit descriptions into a typed element
// list. Lines are whitespace-delimited, the element prefix is case
// insensitive, "*" starts a comment, "+" continues the previous line and
// node "0" (or "gnd") is ground.
package netlist

import (
	"bufio"
	stderrors "errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/prokie/krets/pkg/device"
)

var (
	// ErrParse reports a malformed netlist: bad line structure, unknown
	// prefix, bad numeric literal or duplicate element identifier.
	ErrParse = stderrors.New("netlist: parse error")

	// ErrUnsupported reports an element the parser understands but this
	// build cannot assemble (BJT).
	ErrUnsupported = stderrors.New("netlist: unsupported element kind")
)

// Element is one parsed netlist card.
type Element struct {
	Type   string   // R, C, L, V, I, D, M, Q
	Name   string   // full identifier, e.g. "R1"
	Nodes  []string // terminal node labels in card order
	Value  float64
	Params map[string]float64 // key=value card parameters, lower-cased keys

	Wave    device.Waveform // independent sources only
	HasAC   bool
	ACMag   float64
	ACPhase float64

	Group2 bool // resistor with an explicit branch-current unknown
}

var valueRe = regexp.MustCompile(`^([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)([a-zA-Z]*)$`)

// ParseValue parses a numeric literal with an optional engineering suffix,
// following the Berkeley SPICE convention: suffixes are case insensitive,
// "meg" is 1e6 and "m" is 1e-3.
func ParseValue(val string) (float64, error) {
	matches := valueRe.FindStringSubmatch(strings.TrimSpace(val))
	if matches == nil {
		return 0, errors.Wrapf(ErrParse, "invalid value format: %q", val)
	}

	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, errors.Wrapf(ErrParse, "invalid number: %q", val)
	}

	suffix := strings.ToLower(matches[2])
	if suffix == "" {
		return num, nil
	}
	if strings.HasPrefix(suffix, "meg") {
		return num * 1e6, nil
	}

	switch suffix[0] {
	case 't':
		num *= 1e12
	case 'g':
		num *= 1e9
	case 'k':
		num *= 1e3
	case 'm':
		num *= 1e-3
	case 'u':
		num *= 1e-6
	case 'n':
		num *= 1e-9
	case 'p':
		num *= 1e-12
	case 'f':
		num *= 1e-15
	default:
		return 0, errors.Wrapf(ErrParse, "unknown engineering suffix in %q", val)
	}

	return num, nil
}

// Parse reads a whole netlist. Every significant line is an element card;
// analysis selection lives in the configuration file, not in the netlist.
func Parse(input string) ([]Element, error) {
	var elements []Element
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(strings.NewReader(input))
	var currentLine string

	flush := func() error {
		if currentLine == "" {
			return nil
		}
		elem, err := parseLine(currentLine)
		if err != nil {
			return err
		}
		key := strings.ToUpper(elem.Name)
		if seen[key] {
			return errors.Wrapf(ErrParse, "duplicate element identifier %s", elem.Name)
		}
		seen[key] = true
		elements = append(elements, *elem)
		currentLine = ""
		return nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if idx := strings.Index(line, "*"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "+") {
			currentLine += " " + strings.TrimSpace(line[1:])
			continue
		}

		if err := flush(); err != nil {
			return nil, err
		}
		currentLine = line
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return elements, nil
}

func parseLine(line string) (*Element, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return nil, errors.Wrapf(ErrParse, "invalid element format: %q", line)
	}

	elem := &Element{
		Name:   fields[0],
		Type:   strings.ToUpper(string(fields[0][0])),
		Params: make(map[string]float64),
	}

	switch elem.Type {
	case "R":
		return parseResistor(elem, fields)

	case "C", "L":
		if len(fields) != 4 {
			return nil, errors.Wrapf(ErrParse, "%s: expected 2 nodes and a value", elem.Name)
		}
		elem.Nodes = fields[1:3]
		value, err := ParseValue(fields[3])
		if err != nil {
			return nil, err
		}
		if value <= 0 {
			return nil, errors.Wrapf(ErrParse, "%s: value must be positive", elem.Name)
		}
		elem.Value = value
		return elem, nil

	case "V", "I":
		return parseSource(elem, fields)

	case "D":
		if len(fields) < 3 {
			return nil, errors.Wrapf(ErrParse, "%s: expected 2 nodes", elem.Name)
		}
		elem.Nodes = fields[1:3]
		if err := parseKeyValues(elem, fields[3:]); err != nil {
			return nil, err
		}
		return elem, nil

	case "M":
		if len(fields) < 4 {
			return nil, errors.Wrapf(ErrParse, "%s: expected 3 nodes (drain, gate, source)", elem.Name)
		}
		elem.Nodes = fields[1:4]
		if err := parseKeyValues(elem, fields[4:]); err != nil {
			return nil, err
		}
		return elem, nil

	case "Q":
		// BJT cards are recognized so assembly can reject them cleanly.
		if len(fields) < 4 {
			return nil, errors.Wrapf(ErrParse, "%s: expected 3 nodes (collector, base, emitter)", elem.Name)
		}
		elem.Nodes = fields[1:4]
		return elem, nil

	default:
		return nil, errors.Wrapf(ErrParse, "unknown element prefix %q in %q", elem.Type, line)
	}
}

func parseResistor(elem *Element, fields []string) (*Element, error) {
	if len(fields) < 4 {
		return nil, errors.Wrapf(ErrParse, "%s: expected 2 nodes and a value", elem.Name)
	}
	elem.Nodes = fields[1:3]

	value, err := ParseValue(fields[3])
	if err != nil {
		return nil, err
	}
	if value <= 0 {
		return nil, errors.Wrapf(ErrParse, "%s: resistance must be positive", elem.Name)
	}
	elem.Value = value

	for _, f := range fields[4:] {
		if strings.EqualFold(f, "G2") {
			elem.Group2 = true
			continue
		}
		return nil, errors.Wrapf(ErrParse, "%s: unexpected token %q", elem.Name, f)
	}

	return elem, nil
}

// parseSource handles V and I cards: a plain DC value or a SIN/PULSE/PWL
// waveform, optionally followed by "AC mag [phase]".
func parseSource(elem *Element, fields []string) (*Element, error) {
	if len(fields) < 4 {
		return nil, errors.Wrapf(ErrParse, "%s: expected 2 nodes and a value", elem.Name)
	}
	elem.Nodes = fields[1:3]

	remaining := strings.Join(fields[3:], " ")
	remaining = strings.ReplaceAll(remaining, "(", " ( ")
	remaining = strings.ReplaceAll(remaining, ")", " ) ")
	words := strings.Fields(remaining)

	haveValue := false
	i := 0
	for i < len(words) {
		switch strings.ToUpper(words[i]) {
		case "DC":
			if i+1 >= len(words) {
				return nil, errors.Wrapf(ErrParse, "%s: missing DC value", elem.Name)
			}
			value, err := ParseValue(words[i+1])
			if err != nil {
				return nil, err
			}
			elem.Wave = device.Waveform{Kind: device.DC, DCValue: value}
			elem.Value = value
			haveValue = true
			i += 2

		case "AC":
			if i+1 >= len(words) {
				return nil, errors.Wrapf(ErrParse, "%s: missing AC magnitude", elem.Name)
			}
			mag, err := ParseValue(words[i+1])
			if err != nil {
				return nil, err
			}
			elem.HasAC = true
			elem.ACMag = mag
			i += 2
			if i < len(words) {
				if phase, err := ParseValue(words[i]); err == nil {
					elem.ACPhase = phase
					i++
				}
			}

		case "SIN":
			group, next, err := parenGroup(elem.Name, words, i+1)
			if err != nil {
				return nil, err
			}
			wave, err := parseSin(elem.Name, group)
			if err != nil {
				return nil, err
			}
			elem.Wave = wave
			elem.Value = wave.At(0)
			haveValue = true
			i = next

		case "PULSE":
			group, next, err := parenGroup(elem.Name, words, i+1)
			if err != nil {
				return nil, err
			}
			wave, err := parsePulse(elem.Name, group)
			if err != nil {
				return nil, err
			}
			elem.Wave = wave
			elem.Value = wave.At(0)
			haveValue = true
			i = next

		case "PWL":
			group, next, err := parenGroup(elem.Name, words, i+1)
			if err != nil {
				return nil, err
			}
			wave, err := parsePWL(elem.Name, group)
			if err != nil {
				return nil, err
			}
			elem.Wave = wave
			elem.Value = wave.At(0)
			haveValue = true
			i = next

		default:
			value, err := ParseValue(words[i])
			if err != nil {
				return nil, errors.Wrapf(ErrParse, "%s: unexpected token %q", elem.Name, words[i])
			}
			elem.Wave = device.Waveform{Kind: device.DC, DCValue: value}
			elem.Value = value
			haveValue = true
			i++
		}
	}

	if !haveValue {
		return nil, errors.Wrapf(ErrParse, "%s: missing source value", elem.Name)
	}

	return elem, nil
}

func parenGroup(name string, words []string, i int) ([]string, int, error) {
	if i >= len(words) || words[i] != "(" {
		return nil, 0, errors.Wrapf(ErrParse, "%s: expected '(' after waveform keyword", name)
	}
	for j := i + 1; j < len(words); j++ {
		if words[j] == ")" {
			return words[i+1 : j], j + 1, nil
		}
	}
	return nil, 0, errors.Wrapf(ErrParse, "%s: unterminated waveform parameter list", name)
}

func parseSin(name string, params []string) (device.Waveform, error) {
	if len(params) < 3 {
		return device.Waveform{}, errors.Wrapf(ErrParse, "%s: SIN needs offset, amplitude and frequency", name)
	}

	vals, err := parseValues(name, params)
	if err != nil {
		return device.Waveform{}, err
	}

	wave := device.Waveform{
		Kind:      device.SIN,
		DCValue:   vals[0],
		Amplitude: vals[1],
		Freq:      vals[2],
	}
	if len(vals) > 3 {
		wave.Phase = vals[3]
	}
	return wave, nil
}

func parsePulse(name string, params []string) (device.Waveform, error) {
	if len(params) < 7 {
		return device.Waveform{}, errors.Wrapf(ErrParse, "%s: PULSE needs v1, v2, delay, rise, fall, width and period", name)
	}

	vals, err := parseValues(name, params)
	if err != nil {
		return device.Waveform{}, err
	}

	return device.Waveform{
		Kind:   device.PULSE,
		V1:     vals[0],
		V2:     vals[1],
		Delay:  vals[2],
		Rise:   vals[3],
		Fall:   vals[4],
		Width:  vals[5],
		Period: vals[6],
	}, nil
}

func parsePWL(name string, params []string) (device.Waveform, error) {
	if len(params) < 4 || len(params)%2 != 0 {
		return device.Waveform{}, errors.Wrapf(ErrParse, "%s: PWL needs time/value pairs", name)
	}

	vals, err := parseValues(name, params)
	if err != nil {
		return device.Waveform{}, err
	}

	n := len(vals) / 2
	times := make([]float64, n)
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		times[i] = vals[2*i]
		values[i] = vals[2*i+1]
		if i > 0 && times[i] <= times[i-1] {
			return device.Waveform{}, errors.Wrapf(ErrParse, "%s: PWL time points must be strictly increasing", name)
		}
	}

	return device.Waveform{Kind: device.PWL, Times: times, Values: values}, nil
}

func parseValues(name string, params []string) ([]float64, error) {
	vals := make([]float64, len(params))
	for i, p := range params {
		v, err := ParseValue(p)
		if err != nil {
			return nil, errors.Wrapf(ErrParse, "%s: invalid waveform parameter %q", name, p)
		}
		vals[i] = v
	}
	return vals, nil
}

func parseKeyValues(elem *Element, fields []string) error {
	for _, f := range fields {
		pair := strings.SplitN(f, "=", 2)
		if len(pair) != 2 {
			return errors.Wrapf(ErrParse, "%s: expected key=value, got %q", elem.Name, f)
		}
		value, err := ParseValue(pair[1])
		if err != nil {
			return err
		}
		elem.Params[strings.ToLower(pair[0])] = value
	}
	return nil
}

// CreateDevice turns a parsed element into its device instance.
func CreateDevice(elem Element) (device.Device, error) {
	switch elem.Type {
	case "R":
		return device.NewResistor(elem.Name, elem.Nodes, elem.Value, elem.Group2), nil

	case "C":
		return device.NewCapacitor(elem.Name, elem.Nodes, elem.Value), nil

	case "L":
		return device.NewInductor(elem.Name, elem.Nodes, elem.Value), nil

	case "V":
		v := device.NewVoltageSource(elem.Name, elem.Nodes, elem.Wave)
		if elem.HasAC {
			v.SetAC(elem.ACMag, elem.ACPhase)
		}
		return v, nil

	case "I":
		c := device.NewCurrentSource(elem.Name, elem.Nodes, elem.Wave)
		if elem.HasAC {
			c.SetAC(elem.ACMag, elem.ACPhase)
		}
		return c, nil

	case "D":
		d := device.NewDiode(elem.Name, elem.Nodes)
		d.SetModelParameters(elem.Params)
		return d, nil

	case "M":
		m := device.NewMosfet(elem.Name, elem.Nodes)
		m.SetModelParameters(elem.Params)
		return m, nil

	case "Q":
		return nil, errors.Wrapf(ErrUnsupported, "%s: BJT devices are not implemented", elem.Name)

	default:
		return nil, errors.Wrapf(ErrParse, "unsupported device type %q", elem.Type)
	}
}
