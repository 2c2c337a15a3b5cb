package netlist

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type AnalysisType int

const (
	AnalysisOP AnalysisType = iota
	AnalysisAC
)

type NetlistData struct {
	Elements  []Element      // Circuit elements
	Nodes     map[string]int // Node name and order of appearance
	NodeNames []string       // Node names in order of appearance
	Analysis  AnalysisType   // Analysis type
	Frequency float64        // Hz, from .freq
	HasFreq   bool
	ACParam   struct {
		Sweep  string  // DEC, OCT, LIN
		FStart float64 // start frequency
		Points int     // number of points
		FStop  float64 // stop frequency
	}
	Title string // Circuit title
}

type Element struct {
	Type   string            // Part type (R, L, C, V, I)
	Name   string            // Part name
	Nodes  []string          // Node names
	Value  float64           // Part value, or peak/RMS magnitude of a source
	Params map[string]string // Parameter values
}

var unitMap = map[string]float64{
	"T":   1e12,  // tera
	"G":   1e9,   // giga
	"M":   1e-3,  // milli, as in SPICE
	"meg": 1e6,   // mega
	"K":   1e3,   // kilo
	"k":   1e3,   // kilo
	"m":   1e-3,  // milli
	"u":   1e-6,  // micro
	"n":   1e-9,  // nano
	"p":   1e-12, // pico
	"f":   1e-15, // femto
}

var (
	valuePattern = regexp.MustCompile(`^([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)((?i:meg)|[TGMKkmunpf])?([a-zA-Z]*)$`)
	spaces       = regexp.MustCompile(`\s+`)
)

// IsGround reports whether a node name refers to the ground node.
func IsGround(name string) bool {
	return name == "0" || strings.EqualFold(name, "gnd")
}

func Parse(input string) (*NetlistData, error) {
	scanner := bufio.NewScanner(strings.NewReader(input))
	netlistData := &NetlistData{
		Nodes: make(map[string]int),
	}

	// Title or comment
	if scanner.Scan() {
		netlistData.Title = strings.TrimPrefix(scanner.Text(), "*")
		netlistData.Title = strings.TrimSpace(netlistData.Title)
	}

	var currentLine string
	flush := func() error {
		if currentLine == "" {
			return nil
		}
		err := parseLine(netlistData, currentLine)
		currentLine = ""
		return err
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if len(line) == 0 || strings.HasPrefix(line, "*") {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}

		// Inline comment
		if idx := strings.Index(line, "*"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}

		if strings.HasPrefix(line, "+") { // Line continue
			line = strings.TrimSpace(strings.TrimPrefix(line, "+"))
			if currentLine == "" {
				return nil, fmt.Errorf("continuation line without a preceding line: %s", line)
			}
			currentLine += " " + line
			continue
		}

		if err := flush(); err != nil {
			return nil, err
		}
		currentLine = line
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading netlist: %v", err)
	}

	if err := flush(); err != nil {
		return nil, err
	}

	return netlistData, nil
}

func parseLine(netlistData *NetlistData, line string) error {
	line = spaces.ReplaceAllString(line, " ")

	if strings.HasPrefix(line, ".") {
		return parseDotOperator(netlistData, line)
	}

	element, err := parseElement(line)
	if err != nil {
		return err
	}

	netlistData.Elements = append(netlistData.Elements, *element)
	for _, node := range element.Nodes {
		if _, exists := netlistData.Nodes[node]; !exists {
			netlistData.Nodes[node] = len(netlistData.Nodes)
			netlistData.NodeNames = append(netlistData.NodeNames, node)
		}
	}
	return nil
}

// Parse .op, .freq, .ac, .end
func parseDotOperator(netlistData *NetlistData, line string) error {
	var err error

	fields := strings.Fields(line)

	switch strings.ToLower(fields[0]) {
	case ".op":
		netlistData.Analysis = AnalysisOP

	case ".freq":
		if len(fields) < 2 {
			return fmt.Errorf("missing frequency in %s", line)
		}
		netlistData.Frequency, err = ParseValue(fields[1])
		if err != nil {
			return fmt.Errorf("invalid frequency: %v", err)
		}
		if netlistData.Frequency < 0 {
			return fmt.Errorf("negative frequency: %g", netlistData.Frequency)
		}
		netlistData.HasFreq = true

	case ".ac":
		netlistData.Analysis = AnalysisAC
		if len(fields) < 5 {
			return fmt.Errorf("insufficient AC parameters, need sweep type, points, fstart, and fstop")
		}

		// DEC, OCT, LIN
		netlistData.ACParam.Sweep = strings.ToUpper(fields[1])
		if netlistData.ACParam.Sweep != "DEC" && netlistData.ACParam.Sweep != "OCT" && netlistData.ACParam.Sweep != "LIN" {
			return fmt.Errorf("invalid sweep type: %s", netlistData.ACParam.Sweep)
		}

		netlistData.ACParam.Points, err = strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("invalid points number: %v", err)
		}
		netlistData.ACParam.FStart, err = ParseValue(fields[3])
		if err != nil {
			return fmt.Errorf("invalid fstart: %v", err)
		}
		netlistData.ACParam.FStop, err = ParseValue(fields[4])
		if err != nil {
			return fmt.Errorf("invalid fstop: %v", err)
		}

	case ".end":

	default:
		return fmt.Errorf("unsupported analysis type: %s", fields[0])
	}

	return nil
}

// Parse circuit element
func parseElement(line string) (*Element, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return nil, fmt.Errorf("invalid element format: %s", line)
	}

	elem := &Element{
		Name:   fields[0],
		Type:   strings.ToUpper(string(fields[0][0])),
		Nodes:  []string{fields[1], fields[2]},
		Params: make(map[string]string),
	}

	switch elem.Type {
	case "V", "I":
		return parseSource(elem, fields[3:])

	case "R", "L", "C":
		if len(fields) > 4 {
			return nil, fmt.Errorf("%s: unexpected fields after value: %s", elem.Name, strings.Join(fields[4:], " "))
		}
		value, err := ParseValue(fields[3])
		if err != nil {
			return nil, fmt.Errorf("%s: %v", elem.Name, err)
		}
		elem.Value = value
		return elem, nil

	default:
		return nil, fmt.Errorf("unsupported element type: %s", elem.Name)
	}
}

// parseSource reads "AC mag [phase] [RMS]" or "SIN(0 amp freq [phase]) [RMS]".
// Phases are in degrees.
func parseSource(elem *Element, fields []string) (*Element, error) {
	remaining := strings.Join(fields, " ")
	remaining = strings.ReplaceAll(remaining, "(", " ( ") // Append whitespace around parentheses
	remaining = strings.ReplaceAll(remaining, ")", " ) ")
	words := strings.Fields(remaining)

	var args []string
	for _, w := range words[1:] {
		switch {
		case w == "(" || w == ")":
		case strings.EqualFold(w, "RMS"):
			elem.Params["rms"] = "true"
		default:
			args = append(args, w)
		}
	}

	var err error
	switch strings.ToUpper(words[0]) {
	case "AC":
		if len(args) < 1 || len(args) > 2 {
			return nil, fmt.Errorf("%s: AC needs a magnitude and an optional phase", elem.Name)
		}
		elem.Params["type"] = "ac"
		elem.Value, err = ParseValue(args[0])
		if err != nil {
			return nil, fmt.Errorf("%s: invalid AC magnitude: %v", elem.Name, err)
		}
		elem.Params["phase"] = "0" // Default
		if len(args) > 1 {
			elem.Params["phase"] = args[1]
		}

	case "SIN":
		if len(args) < 3 || len(args) > 4 {
			return nil, fmt.Errorf("%s: SIN needs offset, amplitude, frequency and an optional phase", elem.Name)
		}
		offset, err := ParseValue(args[0])
		if err != nil {
			return nil, fmt.Errorf("%s: invalid SIN offset: %v", elem.Name, err)
		}
		if offset != 0 {
			return nil, fmt.Errorf("%s: SIN offset must be 0, got %g", elem.Name, offset)
		}
		elem.Params["type"] = "sin"
		elem.Value, err = ParseValue(args[1])
		if err != nil {
			return nil, fmt.Errorf("%s: invalid SIN amplitude: %v", elem.Name, err)
		}
		elem.Params["freq"] = args[2]
		elem.Params["phase"] = "0"
		if len(args) > 3 {
			elem.Params["phase"] = args[3]
		}

	default:
		return nil, fmt.Errorf("%s: unsupported source type: %s", elem.Name, words[0])
	}

	return elem, nil
}

// ParseValue - Parse value and factor. 1k -> 1000, 470uF -> 470e-6
func ParseValue(val string) (float64, error) {
	matches := valuePattern.FindStringSubmatch(strings.TrimSpace(val))
	if matches == nil {
		return 0, fmt.Errorf("invalid value format: %s", val)
	}

	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, err
	}

	// factor
	if factor := matches[2]; factor != "" {
		if strings.EqualFold(factor, "meg") {
			factor = "meg"
		}
		num *= unitMap[factor]
	}

	return num, nil
}
