package scenario

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/signalsfoundry/vessel-radar/model"
)

// Record keywords.
const (
	kwComment   = "//"
	kwNewTarget = "NEWT"
	kwStartTime = "STARTTIME"
	kwTimeStep  = "TIMESTEP"
	kwTime      = "TIME"
	kwRange     = "RANGE"
)

// newtFields is the number of tokens in a NEWT record, keyword included.
const newtFields = 8

// Scenario is the parsed content of a scenario file.
type Scenario struct {
	// Vessels are in source order and all start pending.
	Vessels []*model.Vessel
	Params  model.ScenarioParameters
}

// Parser turns scenario text into vessels and run parameters. A zero
// Parser is ready to use.
type Parser struct {
	// Defaults seeds Params before any parameter record is read.
	Defaults model.ScenarioParameters
}

// Parse reads a scenario from r. Parsing stops at the first malformed
// record and returns a *FormatError; read failures are returned wrapped.
func (p *Parser) Parse(r io.Reader) (*Scenario, error) {
	sc := &Scenario{
		Vessels: []*model.Vessel{},
		Params:  p.Defaults,
	}
	seen := make(map[int]int)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := splitFields(scanner.Text())
		if fields == nil {
			continue
		}
		if err := sc.apply(lineNo, fields, seen); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scenario: read failed: %w", err)
	}
	return sc, nil
}

// ParseText parses an in-memory scenario.
func (p *Parser) ParseText(text string) (*Scenario, error) {
	return p.Parse(strings.NewReader(text))
}

// ParseFile parses the scenario stored at dir/name.
func (p *Parser) ParseFile(dir, name string) (*Scenario, error) {
	return p.ParseSource(FileSource{Dir: dir, File: name})
}

// ParseSource opens src and parses its content.
func (p *Parser) ParseSource(src Source) (*Scenario, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("scenario: open %s: %w", src.Name(), err)
	}
	defer rc.Close()
	return p.Parse(rc)
}

// Parse parses r with a zero Parser.
func Parse(r io.Reader) (*Scenario, error) { return (&Parser{}).Parse(r) }

// ParseText parses text with a zero Parser.
func ParseText(text string) (*Scenario, error) { return (&Parser{}).ParseText(text) }

// ParseFile parses dir/name with a zero Parser.
func ParseFile(dir, name string) (*Scenario, error) { return (&Parser{}).ParseFile(dir, name) }

// splitFields tokenizes a line on spaces and tabs. Blank and comment lines
// yield nil.
func splitFields(line string) []string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, kwComment) {
		return nil
	}
	return strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == ' ' || r == '\t'
	})
}

func (sc *Scenario) apply(line int, fields []string, seen map[int]int) error {
	var err error
	switch fields[0] {
	case kwStartTime:
		sc.Params.StartTime, err = floatField(line, fields, 1, "start time")
	case kwTimeStep:
		sc.Params.TimeStep, err = floatField(line, fields, 1, "time step")
	case kwTime:
		sc.Params.TotalTime, err = floatField(line, fields, 1, "total time")
	case kwRange:
		sc.Params.Range, err = intField(line, fields, 1, "range")
	case kwNewTarget:
		var v *model.Vessel
		v, err = parseVessel(line, fields)
		if err != nil {
			return err
		}
		if prev, dup := seen[v.ID]; dup {
			return &FormatError{
				Line:    line,
				Keyword: kwNewTarget,
				Field:   "id",
				Value:   fields[1],
				Err:     fmt.Errorf("%w (first defined on line %d)", ErrDuplicateVessel, prev),
			}
		}
		seen[v.ID] = line
		sc.Vessels = append(sc.Vessels, v)
	}
	return err
}

func parseVessel(line int, fields []string) (*model.Vessel, error) {
	if len(fields) < newtFields {
		return nil, &FormatError{
			Line:    line,
			Keyword: kwNewTarget,
			Field:   newtFieldNames[len(fields)],
			Err:     ErrMissingField,
		}
	}

	id, err := intField(line, fields, 1, "id")
	if err != nil {
		return nil, err
	}
	typ, err := model.ParseVesselType(fields[2])
	if err != nil {
		return nil, &FormatError{Line: line, Keyword: kwNewTarget, Field: "type", Value: fields[2], Err: err}
	}

	var nums [5]float64
	for i := range nums {
		idx := 3 + i
		if nums[i], err = floatField(line, fields, idx, newtFieldNames[idx]); err != nil {
			return nil, err
		}
	}

	return &model.Vessel{
		ID:        id,
		Type:      typ,
		X:         nums[0],
		Y:         nums[1],
		VX0:       nums[2],
		VY0:       nums[3],
		StartTime: nums[4],
	}, nil
}

var newtFieldNames = [newtFields]string{"keyword", "id", "type", "x", "y", "vx", "vy", "start time"}

func floatField(line int, fields []string, idx int, name string) (float64, error) {
	if idx >= len(fields) {
		return 0, &FormatError{Line: line, Keyword: fields[0], Field: name, Err: ErrMissingField}
	}
	f, err := strconv.ParseFloat(fields[idx], 64)
	if err != nil {
		return 0, &FormatError{Line: line, Keyword: fields[0], Field: name, Value: fields[idx], Err: err}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &FormatError{Line: line, Keyword: fields[0], Field: name, Value: fields[idx], Err: ErrNonFinite}
	}
	return f, nil
}

func intField(line int, fields []string, idx int, name string) (int, error) {
	if idx >= len(fields) {
		return 0, &FormatError{Line: line, Keyword: fields[0], Field: name, Err: ErrMissingField}
	}
	n, err := strconv.Atoi(fields[idx])
	if err != nil {
		return 0, &FormatError{Line: line, Keyword: fields[0], Field: name, Value: fields[idx], Err: err}
	}
	return n, nil
}
