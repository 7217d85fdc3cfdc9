package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/vessel-radar/model"
)

func TestParseText_EmptyText(t *testing.T) {
	for name, text := range map[string]string{
		"empty":      "",
		"newline":    "\n",
		"whitespace": "  \t \n\t\t\n   ",
		"comments":   "// a comment\n   // indented comment\n\t// NEWT 1 Human x y 0 0 0\n",
	} {
		t.Run(name, func(t *testing.T) {
			p := &Parser{Defaults: model.ScenarioParameters{StartTime: 3, TimeStep: 2, TotalTime: 9, Range: 11}}
			sc, err := p.ParseText(text)
			require.NoError(t, err)
			assert.Empty(t, sc.Vessels)
			assert.Equal(t, p.Defaults, sc.Params)
		})
	}
}

func TestParseText_ValidLine(t *testing.T) {
	text := "NEWT\t 001\t  \t\tHuman\t\t\t4990           \t\t0        \t\t0.1\t\t\t   \t    0.1  \t\t 10\n"

	sc, err := ParseText(text)
	require.NoError(t, err)
	require.Len(t, sc.Vessels, 1)

	v := sc.Vessels[0]
	assert.Equal(t, 1, v.ID)
	assert.Equal(t, model.Human, v.Type)
	assert.InDelta(t, 4990.0, v.X, 1e-12)
	assert.InDelta(t, 0.0, v.Y, 1e-12)
	assert.InDelta(t, 0.1, v.VX0, 1e-12)
	assert.InDelta(t, 0.1, v.VY0, 1e-12)
	assert.InDelta(t, 10.0, v.StartTime, 1e-12)
	assert.Zero(t, v.CourseDistance)
	assert.Zero(t, v.UpdateTime)
}

func TestParseText_MissingKeywordIsSkipped(t *testing.T) {
	text := "001\t  \t\t1\t\t\t4990           \t\t0        \t\t0.1\t\t\t   \t    0.1  \t\t 10\n"

	sc, err := ParseText(text)
	require.NoError(t, err)
	assert.Empty(t, sc.Vessels)
}

func TestParseText_UnknownKeywordsIgnored(t *testing.T) {
	sc, err := ParseText("VERSION 2\nAUTHOR somebody\nNEWT 1 Human 0 0 0 0 0\nnewt 2 Human 0 0 0 0 0\n")
	require.NoError(t, err)
	require.Len(t, sc.Vessels, 1)
	assert.Equal(t, 1, sc.Vessels[0].ID)
}

func TestParseText_Parameters(t *testing.T) {
	text := "STARTTIME 5\nTIMESTEP 0.5\nTIME 120\nRANGE 2500\nTIME 90\n"

	sc, err := ParseText(text)
	require.NoError(t, err)
	assert.Equal(t, model.ScenarioParameters{StartTime: 5, TimeStep: 0.5, TotalTime: 90, Range: 2500}, sc.Params)
}

func TestParseText_PreservesSourceOrder(t *testing.T) {
	text := "NEWT 9 Human 0 0 0 0 0\nNEWT 3 SpeedBoat 0 0 0 0 0\nSTARTTIME 1\nNEWT 5 CargoVessel 0 0 0 0 0\n"

	sc, err := ParseText(text)
	require.NoError(t, err)
	ids := make([]int, 0, len(sc.Vessels))
	for _, v := range sc.Vessels {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []int{9, 3, 5}, ids)
}

func TestParseText_CRLFMatchesLF(t *testing.T) {
	lf := "STARTTIME 1\nTIMESTEP 1\nNEWT 1 FishingBoat 1.5 2.5 0.1 0.2 3\n"
	crlf := "STARTTIME 1\r\nTIMESTEP 1\r\nNEWT 1 FishingBoat 1.5 2.5 0.1 0.2 3\r\n"

	a, err := ParseText(lf)
	require.NoError(t, err)
	b, err := ParseText(crlf)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParseText_FormatErrors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		line    int
		field   string
		wantErr error
	}{
		{"non-numeric x", "NEWT 1 Human abc 0 0 0 0\n", 1, "x", strconv.ErrSyntax},
		{"non-numeric start", "\n\nNEWT 1 Human 0 0 0 0 soon\n", 3, "start time", strconv.ErrSyntax},
		{"non-numeric id", "NEWT one Human 0 0 0 0 0\n", 1, "id", strconv.ErrSyntax},
		{"unknown type", "NEWT 1 Submarine 0 0 0 0 0\n", 1, "type", model.ErrUnknownVesselType},
		{"lowercase type", "NEWT 1 human 0 0 0 0 0\n", 1, "type", model.ErrUnknownVesselType},
		{"numeric type", "NEWT 1 1 0 0 0 0 0\n", 1, "type", model.ErrUnknownVesselType},
		{"short record", "NEWT 1 Human 0 0\n", 1, "vx", ErrMissingField},
		{"bad time step", "TIMESTEP fast\n", 1, "time step", strconv.ErrSyntax},
		{"fractional range", "RANGE 100.5\n", 1, "range", strconv.ErrSyntax},
		{"missing range", "RANGE\n", 1, "range", ErrMissingField},
		{"nan", "TIME NaN\n", 1, "total time", ErrNonFinite},
		{"duplicate id", "NEWT 1 Human 0 0 0 0 0\nNEWT 001 Human 5 5 0 0 0\n", 2, "id", ErrDuplicateVessel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := ParseText(tt.text)
			require.Error(t, err)
			assert.Nil(t, sc)
			assert.ErrorIs(t, err, ErrFormat)
			assert.ErrorIs(t, err, tt.wantErr)

			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.line, fe.Line)
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestParseText_CommentSuppressesMalformedContent(t *testing.T) {
	sc, err := ParseText("// NEWT 1 Submarine x y z\n  //RANGE lots\n")
	require.NoError(t, err)
	assert.Empty(t, sc.Vessels)
}

func TestParseFile_MatchesParseText(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "harbour.vsf"))
	require.NoError(t, err)

	fromFile, err := ParseFile("testdata", "harbour.vsf")
	require.NoError(t, err)
	fromText, err := ParseText(string(data))
	require.NoError(t, err)

	assert.Equal(t, fromText, fromFile)
	assert.Len(t, fromFile.Vessels, 5)
	assert.Equal(t, model.ScenarioParameters{StartTime: 0, TimeStep: 1, TotalTime: 60, Range: 5000}, fromFile.Params)
	assert.Equal(t, model.PassengerVessel, fromFile.Vessels[4].Type)
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(t.TempDir(), "absent.vsf")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NotErrorIs(t, err, ErrFormat)
}

func TestParseSource_Text(t *testing.T) {
	sc, err := (&Parser{}).ParseSource(TextSource("NEWT 4 CargoVessel 1 2 3 4 5\n"))
	require.NoError(t, err)
	require.Len(t, sc.Vessels, 1)
	assert.Equal(t, model.CargoVessel, sc.Vessels[0].Type)
}
