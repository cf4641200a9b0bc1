package ramp

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_Validate(t *testing.T) {
	assert.NoError(t, testRequest().Validate())

	check := func(name string, mutate func(*Request), target interface{}) {
		t.Run(name, func(t *testing.T) {
			req := testRequest()
			mutate(&req)
			err := req.Validate()
			require.Error(t, err)
			assert.ErrorAs(t, err, target)

			p, err := NewPlan(req)
			assert.Error(t, err)
			assert.Nil(t, p)
		})
	}

	var rangeErr *InvalidRangeError
	var stepErr *InvalidStepCountError
	var travelErr *InvalidTravelError
	var dialectErr *UnsupportedDialectError
	var toolErr *InvalidToolError

	check("zero steps", func(r *Request) { r.StepCount = 0 }, &stepErr)
	check("negative steps", func(r *Request) { r.StepCount = -3 }, &stepErr)
	check("too many steps", func(r *Request) { r.StepCount = MaxStepCount + 1 }, &stepErr)
	check("overflowing steps", func(r *Request) { r.StepCount = math.MaxInt/4 + 1 }, &stepErr)
	check("rpm", func(r *Request) { r.FinishRPM = r.StartRPM - 1 }, &rangeErr)
	check("feed", func(r *Request) { r.FinishFeed = r.StartFeed - 1 }, &rangeErr)
	check("nan rpm", func(r *Request) { r.StartRPM = math.NaN() }, &rangeErr)
	check("x travel", func(r *Request) { r.Machine.XTravel = 0 }, &travelErr)
	check("y travel", func(r *Request) { r.Machine.YTravel = -508 }, &travelErr)
	check("inf travel", func(r *Request) { r.Machine.XTravel = math.Inf(1) }, &travelErr)
	check("dialect", func(r *Request) { r.Dialect = 0 }, &dialectErr)
	check("tool", func(r *Request) { r.Tool = 0 }, &toolErr)
}

func TestRequest_ValidateMessages(t *testing.T) {
	req := testRequest()
	req.FinishFeed = 100
	err := req.Validate()
	assert.EqualError(t, err, "invalid feedrate range: finish 100 is below start 200")

	req = testRequest()
	req.Machine.YTravel = 0
	err = req.Validate()
	var travelErr *InvalidTravelError
	require.ErrorAs(t, err, &travelErr)
	assert.Equal(t, AxisY, travelErr.Axis)
	assert.EqualError(t, err, "invalid Y travel 0: must be a positive number")

	req = testRequest()
	req.StepCount = 20000
	assert.EqualError(t, req.Validate(), "invalid step count 20000: must be between 1 and 10000")

	req.StepCount = MaxStepCount
	assert.NoError(t, req.Validate())
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("Heidenhain")
	assert.NoError(t, err)
	assert.Equal(t, LabelLoop, d)

	d, err = ParseDialect(" while ")
	assert.NoError(t, err)
	assert.Equal(t, WhileLoop, d)

	_, err = ParseDialect("mazatrol")
	var dialectErr *UnsupportedDialectError
	assert.ErrorAs(t, err, &dialectErr)
	assert.EqualError(t, err, `unsupported dialect "mazatrol"`)
}

func TestDialect_JSON(t *testing.T) {
	var v struct{ Dialect Dialect }
	err := json.Unmarshal([]byte(`{"Dialect":"fanuc"}`), &v)
	require.NoError(t, err)
	assert.Equal(t, WhileLoop, v.Dialect)

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Dialect":"while"}`, string(data))

	_, err = json.Marshal(struct{ Dialect Dialect }{})
	assert.Error(t, err)
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, Settings{
		StartRPM: 500, FinishRPM: 3000,
		StartFeed: 200, FinishFeed: 800,
		Coolant: true, Tool: 1, StepCount: 15,
	}, s)
}
