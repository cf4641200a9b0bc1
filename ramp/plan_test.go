package ramp

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() Request {
	return NewRequest(MachineProfile{XTravel: 762, YTravel: 508}, DefaultSettings(), WhileLoop)
}

func TestNewPlan(t *testing.T) {
	p, err := NewPlan(testRequest())
	require.NoError(t, err)

	assert.InDelta(t, 50.8, p.StepX, 1e-9)
	assert.InDelta(t, 33.8666, p.StepY, 1e-3)
	assert.Equal(t, 625.0, p.LegRPM)
	assert.Equal(t, 150.0, p.LegFeed)
	assert.InDelta(t, 41.6666, p.StepRPM, 1e-3)
	assert.Equal(t, 10.0, p.StepFeed)
	assert.Equal(t, 60, p.TotalSteps())

	assert.Equal(t, AxisX, p.Legs[0].Axis)
	assert.True(t, p.Legs[0].Rising())
	assert.Equal(t, AxisY, p.Legs[1].Axis)
	assert.True(t, p.Legs[1].Rising())
	assert.Equal(t, AxisX, p.Legs[2].Axis)
	assert.False(t, p.Legs[2].Rising())
	assert.Equal(t, AxisY, p.Legs[3].Axis)
	assert.False(t, p.Legs[3].Rising())

	assert.Equal(t, 762.0, p.Legs[2].Start)
	assert.Equal(t, 0.0, p.Legs[2].Boundary)
	assert.Equal(t, "X+762 -> X+0", p.Legs[2].String())
}

func TestPlan_Steps(t *testing.T) {
	req := testRequest()
	req.StepCount = 7
	req.Machine = MachineProfile{XTravel: 1000, YTravel: 333.3}
	req.FinishRPM = 2999.9
	p, err := NewPlan(req)
	require.NoError(t, err)

	steps := p.Steps()
	require.Len(t, steps, 28)

	prevRPM, prevFeed := req.StartRPM, req.StartFeed
	for _, s := range steps {
		assert.GreaterOrEqual(t, s.RPM, prevRPM)
		assert.GreaterOrEqual(t, s.Feed, prevFeed)
		assert.True(t, s.X >= 0 && s.X <= req.Machine.XTravel)
		assert.True(t, s.Y >= 0 && s.Y <= req.Machine.YTravel)
		prevRPM, prevFeed = s.RPM, s.Feed
	}

	last := steps[len(steps)-1]
	assert.Equal(t, req.FinishRPM, last.RPM)
	assert.Equal(t, req.FinishFeed, last.Feed)
	assert.Equal(t, 0.0, last.X)
	assert.Equal(t, 0.0, last.Y)

	// boundaries are exact, not accumulated
	assert.Equal(t, 1000.0, steps[6].X)
	assert.Equal(t, 333.3, steps[13].Y)
	assert.Equal(t, 0.0, steps[20].X)
	assert.Equal(t, 333.3, steps[20].Y)
}

func TestPlan_SingleStep(t *testing.T) {
	req := testRequest()
	req.StepCount = 1
	p, err := NewPlan(req)
	require.NoError(t, err)

	steps := p.Steps()
	require.Len(t, steps, 4)
	assert.Equal(t, Step{Leg: 0, Index: 1, X: 762, Y: 0, RPM: 1125, Feed: 350}, steps[0])
	assert.Equal(t, Step{Leg: 1, Index: 1, X: 762, Y: 508, RPM: 1750, Feed: 500}, steps[1])
	assert.Equal(t, Step{Leg: 2, Index: 1, X: 0, Y: 508, RPM: 2375, Feed: 650}, steps[2])
	assert.Equal(t, Step{Leg: 3, Index: 1, X: 0, Y: 0, RPM: 3000, Feed: 800}, steps[3])
}

func TestPlan_FlatRamp(t *testing.T) {
	req := testRequest()
	req.FinishRPM = req.StartRPM
	req.FinishFeed = req.StartFeed
	p, err := NewPlan(req)
	require.NoError(t, err)

	assert.Equal(t, 0.0, p.StepRPM)
	for _, s := range p.Steps() {
		assert.Equal(t, req.StartRPM, s.RPM)
		assert.Equal(t, req.StartFeed, s.Feed)
	}
}

func TestLegReader(t *testing.T) {
	req := testRequest()
	req.StepCount = 3
	p, err := NewPlan(req)
	require.NoError(t, err)

	r := p.Leg(1)
	assert.Equal(t, AxisY, r.Spec().Axis)

	var got []Step
	for {
		s, err := r.Read()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, s)
	}
	require.Len(t, got, 4)
	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, p.At(0, 3), Step{Leg: 0, Index: 3, X: got[0].X, Y: got[0].Y, RPM: got[0].RPM, Feed: got[0].Feed})
	assert.Equal(t, 508.0, got[3].Y)
	assert.Equal(t, 762.0, got[3].X)
	assert.True(t, got[3].Terminal(3))

	_, err = r.Read()
	assert.Equal(t, io.EOF, err)

	r.Reset()
	s, err := r.Read()
	assert.NoError(t, err)
	assert.Equal(t, got[0], s)
}

func TestPlan_LegOutOfRange(t *testing.T) {
	p, err := NewPlan(testRequest())
	require.NoError(t, err)

	assert.Panics(t, func() { p.Leg(4) })
	assert.Panics(t, func() { p.At(-1, 0) })
}
