package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/pidlab/internal/controllers"
	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/tf"
)

var plant = tf.MustNew([]float64{1}, []float64{1, 2, 1})

func closedLoop(t *testing.T, kp, ki, kd float64) tf.TransferFunction {
	t.Helper()
	g, err := controllers.ClosedLoop(controllers.Gains{Kp: kp, Ki: ki, Kd: kd}, plant)
	if err != nil {
		t.Fatalf("closed loop failed: %v", err)
	}
	return g
}

func TestStepResponse_FirstOrder(t *testing.T) {
	g := tf.MustNew([]float64{1}, []float64{1, 1})
	grid := Linspace(0, 5, 51)

	result, err := StepResponse(g, grid)
	if err != nil {
		t.Fatalf("step response failed: %v", err)
	}
	if result.Len() != len(grid) || len(result.Output) != len(grid) {
		t.Fatalf("expected %d samples, got %d", len(grid), len(result.Output))
	}
	for i, tt := range grid {
		want := 1 - math.Exp(-tt)
		if math.Abs(result.Output[i]-want) > 1e-12 {
			t.Errorf("t=%.2f: got %.15f, want %.15f", tt, result.Output[i], want)
		}
	}
	if result.Integrator != "exact" {
		t.Errorf("expected exact integrator, got %s", result.Integrator)
	}
}

func TestStepResponse_CriticallyDamped(t *testing.T) {
	grid := Linspace(0, 10, 1000)
	result, err := StepResponse(plant, grid)
	if err != nil {
		t.Fatalf("step response failed: %v", err)
	}
	for i, tt := range grid {
		want := 1 - math.Exp(-tt)*(1+tt)
		if math.Abs(result.Output[i]-want) > 1e-11 {
			t.Fatalf("t=%.3f: got %.12f, want %.12f", tt, result.Output[i], want)
		}
	}
}

func TestStepResponse_PIDLoopProperties(t *testing.T) {
	grid := Linspace(0, 10, 1000)
	gains := [][3]float64{
		{10, 1, 0.5}, {5, 0.5, 0.1}, {1, 0, 5}, {1, 1, 0.1}, {0, 0, 0}, {-0.5, 0, 0},
	}

	for _, k := range gains {
		result, err := StepResponse(closedLoop(t, k[0], k[1], k[2]), grid)
		if err != nil {
			t.Fatalf("gains %v: %v", k, err)
		}
		if !result.IsBounded() {
			t.Errorf("gains %v: output not finite", k)
		}
		if result.Output[0] != 0 {
			t.Errorf("gains %v: y[0] = %v, expected 0 for a strictly proper loop", k, result.Output[0])
		}
	}
}

func TestStepResponse_InteriorPeak(t *testing.T) {
	grid := Linspace(0, 10, 1000)
	result, err := StepResponse(closedLoop(t, 5, 0.5, 0.1), grid)
	if err != nil {
		t.Fatalf("step response failed: %v", err)
	}

	y := result.Output
	peak := 0
	for i, v := range y {
		if v > y[peak] {
			peak = i
		}
	}
	if peak == 0 || peak == len(y)-1 {
		t.Fatalf("peak at boundary index %d", peak)
	}
	if !(y[peak] > y[peak-1] && y[peak] > y[peak+1]) {
		t.Errorf("peak at %d is not a strict local maximum", peak)
	}
	if y[peak] <= 1 {
		t.Errorf("expected overshoot above setpoint, peak %.4f", y[peak])
	}
}

func TestStepResponse_Biproper(t *testing.T) {
	// (s+2)/(s+1) steps to 2 - e^-t with an immediate jump to 1.
	g := tf.MustNew([]float64{1, 2}, []float64{1, 1})
	grid := Linspace(0, 3, 31)

	result, err := StepResponse(g, grid)
	if err != nil {
		t.Fatalf("step response failed: %v", err)
	}
	if result.Output[0] != 1 {
		t.Errorf("expected y[0] = 1, got %v", result.Output[0])
	}
	last := result.Final()
	if math.Abs(last-(2-math.Exp(-3))) > 1e-12 {
		t.Errorf("unexpected final value %v", last)
	}
}

func TestStepResponse_Unstable(t *testing.T) {
	g := tf.MustNew([]float64{1}, []float64{1, -1})
	grid := Linspace(0, 5, 101)

	result, err := StepResponse(g, grid)
	if err != nil {
		t.Fatalf("unstable systems should simulate: %v", err)
	}
	want := math.Exp(5) - 1
	if math.Abs(result.Final()-want)/want > 1e-10 {
		t.Errorf("got %v, want %v", result.Final(), want)
	}
}

func TestStepResponse_Improper(t *testing.T) {
	g := tf.MustNew([]float64{1, 0, 0}, []float64{1, 1})
	_, err := StepResponse(g, Linspace(0, 1, 10))
	if !errors.Is(err, dynamo.ErrImproperSystem) {
		t.Errorf("expected ErrImproperSystem, got %v", err)
	}
}

func TestStepResponse_ZeroSystem(t *testing.T) {
	g := tf.MustNew([]float64{0}, []float64{1, 3, 2})
	result, err := StepResponse(g, Linspace(0, 2, 20))
	if err != nil {
		t.Fatalf("step response failed: %v", err)
	}
	for _, v := range result.Output {
		if v != 0 {
			t.Fatalf("expected zero output, got %v", v)
		}
	}
}

func TestStepResponse_NonUniformGrid(t *testing.T) {
	g := tf.MustNew([]float64{1}, []float64{1, 1})
	grid := []float64{0, 0.1, 0.1, 0.5, 2, 2.01, 7}

	result, err := StepResponse(g, grid)
	if err != nil {
		t.Fatalf("step response failed: %v", err)
	}
	for i, tt := range grid {
		if math.Abs(result.Output[i]-(1-math.Exp(-tt))) > 1e-12 {
			t.Errorf("t=%v: got %v", tt, result.Output[i])
		}
	}
	if result.Output[1] != result.Output[2] {
		t.Error("repeated time point should repeat the sample")
	}
}

func TestStepResponse_StartOffset(t *testing.T) {
	g := tf.MustNew([]float64{1}, []float64{1, 1})
	grid := Linspace(2, 4, 21)

	result, err := StepResponse(g, grid)
	if err != nil {
		t.Fatalf("step response failed: %v", err)
	}
	if result.Output[0] != 0 {
		t.Errorf("system should start at rest, got %v", result.Output[0])
	}
	if math.Abs(result.Final()-(1-math.Exp(-2))) > 1e-12 {
		t.Errorf("step should start at t[0], got %v", result.Final())
	}
}

func TestRun_Amplitude(t *testing.T) {
	s, err := New("")
	if err != nil {
		t.Fatal(err)
	}
	g := tf.MustNew([]float64{1}, []float64{1, 1})
	result, err := s.Run(context.Background(), g, Linspace(0, 1, 11), -3)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(result.Final()-(-3*(1-math.Exp(-1)))) > 1e-12 {
		t.Errorf("unexpected final value %v", result.Final())
	}
	if result.Amplitude != -3 {
		t.Errorf("amplitude not recorded: %v", result.Amplitude)
	}

	_, err = s.Run(context.Background(), g, Linspace(0, 1, 11), math.Inf(1))
	if !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
}

func TestRun_RK4MatchesExact(t *testing.T) {
	s, err := New("rk4")
	if err != nil {
		t.Fatal(err)
	}
	grid := Linspace(0, 10, 1000)
	g := closedLoop(t, 5, 0.5, 0.1)

	approx, err := s.Run(context.Background(), g, grid, 1)
	if err != nil {
		t.Fatal(err)
	}
	exact, err := StepResponse(g, grid)
	if err != nil {
		t.Fatal(err)
	}
	for i := range grid {
		if math.Abs(approx.Output[i]-exact.Output[i]) > 1e-6 {
			t.Fatalf("rk4 diverges at %d: %v vs %v", i, approx.Output[i], exact.Output[i])
		}
	}
}

func TestRun_Cancelled(t *testing.T) {
	s, _ := New("exact")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx, plant, Linspace(0, 10, 1000), 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type recorder struct{ n int }

func (r *recorder) OnSample(t, y float64) { r.n++ }

func TestRun_Observer(t *testing.T) {
	s, _ := New("exact")
	rec := &recorder{}
	s.AddObserver(rec)

	if _, err := s.Run(context.Background(), plant, Linspace(0, 1, 17), 1); err != nil {
		t.Fatal(err)
	}
	if rec.n != 17 {
		t.Errorf("expected 17 samples observed, got %d", rec.n)
	}
}

func TestNew_UnknownIntegrator(t *testing.T) {
	if _, err := New("verlet"); err == nil {
		t.Error("expected error for unknown integrator")
	}
}
