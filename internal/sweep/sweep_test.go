package sweep_test

import (
	"context"
	"errors"

	"github.com/edaniels/golog"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/multierr"

	"github.com/san-kum/pidlab/internal/controllers"
	"github.com/san-kum/pidlab/internal/dynamo"
	"github.com/san-kum/pidlab/internal/sim"
	"github.com/san-kum/pidlab/internal/sweep"
	"github.com/san-kum/pidlab/internal/tf"
)

var _ = Describe("Vary", func() {
	base := controllers.Gains{Kp: 5, Ki: 0.5, Kd: 0.1}

	It("replaces only the named gain", func() {
		cases, err := sweep.Vary(base, controllers.ParamKi, []float64{0, 0.5, 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(cases).To(HaveLen(3))
		Expect(cases[0].Label).To(Equal("Ki=0"))
		Expect(cases[2].Label).To(Equal("Ki=1"))
		for _, c := range cases {
			Expect(c.Gains.Kp).To(Equal(5.0))
			Expect(c.Gains.Kd).To(Equal(0.1))
		}
		Expect(cases[1].Gains).To(Equal(base))
	})

	It("rejects unknown gains", func() {
		_, err := sweep.Vary(base, "Kx", []float64{1})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Runner", func() {
	var (
		runner *sweep.Runner
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		plant := tf.MustNew([]float64{1}, []float64{1, 2, 1})
		runner = sweep.NewRunner(plant, sim.Linspace(0, 10, 1000), golog.NewDevelopmentLogger("sweep"))
		runner.Workers = 3
	})

	It("evaluates cases in input order", func() {
		cases, err := sweep.Vary(controllers.Gains{Ki: 0.5, Kd: 0.1}, controllers.ParamKp, []float64{1, 5, 10})
		Expect(err).NotTo(HaveOccurred())

		outcomes, err := runner.Evaluate(ctx, cases)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcomes).To(HaveLen(3))
		for i, o := range outcomes {
			Expect(o.OK()).To(BeTrue())
			Expect(o.Case).To(Equal(cases[i]))
			Expect(o.Result.Output).To(HaveLen(1000))
			Expect(o.Report.OvershootPercent).To(BeNumerically(">=", 0))
		}
		Expect(outcomes[1].Report.OvershootPercent).To(BeNumerically("~", 7.10, 0.01))
		Expect(outcomes[1].Legend()).To(Equal("Kp=5, OS=7.10%, Ts=10.00s"))
	})

	It("matches a single-worker run exactly", func() {
		cases, err := sweep.Vary(controllers.Gains{Kp: 5, Ki: 0.5}, controllers.ParamKd, []float64{0, 0.1, 0.5, 1, 2})
		Expect(err).NotTo(HaveOccurred())

		parallel, err := runner.Evaluate(ctx, cases)
		Expect(err).NotTo(HaveOccurred())

		runner.Workers = 1
		serial, err := runner.Evaluate(ctx, cases)
		Expect(err).NotTo(HaveOccurred())

		for i := range cases {
			Expect(parallel[i].Result.Output).To(Equal(serial[i].Result.Output))
			Expect(parallel[i].Report.SettlingTime).To(Equal(serial[i].Report.SettlingTime))
		}
	})

	It("keeps successful cases when one fails", func() {
		runner.Plant = tf.MustNew([]float64{1}, []float64{1})
		cases := []sweep.Case{
			{Label: "ok", Gains: controllers.Gains{Kp: 1}},
			{Label: "degenerate", Gains: controllers.Gains{Kp: -1}},
			{Label: "also ok", Gains: controllers.Gains{Kp: 3}},
		}

		outcomes, err := runner.Evaluate(ctx, cases)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, dynamo.ErrDegenerateSystem)).To(BeTrue())
		Expect(multierr.Errors(err)).To(HaveLen(1))
		Expect(err.Error()).To(ContainSubstring("degenerate"))

		Expect(outcomes[0].OK()).To(BeTrue())
		Expect(outcomes[1].OK()).To(BeFalse())
		Expect(outcomes[1].Legend()).To(Equal("degenerate, failed"))
		Expect(outcomes[2].OK()).To(BeTrue())
		// Static loop 3/(3+1).
		Expect(outcomes[2].Result.Final()).To(BeNumerically("~", 0.75, 1e-12))
	})

	It("rejects an invalid grid before running anything", func() {
		runner.Grid = []float64{0}
		outcomes, err := runner.Evaluate(ctx, []sweep.Case{{Label: "p", Gains: controllers.Gains{Kp: 1}}})
		Expect(outcomes).To(BeNil())
		Expect(errors.Is(err, dynamo.ErrInvalidGrid)).To(BeTrue())
	})

	It("rejects an invalid setpoint", func() {
		runner.Setpoint = 0
		_, err := runner.Evaluate(ctx, []sweep.Case{{Label: "p", Gains: controllers.Gains{Kp: 1}}})
		Expect(errors.Is(err, dynamo.ErrInvalidSetpoint)).To(BeTrue())
	})

	It("stops on a cancelled context", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := runner.Evaluate(cancelled, []sweep.Case{{Label: "p", Gains: controllers.Gains{Kp: 1}}})
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})

	It("handles an empty batch", func() {
		outcomes, err := runner.Evaluate(ctx, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcomes).To(BeEmpty())
	})

	It("evaluates panels independently", func() {
		kp, _ := sweep.Vary(controllers.Gains{Ki: 0.5, Kd: 0.1}, controllers.ParamKp, []float64{1, 5})
		ki, _ := sweep.Vary(controllers.Gains{Kp: 5, Kd: 0.1}, controllers.ParamKi, []float64{0, 1})
		panels := []sweep.Panel{{Title: "Vary Kp", Cases: kp}, {Title: "Vary Ki", Cases: ki}}

		results, err := runner.EvaluatePanels(ctx, panels)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(results[0]).To(HaveLen(2))
		Expect(results[1][0].Case.Label).To(Equal("Ki=0"))
	})

	It("uses the configured integrator", func() {
		runner.Integrator = "rk4"
		outcomes, err := runner.Evaluate(ctx, []sweep.Case{{Label: "p", Gains: controllers.Gains{Kp: 2}}})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcomes[0].Result.Integrator).To(Equal("rk4"))
	})
})
