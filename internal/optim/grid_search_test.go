package optim_test

import (
	"context"
	"errors"

	"github.com/edaniels/golog"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pidlab/internal/controllers"
	"github.com/san-kum/pidlab/internal/optim"
	"github.com/san-kum/pidlab/internal/sim"
	"github.com/san-kum/pidlab/internal/sweep"
	"github.com/san-kum/pidlab/internal/tf"
)

var _ = Describe("GridSearch", func() {
	var (
		runner *sweep.Runner
		search *optim.GridSearch
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		plant := tf.MustNew([]float64{1}, []float64{1, 2, 1})
		runner = sweep.NewRunner(plant, sim.Linspace(0, 10, 1000), golog.NewDevelopmentLogger("optim"))
		search = optim.NewGridSearch([]float64{1, 5, 10}, []float64{0.5, 1}, []float64{0.1}, "settling_time")
	})

	It("enumerates the Cartesian product", func() {
		cases := search.Cases()
		Expect(cases).To(HaveLen(6))
		Expect(cases[0].Gains).To(Equal(controllers.Gains{Kp: 1, Ki: 0.5, Kd: 0.1}))
		Expect(cases[1].Gains).To(Equal(controllers.Gains{Kp: 1, Ki: 1, Kd: 0.1}))
		Expect(cases[5].Gains).To(Equal(controllers.Gains{Kp: 10, Ki: 1, Kd: 0.1}))
		Expect(cases[0].Label).To(Equal("Kp=1, Ki=0.5, Kd=0.1"))
	})

	It("finds the fastest settling gains", func() {
		best, err := search.Search(ctx, runner)
		Expect(err).NotTo(HaveOccurred())
		Expect(best.Gains).To(Equal(controllers.Gains{Kp: 1, Ki: 1, Kd: 0.1}))
		Expect(best.Score).To(BeNumerically("~", 8.058, 0.006))
	})

	It("respects the overshoot limit", func() {
		search.MaxOvershoot = 10
		best, err := search.Search(ctx, runner)
		Expect(err).NotTo(HaveOccurred())
		Expect(best.Gains).To(Equal(controllers.Gains{Kp: 1, Ki: 0.5, Kd: 0.1}))
		Expect(best.Outcome.Report.OvershootPercent).To(BeNumerically("<=", 10))
	})

	It("ranks candidates best first", func() {
		search.Objective = "overshoot"
		ranked, err := search.Rank(ctx, runner)
		Expect(err).NotTo(HaveOccurred())
		Expect(ranked).To(HaveLen(6))
		Expect(ranked[0].Score).To(Equal(0.0))
		for i := 1; i < len(ranked); i++ {
			Expect(ranked[i].Score).To(BeNumerically(">=", ranked[i-1].Score))
		}
	})

	It("supports every named objective", func() {
		for _, name := range optim.ObjectiveNames() {
			search.Objective = name
			_, err := search.Search(ctx, runner)
			Expect(err).NotTo(HaveOccurred(), name)
		}
	})

	It("rejects an unknown objective", func() {
		search.Objective = "energy"
		_, err := search.Search(ctx, runner)
		Expect(err).To(MatchError(ContainSubstring("unknown objective")))
	})

	It("reports when nothing qualifies", func() {
		search.MaxOvershoot = 0.001
		search.Kp = []float64{10}
		_, err := search.Search(ctx, runner)
		Expect(errors.Is(err, optim.ErrNoCandidate)).To(BeTrue())

		search.Kp = nil
		_, err = search.Search(ctx, runner)
		Expect(errors.Is(err, optim.ErrNoCandidate)).To(BeTrue())
	})

	It("skips failing combinations", func() {
		runner.Plant = tf.MustNew([]float64{1}, []float64{1})
		search = optim.NewGridSearch([]float64{-1, 1, 3}, []float64{0}, []float64{0}, "iae")
		ranked, err := search.Rank(ctx, runner)
		Expect(err).NotTo(HaveOccurred())
		Expect(ranked).To(HaveLen(2))
		Expect(ranked[0].Gains.Kp).To(Equal(3.0))
	})
})
