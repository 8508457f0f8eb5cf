package socialforce_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/crowdsim/internal/socialforce"
)

var _ = Describe("Crowd", func() {
	var crowd *socialforce.Crowd

	BeforeEach(func() {
		crowd = socialforce.New(socialforce.WithSeed(socialforce.DefaultSeed), socialforce.WithWorkers(2))
	})

	addAgent := func(x, y float64, waypoints ...[3]float64) *socialforce.Agent {
		a := crowd.NewAgent()
		a.SetPosition(x, y)
		for _, w := range waypoints {
			a.AddWaypoint(w[0], w[1], w[2])
		}
		Expect(crowd.AddAgent(a)).To(Succeed())
		return a
	}

	run := func(dt float64, steps int) {
		for i := 0; i < steps; i++ {
			Expect(crowd.Step(dt)).To(Succeed())
		}
	}

	Context("with a single agent", func() {
		It("feels no interaction force", func() {
			a := addAgent(0, 0, [3]float64{10, 0, 1})
			f, ok := crowd.Forces(a.ID())
			Expect(ok).To(BeTrue())
			Expect(f.Interaction.Norm()).To(BeZero())
		})

		It("reaches its goal", func() {
			a := addAgent(0, 0, [3]float64{10, 0, 0.5})
			run(0.01, 1500)

			Expect(a.Position().X).To(BeNumerically("~", 10, 1.0))
			Expect(a.Position().Y).To(BeNumerically("~", 0, 1e-9))
		})

		It("does not walk through a wall", func() {
			crowd.AddWall(socialforce.NewWall(-10, 2, 10, 2))
			a := addAgent(0, 0, [3]float64{0, 10, 0.5})
			run(0.01, 1000)

			Expect(a.Position().Y).To(BeNumerically("<", 2))
		})

		It("cycles back and forth between two waypoints", func() {
			a := addAgent(0, 0, [3]float64{3, 0, 0.5}, [3]float64{-3, 0, 0.5})
			seen := map[int]bool{}
			for i := 0; i < 3000; i++ {
				Expect(crowd.Step(0.01)).To(Succeed())
				seen[a.WaypointIndex()] = true
			}

			Expect(seen).To(HaveKey(0))
			Expect(seen).To(HaveKey(1))
			Expect(math.Abs(a.Position().X)).To(BeNumerically("<=", 4))
		})
	})

	Context("with two opposing streams", func() {
		BeforeEach(func() {
			crowd.AddWall(socialforce.NewWall(-25, 6, 25, 6))
			crowd.AddWall(socialforce.NewWall(-25, -6, 25, -6))
			for i := 0; i < 40; i++ {
				x := float64(i%10)*2 - 10
				y := float64(i/10)*2 - 3
				if i%2 == 0 {
					addAgent(x, y, [3]float64{20, 0, 5}, [3]float64{-20, 0, 5})
				} else {
					addAgent(x, y, [3]float64{-20, 0, 5}, [3]float64{20, 0, 5})
				}
			}
		})

		It("never lets an agent exceed its desired speed", func() {
			for i := 0; i < 200; i++ {
				Expect(crowd.Step(0.05)).To(Succeed())
				for _, v := range crowd.Agents() {
					Expect(v.Speed()).To(BeNumerically("<=", v.DesiredSpeed()+1e-9))
				}
			}
		})

		It("keeps every state finite", func() {
			run(0.05, 400)
			for _, s := range crowd.Snapshot() {
				for _, c := range []float64{s.Position.X, s.Position.Y, s.Velocity.X, s.Velocity.Y} {
					Expect(math.IsNaN(c) || math.IsInf(c, 0)).To(BeFalse())
				}
			}
		})

		It("advances the crowd clock", func() {
			run(0.05, 20)
			Expect(crowd.Steps()).To(Equal(20))
			Expect(crowd.Time()).To(BeNumerically("~", 1.0, 1e-9))
		})
	})
})
