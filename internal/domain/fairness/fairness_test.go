package fairness_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/fairmeet/internal/domain/fairness"
	"github.com/okian/fairmeet/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func samples(durations ...float64) []model.TravelSample {
	out := make([]model.TravelSample, len(durations))
	for i, d := range durations {
		out[i] = model.TravelSample{PartyID: string(rune('a' + i)), DurationSeconds: d}
	}
	return out
}

func TestScorer_Score(t *testing.T) {
	Convey("Given a scorer with default weights", t, func() {
		s := fairness.NewScorer()

		Convey("When both parties travel 600 seconds", func() {
			b, err := s.Score(samples(600, 600))

			Convey("Then dispersion is zero and the score is 0.7 of ten minutes", func() {
				So(err, ShouldBeNil)
				So(b.DispersionSeconds, ShouldEqual, 0)
				So(b.MaxCommuteSeconds, ShouldEqual, 600)
				So(b.Score, ShouldAlmostEqual, 7, 1e-9)
			})
		})

		Convey("When commutes are unequal", func() {
			fair, _ := s.Score(samples(600, 600))
			unfair, err := s.Score(samples(600, 1500))

			Convey("Then the fair split scores lower", func() {
				So(err, ShouldBeNil)
				So(fair.Score, ShouldBeLessThan, unfair.Score)
				So(unfair.DispersionSeconds, ShouldAlmostEqual, 450, 1e-9)
			})
		})

		Convey("When there are two parties", func() {
			for _, pair := range [][2]float64{{600, 1500}, {120, 3000}, {900, 900}, {0, 60}} {
				b, err := s.Score(samples(pair[0], pair[1]))
				So(err, ShouldBeNil)
				want := 0.35*(pair[0]+pair[1])/60 + 0.5*math.Abs(pair[0]-pair[1])/60
				So(b.Score, ShouldAlmostEqual, want, 1e-9)
			}
		})

		Convey("When max commute grows with dispersion held fixed", func() {
			low, _ := s.Score(samples(600, 900))
			high, _ := s.Score(samples(900, 1200))

			Convey("Then the score does not decrease", func() {
				So(low.DispersionSeconds, ShouldAlmostEqual, high.DispersionSeconds, 1e-9)
				So(high.Score, ShouldBeGreaterThanOrEqualTo, low.Score)
			})
		})

		Convey("When dispersion grows with max commute held fixed", func() {
			low, _ := s.Score(samples(1200, 1200, 1200))
			high, _ := s.Score(samples(1200, 600, 300))

			Convey("Then the score does not decrease", func() {
				So(low.MaxCommuteSeconds, ShouldEqual, high.MaxCommuteSeconds)
				So(high.Score, ShouldBeGreaterThan, low.Score)
			})
		})

		Convey("When there are no samples", func() {
			_, err := s.Score(nil)
			So(errors.Is(err, fairness.ErrNoSamples), ShouldBeTrue)
		})

		Convey("When a duration is negative or not finite", func() {
			for _, d := range []float64{-1, math.NaN(), math.Inf(1)} {
				_, err := s.Score(samples(60, d))
				So(errors.Is(err, fairness.ErrInvalidSample), ShouldBeTrue)
			}
		})
	})

	Convey("Given custom weights", t, func() {
		s := fairness.NewScorer(fairness.WithWeights(1, 0))
		b, err := s.Score(samples(60, 600))

		Convey("Then only the worst commute counts", func() {
			So(err, ShouldBeNil)
			So(b.Score, ShouldAlmostEqual, 10, 1e-9)
		})

		Convey("And invalid weights are ignored", func() {
			mw, dw := fairness.NewScorer(fairness.WithWeights(0, 0)).Weights()
			So(mw, ShouldEqual, fairness.DefaultMaxWeight)
			So(dw, ShouldEqual, fairness.DefaultDispersionWeight)
		})
	})
}

func TestScorer_Balance(t *testing.T) {
	Convey("Given a scorer", t, func() {
		s := fairness.NewScorer()

		Convey("Then shares close to equal are perfectly fair", func() {
			b, err := s.Balance(samples(600, 640))
			So(err, ShouldBeNil)
			So(b, ShouldEqual, model.BalancePerfectlyFair)
		})

		Convey("Then moderate skew is fair enough", func() {
			b, _ := s.Balance(samples(600, 900))
			So(b, ShouldEqual, model.BalanceFairEnough)
		})

		Convey("Then heavy skew is unbalanced", func() {
			b, _ := s.Balance(samples(300, 1500))
			So(b, ShouldEqual, model.BalanceUnbalanced)
		})

		Convey("Then zero travel for everyone is perfectly fair", func() {
			b, _ := s.Balance(samples(0, 0, 0))
			So(b, ShouldEqual, model.BalancePerfectlyFair)
		})

		Convey("Then empty input is rejected", func() {
			_, err := s.Balance(nil)
			So(errors.Is(err, fairness.ErrNoSamples), ShouldBeTrue)
		})
	})
}
