package glicko_test

import (
	"testing"

	glicko "github.com/matrank/matrank/internal/domain/glicko"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSolveSigma(t *testing.T) {
	Convey("Given the reference Glicko-2 example inputs", t, func() {
		// Player 1500/200/0.06 facing 1400(30)W, 1550(100)L, 1700(300)L
		// under tau=0.5 yields a new volatility of about 0.05999.
		delta := -0.4834
		phi := 200.0 / glicko.Scale
		v := 1.7785
		sigma := 0.06
		tau := 0.5

		Convey("When solving for the new volatility", func() {
			got, err := glicko.SolveSigma(delta, phi, v, sigma, tau)

			Convey("Then it should converge to the published value", func() {
				So(err, ShouldBeNil)
				So(got, ShouldAlmostEqual, 0.05999, 0.0005)
			})
		})
	})

	Convey("Given a very small tau", t, func() {
		// A tight tau pins the volatility to its prior value.
		sigma := 0.06

		Convey("When solving with ordinary match evidence", func() {
			got, err := glicko.SolveSigma(0.2, 1.2, 1.8, sigma, 0.001)

			Convey("Then the volatility should barely move", func() {
				So(err, ShouldBeNil)
				So(got, ShouldAlmostEqual, sigma, 0.001)
			})
		})
	})

	Convey("Given a surprising result relative to the expected variance", t, func() {
		// delta^2 far above phi^2+v takes the direct upper-bound branch.
		delta := 3.0
		phi := 0.5
		v := 0.8
		sigma := 0.06
		tau := 0.5

		Convey("When solving for the new volatility", func() {
			got, err := glicko.SolveSigma(delta, phi, v, sigma, tau)

			Convey("Then the volatility should grow but stay finite", func() {
				So(err, ShouldBeNil)
				So(got, ShouldBeGreaterThan, sigma)
				So(got, ShouldBeLessThan, 1.0)
			})
		})
	})
}
