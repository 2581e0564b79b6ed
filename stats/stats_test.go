package stats

import (
	"math"
	"testing"

	"github.com/matryer/is"
)

func TestRunningStatistic(t *testing.T) {
	is := is.New(t)
	type tc struct {
		plies []int
		mean  float64
		stdev float64
	}
	cases := []tc{
		{[]int{10, 12, 23, 23, 16, 23, 21, 16}, 18, 5.2372293656638},
		{[]int{14, 35, 71, 124, 10, 24, 55, 33, 87, 19}, 47.2, 36.937785531891},
		{[]int{60}, 60, 0},
		{[]int{}, 0, 0},
		{[]int{40, 40}, 40, 0},
	}
	for _, c := range cases {
		s := &Statistic{}
		for _, plies := range c.plies {
			s.Push(float64(plies))
		}
		is.True(FuzzyEqual(s.Mean(), c.mean))
		is.True(FuzzyEqual(s.Stdev(), c.stdev))
		is.Equal(s.Count(), len(c.plies))
		if len(c.plies) > 0 {
			is.Equal(s.Last(), float64(c.plies[len(c.plies)-1]))
		}
	}
}

func TestStandardError(t *testing.T) {
	is := is.New(t)
	s := &Statistic{}
	is.Equal(s.StandardError(), 0.0)
	for _, v := range []float64{1, 0, 1, 0} {
		s.Push(v)
	}
	// stdev of {1,0,1,0} is sqrt(1/3); stderr divides by sqrt(n)
	is.True(FuzzyEqual(s.StandardError(), math.Sqrt(1.0/3.0)/2))
}

func TestZVal(t *testing.T) {
	is := is.New(t)
	is.True(FuzzyEqual(ZVal(95), 1.9599639845))
	is.True(FuzzyEqual(ZVal(99), 2.5758293035))
	is.True(ZVal(99.9) > ZVal(99))
}
