package hyperparam

import (
	"cmp"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/aouyang1/go-fuzzyts"
	"github.com/aouyang1/go-fuzzyts/membership"
)

var membershipFuncs = []membership.Func{
	membership.Triangular,
	membership.Trapezoidal,
	membership.Gaussian,
}

// Genotype is a set of hyperparameters of a model and its fitness. F1 is the accuracy fitness and
// F2 the parsimony fitness, both are minimized.
type Genotype struct {
	MF         membership.Func `json:"membership_function"`
	Partitions int             `json:"partitions"`
	Order      int             `json:"order"`
	AlphaCut   float64         `json:"alpha_cut"`

	F1        float64 `json:"f1"`
	F2        float64 `json:"f2"`
	RMSE      float64 `json:"rmse"`
	Rules     float64 `json:"rules"`
	evaluated bool
}

// Key identifies the hyperparameters of the genotype regardless of its fitness
func (g Genotype) Key() string {
	return fmt.Sprintf("%s/%d/%d/%.3f", g.MF, g.Partitions, g.Order, g.AlphaCut)
}

func (g Genotype) String() string {
	return fmt.Sprintf("mf: %s, partitions: %d, order: %d, alpha cut: %.3f, f1: %.3f, f2: %.3f",
		g.MF, g.Partitions, g.Order, g.AlphaCut, g.F1, g.F2)
}

// Options builds the model options of the genotype on top of base. A nil base uses the defaults.
func (g Genotype) Options(base *fuzzyts.Options) (*fuzzyts.Options, error) {
	opt, err := base.Validate()
	if err != nil {
		return nil, err
	}
	grid := *opt.Grid
	grid.MF = g.MF
	grid.Partitions = g.Partitions
	model := *opt.Model
	model.Order = g.Order
	model.AlphaCut = g.AlphaCut

	opt.Grid = &grid
	opt.Model = &model
	return opt.Validate()
}

// compare orders genotypes by accuracy and then by parsimony
func compare(a, b Genotype) int {
	if c := cmp.Compare(a.F1, b.F1); c != 0 {
		return c
	}
	return cmp.Compare(a.F2, b.F2)
}

func roundAlpha(alpha float64) float64 {
	return math.Round(alpha*1000) / 1000
}

func clampInt(v, lo, hi int) int {
	return min(hi, max(lo, v))
}

func (s *Search) randomGenotype() Genotype {
	b := s.opt.Bounds
	return Genotype{
		MF:         membershipFuncs[s.rand.IntN(len(membershipFuncs))],
		Partitions: b.InitialPartitions[0] + s.rand.IntN(b.InitialPartitions[1]-b.InitialPartitions[0]+1),
		Order:      1 + s.rand.IntN(b.InitialMaxOrder),
		AlphaCut:   roundAlpha(s.rand.Float64() * b.MaxAlphaCut),
	}
}

// tournament picks the genotype of two random draws with the lower objective
func tournament(r *rand.Rand, population []Genotype, objective func(Genotype) float64) Genotype {
	if len(population) == 1 {
		return population[0]
	}
	a := population[r.IntN(len(population))]
	b := population[r.IntN(len(population))]
	if objective(a) < objective(b) {
		return a
	}
	return b
}

func f1(g Genotype) float64 { return g.F1 }
func f2(g Genotype) float64 { return g.F2 }

// doubleTournament runs two accuracy tournaments and keeps the more parsimonious winner
func doubleTournament(r *rand.Rand, population []Genotype) Genotype {
	a := tournament(r, population, f1)
	b := tournament(r, population, f1)
	return tournament(r, []Genotype{a, b}, f2)
}

// crossover blends two distinct random parents weighting the more accurate one by 0.7
func crossover(r *rand.Rand, population []Genotype) Genotype {
	i, j := r.IntN(len(population)), r.IntN(len(population))
	for i == j {
		j = r.IntN(len(population))
	}
	best, worst := population[i], population[j]
	if worst.F1 < best.F1 {
		best, worst = worst, best
	}

	child := Genotype{
		MF:         worst.MF,
		Partitions: int(math.Round(0.7*float64(best.Partitions) + 0.3*float64(worst.Partitions))),
		Order:      int(math.Round(0.7*float64(best.Order) + 0.3*float64(worst.Order))),
		AlphaCut:   roundAlpha(0.7*best.AlphaCut + 0.3*worst.AlphaCut),
	}
	if r.Float64() < 0.7 {
		child.MF = best.MF
	}
	return child
}

// mutate perturbs every hyperparameter with gaussian noise within the bounds and draws a new
// membership function
func (s *Search) mutate(g Genotype) Genotype {
	b := s.opt.Bounds
	return Genotype{
		MF:         membershipFuncs[s.rand.IntN(len(membershipFuncs))],
		Partitions: clampInt(int(float64(g.Partitions)+s.rand.NormFloat64()*4), b.MinPartitions, b.MaxPartitions),
		Order:      clampInt(int(float64(g.Order)+s.rand.NormFloat64()), 1, b.MaxOrder),
		AlphaCut:   roundAlpha(min(b.MaxAlphaCut, max(0, g.AlphaCut+s.rand.NormFloat64()*0.5))),
	}
}
