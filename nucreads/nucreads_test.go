package nucreads

import (
	"math"
	"testing"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/scread/bio"
	"bitbucket.org/Davydov/scread/dist"
)

const smallDiff = 1e-9

func init() {
	logging.SetLevel(logging.WARNING, "nucreads")
	logging.SetLevel(logging.WARNING, "bio")
}

func newModel(tst *testing.T, cfg Config) *Model {
	m, err := New(cfg)
	if err != nil {
		tst.Fatal("Error creating model: ", err)
	}
	return m
}

func TestHeterozygousSupport(tst *testing.T) {
	m := newModel(tst, Config{ErrRate: 1e-3, ShapeHom: 1000, ShapeHet: 1000})
	lh := m.SupportLikelihoods(bio.ReadCounts{Alt: []int{10, 0, 0}, Coverage: 20}, nil)
	het, _ := m.Index(Het)
	for i, l := range lh {
		if l < 0 || l > 1 {
			tst.Errorf("Category %v: density %v out of range", m.Categories()[i], l)
		}
		if i != het && l >= lh[het] {
			tst.Errorf("Heterozygous density %v should be larger than %v (%v)", lh[het], l, m.Categories()[i])
		}
	}

	lh = m.SupportLikelihoods(bio.ReadCounts{Alt: []int{0, 0, 0}, Coverage: 20}, lh)
	if hr, _ := m.Index(HomRef); dist.MaxIndices(lh)[0] != hr {
		tst.Error("Homozygous reference should be maximal for reference reads: ", lh)
	}
	lh = m.SupportLikelihoods(bio.ReadCounts{Alt: []int{10, 10, 0}, Coverage: 20}, lh)
	if hi, _ := m.Index(HomAltImbalanced); dist.MaxIndices(lh)[0] != hi {
		tst.Error("Imbalanced homozygous alternative should be maximal for two alternatives: ", lh)
	}
}

func TestZeroSupport(tst *testing.T) {
	for _, v := range []Variant{DirichletMultinomial, BetaBinomial} {
		for _, useLog := range []bool{false, true} {
			m := newModel(tst, Config{Variant: v, ErrRate: 0.01, ShapeHom: 10, ShapeHet: 5, UseLog: useLog})
			exp := 1.0
			if useLog {
				exp = 0
			}
			for i, l := range m.SupportLikelihoods(bio.ReadCounts{Alt: []int{0, 0, 0}}, nil) {
				if l != exp {
					tst.Errorf("%v, log=%v, category %v: expected %v, got %v", v, useLog, m.Categories()[i], exp, l)
				}
			}
		}
	}
}

func TestLogLinear(tst *testing.T) {
	rcs := []bio.ReadCounts{
		{Alt: []int{3, 0, 1}, Coverage: 15},
		{Alt: []int{0, 0, 0}, Coverage: 7},
		{Alt: []int{9, 2, 0}, Coverage: 11},
	}
	for _, v := range []Variant{DirichletMultinomial, BetaBinomial} {
		lin := newModel(tst, Config{Variant: v, ErrRate: 0.01, ShapeHom: 10, ShapeHet: 5})
		lg := newModel(tst, Config{Variant: v, ErrRate: 0.01, ShapeHom: 10, ShapeHet: 5, UseLog: true})
		for _, rc := range rcs {
			l1 := lin.SupportLikelihoods(rc, nil)
			l2 := lg.SupportLikelihoods(rc, nil)
			for i := range l1 {
				if math.Abs(l1[i]-math.Exp(l2[i])) > smallDiff {
					tst.Errorf("%v, %v: %v != exp(%v)", v, rc, l1[i], l2[i])
				}
			}
		}
	}
}

func TestBetaBinomialCategories(tst *testing.T) {
	m := newModel(tst, Config{Variant: BetaBinomial, ErrRate: 0.01, ShapeHom: 100, ShapeHet: 100})
	if m.NCategories() != 3 {
		tst.Fatal("Expected 3 categories, got ", m.NCategories())
	}
	if _, ok := m.Index(HomAltImbalanced); ok {
		tst.Error("Beta-binomial should not model 1/1'")
	}
	lh := m.SupportLikelihoods(bio.ReadCounts{Alt: []int{20}, Coverage: 20}, nil)
	if ha, _ := m.Index(HomAlt); dist.MaxIndices(lh)[0] != ha {
		tst.Error("Homozygous alternative should be maximal: ", lh)
	}
	lh = m.SupportLikelihoods(bio.ReadCounts{Alt: []int{10}, Coverage: 20}, lh)
	if h, _ := m.Index(Het); dist.MaxIndices(lh)[0] != h {
		tst.Error("Heterozygous should be maximal: ", lh)
	}
}

func TestWildTypeParams(tst *testing.T) {
	m := newModel(tst, Config{ErrRate: 0.03, ShapeHom: 10, ShapeHet: 5})
	wt := m.WildTypeParams()
	exp := []float64{0.1, 0.1, 0.1, 9.7, 10}
	for i := range exp {
		if math.Abs(wt[i]-exp[i]) > smallDiff {
			tst.Errorf("Expected %v, got %v", exp, wt)
			break
		}
	}
}

func TestValidate(tst *testing.T) {
	bad := []Config{
		{ErrRate: -0.1, ShapeHom: 1, ShapeHet: 1},
		{ErrRate: 1, ShapeHom: 1, ShapeHet: 1},
		{ErrRate: 0.1, ShapeHom: 0, ShapeHet: 1},
		{ErrRate: 0.1, ShapeHom: 1, ShapeHet: math.NaN()},
		{Variant: BetaBinomial, ErrRate: 0, ShapeHom: 1, ShapeHet: 1},
		{Variant: 5, ErrRate: 0.1, ShapeHom: 1, ShapeHet: 1},
	}
	for _, cfg := range bad {
		if _, err := New(cfg); err == nil {
			tst.Errorf("Expected an error for %+v", cfg)
		}
	}
	if _, err := New(Config{ErrRate: 0, ShapeHom: 1, ShapeHet: 1}); err != nil {
		tst.Error("Zero error rate should be accepted: ", err)
	}
}

func TestCacheStoreRestore(tst *testing.T) {
	counts := [][]bio.ReadCounts{
		{{Alt: []int{3, 0, 0}, Coverage: 7}, {Alt: []int{0, 0, 0}, Coverage: 5}},
		{{Alt: []int{0, 0, 0}, Coverage: 9}, {Alt: []int{4, 0, 0}, Coverage: 8}},
	}
	ali, err := bio.NewAlignment([]string{"a", "b"}, []string{"l1", "l2"}, counts)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	m := newModel(tst, Config{ErrRate: 0.01, ShapeHom: 10, ShapeHet: 5, Estimate: true, UseLog: true})
	if err := m.Initialize(ali); err != nil {
		tst.Fatal("Error: ", err)
	}
	for c := 0; c < ali.NCells(); c++ {
		m.Compute(c)
	}
	m.Clean()
	m.Store()
	old := m.Likelihood(1, 1, 3)

	m.Parameters()[2].Set(50)
	if !m.Changed() {
		tst.Error("Model should be changed")
	}
	m.Compute(1)
	if m.Likelihood(1, 1, 3) == old {
		tst.Error("Likelihood should change")
	}
	m.Parameters()[2].Set(5)
	m.Restore()
	if m.Likelihood(1, 1, 3) != old {
		tst.Error("Likelihood should be restored")
	}

	f, err := ali.Filter([]int{1})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	d, err := m.Duplicate(f)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	d.Compute(1)
	if d.Likelihood(1, 0, 3) != old {
		tst.Error("Duplicate should give the same likelihood")
	}

	binary, _ := bio.NewAlignment([]string{"a"}, []string{"l1"}, [][]bio.ReadCounts{{{Alt: []int{1}, Coverage: 3}}})
	if err := m.Initialize(binary); err == nil {
		tst.Error("Expected an error for binary data")
	}
}
