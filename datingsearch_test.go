package generaxcore

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

//stubEvaluator scores the species tree with an arbitrary function and
//counts the rollback traffic
type stubEvaluator struct {
	score       func() float64
	dated       bool
	verbose     bool
	pushes      int
	pops        int
	evaluations int
	frequencies *TransferFrequencies
}

var _ Evaluator = (*stubEvaluator)(nil)

func (e *stubEvaluator) ComputeLikelihood(perFamLL *PerFamLL) float64 {
	e.evaluations++
	ll := e.score()
	if perFamLL != nil {
		*perFamLL = PerFamLL{ll}
	}
	return ll
}

func (e *stubEvaluator) ComputeLikelihoodFast() float64 { return e.score() }

func (e *stubEvaluator) ProvidesFastLikelihoodImpl() bool { return false }

func (e *stubEvaluator) IsDated() bool { return e.dated }

func (e *stubEvaluator) IsVerbose() bool { return e.verbose }

func (e *stubEvaluator) OptimizeModelRates(thorough bool) float64 { return e.score() }

func (e *stubEvaluator) PushRollback() { e.pushes++ }

func (e *stubEvaluator) PopAndApplyRollback() { e.pops++ }

func (e *stubEvaluator) GetTransferInformation(speciesTree *SpeciesTree) (*TransferFrequencies, *PerSpeciesEvents, *PotentialTransfers) {
	return e.frequencies, &PerSpeciesEvents{}, &PotentialTransfers{Counts: map[[2]int]uint64{}}
}

func (e *stubEvaluator) PruneSpeciesTree() bool { return false }

func (e *stubEvaluator) OnSpeciesDatesChange() {}

func (e *stubEvaluator) OnSpeciesTreeChange(nodesToInvalidate map[*Node]bool) {}

//rankDistanceScore rewards datings close to a target rank per label,
//peaking at zero on an exact match
func rankDistanceScore(st *SpeciesTree, targets map[string]int) func() float64 {
	return func() float64 {
		score := 0.0
		for label, target := range targets {
			score -= math.Abs(float64(rankOf(st, label) - target))
		}
		return score
	}
}

func TestOptimizeDatesLocalReachesTarget(t *testing.T) {
	st := mustSpeciesTree(t, quartetNewick, true)
	target := map[string]int{"root": 0, "R": 1, "L": 2}
	evaluator := &stubEvaluator{score: rankDistanceScore(st, target), dated: true}

	state := NewSearchState(math.Inf(-1))
	var callbacks int
	state.BetterTreeCallback = func(ll float64, perFamLL PerFamLL) {
		callbacks++
		require.Equal(t, PerFamLL{ll}, perFamLL)
	}

	ll := optimizeDatesLocal(st, evaluator, state)
	require.Equal(t, 0.0, ll)
	require.Equal(t, 0.0, state.BestLL)
	require.Equal(t, 1, callbacks)
	for label, rank := range target {
		require.Equal(t, rank, rankOf(st, label))
	}
	checkDating(t, st.GetDatedTree())
}

func TestOptimizeDatesLocalNeverWorsens(t *testing.T) {
	SeedRNG(21)
	st := mustSpeciesTree(t, "(((A:1,B:1)ab:1,(C:1,D:1)cd:1)x:1,((E:1,F:1)ef:1,(G:1,H:1)gh:1)y:1)root:1;", true)
	d := st.GetDatedTree()

	// draw a random reachable dating as the target
	d.Randomize()
	target := make(map[string]int)
	for _, label := range []string{"root", "x", "y", "ab", "cd", "ef", "gh"} {
		target[label] = rankOf(st, label)
	}
	d.Randomize() // and climb from elsewhere

	evaluator := &stubEvaluator{score: rankDistanceScore(st, target), dated: true}
	initial := evaluator.score()
	ll := optimizeDatesLocal(st, evaluator, nil)
	require.GreaterOrEqual(t, ll, initial)
	require.LessOrEqual(t, ll, 0.0)
	require.Equal(t, evaluator.score(), ll)
	checkDating(t, d)
}

func caterpillarNewick(leaves int) string {
	nwk := "(s0:1,s1:1)"
	for i := 2; i < leaves; i++ {
		nwk = "(" + nwk + ":1," + fmt.Sprintf("s%d:1", i) + ")"
	}
	return nwk + "root:1;"
}

func TestPerturbateDates(t *testing.T) {
	SeedRNG(9)
	st := mustSpeciesTree(t, caterpillarNewick(17), true)
	require.Equal(t, 16, st.GetTree().GetInnerNodeNumber())
	listener := &countingListener{}
	st.AddListener(listener)

	for i := 0; i < 5; i++ {
		perturbateDates(st, 1.0)
		checkDating(t, st.GetDatedTree())
	}
	perturbateDates(st, 0.3)
	checkDating(t, st.GetDatedTree())
	require.Equal(t, 6, listener.dates)

	require.Panics(t, func() { perturbateDates(st, 0.0) })
	require.Panics(t, func() { perturbateDates(st, -1.0) })
}

func TestOptimizeDatesSkipsUndatedModels(t *testing.T) {
	st := mustSpeciesTree(t, quartetNewick, true)
	evaluator := &stubEvaluator{score: rankDistanceScore(st, map[string]int{"R": 1}), dated: false}
	state := NewSearchState(math.Inf(-1))
	backup := st.GetDatedTree().GetBackup()

	ll := OptimizeDates(st, evaluator, state, true)
	require.Equal(t, evaluator.score(), ll)
	require.Equal(t, ll, state.BestLL)
	// the dating is untouched when the model ignores it
	require.Equal(t, backup, st.GetDatedTree().GetBackup())
	require.Equal(t, 1, evaluator.evaluations)
}

func TestOptimizeDatesThoroughIsMonotone(t *testing.T) {
	SeedRNG(5)
	st := mustSpeciesTree(t, quartetNewick, true)
	target := map[string]int{"root": 0, "R": 1, "L": 2}
	evaluator := &stubEvaluator{score: rankDistanceScore(st, target), dated: true}
	state := NewSearchState(math.Inf(-1))

	first := OptimizeDates(st, evaluator, state, true)
	require.Equal(t, 0.0, first)
	require.Equal(t, 0.0, state.BestLL)
	second := OptimizeDates(st, evaluator, state, true)
	require.GreaterOrEqual(t, second, first)
	for label, rank := range target {
		require.Equal(t, rank, rankOf(st, label))
	}
	checkDating(t, st.GetDatedTree())
}

func TestGetBestDatingsFromReconciliation(t *testing.T) {
	SeedRNG(17)
	st := mustSpeciesTree(t, quartetNewick, true)
	frequencies := buildQuartetFrequencies([]string{"A", "B", "C", "D", "L", "R", "root"}, quartetCounts)
	evaluator := &stubEvaluator{
		score:       rankDistanceScore(st, map[string]int{"root": 0, "R": 1, "L": 2}),
		dated:       true,
		frequencies: frequencies,
	}
	original := st.GetDatedTree().GetBackup()

	require.Panics(t, func() { GetBestDatingsFromReconciliation(st, evaluator, 1, 2) })

	scored := GetBestDatingsFromReconciliation(st, evaluator, 3, 2)
	require.Len(t, scored, 2)
	require.GreaterOrEqual(t, scored[0].Score, scored[1].Score)
	// the input dating is left untouched
	require.Equal(t, original, st.GetDatedTree().GetBackup())

	// the reported scores are the real ones, not the transfer scores
	for _, sb := range scored {
		RestoreDates(st, sb.Backup)
		checkDating(t, st.GetDatedTree())
		require.Equal(t, evaluator.score(), sb.Score)
	}
	RestoreDates(st, original)
}

func TestScoredBackupsSort(t *testing.T) {
	scored := ScoredBackups{
		{Backup: DatedBackup{0}, Score: -3.0},
		{Backup: DatedBackup{1}, Score: 1.0},
		{Backup: DatedBackup{2}, Score: -1.0},
	}
	scored.sortDescending()
	require.Equal(t, []float64{1.0, -1.0, -3.0},
		[]float64{scored[0].Score, scored[1].Score, scored[2].Score})
}
