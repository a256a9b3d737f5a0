package generaxcore

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

//TransferFrequencies stores how often a horizontal gene transfer
//between each pair of species branches was observed during
//reconciliation. Counts are whole numbers, kept in a dense matrix
//with rows as sources and columns as destinations. Immutable once
//handed to a search.
type TransferFrequencies struct {
	Count     *mat.Dense
	IDToLabel []string
}

//NewTransferFrequencies will allocate a zero count matrix over the
//given species labels
func NewTransferFrequencies(idToLabel []string) *TransferFrequencies {
	n := len(idToLabel)
	return &TransferFrequencies{
		Count:     mat.NewDense(n, n, nil),
		IDToLabel: append([]string(nil), idToLabel...),
	}
}

//Size will return the number of species labels
func (f *TransferFrequencies) Size() int {
	return len(f.IDToLabel)
}

//AddCount will add count observed transfers from one species to another
func (f *TransferFrequencies) AddCount(from, to int, count uint64) {
	f.Count.Set(from, to, f.Count.At(from, to)+float64(count))
}

//GetTransferScore will evaluate the current tree dating based on the
//share of precomputed undated transfer events that are supported by
//the dating. Better datings permit more precomputed transfers and get
//higher scores. The source range is partitioned across the parallel
//context for less computational redundancy.
func GetTransferScore(speciesTree *SpeciesTree, frequencies *TransferFrequencies, parallel ParallelContext) uint64 {
	labelToID := speciesTree.GetLabelToID()
	datedTree := speciesTree.GetDatedTree()
	n := frequencies.Size()
	return parallel.SumUint(n, func(begin, end int) uint64 {
		var score uint64
		for from := begin; from < end; from++ {
			for to := 0; to < n; to++ {
				count := frequencies.Count.At(from, to)
				if count == 0 {
					continue
				}
				// check if the current dating permits the precomputed transfer
				src := labelToID[frequencies.IDToLabel[from]]
				dest := labelToID[frequencies.IDToLabel[to]]
				if datedTree.CanTransferUnderRelDated(src, dest) {
					score += uint64(count)
				}
			}
		}
		return score
	})
}

//TransferScoreEvaluator is the surrogate evaluator used to rapidly
//rank random datings before committing to the expensive real
//likelihood. Only the likelihood computations and IsVerbose are
//serviced, nothing else is ever called on it along the random-dating
//search path.
type TransferScoreEvaluator struct {
	speciesTree *SpeciesTree
	frequencies *TransferFrequencies
	parallel    ParallelContext
}

var _ Evaluator = (*TransferScoreEvaluator)(nil)

//NewTransferScoreEvaluator will build a surrogate evaluator borrowing
//the species tree and the precomputed transfer frequencies
func NewTransferScoreEvaluator(speciesTree *SpeciesTree, frequencies *TransferFrequencies, parallel ParallelContext) *TransferScoreEvaluator {
	return &TransferScoreEvaluator{
		speciesTree: speciesTree,
		frequencies: frequencies,
		parallel:    parallel,
	}
}

func (e *TransferScoreEvaluator) ComputeLikelihood(perFamLL *PerFamLL) float64 {
	return e.ComputeLikelihoodFast()
}

func (e *TransferScoreEvaluator) ComputeLikelihoodFast() float64 {
	return float64(GetTransferScore(e.speciesTree, e.frequencies, e.parallel))
}

func (e *TransferScoreEvaluator) IsVerbose() bool {
	return false
}

var errNotSupported = errors.New("not supported by the transfer score evaluator")

func (e *TransferScoreEvaluator) ProvidesFastLikelihoodImpl() bool {
	panic(errNotSupported)
}

func (e *TransferScoreEvaluator) IsDated() bool {
	panic(errNotSupported)
}

func (e *TransferScoreEvaluator) OptimizeModelRates(thorough bool) float64 {
	panic(errNotSupported)
}

func (e *TransferScoreEvaluator) PushRollback() {
	panic(errNotSupported)
}

func (e *TransferScoreEvaluator) PopAndApplyRollback() {
	panic(errNotSupported)
}

func (e *TransferScoreEvaluator) GetTransferInformation(speciesTree *SpeciesTree) (*TransferFrequencies, *PerSpeciesEvents, *PotentialTransfers) {
	panic(errNotSupported)
}

func (e *TransferScoreEvaluator) PruneSpeciesTree() bool {
	panic(errNotSupported)
}

func (e *TransferScoreEvaluator) OnSpeciesDatesChange() {
	panic(errNotSupported)
}

func (e *TransferScoreEvaluator) OnSpeciesTreeChange(nodesToInvalidate map[*Node]bool) {
	panic(errNotSupported)
}
