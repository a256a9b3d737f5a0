package generaxcore

import (
	"sort"
	"strings"
)

//PerFamLL stores one likelihood value per gene family
type PerFamLL []float64

//PerSpeciesEvents stores per-species reconciliation event counts
//extracted together with the transfer frequencies. The searches pass
//it through without reading it.
type PerSpeciesEvents struct {
	Events []uint64
}

//PotentialTransfers stores the transfer candidates observed during
//reconciliation, keyed by (source, destination) species indices. The
//searches pass it through without reading it.
type PotentialTransfers struct {
	Counts map[[2]int]uint64
}

//Evaluator scores reconciliations of the gene families against the
//current species tree and dating. Implementations keep internal caches
//and expose a LIFO rollback stack that the searches pair with root
//changes. An Evaluator must outlive every search call it is passed to.
type Evaluator interface {
	//ComputeLikelihood will return the total score under the current
	//tree and dating, filling perFamLL with per-family scores when it
	//is not nil
	ComputeLikelihood(perFamLL *PerFamLL) float64
	//ComputeLikelihoodFast may trade accuracy for speed
	ComputeLikelihoodFast() float64
	//ProvidesFastLikelihoodImpl reports whether ComputeLikelihoodFast
	//differs from ComputeLikelihood
	ProvidesFastLikelihoodImpl() bool
	//IsDated reports whether the score depends on the dating at all
	IsDated() bool
	//IsVerbose gates progress logging in the searches
	IsVerbose() bool
	//OptimizeModelRates reoptimizes the model parameters and returns
	//the resulting score
	OptimizeModelRates(thorough bool) float64
	//PushRollback checkpoints the internal state
	PushRollback()
	//PopAndApplyRollback restores the most recent checkpoint
	PopAndApplyRollback()
	//GetTransferInformation extracts the dated transfer counts from
	//the reconciliations in one shot
	GetTransferInformation(speciesTree *SpeciesTree) (*TransferFrequencies, *PerSpeciesEvents, *PotentialTransfers)
	//PruneSpeciesTree removes species uncovered by the families
	PruneSpeciesTree() bool
	//OnSpeciesDatesChange invalidates caches that depend on the dating
	OnSpeciesDatesChange()
	//OnSpeciesTreeChange invalidates caches that depend on the topology
	OnSpeciesTreeChange(nodesToInvalidate map[*Node]bool)
}

//SearchState carries the global best score across nested searches.
//FarFromPlausible marks the exploration phase: once in the plausible
//region, re-dating after root changes becomes thorough.
type SearchState struct {
	BestLL           float64
	FarFromPlausible bool
	//BetterTreeCallback is invoked whenever a strictly better score
	//than BestLL is observed
	BetterTreeCallback func(ll float64, perFamLL PerFamLL)
}

//NewSearchState will build a search state with the given starting score
func NewSearchState(bestLL float64) *SearchState {
	return &SearchState{BestLL: bestLL, FarFromPlausible: true}
}

func (s *SearchState) betterTree(ll float64, perFamLL PerFamLL) {
	s.BestLL = ll
	if s.BetterTreeCallback != nil {
		s.BetterTreeCallback(ll, perFamLL)
	}
}

//RootLikelihoods records the likelihood of every root evaluated during
//a root search, keyed by the canonical signature of the root branch
type RootLikelihoods struct {
	LL       map[string]float64
	PerFamLL map[string]PerFamLL
}

//NewRootLikelihoods will build an empty record
func NewRootLikelihoods() *RootLikelihoods {
	return &RootLikelihoods{
		LL:       make(map[string]float64),
		PerFamLL: make(map[string]PerFamLL),
	}
}

//SaveRootLikelihood will record the score of the given root
func (r *RootLikelihoods) SaveRootLikelihood(root *Node, ll float64) {
	r.LL[RootSignature(root)] = ll
}

//SavePerFamilyLikelihoods will record the per-family scores of the
//given root
func (r *RootLikelihoods) SavePerFamilyLikelihoods(root *Node, perFamLL PerFamLL) {
	r.PerFamLL[RootSignature(root)] = append(PerFamLL(nil), perFamLL...)
}

//RootSignature will return a canonical string identifying the root
//branch by the leaf bipartition it induces
func RootSignature(root *Node) string {
	side := func(n *Node) string {
		var labels []string
		for _, leaf := range TipNodeSlice(n.PreorderArray()) {
			labels = append(labels, leaf.NAME)
		}
		sort.Strings(labels)
		return strings.Join(labels, ",")
	}
	left := side(root.CHLD[0])
	right := side(root.CHLD[1])
	if left > right {
		left, right = right, left
	}
	return left + "|" + right
}

//TreePerFamLL pairs a species tree with its per-family scores
type TreePerFamLL struct {
	Newick   string
	PerFamLL PerFamLL
}

//TreePerFamLLVec accumulates the per-family scores of every tree
//evaluated during a root search
type TreePerFamLLVec []TreePerFamLL
