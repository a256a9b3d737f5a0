package generaxcore

import (
	"log/slog"
	"math"
	"sort"

	"github.com/pkg/errors"
)

//ScoredBackup pairs a dating backup with the score it achieved
type ScoredBackup struct {
	Backup DatedBackup
	Score  float64
}

//ScoredBackups is a list of scored datings, sorted best first
type ScoredBackups []ScoredBackup

func (sb ScoredBackups) sortDescending() {
	sort.SliceStable(sb, func(i, j int) bool {
		return sb[i].Score > sb[j].Score
	})
}

//optimizeDatesLocal will search for the speciation order (dating)
//optimizing the score returned by the evaluator, by hill climbing over
//local rank swaps. If searchState is provided and the score gets
//higher than searchState.BestLL, the better-tree callback fires. On
//return the tree carries the best dating encountered.
func optimizeDatesLocal(speciesTree *SpeciesTree, evaluator Evaluator, searchState *SearchState) float64 {
	verbose := evaluator.IsVerbose()
	datedTree := speciesTree.GetDatedTree()
	bestLL := evaluator.ComputeLikelihood(nil)
	if verbose {
		slog.Info("starting new naive dating search", "ll", bestLL)
	}
	maxRank := datedTree.GetRootedTree().GetInnerNodeNumber()
	for tryAgain := true; tryAgain; {
		initialItLL := bestLL
		for rank := 0; rank < maxRank; rank++ {
			if !datedTree.MoveUp(rank) { // the node with rank gets rank-1
				continue
			}
			speciesTree.OnSpeciesDatesChange()
			var perFamLL PerFamLL
			ll := evaluator.ComputeLikelihood(&perFamLL)
			if searchState != nil && ll > searchState.BestLL {
				// the tree is better than the last saved tree
				searchState.betterTree(ll, perFamLL)
			}
			if ll > bestLL {
				// the best tree over all performed iterations
				bestLL = ll
				rank -= min(2, rank)
			} else {
				datedTree.MoveUp(rank) // reversal: the node with rank-1 gets rank
			}
		}
		// run another round only if the improvement is above 1.0
		tryAgain = bestLL-initialItLL > 1.0
		if verbose {
			slog.Info("end of dating round", "ll", bestLL)
		}
	}
	speciesTree.OnSpeciesDatesChange()
	if verbose {
		slog.Info("end of naive dating search", "ll", bestLL)
	}
	return bestLL
}

//perturbateDates will randomly perturb the order of speciation events
//in the species tree. The number of perturbations is proportional to
//perturbation, which is typically between 0 and 1 (but can be greater).
func perturbateDates(speciesTree *SpeciesTree, perturbation float64) {
	if perturbation <= 0.0 {
		panic(errors.Errorf("invalid perturbation strength %f", perturbation))
	}
	datedTree := speciesTree.GetDatedTree()
	n := datedTree.GetRootedTree().GetInnerNodeNumber()
	perturbations := int(float64(n) * 2.0 * perturbation)
	maxDisplacement := int(math.Sqrt(float64(n)) * 2.0 * perturbation)
	if maxDisplacement < 2 {
		maxDisplacement = 2
	}
	for i := 0; i < perturbations; i++ {
		isUp := RandBool()
		rank := RandIntn(n)
		displacement := 1 + RandIntn(maxDisplacement)
		nodesToMove := 1 + RandIntn(10)
		for k := 0; k < nodesToMove; k++ {
			for j := 0; j < displacement; j++ {
				var ok bool
				if isUp {
					ok = datedTree.MoveUp(rank + k - j)
				} else {
					ok = datedTree.MoveDown(rank - k + j)
				}
				if !ok { // break both cycles
					k = nodesToMove
					break
				}
			}
		}
	}
	speciesTree.OnSpeciesDatesChange()
}

//OptimizeDates will optimize the speciation order (dating) of the
//current species tree, updating searchState on finding a dating with
//a score higher than searchState.BestLL.
//
//If the current species tree is not the current best tree, the
//optimization may end on a tree scoring below searchState.BestLL
//(desired during the root search).
//
//If thorough is not set, only one naive round is applied. Otherwise
//the search additionally cycles through random dating perturbations.
func OptimizeDates(speciesTree *SpeciesTree, evaluator Evaluator, searchState *SearchState, thorough bool) float64 {
	// the initial tree score (it may differ from searchState.BestLL)
	var perFamLL PerFamLL
	initialLL := evaluator.ComputeLikelihood(&perFamLL)
	if initialLL > searchState.BestLL {
		searchState.betterTree(initialLL, perFamLL)
	}
	if !evaluator.IsDated() {
		return initialLL
	}
	slog.Debug("optimizing speciation dates", "ll", initialLL)
	bestLL := optimizeDatesLocal(speciesTree, evaluator, searchState)
	// perturbation-optimization cycles
	const perturbation = 0.1
	const maxTrials = 2
	unsuccessfulTrials := 0
	for thorough && unsuccessfulTrials < maxTrials {
		backup := speciesTree.GetDatedTree().GetBackup()
		perturbateDates(speciesTree, perturbation)
		ll := optimizeDatesLocal(speciesTree, evaluator, searchState)
		if ll > bestLL {
			bestLL = ll
			unsuccessfulTrials = 0
			slog.Debug("better dating found", "ll", bestLL)
		} else {
			RestoreDates(speciesTree, backup)
			unsuccessfulTrials++
		}
	}
	slog.Debug("after date optimization", "ll", bestLL)
	return bestLL
}

//GetBestDatingsFromReconciliation will generate and test random
//datings based on their transfer scores and return the best toTake of
//them rescored with the real likelihood, best first.
//@param toTest The number of random datings to test
//@param toTake The number of best datings to return
//
//The input species tree dating is left unchanged.
func GetBestDatingsFromReconciliation(speciesTree *SpeciesTree, evaluator Evaluator, toTest, toTake int) ScoredBackups {
	if toTake > toTest {
		panic(errors.Errorf("cannot take %d datings out of %d tested", toTake, toTest))
	}
	verbose := evaluator.IsVerbose()
	datedTree := speciesTree.GetDatedTree()
	reconciliationDatingBackup := datedTree.GetBackup()
	var scoredBackups ScoredBackups
	// get the transfers from the reconciliations
	frequencies, _, _ := evaluator.GetTransferInformation(speciesTree)
	fakeEvaluator := NewTransferScoreEvaluator(speciesTree, frequencies, ParallelContext{})
	// start multiple searches from random datings
	for i := 0; i < toTest; i++ {
		datedTree.Randomize()
		// first local search to get to a good starting tree
		bestScore := optimizeDatesLocal(speciesTree, fakeEvaluator, nil)
		// Thorough round: at each step, randomly perturb the tree and
		// perform a local search. If no better tree is found, start
		// again with a greater perturbation, until maxTrials trials
		// without improvement. If there is an improvement, restart
		// the algorithm from the new best tree.
		const maxTrials = 20
		unsuccessfulTrials := 0
		for unsuccessfulTrials < maxTrials {
			backup := datedTree.GetBackup()
			// the perturbation strength increases with the number of failures
			perturbation := float64(unsuccessfulTrials+1) / float64(maxTrials)
			perturbateDates(speciesTree, perturbation)
			score := optimizeDatesLocal(speciesTree, fakeEvaluator, nil)
			if score > bestScore {
				// better tree found, reset the algorithm
				bestScore = score
				unsuccessfulTrials = 0
			} else {
				// this tree is worse than the best one, we roll back
				RestoreDates(speciesTree, backup)
				unsuccessfulTrials++
			}
		}
		scoredBackups = append(scoredBackups, ScoredBackup{datedTree.GetBackup(), bestScore})
		if verbose {
			slog.Info("end of random dating iteration", "iteration", i, "score", bestScore)
		}
	}
	// sort the datings by transfer score and take the best ones
	scoredBackups.sortDescending()
	scoredBackups = scoredBackups[:toTake]
	// for each kept dating compute the real likelihood (not the
	// transfer score) and set it as the dating score
	for i := range scoredBackups {
		RestoreDates(speciesTree, scoredBackups[i].Backup)
		ll := evaluator.ComputeLikelihood(nil)
		if verbose {
			slog.Info("rescored dating", "score", scoredBackups[i].Score, "ll", ll)
		}
		scoredBackups[i].Score = ll
	}
	scoredBackups.sortDescending()
	// reset the tree to its initial dating
	RestoreDates(speciesTree, reconciliationDatingBackup)
	return scoredBackups
}
