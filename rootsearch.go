package generaxcore

import (
	"log/slog"
)

//MovesHistory records the root-change directions leading from the
//original root to the current one
type MovesHistory []int

type rootSearch struct {
	speciesTree      *SpeciesTree
	evaluator        Evaluator
	searchState      *SearchState
	movesHistory     MovesHistory
	bestMovesHistory MovesHistory
	bestDatedBackup  DatedBackup
	bestLL           float64
	rootLikelihoods  *RootLikelihoods
	treePerFamLLVec  *TreePerFamLLVec
}

//aux explores the neighboring roots depth first. Each level only
//considers the two branches of the new root away from the one we came
//from, which forbids immediately reversing the last move. Whenever the
//frontier improves, the depth bound is pushed two levels further.
func (s *rootSearch) aux(bestLLStack float64, maxDepth int) {
	if len(s.movesHistory) > maxDepth {
		return
	}
	last := s.movesHistory[len(s.movesHistory)-1]
	moves := [2]int{last % 2, 2 + last%2}
	for _, direction := range moves {
		if !CanChangeRoot(s.speciesTree, direction) {
			continue
		}
		s.movesHistory = append(s.movesHistory, direction)
		s.evaluator.PushRollback()
		backup := s.speciesTree.GetDatedTree().GetBackup()
		ChangeRoot(s.speciesTree, direction)
		OptimizeDates(s.speciesTree, s.evaluator, s.searchState, !s.searchState.FarFromPlausible)
		var perFamLL PerFamLL
		ll := s.evaluator.ComputeLikelihood(&perFamLL)
		if s.treePerFamLLVec != nil {
			*s.treePerFamLLVec = append(*s.treePerFamLLVec,
				TreePerFamLL{s.speciesTree.String(), perFamLL})
		}
		if s.rootLikelihoods != nil {
			root := s.speciesTree.GetRoot()
			s.rootLikelihoods.SaveRootLikelihood(root, ll)
			s.rootLikelihoods.SavePerFamilyLikelihoods(root, perFamLL)
		}
		newMaxDepth := maxDepth
		if ll > bestLLStack {
			bestLLStack = ll
			newMaxDepth = len(s.movesHistory) + 2
		}
		if ll > s.bestLL {
			s.bestLL = ll
			s.bestMovesHistory = append(MovesHistory(nil), s.movesHistory...)
			s.bestDatedBackup = s.speciesTree.GetDatedTree().GetBackup()
			slog.Info("better root found", "ll", ll)
		}
		s.aux(bestLLStack, newMaxDepth)
		RevertChangeRoot(s.speciesTree, direction)
		RestoreDates(s.speciesTree, backup)
		s.evaluator.PopAndApplyRollback()
		s.movesHistory = s.movesHistory[:len(s.movesHistory)-1]
	}
}

//RootSearch will explore the roots around the current one with a
//bounded-depth DFS, re-dating the tree after every root change. On
//return the tree carries the best root and dating found, and the
//returned score is at least the initial one. rootLikelihoods and
//treePerFamLLVec optionally record every evaluated root.
func RootSearch(speciesTree *SpeciesTree, evaluator Evaluator, searchState *SearchState, maxDepth int,
	rootLikelihoods *RootLikelihoods, treePerFamLLVec *TreePerFamLLVec) float64 {
	slog.Info("starting species root search", "maxDepth", maxDepth)
	var perFamLL PerFamLL
	initialLL := evaluator.ComputeLikelihood(&perFamLL)
	if treePerFamLLVec != nil {
		*treePerFamLLVec = (*treePerFamLLVec)[:0]
		*treePerFamLLVec = append(*treePerFamLLVec,
			TreePerFamLL{speciesTree.String(), perFamLL})
	}
	if rootLikelihoods != nil {
		root := speciesTree.GetRoot()
		rootLikelihoods.SaveRootLikelihood(root, initialLL)
		rootLikelihoods.SavePerFamilyLikelihoods(root, perFamLL)
	}
	search := &rootSearch{
		speciesTree:     speciesTree,
		evaluator:       evaluator,
		searchState:     searchState,
		bestDatedBackup: speciesTree.GetDatedTree().GetBackup(),
		bestLL:          initialLL,
		rootLikelihoods: rootLikelihoods,
		treePerFamLLVec: treePerFamLLVec,
	}
	// cover both root-side branches of the initial root
	search.movesHistory = MovesHistory{1}
	search.aux(initialLL, maxDepth)
	search.movesHistory[0] = 0
	search.aux(initialLL, maxDepth)
	// reapply the best moves and the dating that produced the best score
	for i := 1; i < len(search.bestMovesHistory); i++ {
		ChangeRoot(speciesTree, search.bestMovesHistory[i])
	}
	RestoreDates(speciesTree, search.bestDatedBackup)
	slog.Info("species root search done", "ll", search.bestLL)
	return search.bestLL
}
