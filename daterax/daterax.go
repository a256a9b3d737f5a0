package main

import (
	"flag"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	generaxcore "github.com/StefanFlaumberg/GeneRaxCore"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

//transferEvaluator wraps the transfer-score surrogate into a full
//evaluator so that the dating and root searches can run standalone,
//without a reconciliation likelihood. It keeps no caches, so the
//rollback checkpoints are empty.
type transferEvaluator struct {
	surrogate   *generaxcore.TransferScoreEvaluator
	frequencies *generaxcore.TransferFrequencies
	verbose     bool
}

func (e *transferEvaluator) ComputeLikelihood(perFamLL *generaxcore.PerFamLL) float64 {
	return e.surrogate.ComputeLikelihood(perFamLL)
}

func (e *transferEvaluator) ComputeLikelihoodFast() float64 {
	return e.surrogate.ComputeLikelihoodFast()
}

func (e *transferEvaluator) ProvidesFastLikelihoodImpl() bool { return false }

func (e *transferEvaluator) IsDated() bool { return true }

func (e *transferEvaluator) IsVerbose() bool { return e.verbose }

func (e *transferEvaluator) OptimizeModelRates(thorough bool) float64 {
	return e.ComputeLikelihoodFast()
}

func (e *transferEvaluator) PushRollback() {}

func (e *transferEvaluator) PopAndApplyRollback() {}

func (e *transferEvaluator) GetTransferInformation(speciesTree *generaxcore.SpeciesTree) (*generaxcore.TransferFrequencies, *generaxcore.PerSpeciesEvents, *generaxcore.PotentialTransfers) {
	return e.frequencies, &generaxcore.PerSpeciesEvents{}, &generaxcore.PotentialTransfers{}
}

func (e *transferEvaluator) PruneSpeciesTree() bool { return false }

func (e *transferEvaluator) OnSpeciesDatesChange() {}

func (e *transferEvaluator) OnSpeciesTreeChange(nodesToInvalidate map[*generaxcore.Node]bool) {}

//readTransferCounts will parse lines of "from to count" into a count
//matrix over the given species labels
func readTransferCounts(path string, idToLabel []string) (*generaxcore.TransferFrequencies, error) {
	lines, err := generaxcore.ReadLine(path)
	if err != nil {
		return nil, err
	}
	labelToRow := make(map[string]int, len(idToLabel))
	for i, label := range idToLabel {
		labelToRow[label] = i
	}
	frequencies := generaxcore.NewTransferFrequencies(idToLabel)
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, errors.Errorf("line %d: expected \"from to count\", got %q", i+1, line)
		}
		from, okFrom := labelToRow[fields[0]]
		to, okTo := labelToRow[fields[1]]
		if !okFrom || !okTo {
			return nil, errors.Errorf("line %d: unknown species label in %q", i+1, line)
		}
		count, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: invalid count", i+1)
		}
		frequencies.AddCount(from, to, count)
	}
	return frequencies, nil
}

func fatal(err error) {
	slog.Error(err.Error())
	os.Exit(1)
}

func main() {
	treeArg := flag.String("t", "", "input species tree (newick)")
	transfersArg := flag.String("tr", "", "transfer counts file, one \"from to count\" triple per line")
	depthArg := flag.Int("d", 3, "maximum depth of the root search")
	seedArg := flag.Int64("seed", 42, "random seed")
	workersArg := flag.Int("w", 0, "number of workers for the transfer score (0 = all CPUs)")
	noRootArg := flag.Bool("noroot", false, "skip the root search and only optimize the dating")
	runNameArg := flag.String("o", "daterax", "prefix for outfile names")
	verboseArg := flag.Bool("v", false, "verbose search logging")
	flag.Parse()
	if *treeArg == "" || *transfersArg == "" {
		flag.Usage()
		os.Exit(1)
	}
	generaxcore.SeedRNG(*seedArg)

	lines, err := generaxcore.ReadLine(*treeArg)
	if err != nil {
		fatal(err)
	}
	speciesTree, err := generaxcore.NewSpeciesTree(lines[0], true)
	if err != nil {
		fatal(err)
	}
	idToLabel := lo.Keys(speciesTree.GetLabelToID())
	sort.Strings(idToLabel)
	frequencies, err := readTransferCounts(*transfersArg, idToLabel)
	if err != nil {
		fatal(err)
	}
	evaluator := &transferEvaluator{
		surrogate:   generaxcore.NewTransferScoreEvaluator(speciesTree, frequencies, generaxcore.ParallelContext{Workers: *workersArg}),
		frequencies: frequencies,
		verbose:     *verboseArg,
	}

	searchState := generaxcore.NewSearchState(math.Inf(-1))
	searchState.FarFromPlausible = false
	ll := generaxcore.OptimizeDates(speciesTree, evaluator, searchState, true)
	slog.Info("dating optimized", "transferScore", ll)
	if !*noRootArg {
		rootLikelihoods := generaxcore.NewRootLikelihoods()
		ll = generaxcore.RootSearch(speciesTree, evaluator, searchState, *depthArg, rootLikelihoods, nil)
		slog.Info("root search done", "transferScore", ll, "rootsEvaluated", len(rootLikelihoods.LL))
	}

	speciesTree.GetDatedTree().RescaleBranchLengths()
	out := *runNameArg + ".dated.newick"
	if err := os.WriteFile(out, []byte(speciesTree.String()+"\n"), 0644); err != nil {
		fatal(errors.Wrap(err, "could not write the dated tree"))
	}
	slog.Info("wrote dated species tree", "file", out)
}
