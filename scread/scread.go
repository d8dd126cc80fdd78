/*

Scread computes the likelihood of single-cell read counts under a
genotype model with allelic dropout, sequencing depth and nucleotide
support noise. It can sample model parameters with a
Metropolis-Hastings sampler, re-estimating per locus allelic coverage
along the way, and call genotypes.

The basic usage looks like this:

	scread likelihood counts.tsv

, this will compute the log likelihood with the default models.

Parameters can be sampled or optimized:

	scread sample --method mh --iter 10000 --estimate-ado counts.tsv

Genotype calls and per locus allelic statistics:

	scread call counts.tsv
	scread covar --depth perlocus counts.tsv

To see all the options run:

	scread --help

*/
package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"math/rand"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/op/go-logging"
	"gopkg.in/alecthomas/kingpin.v2"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("scread")
var formatter = logging.MustStringFormatter(`%{message}`)

// command-line options
var (
	// application
	app = kingpin.New("scread", "single-cell read count likelihood, sampler and genotype caller").Version(version)

	// depth model
	depth        = app.Flag("depth", "sequencing depth model (disabled, shared or perlocus)").Default("shared").Enum("disabled", "shared", "perlocus")
	allelicCov   = app.Flag("cov", "allelic coverage (starting value)").Default("5").Float64()
	allelicVar   = app.Flag("rawvar", "allelic raw variance (starting value)").Default("2").Float64()
	initFromData = app.Flag("init-from-data", "estimate starting allelic coverage and raw variance from the data").Bool()
	estimateCov  = app.Flag("estimate-cov", "sample shared allelic coverage and raw variance").Bool()
	zeroCov      = app.Flag("zero-cov", "zero coverage in size factors (0: omit, 1: add one to every coverage)").Default("0").Int()
	covArray     = app.Flag("cov-array", "precomputed allelic coverage per locus (variant calling mode)").String()
	varArray     = app.Flag("var-array", "precomputed allelic raw variance per locus (variant calling mode)").String()
	nMatrices    = app.Flag("matrices", "number of allelic statistics matrices").Default("1").Int()

	// support model
	support         = app.Flag("support", "nucleotide support model (dm: Dirichlet-multinomial, bb: beta-binomial)").Default("dm").Enum("dm", "bb")
	errRate         = app.Flag("err", "effective sequencing error rate").Default("0.001").Float64()
	shapeHom        = app.Flag("shape-hom", "shape controller for homozygous genotypes").Default("100").Float64()
	shapeHet        = app.Flag("shape-het", "shape controller for heterozygous genotypes").Default("6").Float64()
	estimateSupport = app.Flag("estimate-support", "sample error rate and shape controllers").Bool()

	// read count model
	genotypes   = app.Flag("genotypes", "evolutionary model (finitemu or finitemuext)").Default("finitemu").String()
	adoRate     = app.Flag("ado", "allelic dropout rate (starting value)").Default("0.1").Float64()
	locusADO    = app.Flag("locus-ado", "allow both alleles to drop out").Bool()
	estimateADO = app.Flag("estimate-ado", "sample allelic dropout rate").Bool()
	linear      = app.Flag("linear", "compute likelihoods in linear space").Bool()

	// star tree
	shards      = app.Flag("shards", "number of locus partitions evaluated in parallel (number of threads by default)").Default("0").Int()
	frequencies = app.Flag("freq", "comma-separated genotype frequencies (uniform by default)").String()
	maxComb     = app.Flag("max-comb", "maximum number of allele count combinations per locus").Default("64").Int()
	maxRounds   = app.Flag("max-rounds", "maximum number of allelic statistics re-estimation rounds").Default("10").Int()

	// technical
	nThreads   = app.Flag("nt", "number of threads to use").Int()
	seed       = app.Flag("seed", "random generator seed, default time based").Default("-1").Int64()
	cpuProfile = app.Flag("cpuprofile", "write cpu profile to file").String()

	// input/output
	outLogF  = app.Flag("log", "write log to a file").String()
	logLevel = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	logLevelOpt = app.Flag("loglevel-optimizer", "set loglevel for the optimizer").
			Default("notice").
			Enum("critical", "error", "warning", "notice", "info", "debug")
	jsonF = app.Flag("json", "write json output to a file").String()

	// commands
	likelihoodCmd = app.Command("likelihood", "compute the log likelihood")
	likelihoodAli = likelihoodCmd.Arg("counts", "read counts").Required().ExistingFile()
	likelihoodRe  = likelihoodCmd.Flag("reestimate", "re-estimate allelic statistics first").Bool()

	sampleCmd = app.Command("sample", "sample or optimize model parameters")
	sampleAli = sampleCmd.Arg("counts", "read counts").Required().ExistingFile()
	method    = sampleCmd.Flag("method", "optimization method to use "+
		"(mh: Metropolis-Hastings, "+
		"annealing: simulated annealing, "+
		"simplex: downhill simplex, "+
		"bfgs: BFGS with numerical gradient, "+
		"none: just compute likelihood, no optimization"+
		")").Default("mh").Enum("mh", "annealing", "simplex", "bfgs", "none")
	iterations  = sampleCmd.Flag("iter", "number of iterations").Default("10000").Int()
	report      = sampleCmd.Flag("report", "report every N iterations").Default("10").Int()
	accept      = sampleCmd.Flag("accept", "report acceptance rate every N iterations").Default("200").Int()
	updateEvery = sampleCmd.Flag("update-every", "re-estimate allelic statistics every N iterations (0 to disable)").Default("100").Int()
	randomize   = sampleCmd.Flag("randomize", "use uniformly distributed random starting point").Bool()
	outF        = sampleCmd.Flag("out", "write optimization trajectory to a file").String()
	covarF      = sampleCmd.Flag("covar", "write final allelic statistics to a file").String()
	cpF         = sampleCmd.Flag("checkpoint", "checkpoint database").String()
	cpKey       = sampleCmd.Flag("checkpoint-key", "checkpoint key in the database").Default("sample").String()
	cpSeconds   = sampleCmd.Flag("checkpoint-seconds", "minimum time between checkpoints").Default("60").Float64()

	callCmd = app.Command("call", "call genotypes")
	callAli = callCmd.Arg("counts", "read counts").Required().ExistingFile()
	callOut = callCmd.Flag("out", "write calls to a file").String()

	covarCmd = app.Command("covar", "re-estimate and print per locus allelic statistics")
	covarAli = covarCmd.Arg("counts", "read counts").Required().ExistingFile()
	covarOut = covarCmd.Flag("out", "write allelic statistics to a file").String()
)

// create opens a file for writing, or returns standard output if
// the name is empty.
func create(fn string) (*os.File, error) {
	if fn == "" {
		return os.Stdout, nil
	}
	return os.Create(fn)
}

// closeFile closes a file unless it is standard output.
func closeFile(f *os.File) {
	if f != os.Stdout {
		f.Close()
	}
}

func main() {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	for _, m := range []string{"scread", "starlh", "rawreads", "seqcov", "nucreads", "bio", "checkpoint"} {
		logging.SetLevel(level, m)
	}
	level, err = logging.LogLevel(*logLevelOpt)
	if err != nil {
		log.Fatal(err)
	}
	logging.SetLevel(level, "optimize")

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	if *seed == -1 {
		*seed = time.Now().UnixNano()
		log.Debug("Random seed from time")
	}
	log.Infof("Random seed=%v", *seed)

	rand.Seed(*seed)
	runtime.GOMAXPROCS(*nThreads)

	effectiveNThreads := runtime.GOMAXPROCS(0)
	log.Infof("Using threads: %d.", effectiveNThreads)

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	summary := &RunSummary{
		Version:     version,
		RunID:       newRunID(),
		CommandLine: os.Args,
		Seed:        *seed,
		NThreads:    effectiveNThreads,
		Command:     cmd,
	}
	log.Infof("Run id: %s", summary.RunID)
	startTime := time.Now()

	switch cmd {
	case likelihoodCmd.FullCommand():
		err = runLikelihood(summary)
	case sampleCmd.FullCommand():
		err = runSample(summary)
	case callCmd.FullCommand():
		err = runCall(summary)
	case covarCmd.FullCommand():
		err = runCovar(summary)
	}
	if err != nil {
		log.Fatal(err)
	}

	deltaT := time.Since(startTime)
	log.Noticef("Running time: %v", deltaT)
	summary.Time = deltaT.Seconds()

	// output summary in json format
	if *jsonF != "" {
		j, err := json.Marshal(summary)
		if err != nil {
			log.Error(err)
		} else {
			log.Debug(string(j))
			if err := ioutil.WriteFile(*jsonF, j, 0666); err != nil {
				log.Error("Error writing json output file:", err)
			}
		}
	}
}
