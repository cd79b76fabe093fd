/*
 * pipeline.go, part of nmff-afm.
 *
 * Copyright (c) 2024 TamaLab
 *
 * NMFF-AFM: normal mode flexible fitting of protein conformations to AFM
 * images.
 *
 * Reference:
 * Modeling Conformational Transitions of Biomolecules from Atomic Force
 * Microscopy Images using Normal Mode Analysis.
 * Xuan Wu, Osamu Miyashita, and Florence Tama
 * https://doi.org/10.1021/acs.jpcb.4c04189
 *
 */

//Package pipeline drives a flexible fit-in: it iterates normal mode
//analysis, deformation sweeps, pseudo-AFM rendering and scoring until a
//stopping criterion is met, then measures RMSDs and scores the run.
package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/TamaLab/nmff-afm/afm"
	"github.com/TamaLab/nmff-afm/nma"
	"github.com/TamaLab/nmff-afm/params"
	"github.com/TamaLab/nmff-afm/profit"
	"github.com/TamaLab/nmff-afm/report"
	"github.com/TamaLab/nmff-afm/score"
)

//Stopping criteria. Numeric runs a fixed number of iterations. Single stops
//once the correlation of an iteration drops below its predecessor's, and
//average once the mean correlation of the last five iterations stops
//improving over the five before them; both also stop at the numeric count
//plus a grace of ten.
const (
	JudgeNumeric = "numeric"
	JudgeAverage = "average"
	JudgeSingle  = "single"
)

const graceIterations = 10

//Runner holds everything one run needs. New fills in the defaults; the
//handles stay replaceable so tests can point them at stand-in tools.
type Runner struct {
	P         *params.Params
	RunDir    string
	Criterion string
	NMA       *nma.Handle
	AFM       *afm.Handle
	ProFit    *profit.Handle
	Log       *report.RunLog
	Out       io.Writer
}

func New(P *params.Params, runDir string) *Runner {
	return &Runner{
		P:         P,
		RunDir:    runDir,
		Criterion: JudgeNumeric,
		NMA:       nma.NewHandle(),
		AFM:       afm.NewHandle(),
		ProFit:    profit.NewHandle(),
		Log:       report.NewRunLog(filepath.Join(runDir, params.LogName(runDir)), P.WithReference()),
		Out:       os.Stdout,
	}
}

func (R *Runner) geometry() afm.Geometry {
	return afm.Geometry{
		ResX: R.P.ResX, ResY: R.P.ResY, ResZ: R.P.ResZ,
		SizeX: R.P.SizeX, SizeY: R.P.SizeY,
		Radius: R.P.ProbeRadius, Angle: R.P.ProbeAngle,
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("pipeline: %v", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("pipeline: %v", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("pipeline: copying %s: %v", src, err)
	}
	return out.Close()
}

//iterate performs the whole analysis of one conformation: modes, the
//deformation sweep, the rendering, the scoring and the step log. It returns
//the deformation selected for the next iteration and the conformation's own
//correlation against the target.
func (R *Runner) iterate(name, target string) (score.Selection, float64, error) {
	var none score.Selection
	dir := filepath.Join(R.RunDir, name)
	fmt.Fprintf(R.Out, "Computing normal modes of %s...\n", name)
	if err := R.NMA.MakeBlocks(dir, name); err != nil {
		return none, 0, err
	}
	if err := R.NMA.BuildInput(dir, R.P.LastMode); err != nil {
		return none, 0, err
	}
	if err := R.NMA.ComputeModes(dir); err != nil {
		return none, 0, err
	}
	sweep := filepath.Join(dir, DeformDir)
	if err := os.Mkdir(sweep, 0755); err != nil {
		return none, 0, fmt.Errorf("pipeline: %v", err)
	}
	if err := copyFile(filepath.Join(dir, name+".pdb"), filepath.Join(sweep, name+".pdb")); err != nil {
		return none, 0, err
	}
	modes, err := filepath.Glob(filepath.Join(dir, "mov000.mod*"))
	if err != nil {
		return none, 0, err
	}
	if len(modes) == 0 {
		return none, 0, fmt.Errorf("pipeline: rtb2 produced no mode files in %s", dir)
	}
	for _, mode := range modes {
		if err := os.Rename(mode, filepath.Join(sweep, filepath.Base(mode))); err != nil {
			return none, 0, fmt.Errorf("pipeline: %v", err)
		}
	}
	fmt.Fprintf(R.Out, "Deforming along modes %d to %d...\n", R.P.FirstMode, R.P.LastMode)
	err = R.NMA.GenerateDeformed(sweep, name, R.P.CombinedAmplitude, R.P.FirstMode, R.P.LastMode)
	if err != nil {
		return none, 0, err
	}
	fmt.Fprintf(R.Out, "Simulating AFM images on %d threads...\n", R.P.Threads)
	if err := R.AFM.GenerateAll(sweep, R.geometry(), R.P.Threads); err != nil {
		return none, 0, err
	}
	t, err := score.BuildTable(sweep, target, name, "tsv")
	if err != nil {
		return none, 0, err
	}
	if err := t.WriteCSV(filepath.Join(sweep, "cc_table.csv")); err != nil {
		return none, 0, err
	}
	slopes, err := score.Slopes(t, R.P.FirstMode, R.P.LastMode)
	if err != nil {
		return none, 0, err
	}
	if err := report.WriteStepLog(filepath.Join(dir, name+".csv"), t, slopes); err != nil {
		return none, 0, err
	}
	fmt.Fprintln(R.Out, "Correlation trends, steepest first:")
	for _, s := range score.BySteepness(slopes) {
		fmt.Fprintf(R.Out, "  mode %2d: slope %10.3e  intercept %.6f\n", s.Mode, s.Slope, s.Intercept)
	}
	top := t.ByCC()
	if len(top) > 3 {
		top = top[:3]
	}
	fmt.Fprintln(R.Out, "Best-scoring deformations:")
	for _, p := range top {
		fmt.Fprintf(R.Out, "  mode %2d, dq %4d: cc %.6f\n", p.Mode, p.Dq, p.CC)
	}
	cc, err := score.CCFiles(target, filepath.Join(sweep, name+".tsv"))
	if err != nil {
		return none, 0, err
	}
	sel, err := score.Select(R.P.ModeSelection, slopes, t, R.P.CombinedAmplitude)
	if err != nil {
		return none, 0, err
	}
	return sel, cc, nil
}

//summarize copies the conformation, its image and its rendering into the
//summary folder, where the RMSD pass will pick the structures up.
func (R *Runner) summarize(name, summary string) error {
	dir := filepath.Join(R.RunDir, name)
	sweep := filepath.Join(dir, DeformDir)
	for _, src := range []string{
		filepath.Join(dir, name+".pdb"),
		filepath.Join(sweep, name+".tsv"),
		filepath.Join(sweep, name+".svg"),
	} {
		if err := copyFile(src, filepath.Join(summary, filepath.Base(src))); err != nil {
			return err
		}
	}
	return nil
}

//judge decides whether the search stops after the iteration just logged.
//analyzed counts the logged iterations.
func (R *Runner) judge(analyzed int, sel score.Selection) (bool, string) {
	if sel.Amplitude == 0 {
		return true, "the selected deformation has amplitude 0"
	}
	switch R.Criterion {
	case JudgeSingle:
		if last2, err := R.Log.SumLastCC(2); err == nil {
			last, err := R.Log.LastCC()
			if err == nil && last <= last2-last {
				return true, "the correlation did not improve over the previous iteration"
			}
		}
	case JudgeAverage:
		//mean of the last five iterations against the mean of the five
		//logged just before this one, windows sliding by one; a history
		//shorter than six iterations has no previous mean to lose to
		if last5, err := R.Log.SumLastCC(5); err == nil {
			prev := 0.0
			if last6, err := R.Log.SumLastCC(6); err == nil {
				if last, err := R.Log.LastCC(); err == nil {
					prev = (last6 - last) / 5
				}
			}
			if last5/5 <= prev {
				return true, "the 5-iteration average correlation stopped improving"
			}
		}
	default:
		//analyzed counts conformations, one more than the deformations
		//performed: num_iterations deformations mean num_iterations+1
		//analyzed conformations
		if analyzed > R.P.Iterations {
			return true, fmt.Sprintf("the %d requested deformations are done", R.P.Iterations)
		}
		return false, ""
	}
	if analyzed >= R.P.Iterations+graceIterations {
		return true, "the iteration cap was reached"
	}
	return false, ""
}

//rmsdPass fits every summarized conformation onto one reference and fills
//the matching RMSD column of the log.
func (R *Runner) rmsdPass(summary, reference string, toReference bool) error {
	if _, err := profit.WriteScripts(summary, reference); err != nil {
		return err
	}
	if err := R.ProFit.Run(summary); err != nil {
		return err
	}
	values, err := profit.ParseResults(summary)
	if err != nil {
		return err
	}
	if err := R.Log.SetRMSD(values, toReference); err != nil {
		return err
	}
	return profit.CleanScripts(summary)
}

//Run performs a complete flexible fit-in and returns the winning step. The
//pre-flight checks are assumed to have passed already.
func (R *Runner) Run() (int, error) {
	target := filepath.Join(R.RunDir, R.P.TargetConformation+"."+R.P.TargetType)
	summary := filepath.Join(R.RunDir, params.SummaryDir)
	if err := os.Mkdir(summary, 0755); err != nil {
		return 0, fmt.Errorf("pipeline: %v", err)
	}
	if err := R.Log.Create(); err != nil {
		return 0, err
	}
	name := R.P.FirstIterDir()
	if err := os.Mkdir(filepath.Join(R.RunDir, name), 0755); err != nil {
		return 0, fmt.Errorf("pipeline: %v", err)
	}
	err := copyFile(filepath.Join(R.RunDir, R.P.OriginalConformation+".pdb"),
		filepath.Join(R.RunDir, name, name+".pdb"))
	if err != nil {
		return 0, err
	}
	for analyzed := 1; ; analyzed++ {
		fmt.Fprintf(R.Out, "\n=== Iteration %d: %s ===\n", Step(name), name)
		sel, cc, err := R.iterate(name, target)
		if err != nil {
			return 0, err
		}
		//with fewer than four prior iterations the average is the
		//correlation itself, as the original logs record
		avg5 := cc
		if sum, err := R.Log.SumLastCC(4); err == nil {
			avg5 = (sum + cc) / 5
		}
		if err := R.Log.Append(report.NewRecord(name, cc, sel.Mode, sel.Amplitude, avg5)); err != nil {
			return 0, err
		}
		if err := R.summarize(name, summary); err != nil {
			return 0, err
		}
		fmt.Fprintf(R.Out, "CC %.6f; next deformation: mode %d, amplitude %g\n", cc, sel.Mode, sel.Amplitude)
		if stop, why := R.judge(analyzed, sel); stop {
			fmt.Fprintf(R.Out, "Stopping: %s.\n", why)
			break
		}
		next := NextName(name)
		nextDir := filepath.Join(R.RunDir, next)
		if err := os.Mkdir(nextDir, 0755); err != nil {
			return 0, fmt.Errorf("pipeline: %v", err)
		}
		sweep := filepath.Join(R.RunDir, name, DeformDir)
		if err := R.NMA.Deform(sweep, name+".pdb", sel.Mode, sel.Amplitude, next+".pdb"); err != nil {
			return 0, err
		}
		if err := os.Rename(filepath.Join(sweep, next+".pdb"), filepath.Join(nextDir, next+".pdb")); err != nil {
			return 0, fmt.Errorf("pipeline: %v", err)
		}
		if R.P.ArchiveIterations {
			if err := ArchiveDir(filepath.Join(R.RunDir, name)); err != nil {
				return 0, err
			}
		}
		name = next
	}
	fmt.Fprintf(R.Out, "\nFitting all conformations onto %s for RMSDs...\n", R.P.FirstIterDir())
	if err := R.rmsdPass(summary, R.P.FirstIterDir(), false); err != nil {
		return 0, err
	}
	if R.P.WithReference() {
		ref := R.P.ReferencePDB
		err := copyFile(filepath.Join(R.RunDir, ref+".pdb"), filepath.Join(summary, ref+".pdb"))
		if err != nil {
			return 0, err
		}
		fmt.Fprintf(R.Out, "Fitting all conformations onto the reference %s...\n", ref)
		if err := R.rmsdPass(summary, ref, true); err != nil {
			return 0, err
		}
	}
	step, err := report.Score(R.Log, R.RunDir)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(R.Out, "\nThe conformation of step %d fits the target best; it is marked s%d in %s.\n",
		step, step, R.Log.Path())
	return step, nil
}
