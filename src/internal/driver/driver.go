// Package driver launches the external simulator once per configuration.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/mohammadijoo/robot_sweep_go/src/internal/experiment"
)

// Invocation is one fully resolved simulator launch.
type Invocation struct {
	Args []string
	// Env holds only the per-configuration variables, as KEY=VALUE.
	Env []string
	Dir string
}

// Build resolves the command line and environment for cfg. Each flag binding
// contributes the flag followed by every value of its parameter, each value
// as its own argument, using the value's literal text.
func Build(sim *experiment.Simulator, cfg experiment.Configuration) (Invocation, error) {
	if sim == nil || len(sim.Command) == 0 {
		return Invocation{}, errors.New("no simulator command")
	}
	args := make([]string, 0, len(sim.Command)+len(sim.BaseArgs)+len(sim.TrailingArgs)+8)
	args = append(args, sim.Command...)
	args = append(args, sim.BaseArgs...)
	for _, fb := range sim.Flags {
		p, ok := cfg.Param(fb.Param)
		if !ok {
			return Invocation{}, fmt.Errorf("flag %s: parameter %s not in configuration", fb.Flag, fb.Param)
		}
		args = append(args, fb.Flag)
		args = append(args, p.Args()...)
	}
	args = append(args, sim.TrailingArgs...)

	env := make([]string, 0, len(sim.Env))
	for _, eb := range sim.Env {
		p, ok := cfg.Param(eb.Param)
		if !ok {
			return Invocation{}, fmt.Errorf("env %s: parameter %s not in configuration", eb.Name, eb.Param)
		}
		env = append(env, eb.Name+"="+p.Joined())
	}
	return Invocation{Args: args, Env: env, Dir: sim.Dir}, nil
}

// Result records the outcome of one run. Err holds a non-zero exit or a
// timeout; it does not stop the batch.
type Result struct {
	Index    int
	Args     []string
	Started  time.Time
	Duration time.Duration
	Err      error
}

// Driver runs configurations sequentially.
type Driver struct {
	Logger *slog.Logger
	// Stdout and Stderr receive the simulator's output; nil discards it.
	Stdout io.Writer
	Stderr io.Writer
	// BaseEnv is the environment every child inherits; nil means os.Environ().
	BaseEnv []string

	// start launches and waits for cmd; replaced in tests.
	start func(cmd *exec.Cmd) error
}

// New returns a driver that forwards simulator output to the terminal.
func New(logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{Logger: logger, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run launches the simulator once per configuration of exp, in order, each
// run blocking until the process exits. A run that exits with an error is
// reported and the batch continues; a run that cannot be started at all, or
// a cancelled context, ends the batch.
func (d *Driver) Run(ctx context.Context, exp *experiment.Experiment) ([]Result, error) {
	if exp.Simulator == nil {
		return nil, errors.New("experiment has no simulator")
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]Result, 0, len(exp.Configurations))
	for i, cfg := range exp.Configurations {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		inv, err := Build(exp.Simulator, cfg)
		if err != nil {
			return results, fmt.Errorf("run %d: %w", i+1, err)
		}
		logger.Info("running simulation", "run", i+1, "experiment", exp.Name, "config", cfg.String())
		for _, kv := range inv.Env {
			logger.Debug("child environment", "run", i+1, "var", kv)
		}

		res, err := d.runOne(ctx, i, inv, exp.Simulator.Timeout)
		if err != nil {
			return results, fmt.Errorf("run %d: %w", i+1, err)
		}
		if res.Err != nil {
			logger.Warn("simulation did not finish cleanly", "run", i+1, "err", res.Err)
		} else {
			logger.Info("simulation finished", "run", i+1, "duration", res.Duration.Round(time.Millisecond))
		}
		results = append(results, res)
	}
	return results, nil
}

func (d *Driver) runOne(ctx context.Context, i int, inv Invocation, timeout time.Duration) (Result, error) {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, inv.Args[0], inv.Args[1:]...)
	cmd.Dir = inv.Dir
	base := d.BaseEnv
	if base == nil {
		base = os.Environ()
	}
	cmd.Env = append(append([]string(nil), base...), inv.Env...)
	cmd.Stdout = d.Stdout
	cmd.Stderr = d.Stderr

	start := d.start
	if start == nil {
		start = (*exec.Cmd).Run
	}

	began := time.Now()
	err := start(cmd)
	res := Result{Index: i, Args: inv.Args, Started: began, Duration: time.Since(began)}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		return res, ctx.Err()
	case runCtx.Err() != nil:
		res.Err = fmt.Errorf("timed out after %v: %w", timeout, err)
	case errors.As(err, &exitErr):
		res.Err = err
	default:
		return res, fmt.Errorf("start simulator: %w", err)
	}
	return res, nil
}
