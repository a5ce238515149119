package trainer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/models"
)

// maxStderrTail bounds how much of a failed command's stderr is kept in the error
const maxStderrTail = 512

// DefaultWaitDelay is how long output pipes stay open after the program is
// killed. Children that inherited them cannot hold a trial past it.
const DefaultWaitDelay = 5 * time.Second

// Command runs an external training program once per trial. The program
// receives the hyperparameters as flags and must print a JSON Evaluation as the
// last line of its standard output.
type Command struct {
	Path      string
	Args      []string
	Timeout   time.Duration
	WaitDelay time.Duration
}

// NewCommand creates a command trainer
func NewCommand(path string, args []string, timeout time.Duration) *Command {
	return &Command{Path: path, Args: args, Timeout: timeout, WaitDelay: DefaultWaitDelay}
}

// BuildArgs renders the flags passed to the training program for one trial
func (c *Command) BuildArgs(cfg models.HyperparameterConfig, data Dataset, seed int64) []string {
	args := make([]string, 0, len(c.Args)+22)
	args = append(args, c.Args...)
	args = append(args,
		"--data", data.Path,
		"--num-inputs", strconv.Itoa(data.NumInputs),
		"--seed", strconv.FormatInt(seed, 10),
		"--learning-rate", strconv.FormatFloat(cfg.LearningRate, 'g', -1, 64),
		"--batch-size", strconv.Itoa(cfg.BatchSize),
		"--epochs", strconv.Itoa(cfg.Epochs),
		"--l1", strconv.Itoa(cfg.Layer1Neurons),
		"--l2", strconv.Itoa(cfg.Layer2Neurons),
		"--l3", strconv.Itoa(cfg.Layer3Neurons),
		"--activation", string(cfg.Activation),
		"--weight-init", string(cfg.WeightInit),
	)
	return args
}

func (c *Command) TrainAndEvaluate(ctx context.Context, cfg models.HyperparameterConfig, data Dataset, seed int64) (Evaluation, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Path, c.BuildArgs(cfg, data, seed)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = c.WaitDelay

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Evaluation{}, fmt.Errorf("trainer timed out after %s", c.Timeout)
		}
		if tail := tailOf(stderr.String()); tail != "" {
			return Evaluation{}, fmt.Errorf("trainer command failed: %w: %s", err, tail)
		}
		return Evaluation{}, fmt.Errorf("trainer command failed: %w", err)
	}

	return parseEvaluation(stdout.Bytes())
}

// parseEvaluation decodes the last non-empty line of the program output
func parseEvaluation(out []byte) (Evaluation, error) {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "" {
		return Evaluation{}, fmt.Errorf("%w: trainer printed no result", ErrBadEvaluation)
	}

	var eval Evaluation
	if err := json.Unmarshal([]byte(last), &eval); err != nil {
		return Evaluation{}, fmt.Errorf("%w: cannot decode %q: %v", ErrBadEvaluation, last, err)
	}
	return eval, eval.Validate()
}

func tailOf(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrTail {
		s = "..." + s[len(s)-maxStderrTail:]
	}
	return s
}
