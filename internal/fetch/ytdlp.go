package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ExecResult captures a finished process. A non-zero ExitCode is not an error by itself.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (ExecResult, error)
}

// YTDLPOption configures the yt-dlp engine.
type YTDLPOption func(*YTDLP)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(e Executor) YTDLPOption {
	return func(y *YTDLP) {
		if e != nil {
			y.exec = e
		}
	}
}

// YTDLP drives the yt-dlp command line program.
type YTDLP struct {
	binary    string
	ffmpeg    string
	fragments int
	exec      Executor
}

// NewYTDLP constructs the engine. ffmpeg may be empty to let yt-dlp search PATH.
func NewYTDLP(binary, ffmpeg string, fragments int, opts ...YTDLPOption) (*YTDLP, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	if fragments <= 0 {
		fragments = 1
	}
	y := &YTDLP{
		binary:    binary,
		ffmpeg:    strings.TrimSpace(ffmpeg),
		fragments: fragments,
		exec:      commandExecutor{},
	}
	for _, opt := range opts {
		opt(y)
	}
	return y, nil
}

// Fetch runs one attempt and returns the path yt-dlp reports after post-processing.
func (y *YTDLP) Fetch(ctx context.Context, req EngineRequest) (EngineResult, error) {
	res, err := y.exec.Run(ctx, y.binary, y.args(req))
	if err != nil {
		return EngineResult{}, fmt.Errorf("yt-dlp: %w", err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return EngineResult{}, fmt.Errorf("yt-dlp: %w", ctxErr)
	}
	if res.ExitCode != 0 {
		return EngineResult{}, classifyExit(res)
	}
	return EngineResult{Path: lastLine(res.Stdout)}, nil
}

func (y *YTDLP) args(req EngineRequest) []string {
	s := req.Strategy
	args := []string{
		"-f", s.Format,
		"-o", req.OutputTemplate,
		"--no-playlist",
		"--no-progress",
		"--concurrent-fragments", strconv.Itoa(y.fragments),
	}
	if y.ffmpeg != "" {
		args = append(args, "--ffmpeg-location", y.ffmpeg)
	}
	if s.ExtractAudio != "" {
		args = append(args, "-x", "--audio-format", s.ExtractAudio)
		if s.AudioQuality != "" {
			args = append(args, "--audio-quality", s.AudioQuality)
		}
	}
	if s.MergeContainer != "" {
		args = append(args, "--merge-output-format", s.MergeContainer)
	}
	args = append(args,
		"--print", "after_move:filepath",
		"--no-simulate",
		"--", req.Locator,
	)
	return args
}

// classifyExit maps a failed run to RetrievalError when yt-dlp reported an
// extraction or download error. Usage errors (exit 2) stay unclassified.
func classifyExit(res ExecResult) error {
	if res.ExitCode != 2 {
		if msg := firstErrorLine(res.Stderr); msg != "" {
			return &RetrievalError{Message: msg, ExitCode: res.ExitCode}
		}
	}
	detail := lastLine(res.Stderr)
	if detail == "" {
		detail = "no output"
	}
	return fmt.Errorf("yt-dlp exited with code %d: %s", res.ExitCode, detail)
}

func firstErrorLine(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "ERROR:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (ExecResult, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := ExecResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, fmt.Errorf("run %s: %w", binary, err)
}
