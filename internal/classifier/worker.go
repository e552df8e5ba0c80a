package classifier

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"

	"github.com/tetraminz/emotion_insights/internal/compute"
	"github.com/tetraminz/emotion_insights/internal/emotion"
)

// Encoder turns text into model input ids plus the matching token strings.
type Encoder interface {
	Encode(text string) (ids []int, tokens []string, err error)
}

// FileTokenizer wraps a tokenizer.json loaded with sugarme/tokenizer.
type FileTokenizer struct {
	tk *tokenizer.Tokenizer
}

// LoadTokenizer reads a HuggingFace tokenizer.json file.
func LoadTokenizer(path string) (*FileTokenizer, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("tokenizer path is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %q: %w", path, err)
	}
	return &FileTokenizer{tk: tk}, nil
}

func (t *FileTokenizer) Encode(text string) ([]int, []string, error) {
	encoding, err := t.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, nil, fmt.Errorf("encode text: %w", err)
	}
	return encoding.Ids, encoding.Tokens, nil
}

// WorkerConfig describes the model worker process.
type WorkerConfig struct {
	Command   string
	Args      []string
	Env       []string
	Labels    []emotion.Label // model output order
	TopTokens int
}

// WorkerClassifier keeps one long-lived model process and talks to it over
// newline-delimited JSON on stdin/stdout. Calls are serialized. If the
// process dies or a call fails mid-exchange, it is stopped and the next call
// starts a fresh one.
type WorkerClassifier struct {
	cfg     WorkerConfig
	encoder Encoder

	mu         sync.Mutex
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     *bufio.Reader
	stderrDone chan struct{}
}

func NewWorkerClassifier(cfg WorkerConfig, encoder Encoder) (*WorkerClassifier, error) {
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, errors.New("worker command is required")
	}
	if encoder == nil {
		return nil, errors.New("worker tokenizer is required")
	}
	if len(cfg.Labels) == 0 {
		cfg.Labels = emotion.Labels()
	}
	if cfg.TopTokens <= 0 {
		cfg.TopTokens = compute.DefaultTopTokens
	}
	return &WorkerClassifier{cfg: cfg, encoder: encoder}, nil
}

type workerRequest struct {
	InputIDs []int `json:"input_ids"`
}

type workerResponse struct {
	Logits    []float64 `json:"logits"`
	Attention []float64 `json:"attention"`
	Error     string    `json:"error"`
}

func (w *WorkerClassifier) Classify(ctx context.Context, text string) (emotion.Prediction, error) {
	if strings.TrimSpace(text) == "" {
		return emotion.Prediction{}, errors.New("text is empty")
	}
	ids, tokens, err := w.encoder.Encode(text)
	if err != nil {
		return emotion.Prediction{}, err
	}

	line, err := json.Marshal(workerRequest{InputIDs: ids})
	if err != nil {
		return emotion.Prediction{}, fmt.Errorf("marshal worker request: %w", err)
	}
	raw, err := w.roundTrip(ctx, line)
	if err != nil {
		return emotion.Prediction{}, err
	}

	var resp workerResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return emotion.Prediction{}, fmt.Errorf("decode worker response: %w", err)
	}
	if resp.Error != "" {
		return emotion.Prediction{}, fmt.Errorf("worker error: %s", resp.Error)
	}
	if len(resp.Logits) != len(w.cfg.Labels) {
		return emotion.Prediction{}, fmt.Errorf("worker returned %d logits for %d labels", len(resp.Logits), len(w.cfg.Labels))
	}

	scores := compute.ScoresFromLogits(resp.Logits, w.cfg.Labels)
	pred := emotion.Prediction{Scores: scores}
	if best := compute.Argmax(resp.Logits); best >= 0 && len(resp.Attention) > 0 {
		pred.Tokens = compute.TokenInfluence(tokens, resp.Attention, resp.Logits[best], w.cfg.TopTokens)
	}
	return pred, nil
}

func (w *WorkerClassifier) roundTrip(ctx context.Context, line []byte) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w.cmd == nil {
		if err := w.startLocked(); err != nil {
			return nil, err
		}
	}

	if _, err := w.stdin.Write(append(line, '\n')); err != nil {
		w.stopLocked()
		return nil, fmt.Errorf("write to worker: %w", err)
	}

	type readResult struct {
		line []byte
		err  error
	}
	done := make(chan readResult, 1)
	stdout := w.stdout
	go func() {
		b, err := stdout.ReadBytes('\n')
		done <- readResult{line: b, err: err}
	}()

	select {
	case <-ctx.Done():
		// the pending read must finish before Wait closes the pipes
		w.killLocked()
		<-done
		w.reapLocked()
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			w.stopLocked()
			return nil, fmt.Errorf("read from worker: %w", res.err)
		}
		return res.line, nil
	}
}

func (w *WorkerClassifier) startLocked() error {
	cmd := exec.Command(w.cfg.Command, w.cfg.Args...)
	if len(w.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), w.cfg.Env...)
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("worker stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("worker stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}

	stderrDone := make(chan struct{})
	go func() {
		defer close(stderrDone)
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			log.Printf("[worker stderr] %s", scanner.Text())
		}
	}()

	w.cmd = cmd
	w.stderrDone = stderrDone
	w.stdin = stdin
	w.stdout = bufio.NewReader(stdout)
	log.Printf("[worker] started pid=%d", cmd.Process.Pid)
	return nil
}

// stopLocked must only run when no stdout read is in flight.
func (w *WorkerClassifier) stopLocked() {
	w.killLocked()
	w.reapLocked()
}

func (w *WorkerClassifier) killLocked() {
	if w.cmd == nil {
		return
	}
	w.stdin.Close()
	if w.cmd.Process != nil {
		w.cmd.Process.Kill()
	}
}

// reapLocked waits for the stderr reader and then the process.
func (w *WorkerClassifier) reapLocked() {
	if w.cmd == nil {
		return
	}
	if w.stderrDone != nil {
		<-w.stderrDone
	}
	if err := w.cmd.Wait(); err != nil {
		log.Printf("[worker] exited: %v", err)
	}
	w.cmd = nil
	w.stdin = nil
	w.stdout = nil
	w.stderrDone = nil
}

// Close stops the worker process if it is running.
func (w *WorkerClassifier) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
	return nil
}
