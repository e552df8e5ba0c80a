package config

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tetraminz/emotion_insights/internal/analysis"
	"github.com/tetraminz/emotion_insights/internal/classifier"
	"github.com/tetraminz/emotion_insights/internal/hf"
	"github.com/tetraminz/emotion_insights/internal/insight"
	"github.com/tetraminz/emotion_insights/internal/store"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenStore opens the configured backend.
func (c Config) OpenStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, c.DatabaseURL)
}

// NewClassifier builds the configured classifier. The returned closer stops
// a worker process and is a no-op for the HTTP backend.
func (c Config) NewClassifier() (classifier.Classifier, io.Closer, error) {
	switch c.Classifier {
	case ClassifierWorker:
		tok, err := classifier.LoadTokenizer(c.TokenizerPath)
		if err != nil {
			return nil, nil, err
		}
		w, err := classifier.NewWorkerClassifier(classifier.WorkerConfig{
			Command:   c.WorkerCommand,
			Args:      strings.Fields(c.WorkerArgs),
			TopTokens: c.TopTokens,
		}, tok)
		if err != nil {
			return nil, nil, err
		}
		return w, w, nil
	case ClassifierHTTP, "":
		return classifier.NewHTTPClassifier(c.hfClient(), c.ClassifierModel), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown classifier %q", c.Classifier)
	}
}

// NewGenerator builds the configured insight generator; nil for "none".
func (c Config) NewGenerator() (insight.Generator, error) {
	switch c.Insights {
	case InsightsNone:
		return nil, nil
	case InsightsHF, "":
		return insight.NewHFGenerator(c.hfClient(), c.TextModel), nil
	case InsightsOpenAI:
		return insight.NewOpenAIGenerator(c.OpenAIAPIKey, c.OpenAIModel), nil
	default:
		return nil, fmt.Errorf("unknown insights backend %q", c.Insights)
	}
}

// NewProcess wires classifier and generator together.
func (c Config) NewProcess() (*analysis.Process, io.Closer, error) {
	cls, closer, err := c.NewClassifier()
	if err != nil {
		return nil, nil, fmt.Errorf("build classifier: %w", err)
	}
	gen, err := c.NewGenerator()
	if err != nil {
		closer.Close()
		return nil, nil, fmt.Errorf("build insight generator: %w", err)
	}
	return analysis.New(cls, gen), closer, nil
}

func (c Config) hfClient() *hf.Client {
	return hf.NewClient(c.HFAPIKey, c.HFBaseURL, nil)
}
