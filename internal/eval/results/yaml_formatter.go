package results

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/listlens/listlens/internal/eval/metrics"
	"gopkg.in/yaml.v3"
)

// EvalConfig represents the configuration section of the eval YAML
type EvalConfig struct {
	Provider    string `yaml:"provider,omitempty"`
	Model       string `yaml:"model,omitempty"`
	DatasetPath string `yaml:"datasetpath"`
	SampleSize  int    `yaml:"samplesize"`
	Timestamp   string `yaml:"timestamp"`
}

type EvalSummary struct {
	Accuracy           float64 `yaml:"accuracy"`
	ClassifierAccuracy float64 `yaml:"classifieraccuracy"`
	ReviewChanged      int     `yaml:"reviewchanged"`
}

type SectionResult struct {
	Section   string  `yaml:"section"`
	Support   int     `yaml:"support"`
	Precision float64 `yaml:"precision"`
	Recall    float64 `yaml:"recall"`
	F1        float64 `yaml:"f1"`
}

// Miss is an item that ended up in the wrong section
type Miss struct {
	Name      string `yaml:"name"`
	Expected  string `yaml:"expected"`
	Predicted string `yaml:"predicted"`
	Reviewed  string `yaml:"reviewed,omitempty"`
}

// EvalSpec represents the complete evaluation file
type EvalSpec struct {
	Config   EvalConfig      `yaml:"config"`
	Summary  EvalSummary     `yaml:"summary"`
	Sections []SectionResult `yaml:"sections"`
	Misses   []Miss          `yaml:"misses"`
}

// Build converts aggregate results into the YAML layout
func Build(datasetPath string, agg *metrics.AggregateResults) EvalSpec {
	spec := EvalSpec{
		Config: EvalConfig{
			Provider:    agg.Provider,
			Model:       agg.Model,
			DatasetPath: datasetPath,
			SampleSize:  agg.TotalRecords,
			Timestamp:   agg.EvaluationDate.Format("2006-01-02_15-04-05"),
		},
		Summary: EvalSummary{
			Accuracy:           agg.Accuracy,
			ClassifierAccuracy: agg.ClassifierAccuracy,
			ReviewChanged:      agg.ReviewChanged,
		},
		Sections: make([]SectionResult, 0, len(agg.Sections)),
		Misses:   make([]Miss, 0, len(agg.Misses)),
	}

	for _, name := range agg.SectionNames() {
		s := agg.Sections[name]
		spec.Sections = append(spec.Sections, SectionResult{
			Section:   name,
			Support:   s.Support,
			Precision: s.Precision,
			Recall:    s.Recall,
			F1:        s.F1,
		})
	}
	for _, r := range agg.Misses {
		m := Miss{Name: r.Name, Expected: r.Expected.Name(), Predicted: r.Predicted.Name()}
		if r.Reviewed != nil {
			m.Reviewed = r.Reviewed.Name()
		}
		spec.Misses = append(spec.Misses, m)
	}
	return spec
}

// SaveToYAML writes the evaluation to dir/<label>-<timestamp>.yaml and
// returns the absolute path.
func SaveToYAML(dir, datasetPath string, agg *metrics.AggregateResults) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create evals directory: %w", err)
	}

	spec := Build(datasetPath, agg)
	label := "classifier"
	if agg.Model != "" {
		label = strings.NewReplacer("/", "_", ":", "_").Replace(agg.Model)
	}
	filename := filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", label, spec.Config.Timestamp))

	data, err := yaml.Marshal(&spec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return filename, nil
	}
	return absPath, nil
}
