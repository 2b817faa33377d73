package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/listlens/listlens/internal/categories"
)

// Result is the outcome for one labeled item
type Result struct {
	Name      string
	Expected  categories.Category
	Predicted categories.Category
	// Reviewed is the category after a model review pass, nil when the item
	// was not reviewed or the model kept the prediction.
	Reviewed *categories.Category
}

// Final is the category the pipeline would have stored.
func (r Result) Final() categories.Category {
	if r.Reviewed != nil {
		return *r.Reviewed
	}
	return r.Predicted
}

func (r Result) Correct() bool {
	return r.Final().Equal(r.Expected)
}

// SectionStats holds per-section precision and recall
type SectionStats struct {
	Support       int     `json:"support"`
	Predicted     int     `json:"predicted"`
	TruePositives int     `json:"true_positives"`
	Precision     float64 `json:"precision"`
	Recall        float64 `json:"recall"`
	F1            float64 `json:"f1"`
}

// Confusion counts items labeled Expected that ended up in Predicted
type Confusion struct {
	Expected  string `json:"expected"`
	Predicted string `json:"predicted"`
	Count     int    `json:"count"`
}

// AggregateResults represents aggregated evaluation metrics
type AggregateResults struct {
	TotalRecords int     `json:"total_records"`
	Correct      int     `json:"correct"`
	Accuracy     float64 `json:"accuracy"`

	// Keyword classifier alone, before any review pass.
	ClassifierCorrect  int     `json:"classifier_correct"`
	ClassifierAccuracy float64 `json:"classifier_accuracy"`
	ReviewChanged      int     `json:"review_changed"`

	Sections   map[string]*SectionStats `json:"sections"`
	Confusions []Confusion              `json:"confusions"`
	Misses     []Result                 `json:"-"`

	EvaluationDate time.Time     `json:"evaluation_date"`
	Provider       string        `json:"provider,omitempty"`
	Model          string        `json:"model,omitempty"`
	Duration       time.Duration `json:"duration"`
}

// AggregateEvaluationResults aggregates per-item results. Provider and model
// are empty when only the keyword classifier was evaluated.
func AggregateEvaluationResults(results []Result, provider, model string) *AggregateResults {
	agg := &AggregateResults{
		TotalRecords:   len(results),
		Sections:       make(map[string]*SectionStats),
		EvaluationDate: time.Now(),
		Provider:       provider,
		Model:          model,
	}

	section := func(name string) *SectionStats {
		s, ok := agg.Sections[name]
		if !ok {
			s = &SectionStats{}
			agg.Sections[name] = s
		}
		return s
	}
	confusions := make(map[[2]string]int)

	for _, r := range results {
		expected, final := r.Expected.Name(), r.Final().Name()
		section(expected).Support++
		section(final).Predicted++

		if r.Predicted.Equal(r.Expected) {
			agg.ClassifierCorrect++
		}
		if r.Reviewed != nil && !r.Reviewed.Equal(r.Predicted) {
			agg.ReviewChanged++
		}

		if r.Correct() {
			agg.Correct++
			section(expected).TruePositives++
			continue
		}
		agg.Misses = append(agg.Misses, r)
		confusions[[2]string{expected, final}]++
	}

	for _, s := range agg.Sections {
		s.Precision = ratio(s.TruePositives, s.Predicted)
		s.Recall = ratio(s.TruePositives, s.Support)
		if s.Precision+s.Recall > 0 {
			s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
		}
	}
	agg.Accuracy = ratio(agg.Correct, agg.TotalRecords)
	agg.ClassifierAccuracy = ratio(agg.ClassifierCorrect, agg.TotalRecords)

	for k, n := range confusions {
		agg.Confusions = append(agg.Confusions, Confusion{Expected: k[0], Predicted: k[1], Count: n})
	}
	sort.Slice(agg.Confusions, func(i, j int) bool {
		a, b := agg.Confusions[i], agg.Confusions[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Expected != b.Expected {
			return a.Expected < b.Expected
		}
		return a.Predicted < b.Predicted
	})

	return agg
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// SectionNames returns the sections seen, canonical ones in aisle order
// first, then custom ones alphabetically.
func (a *AggregateResults) SectionNames() []string {
	names := make([]string, 0, len(a.Sections))
	for name := range a.Sections {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return categories.Parse(names[i]).Less(categories.Parse(names[j]))
	})
	return names
}

// PrintSummary prints a human-readable summary of the evaluation
func (a *AggregateResults) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 70))
	fmt.Fprintln(w, "LISTLENS CATEGORY EVALUATION")
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "Evaluation Date: %s\n", a.EvaluationDate.Format("2006-01-02 15:04:05"))
	if a.Provider != "" {
		fmt.Fprintf(w, "Provider: %s\n", a.Provider)
		fmt.Fprintf(w, "Model: %s\n", a.Model)
	}
	fmt.Fprintf(w, "Records: %d\n", a.TotalRecords)
	fmt.Fprintf(w, "Duration: %s\n", a.Duration)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "ACCURACY")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "Keyword classifier: %.2f%% (%d/%d)\n", a.ClassifierAccuracy*100, a.ClassifierCorrect, a.TotalRecords)
	if a.Provider != "" {
		fmt.Fprintf(w, "After review:       %.2f%% (%d/%d), %d changed\n", a.Accuracy*100, a.Correct, a.TotalRecords, a.ReviewChanged)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "PER SECTION")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "%-24s %8s %10s %8s %8s\n", "Section", "Support", "Precision", "Recall", "F1")
	for _, name := range a.SectionNames() {
		s := a.Sections[name]
		fmt.Fprintf(w, "%-24s %8d %9.1f%% %7.1f%% %8.3f\n", name, s.Support, s.Precision*100, s.Recall*100, s.F1)
	}

	if len(a.Confusions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "MOST COMMON CONFUSIONS")
		fmt.Fprintln(w, strings.Repeat("-", 70))
		for i, c := range a.Confusions {
			if i == 10 {
				break
			}
			fmt.Fprintf(w, "%4d  %s -> %s\n", c.Count, c.Expected, c.Predicted)
		}
	}
	fmt.Fprintln(w, strings.Repeat("=", 70))
}

// SaveToJSON saves the aggregate results to a JSON file
func (a *AggregateResults) SaveToJSON(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("failed to encode results to JSON: %w", err)
	}
	return nil
}
