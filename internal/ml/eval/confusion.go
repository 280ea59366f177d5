package eval

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/sjwhitworth/golearn/evaluation"
)

// ConfusionMatrix counts the predicted labels against the actual ones.
// Rows are the actual labels, columns the predicted ones.
type ConfusionMatrix struct {
	Counts [][]int `json:"counts"`
}

// NewConfusionMatrix creates an empty matrix for labels in [0, classes).
func NewConfusionMatrix(classes int) *ConfusionMatrix {
	counts := make([][]int, classes)
	for i := range counts {
		counts[i] = make([]int, classes)
	}
	return &ConfusionMatrix{Counts: counts}
}

// Confusion tabulates the predictions against the actual labels.
func Confusion(actual, predicted []uint8, classes int) (*ConfusionMatrix, error) {
	if len(actual) != len(predicted) {
		return nil, fmt.Errorf("got %d predictions for %d samples", len(predicted), len(actual))
	}
	cm := NewConfusionMatrix(classes)
	for i := range actual {
		if err := cm.Add(actual[i], predicted[i]); err != nil {
			return nil, err
		}
	}
	return cm, nil
}

// Add counts one prediction.
func (cm *ConfusionMatrix) Add(actual, predicted uint8) error {
	if int(actual) >= cm.Classes() || int(predicted) >= cm.Classes() {
		return fmt.Errorf("labels %d -> %d outside of %d classes", actual, predicted, cm.Classes())
	}
	cm.Counts[actual][predicted]++
	return nil
}

// Classes returns the size of the matrix.
func (cm *ConfusionMatrix) Classes() int {
	return len(cm.Counts)
}

// Total returns the number of counted predictions.
func (cm *ConfusionMatrix) Total() int {
	total := 0
	for _, row := range cm.Counts {
		for _, c := range row {
			total += c
		}
	}
	return total
}

// Trace returns the number of correct predictions.
func (cm *ConfusionMatrix) Trace() int {
	trace := 0
	for i := range cm.Counts {
		trace += cm.Counts[i][i]
	}
	return trace
}

// Accuracy is the share of correct predictions, 0 for an empty matrix.
func (cm *ConfusionMatrix) Accuracy() float64 {
	total := cm.Total()
	if total == 0 {
		return 0
	}
	return float64(cm.Trace()) / float64(total)
}

// MCC is the multi-class Matthews correlation coefficient,
// 1 for perfect predictions, 0 for predictions no better than chance.
// It is 0 when either the actual or the predicted labels are all the same.
func (cm *ConfusionMatrix) MCC() float64 {
	k := cm.Classes()
	actual := make([]float64, k)
	predicted := make([]float64, k)
	for i, row := range cm.Counts {
		for j, c := range row {
			actual[i] += float64(c)
			predicted[j] += float64(c)
		}
	}
	s := float64(cm.Total())
	c := float64(cm.Trace())

	cov := c * s
	sumP2, sumT2 := 0.0, 0.0
	for i := 0; i < k; i++ {
		cov -= predicted[i] * actual[i]
		sumP2 += predicted[i] * predicted[i]
		sumT2 += actual[i] * actual[i]
	}
	denominator := math.Sqrt((s*s - sumP2) * (s*s - sumT2))
	if denominator == 0 {
		return 0
	}
	return cov / denominator
}

// present returns the labels that occur as actual or predicted label, in ascending order.
func (cm *ConfusionMatrix) present() []int {
	labels := make([]int, 0)
	for i := range cm.Counts {
		total := 0
		for j := range cm.Counts {
			total += cm.Counts[i][j] + cm.Counts[j][i]
		}
		if total > 0 {
			labels = append(labels, i)
		}
	}
	return labels
}

// Golearn converts the matrix to the golearn representation, keyed by the label names.
// Labels that never occur are left out.
func (cm *ConfusionMatrix) Golearn() evaluation.ConfusionMatrix {
	m := make(evaluation.ConfusionMatrix)
	for _, i := range cm.present() {
		ref := strconv.Itoa(i)
		m[ref] = make(map[string]int)
		for j, c := range cm.Counts[i] {
			if c > 0 {
				m[ref][strconv.Itoa(j)] = c
			}
		}
	}
	return m
}

// Summary returns the per class precision, recall and f1 table in label order.
func (cm *ConfusionMatrix) Summary() string {
	m := cm.Golearn()
	var b bytes.Buffer
	w := tabwriter.NewWriter(&b, 0, 8, 1, ' ', 0)
	fmt.Fprintln(w, "Reference Class\tTrue Positives\tFalse Positives\tFalse Negatives\tPrecision\tRecall\tF1 Score")
	fmt.Fprintln(w, "---------------\t--------------\t---------------\t---------------\t---------\t------\t--------")
	for _, i := range cm.present() {
		ref := strconv.Itoa(i)
		fmt.Fprintf(w, "%s\t%.0f\t%.0f\t%.0f\t%.4f\t%.4f\t%.4f\n",
			ref,
			evaluation.GetTruePositives(ref, m),
			evaluation.GetFalsePositives(ref, m),
			evaluation.GetFalseNegatives(ref, m),
			evaluation.GetPrecision(ref, m),
			evaluation.GetRecall(ref, m),
			evaluation.GetF1Score(ref, m),
		)
	}
	w.Flush()
	fmt.Fprintf(&b, "Overall accuracy: %.4f\n", evaluation.GetAccuracy(m))
	return b.String()
}

func (cm *ConfusionMatrix) String() string {
	var b strings.Builder
	b.WriteString("     ")
	for j := range cm.Counts {
		fmt.Fprintf(&b, "%6d", j)
	}
	b.WriteString("\n")
	for i, row := range cm.Counts {
		fmt.Fprintf(&b, "%4d ", i)
		for _, c := range row {
			fmt.Fprintf(&b, "%6d", c)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Result is the outcome of a classification run.
type Result struct {
	RunID     string           `json:"run_id"`
	Model     string           `json:"model"`
	Train     int              `json:"train"`
	Samples   int              `json:"samples"`
	Accuracy  float64          `json:"accuracy"`
	MCC       float64          `json:"mcc"`
	Confusion *ConfusionMatrix `json:"confusion"`
}

// NewResult collects the metrics of the confusion matrix.
func NewResult(runID, model string, train int, cm *ConfusionMatrix) Result {
	return Result{
		RunID:     runID,
		Model:     model,
		Train:     train,
		Samples:   cm.Total(),
		Accuracy:  cm.Accuracy(),
		MCC:       cm.MCC(),
		Confusion: cm,
	}
}
