package report

import (
	"fmt"
	"io"

	"github.com/drakos74/mnist-pipeline/internal/ml/eval"
)

// Classification prints the confusion matrix followed by the accuracy, the mcc and the per class summary.
func Classification(w io.Writer, title string, cm *eval.ConfusionMatrix) error {
	_, err := fmt.Fprintf(w, "%s\n%s\naccuracy: %.4f\nmcc: %.4f\n\n%s\n",
		title,
		cm.String(),
		cm.Accuracy(),
		cm.MCC(),
		cm.Summary(),
	)
	return err
}
