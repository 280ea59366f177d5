package report

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	// LaunchErr signals that the external plotting tool could not be started.
	LaunchErr = errors.New("could not launch external tool")
)

// DefaultPlotScript draws the exported embedding coloured by label.
const DefaultPlotScript = "data/mnist_plot.plt"

// Plotter starts an external plotting tool.
type Plotter struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// DefaultPlotter keeps gnuplot open on the default plot script.
func DefaultPlotter() Plotter {
	return Plotter{
		Command: "gnuplot",
		Args:    []string{"-p", DefaultPlotScript},
	}
}

// Launch starts the tool and returns without waiting for it to exit.
// Only a failure to start is reported, the exit status of the tool is not.
func (p Plotter) Launch() error {
	if p.Command == "" {
		return fmt.Errorf("no command configured: %w", LaunchErr)
	}
	cmd := exec.Command(p.Command, p.Args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %s: %w", p.String(), err.Error(), LaunchErr)
	}
	log.Info().Str("command", p.String()).Int("pid", cmd.Process.Pid).Msg("launched plot")
	go func() {
		err := cmd.Wait()
		log.Debug().Err(err).Str("command", p.String()).Msg("plot exited")
	}()
	return nil
}

func (p Plotter) String() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", p.Command, strings.Join(p.Args, " ")))
}
