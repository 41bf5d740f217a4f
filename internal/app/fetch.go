package app

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/i474232898/f1-sensors/internal/f1"
	"github.com/i474232898/f1-sensors/internal/sensor"
)

var fetchCmd = &cobra.Command{
	Use:       "fetch <drivers|constructors|season>",
	Short:     "Fetch one resource and print its unwrapped document",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"drivers", "constructors", "season"},
	RunE:      runFetch,
}

var sensorsCmd = &cobra.Command{
	Use:   "sensors",
	Short: "Fetch every resource once and print the sensor table",
	RunE:  runSensors,
}

func runFetch(cmd *cobra.Command, args []string) error {
	r, err := f1.ParseResource(args[0])
	if err != nil {
		return err
	}
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.service.FetchOnce(cmd.Context(), r); err != nil {
		return err
	}

	out, err := indentDocument(rt.service.Snapshot(r).Raw)
	if err != nil {
		return fmt.Errorf("format %s: %w", r, err)
	}
	_, err = os.Stdout.Write(out)
	return err
}

// indentDocument pretty-prints a raw document with sorted keys and a trailing
// newline.
func indentDocument(raw []byte) ([]byte, error) {
	var doc any
	if err := sonic.ConfigStd.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	out, err := sonic.ConfigStd.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func runSensors(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.newScheduler().FetchAll(cmd.Context())
	return printSensors(os.Stdout, sensor.NewRegistry(rt.service, rt.log).All())
}

func printSensors(w io.Writer, sensors []sensor.Sensor) error {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATE")
	for _, s := range sensors {
		fmt.Fprintf(tw, "%s\t%s\n", s.Name, s.State)
	}
	return tw.Flush()
}
