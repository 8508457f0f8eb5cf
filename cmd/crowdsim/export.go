package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/crowdsim/internal/export"
	"github.com/san-kum/crowdsim/internal/scene"
	"github.com/san-kum/crowdsim/internal/storage"
)

var (
	outFile   string
	svgWidth  int
	svgHeight int
	svgFrame  int
	noTrails  bool
	waypoints bool
)

func exportCommands() []*cobra.Command {
	jsonCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	jsonCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	csvCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run trajectories to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	csvCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	svgCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render walls and agent trails to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default <run_id>.svg)")
	svgCmd.Flags().IntVar(&svgWidth, "width", export.DefaultOptions().Width, "image width")
	svgCmd.Flags().IntVar(&svgHeight, "height", export.DefaultOptions().Height, "image height")
	svgCmd.Flags().IntVar(&svgFrame, "frame", -1, "frame to draw agents at (-1 = last)")
	svgCmd.Flags().BoolVar(&noTrails, "no-trails", false, "omit agent trails")
	svgCmd.Flags().BoolVar(&waypoints, "waypoints", false, "draw waypoint rings")

	wallsCmd := &cobra.Command{
		Use:   "export-walls [run_id]",
		Short: "export run walls as GeoJSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportWalls,
	}
	wallsCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	return []*cobra.Command{jsonCmd, csvCmd, svgCmd, wallsCmd}
}

// output opens outFile, or stdout when it is empty.
func output(def string) (io.WriteCloser, error) {
	path := outFile
	if path == "" {
		path = def
	}
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, result, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}

	if outFile != "" {
		return storage.ExportJSONFile(outFile, meta, result)
	}
	w, err := output("")
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(w, meta, result); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	w, err := output("")
	if err != nil {
		return err
	}
	if err := st.CopyTrajectories(args[0], w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	_, result, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}

	opts := export.DefaultOptions()
	opts.Width, opts.Height = svgWidth, svgHeight
	opts.Frame = svgFrame
	opts.Trails = !noTrails
	opts.Waypoints = waypoints

	path := args[0] + ".svg"
	if outFile != "" {
		path = outFile
	}
	w, err := output(path)
	if err != nil {
		return err
	}
	if err := export.WriteSVG(w, result, opts); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", path)
	return nil
}

func exportWalls(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	data, err := scene.ToGeoJSON(meta.WallList()).MarshalJSON()
	if err != nil {
		return err
	}

	w, err := output("")
	if err != nil {
		return err
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
