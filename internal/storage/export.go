package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/crowdsim/internal/experiment"
)

type ExportData struct {
	Run    *RunMetadata       `json:"run"`
	Times  []float64          `json:"times"`
	Frames []experiment.Frame `json:"frames"`
}

// ExportJSON writes a run's metadata and every frame as one JSON document.
func ExportJSON(w io.Writer, meta *RunMetadata, result *experiment.Result) error {
	data := ExportData{
		Run:    meta,
		Times:  result.Times(),
		Frames: result.Frames,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSONFile(path string, meta *RunMetadata, result *experiment.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ExportJSON(file, meta, result); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
