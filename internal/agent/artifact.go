package agent

import (
	"encoding/json"

	"github.com/rahul/insightforge/internal/dataset"
)

// ArtifactType is the kind of output a step recorded.
type ArtifactType string

const (
	ArtifactTable ArtifactType = "table"
	ArtifactPlot  ArtifactType = "plot"
	ArtifactText  ArtifactType = "text"
	ArtifactNote  ArtifactType = "note"
)

// PlotStatus records whether a chart was actually drawn.
type PlotStatus struct {
	Rendered bool   `json:"rendered"`
	Reason   string `json:"reason,omitempty"`
	Source   string `json:"source"` // how the charted table was chosen
}

func (p PlotStatus) String() string {
	if p.Rendered {
		return "rendered"
	}
	return "skipped: " + p.Reason
}

// Artifact is the recorded output of one executed step. Exactly one of
// Table, Plot or Text is meaningful, selected by Type.
type Artifact struct {
	Name  string
	Type  ArtifactType
	Table *dataset.Table
	Plot  PlotStatus
	Text  string
}

// Data returns the artifact payload.
func (a Artifact) Data() any {
	switch a.Type {
	case ArtifactTable:
		return a.Table
	case ArtifactPlot:
		return a.Plot.String()
	}
	return a.Text
}

func (a Artifact) MarshalJSON() ([]byte, error) {
	out := struct {
		Name   string       `json:"name"`
		Type   ArtifactType `json:"type"`
		Data   any          `json:"data"`
		Status *PlotStatus  `json:"status,omitempty"`
	}{Name: a.Name, Type: a.Type, Data: a.Data()}
	if a.Type == ArtifactPlot {
		status := a.Plot
		out.Status = &status
	}
	return json.Marshal(out)
}

// Report is the outcome of one run.
type Report struct {
	ID        string     `json:"id"`
	Goal      string     `json:"goal"`
	Plan      []Step     `json:"plan"`
	Artifacts []Artifact `json:"artifacts"`
	Summary   string     `json:"summary"`
}

// ArtifactNames lists artifact names in execution order.
func (r *Report) ArtifactNames() []string {
	return artifactNames(r.Artifacts)
}

func artifactNames(artifacts []Artifact) []string {
	names := make([]string, len(artifacts))
	for i, a := range artifacts {
		names[i] = a.Name
	}
	return names
}
