package drawer

import (
	"io"
	"os"
	"text/template"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/go-stages/internal/store"
	"github.com/askiada/go-stages/pkg/pipeline/measure"
	"github.com/askiada/go-stages/pkg/pipeline/model"
)

// statusColors fills stage nodes by outcome.
var statusColors = map[model.Status]string{
	model.StatusSuccess: "#8fd19e",
	model.StatusFail:    "#f08080",
	model.StatusSkip:    "#d3d3d3",
	model.StatusExecute: "#ffe08a",
	model.StatusCreate:  "#ffffff",
}

// DOTDrawer renders the stage chain as a Graphviz DOT digraph.
type DOTDrawer struct {
	graph    graph.Graph[string, string]
	store    store.CustomStore[string, string]
	fileName string
}

// NewDOTDrawer creates a drawer writing to fileName on Draw.
func NewDOTDrawer(fileName string) *DOTDrawer {
	st := store.NewOrderedStore[string, string]()

	return &DOTDrawer{
		fileName: fileName,
		store:    st,
		graph:    graph.NewWithStore(graph.StringHash, graph.Store[string, string](st), graph.Directed()),
	}
}

// AddStep adds a stage to the graph.
func (d *DOTDrawer) AddStep(name string) error {
	err := d.graph.AddVertex(name, graph.VertexAttribute("shape", "box"))
	if err != nil {
		return errors.Wrapf(err, "unable to add vertex %s", name)
	}

	return nil
}

// AddLink adds a link between parent and children steps.
func (d *DOTDrawer) AddLink(parentName, childrenName string) error {
	err := d.graph.AddEdge(parentName, childrenName)
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentName, childrenName)
	}

	return nil
}

// Draw writes the DOT description to the drawer file.
func (d *DOTDrawer) Draw() error {
	file, err := os.Create(d.fileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.fileName)
	}
	defer file.Close()

	err = d.Render(file)
	if err != nil {
		return errors.Wrapf(err, "unable to write dot file %s", d.fileName)
	}

	return nil
}

// Render writes the DOT description to wrt.
func (d *DOTDrawer) Render(wrt io.Writer) error {
	desc, err := d.describe()
	if err != nil {
		return err
	}

	return renderDOT(wrt, desc)
}

// SetTotalTime labels stepName with the total run time.
func (d *DOTDrawer) SetTotalTime(stepName string, totalTime time.Duration) error {
	err := d.store.UpdateVertex(stepName, func(p *graph.VertexProperties) {
		p.Attributes["xlabel"] = measure.Round(totalTime).String()
	})
	if err != nil {
		return errors.Wrapf(err, "unable to set total time on %s", stepName)
	}

	return nil
}

const maxRGB = 240

// AddMeasure fills every stage by status, labels it with its duration and colours the edge
// leading to it on a blue to red gradient, red being the slowest stage.
func (d *DOTDrawer) AddMeasure(msr measure.Measure) error {
	var minValue, maxValue time.Duration

	first := true
	for _, mt := range msr.AllMetrics() {
		if mt.Name() == EndStepName {
			continue
		}
		elapsed := mt.Duration()
		if first || elapsed < minValue {
			minValue = elapsed
		}
		if first || elapsed > maxValue {
			maxValue = elapsed
		}
		first = false
	}

	for _, mt := range msr.AllMetrics() {
		if mt.Name() == EndStepName {
			continue
		}

		hex, err := gradient(mt.Duration(), minValue, maxValue)
		if err != nil {
			return err
		}

		err = d.decorate(mt, hex)
		if err != nil {
			return err
		}
	}

	return nil
}

func (d *DOTDrawer) decorate(mt measure.Metric, edgeColor string) error {
	err := d.store.UpdateVertex(mt.Name(), func(p *graph.VertexProperties) {
		p.Attributes["style"] = "filled"
		p.Attributes["fillcolor"] = statusColors[mt.Status()]
		p.Attributes["xlabel"] = string(mt.Status()) + ", " + mt.Duration().String()
	})
	if err != nil {
		return errors.Wrapf(err, "unable to update vertex %s", mt.Name())
	}

	adjacency, err := d.graph.PredecessorMap()
	if err != nil {
		return errors.Wrap(err, "unable to get predecessor map")
	}

	for parent := range adjacency[mt.Name()] {
		err := d.graph.UpdateEdge(parent, mt.Name(),
			graph.EdgeAttribute("color", edgeColor),
			graph.EdgeAttribute("label", mt.Duration().String()),
			graph.EdgeAttribute("fontcolor", "blue"),
		)
		if err != nil {
			return errors.Wrap(err, "unable to update edge")
		}
	}

	return nil
}

func gradient(curr, minValue, maxValue time.Duration) (string, error) {
	fraction := 0.0
	if maxValue > minValue {
		fraction = float64(curr-minValue) / float64(maxValue-minValue)
	}

	red := maxRGB * fraction
	blue := -maxRGB*fraction + maxRGB

	colour, err := colors.RGB(uint8(red), 0, uint8(blue)) //nolint
	if err != nil {
		return "", errors.Wrap(err, "unable to get colour")
	}

	return colour.ToHEX().String(), nil
}

//nolint:lll //this is a template
const dotTemplate = `strict digraph {
{{range $k, $v := .Attributes}}	{{$k}}="{{$v}}";
{{end}}{{range .Vertices}}	"{{.Name}}" [ {{if .XLabel}}label=<{{.Name}} <BR /> <FONT POINT-SIZE="10">{{.XLabel}}</FONT>>, {{end}}{{range $k, $v := .Attributes}}{{$k}}="{{$v}}", {{end}}weight={{.Weight}} ];
{{end}}{{range .Edges}}	"{{.Source}}" -> "{{.Target}}" [ {{range $k, $v := .Attributes}}{{$k}}="{{$v}}", {{end}}weight={{.Weight}} ];
{{end}}}
`

var dotTpl = template.Must(template.New("dotTemplate").Parse(dotTemplate))

type description struct {
	Attributes map[string]string
	Vertices   []vertexStatement
	Edges      []edgeStatement
}

type vertexStatement struct {
	Name       string
	XLabel     string
	Attributes map[string]string
	Weight     int
}

type edgeStatement struct {
	Source     string
	Target     string
	Attributes map[string]string
	Weight     int
}

// describe walks the ordered store so the output follows stage order.
func (d *DOTDrawer) describe() (description, error) {
	desc := description{
		Attributes: map[string]string{"rankdir": "LR"},
	}

	vertices, err := d.store.ListVertices()
	if err != nil {
		return desc, errors.Wrap(err, "unable to list vertices")
	}

	for _, name := range vertices {
		_, props, err := d.store.Vertex(name)
		if err != nil {
			return desc, errors.Wrap(err, "unable to get vertex properties")
		}

		attrs := make(map[string]string, len(props.Attributes))
		for k, v := range props.Attributes {
			attrs[k] = v
		}
		xlabel := attrs["xlabel"]
		delete(attrs, "xlabel")

		desc.Vertices = append(desc.Vertices, vertexStatement{
			Name:       name,
			XLabel:     xlabel,
			Attributes: attrs,
			Weight:     props.Weight,
		})
	}

	for _, name := range vertices {
		edges, err := d.store.OutEdges(name)
		if err != nil {
			return desc, errors.Wrap(err, "unable to list edges")
		}

		for _, edge := range edges {
			desc.Edges = append(desc.Edges, edgeStatement{
				Source:     edge.Source,
				Target:     edge.Target,
				Attributes: edge.Properties.Attributes,
				Weight:     edge.Properties.Weight,
			})
		}
	}

	return desc, nil
}

func renderDOT(wrt io.Writer, desc description) error {
	err := dotTpl.Execute(wrt, desc)
	if err != nil {
		return errors.Wrap(err, "unable to execute template")
	}

	return nil
}

var _ Drawer = (*DOTDrawer)(nil)
