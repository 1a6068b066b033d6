package drawer_test

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-stages/pkg/pipeline/drawer"
	"github.com/askiada/go-stages/pkg/pipeline/measure"
	"github.com/askiada/go-stages/pkg/pipeline/model"
)

func TestDOTDrawerRender(t *testing.T) {
	t.Parallel()

	d := drawer.NewDOTDrawer("")
	for _, name := range []string{"start", "Setup", "Build", "end"} {
		require.NoError(t, d.AddStep(name))
	}
	require.NoError(t, d.AddLink("start", "Setup"))
	require.NoError(t, d.AddLink("Setup", "Build"))
	require.NoError(t, d.AddLink("Build", "end"))
	require.NoError(t, d.SetTotalTime("end", 3*time.Second))

	var buf bytes.Buffer
	require.NoError(t, d.Render(&buf))

	want := `strict digraph {
	rankdir="LR";
	"start" [ shape="box", weight=0 ];
	"Setup" [ shape="box", weight=0 ];
	"Build" [ shape="box", weight=0 ];
	"end" [ label=<end <BR /> <FONT POINT-SIZE="10">3s</FONT>>, shape="box", weight=0 ];
	"start" -> "Setup" [ weight=0 ];
	"Setup" -> "Build" [ weight=0 ];
	"Build" -> "end" [ weight=0 ];
}
`
	assert.Equal(t, want, buf.String())
}

func TestDOTDrawerDuplicates(t *testing.T) {
	t.Parallel()

	d := drawer.NewDOTDrawer("")
	require.NoError(t, d.AddStep("Build"))
	require.NoError(t, d.AddStep("Test"))
	require.ErrorIs(t, d.AddStep("Build"), graph.ErrVertexAlreadyExists)

	require.NoError(t, d.AddLink("Build", "Test"))
	require.ErrorIs(t, d.AddLink("Build", "Test"), graph.ErrEdgeAlreadyExists)
	require.Error(t, d.AddLink("Build", "Unknown"))
	require.Error(t, d.SetTotalTime("Unknown", time.Second))
}

func TestDOTDrawerAddMeasure(t *testing.T) {
	t.Parallel()

	d := drawer.NewDOTDrawer("")
	for _, name := range []string{"start", "Fast", "Slow"} {
		require.NoError(t, d.AddStep(name))
	}
	require.NoError(t, d.AddLink("start", "Fast"))
	require.NoError(t, d.AddLink("Fast", "Slow"))

	msr := measure.NewDefaultMeasure()
	msr.AddMetric(measure.EndStepName, -1)
	msr.AddMetric("Fast", 0).SetOutcome(model.StatusSuccess, time.Second)
	msr.AddMetric("Slow", 1).SetOutcome(model.StatusFail, 3*time.Second)

	require.NoError(t, d.AddMeasure(msr))

	var buf bytes.Buffer
	require.NoError(t, d.Render(&buf))
	dot := buf.String()

	assert.Contains(t, dot, `"Fast" [ label=<Fast <BR /> <FONT POINT-SIZE="10">SUCCESS, 1s</FONT>>, fillcolor="#8fd19e", shape="box", style="filled", weight=0 ];`)
	assert.Contains(t, dot, `"Slow" [ label=<Slow <BR /> <FONT POINT-SIZE="10">FAIL, 3s</FONT>>, fillcolor="#f08080", shape="box", style="filled", weight=0 ];`)
	assert.Regexp(t, `"start" -> "Fast" \[ color="#[0-9a-fA-F]{6}", fontcolor="blue", label="1s", weight=0 \];`, dot)
	assert.Regexp(t, `"Fast" -> "Slow" \[ color="#[0-9a-fA-F]{6}", fontcolor="blue", label="3s", weight=0 \];`, dot)
}

func TestPipelineDrawerWritesFile(t *testing.T) {
	t.Parallel()

	fileName := filepath.Join(t.TempDir(), "chain.dot")
	opt := drawer.PipelineDrawer(drawer.NewDOTDrawer(fileName), nil)

	require.NoError(t, opt.New())
	require.NoError(t, opt.PrepareStage(nil, &model.StageInfo{Name: "Setup"}))
	require.NoError(t, opt.PrepareStage(&model.StageInfo{Name: "Setup"}, &model.StageInfo{Name: "Build", Order: 1}))
	require.NoError(t, opt.PrepareStage(&model.StageInfo{Name: "Build"}, &model.StageInfo{Name: "Build", Order: 2}))
	require.NoError(t, opt.OnStageDone(&model.StageInfo{Name: "Build"}))
	require.NoError(t, opt.Finish(model.ResultSuccess, time.Second))

	data, err := os.ReadFile(fileName)
	require.NoError(t, err)
	dot := string(data)

	vertex := regexp.MustCompile(`(?m)^\s*"Build" \[`)
	assert.Len(t, vertex.FindAllString(dot, -1), 1)
	assert.Contains(t, dot, `"start" -> "Setup"`)
	assert.Contains(t, dot, `"Setup" -> "Build"`)
	assert.Contains(t, dot, `"Build" -> "end"`)
	assert.NotContains(t, dot, `"Build" -> "Build"`)
}

func TestPipelineDrawerReservedNames(t *testing.T) {
	t.Parallel()

	fileName := filepath.Join(t.TempDir(), "chain.dot")
	opt := drawer.PipelineDrawer(drawer.NewDOTDrawer(fileName), nil)

	require.NoError(t, opt.New())
	require.NoError(t, opt.PrepareStage(nil, &model.StageInfo{Name: "Setup"}))
	for _, name := range []string{drawer.StartStepName, drawer.EndStepName} {
		err := opt.PrepareStage(&model.StageInfo{Name: "Setup"}, &model.StageInfo{Name: name, Order: 1})
		require.ErrorIs(t, err, model.ErrReservedStageName, name)
	}
	require.NoError(t, opt.Finish(model.ResultSuccess, time.Second))

	data, err := os.ReadFile(fileName)
	require.NoError(t, err)
	dot := string(data)

	assert.Contains(t, dot, `"start" -> "Setup"`)
	assert.Contains(t, dot, `"Setup" -> "end"`)
	assert.NotContains(t, dot, `"Setup" -> "start"`)
	assert.NotContains(t, dot, `"end" -> "end"`)
}
