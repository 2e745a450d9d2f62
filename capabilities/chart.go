package capabilities

import (
	"fmt"
	"strings"

	"github.com/navvy-ai/navvy/capability"
)

const chartScript = `import json
import matplotlib
matplotlib.use("Agg")
import matplotlib.pyplot as plt

spec = json.loads(%q)
kind = %q
fig, ax = plt.subplots()
if kind == "pie":
    ax.pie(spec["values"], labels=spec.get("labels"), autopct="%%1.1f%%%%")
elif kind == "bar":
    ax.bar(spec["x"], spec["y"])
elif kind == "scatter":
    ax.scatter(spec["x"], spec["y"])
else:
    ax.plot(spec["x"], spec["y"])
if %q:
    ax.set_title(%q)
fig.savefig(%q, bbox_inches="tight")
print("ok")
`

var chartKinds = map[string]bool{"line": true, "bar": true, "scatter": true, "pie": true}

// CreateChart renders a chart in the sandbox and stores the image as a
// conversation artifact.
func CreateChart() *capability.FuncCapability {
	return capability.NewFunc(
		"create_chart",
		"Render a chart from JSON data and save it as a conversation artifact. Line, bar and scatter charts expect x and y arrays; pie charts expect values and optional labels.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"chart_type": map[string]any{
					"type":        "string",
					"description": "One of line, bar, scatter, pie.",
				},
				"data": map[string]any{
					"type":        "string",
					"description": `JSON object with the series, e.g. {"x": [1,2,3], "y": [4,5,6]}.`,
				},
				"title": map[string]any{
					"type":        "string",
					"description": "Optional chart title.",
				},
				"output_name": map[string]any{
					"type":        "string",
					"description": "Artifact name for the rendered image. Defaults to chart.png.",
				},
			},
			"required": []string{"chart_type", "data"},
		},
		func(ctx *capability.Context, args map[string]any) capability.Result {
			kind, _ := args["chart_type"].(string)
			if !chartKinds[kind] {
				return capability.Failure("unknown chart type %q", kind)
			}
			data, _ := args["data"].(string)
			title, _ := args["title"].(string)
			name, _ := args["output_name"].(string)
			if name == "" {
				name = "chart.png"
			}
			if !strings.HasSuffix(name, ".png") {
				name += ".png"
			}

			renderPath := fmt.Sprintf("charts/%s_%s", ctx.CallID(), name)
			script := fmt.Sprintf(chartScript, data, kind, title, title, renderPath)
			if _, err := runHelperScript(ctx, "chart", script, defaultHelperTimeout); err != nil {
				return capability.Failure("chart rendering failed: %v", err)
			}

			image, err := ctx.Sandbox().ReadFile(ctx.Context(), renderPath)
			if err != nil {
				return capability.Failure("read rendered chart: %v", err)
			}
			version, err := ctx.SaveArtifact(name, image)
			if err != nil {
				return capability.Failure("save chart artifact: %v", err)
			}

			return capability.Success(map[string]any{
				"artifact": name,
				"version":  version,
				"bytes":    len(image),
			})
		},
	)
}
