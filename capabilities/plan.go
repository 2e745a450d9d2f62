package capabilities

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/navvy-ai/navvy/capability"
	"github.com/navvy-ai/navvy/core"
)

// planArtifactName is the artifact each conversation's plan lives under.
// Updates write a new version, so the full edit history stays loadable.
const planArtifactName = "plan.json"

type planStep struct {
	Index       int    `json:"index"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Note        string `json:"note,omitempty"`
}

type planDoc struct {
	Title     string     `json:"title,omitempty"`
	Steps     []planStep `json:"steps"`
	UpdatedAt time.Time  `json:"updated_at"`
}

var planStepStatuses = map[string]bool{
	"pending":     true,
	"in_progress": true,
	"completed":   true,
	"skipped":     true,
}

// CreatePlan writes a fresh step plan for the conversation, replacing any
// previous plan.
func CreatePlan() *capability.FuncCapability {
	return capability.NewFunc(
		"create_plan",
		"Create a step-by-step plan for the current task. Steps start as pending; update them as work progresses.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{
					"type":        "string",
					"description": "Short name for the plan.",
				},
				"steps": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Ordered step descriptions.",
				},
			},
			"required": []string{"steps"},
		},
		func(ctx *capability.Context, args map[string]any) capability.Result {
			rawSteps, _ := args["steps"].([]any)
			if len(rawSteps) == 0 {
				return capability.Failure("a plan needs at least one step")
			}

			doc := planDoc{UpdatedAt: time.Now().UTC()}
			doc.Title, _ = args["title"].(string)
			for i, raw := range rawSteps {
				desc, ok := raw.(string)
				if !ok || desc == "" {
					return capability.Failure("step %d must be a non-empty string", i+1)
				}
				doc.Steps = append(doc.Steps, planStep{Index: i + 1, Description: desc, Status: "pending"})
			}

			version, err := savePlan(ctx, doc)
			if err != nil {
				return capability.Failure("save plan: %v", err)
			}
			return capability.Success(fmt.Sprintf("Plan created with %d steps (version %d).", len(doc.Steps), version))
		},
	)
}

// UpdatePlanStep changes the status of one step in the stored plan.
func UpdatePlanStep() *capability.FuncCapability {
	return capability.NewFunc(
		"update_plan_step",
		"Update the status of a plan step. Valid statuses: pending, in_progress, completed, skipped.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"step": map[string]any{
					"type":        "number",
					"description": "1-based index of the step to update.",
				},
				"status": map[string]any{
					"type":        "string",
					"description": "New status for the step.",
				},
				"note": map[string]any{
					"type":        "string",
					"description": "Optional note about the outcome of the step.",
				},
			},
			"required": []string{"step", "status"},
		},
		func(ctx *capability.Context, args map[string]any) capability.Result {
			status, _ := args["status"].(string)
			if !planStepStatuses[status] {
				return capability.Failure("unknown step status %q", status)
			}
			stepNum, _ := args["step"].(float64)
			index := int(stepNum)

			doc, err := loadPlan(ctx)
			if err != nil {
				return capability.Failure("no plan exists for this conversation: %v", err)
			}

			found := false
			for i := range doc.Steps {
				if doc.Steps[i].Index == index {
					doc.Steps[i].Status = status
					if note, ok := args["note"].(string); ok && note != "" {
						doc.Steps[i].Note = note
					}
					found = true
					break
				}
			}
			if !found {
				return capability.Failure("plan has no step %d", index)
			}

			doc.UpdatedAt = time.Now().UTC()
			if _, err := savePlan(ctx, doc); err != nil {
				return capability.Failure("save plan: %v", err)
			}
			return capability.Success(fmt.Sprintf("Step %d marked %s.", index, status))
		},
	)
}

// GetPlan returns the current plan as JSON.
func GetPlan() *capability.FuncCapability {
	return capability.NewFunc(
		"get_plan",
		"Return the current plan with the status of every step.",
		map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		func(ctx *capability.Context, args map[string]any) capability.Result {
			artifact, err := ctx.LoadArtifact(planArtifactName, 0)
			if err != nil {
				return capability.Failure("no plan exists for this conversation")
			}
			return capability.Success(string(artifact.Data))
		},
	)
}

func loadPlan(ctx *capability.Context) (planDoc, error) {
	artifact, err := ctx.LoadArtifact(planArtifactName, 0)
	if err != nil {
		return planDoc{}, err
	}
	var doc planDoc
	if err := json.Unmarshal(artifact.Data, &doc); err != nil {
		return planDoc{}, fmt.Errorf("decode stored plan: %w", err)
	}
	return doc, nil
}

// savePlan writes the plan artifact and mirrors it into the conversation
// log as an out-of-band plan record.
func savePlan(ctx *capability.Context, doc planDoc) (int, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return 0, err
	}
	version, err := ctx.SaveArtifact(planArtifactName, data)
	if err != nil {
		return 0, err
	}
	if err := ctx.RecordMessage(core.MessageTypePlan, "assistant", string(data), false); err != nil {
		ctx.LogWarn("capability.record_failed", "capability", "plan", "error", err)
	}
	return version, nil
}
