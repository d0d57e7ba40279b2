package capability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/scholarline/scholarline/engine/internal/store"
)

const CreateTasksName = "create_tasks"

var validPriorities = map[string]bool{
	"High":   true,
	"Medium": true,
	"Low":    true,
}

// TaskOutcome reports one batch entry. Failed entries carry the reason, so
// the oracle can fix and resubmit just those.
type TaskOutcome struct {
	Index  int    `json:"index"`
	Title  string `json:"title,omitempty"`
	TaskID string `json:"task_id,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type TaskBatchResult struct {
	ApplicationID string        `json:"application_id"`
	Created       []store.Task  `json:"created"`
	Outcomes      []TaskOutcome `json:"outcomes"`
}

func CreateTasks(st store.Store) Capability {
	return Capability{
		Name:        CreateTasksName,
		Description: "Create a preparation roadmap (list of tasks) for an application. Use this ONLY after an application has been created AND the user agreed to a preparation plan. Each task needs title, description, priority (High/Medium/Low) and due_date (YYYY-MM-DD).",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"application_id": map[string]any{"type": "string"},
				"tasks": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"title":       map[string]any{"type": "string"},
							"description": map[string]any{"type": "string"},
							"priority":    map[string]any{"type": "string", "enum": []string{"High", "Medium", "Low"}},
							"due_date":    map[string]any{"type": "string", "description": "YYYY-MM-DD"},
						},
						"required": []string{"title"},
					},
				},
			},
			"required": []string{"application_id", "tasks"},
		},
		Args: []ArgSpec{
			{Name: "application_id", Type: "string", Required: true},
			{Name: "tasks", Type: "array", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			applicationID := stringArg(args, "application_id")
			application, err := st.GetApplication(ctx, applicationID)
			if err != nil {
				return nil, &ExecutionError{Capability: CreateTasksName, Err: err}
			}
			if application == nil {
				return nil, &InvalidArgumentsError{Capability: CreateTasksName, Reason: fmt.Sprintf("application %s not found; create the application first", applicationID)}
			}

			entries, _ := args["tasks"].([]any)
			if len(entries) == 0 {
				return nil, &InvalidArgumentsError{Capability: CreateTasksName, Reason: "tasks must be a non-empty array"}
			}

			result := TaskBatchResult{ApplicationID: applicationID, Created: []store.Task{}}
			for index, entry := range entries {
				outcome := createOneTask(ctx, st, applicationID, index, entry)
				if outcome.Status == "created" {
					task, err := st.GetTask(ctx, outcome.TaskID)
					if err == nil && task != nil {
						result.Created = append(result.Created, *task)
					}
				}
				result.Outcomes = append(result.Outcomes, outcome)
			}
			return result, nil
		},
	}
}

// createOneTask never aborts the batch: a bad or failed entry yields a failed
// outcome and execution moves to the next entry.
func createOneTask(ctx context.Context, st store.Store, applicationID string, index int, entry any) TaskOutcome {
	outcome := TaskOutcome{Index: index, Status: "failed"}

	fields, ok := entry.(map[string]any)
	if !ok {
		outcome.Error = "task entry must be an object"
		return outcome
	}
	title, _ := fields["title"].(string)
	outcome.Title = title
	if title == "" {
		outcome.Error = "title is required"
		return outcome
	}

	priority, _ := fields["priority"].(string)
	if priority == "" {
		priority = "Medium"
	}
	if !validPriorities[priority] {
		outcome.Error = fmt.Sprintf("priority %q must be High, Medium or Low", priority)
		return outcome
	}

	dueDate, _ := fields["due_date"].(string)
	if dueDate != "" {
		if _, err := time.Parse("2006-01-02", dueDate); err != nil {
			outcome.Error = fmt.Sprintf("due_date %q must be YYYY-MM-DD", dueDate)
			return outcome
		}
	}
	description, _ := fields["description"].(string)

	task := store.Task{
		ID:            uuid.New().String(),
		ApplicationID: applicationID,
		Title:         title,
		Description:   description,
		Priority:      priority,
		DueDate:       dueDate,
		Status:        "pending",
		CreatedAt:     time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := st.CreateTask(ctx, task); err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	outcome.TaskID = task.ID
	outcome.Status = "created"
	return outcome
}
