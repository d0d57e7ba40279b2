package capability

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/scholarline/scholarline/engine/internal/store"
)

const CreateApplicationName = "create_application"

func CreateApplication(st store.Store) Capability {
	return Capability{
		Name:        CreateApplicationName,
		Description: "Create a new scholarship application. Use this ONLY when the user has explicitly confirmed they want to apply for a SPECIFIC scholarship and all details (name, email, essay, GPA) have been collected.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"scholarship_id": map[string]any{"type": "string"},
				"applicant_name": map[string]any{"type": "string"},
				"email":          map[string]any{"type": "string"},
				"essay":          map[string]any{"type": "string"},
				"gpa":            map[string]any{"type": "number"},
			},
			"required": []string{"scholarship_id", "applicant_name", "email", "essay", "gpa"},
		},
		Args: []ArgSpec{
			{Name: "scholarship_id", Type: "string", Required: true},
			{Name: "applicant_name", Type: "string", Required: true},
			{Name: "email", Type: "string", Required: true},
			{Name: "essay", Type: "string", Required: true},
			{Name: "gpa", Type: "number", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			email := stringArg(args, "email")
			if _, err := mail.ParseAddress(email); err != nil {
				return nil, &InvalidArgumentsError{Capability: CreateApplicationName, Reason: fmt.Sprintf("email %q is not a valid address", email)}
			}
			gpa, _ := numberArg(args, "gpa")
			if gpa < 0 || gpa > 4 {
				return nil, &InvalidArgumentsError{Capability: CreateApplicationName, Reason: "gpa must be between 0 and 4"}
			}

			scholarshipID := stringArg(args, "scholarship_id")
			scholarship, err := st.GetScholarship(ctx, scholarshipID)
			if err != nil {
				return nil, &ExecutionError{Capability: CreateApplicationName, Err: err}
			}
			if scholarship == nil {
				return nil, &ExecutionError{Capability: CreateApplicationName, Err: fmt.Errorf("scholarship %s not found", scholarshipID)}
			}

			application := store.Application{
				ID:            uuid.New().String(),
				ScholarshipID: scholarshipID,
				ApplicantName: stringArg(args, "applicant_name"),
				Email:         email,
				Essay:         stringArg(args, "essay"),
				GPA:           gpa,
				Status:        "Pending",
				CreatedAt:     time.Now().UTC().Format(time.RFC3339Nano),
			}
			if err := st.CreateApplication(ctx, application); err != nil {
				return nil, &ExecutionError{Capability: CreateApplicationName, Err: err}
			}
			return application, nil
		},
	}
}
