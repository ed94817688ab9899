package tools

import (
	"fmt"

	"vita/internal/specialist"
	"vita/internal/toolregistry"
)

// RegisterBuiltins installs the health-tracking tools. AllowedSpecialists
// mirror the persona definitions: the orchestrator reaches everything, each
// specialist only its own domain.
func RegisterBuiltins(registry *toolregistry.Registry) error {
	builtins := []struct {
		spec    toolregistry.Spec
		handler toolregistry.Handler
	}{
		{
			spec: toolregistry.Spec{
				Name:               "fasting_manage",
				Description:        "Start, end, cancel, or report the user's fasting interval.",
				RequiredFields:     []string{"action"},
				AllowedSpecialists: []string{specialist.Orchestrator, specialist.Nutritionist},
				Validator:          validateFastingArgs,
				Tags:               []string{"fasting", "write"},
			},
			handler: handleFastingManage,
		},
		{
			spec: toolregistry.Spec{
				Name:               "meal_log",
				Description:        "Record a meal with its items and an optional label and notes.",
				RequiredFields:     []string{"items"},
				AllowedSpecialists: []string{specialist.Orchestrator, specialist.Nutritionist},
				Validator:          validateMealLogArgs,
				Tags:               []string{"nutrition", "write"},
			},
			handler: handleMealLog,
		},
		{
			spec: toolregistry.Spec{
				Name:               "meal_list",
				Description:        "List the user's most recent meals, newest first.",
				ReadOnly:           true,
				AllowedSpecialists: []string{specialist.Orchestrator, specialist.Nutritionist},
				Tags:               []string{"nutrition", "read"},
			},
			handler: handleMealList,
		},
		{
			spec: toolregistry.Spec{
				Name:               "sleep_log",
				Description:        "Record one night of sleep in hours with optional quality and notes.",
				RequiredFields:     []string{"hours"},
				AllowedSpecialists: []string{specialist.Orchestrator, specialist.SleepExpert},
				Validator:          validateSleepArgs,
				Tags:               []string{"sleep", "write"},
			},
			handler: handleSleepLog,
		},
		{
			spec: toolregistry.Spec{
				Name:               "vitals_log",
				Description:        "Record a single measurement such as weight, heart rate, or blood pressure.",
				RequiredFields:     []string{"kind", "value"},
				AllowedSpecialists: []string{specialist.Orchestrator, specialist.FitnessCoach},
				Validator:          validateVitalsArgs,
				Tags:               []string{"vitals", "write"},
			},
			handler: handleVitalsLog,
		},
	}

	for _, builtin := range builtins {
		if err := registry.Register(builtin.spec, builtin.handler); err != nil {
			return err
		}
	}
	return nil
}

func validateFastingArgs(args map[string]any) error {
	action, _ := args["action"].(string)
	if !validFastingAction(action) {
		return fmt.Errorf("action must be one of start, end, status, cancel; got %q", action)
	}
	return nil
}

func validateMealLogArgs(args map[string]any) error {
	if len(stringListArg(args, "items")) == 0 {
		return fmt.Errorf("items must contain at least one food item")
	}
	return nil
}

func validateSleepArgs(args map[string]any) error {
	hours, ok := floatArg(args, "hours")
	if !ok {
		return fmt.Errorf("hours must be a number")
	}
	if hours <= 0 || hours > 24 {
		return fmt.Errorf("hours must be within (0, 24], got %v", hours)
	}
	return nil
}

func validateVitalsArgs(args map[string]any) error {
	if stringArg(args, "kind") == "" {
		return fmt.Errorf("kind must not be empty")
	}
	if _, ok := floatArg(args, "value"); !ok {
		return fmt.Errorf("value must be a number")
	}
	return nil
}
