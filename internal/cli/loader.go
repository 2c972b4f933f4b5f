package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/joinery/internal/scenario"
)

// Error codes for command-level failures.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeScanError  = "E002" // Directory scan error
	ErrCodeNoFiles    = "E003" // No scenario files found
	ErrCodeLoadFailed = "E004" // Scenario file unreadable or not YAML
	ErrCodeNotFound   = "E005" // Path not found
	ErrCodeJournal    = "E006" // Journal database error
)

// LoadError is a command-level failure with an error code.
type LoadError struct {
	Code    string
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// loadedScenario is one scenario file after every check has run.
type loadedScenario struct {
	Path     string
	Scenario *scenario.Scenario // nil when the file could not be decoded
	Problems []scenario.ValidationError
}

// Valid reports whether the scenario decoded and has no problems.
func (l loadedScenario) Valid() bool {
	return l.Scenario != nil && len(l.Problems) == 0
}

// loadScenarioFile reads a scenario and runs the schema check, the strict
// decode and the semantic check. Schema errors stop before decoding, since
// the decoder would only repeat them less precisely.
func loadScenarioFile(path string) (loadedScenario, error) {
	out := loadedScenario{Path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return out, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "file not found"}
	}
	if err != nil {
		return out, &LoadError{Code: ErrCodeLoadFailed, Path: path, Message: err.Error()}
	}

	if problems := scenario.ValidateSchema(data); len(problems) > 0 {
		out.Problems = problems
		return out, nil
	}

	s, err := scenario.Parse(data)
	if err != nil {
		out.Problems = []scenario.ValidationError{{
			Field:   "document",
			Code:    scenario.ErrCodeSchema,
			Message: err.Error(),
		}}
		return out, nil
	}

	out.Scenario = s
	out.Problems = scenario.Validate(s)
	return out, nil
}

// findScenarioFiles lists scenario files under dir whose base name (without
// extension) matches the glob filter. An empty filter matches everything.
func findScenarioFiles(dir, filter string) ([]string, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Path: dir, Message: "scenarios directory not found"}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Path: dir, Message: err.Error()}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeScanError, Path: dir, Message: "not a directory"}
	}

	paths, err := scenario.Discover(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Path: dir, Message: err.Error()}
	}

	if filter == "" {
		return paths, nil
	}
	if _, err := filepath.Match(filter, ""); err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("invalid filter pattern %q", filter)}
	}

	var matched []string
	for _, p := range paths {
		base := filepath.Base(p)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		if ok, _ := filepath.Match(filter, name); ok {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// goldenFilePath returns <dir>/golden/<file base>.golden for a scenario file.
func goldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}
