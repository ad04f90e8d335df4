package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ariel-frischer/codebuilder/internal/statemachine"
)

// ValidationError points at the config file and, when known, the position
// or the dotted key that is wrong.
type ValidationError struct {
	FilePath string
	Line     int
	Column   int
	Message  string
	// Field is the dotted config key, e.g. "launch.max_tries".
	Field string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line, e.Column, e.Message)
	case e.Field != "":
		return fmt.Sprintf("%s: %s %s", e.FilePath, e.Field, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
	}
}

// ValidationErrors is every field that failed validation, in struct order.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "; ")
}

// As lets errors.As reach the first field error.
func (e ValidationErrors) As(target any) bool {
	t, ok := target.(**ValidationError)
	if !ok || len(e) == 0 {
		return false
	}
	*t = e[0]
	return true
}

var validate = newValidator()

// newValidator reports fields by their koanf key instead of the Go name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateYAMLSyntax parses the file as YAML and reports the first syntax
// error with its position. Missing and empty files are valid.
func ValidateYAMLSyntax(filePath string) error {
	data, err := os.ReadFile(filePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case errors.Is(err, os.ErrPermission):
		return &ValidationError{FilePath: filePath, Message: "permission denied"}
	case err != nil:
		return &ValidationError{FilePath: filePath, Message: err.Error()}
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil
	}

	var node yaml.Node
	err = yaml.Unmarshal(data, &node)
	if err == nil {
		return nil
	}
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		return &ValidationError{FilePath: filePath, Message: strings.Join(typeErr.Errors, "; ")}
	}
	line, column := yamlPosition(err.Error())
	return &ValidationError{
		FilePath: filePath,
		Line:     line,
		Column:   column,
		Message:  trimYAMLPrefix(err.Error()),
	}
}

// ValidateConfigValues checks struct constraints and the retry policy the
// state machine will be rendered with.
func ValidateConfigValues(cfg *Configuration, filePath string) error {
	var errs ValidationErrors

	var fieldErrs validator.ValidationErrors
	if err := validate.Struct(cfg); err != nil {
		if !errors.As(err, &fieldErrs) {
			return &ValidationError{FilePath: filePath, Message: err.Error()}
		}
		for _, fe := range fieldErrs {
			errs = append(errs, &ValidationError{
				FilePath: filePath,
				Field:    keyPath(fe.Namespace()),
				Message:  describe(fe),
			})
		}
	}

	// Cross-field retry limits, once every field is individually valid.
	if len(errs) == 0 {
		opts := statemachine.Options{LambdaARN: cfg.LambdaARN(), Retry: cfg.Retry}
		if err := opts.Validate(); err != nil {
			errs = append(errs, &ValidationError{FilePath: filePath, Field: "retry", Message: err.Error()})
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// keyPath drops the root struct name: "Configuration.launch.max_tries"
// becomes "launch.max_tries".
func keyPath(namespace string) string {
	_, rest, ok := strings.Cut(namespace, ".")
	if !ok {
		return namespace
	}
	return rest
}

// yamlPosition reads "yaml: line L: column C:" or "yaml: line L:".
func yamlPosition(msg string) (line, column int) {
	if n, _ := fmt.Sscanf(msg, "yaml: line %d: column %d:", &line, &column); n == 2 {
		return line, column
	}
	if n, _ := fmt.Sscanf(msg, "yaml: line %d:", &line); n == 1 {
		return line, 1
	}
	return 0, 0
}

func trimYAMLPrefix(msg string) string {
	if !strings.HasPrefix(msg, "yaml:") {
		return msg
	}
	if i := strings.LastIndex(msg, ": "); i > 0 {
		return msg[i+2:]
	}
	return msg
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "numeric":
		return "must contain only digits"
	default:
		return "failed validation: " + fe.Tag()
	}
}
