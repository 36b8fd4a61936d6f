// Package validation checks kind field maps against JSON Schema documents.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrSchemaInvalid    = errors.New("schema invalid")
	ErrSchemaValidation = errors.New("schema validation failed")
)

// Issue is one failing value, addressed by its JSON pointer.
type Issue struct {
	Path    string
	Message string
}

func (i Issue) String() string {
	path := strings.TrimSpace(i.Path)
	if !strings.HasPrefix(path, "#") {
		path = "#" + path
	}
	if i.Message == "" {
		return path
	}
	return path + ": " + i.Message
}

// FieldsError lists every issue found in one payload.
type FieldsError struct {
	Issues []Issue
	Cause  error
}

func (e *FieldsError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrSchemaValidation.Error()
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return strings.Join(parts, "; ")
}

func (e *FieldsError) Unwrap() error {
	return ErrSchemaValidation
}

// Issues returns the issues carried by err. Errors that are not schema
// failures become a single issue holding the message.
func Issues(err error) []Issue {
	if err == nil {
		return nil
	}
	var fieldsErr *FieldsError
	if errors.As(err, &fieldsErr) {
		return fieldsErr.Issues
	}
	var schemaErr *jsonschema.ValidationError
	if errors.As(err, &schemaErr) {
		return leafIssues(schemaErr)
	}
	return []Issue{{Message: err.Error()}}
}

// Validator checks payloads against one compiled schema. The nil Validator
// accepts everything, which is what an empty schema compiles to.
type Validator struct {
	schema *jsonschema.Schema
}

// Compile builds a Draft 2020-12 validator for schema.
func Compile(schema map[string]any) (*Validator, error) {
	if len(schema) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	const resource = "fields.schema.json"
	if err := compiler.AddResource(resource, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return &Validator{schema: compiled}, nil
}

// Validate checks payload. Go values are first re-decoded from JSON so ints
// and typed slices are seen the way the store will hand them back.
func (v *Validator) Validate(payload map[string]any) error {
	if v == nil || v.schema == nil {
		return nil
	}
	document, err := asJSON(payload)
	if err != nil {
		return &FieldsError{Issues: []Issue{{Message: err.Error()}}, Cause: err}
	}
	if err := v.schema.Validate(document); err != nil {
		return &FieldsError{Issues: Issues(err), Cause: err}
	}
	return nil
}

// ValidatePayload compiles schema and validates payload against it.
func ValidatePayload(schema, payload map[string]any) error {
	validator, err := Compile(schema)
	if err != nil {
		return err
	}
	return validator.Validate(payload)
}

func asJSON(payload map[string]any) (any, error) {
	if payload == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var document any
	err = json.Unmarshal(raw, &document)
	return document, err
}

// leafIssues flattens the cause tree to its leaves, ordered by path.
func leafIssues(root *jsonschema.ValidationError) []Issue {
	var issues []Issue
	stack := []*jsonschema.ValidationError{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == nil {
			continue
		}
		if len(node.Causes) > 0 {
			stack = append(stack, node.Causes...)
			continue
		}
		issues = append(issues, Issue{
			Path:    strings.TrimSpace(node.InstanceLocation),
			Message: strings.TrimSpace(node.Message),
		})
	}
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Path < issues[j].Path })
	return issues
}
