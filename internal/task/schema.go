package task

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed task.schema.json
var embeddedSchema []byte

const embeddedSchemaURL = "https://tasklist.local/task.schema.json"

// MessageTaskRequired is shown when the description is missing or empty.
const MessageTaskRequired = "Task is required"

// ValidationError is a field-scoped validation failure.
type ValidationError struct {
	Field   string // JSON path of the offending field
	Message string // human-readable message for the field
	Err     error  // underlying schema error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// fieldMessages maps a field and the failing schema keyword to the message
// shown next to that field.
var fieldMessages = map[string]map[string]string{
	"task": {
		"required":  MessageTaskRequired,
		"minLength": MessageTaskRequired,
		"type":      "Task must be a string",
	},
	"isCompleted": {
		"type": "Completion must be a boolean",
	},
}

// fieldOrder decides which field reports first when several fail.
var fieldOrder = map[string]int{
	"task":        0,
	"isCompleted": 1,
}

// Schema validates task input.
type Schema struct {
	compiled *jsonschema.Schema
	source   string
}

var defaultSchema = mustCompileEmbedded()

// DefaultSchema returns the schema embedded in the binary.
func DefaultSchema() *Schema {
	return defaultSchema
}

func mustCompileEmbedded() *Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(embeddedSchemaURL, bytes.NewReader(embeddedSchema)); err != nil {
		panic(fmt.Sprintf("task: add embedded schema: %v", err))
	}
	compiled, err := compiler.Compile(embeddedSchemaURL)
	if err != nil {
		panic(fmt.Sprintf("task: compile embedded schema: %v", err))
	}
	return &Schema{compiled: compiled, source: "embedded"}
}

// LoadSchema compiles the schema at path. An empty path selects the embedded
// schema. When the file is missing or invalid the embedded schema is returned
// together with a warning describing why.
func LoadSchema(path string) (*Schema, []string) {
	if path == "" {
		return defaultSchema, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return defaultSchema, []string{fmt.Sprintf("invalid schema path: %v", err)}
	}

	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return defaultSchema, []string{fmt.Sprintf("schema file not found: %s, using embedded schema", absPath)}
		}
		return defaultSchema, []string{fmt.Sprintf("failed to read schema file: %v", err)}
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiled, err := compiler.Compile(absPath)
	if err != nil {
		return defaultSchema, []string{fmt.Sprintf("invalid schema file: %v, using embedded schema", err)}
	}

	return &Schema{compiled: compiled, source: absPath}, nil
}

// Source returns "embedded" or the path the schema was compiled from.
func (s *Schema) Source() string {
	return s.source
}

// Validate validates a candidate task and returns the normalized draft.
// Null values are treated as absent.
func (s *Schema) Validate(candidate map[string]any) (Draft, error) {
	doc := make(map[string]any, len(candidate))
	for k, v := range candidate {
		if v != nil {
			doc[k] = v
		}
	}

	if err := s.compiled.Validate(doc); err != nil {
		return Draft{}, schemaFieldError(err)
	}

	text, ok := doc["task"].(string)
	if !ok || text == "" {
		// A custom schema may be looser than the embedded one.
		return Draft{}, &ValidationError{Field: "task", Message: MessageTaskRequired}
	}

	draft := Draft{Task: text}
	if done, ok := doc["isCompleted"].(bool); ok {
		draft.IsCompleted = done
	}
	return draft, nil
}

// ValidateText validates a description typed into the form.
func (s *Schema) ValidateText(text string) (Draft, error) {
	return s.Validate(map[string]any{"task": text})
}

// ValidateJSON validates a raw JSON object.
func (s *Schema) ValidateJSON(data []byte) (Draft, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var candidate map[string]any
	if err := dec.Decode(&candidate); err != nil {
		return Draft{}, &ValidationError{Message: "invalid JSON object", Err: err}
	}
	return s.Validate(candidate)
}

// Validate validates candidate with the embedded schema.
func Validate(candidate map[string]any) (Draft, error) {
	return defaultSchema.Validate(candidate)
}

// ValidateText validates a form description with the embedded schema.
func ValidateText(text string) (Draft, error) {
	return Validate(map[string]any{"task": text})
}

type schemaFailure struct {
	field   string
	keyword string
	message string
}

func schemaFieldError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &ValidationError{Message: err.Error(), Err: err}
	}

	var failures []schemaFailure
	collectSchemaFailures(&failures, ve)
	if len(failures) == 0 {
		return &ValidationError{Message: ve.Message, Err: err}
	}

	sort.SliceStable(failures, func(i, j int) bool {
		return rankField(failures[i].field) < rankField(failures[j].field)
	})

	first := failures[0]
	msg := first.message
	if byKeyword, ok := fieldMessages[first.field]; ok {
		if m, ok := byKeyword[first.keyword]; ok {
			msg = m
		}
	}
	return &ValidationError{Field: first.field, Message: msg, Err: err}
}

func collectSchemaFailures(out *[]schemaFailure, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}
	if len(err.Causes) > 0 {
		for _, cause := range err.Causes {
			collectSchemaFailures(out, cause)
		}
		return
	}

	keyword := lastPointerSegment(err.KeywordLocation)
	field := jsonPointerToPath(err.InstanceLocation)
	if keyword == "required" {
		if missing := missingProperty(err.Message); missing != "" {
			field = joinPath(field, missing)
		}
	}
	*out = append(*out, schemaFailure{field: field, keyword: keyword, message: err.Message})
}

func rankField(field string) int {
	if rank, ok := fieldOrder[field]; ok {
		return rank
	}
	return len(fieldOrder)
}

var quotedName = regexp.MustCompile(`'([^']+)'`)

// missingProperty extracts the first property name from a "missing
// properties: 'task'" message.
func missingProperty(message string) string {
	m := quotedName.FindStringSubmatch(message)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func lastPointerSegment(ptr string) string {
	if i := strings.LastIndexByte(ptr, '/'); i >= 0 {
		return ptr[i+1:]
	}
	return ptr
}

func joinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}

func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	path := ""
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			path += fmt.Sprintf("[%d]", idx)
			continue
		}
		path = joinPath(path, part)
	}
	return path
}
