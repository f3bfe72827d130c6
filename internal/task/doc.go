// Package task defines the task record, display filters, and input validation.
//
// A task travels over the wire as:
//
//	{
//	  "id": "1728137812345",
//	  "task": "Buy milk",
//	  "isCompleted": false
//	}
//
// # Validation
//
// Input is validated against a JSON Schema (draft 2020-12). The schema is
// embedded in the binary; an alternative schema file can be loaded with
// LoadSchema. Failures are reported as a *ValidationError keyed to the
// offending field:
//
//   - "task" missing, null or empty: "Task is required"
//   - "task" not a string: "Task must be a string"
//   - "isCompleted" not a boolean: "Completion must be a boolean"
//
// "isCompleted" defaults to false when omitted.
//
// # Filters
//
//   - "all": every task
//   - "completed": tasks with isCompleted=true
//   - "incomplete": tasks with isCompleted=false
package task
