package executor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/shophub-ai/assistant"
)

// refPattern matches step-output references of the form $stepID, with
// optional field and index accessors: $s1.products[0].price.
var refPattern = regexp.MustCompile(`\$([a-zA-Z0-9_]+)((?:\.[a-zA-Z0-9_]+|\[[0-9]+\])*)`)

var accessorPattern = regexp.MustCompile(`(\.[a-zA-Z0-9_]+|\[[0-9]+\])`)

// resolveArgs returns a copy of args with every $stepID reference resolved
// against earlier step outputs. A string that is exactly one reference keeps
// the referenced value's type; a string mixing references with other text is
// evaluated as a govaluate expression. Unresolvable references fail only the
// step they belong to.
func resolveArgs(stepID string, args map[string]interface{}, outputs map[string]map[string]interface{}) (map[string]interface{}, error) {
	if len(args) == 0 {
		return map[string]interface{}{}, nil
	}
	resolved := make(map[string]interface{}, len(args))
	for name, value := range args {
		v, err := resolveValue(value, outputs)
		if err != nil {
			return nil, assistant.NewArgResolutionError("execution", stepID, name, err)
		}
		resolved[name] = v
	}
	return resolved, nil
}

func resolveValue(value interface{}, outputs map[string]map[string]interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return resolveString(v, outputs)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			r, err := resolveValue(inner, outputs)
			if err != nil {
				return nil, err
			}
			out[k] = r
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, inner := range v {
			r, err := resolveValue(inner, outputs)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return value, nil
	}
}

func resolveString(s string, outputs map[string]map[string]interface{}) (interface{}, error) {
	if !strings.Contains(s, "$") {
		return s, nil
	}

	// A lone reference keeps the referenced value as is, lists and maps
	// included.
	if refPattern.FindString(s) == s {
		return lookupRef(s, outputs)
	}

	// Otherwise substitute each reference with a plain variable name and let
	// govaluate evaluate the remaining expression.
	variables := map[string]interface{}{}
	var lookupErr error
	replaced := refPattern.ReplaceAllStringFunc(s, func(matched string) string {
		val, err := lookupRef(matched, outputs)
		if err != nil {
			lookupErr = err
			return matched
		}
		varName := strings.NewReplacer("$", "ref_", ".", "_", "[", "_", "]", "").Replace(matched)
		variables[varName] = val
		return varName
	})
	if lookupErr != nil {
		return nil, lookupErr
	}

	expr, err := govaluate.NewEvaluableExpression(replaced)
	if err != nil {
		return nil, err
	}
	return expr.Evaluate(variables)
}

// lookupRef walks one $stepID.field[0] reference through the output map.
func lookupRef(ref string, outputs map[string]map[string]interface{}) (interface{}, error) {
	matches := refPattern.FindStringSubmatch(ref)
	if matches == nil {
		return nil, &refError{ref: ref, reason: "malformed reference"}
	}
	stepID := matches[1]
	output, ok := outputs[stepID]
	if !ok {
		return nil, &refError{ref: ref, reason: "no successful output for step '" + stepID + "'"}
	}

	var val interface{} = output
	for _, acc := range accessorPattern.FindAllString(matches[2], -1) {
		if strings.HasPrefix(acc, ".") {
			field := acc[1:]
			m, ok := val.(map[string]interface{})
			if !ok {
				return nil, &refError{ref: ref, reason: "'" + field + "' accessed on a non-object value"}
			}
			val, ok = m[field]
			if !ok {
				return nil, &refError{ref: ref, reason: "field '" + field + "' not present"}
			}
		} else {
			idx, err := strconv.Atoi(acc[1 : len(acc)-1])
			if err != nil {
				return nil, &refError{ref: ref, reason: "bad index " + acc}
			}
			arr, ok := val.([]interface{})
			if !ok {
				return nil, &refError{ref: ref, reason: "index accessed on a non-list value"}
			}
			if idx < 0 || idx >= len(arr) {
				return nil, &refError{ref: ref, reason: "index " + acc + " out of range"}
			}
			val = arr[idx]
		}
	}
	return val, nil
}

type refError struct {
	ref    string
	reason string
}

func (e *refError) Error() string {
	return "cannot resolve '" + e.ref + "': " + e.reason
}
