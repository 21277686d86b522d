package ai

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/garnizeh/pawfect/internal/apperr"
)

// Classifier is the external text-in/text-out model. Implementations make a
// single attempt per call.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (string, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, prompt string) (string, error)

func (f ClassifierFunc) Classify(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

const (
	DecisionValid   = "VALID"
	DecisionInvalid = "INVALID"
)

// Result is the outcome of one purpose evaluation.
type Result struct {
	// Decision is the raw value of the "decision" field, or empty when the
	// field is missing or not a string.
	Decision string
	// Raw is the untouched classifier output, kept for audit logging.
	Raw string
	// SchemaErrors lists decision schema violations. They do not fail the
	// evaluation; any decision other than VALID rejects.
	SchemaErrors []string
}

// Accepted reports whether the decision is the literal VALID.
func (r Result) Accepted() bool { return r.Decision == DecisionValid }

var (
	flatObject       = regexp.MustCompile(`\{[^}]+\}`)
	strictFlatObject = regexp.MustCompile(`^\{[^}]+\}$`)
)

// ExtractJSON returns the first flat (non-nested) brace-delimited object in s.
// In strict mode the trimmed s must be exactly one such object. It returns
// "" when nothing matches.
func ExtractJSON(s string, strict bool) string {
	if strict {
		t := strings.TrimSpace(s)
		if strictFlatObject.MatchString(t) {
			return t
		}
		return ""
	}
	return flatObject.FindString(s)
}

// ParseDecision extracts and decodes the decision object from raw model
// output. Missing objects and JSON syntax errors are KindParse errors.
func ParseDecision(raw string, strict bool) (decision string, object []byte, err error) {
	obj := ExtractJSON(raw, strict)
	if obj == "" {
		return "", nil, apperr.New(apperr.KindParse, "no JSON object found in classifier response")
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(obj), &m); err != nil {
		return "", nil, apperr.Wrap(apperr.KindParse, "classifier response is not valid JSON", err)
	}

	d, _ := m["decision"].(string)
	return d, []byte(obj), nil
}

// Validator asks the classifier to judge an adoption purpose statement.
type Validator struct {
	classifier Classifier
	schema     *Schema
	strict     bool
	logger     *zap.Logger
}

// NewValidator builds a Validator. schema may be nil to skip the schema check.
func NewValidator(c Classifier, schema *Schema, strict bool, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{classifier: c, schema: schema, strict: strict, logger: logger}
}

// Evaluate renders the policy prompt around purpose, calls the classifier
// exactly once and parses its decision. Classifier failures are
// KindClassifier errors; unusable output is a KindParse error.
func (v *Validator) Evaluate(ctx context.Context, purpose string) (Result, error) {
	prompt, err := RenderPrompt(purpose)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindClassifier, "render prompt", err)
	}

	raw, err := v.classifier.Classify(ctx, prompt)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindClassifier, "classifier call failed", err)
	}
	v.logger.Info("classifier response", zap.String("raw", raw))

	decision, obj, err := ParseDecision(raw, v.strict)
	if err != nil {
		v.logger.Error("classifier output rejected", zap.Error(err), zap.String("raw", raw))
		return Result{Raw: raw}, err
	}

	res := Result{Decision: decision, Raw: raw}
	if v.schema != nil {
		res.SchemaErrors = v.schema.Validate(ctx, obj)
		if len(res.SchemaErrors) > 0 {
			v.logger.Warn("decision does not match schema", zap.Strings("errors", res.SchemaErrors), zap.String("object", string(obj)))
		}
	}
	return res, nil
}
