// Package validation checks booking payloads against the external
// validation-rules feed the form layer also consumes, so the core
// never stores a payload the form would have rejected.
package validation

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/goccy/go-json"

	"github.com/bellhart/clinic-portal/internal/schedule"
)

// Rule is one field's validation config from the rules feed.
type Rule struct {
	Required       bool   `json:"required"`
	MinLength      int    `json:"minLength"`
	Pattern        string `json:"pattern"`
	ErrorMessage   string `json:"errorMessage"`
	LengthMessage  string `json:"lengthMessage"`
	PatternMessage string `json:"patternMessage"`

	compiled *regexp.Regexp
}

// RuleSet maps field keys to their rules.
type RuleSet map[string]Rule

//go:embed validation-rules.json
var embeddedRules []byte

// LoadRules reads the rules feed from path, or the embedded default
// when path is empty, and compiles every pattern up front.
func LoadRules(path string) (RuleSet, error) {
	data := embeddedRules
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read validation rules: %w", err)
		}
		data = b
	}

	var rules RuleSet
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("decode validation rules: %w", err)
	}

	for key, rule := range rules {
		if rule.Pattern == "" {
			continue
		}
		compiled, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %s: compile pattern: %w", key, err)
		}
		rule.compiled = compiled
		rules[key] = rule
	}
	return rules, nil
}

// Raw re-serializes the rule set for the form layer.
func (rs RuleSet) Raw() ([]byte, error) {
	return json.Marshal(rs)
}

var lengthStripper = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// CheckField validates a single value against the named rule. It
// returns an empty string when the value passes or the rule is
// unknown.
func (rs RuleSet) CheckField(fieldKey, value string) string {
	rule, ok := rs[fieldKey]
	if !ok {
		return ""
	}

	trimmed := strings.TrimSpace(value)
	if rule.Required && trimmed == "" {
		return rule.ErrorMessage
	}
	if trimmed == "" {
		return ""
	}

	if rule.MinLength > 0 {
		// Separators do not count toward length (phone formatting).
		if len(lengthStripper.Replace(trimmed)) < rule.MinLength {
			if rule.LengthMessage != "" {
				return rule.LengthMessage
			}
			return fmt.Sprintf("Must be at least %d characters", rule.MinLength)
		}
	}

	if rule.compiled != nil && !rule.compiled.MatchString(trimmed) {
		if rule.PatternMessage != "" {
			return rule.PatternMessage
		}
		return "Invalid format"
	}
	return ""
}

// CheckBooking validates a full booking request, including the
// cross-field contact rules: at least one of phone/email must be
// provided, at least one preferred contact method selected, and every
// selected method must have a matching contact detail.
func (rs RuleSet) CheckBooking(req schedule.BookingRequest) map[string]string {
	problems := make(map[string]string)

	set := func(key, msg string) {
		if msg != "" {
			problems[key] = msg
		}
	}

	set("appointment-type", rs.CheckField("appointment-type", string(req.Type)))
	set("patient-name", rs.CheckField("patient-name", req.Patient.Name))
	set("patient-health-number", rs.CheckField("patient-health-number", req.Patient.HealthNumber))
	set("patient-dob", rs.CheckField("patient-dob", req.Patient.DateOfBirth))
	set("patient-sex", rs.CheckField("patient-sex", req.Patient.Sex))

	phone := strings.TrimSpace(req.Patient.Phone)
	email := strings.TrimSpace(req.Patient.Email)

	if phone == "" && email == "" {
		msg := rs["contact-required"].ErrorMessage
		if msg == "" {
			msg = "Please provide a phone number or an email address"
		}
		problems["patient-phone"] = msg
		problems["patient-email"] = msg
		return problems
	}

	set("patient-phone", rs.CheckField("patient-phone", phone))
	set("patient-email", rs.CheckField("patient-email", email))

	preferredRule := rs["preferred-contact"]
	if len(req.Patient.PreferredContact) == 0 {
		msg := preferredRule.ErrorMessage
		if msg == "" {
			msg = "Please select at least one preferred contact method"
		}
		problems["preferred-contact"] = msg
		return problems
	}
	for _, method := range req.Patient.PreferredContact {
		if (method == schedule.ContactPhone && phone == "") ||
			(method == schedule.ContactEmail && email == "") {
			msg := preferredRule.PatternMessage
			if msg == "" {
				msg = "Preferred contact method has no matching contact detail"
			}
			problems["preferred-contact"] = msg
		}
	}
	return problems
}
