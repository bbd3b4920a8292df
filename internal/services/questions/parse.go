package questions

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Shimizu-Technology/quizcards-api/internal/models"
)

// Parse anomalies. None of them is fatal to a pipeline; they explain why a
// reply produced an empty quiz set.
var (
	ErrEmptyReply  = errors.New("model reply is empty")
	ErrUnparsable  = errors.New("model reply is not valid JSON")
	ErrNoQuestions = errors.New("model reply has no usable questions list")
)

var (
	fencePattern   = regexp.MustCompile("```[A-Za-z0-9_-]*")
	controlPattern = regexp.MustCompile(`[\r\n\t]`)
)

// Result is a parsed reply. Dropped counts entries skipped as malformed.
type Result struct {
	Questions []models.QuizQuestion
	Dropped   int
}

// Sanitize removes markdown code fences and raw CR/LF/TAB characters that
// chat models wrap around JSON payloads.
func Sanitize(raw string) string {
	cleaned := fencePattern.ReplaceAllString(raw, "")
	cleaned = controlPattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// ParseQuestions sanitizes a model reply and decodes its questions list.
//
// The expected shape is {"questions":[{"question":"..","answer":".."}]}.
// When the cleaned reply is not JSON as a whole, the first balanced {...}
// object inside it is tried. Entries with a blank question or answer are
// dropped. On any error the result is empty.
func ParseQuestions(raw string) (Result, error) {
	cleaned := Sanitize(raw)
	if cleaned == "" {
		return Result{}, ErrEmptyReply
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		obj, ok := firstObject(cleaned)
		if !ok {
			return Result{}, fmt.Errorf("%w: %v", ErrUnparsable, err)
		}
		if err := json.Unmarshal([]byte(obj), &doc); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrUnparsable, err)
		}
	}

	list, ok := doc["questions"]
	if !ok {
		return Result{}, fmt.Errorf("%w: missing \"questions\" field", ErrNoQuestions)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(list, &entries); err != nil {
		return Result{}, fmt.Errorf("%w: \"questions\" is not a list", ErrNoQuestions)
	}

	var res Result
	for _, entry := range entries {
		var q models.QuizQuestion
		if err := json.Unmarshal(entry, &q); err != nil {
			res.Dropped++
			continue
		}
		q.Question = strings.TrimSpace(q.Question)
		q.Answer = strings.TrimSpace(q.Answer)
		if q.Question == "" || q.Answer == "" {
			res.Dropped++
			continue
		}
		res.Questions = append(res.Questions, q)
	}

	if len(res.Questions) == 0 {
		return Result{Dropped: res.Dropped}, fmt.Errorf("%w: %d entries, none well-formed", ErrNoQuestions, len(entries))
	}

	return res, nil
}

// firstObject returns the first balanced {...} span of s, skipping braces
// inside JSON string literals.
func firstObject(s string) (string, bool) {
	start, depth := -1, 0
	inString, escaped := false, false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
