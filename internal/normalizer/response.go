package normalizer

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
)

var (
	// ErrMalformedResponse covers responses that are not the expected JSON.
	ErrMalformedResponse = errors.New("normalizer: malformed response")
	// ErrLengthMismatch is returned when a batch answer has the wrong length.
	ErrLengthMismatch = errors.New("normalizer: response length mismatch")
)

type answer struct {
	City         string
	ProvinceCode string
}

// extract returns the text between the first open and the last close
// delimiter, dropping any prose around the JSON.
func extract(text string, open, close byte) (string, error) {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start < 0 || end <= start {
		return "", eris.Wrapf(ErrMalformedResponse, "no %c...%c in response", open, close)
	}
	return text[start : end+1], nil
}

func parseBatch(text string, want int) ([]answer, error) {
	raw, err := extract(text, '[', ']')
	if err != nil {
		return nil, err
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, eris.Wrapf(ErrMalformedResponse, "decode array: %v", err)
	}
	if len(items) != want {
		return nil, eris.Wrapf(ErrLengthMismatch, "got %d answers for %d addresses", len(items), want)
	}

	answers := make([]answer, len(items))
	for i, item := range items {
		if answers[i], err = decodeAnswer(item); err != nil {
			return nil, eris.Wrapf(err, "answer %d", i+1)
		}
	}
	return answers, nil
}

func parseSingle(text string) (answer, error) {
	raw, err := extract(text, '{', '}')
	if err != nil {
		return answer{}, err
	}
	var item map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return answer{}, eris.Wrapf(ErrMalformedResponse, "decode object: %v", err)
	}
	return decodeAnswer(item)
}

// decodeAnswer requires exactly the city and province_code keys, both strings.
func decodeAnswer(item map[string]json.RawMessage) (answer, error) {
	if len(item) != 2 {
		return answer{}, eris.Wrapf(ErrMalformedResponse, "expected 2 fields, got %d", len(item))
	}
	var a answer
	for key, dst := range map[string]*string{"city": &a.City, "province_code": &a.ProvinceCode} {
		raw, ok := item[key]
		if !ok || strings.TrimSpace(string(raw)) == "null" {
			return answer{}, eris.Wrapf(ErrMalformedResponse, "missing %q", key)
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return answer{}, eris.Wrapf(ErrMalformedResponse, "%q is not a string", key)
		}
	}
	return a, nil
}
