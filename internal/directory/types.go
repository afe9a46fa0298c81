// Package directory queries the YC open-source company directory and
// shapes the fetched collections into result envelopes.
package directory

// Company is a single upstream company record. The upstream owns its shape;
// only "name" and "one_liner" are ever read.
type Company map[string]any

// Batch describes one YC cohort.
type Batch struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	URL   string `json:"url"`
}

// Envelope is the result of every directory operation: either a single
// payload key or a single "error" key.
type Envelope map[string]any

// Envelope keys.
const (
	KeyError     = "error"
	KeyCompanies = "companies"
	KeyBatch     = "batch"
	KeyBatches   = "batches"
	KeyMatches   = "matches"
)

// Success builds an envelope carrying payload under key.
func Success(key string, payload any) Envelope {
	return Envelope{key: payload}
}

// Failure builds an error envelope from err.
func Failure(err error) Envelope {
	return Envelope{KeyError: err.Error()}
}

// Err returns the error message if e is an error envelope.
func (e Envelope) Err() (string, bool) {
	v, ok := e[KeyError]
	if !ok {
		return "", false
	}
	msg, _ := v.(string)
	return msg, true
}
