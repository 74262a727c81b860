package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// ErrContract is returned when a payload does not satisfy the contract.
var ErrContract = errors.New("contract violation")

// envelopeSchema is the JSON Schema every emitted envelope must pass.
// Validating our own output catches shape drift before a consumer does.
const envelopeSchema = `{
  "type": "object",
  "required": ["contract", "contract_version", "provider", "generated_at", "request", "results"],
  "properties": {
    "contract": {"const": "` + ContractRetrieveV1 + `"},
    "contract_version": {"type": "string"},
    "provider": {"type": "string", "minLength": 1},
    "generated_at": {"type": "string"},
    "request": {"type": "object"},
    "results": {
      "type": "array",
      "maxItems": 200,
      "items": {
        "type": "object",
        "required": ["app_id", "company", "role", "status", "method", "tags", "score", "context", "evidence"],
        "properties": {
          "app_id": {"type": "string"},
          "company": {"type": "string"},
          "role": {"type": "string"},
          "status": {"type": "string"},
          "method": {"type": "string"},
          "tags": {"type": "array", "items": {"type": "string"}},
          "score": {"type": "number", "minimum": 0},
          "context": {"type": "string", "maxLength": 320},
          "evidence": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

// Envelope is the strict response shape: request metadata, provider
// identity, timestamp, and the validated result set.
type Envelope struct {
	Contract        string          `json:"contract"`
	ContractVersion string          `json:"contract_version"`
	Provider        string          `json:"provider"`
	GeneratedAt     time.Time       `json:"generated_at"`
	Request         RetrieveRequest `json:"request"`
	Results         []RetrieveItem  `json:"results"`
}

// BuildEnvelope wraps a ranked result list in the versioned envelope.
// Items are canonicalized, then the whole envelope is validated against
// the schema before it is handed to the caller.
func BuildEnvelope(request RetrieveRequest, results []RetrieveItem, provider string, generatedAt time.Time) (*Envelope, error) {
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContract, err)
	}
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return nil, fmt.Errorf("%w: provider must be a non-empty string", ErrContract)
	}
	if len(results) > MaxK {
		return nil, fmt.Errorf("%w: payload cannot exceed %d results", ErrContract, MaxK)
	}

	canonical := make([]RetrieveItem, len(results))
	for i, item := range results {
		item.Canonicalize()
		canonical[i] = item
	}

	env := &Envelope{
		Contract:        ContractRetrieveV1,
		ContractVersion: ContractVersion,
		Provider:        provider,
		GeneratedAt:     generatedAt.UTC(),
		Request:         request,
		Results:         canonical,
	}
	if err := ValidateEnvelope(env); err != nil {
		return nil, err
	}
	return env, nil
}

// ValidateEnvelope checks an envelope against the contract schema.
func ValidateEnvelope(env *Envelope) error {
	doc, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("%w: encoding envelope: %v", ErrContract, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(envelopeSchema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("validating envelope: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var sb strings.Builder
	for i, desc := range result.Errors() {
		if i > 0 {
			sb.WriteString("; ")
		}
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		sb.WriteString(field + ": " + desc.Description())
	}
	return fmt.Errorf("%w: %s", ErrContract, sb.String())
}
