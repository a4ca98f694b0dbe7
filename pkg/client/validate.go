package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Payload shapes used to derive the validation schemas. They mirror the
// bounds documented by ThreatFox; the service remains the authority.

type getIOCsShape struct {
	Query string `json:"query" jsonschema:"required,enum=get_iocs"`
	Days  int    `json:"days,omitempty" jsonschema:"minimum=1,maximum=90"`
}

type iocShape struct {
	Query string `json:"query" jsonschema:"required,enum=ioc"`
	ID    int64  `json:"id" jsonschema:"required,minimum=1"`
}

type searchIOCShape struct {
	Query      string `json:"query" jsonschema:"required,enum=search_ioc"`
	SearchTerm string `json:"search_term" jsonschema:"required,minLength=1"`
}

type searchHashShape struct {
	Query string `json:"query" jsonschema:"required,enum=search_hash"`
	Hash  string `json:"hash" jsonschema:"required,pattern=^([0-9a-fA-F]{32}|[0-9a-fA-F]{64})$"`
}

type tagInfoShape struct {
	Query string `json:"query" jsonschema:"required,enum=taginfo"`
	Tag   string `json:"tag" jsonschema:"required,minLength=1"`
	Limit int    `json:"limit" jsonschema:"required,minimum=1,maximum=1000"`
}

type malwareInfoShape struct {
	Query   string `json:"query" jsonschema:"required,enum=malwareinfo"`
	Malware string `json:"malware" jsonschema:"required,minLength=1"`
	Limit   int    `json:"limit" jsonschema:"required,minimum=1,maximum=1000"`
}

type submitShape struct {
	Query           string   `json:"query" jsonschema:"required,enum=submit_ioc"`
	ThreatType      string   `json:"threat_type" jsonschema:"required,minLength=1"`
	IOCType         string   `json:"ioc_type" jsonschema:"required,minLength=1"`
	Malware         string   `json:"malware" jsonschema:"required,minLength=1"`
	ConfidenceLevel int      `json:"confidence_level" jsonschema:"required,minimum=0,maximum=100"`
	Reference       *string  `json:"reference" jsonschema:"nullable"`
	Comment         *string  `json:"comment" jsonschema:"nullable"`
	Anonymous       int      `json:"anonymous" jsonschema:"required,enum=0,enum=1"`
	Tags            []string `json:"tags"`
	IOCs            []string `json:"iocs" jsonschema:"required,minItems=1"`
}

type getLabelShape struct {
	Query    string `json:"query" jsonschema:"required,enum=get_label"`
	Malware  string `json:"malware" jsonschema:"required,minLength=1"`
	Platform string `json:"platform,omitempty" jsonschema:"enum=win,enum=osx,enum=apk,enum=jar,enum=elf"`
}

type listShape struct {
	Query string `json:"query" jsonschema:"required,enum=malware_list,enum=types,enum=tag_list"`
}

// validator checks payloads against per-query JSON schemas.
type validator struct {
	schemas map[string]*sjsonschema.Schema
}

// printer renders validation messages in English.
var printer = message.NewPrinter(language.English)

func newValidator() (*validator, error) {
	shapes := map[string]any{
		QueryGetIOCs:     &getIOCsShape{},
		QueryIOC:         &iocShape{},
		QuerySearchIOC:   &searchIOCShape{},
		QuerySearchHash:  &searchHashShape{},
		QueryTagInfo:     &tagInfoShape{},
		QueryMalwareInfo: &malwareInfoShape{},
		QuerySubmitIOC:   &submitShape{},
		QueryGetLabel:    &getLabelShape{},
		QueryMalwareList: &listShape{},
		QueryTypes:       &listShape{},
		QueryTagList:     &listShape{},
	}

	r := &jsonschema.Reflector{
		Anonymous:                  true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}

	v := &validator{schemas: make(map[string]*sjsonschema.Schema, len(shapes))}
	for query, shape := range shapes {
		compiled, err := compileShape(r, query, shape)
		if err != nil {
			return nil, fmt.Errorf("compiling %s schema: %w", query, err)
		}
		v.schemas[query] = compiled
	}
	return v, nil
}

// compileShape reflects shape into a JSON Schema and compiles it.
func compileShape(r *jsonschema.Reflector, query string, shape any) (*sjsonschema.Schema, error) {
	schemaJSON, err := json.Marshal(r.Reflect(shape))
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}

	// The compiler needs a plain JSON value, not the reflected struct.
	var doc any
	if err := json.Unmarshal(schemaJSON, &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling schema: %w", err)
	}

	compiler := sjsonschema.NewCompiler()
	loc := query + ".json"
	if err := compiler.AddResource(loc, doc); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	return compiler.Compile(loc)
}

// validate returns a *ValidationError when p breaks its query's schema.
func (v *validator) validate(p Payload) error {
	query := p.Query()
	schema, ok := v.schemas[query]
	if !ok {
		return &ValidationError{Query: query, Problems: []string{printer.Sprintf("unknown query %q", query)}}
	}

	// Round-trip through JSON so the validator sees what the API will see.
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return &ValidationError{Query: query, Problems: validationProblems(err)}
	}
	return nil
}

// validationProblems flattens a schema error into sorted "path: message" lines.
func validationProblems(err error) []string {
	var ve *sjsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}

	seen := make(map[string]bool)
	var out []string
	var walk func(e *sjsonschema.ValidationError)
	walk = func(e *sjsonschema.ValidationError) {
		if e.ErrorKind != nil && len(e.Causes) == 0 {
			msg := e.ErrorKind.LocalizedString(printer)
			if len(e.InstanceLocation) > 0 {
				msg = "/" + strings.Join(e.InstanceLocation, "/") + ": " + msg
			}
			if !seen[msg] {
				seen[msg] = true
				out = append(out, msg)
			}
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(ve)

	if len(out) == 0 {
		return []string{ve.Error()}
	}
	sort.Strings(out)
	return out
}
