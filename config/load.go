package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"

	"github.com/skillsenselab/ingest/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadPipeline reads and validates a pipeline definition from a YAML file.
// It fails with a CONFIG_INVALID error when required fields are missing,
// types are malformed, or cross-field constraints are violated. It has no
// side effects beyond reading the file.
//
// The definition is decoded with the YAML codec directly rather than a
// config framework: operator-authored map keys such as camelCase query
// params and dotted dtype paths must survive byte for byte, since params
// are sent to the API verbatim and dtype keys are resolved as paths into
// the raw records.
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Config(fmt.Sprintf("read %s: %v", path, err))
	}

	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.Config(fmt.Sprintf("unmarshal %s: %v", path, err)).WithCause(err)
	}

	p.applyDefaults()

	if err := validate.Struct(&p); err != nil {
		return nil, errors.Config(fmt.Sprintf("invalid definition: %v", err)).WithCause(err)
	}
	if err := p.checkConstraints(); err != nil {
		return nil, err
	}

	return &p, nil
}

// Marshal serializes the definition back to YAML. Loading the result yields
// an identical Pipeline.
func (p *Pipeline) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}

func (p *Pipeline) applyDefaults() {
	if p.Auth.Type == "" {
		p.Auth.Type = AuthNone
	}
	if p.Auth.In == "" && p.Auth.Type == AuthAPIKey {
		p.Auth.In = "header"
	}
	if p.Pagination != nil {
		if p.Pagination.Type == "" {
			p.Pagination.Type = PaginationNone
		}
		if p.Pagination.Type == PaginationPage && p.Pagination.StartPage <= 0 {
			p.Pagination.StartPage = 1
		}
	}
	if p.RateLimit.Requests <= 0 {
		p.RateLimit.Requests = 60
	}
	if p.RateLimit.Window == "" {
		p.RateLimit.Window = "1m"
	}
	for i := range p.Mappings {
		if p.Mappings[i].Type == "" {
			p.Mappings[i].Type = TypeString
		}
	}
}

// checkConstraints enforces the cross-field rules that struct tags cannot
// express. Strategy strings are rejected here, once, so the extractor never
// sees an unrecognized type.
func (p *Pipeline) checkConstraints() error {
	if p.Pagination != nil {
		switch p.Pagination.Type {
		case PaginationNone:
		case PaginationPage:
			if p.Pagination.PageParam == "" {
				return errors.Config("pagination type \"page\" requires page_param")
			}
		case PaginationCursor:
			if p.Pagination.CursorParam == "" || p.Pagination.CursorKey == "" {
				return errors.Config("pagination type \"cursor\" requires cursor_param and cursor_key")
			}
		case PaginationNextLink:
			if p.Pagination.NextLinkKey == "" {
				return errors.Config("pagination type \"next_link\" requires next_link_key")
			}
		default:
			return errors.Config(fmt.Sprintf("unrecognized pagination type %q", p.Pagination.Type))
		}
	}

	switch p.Auth.Type {
	case AuthNone:
	case AuthBearer:
		if p.Auth.TokenEnv == "" {
			return errors.Config("auth type \"bearer\" requires token_env")
		}
	case AuthAPIKey:
		if p.Auth.KeyName == "" || p.Auth.KeyEnv == "" {
			return errors.Config("auth type \"api_key\" requires key_name and key_env")
		}
		if p.Auth.In != "header" && p.Auth.In != "query" {
			return errors.Config(fmt.Sprintf("auth key placement %q must be \"header\" or \"query\"", p.Auth.In))
		}
	case AuthBasic:
		if p.Auth.UserEnv == "" || p.Auth.PasswordEnv == "" {
			return errors.Config("auth type \"basic\" requires user_env and password_env")
		}
	default:
		return errors.Config(fmt.Sprintf("unrecognized auth type %q", p.Auth.Type))
	}

	if _, err := time.ParseDuration(p.RateLimit.Window); err != nil {
		return errors.Config(fmt.Sprintf("invalid rate_limit window %q: %v", p.RateLimit.Window, err))
	}

	targets := make(map[string]bool, len(p.Mappings))
	for _, m := range p.Mappings {
		if !validColumnType(m.Type) {
			return errors.Config(fmt.Sprintf("mapping %s -> %s: unrecognized type %q", m.Source, m.Target, m.Type))
		}
		if targets[m.Target] {
			return errors.Config(fmt.Sprintf("duplicate mapping target %q", m.Target))
		}
		targets[m.Target] = true
		if (m.Scale != nil || m.Offset != nil) && m.Type != TypeInt && m.Type != TypeFloat {
			return errors.Config(fmt.Sprintf("mapping target %q: scale/offset require a numeric type", m.Target))
		}
	}

	for _, key := range p.UniqueKeys {
		if !targets[key] {
			return errors.Config(fmt.Sprintf("unique key %q is not a mapping target", key))
		}
	}

	if p.Schema != nil {
		for path, dtype := range p.Schema.Dtypes {
			if !validColumnType(dtype) {
				return errors.Config(fmt.Sprintf("schema dtype for %q: unrecognized type %q", path, dtype))
			}
		}
		r := p.Schema.Validation.MaxInvalidRatio
		if r < 0 || r > 1 {
			return errors.Config(fmt.Sprintf("max_invalid_ratio %v must be within [0, 1]", r))
		}
	}

	return nil
}

func validColumnType(t string) bool {
	switch strings.ToLower(t) {
	case TypeString, TypeInt, TypeFloat, TypeBool, TypeDatetime:
		return true
	}
	return false
}
