package config

import "time"

// Pagination strategy names. The strategy is resolved once at load time;
// the extractor dispatches on the parsed enum, not on raw strings.
const (
	PaginationNone     = "none"
	PaginationPage     = "page"
	PaginationCursor   = "cursor"
	PaginationNextLink = "next_link"
)

// Auth type names accepted in pipeline definitions.
const (
	AuthNone   = "none"
	AuthBearer = "bearer"
	AuthAPIKey = "api_key"
	AuthBasic  = "basic"
)

// Column type names accepted in schema dtypes and mapping targets.
const (
	TypeString   = "string"
	TypeInt      = "int"
	TypeFloat    = "float"
	TypeBool     = "bool"
	TypeDatetime = "datetime"
)

// Pipeline is the operator-authored definition of one ingestion pipeline.
// It is loaded once per run and never mutated during execution.
type Pipeline struct {
	// Name identifies the pipeline. Used as the dag_id in monitoring and
	// as the address prefix in the raw/invalid payload stores.
	Name string `yaml:"name" mapstructure:"name" validate:"required"`

	// BaseURL is the API root, e.g. https://api.github.com.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,url"`

	// Endpoint is the resource path appended to BaseURL.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"required"`

	// Params are static query parameters sent with every request.
	Params map[string]string `yaml:"params,omitempty" mapstructure:"params"`

	// Schedule is a cron-like expression consumed by the external
	// scheduler. The engine itself ignores it.
	Schedule string `yaml:"schedule,omitempty" mapstructure:"schedule"`

	// Auth configures request authentication.
	Auth AuthSpec `yaml:"auth" mapstructure:"auth"`

	// Pagination configures the page walk. Nil means a single request.
	Pagination *PaginationSpec `yaml:"pagination,omitempty" mapstructure:"pagination"`

	// RateLimit bounds outbound requests per rolling window.
	RateLimit RateLimitSpec `yaml:"rate_limit" mapstructure:"rate_limit"`

	// Schema holds the validation rules applied to raw records.
	Schema *SchemaSpec `yaml:"schema,omitempty" mapstructure:"schema"`

	// Mappings define the target row shape.
	Mappings []Mapping `yaml:"mappings" mapstructure:"mappings" validate:"required,min=1,dive"`

	// OutputTable is the target table name. Defaults to <name>_events.
	OutputTable string `yaml:"output_table,omitempty" mapstructure:"output_table"`

	// UniqueKeys are the upsert key columns of the target table. When
	// empty, the loader falls back to DELETE-by-run_date + INSERT.
	UniqueKeys []string `yaml:"unique_keys,omitempty" mapstructure:"unique_keys"`
}

// AuthSpec configures request authentication. Credentials are referenced
// by environment variable name and resolved at extraction time, never
// stored in the definition or logged.
type AuthSpec struct {
	// Type is one of: none, bearer, api_key, basic.
	Type string `yaml:"type" mapstructure:"type"`

	// TokenEnv names the environment variable holding the bearer token.
	TokenEnv string `yaml:"token_env,omitempty" mapstructure:"token_env"`

	// KeyName is the header or query parameter carrying the API key.
	KeyName string `yaml:"key_name,omitempty" mapstructure:"key_name"`

	// KeyEnv names the environment variable holding the API key.
	KeyEnv string `yaml:"key_env,omitempty" mapstructure:"key_env"`

	// In places the API key: "header" (default) or "query".
	In string `yaml:"in,omitempty" mapstructure:"in"`

	// UserEnv and PasswordEnv name the environment variables holding
	// basic auth credentials.
	UserEnv     string `yaml:"user_env,omitempty" mapstructure:"user_env"`
	PasswordEnv string `yaml:"password_env,omitempty" mapstructure:"password_env"`
}

// PaginationSpec configures the page walk.
type PaginationSpec struct {
	// Type is one of: none, page, cursor, next_link.
	Type string `yaml:"type" mapstructure:"type"`

	// PageParam is the query parameter carrying the page number (page).
	PageParam string `yaml:"page_param,omitempty" mapstructure:"page_param"`

	// StartPage is the first page number (page). Defaults to 1.
	StartPage int `yaml:"start_page,omitempty" mapstructure:"start_page"`

	// CursorParam is the query parameter carrying the cursor (cursor).
	CursorParam string `yaml:"cursor_param,omitempty" mapstructure:"cursor_param"`

	// CursorKey is the response field holding the next cursor (cursor).
	CursorKey string `yaml:"cursor_key,omitempty" mapstructure:"cursor_key"`

	// NextLinkKey is the dotted path to the next-page URL (next_link).
	NextLinkKey string `yaml:"next_link_key,omitempty" mapstructure:"next_link_key"`
}

// RateLimitSpec bounds outbound requests.
type RateLimitSpec struct {
	// Requests is the number of requests allowed per Window.
	Requests int `yaml:"requests,omitempty" mapstructure:"requests"`

	// Window is the rolling window, e.g. "1m". Defaults to one minute.
	Window string `yaml:"window,omitempty" mapstructure:"window"`
}

// ParsedWindow returns the window duration, defaulting to one minute.
func (r RateLimitSpec) ParsedWindow() time.Duration {
	d, err := time.ParseDuration(r.Window)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// SchemaSpec holds the validation rules applied to raw records.
type SchemaSpec struct {
	// RequiredColumns are dotted paths that must be present and non-null.
	RequiredColumns []string `yaml:"required_columns" mapstructure:"required_columns"`

	// Dtypes maps dotted paths to expected types. A record whose value
	// fails coercion to the declared type is invalid.
	Dtypes map[string]string `yaml:"dtypes,omitempty" mapstructure:"dtypes"`

	// Validation holds the uniqueness and nullability rules.
	Validation ValidationSpec `yaml:"validation,omitempty" mapstructure:"validation"`
}

// ValidationSpec holds uniqueness and nullability rules.
type ValidationSpec struct {
	// UniqueKeys are dotted paths whose combination must be unique
	// within a batch. Later duplicates are invalid.
	UniqueKeys []string `yaml:"unique_keys,omitempty" mapstructure:"unique_keys"`

	// NonNullFields must be non-null even when not in RequiredColumns.
	NonNullFields []string `yaml:"non_null_fields,omitempty" mapstructure:"non_null_fields"`

	// MaxInvalidRatio fails the batch when exceeded. Zero disables the
	// guard; the default definition sets 0.05.
	MaxInvalidRatio float64 `yaml:"max_invalid_ratio,omitempty" mapstructure:"max_invalid_ratio"`
}

// Mapping maps one source path to one target column.
type Mapping struct {
	// Source is the dotted path into the raw record, e.g. "repo.id".
	Source string `yaml:"source" mapstructure:"source" validate:"required"`

	// Target is the output column name.
	Target string `yaml:"target" mapstructure:"target" validate:"required"`

	// Type is the target column type. Defaults to string.
	Type string `yaml:"type,omitempty" mapstructure:"type"`

	// Format is the datetime layout for Type "datetime" (Go reference
	// layout). Empty means RFC 3339 with fallbacks.
	Format string `yaml:"format,omitempty" mapstructure:"format"`

	// Scale multiplies numeric values after conversion (unit changes).
	Scale *float64 `yaml:"scale,omitempty" mapstructure:"scale"`

	// Offset is added to numeric values after scaling.
	Offset *float64 `yaml:"offset,omitempty" mapstructure:"offset"`
}

// TableName returns the configured output table, defaulting to
// "<name>_events" as the original deployments did.
func (p *Pipeline) TableName() string {
	if p.OutputTable != "" {
		return p.OutputTable
	}
	return p.Name + "_events"
}

// TargetColumns returns the mapping targets in declaration order.
func (p *Pipeline) TargetColumns() []string {
	cols := make([]string, len(p.Mappings))
	for i, m := range p.Mappings {
		cols[i] = m.Target
	}
	return cols
}
