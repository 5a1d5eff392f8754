package extract

import (
	"fmt"
	"os"

	"github.com/skillsenselab/ingest/config"
	"github.com/skillsenselab/ingest/errors"
	"github.com/skillsenselab/ingest/httpclient"
	"github.com/skillsenselab/ingest/logger"
)

// resolveAuth turns the declarative auth spec into client credentials by
// reading the named environment variables. A named variable that is unset or
// empty fails extraction; credential values are only ever logged masked.
func resolveAuth(spec config.AuthSpec, log *logger.Logger) (*httpclient.AuthConfig, error) {
	switch spec.Type {
	case "", config.AuthNone:
		return nil, nil
	case config.AuthBearer:
		token, err := secret(spec.TokenEnv, log)
		if err != nil {
			return nil, err
		}
		return httpclient.BearerAuth(token), nil
	case config.AuthAPIKey:
		key, err := secret(spec.KeyEnv, log)
		if err != nil {
			return nil, err
		}
		if spec.In == "query" {
			return httpclient.APIKeyAuthQuery(key, spec.KeyName), nil
		}
		return httpclient.APIKeyAuthHeader(key, spec.KeyName), nil
	case config.AuthBasic:
		user, err := secret(spec.UserEnv, log)
		if err != nil {
			return nil, err
		}
		password, err := secret(spec.PasswordEnv, log)
		if err != nil {
			return nil, err
		}
		return httpclient.BasicAuth(user, password), nil
	default:
		return nil, errors.Config(fmt.Sprintf("unrecognized auth type %q", spec.Type))
	}
}

func secret(envName string, log *logger.Logger) (string, error) {
	value := os.Getenv(envName)
	if value == "" {
		return "", errors.Extraction(
			fmt.Sprintf("credential environment variable %s is not set", envName), 0, 0, "")
	}
	log.Debug("resolved credential", map[string]interface{}{
		"env":   envName,
		"value": logger.MaskSecret(value, 4),
	})
	return value, nil
}
