package secrets

import (
	"errors"
	"strings"

	"jobwatch-engine/internal/config"

	"github.com/zalando/go-keyring"
)

const (
	// “Service” groups the engine's secrets in the OS keychain.
	KeyringService = "jobwatch"
)

var ErrNoAdzunaKey = errors.New("adzuna app key not found (set it in keychain or via ADZUNA_APP_KEY)")

func AdzunaKeyringAccount(appID string) string {
	return "adzuna:" + strings.TrimSpace(appID)
}

func GetAdzunaKey(appID string) (string, error) {
	if strings.TrimSpace(appID) == "" {
		return "", errors.New("adzuna app_id is empty")
	}
	key, err := keyring.Get(KeyringService, AdzunaKeyringAccount(appID))
	if err == nil && strings.TrimSpace(key) != "" {
		return key, nil
	}
	return "", ErrNoAdzunaKey
}

func SetAdzunaKey(appID, key string) error {
	if strings.TrimSpace(appID) == "" {
		return errors.New("adzuna app_id is empty")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("app key is empty")
	}
	return keyring.Set(KeyringService, AdzunaKeyringAccount(appID), key)
}

func DeleteAdzunaKey(appID string) error {
	if strings.TrimSpace(appID) == "" {
		return errors.New("adzuna app_id is empty")
	}
	return keyring.Delete(KeyringService, AdzunaKeyringAccount(appID))
}

// ResolveAdzuna fills cfg.AppKey from the keyring when neither the config
// file nor the environment supplied one.
func ResolveAdzuna(cfg config.AdzunaSource) (config.AdzunaSource, error) {
	if strings.TrimSpace(cfg.AppKey) != "" {
		return cfg, nil
	}
	key, err := GetAdzunaKey(cfg.AppID)
	if err != nil {
		return cfg, err
	}
	cfg.AppKey = key
	return cfg, nil
}
