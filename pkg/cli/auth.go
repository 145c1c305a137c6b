package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/urfave/cli/v2"
	"github.com/zalando/go-keyring"
)

const (
	twitterKeyEnvVar = "TWITTERAPI_KEY"
	keyFileName      = "twitterapi_key"
	keyringService   = "vouchpulse"
	keyringUser      = "twitterapi_key"
)

var (
	apiKeyFlag = &cli.StringFlag{
		Name:  "key",
		Usage: "TwitterAPI.io API key to store",
	}

	authCmd = &cli.Command{
		Name:            "auth",
		HideHelpCommand: true,
		Usage:           "Store the TwitterAPI.io API key in the OS keychain",
		Action:          cmdAuth,
		Flags: []cli.Flag{
			apiKeyFlag,
		},
	}
)

func cmdAuth(c *cli.Context) error {
	key := strings.TrimSpace(c.String(apiKeyFlag.Name))
	if key == "" {
		fmt.Print("Paste your TwitterAPI.io API key and hit enter:\n> ")
		if _, err := fmt.Scanln(&key); err != nil {
			return fmt.Errorf("reading user input: %w", err)
		}
		key = strings.TrimSpace(key)
	}

	if key == "" {
		return cli.ShowSubcommandHelp(c)
	}

	if err := saveTwitterKey(key); err != nil {
		return fmt.Errorf("saving key: %w", err)
	}

	fmt.Println("Key saved")
	return nil
}

func saveTwitterKey(key string) error {
	if err := keyring.Set(keyringService, keyringUser, key); err != nil {
		slog.Warn("keychain unavailable, falling back to file", "error", err)
		return saveTwitterKeyFile(key)
	}

	// Clean up the fallback file if it exists
	os.Remove(path.Join(getHomeDir(), keyFileName))

	return nil
}

// getTwitterKey resolves the TwitterAPI.io key: environment first, then
// OS keychain, then the fallback file.
func getTwitterKey() (string, error) {
	if key := strings.TrimSpace(os.Getenv(twitterKeyEnvVar)); key != "" {
		return key, nil
	}

	key, err := keyring.Get(keyringService, keyringUser)
	if err == nil && key != "" {
		return key, nil
	}

	key, err = getTwitterKeyFile()
	if err != nil {
		return "", fmt.Errorf("no API key found, run `vouchpulse auth` or set %s: %w", twitterKeyEnvVar, err)
	}

	// Migrate to keychain
	if migrateErr := keyring.Set(keyringService, keyringUser, key); migrateErr == nil {
		slog.Info("migrated key from file to OS keychain")
		os.Remove(path.Join(getHomeDir(), keyFileName))
	}

	return key, nil
}

func saveTwitterKeyFile(key string) error {
	return os.WriteFile(path.Join(getHomeDir(), keyFileName), []byte(key), 0600)
}

func getTwitterKeyFile() (string, error) {
	keyPath := path.Join(getHomeDir(), keyFileName)
	b, err := os.ReadFile(keyPath)
	if err != nil {
		return "", fmt.Errorf("reading key file %s: %w", keyPath, err)
	}
	return strings.TrimSpace(string(b)), nil
}
