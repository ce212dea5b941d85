package fund

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"TradeSentinel/internal/model"
)

// LoadState reads the account from a JSON file. Returns a zero account if the
// path is empty or the file doesn't exist.
func LoadState(filePath string) (*model.Account, error) {
	if filePath == "" {
		return &model.Account{}, nil
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.Account{}, nil
		}
		return nil, err
	}
	var acct model.Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

// SaveState writes the account to a JSON file. An empty path keeps the account in memory only.
func SaveState(filePath string, acct *model.Account) error {
	acct.UpdatedAt = time.Now()
	if filePath == "" {
		return nil
	}
	data, err := json.MarshalIndent(acct, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, data, 0644)
}
