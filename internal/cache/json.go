package cache

import (
	"encoding/json"
	"errors"
	"time"
)

const (
	PoolBalanceTTL = 30 * time.Second
	KillSwitchTTL  = 10 * time.Second
)

func PoolBalanceKey(poolID string) string {
	return "pool:" + poolID + ":balance"
}

func KillSwitchKey() string {
	return "settings:kill_switch"
}

// GetJSON unmarshals the cached value into dest. It reports false on a miss.
func GetJSON(c Cacher, key string, dest any) (bool, error) {
	val, err := c.Get(key)
	if errors.Is(err, ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, json.Unmarshal([]byte(val), dest)
}

func SetJSON(c Cacher, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.Set(key, string(b), ttl)
}
