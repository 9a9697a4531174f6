package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("DENTORA_TEST_MODE") == "" {
			_ = os.Setenv("DENTORA_TEST_MODE", "1")
		}
	})
}
