package instance

import "os"

// EnvWorkerID overrides the derived worker identity.
const EnvWorkerID = "STOREFRONT_WORKER_ID"

// GetID identifies this process in lock values and logs: the configured
// worker id, else the hostname, else "worker-0".
func GetID() string {
	if id := os.Getenv(EnvWorkerID); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
