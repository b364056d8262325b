// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by the external service clients (credit service).
var HTTPClient = &http.Client{
	Timeout: 10 * time.Second,
}
