package platform

import (
	"encoding/json"
	"net/http"

	"github.com/contestpulse/contest-pulse/pkg/util"
)

// GetPlatformsHandler serves the source registry so clients can build their
// filter list without hardcoding platform names or colors.
func GetPlatformsHandler(w http.ResponseWriter, r *http.Request) {
	util.EnableCors(&w)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GetPlatforms())
}
