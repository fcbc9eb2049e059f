package handler

import (
	"net/http"
	"strconv"
)

// accountIDFromPath parses the {id} segment. A non-numeric or non-positive id
// can never name a provisioned account, so it maps to the same not-found
// rejection as an unknown one.
func accountIDFromPath(r *http.Request) (int64, *AppError) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrAccountNotFound
	}
	return id, nil
}
