package handler

import (
	"net/http"

	"go.uber.org/zap"

	"taskmanager/internal/common"
)

// fail renders err and logs anything the client sees as a 500.
func fail(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	if status := common.RespondWithAppError(w, err); status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}
