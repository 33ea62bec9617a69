package maintenance

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"staff-api/internal/observability"
	"staff-api/internal/response"
)

// LockReleaser clears lock windows that have already expired.
type LockReleaser interface {
	ReleaseExpiredLocks(ctx context.Context, now time.Time, batchSize int) (int64, error)
}

type CleanupHandler struct {
	locks      LockReleaser
	logger     *observability.Logger
	cronSecret string
	batchSize  int
	now        func() time.Time
}

type cleanupResult struct {
	ReleasedLocks int64 `json:"releasedLocks"`
}

func NewCleanupHandler(locks LockReleaser, logger *observability.Logger, cronSecret string, batchSize int) *CleanupHandler {
	return &CleanupHandler{
		locks:      locks,
		logger:     logger,
		cronSecret: strings.TrimSpace(cronSecret),
		batchSize:  batchSize,
		now:        time.Now,
	}
}

// Handle is hidden entirely when no cron secret is configured.
func (h *CleanupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret == "" {
		response.Fail(w, http.StatusNotFound, "not found")
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		response.Fail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") ||
		subtle.ConstantTimeCompare([]byte(strings.TrimSpace(parts[1])), []byte(h.cronSecret)) != 1 {
		response.Fail(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	released, err := h.locks.ReleaseExpiredLocks(r.Context(), h.now().UTC(), h.batchSize)
	if err != nil {
		h.logger.Error("lock_cleanup_failed", map[string]any{"error": err})
		observability.CaptureError(err, map[string]string{"job": "lock_cleanup"})
		response.Fail(w, http.StatusInternalServerError, "cleanup failed")
		return
	}

	h.logger.Info("lock_cleanup_completed", map[string]any{"released_locks": released})
	response.OK(w, "cleanup completed", cleanupResult{ReleasedLocks: released})
}
