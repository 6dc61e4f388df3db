package worker

import (
	"github.com/shopfront-dev/storefront/internal/service"
)

// StartLifecycleWorker registers the post-commit handlers. Events are
// dispatched synchronously, so there is no goroutine to manage.
func StartLifecycleWorker(hooks *service.LifecycleHooks) {
	if hooks == nil {
		return
	}
	hooks.RegisterHandlers()
}
