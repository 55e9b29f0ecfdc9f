package worker

import (
	"github.com/spec-kit/account-service/internal/service"
)

// StartMailWorker registers mail handlers on the service's dispatcher.
func StartMailWorker(mailService *service.MailService) {
	if mailService == nil {
		return
	}
	mailService.RegisterHandlers()
}
