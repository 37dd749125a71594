package main

import (
	"context"
	"time"

	"github.com/shandysiswandi/verimail/internal/app"
)

const shutdownTimeout = 10 * time.Second

// @title           VeriMail API
// @version         1.0
// @description     VeriMail provides registration, email verification and login APIs.
// @contact.name    Contact Support
// @contact.email   support@verimail.dev
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT.
func main() {
	application := app.New()

	// Start returns a channel closed on SIGINT/SIGTERM.
	<-application.Start()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	application.Stop(ctx)
}
