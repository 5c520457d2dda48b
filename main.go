package main

import (
	"context"

	"github.com/shandysiswandi/cardnote/internal/app"
)

func main() {
	svc := app.New()
	<-svc.Start()

	ctx, cancel := context.WithTimeout(context.Background(), svc.ShutdownTimeout())
	defer cancel()
	svc.Stop(ctx)
}
